// Package provision idempotently prepares the remote host: container engine,
// compose tooling, and the nginx reverse proxy installed, enabled, and
// running. Every step probes for existing presence first, so repeated runs
// are cheap no-ops. The posture is best-effort throughout — individual
// failures are logged and the pipeline continues; only the earlier
// connectivity check is fatal.
package provision

import (
	"context"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"

	"github.com/deckhand-io/deckhand/domain"
)

// Package manager families the provisioner can branch on.
const (
	familyDebian  = "debian"
	familyRPM     = "rpm"
	familyUnknown = "unknown"
)

// minEngineVersion is the oldest engine release that ships the compose v2
// plugin through distribution packages; older engines get an advisory.
const minEngineVersion = "v20.10.13"

// detectFamilyScript probes for package-manager binaries and echoes the
// family token.
const detectFamilyScript = `
if command -v apt-get >/dev/null 2>&1; then
    echo debian
elif command -v dnf >/dev/null 2>&1 || command -v yum >/dev/null 2>&1; then
    echo rpm
else
    echo unknown
fi
`

const installDebianScript = `
export DEBIAN_FRONTEND=noninteractive
sudo -E apt-get update -y
sudo -E apt-get install -y "$@"
`

const installRPMScript = `
if command -v dnf >/dev/null 2>&1; then
    sudo dnf install -y "$@"
else
    sudo yum install -y "$@"
fi
`

// enableServicesScript makes the engine and proxy daemons both
// enabled-at-boot and currently running.
const enableServicesScript = `
for svc in docker nginx; do
    sudo systemctl enable "$svc"
    sudo systemctl start "$svc"
done
`

// groupMembershipScript adds the operating user to the engine's privileged
// group only when membership is missing.
const groupMembershipScript = `
if id -nG "$USER" | tr ' ' '\n' | grep -qx docker; then
    echo "group-member"
else
    sudo usermod -aG docker "$USER"
    echo "group-added"
fi
`

const versionsScript = `
docker --version || true
docker compose version || true
nginx -v 2>&1 || true
`

// engineVersionPattern extracts the engine release from "docker --version".
var engineVersionPattern = regexp.MustCompile(`Docker version ([0-9]+\.[0-9]+\.[0-9]+)`)

// tool describes one provisioning target: how to probe for it and what to
// install per family when it is absent.
type tool struct {
	name       string
	probe      string
	debianPkgs []string
	rpmPkgs    []string
}

//nolint:gochecknoglobals // fixed provisioning inventory
var tools = []tool{
	{
		name:       "container engine",
		probe:      "command -v docker",
		debianPkgs: []string{"docker.io"},
		rpmPkgs:    []string{"docker"},
	},
	{
		name:       "compose plugin",
		probe:      "docker compose version",
		debianPkgs: []string{"docker-compose-v2"},
		rpmPkgs:    []string{"docker-compose-plugin"},
	},
	{
		name:       "reverse proxy",
		probe:      "command -v nginx",
		debianPkgs: []string{"nginx"},
		rpmPkgs:    []string{"nginx"},
	},
}

// HostProvisioner implements domain.Provisioner over a Runner.
type HostProvisioner struct {
	runner domain.Runner
	log    *logger.Logger
}

var _ domain.Provisioner = (*HostProvisioner)(nil)

// NewHostProvisioner creates a provisioner driving the given runner.
func NewHostProvisioner(runner domain.Runner, log *logger.Logger) *HostProvisioner {
	return &HostProvisioner{runner: runner, log: log}
}

// Provision brings the host to the required state. It returns an error only
// when the context is cancelled; everything else is logged and tolerated.
func (p *HostProvisioner) Provision(ctx context.Context) error {
	family := p.detectFamily(ctx)
	if family == familyUnknown {
		p.log.Warn("Unknown package manager; skipping installs (manual remediation assumed)")
	} else {
		p.log.Infof("Detected %s-like package manager", family)
	}

	for _, t := range tools {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.ensureTool(ctx, t, family)
	}

	p.enableServices(ctx)
	p.ensureGroupMembership(ctx)
	p.reportVersions(ctx)

	return ctx.Err()
}

// detectFamily probes for package-manager binaries on the host.
func (p *HostProvisioner) detectFamily(ctx context.Context) string {
	result, err := p.runner.RunScript(ctx, detectFamilyScript)
	if err != nil {
		p.log.Warnf("Package manager probe failed: %v", err)
		return familyUnknown
	}
	family := strings.TrimSpace(result.Output)
	switch family {
	case familyDebian, familyRPM:
		return family
	default:
		return familyUnknown
	}
}

// ensureTool probes for a tool and installs it only when absent.
func (p *HostProvisioner) ensureTool(ctx context.Context, t tool, family string) {
	if _, err := p.runner.Run(ctx, t.probe+" >/dev/null 2>&1"); err == nil {
		p.log.Infof("%s already present", t.name)
		return
	}

	var script string
	var pkgs []string
	switch family {
	case familyDebian:
		script, pkgs = installDebianScript, t.debianPkgs
	case familyRPM:
		script, pkgs = installRPMScript, t.rpmPkgs
	default:
		p.log.Warnf("Cannot install %s: no supported package manager", t.name)
		return
	}

	p.log.Infof("Installing %s (%s)...", t.name, strings.Join(pkgs, ", "))
	if _, err := p.runner.RunScript(ctx, script, pkgs...); err != nil {
		p.log.Errorf("Failed to install %s: %v", t.name, err)
	}
}

func (p *HostProvisioner) enableServices(ctx context.Context) {
	if _, err := p.runner.RunScript(ctx, enableServicesScript); err != nil {
		p.log.Errorf("Failed to enable services: %v", err)
	}
}

func (p *HostProvisioner) ensureGroupMembership(ctx context.Context) {
	result, err := p.runner.RunScript(ctx, groupMembershipScript)
	if err != nil {
		p.log.Errorf("Failed to ensure docker group membership: %v", err)
		return
	}
	if strings.Contains(result.Output, "group-added") {
		p.log.Info("Added remote user to the docker group (effective on next login)")
	}
}

// reportVersions emits tool version strings as diagnostics and warns when
// the engine predates the compose-v2-capable minimum.
func (p *HostProvisioner) reportVersions(ctx context.Context) {
	result, err := p.runner.RunScript(ctx, versionsScript)
	if err != nil {
		p.log.Warnf("Failed to collect tool versions: %v", err)
		return
	}

	if engineVer := parseEngineVersion(result.Output); engineVer != "" {
		if semver.Compare(engineVer, minEngineVersion) < 0 {
			p.log.Warnf(
				"Engine %s is older than %s; the compose plugin may be unavailable",
				engineVer, minEngineVersion,
			)
		}
	}
}

// parseEngineVersion extracts a semver-comparable engine version from the
// "docker --version" banner, or empty when it cannot be found.
func parseEngineVersion(output string) string {
	match := engineVersionPattern.FindStringSubmatch(output)
	if match == nil {
		return ""
	}
	return "v" + match[1]
}

// Package deploy runs the build/start/probe state machine on the remote
// host. A compose manifest in the deployment directory selects the
// compose-stack strategy; otherwise a bare Dockerfile drives a single
// container named after the project. Liveness is probed with a bounded
// exponential backoff rather than a fixed sleep, so a slow-starting workload
// is reported as "still starting" instead of misreported as failed.
package deploy

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	logger "github.com/sirupsen/logrus"

	"github.com/deckhand-io/deckhand/domain"
)

const (
	defaultProbeInitial = 2 * time.Second
	defaultProbeTimeout = 60 * time.Second
)

// detectArtifactScript reports which build descriptor is present in the
// remote deployment directory. Compose takes precedence over a Dockerfile.
const detectArtifactScript = `
dir="$1"
cd "$dir"
for f in docker-compose.yml docker-compose.yaml compose.yml compose.yaml; do
    if [ -f "$f" ]; then
        echo "artifact:compose"
        exit 0
    fi
done
if [ -f Dockerfile ]; then
    echo "artifact:dockerfile"
    exit 0
fi
echo "artifact:none"
`

// composeDeployScript brings down any reachable stack (tolerated to fail —
// treated as nothing running yet), pulls upstream images best-effort, then
// brings the stack up rebuilding images in detached mode.
const composeDeployScript = `
dir="$1"
cd "$dir"
docker compose down --remove-orphans || true
docker compose pull || true
docker compose up -d --build
`

// containerDeployScript forcibly removes any stale container with the
// project name, builds <name>:latest from the Dockerfile, and runs a new
// detached container publishing the app port to the same host port.
const containerDeployScript = `
dir="$1"
name="$2"
port="$3"
cd "$dir"
docker rm -f "$name" >/dev/null 2>&1 || true
docker build -t "$name:latest" .
docker run -d --name "$name" --restart unless-stopped -p "$port:$port" "$name:latest"
`

// probeScript reports whether a container matching the project name is
// running and, when exposed, its health status. For a compose stack any one
// matching container is acceptable evidence of liveness.
const probeScript = `
name="$1"
matches=$(docker ps --format '{{.Names}}' --filter "name=$name")
first=${matches%%$'\n'*}
if [ -z "$first" ]; then
    echo "probe:absent"
    exit 0
fi
health=$(docker inspect --format '{{if .State.Health}}{{.State.Health.Status}}{{end}}' "$first")
echo "probe:present name=$first health=$health"
`

// removeScript tears down the project's container and, when a compose
// manifest is present in the deployment directory, its stack. Best-effort.
const removeScript = `
name="$1"
dir="$2"
docker rm -f "$name" >/dev/null 2>&1 || true
if [ -d "$dir" ]; then
    cd "$dir"
    for f in docker-compose.yml docker-compose.yaml compose.yml compose.yaml; do
        if [ -f "$f" ]; then
            docker compose down --remove-orphans || true
            break
        fi
    done
fi
`

// ContainerDriver implements domain.Driver over a Runner.
type ContainerDriver struct {
	runner domain.Runner
	log    *logger.Logger

	// probe backoff knobs, overridable in tests
	probeInitial time.Duration
	probeTimeout time.Duration
}

var _ domain.Driver = (*ContainerDriver)(nil)

// NewContainerDriver creates a driver with the default probe backoff.
func NewContainerDriver(runner domain.Runner, log *logger.Logger) *ContainerDriver {
	return &ContainerDriver{
		runner:       runner,
		log:          log,
		probeInitial: defaultProbeInitial,
		probeTimeout: defaultProbeTimeout,
	}
}

// Deploy executes the per-project state machine: detect the artifact kind,
// stop/replace the previous instance, build and start the new one, then
// probe liveness with bounded backoff.
func (d *ContainerDriver) Deploy(
	ctx context.Context,
	project, remoteDir string,
	appPort int,
) (*domain.ProbeReport, error) {
	kind, err := d.detectArtifact(ctx, remoteDir)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect deployment directory: %w", err)
	}

	switch kind {
	case domain.ArtifactCompose:
		d.log.Infof("Deploying %s as a compose stack", project)
		if _, runErr := d.runner.RunScript(ctx, composeDeployScript, remoteDir); runErr != nil {
			return nil, fmt.Errorf("compose stack failed to start: %w", runErr)
		}
	case domain.ArtifactDockerfile:
		d.log.Infof("Deploying %s as a single container on port %d", project, appPort)
		_, runErr := d.runner.RunScript(
			ctx, containerDeployScript,
			remoteDir, project, strconv.Itoa(appPort),
		)
		if runErr != nil {
			return nil, fmt.Errorf("container build/start failed: %w", runErr)
		}
	default:
		return nil, fmt.Errorf("no Dockerfile or compose manifest in %s", remoteDir)
	}

	return d.awaitLiveness(ctx, project)
}

// Remove tears down the project's workload. Failures are logged only.
func (d *ContainerDriver) Remove(ctx context.Context, project, remoteDir string) error {
	if _, err := d.runner.RunScript(ctx, removeScript, project, remoteDir); err != nil {
		d.log.Warnf("Failed to remove workload %s: %v", project, err)
	}
	return nil
}

// detectArtifact asks the remote host which descriptor is present.
func (d *ContainerDriver) detectArtifact(
	ctx context.Context,
	remoteDir string,
) (domain.ArtifactKind, error) {
	result, err := d.runner.RunScript(ctx, detectArtifactScript, remoteDir)
	if err != nil {
		return domain.ArtifactNone, err
	}
	switch {
	case strings.Contains(result.Output, "artifact:compose"):
		return domain.ArtifactCompose, nil
	case strings.Contains(result.Output, "artifact:dockerfile"):
		return domain.ArtifactDockerfile, nil
	default:
		return domain.ArtifactNone, nil
	}
}

// awaitLiveness probes for a running container with exponential backoff,
// capped at probeTimeout. A workload still in its health-check "starting"
// phase when the cap is hit is surfaced distinctly from one that never
// appeared.
func (d *ContainerDriver) awaitLiveness(
	ctx context.Context,
	project string,
) (*domain.ProbeReport, error) {
	backoff := retry.WithMaxDuration(d.probeTimeout, retry.NewExponential(d.probeInitial))

	report := &domain.ProbeReport{Outcome: domain.ProbeAbsent}
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		current, probeErr := d.probe(ctx, project)
		if probeErr != nil {
			return retry.RetryableError(probeErr)
		}
		report = current
		if current.Outcome != domain.ProbeRunning {
			return retry.RetryableError(
				fmt.Errorf("workload %s is %s", project, current.Outcome),
			)
		}
		return nil
	})

	switch {
	case err == nil:
		message := lo.Ternary(report.Health != "",
			fmt.Sprintf("Container %s is running (health: %s)", report.Container, report.Health),
			fmt.Sprintf("Container %s is running", report.Container),
		)
		d.log.Info(message)
		return report, nil
	case report.Outcome == domain.ProbeStarting:
		return report, domain.Stepf("deploy", domain.ExitNoRunningContainer,
			"workload %s still starting after %s", project, d.probeTimeout)
	default:
		return report, domain.Stepf("deploy", domain.ExitNoRunningContainer,
			"no running container for %s after %s", project, d.probeTimeout)
	}
}

// probe runs one liveness inspection.
func (d *ContainerDriver) probe(
	ctx context.Context,
	project string,
) (*domain.ProbeReport, error) {
	result, err := d.runner.RunScript(ctx, probeScript, project)
	if err != nil {
		return nil, err
	}
	return parseProbeOutput(result.Output), nil
}

// parseProbeOutput turns the probe script's report line into a ProbeReport.
func parseProbeOutput(output string) *domain.ProbeReport {
	report := &domain.ProbeReport{Outcome: domain.ProbeAbsent}

	line, found := lo.Find(strings.Split(output, "\n"), func(l string) bool {
		return strings.HasPrefix(strings.TrimSpace(l), "probe:present")
	})
	if !found {
		return report
	}

	report.Outcome = domain.ProbeRunning
	for _, field := range strings.Fields(line) {
		switch {
		case strings.HasPrefix(field, "name="):
			report.Container = strings.TrimPrefix(field, "name=")
		case strings.HasPrefix(field, "health="):
			report.Health = strings.TrimPrefix(field, "health=")
		}
	}
	if report.Health == "starting" {
		report.Outcome = domain.ProbeStarting
	}
	return report
}

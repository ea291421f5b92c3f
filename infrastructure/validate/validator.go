// Package validate runs the post-deploy check battery. Every check is
// observational: failures are logged as warnings or errors but never change
// the run's exit status.
package validate

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	logger "github.com/sirupsen/logrus"

	"github.com/deckhand-io/deckhand/domain"
)

const (
	httpProbeTimeout = 10 * time.Second
	maxBodyLines     = 5
)

// remoteHTTPProbeScript reports the status code of an HTTP request against
// the proxy on the remote loopback. The code is reported, not asserted.
const remoteHTTPProbeScript = `
curl -s -o /dev/null -w '%{http_code}' --max-time 5 http://127.0.0.1/ || true
`

// DeploymentValidator implements domain.Validator.
type DeploymentValidator struct {
	target domain.Target
	runner domain.Runner
	log    *logger.Logger

	client *http.Client
}

var _ domain.Validator = (*DeploymentValidator)(nil)

// NewDeploymentValidator creates a validator probing from both the remote
// host and the driver's own vantage point.
func NewDeploymentValidator(
	target domain.Target,
	runner domain.Runner,
	log *logger.Logger,
) *DeploymentValidator {
	//nolint:exhaustruct // remaining Client fields keep their zero values
	return &DeploymentValidator{
		target: target,
		runner: runner,
		log:    log,
		client: &http.Client{Timeout: httpProbeTimeout},
	}
}

// Report runs every check independently and logs the outcome of each.
func (v *DeploymentValidator) Report(ctx context.Context, project string, appPort int) {
	v.checkEngineService(ctx)
	v.checkContainerPresence(ctx, project)
	v.checkRemoteHTTP(ctx)
	v.checkPublicHTTP(ctx)
	_ = appPort // the proxy fronts the app; both probes go through port 80
}

func (v *DeploymentValidator) checkEngineService(ctx context.Context) {
	result, err := v.runner.Run(ctx, "systemctl is-active docker")
	if err != nil || !strings.Contains(result.Output, "active") {
		v.log.Errorf("Container engine service is not active: %v", err)
		return
	}
	v.log.Info("Container engine service is active")
}

func (v *DeploymentValidator) checkContainerPresence(ctx context.Context, project string) {
	result, err := v.runner.Run(ctx, "docker ps --format '{{.Names}}'")
	if err != nil {
		v.log.Errorf("Failed to list containers: %v", err)
		return
	}

	names := strings.Fields(result.Output)
	match := lo.SomeBy(names, func(name string) bool {
		return strings.Contains(name, project)
	})
	if !match {
		v.log.Errorf("No container matching %q in the remote process list", project)
		return
	}
	v.log.Infof("Container matching %q is present", project)
}

func (v *DeploymentValidator) checkRemoteHTTP(ctx context.Context) {
	result, err := v.runner.RunScript(ctx, remoteHTTPProbeScript)
	if err != nil {
		v.log.Warnf("Remote HTTP probe failed: %v", err)
		return
	}
	v.log.Infof("Remote loopback HTTP probe returned status %s", strings.TrimSpace(result.Output))
}

// checkPublicHTTP probes the target's public address from the driver's own
// vantage point and reports the first lines of the body when non-empty.
func (v *DeploymentValidator) checkPublicHTTP(ctx context.Context) {
	probeURL := fmt.Sprintf("http://%s/", v.target.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		v.log.Warnf("Failed to build public HTTP probe: %v", err)
		return
	}

	resp, err := v.client.Do(req)
	if err != nil {
		v.log.Warnf("Public HTTP probe against %s failed: %v", probeURL, err)
		return
	}
	defer resp.Body.Close()

	v.log.Infof("Public HTTP probe returned status %d", resp.StatusCode)

	scanner := bufio.NewScanner(resp.Body)
	var lines []string
	for len(lines) < maxBodyLines && scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) > 0 {
		v.log.Infof("Response preview:\n%s", strings.Join(lines, "\n"))
	}
}

package deploy_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-io/deckhand/domain"
	"github.com/deckhand-io/deckhand/infrastructure/deploy"
	testdoubles "github.com/deckhand-io/deckhand/test"
)

func discardLogger() *logger.Logger {
	log := logger.New()
	log.SetOutput(io.Discard)
	return log
}

func newDriver(runner domain.Runner) *deploy.ContainerDriver {
	driver := deploy.NewContainerDriver(runner, discardLogger())
	driver.SetProbeBackoff(time.Millisecond, 20*time.Millisecond)
	return driver
}

func TestDeploy(t *testing.T) {
	t.Parallel()

	t.Run("should run the compose strategy when a manifest is present", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "artifact:none", Result: domain.Result{Output: "artifact:compose\n"}},
				{
					Match:  "probe:absent",
					Result: domain.Result{Output: "probe:present name=widget-web-1 health=\n"},
				},
			},
		}
		driver := newDriver(runner)

		// when
		report, err := driver.Deploy(context.Background(), "widget", "/opt/widget", 3000)

		// then
		require.NoError(t, err)
		assert.Equal(t, domain.ProbeRunning, report.Outcome)
		assert.Equal(t, "widget-web-1", report.Container)
		assert.NotEmpty(t, runner.CallsContaining("docker compose up -d --build"))
		assert.Empty(t, runner.CallsContaining("docker run -d"))
	})

	t.Run("should run a single container from a Dockerfile", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "artifact:none", Result: domain.Result{Output: "artifact:dockerfile\n"}},
				{
					Match:  "probe:absent",
					Result: domain.Result{Output: "probe:present name=widget health=healthy\n"},
				},
			},
		}
		driver := newDriver(runner)

		// when
		report, err := driver.Deploy(context.Background(), "widget", "/opt/widget", 3000)

		// then
		require.NoError(t, err)
		assert.Equal(t, "healthy", report.Health)
		runs := runner.CallsContaining("docker run -d")
		require.Len(t, runs, 1)
		assert.Equal(t, []string{"/opt/widget", "widget", "3000"}, runs[0].Args)
	})

	t.Run("should fail without a build descriptor", func(t *testing.T) {
		t.Parallel()

		// given: the detection script reports neither artifact
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "artifact:none", Result: domain.Result{Output: "artifact:none\n"}},
			},
		}
		driver := newDriver(runner)

		// when
		_, err := driver.Deploy(context.Background(), "widget", "/opt/widget", 3000)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no Dockerfile or compose manifest")
		assert.Empty(t, runner.CallsContaining("docker compose up"))
	})

	t.Run("should surface a failed build as fatal", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "artifact:none", Result: domain.Result{Output: "artifact:dockerfile\n"}},
				{Match: "docker build", Err: errors.New("exit status 1")},
			},
		}
		driver := newDriver(runner)

		// when
		_, err := driver.Deploy(context.Background(), "widget", "/opt/widget", 3000)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "container build/start failed")
	})

	t.Run("should report a missing container with the dedicated exit code", func(t *testing.T) {
		t.Parallel()

		// given: the workload never shows up in docker ps
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "artifact:none", Result: domain.Result{Output: "artifact:dockerfile\n"}},
				{Match: "probe:absent", Result: domain.Result{Output: "probe:absent\n"}},
			},
		}
		driver := newDriver(runner)

		// when
		report, err := driver.Deploy(context.Background(), "widget", "/opt/widget", 3000)

		// then
		require.Error(t, err)
		assert.Equal(t, domain.ExitNoRunningContainer, domain.ExitCodeOf(err))
		assert.Contains(t, err.Error(), "no running container for widget")
		assert.Equal(t, domain.ProbeAbsent, report.Outcome)
	})

	t.Run("should distinguish a workload that is still starting", func(t *testing.T) {
		t.Parallel()

		// given: the health check stays in its starting phase past the cap
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "artifact:none", Result: domain.Result{Output: "artifact:dockerfile\n"}},
				{
					Match:  "probe:absent",
					Result: domain.Result{Output: "probe:present name=widget health=starting\n"},
				},
			},
		}
		driver := newDriver(runner)

		// when
		report, err := driver.Deploy(context.Background(), "widget", "/opt/widget", 3000)

		// then
		require.Error(t, err)
		assert.Equal(t, domain.ExitNoRunningContainer, domain.ExitCodeOf(err))
		assert.Contains(t, err.Error(), "still starting")
		assert.Equal(t, domain.ProbeStarting, report.Outcome)
	})
}

func TestRemove(t *testing.T) {
	t.Parallel()

	t.Run("should tolerate teardown failures", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &testdoubles.SpyRunner{DefaultErr: errors.New("connection reset")}
		driver := newDriver(runner)

		// when
		err := driver.Remove(context.Background(), "widget", "/opt/widget")

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, runner.CallsContaining("docker rm -f"))
	})
}

func TestParseProbeOutput(t *testing.T) {
	t.Parallel()

	t.Run("should report absent when nothing matches", func(t *testing.T) {
		t.Parallel()

		report := deploy.ParseProbeOutput("probe:absent\n")
		assert.Equal(t, domain.ProbeAbsent, report.Outcome)
	})

	t.Run("should report running with container name and health", func(t *testing.T) {
		t.Parallel()

		report := deploy.ParseProbeOutput("probe:present name=widget health=healthy\n")
		assert.Equal(t, domain.ProbeRunning, report.Outcome)
		assert.Equal(t, "widget", report.Container)
		assert.Equal(t, "healthy", report.Health)
	})

	t.Run("should treat the starting health phase as its own outcome", func(t *testing.T) {
		t.Parallel()

		report := deploy.ParseProbeOutput("probe:present name=widget health=starting\n")
		assert.Equal(t, domain.ProbeStarting, report.Outcome)
	})

	t.Run("should skip unrelated output lines", func(t *testing.T) {
		t.Parallel()

		report := deploy.ParseProbeOutput("some noise\nprobe:present name=widget health=\n")
		assert.Equal(t, domain.ProbeRunning, report.Outcome)
		assert.Empty(t, report.Health)
	})
}

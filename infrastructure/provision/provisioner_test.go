package provision_test

import (
	"context"
	"errors"
	"io"
	"testing"

	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deckhand-io/deckhand/domain"
	"github.com/deckhand-io/deckhand/infrastructure/provision"
	testdoubles "github.com/deckhand-io/deckhand/test"
)

func discardLogger() *logger.Logger {
	log := logger.New()
	log.SetOutput(io.Discard)
	return log
}

func TestProvision(t *testing.T) {
	t.Parallel()

	t.Run("should skip installs when every tool is already present", func(t *testing.T) {
		t.Parallel()

		// given: probes succeed, so nothing needs installing
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "command -v apt-get", Result: domain.Result{Output: "debian\n"}},
			},
		}
		provisioner := provision.NewHostProvisioner(runner, discardLogger())

		// when
		err := provisioner.Provision(context.Background())

		// then
		require.NoError(t, err)
		assert.Empty(t, runner.CallsContaining("apt-get install"))
	})

	t.Run("should install with apt on a debian-like host", func(t *testing.T) {
		t.Parallel()

		// given: the family probe says debian and every presence probe fails
		probeFailure := errors.New("exit status 1")
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "command -v apt-get", Result: domain.Result{Output: "debian\n"}},
				{Match: "command -v docker >", Err: probeFailure},
				{Match: "docker compose version >", Err: probeFailure},
				{Match: "command -v nginx >", Err: probeFailure},
			},
		}
		provisioner := provision.NewHostProvisioner(runner, discardLogger())

		// when
		err := provisioner.Provision(context.Background())

		// then
		require.NoError(t, err)
		installs := runner.CallsContaining("apt-get install")
		require.Len(t, installs, 3)
		assert.Equal(t, []string{"docker.io"}, installs[0].Args)
		assert.Equal(t, []string{"docker-compose-v2"}, installs[1].Args)
		assert.Equal(t, []string{"nginx"}, installs[2].Args)
	})

	t.Run("should install with dnf or yum on an rpm-like host", func(t *testing.T) {
		t.Parallel()

		// given
		probeFailure := errors.New("exit status 1")
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "command -v apt-get", Result: domain.Result{Output: "rpm\n"}},
				{Match: "command -v docker >", Err: probeFailure},
			},
		}
		provisioner := provision.NewHostProvisioner(runner, discardLogger())

		// when
		err := provisioner.Provision(context.Background())

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, runner.CallsContaining("dnf install"))
	})

	t.Run("should warn and continue on an unknown package manager", func(t *testing.T) {
		t.Parallel()

		// given
		probeFailure := errors.New("exit status 1")
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "command -v apt-get", Result: domain.Result{Output: "unknown\n"}},
				{Match: "command -v docker >", Err: probeFailure},
			},
		}
		provisioner := provision.NewHostProvisioner(runner, discardLogger())

		// when
		err := provisioner.Provision(context.Background())

		// then: no installs, but services and group membership still handled
		require.NoError(t, err)
		assert.Empty(t, runner.CallsContaining("install -y"))
		assert.NotEmpty(t, runner.CallsContaining("systemctl enable"))
		assert.NotEmpty(t, runner.CallsContaining("usermod"))
	})

	t.Run("should tolerate individual install failures", func(t *testing.T) {
		t.Parallel()

		// given: installing fails outright
		probeFailure := errors.New("exit status 1")
		runner := &testdoubles.SpyRunner{
			Scripted: []testdoubles.ScriptedResult{
				{Match: "command -v apt-get", Result: domain.Result{Output: "debian\n"}},
				{Match: "command -v docker >", Err: probeFailure},
				{Match: "apt-get install", Err: errors.New("mirror down")},
			},
		}
		provisioner := provision.NewHostProvisioner(runner, discardLogger())

		// when
		err := provisioner.Provision(context.Background())

		// then
		assert.NoError(t, err)
	})

	t.Run("should enable and start the engine and proxy services", func(t *testing.T) {
		t.Parallel()

		// given
		runner := &testdoubles.SpyRunner{}
		provisioner := provision.NewHostProvisioner(runner, discardLogger())

		// when
		err := provisioner.Provision(context.Background())

		// then
		require.NoError(t, err)
		enables := runner.CallsContaining("systemctl enable")
		require.Len(t, enables, 1)
		assert.Contains(t, enables[0].Command, "docker nginx")
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		t.Parallel()

		// given
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		runner := &testdoubles.SpyRunner{}
		provisioner := provision.NewHostProvisioner(runner, discardLogger())

		// when
		err := provisioner.Provision(ctx)

		// then
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseEngineVersion(t *testing.T) {
	t.Parallel()

	t.Run("should extract the version from the banner", func(t *testing.T) {
		t.Parallel()

		// given
		banner := "Docker version 24.0.7, build afdd53b"

		// when
		version := provision.ParseEngineVersion(banner)

		// then
		assert.Equal(t, "v24.0.7", version)
	})

	t.Run("should return empty for unrecognized output", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, provision.ParseEngineVersion("command not found"))
	})
}

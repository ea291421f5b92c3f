// Package internal wires the workflow's components through a DIG container,
// bottom-up: runner -> step implementations -> orchestrators.
package internal

import (
	logger "github.com/sirupsen/logrus"
	"go.uber.org/dig"

	"github.com/deckhand-io/deckhand/application"
	"github.com/deckhand-io/deckhand/config"
	"github.com/deckhand-io/deckhand/domain"
	"github.com/deckhand-io/deckhand/infrastructure/deploy"
	"github.com/deckhand-io/deckhand/infrastructure/fetch"
	"github.com/deckhand-io/deckhand/infrastructure/nginx"
	"github.com/deckhand-io/deckhand/infrastructure/provision"
	"github.com/deckhand-io/deckhand/infrastructure/remote"
	"github.com/deckhand-io/deckhand/infrastructure/syncdir"
	"github.com/deckhand-io/deckhand/infrastructure/validate"
	"github.com/deckhand-io/deckhand/workspace"
)

// buildContainer registers every constructor shared by both entry points.
func buildContainer(
	settings *config.Settings,
	log *logger.Logger,
	ws *workspace.Workspace,
) (*dig.Container, error) {
	container := dig.New()

	providers := []interface{}{
		func() *config.Settings { return settings },
		func() *logger.Logger { return log },
		func() *workspace.Workspace { return ws },
		func(s *config.Settings) domain.Target { return s.TargetSpec() },

		remote.NewSSHRunner,
		func(r *remote.SSHRunner) domain.Runner { return r },

		fetch.NewGitFetcher,
		func(f *fetch.GitFetcher) domain.Fetcher { return f },

		provision.NewHostProvisioner,
		func(p *provision.HostProvisioner) domain.Provisioner { return p },

		syncdir.NewRsyncSyncer,
		func(s *syncdir.RsyncSyncer) domain.Syncer { return s },

		deploy.NewContainerDriver,
		func(d *deploy.ContainerDriver) domain.Driver { return d },

		nginx.NewSiteConfigurator,
		func(c *nginx.SiteConfigurator) domain.ProxyConfigurator { return c },

		validate.NewDeploymentValidator,
		func(v *validate.DeploymentValidator) domain.Validator { return v },
	}

	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, err
		}
	}

	return container, nil
}

// InjectWorkflow builds the deploy workflow plus the runner whose connection
// the caller must close after the run.
func InjectWorkflow(
	settings *config.Settings,
	log *logger.Logger,
	ws *workspace.Workspace,
) (*application.DeployWorkflow, *remote.SSHRunner, error) {
	container, err := buildContainer(settings, log, ws)
	if err != nil {
		return nil, nil, err
	}
	if err := container.Provide(application.NewDeployWorkflow); err != nil {
		return nil, nil, err
	}

	var workflow *application.DeployWorkflow
	var runner *remote.SSHRunner
	err = container.Invoke(func(w *application.DeployWorkflow, r *remote.SSHRunner) {
		workflow = w
		runner = r
	})
	if err != nil {
		return nil, nil, err
	}
	return workflow, runner, nil
}

// InjectTeardown builds the teardown service with the given confirmation
// callback.
func InjectTeardown(
	settings *config.Settings,
	log *logger.Logger,
	ws *workspace.Workspace,
	confirm application.ConfirmFunc,
) (*application.TeardownService, *remote.SSHRunner, error) {
	container, err := buildContainer(settings, log, ws)
	if err != nil {
		return nil, nil, err
	}
	if err := container.Provide(func() application.ConfirmFunc { return confirm }); err != nil {
		return nil, nil, err
	}
	if err := container.Provide(application.NewTeardownService); err != nil {
		return nil, nil, err
	}

	var service *application.TeardownService
	var runner *remote.SSHRunner
	err = container.Invoke(func(s *application.TeardownService, r *remote.SSHRunner) {
		service = s
		runner = r
	})
	if err != nil {
		return nil, nil, err
	}
	return service, runner, nil
}

// Package application orchestrates the deployment workflow: a strictly
// sequential chain of remote-provisioning and remote-execution steps, each
// fatal on failure except where the step's contract says best-effort.
package application

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/deckhand-io/deckhand/config"
	"github.com/deckhand-io/deckhand/domain"
	"github.com/deckhand-io/deckhand/workspace"
)

const publicListenPort = 80

// DeployWorkflow drives one full deployment run against one remote host.
type DeployWorkflow struct {
	settings    *config.Settings
	runner      domain.Runner
	fetcher     domain.Fetcher
	provisioner domain.Provisioner
	syncer      domain.Syncer
	driver      domain.Driver
	proxy       domain.ProxyConfigurator
	validator   domain.Validator
	ws          *workspace.Workspace
	log         *logger.Logger
}

// NewDeployWorkflow wires the workflow from its step implementations.
func NewDeployWorkflow(
	settings *config.Settings,
	runner domain.Runner,
	fetcher domain.Fetcher,
	provisioner domain.Provisioner,
	syncer domain.Syncer,
	driver domain.Driver,
	proxy domain.ProxyConfigurator,
	validator domain.Validator,
	ws *workspace.Workspace,
	log *logger.Logger,
) *DeployWorkflow {
	return &DeployWorkflow{
		settings:    settings,
		runner:      runner,
		fetcher:     fetcher,
		provisioner: provisioner,
		syncer:      syncer,
		driver:      driver,
		proxy:       proxy,
		validator:   validator,
		ws:          ws,
		log:         log,
	}
}

// Run executes the full pipeline: fetch -> connectivity -> provision ->
// sync -> deploy -> proxy -> validate. Fatal errors unwind immediately with
// no partial rollback of already-completed steps.
func (w *DeployWorkflow) Run(ctx context.Context) error {
	repo := w.settings.RepoSpec()
	target := w.settings.TargetSpec()
	project := w.settings.ProjectName()
	remoteDir := target.DeployDir(project)

	w.log.Infof("Deploying %s (branch %s) to %s", project, repo.Branch, target.Host)

	fetched, err := w.fetcher.Fetch(ctx, repo, w.ws.CloneDir(project))
	if err != nil {
		return fmt.Errorf("source fetch failed: %w", err)
	}

	if err := w.runner.CheckConnectivity(ctx); err != nil {
		return err
	}

	// Provisioning is best-effort by contract; an error here means the
	// context was cancelled, not that a package install failed.
	if err := w.provisioner.Provision(ctx); err != nil {
		return fmt.Errorf("provisioning aborted: %w", err)
	}

	if err := w.syncer.Sync(ctx, fetched.Dir, remoteDir); err != nil {
		return fmt.Errorf("file sync failed: %w", err)
	}

	report, err := w.driver.Deploy(ctx, project, remoteDir, w.settings.App.Port)
	if err != nil {
		return err
	}
	w.log.Infof("Workload state: %s", report.Outcome)

	site := domain.ProxySite{
		Name:       project,
		ListenPort: publicListenPort,
		AppPort:    w.settings.App.Port,
	}
	if err := w.proxy.Install(ctx, site); err != nil {
		return err
	}

	w.validator.Report(ctx, project, w.settings.App.Port)

	w.log.Infof("Deployment of %s complete", project)
	return nil
}

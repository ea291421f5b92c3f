package application

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/deckhand-io/deckhand/config"
	"github.com/deckhand-io/deckhand/domain"
)

// ConfirmFunc asks the user a yes/no question. It is injected by the cmd
// layer so the service itself never blocks on interactive input.
type ConfirmFunc func(prompt string) bool

// TeardownService reverses a deployment: containers stopped, proxy site
// removed, remote deployment directory deleted. Every sub-step is
// best-effort — teardown favors forward progress over halting on partial
// cleanup failure.
type TeardownService struct {
	settings *config.Settings
	runner   domain.Runner
	driver   domain.Driver
	proxy    domain.ProxyConfigurator
	confirm  ConfirmFunc
	log      *logger.Logger
}

// NewTeardownService wires the teardown entry point.
func NewTeardownService(
	settings *config.Settings,
	runner domain.Runner,
	driver domain.Driver,
	proxy domain.ProxyConfigurator,
	confirm ConfirmFunc,
	log *logger.Logger,
) *TeardownService {
	return &TeardownService{
		settings: settings,
		runner:   runner,
		driver:   driver,
		proxy:    proxy,
		confirm:  confirm,
		log:      log,
	}
}

// Run performs the teardown after explicit confirmation. Refusal aborts
// with no remote mutations and a zero exit.
func (t *TeardownService) Run(ctx context.Context) error {
	target := t.settings.TargetSpec()
	project := t.settings.ProjectName()
	remoteDir := target.DeployDir(project)

	prompt := fmt.Sprintf(
		"Tear down %q on %s (containers, proxy site, %s)?",
		project, target.Host, remoteDir,
	)
	if !t.confirm(prompt) {
		t.log.Info("Teardown aborted; no changes made")
		return nil
	}

	if err := t.runner.CheckConnectivity(ctx); err != nil {
		return err
	}

	t.log.Infof("Removing workload %s", project)
	_ = t.driver.Remove(ctx, project, remoteDir)

	t.log.Info("Removing proxy site")
	_ = t.proxy.Remove(ctx, project)

	t.log.Infof("Removing deployment directory %s", remoteDir)
	if _, err := t.runner.Run(ctx, fmt.Sprintf("rm -rf %q", remoteDir)); err != nil {
		t.log.Warnf("Failed to remove %s: %v", remoteDir, err)
	}

	t.log.Infof("Teardown of %s complete", project)
	return nil
}

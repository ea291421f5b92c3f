package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deckhand-io/deckhand/config"
	"github.com/deckhand-io/deckhand/domain"
	"github.com/deckhand-io/deckhand/internal"
	"github.com/deckhand-io/deckhand/logging"
	"github.com/deckhand-io/deckhand/workspace"
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var (
	cfgFile        string
	teardownMode   bool
	verbose        bool
	nonInteractive bool
)

//nolint:gochecknoglobals // required by cobra CLI pattern
var rootCmd = &cobra.Command{
	Use:   "deckhand",
	Short: "Deploy a containerized application to a single remote host",
	Long: `deckhand automates deployment of one containerized application to one
remote Linux host: it clones the source at a branch, provisions the host
(container engine, compose tooling, nginx), mirrors the code over, builds
and starts the workload, installs a reverse-proxy site, and validates the
result.

Without flags it runs the full deploy workflow, collecting any missing
parameters interactively. With --teardown it reverses a deployment instead.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

//nolint:gochecknoinits // required by cobra CLI pattern
func init() {
	rootCmd.Flags().BoolVar(&teardownMode, "teardown", false,
		"Tear down the deployment instead of deploying")
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"Path to config file (default: auto-detect)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false,
		"Fail on missing parameters instead of prompting")
}

func run(_ *cobra.Command, _ []string) error {
	settings, err := assembleSettings()
	if err != nil {
		return err
	}

	runLog, err := logging.NewRunLog(settings.LogDir)
	if err != nil {
		return err
	}
	defer runLog.Close()

	log := runLog.Logger
	if verbose {
		log.SetLevel(logger.DebugLevel)
	}

	ws, err := workspace.New(log)
	if err != nil {
		return err
	}
	defer ws.Cleanup()

	// An interrupt stops new work; a script already executing on the remote
	// host runs to its natural termination.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := dispatch(ctx, settings, log, ws)

	if ctxErr := ctx.Err(); ctxErr != nil {
		log.Warn("Interrupted; local workspace will be cleaned up")
		if runErr == nil {
			runErr = errors.New("interrupted")
		}
	}

	if runErr != nil {
		log.Errorf("Run failed: %v", runErr)
	} else {
		log.Info("Run succeeded")
	}
	log.Infof("Log file: %s", runLog.Path)

	return runErr
}

// dispatch selects the mutually exclusive entry point.
func dispatch(
	ctx context.Context,
	settings *config.Settings,
	log *logger.Logger,
	ws *workspace.Workspace,
) error {
	if teardownMode {
		confirm := buildConfirm()
		service, runner, err := internal.InjectTeardown(settings, log, ws, confirm)
		if err != nil {
			return fmt.Errorf("failed to wire teardown: %w", err)
		}
		defer runner.Close()
		return service.Run(ctx)
	}

	workflow, runner, err := internal.InjectWorkflow(settings, log, ws)
	if err != nil {
		return fmt.Errorf("failed to wire workflow: %w", err)
	}
	defer runner.Close()
	return workflow.Run(ctx)
}

// buildConfirm returns the confirmation callback for teardown. In
// non-interactive mode the answer is always no, so nothing is destroyed.
func buildConfirm() func(string) bool {
	if nonInteractive {
		return func(string) bool { return false }
	}
	prompter := NewPrompter()
	return prompter.Confirm
}

// assembleSettings merges config file, defaults, and prompts into the
// immutable settings the workflow consumes.
func assembleSettings() (*config.Settings, error) {
	settings := &config.Settings{} //nolint:exhaustruct // filled below

	path := cfgFile
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, domain.Stepf("config", domain.ExitMissingLocalFile,
				"config file %q not found", path)
		}
	} else {
		if found, err := config.FindConfigFile(); err == nil {
			path = found
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	if err := fillSettings(settings, NewPrompter(), nonInteractive); err != nil {
		return nil, err
	}

	settings.ApplyDefaults()

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

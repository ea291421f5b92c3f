package domain

import (
	"context"
	"os"
)

// Result holds the outcome of one remote execution: the combined
// stdout/stderr stream and the remote exit status.
type Result struct {
	Output   string
	ExitCode int
}

// Runner executes commands and scripts on the deployment target over a
// secure shell session. Every invocation appends its combined output to the
// run's log. Implementations must ship strict shell semantics (abort on
// first error, undefined variable, or pipeline failure) inside every script,
// independent of the caller's local shell settings.
type Runner interface {
	// Run executes a single command and returns its result. A non-zero
	// remote exit status is returned as a non-nil error alongside the
	// captured result.
	Run(ctx context.Context, command string) (Result, error)

	// RunScript ships a multi-line script body with optional positional
	// arguments and executes it under strict shell semantics.
	RunScript(ctx context.Context, script string, args ...string) (Result, error)

	// Upload writes content to a file on the remote host, creating parent
	// directories as needed and applying the given permission mode.
	Upload(ctx context.Context, content []byte, remotePath string, mode os.FileMode) error

	// CheckConnectivity sends a trivial command and requires a sentinel in
	// the echoed response. It must be called once before any provisioning
	// step; failure is fatal to the run.
	CheckConnectivity(ctx context.Context) error
}

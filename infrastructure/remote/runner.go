// Package remote implements command and script execution on the deployment
// target over SSH. One client is established per run and reused by every
// step; each execution gets its own session.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"

	"github.com/deckhand-io/deckhand/domain"
)

const (
	dialTimeout = 10 * time.Second

	// strictHeader is prepended to every shipped script so remote execution
	// aborts on first error, undefined variable reference, or pipeline
	// failure, independent of the caller's local shell settings.
	strictHeader = "set -euo pipefail"

	// connectivitySentinel must be echoed back by the trivial connectivity
	// command before any provisioning step runs.
	connectivitySentinel = "deckhand-link-ok"
)

// SSHRunner implements domain.Runner over an SSH connection authenticated
// with the target's private key.
type SSHRunner struct {
	target domain.Target
	log    *logger.Logger

	client *ssh.Client
}

var _ domain.Runner = (*SSHRunner)(nil)

// NewSSHRunner creates a runner for the given target. The connection is
// established lazily on first use.
func NewSSHRunner(target domain.Target, log *logger.Logger) *SSHRunner {
	return &SSHRunner{target: target, log: log}
}

// connect dials the target, parsing the private key on first use.
func (r *SSHRunner) connect() (*ssh.Client, error) {
	if r.client != nil {
		return r.client, nil
	}

	keyData, err := os.ReadFile(r.target.KeyPath)
	if err != nil {
		return nil, domain.NewStepError("connect", domain.ExitMissingKeyFile,
			fmt.Errorf("failed to read private key %q: %w", r.target.KeyPath, err))
	}

	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	//nolint:exhaustruct // remaining ClientConfig fields keep their zero values
	cfg := &ssh.ClientConfig{
		User: r.target.User,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		// Single-target tool; the host key is not pinned.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         dialTimeout,
	}

	client, err := ssh.Dial("tcp", r.target.Address(), cfg)
	if err != nil {
		return nil, domain.NewStepError("connect", domain.ExitConnectivity,
			fmt.Errorf("failed to dial %s: %w", r.target.Address(), err))
	}

	r.client = client
	return client, nil
}

// Run executes a single command on the target.
func (r *SSHRunner) Run(ctx context.Context, command string) (domain.Result, error) {
	return r.execute(ctx, command, nil)
}

// RunScript ships a multi-line script body with positional arguments and
// executes it under strict shell semantics.
func (r *SSHRunner) RunScript(
	ctx context.Context,
	script string,
	args ...string,
) (domain.Result, error) {
	command := "bash -s"
	for _, arg := range args {
		command += " " + shellQuote(arg)
	}
	return r.execute(ctx, command, strings.NewReader(wrapScript(script)))
}

// Upload writes content to remotePath, creating parent directories and
// applying the permission mode.
func (r *SSHRunner) Upload(
	ctx context.Context,
	content []byte,
	remotePath string,
	mode os.FileMode,
) error {
	command := fmt.Sprintf(
		"mkdir -p %s && cat > %s && chmod %o %s",
		shellQuote(path.Dir(remotePath)),
		shellQuote(remotePath),
		mode.Perm(),
		shellQuote(remotePath),
	)
	if _, err := r.execute(ctx, command, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to upload %s: %w", remotePath, err)
	}
	r.log.Debugf("Uploaded %d bytes to %s", len(content), remotePath)
	return nil
}

// CheckConnectivity sends a trivial echo and requires the sentinel in the
// response. Absence is fatal to the run.
func (r *SSHRunner) CheckConnectivity(ctx context.Context) error {
	result, err := r.execute(ctx, "echo "+connectivitySentinel, nil)
	if err != nil {
		var stepErr *domain.StepError
		if errors.As(err, &stepErr) {
			return err
		}
		return domain.NewStepError("connectivity", domain.ExitConnectivity, err)
	}
	if !strings.Contains(result.Output, connectivitySentinel) {
		return domain.Stepf("connectivity", domain.ExitConnectivity,
			"sentinel %q not echoed by %s", connectivitySentinel, r.target.Host)
	}
	r.log.Infof("Connectivity to %s confirmed", r.target.Address())
	return nil
}

// Close tears down the SSH connection.
func (r *SSHRunner) Close() error {
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

// execute runs one command in a fresh session. The remote script is allowed
// to run to completion even if the context is cancelled mid-flight; the
// context only gates starting new work.
func (r *SSHRunner) execute(
	ctx context.Context,
	command string,
	stdin io.Reader,
) (domain.Result, error) {
	if err := ctx.Err(); err != nil {
		return domain.Result{}, fmt.Errorf("remote execution aborted: %w", err)
	}

	client, err := r.connect()
	if err != nil {
		return domain.Result{}, err
	}

	session, err := client.NewSession()
	if err != nil {
		return domain.Result{}, fmt.Errorf("failed to open session: %w", err)
	}
	defer session.Close()

	sink := newLineLogger(r.log)
	session.Stdout = sink
	session.Stderr = sink
	if stdin != nil {
		session.Stdin = stdin
	}

	runErr := session.Run(command)
	sink.Flush()

	result := domain.Result{Output: sink.String(), ExitCode: 0}
	if runErr != nil {
		var exitErr *ssh.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitStatus()
			return result, fmt.Errorf("remote command exited with status %d", result.ExitCode)
		}
		return result, fmt.Errorf("remote execution failed: %w", runErr)
	}
	return result, nil
}

// wrapScript prepends the strict-mode header to a script body.
func wrapScript(script string) string {
	return "#!/usr/bin/env bash\n" + strictHeader + "\n\n" + script
}

// shellQuote wraps s in single quotes, escaping embedded ones, so positional
// arguments survive the remote shell untouched.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

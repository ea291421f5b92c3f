// Package syncdir mirrors the local working directory into the remote
// deployment directory with rsync over the SSH transport. The remote content
// becomes set-equal to the local tree, deletions included; a partial sync is
// never considered safe to build from, so any failure is fatal.
package syncdir

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/deckhand-io/deckhand/domain"
)

const remoteDirMode = "0755"

// RsyncSyncer implements domain.Syncer by shelling out to rsync with an ssh
// transport pinned to the target's port and key.
type RsyncSyncer struct {
	target domain.Target
	runner domain.Runner
	log    *logger.Logger
}

var _ domain.Syncer = (*RsyncSyncer)(nil)

// NewRsyncSyncer creates a syncer for the given target.
func NewRsyncSyncer(target domain.Target, runner domain.Runner, log *logger.Logger) *RsyncSyncer {
	return &RsyncSyncer{target: target, runner: runner, log: log}
}

// Sync mirrors localDir into remoteDir, creating the remote directory (and
// intermediate segments) first when absent.
func (s *RsyncSyncer) Sync(ctx context.Context, localDir, remoteDir string) error {
	mkdir := fmt.Sprintf("mkdir -p -m %s %q", remoteDirMode, remoteDir)
	if _, err := s.runner.Run(ctx, mkdir); err != nil {
		return fmt.Errorf("failed to create remote directory %s: %w", remoteDir, err)
	}

	args := buildRsyncArgs(s.target, localDir, remoteDir)
	s.log.Infof("Syncing %s -> %s:%s", localDir, s.target.Host, remoteDir)
	s.log.Debugf("rsync %s", strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, "rsync", args...)
	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		s.log.Debugf("rsync output:\n%s", string(output))
	}
	if err != nil {
		return fmt.Errorf("rsync failed: %w\nOutput:\n%s", err, string(output))
	}

	s.log.Info("Transfer complete")
	return nil
}

// buildRsyncArgs assembles the mirroring invocation: archive + compress,
// remote deletions, version-control metadata excluded, ssh transport with
// the target's port and key.
func buildRsyncArgs(target domain.Target, localDir, remoteDir string) []string {
	transport := fmt.Sprintf(
		"ssh -p %d -i %s -o StrictHostKeyChecking=no",
		target.Port, target.KeyPath,
	)
	return []string{
		"-az",
		"--delete",
		"--exclude", ".git",
		"-e", transport,
		strings.TrimRight(localDir, "/") + "/",
		fmt.Sprintf("%s@%s:%s/", target.User, target.Host, strings.TrimRight(remoteDir, "/")),
	}
}

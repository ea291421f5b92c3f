// Package fetch obtains the application source at the requested branch. An
// existing checkout is updated in place; otherwise a single-branch clone is
// made with the access token embedded in the clone URL, after which the
// persisted remote is rewritten to the token-free original so the credential
// never lands in on-disk configuration.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	gitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	logger "github.com/sirupsen/logrus"

	"github.com/deckhand-io/deckhand/domain"
)

const remoteName = "origin"

// composeManifests are probed in order; the first hit wins.
var composeManifests = []string{ //nolint:gochecknoglobals // fixed probe order
	"docker-compose.yml",
	"docker-compose.yaml",
	"compose.yml",
	"compose.yaml",
}

// GitFetcher implements domain.Fetcher using go-git.
type GitFetcher struct {
	log *logger.Logger
}

var _ domain.Fetcher = (*GitFetcher)(nil)

// NewGitFetcher creates a fetcher logging to the given run logger.
func NewGitFetcher(log *logger.Logger) *GitFetcher {
	return &GitFetcher{log: log}
}

// Fetch produces a working directory at dir containing the tip of the
// requested branch.
func (f *GitFetcher) Fetch(
	ctx context.Context,
	repo domain.Repository,
	dir string,
) (*domain.FetchResult, error) {
	var err error
	if isCheckout(dir) {
		f.log.Infof("Updating existing checkout in %s", dir)
		err = f.update(ctx, repo, dir)
	} else {
		f.log.Infof("Cloning %s (branch %s)", repo.URL, repo.Branch)
		err = f.clone(ctx, repo, dir)
	}
	if err != nil {
		return nil, err
	}

	result := &domain.FetchResult{Dir: dir, Artifact: DetectArtifact(dir)}

	switch result.Artifact {
	case domain.ArtifactCompose:
		result.Services = composeServices(dir)
		f.log.Infof("Found compose manifest (services: %v)", result.Services)
	case domain.ArtifactDockerfile:
		f.log.Info("Found Dockerfile")
	default:
		// Non-fatal: downstream steps still run and fail later if nothing
		// buildable shows up on the remote side either.
		f.log.Warn("No Dockerfile or compose manifest in project root")
	}

	return result, nil
}

// clone performs a single-branch clone using the authenticated URL, then
// scrubs the persisted remote back to the token-free original.
func (f *GitFetcher) clone(ctx context.Context, repo domain.Repository, dir string) error {
	authURL, err := AuthenticatedURL(repo.URL, repo.Token)
	if err != nil {
		return fmt.Errorf("failed to build clone URL: %w", err)
	}

	//nolint:exhaustruct // remaining CloneOptions keep their zero values
	_, err = git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           authURL,
		ReferenceName: plumbing.NewBranchReferenceName(repo.Branch),
		SingleBranch:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to clone %s: %w", repo.URL, err)
	}

	return scrubRemote(dir, repo.URL)
}

// update brings an existing checkout to the branch tip: fetch all refs,
// checkout the branch, pull it.
func (f *GitFetcher) update(ctx context.Context, repo domain.Repository, dir string) error {
	gitRepo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to open checkout %s: %w", dir, err)
	}

	auth := basicAuth(repo.Token)

	//nolint:exhaustruct // remaining FetchOptions keep their zero values
	fetchErr := gitRepo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remoteName,
		RefSpecs: []gitcfg.RefSpec{
			"+refs/heads/*:refs/remotes/origin/*",
		},
		Auth: auth,
	})
	if fetchErr != nil && !errors.Is(fetchErr, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to fetch refs: %w", fetchErr)
	}

	worktree, err := gitRepo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to open worktree: %w", err)
	}

	branchRef := plumbing.NewBranchReferenceName(repo.Branch)

	//nolint:exhaustruct // remaining CheckoutOptions keep their zero values
	checkoutErr := worktree.Checkout(&git.CheckoutOptions{Branch: branchRef, Force: true})
	if checkoutErr != nil {
		// The branch may only exist remotely yet; create a local one from
		// the fetched remote-tracking ref.
		remoteRef, refErr := gitRepo.Reference(
			plumbing.NewRemoteReferenceName(remoteName, repo.Branch), true,
		)
		if refErr != nil {
			return fmt.Errorf("branch %q not found: %w", repo.Branch, checkoutErr)
		}
		//nolint:exhaustruct // remaining CheckoutOptions keep their zero values
		checkoutErr = worktree.Checkout(&git.CheckoutOptions{
			Hash:   remoteRef.Hash(),
			Branch: branchRef,
			Create: true,
			Force:  true,
		})
		if checkoutErr != nil {
			return fmt.Errorf("failed to checkout %q: %w", repo.Branch, checkoutErr)
		}
	}

	//nolint:exhaustruct // remaining PullOptions keep their zero values
	pullErr := worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    remoteName,
		ReferenceName: branchRef,
		SingleBranch:  true,
		Auth:          auth,
	})
	if pullErr != nil && !errors.Is(pullErr, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %q: %w", repo.Branch, pullErr)
	}

	return nil
}

// AuthenticatedURL embeds the access token as the basic-auth credential
// component of an HTTPS repository URL.
func AuthenticatedURL(rawURL string, token domain.Secret) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid repository URL %q: %w", rawURL, err)
	}
	if token.IsZero() {
		return rawURL, nil
	}
	parsed.User = url.User(token.Reveal())
	return parsed.String(), nil
}

// scrubRemote rewrites the origin remote to the token-free URL.
func scrubRemote(dir, cleanURL string) error {
	gitRepo, err := git.PlainOpen(dir)
	if err != nil {
		return fmt.Errorf("failed to reopen clone: %w", err)
	}
	if err := gitRepo.DeleteRemote(remoteName); err != nil {
		return fmt.Errorf("failed to drop authenticated remote: %w", err)
	}
	//nolint:exhaustruct // remaining RemoteConfig fields keep their zero values
	_, err = gitRepo.CreateRemote(&gitcfg.RemoteConfig{
		Name: remoteName,
		URLs: []string{cleanURL},
	})
	if err != nil {
		return fmt.Errorf("failed to restore token-free remote: %w", err)
	}
	return nil
}

// DetectArtifact inspects a project root for a build descriptor. A compose
// manifest takes precedence over a bare Dockerfile.
func DetectArtifact(dir string) domain.ArtifactKind {
	if ComposeManifest(dir) != "" {
		return domain.ArtifactCompose
	}
	if fileExists(filepath.Join(dir, "Dockerfile")) {
		return domain.ArtifactDockerfile
	}
	return domain.ArtifactNone
}

// ComposeManifest returns the path of the first compose manifest present in
// dir, or empty when there is none.
func ComposeManifest(dir string) string {
	for _, name := range composeManifests {
		p := filepath.Join(dir, name)
		if fileExists(p) {
			return p
		}
	}
	return ""
}

func isCheckout(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

package fetch

import (
	"os"
	"sort"

	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/deckhand-io/deckhand/domain"
)

// tokenUser is the basic-auth username paired with the access token for
// HTTPS transports; hosts that authenticate by token ignore it.
const tokenUser = "token"

// composeFile is the slice of the compose manifest this tool cares about.
type composeFile struct {
	Services map[string]yaml.Node `yaml:"services"`
}

// composeServices lists the service names declared in the project's compose
// manifest, sorted. Parsing problems are swallowed — the listing is purely
// diagnostic.
func composeServices(dir string) []string {
	manifest := ComposeManifest(dir)
	if manifest == "" {
		return nil
	}

	data, err := os.ReadFile(manifest)
	if err != nil {
		return nil
	}

	var parsed composeFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil
	}

	names := lo.Keys(parsed.Services)
	sort.Strings(names)
	return names
}

// basicAuth builds the transport credential used for fetch/pull on an
// existing checkout, where no URL rewriting is involved.
func basicAuth(token domain.Secret) *githttp.BasicAuth {
	if token.IsZero() {
		return nil
	}
	return &githttp.BasicAuth{
		Username: tokenUser,
		Password: token.Reveal(),
	}
}

package domain

import (
	"fmt"
	"path"
	"strings"
)

// deploymentsSegment is the fixed path segment between the remote user's base
// directory and the per-project deployment directory.
const deploymentsSegment = "deployments"

// Target identifies the single remote endpoint a run operates on.
// It is collected once at workflow start and never mutated afterwards.
type Target struct {
	Host     string
	Port     int
	User     string
	KeyPath  string // path to the private key used for authentication
	BasePath string // base directory under which deployments live (e.g. /home)
}

// Address returns the host:port dial address of the target.
func (t Target) Address() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// DeployDir returns the remote deployment directory for a project:
// <base>/<user>/deployments/<project>.
func (t Target) DeployDir(project string) string {
	return path.Join(t.BasePath, t.User, deploymentsSegment, project)
}

// Repository describes the application source to deploy. The access token is
// held only in process memory and is redacted on every formatting path.
type Repository struct {
	URL    string
	Branch string
	Token  Secret
}

// ProjectName derives the project identifier from the repository URL: the
// final path segment with any trailing ".git" stripped. The same name is
// reused for the local workspace, the remote deployment directory, the
// container/compose project, and the proxy site file. Deriving from an
// already-derived name is a no-op.
func (r Repository) ProjectName() string {
	return DeriveProjectName(r.URL)
}

// DeriveProjectName extracts the project name token from a repository URL.
func DeriveProjectName(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	name := path.Base(trimmed)
	return strings.TrimSuffix(name, ".git")
}

// ArtifactKind is the build/run strategy selected for a deployment.
type ArtifactKind int

const (
	// ArtifactNone means no build descriptor was found in the project root.
	ArtifactNone ArtifactKind = iota
	// ArtifactDockerfile means a bare Dockerfile drives a single container.
	ArtifactDockerfile
	// ArtifactCompose means a compose manifest drives a multi-service stack.
	// Compose always takes precedence when both descriptors exist.
	ArtifactCompose
)

func (k ArtifactKind) String() string {
	switch k {
	case ArtifactDockerfile:
		return "single-container"
	case ArtifactCompose:
		return "compose-stack"
	default:
		return "none"
	}
}

// ProxySite describes one reverse-proxy site definition. There is exactly one
// site per project and it is overwritten wholesale on every deploy.
type ProxySite struct {
	Name       string // project name; the site file becomes <Name>.conf
	ListenPort int    // public listen port (80)
	AppPort    int    // upstream application port on 127.0.0.1
}

// FileName returns the site definition file name.
func (s ProxySite) FileName() string {
	return s.Name + ".conf"
}

package domain

import "context"

// FetchResult describes the local working directory produced by a fetch.
type FetchResult struct {
	Dir      string
	Artifact ArtifactKind
	Services []string // service names when the descriptor is a compose manifest
}

// Fetcher obtains the application source at a specific branch into a local
// working directory, using short-lived credentials that are never persisted.
type Fetcher interface {
	Fetch(ctx context.Context, repo Repository, dir string) (*FetchResult, error)
}

// Provisioner idempotently brings the remote host to a state where the
// container engine, compose tooling, and reverse-proxy daemon are installed,
// enabled, and running. Individual setup failures are logged, not returned;
// the posture is best-effort.
type Provisioner interface {
	Provision(ctx context.Context) error
}

// Syncer mirrors the local working directory into the remote deployment
// directory, deletions included. Any transfer failure is fatal.
type Syncer interface {
	Sync(ctx context.Context, localDir, remoteDir string) error
}

// ProbeOutcome classifies what the liveness probe observed after a deploy.
type ProbeOutcome int

const (
	// ProbeAbsent means no matching container was found.
	ProbeAbsent ProbeOutcome = iota
	// ProbeStarting means a container exists but its health state is still
	// "starting" — distinct from both running and failed.
	ProbeStarting
	// ProbeRunning means a matching container is up.
	ProbeRunning
)

func (o ProbeOutcome) String() string {
	switch o {
	case ProbeRunning:
		return "running"
	case ProbeStarting:
		return "starting"
	default:
		return "absent"
	}
}

// ProbeReport is the liveness evidence gathered after starting a workload.
type ProbeReport struct {
	Outcome   ProbeOutcome
	Container string // name of the matching container, when one was found
	Health    string // container health status string, when exposed
}

// Driver stops any previous instance of the application on the remote host,
// builds and starts the new one, and probes its liveness.
type Driver interface {
	// Deploy runs the build/start/probe state machine for the project and
	// returns the final probe report. Build, start, and liveness failures
	// are all fatal.
	Deploy(ctx context.Context, project, remoteDir string, appPort int) (*ProbeReport, error)

	// Remove tears down any container or stack named after the project.
	// Sub-steps are best-effort; failures are logged, not returned.
	Remove(ctx context.Context, project, remoteDir string) error
}

// ProxyConfigurator installs and removes reverse-proxy site definitions.
type ProxyConfigurator interface {
	// Install writes the site definition, enables it, validates the proxy
	// configuration, and reloads the daemon. Validation failure is fatal and
	// prevents the reload.
	Install(ctx context.Context, site ProxySite) error

	// Remove deletes the available/enabled site files and reloads the proxy
	// best-effort.
	Remove(ctx context.Context, name string) error
}

// Validator performs the post-deploy observational check battery. It only
// logs; it never changes the run's exit status.
type Validator interface {
	Report(ctx context.Context, project string, appPort int)
}

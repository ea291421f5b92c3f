// Package testdoubles provides test doubles (spies, stubs, dummies) for
// domain interfaces. These are hand-crafted implementations — no mock
// frameworks.
package testdoubles

import (
	"context"
	"os"
	"strings"

	"github.com/deckhand-io/deckhand/domain"
)

// ---------------------------------------------------------------------------
// SpyRunner
// ---------------------------------------------------------------------------

// RunnerCall records one Run or RunScript invocation.
type RunnerCall struct {
	Kind    string // "run" or "script"
	Command string // the command, or the script body for scripts
	Args    []string
}

// UploadCall records one Upload invocation.
type UploadCall struct {
	Content    []byte
	RemotePath string
	Mode       os.FileMode
}

// ScriptedResult maps a substring of the command/script to a canned result.
type ScriptedResult struct {
	Match  string
	Result domain.Result
	Err    error
}

// SpyRunner implements domain.Runner as a configurable spy. Configure
// Scripted entries (first substring match wins) for the executions your test
// exercises, then inspect the call-tracking fields to verify behavior.
type SpyRunner struct {
	Calls   []RunnerCall
	Uploads []UploadCall

	Scripted      []ScriptedResult
	DefaultResult domain.Result
	DefaultErr    error
	UploadErr     error

	ConnectivityErr   error
	ConnectivityCalls int
}

var _ domain.Runner = (*SpyRunner)(nil)

func (s *SpyRunner) Run(_ context.Context, command string) (domain.Result, error) {
	s.Calls = append(s.Calls, RunnerCall{Kind: "run", Command: command})
	return s.resolve(command)
}

func (s *SpyRunner) RunScript(
	_ context.Context,
	script string,
	args ...string,
) (domain.Result, error) {
	s.Calls = append(s.Calls, RunnerCall{Kind: "script", Command: script, Args: args})
	return s.resolve(script)
}

func (s *SpyRunner) Upload(
	_ context.Context,
	content []byte,
	remotePath string,
	mode os.FileMode,
) error {
	s.Uploads = append(s.Uploads, UploadCall{
		Content:    content,
		RemotePath: remotePath,
		Mode:       mode,
	})
	return s.UploadErr
}

func (s *SpyRunner) CheckConnectivity(_ context.Context) error {
	s.ConnectivityCalls++
	return s.ConnectivityErr
}

// CallsContaining returns the recorded calls whose command or script body
// contains the substring.
func (s *SpyRunner) CallsContaining(substr string) []RunnerCall {
	var matched []RunnerCall
	for _, call := range s.Calls {
		if strings.Contains(call.Command, substr) {
			matched = append(matched, call)
		}
	}
	return matched
}

func (s *SpyRunner) resolve(input string) (domain.Result, error) {
	for _, scripted := range s.Scripted {
		if strings.Contains(input, scripted.Match) {
			return scripted.Result, scripted.Err
		}
	}
	return s.DefaultResult, s.DefaultErr
}

// ---------------------------------------------------------------------------
// Step doubles
// ---------------------------------------------------------------------------

// Journal records the order in which workflow steps executed. Point every
// stub at the same Journal to assert sequencing.
type Journal struct {
	Entries []string
}

func (j *Journal) record(entry string) {
	if j != nil {
		j.Entries = append(j.Entries, entry)
	}
}

// StubFetcher implements domain.Fetcher.
type StubFetcher struct {
	Journal *Journal
	Result  *domain.FetchResult
	Err     error

	LastRepo domain.Repository
	LastDir  string
}

var _ domain.Fetcher = (*StubFetcher)(nil)

func (s *StubFetcher) Fetch(
	_ context.Context,
	repo domain.Repository,
	dir string,
) (*domain.FetchResult, error) {
	s.Journal.record("fetch")
	s.LastRepo = repo
	s.LastDir = dir
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Result != nil {
		return s.Result, nil
	}
	return &domain.FetchResult{Dir: dir, Artifact: domain.ArtifactDockerfile}, nil
}

// StubProvisioner implements domain.Provisioner.
type StubProvisioner struct {
	Journal *Journal
	Err     error
}

var _ domain.Provisioner = (*StubProvisioner)(nil)

func (s *StubProvisioner) Provision(_ context.Context) error {
	s.Journal.record("provision")
	return s.Err
}

// StubSyncer implements domain.Syncer.
type StubSyncer struct {
	Journal *Journal
	Err     error

	LastLocalDir  string
	LastRemoteDir string
}

var _ domain.Syncer = (*StubSyncer)(nil)

func (s *StubSyncer) Sync(_ context.Context, localDir, remoteDir string) error {
	s.Journal.record("sync")
	s.LastLocalDir = localDir
	s.LastRemoteDir = remoteDir
	return s.Err
}

// StubDriver implements domain.Driver.
type StubDriver struct {
	Journal *Journal
	Report  *domain.ProbeReport
	Err     error

	DeployCalls int
	RemoveCalls int
	LastProject string
	LastDir     string
	LastPort    int
}

var _ domain.Driver = (*StubDriver)(nil)

func (s *StubDriver) Deploy(
	_ context.Context,
	project, remoteDir string,
	appPort int,
) (*domain.ProbeReport, error) {
	s.Journal.record("deploy")
	s.DeployCalls++
	s.LastProject = project
	s.LastDir = remoteDir
	s.LastPort = appPort
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Report != nil {
		return s.Report, nil
	}
	return &domain.ProbeReport{Outcome: domain.ProbeRunning, Container: project}, nil
}

func (s *StubDriver) Remove(_ context.Context, project, remoteDir string) error {
	s.Journal.record("remove")
	s.RemoveCalls++
	s.LastProject = project
	s.LastDir = remoteDir
	return nil
}

// StubProxy implements domain.ProxyConfigurator.
type StubProxy struct {
	Journal *Journal
	Err     error

	InstalledSites []domain.ProxySite
	RemovedNames   []string
}

var _ domain.ProxyConfigurator = (*StubProxy)(nil)

func (s *StubProxy) Install(_ context.Context, site domain.ProxySite) error {
	s.Journal.record("proxy-install")
	if s.Err != nil {
		return s.Err
	}
	s.InstalledSites = append(s.InstalledSites, site)
	return nil
}

func (s *StubProxy) Remove(_ context.Context, name string) error {
	s.Journal.record("proxy-remove")
	s.RemovedNames = append(s.RemovedNames, name)
	return nil
}

// StubValidator implements domain.Validator.
type StubValidator struct {
	Journal *Journal

	ReportCalls int
}

var _ domain.Validator = (*StubValidator)(nil)

func (s *StubValidator) Report(_ context.Context, _ string, _ int) {
	s.Journal.record("validate")
	s.ReportCalls++
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/deckhand-io/deckhand/domain"
)

const (
	// DefaultBranch is used when no branch is given.
	DefaultBranch = "main"
	// DefaultSSHPort is used when no remote port is given.
	DefaultSSHPort = 22
	// DefaultBasePath is the default base directory for remote deployments.
	DefaultBasePath = "/home"
	// DefaultLogDir is where run-scoped log files are written.
	DefaultLogDir = "logs"
)

// Settings is the full, immutable set of inputs a run needs. It is assembled
// once at the process boundary (config file, flags, prompts) and handed to
// the workflow; the workflow itself never blocks on interactive input.
type Settings struct {
	Repository RepositorySettings `yaml:"repository"`
	Target     TargetSettings     `yaml:"target"`
	App        AppSettings        `yaml:"app"`
	LogDir     string             `yaml:"log_dir"`
}

// RepositorySettings identifies the application source.
type RepositorySettings struct {
	URL    string        `yaml:"url"`
	Branch string        `yaml:"branch"`
	Token  domain.Secret `yaml:"token"` // inline, ${ENV_VAR}, or file path
}

// TargetSettings identifies the remote host.
type TargetSettings struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	KeyPath  string `yaml:"key_path"`
	BasePath string `yaml:"base_path"`
}

// AppSettings holds application-level parameters.
type AppSettings struct {
	// Name overrides the project name derived from the repository URL.
	// Two repositories sharing a trailing URL segment would otherwise
	// collide on workspace, remote directory, and proxy site.
	Name string `yaml:"name"`
	Port int    `yaml:"port"` // internal port the application listens on
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file, expanding environment
// variables in the token and resolving token file paths.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var settings Settings
	if unmarshalErr := yaml.Unmarshal(data, &settings); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	settings.Repository.Token = domain.NewSecret(
		ResolveToken(settings.Repository.Token.Reveal()),
	)

	return &settings, nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = ""
	}

	locations := []string{
		".",
		".config",
	}
	if homeDir != "" {
		locations = append(
			locations,
			homeDir,
			filepath.Join(homeDir, ".config"),
		)
	}

	patterns := []string{
		".deckhand.yaml",
		".deckhand.yml",
		"deckhand.yaml",
		"deckhand.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

// ResolveToken expands environment variable references (${VAR}) and, if the
// resulting string is a path to an existing file, reads the token from it.
func ResolveToken(raw string) string {
	if raw == "" {
		return raw
	}

	resolved := envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})

	if info, statErr := os.Stat(resolved); statErr == nil && !info.IsDir() {
		data, readErr := os.ReadFile(resolved)
		if readErr == nil {
			return strings.TrimSpace(string(data))
		}
		logger.Warnf("Failed to read token file %q: %v", resolved, readErr)
	}

	return resolved
}

// ApplyDefaults fills every optional field that was left unset.
func (s *Settings) ApplyDefaults() {
	if s.Repository.Branch == "" {
		s.Repository.Branch = DefaultBranch
	}
	if s.Target.Port == 0 {
		s.Target.Port = DefaultSSHPort
	}
	if s.Target.BasePath == "" {
		s.Target.BasePath = DefaultBasePath
	}
	if s.LogDir == "" {
		s.LogDir = DefaultLogDir
	}
}

// Missing lists the required fields that are still unset, in prompt order.
func (s *Settings) Missing() []string {
	var missing []string
	for _, field := range []struct {
		name  string
		empty bool
	}{
		{"repository URL", s.Repository.URL == ""},
		{"access token", s.Repository.Token.IsZero()},
		{"remote user", s.Target.User == ""},
		{"remote host", s.Target.Host == ""},
		{"private key path", s.Target.KeyPath == ""},
		{"application port", s.App.Port == 0},
	} {
		if field.empty {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// Validate checks the assembled settings and returns exit-code classified
// errors: empty required fields, then the existence of the private key file.
func (s *Settings) Validate() error {
	if missing := s.Missing(); len(missing) > 0 {
		return domain.Stepf("validate", domain.ExitEmptyField,
			"required field(s) empty: %s", strings.Join(missing, ", "))
	}

	if _, err := os.Stat(s.Target.KeyPath); err != nil {
		return domain.Stepf("validate", domain.ExitMissingKeyFile,
			"private key file %q not found", s.Target.KeyPath)
	}

	if s.App.Port < 1 || s.App.Port > 65535 {
		return domain.Stepf("validate", domain.ExitEmptyField,
			"application port %d out of range", s.App.Port)
	}

	return nil
}

// ProjectName returns the explicit name override when set, otherwise the
// name derived from the repository URL.
func (s *Settings) ProjectName() string {
	if s.App.Name != "" {
		return s.App.Name
	}
	return domain.DeriveProjectName(s.Repository.URL)
}

// RepoSpec converts the settings to the domain repository value.
func (s *Settings) RepoSpec() domain.Repository {
	return domain.Repository{
		URL:    s.Repository.URL,
		Branch: s.Repository.Branch,
		Token:  s.Repository.Token,
	}
}

// TargetSpec converts the settings to the domain target value.
func (s *Settings) TargetSpec() domain.Target {
	return domain.Target{
		Host:     s.Target.Host,
		Port:     s.Target.Port,
		User:     s.Target.User,
		KeyPath:  s.Target.KeyPath,
		BasePath: s.Target.BasePath,
	}
}

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/deckhand-io/deckhand/domain"
)

// TargetBuilder helps create test targets with a fluent interface.
type TargetBuilder struct {
	*testkit.BaseBuilder
	host     string
	port     int
	user     string
	keyPath  string
	basePath string
}

// NewTargetBuilder creates a new target builder with sensible defaults.
func NewTargetBuilder() *TargetBuilder {
	return &TargetBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		host:        "203.0.113.10",
		port:        22,
		user:        "deployer",
		keyPath:     "/home/deployer/.ssh/id_ed25519",
		basePath:    "/home",
	}
}

// WithHost sets the remote host.
func (b *TargetBuilder) WithHost(host string) *TargetBuilder {
	b.host = host
	return b
}

// WithPort sets the SSH port.
func (b *TargetBuilder) WithPort(port int) *TargetBuilder {
	b.port = port
	return b
}

// WithUser sets the remote user.
func (b *TargetBuilder) WithUser(user string) *TargetBuilder {
	b.user = user
	return b
}

// WithKeyPath sets the private key path.
func (b *TargetBuilder) WithKeyPath(keyPath string) *TargetBuilder {
	b.keyPath = keyPath
	return b
}

// WithBasePath sets the remote base path.
func (b *TargetBuilder) WithBasePath(basePath string) *TargetBuilder {
	b.basePath = basePath
	return b
}

// Build creates the target (satisfies testkit.Builder interface).
func (b *TargetBuilder) Build() interface{} {
	return b.BuildTarget()
}

// BuildTarget creates the target with a concrete return type.
func (b *TargetBuilder) BuildTarget() domain.Target {
	return domain.Target{
		Host:     b.host,
		Port:     b.port,
		User:     b.user,
		KeyPath:  b.keyPath,
		BasePath: b.basePath,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *TargetBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.host = "203.0.113.10"
	b.port = 22
	b.user = "deployer"
	b.keyPath = "/home/deployer/.ssh/id_ed25519"
	b.basePath = "/home"
	return b
}

// Clone creates a deep copy of the TargetBuilder.
func (b *TargetBuilder) Clone() testkit.Builder {
	return &TargetBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		host:        b.host,
		port:        b.port,
		user:        b.user,
		keyPath:     b.keyPath,
		basePath:    b.basePath,
	}
}

package provision

// ParseEngineVersion exports parseEngineVersion for testing.
var ParseEngineVersion = parseEngineVersion //nolint:gochecknoglobals // test export

// Family tokens exported for testing.
const (
	FamilyDebian  = familyDebian
	FamilyRPM     = familyRPM
	FamilyUnknown = familyUnknown
)

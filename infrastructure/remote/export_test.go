package remote

// WrapScript exports wrapScript for testing.
var WrapScript = wrapScript //nolint:gochecknoglobals // test export

// ShellQuote exports shellQuote for testing.
var ShellQuote = shellQuote //nolint:gochecknoglobals // test export

// NewLineLogger exports newLineLogger for testing.
var NewLineLogger = newLineLogger //nolint:gochecknoglobals // test export

// ConnectivitySentinel exports the sentinel constant for testing.
const ConnectivitySentinel = connectivitySentinel

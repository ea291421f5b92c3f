package fetch

// ComposeServices exports composeServices for testing.
var ComposeServices = composeServices //nolint:gochecknoglobals // test export

// ScrubRemote exports scrubRemote for testing.
var ScrubRemote = scrubRemote //nolint:gochecknoglobals // test export

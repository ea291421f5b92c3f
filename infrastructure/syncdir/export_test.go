package syncdir

// BuildRsyncArgs exports buildRsyncArgs for testing.
var BuildRsyncArgs = buildRsyncArgs //nolint:gochecknoglobals // test export

package cmd

// FillSettings exports fillSettings for testing.
var FillSettings = fillSettings //nolint:gochecknoglobals // test export

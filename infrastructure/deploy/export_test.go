package deploy

import "time"

// ParseProbeOutput exports parseProbeOutput for testing.
var ParseProbeOutput = parseProbeOutput //nolint:gochecknoglobals // test export

// SetProbeBackoff shortens the probe backoff for tests.
func (d *ContainerDriver) SetProbeBackoff(initial, timeout time.Duration) {
	d.probeInitial = initial
	d.probeTimeout = timeout
}

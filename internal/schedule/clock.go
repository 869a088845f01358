/**
 * @description
 * Time sources for the scheduling engine. Every component that needs "now"
 * takes a Clock so date-boundary behavior is deterministic under test; the
 * pure functions in this package never read the wall clock themselves.
 */
package schedule

import "time"

// Clock supplies the current instant in UTC.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Location resolves an IANA timezone name, treating the empty string as UTC.
// No process-wide registration is required; the zone is loaded per call.
func Location(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

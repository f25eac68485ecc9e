// Package probe provides the clock and memory readings reported alongside a
// reduction result. Neither feeds into the reduction itself.
package probe

import "time"

// SystemClock reads the wall clock; differences use the monotonic reading.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Memory reports the process's peak resident set size.
type Memory struct{}

func (Memory) PeakMemoryKB() uint64 {
	return PeakMemoryKB()
}

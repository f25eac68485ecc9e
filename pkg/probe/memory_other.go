//go:build !unix

package probe

// PeakMemoryKB falls back to the Go runtime's view of memory obtained from
// the OS.
func PeakMemoryKB() uint64 {
	return runtimeMemoryKB()
}

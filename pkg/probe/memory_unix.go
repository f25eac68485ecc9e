//go:build unix

package probe

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// PeakMemoryKB returns the peak resident set size of this process in KB.
func PeakMemoryKB() uint64 {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return runtimeMemoryKB()
	}
	maxrss := uint64(ru.Maxrss)
	// Darwin and the BSDs derived from it report bytes, Linux reports KB.
	if runtime.GOOS == "darwin" || runtime.GOOS == "ios" {
		maxrss /= 1024
	}
	return maxrss
}

package probe

import "runtime"

func runtimeMemoryKB() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Sys / 1024
}

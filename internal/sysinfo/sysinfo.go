// Package sysinfo detects total system RAM and turns it into a memory
// budget the pyramid driver can warn against. internal/pyramid.NodeCache
// keeps every emitted leaf's image resident until its parent is built and
// never spills to disk, so ComputeMemoryLimit here is advisory only: the
// CLI logs a warning when the estimated node-cache footprint for a
// planned pyramid exceeds the budget, rather than blocking or spilling.
package sysinfo

import (
	"log"
	"runtime"
)

// DefaultMemoryPressurePercent is the fraction of total RAM a pyramid
// build should stay under. 0.90 = 90%.
const DefaultMemoryPressurePercent = 0.90

// ComputeMemoryLimit returns the advisory byte budget a pyramid build
// should stay under: fraction of total system RAM, minus current Go heap
// overhead and a fixed headroom. Returns 0 if RAM detection fails or the
// computed limit is unreasonably small.
func ComputeMemoryLimit(fraction float64, verbose bool) int64 {
	totalRAM, err := totalSystemRAM()
	if err != nil {
		if verbose {
			log.Printf("sysinfo: cannot detect system RAM: %v; memory budget warnings disabled", err)
		}
		return 0
	}

	if verbose {
		log.Printf("sysinfo: system RAM: %.1f GB", float64(totalRAM)/(1024*1024*1024))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	overhead := m.Sys + 2*1024*1024*1024

	limit := int64(float64(totalRAM)*fraction) - int64(overhead)
	if limit < 512*1024*1024 {
		if verbose {
			log.Printf("sysinfo: computed memory budget too small (%.0f MB); warnings disabled",
				float64(limit)/(1024*1024))
		}
		return 0
	}

	if verbose {
		log.Printf("sysinfo: pyramid memory budget: %.1f GB (%.0f%% of RAM minus %.1f GB overhead)",
			float64(limit)/(1024*1024*1024), fraction*100, float64(overhead)/(1024*1024*1024))
	}
	return limit
}

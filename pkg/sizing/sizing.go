// Package sizing computes worker-pool and connection-pool sizes for a
// deployment from the machine's CPU count and available RAM.
package sizing

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/mem"
)

const (
	// DefaultWorkerMemoryMB estimates the resident footprint of one worker.
	DefaultWorkerMemoryMB = 200
	// DefaultMinWorkers keeps at least two workers so one slow request never
	// serialises the whole deployment.
	DefaultMinWorkers = 2

	mib = 1024 * 1024
)

// Options parameterises the calculation. The probes are injectable so the
// result is deterministic under test.
type Options struct {
	WorkerMemoryMB int
	MinWorkers     int
	MaxWorkers     int // zero means unbounded
	Threads        int

	CPUCount     func() int
	AvailableRAM func() (uint64, error)
}

// Calculate returns the optimal worker count: the CPU-derived figure capped by
// what available RAM can hold, traded off against threads per worker, clamped
// to [MinWorkers, MaxWorkers].
func Calculate(opts Options) int {
	if opts.WorkerMemoryMB <= 0 {
		opts.WorkerMemoryMB = DefaultWorkerMemoryMB
	}
	if opts.MinWorkers <= 0 {
		opts.MinWorkers = DefaultMinWorkers
	}
	if opts.CPUCount == nil {
		opts.CPUCount = runtime.NumCPU
	}
	if opts.AvailableRAM == nil {
		opts.AvailableRAM = availableRAM
	}

	cpuBased := 2*opts.CPUCount() + 1

	ramBased := cpuBased
	if available, err := opts.AvailableRAM(); err == nil {
		ramBased = int(available / uint64(opts.WorkerMemoryMB*mib))
	}
	// RAM probe failure applies no RAM constraint.

	optimal := cpuBased
	if ramBased < optimal {
		optimal = ramBased
	}

	if opts.Threads > 1 {
		optimal = optimal / opts.Threads
		if optimal < opts.MinWorkers {
			optimal = opts.MinWorkers
		}
	}

	if optimal < opts.MinWorkers {
		optimal = opts.MinWorkers
	}
	if opts.MaxWorkers > 0 && optimal > opts.MaxWorkers {
		optimal = opts.MaxWorkers
	}

	return optimal
}

func availableRAM() (uint64, error) {
	stat, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return stat.Available, nil
}

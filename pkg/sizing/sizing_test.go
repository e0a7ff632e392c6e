package sizing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedCPU(n int) func() int {
	return func() int { return n }
}

func fixedRAM(bytes uint64) func() (uint64, error) {
	return func() (uint64, error) { return bytes, nil }
}

func failingRAM() (uint64, error) {
	return 0, errors.New("probe unavailable")
}

func TestCalculateCPUBound(t *testing.T) {
	// 4 CPUs -> 9 workers; plenty of RAM so no cap applies.
	got := Calculate(Options{
		WorkerMemoryMB: 200,
		CPUCount:       fixedCPU(4),
		AvailableRAM:   fixedRAM(64 * 1024 * mib),
	})
	assert.Equal(t, 9, got)
}

func TestCalculateRAMBound(t *testing.T) {
	// 1 GiB available at 200 MB per worker -> 5 workers despite 16 CPUs.
	got := Calculate(Options{
		WorkerMemoryMB: 200,
		CPUCount:       fixedCPU(16),
		AvailableRAM:   fixedRAM(1024 * mib),
	})
	assert.Equal(t, 5, got)
}

func TestCalculateRAMProbeFailureDegradesToCPU(t *testing.T) {
	got := Calculate(Options{
		WorkerMemoryMB: 200,
		CPUCount:       fixedCPU(2),
		AvailableRAM:   failingRAM,
	})
	assert.Equal(t, 5, got)
}

func TestCalculateThreadsTradeOff(t *testing.T) {
	// 9 workers across 4 threads each -> 2 workers, held at the floor.
	got := Calculate(Options{
		WorkerMemoryMB: 200,
		MinWorkers:     2,
		Threads:        4,
		CPUCount:       fixedCPU(4),
		AvailableRAM:   fixedRAM(64 * 1024 * mib),
	})
	assert.Equal(t, 2, got)
}

func TestCalculateRespectsFloor(t *testing.T) {
	for _, min := range []int{1, 2, 4, 8} {
		got := Calculate(Options{
			WorkerMemoryMB: 200,
			MinWorkers:     min,
			CPUCount:       fixedCPU(1),
			AvailableRAM:   fixedRAM(100 * mib),
		})
		assert.GreaterOrEqual(t, got, min)
	}
}

func TestCalculateRespectsCeiling(t *testing.T) {
	got := Calculate(Options{
		WorkerMemoryMB: 200,
		MaxWorkers:     4,
		CPUCount:       fixedCPU(32),
		AvailableRAM:   fixedRAM(64 * 1024 * mib),
	})
	assert.Equal(t, 4, got)
}

func TestCalculateDeterministic(t *testing.T) {
	opts := Options{
		WorkerMemoryMB: 300,
		MinWorkers:     2,
		Threads:        2,
		CPUCount:       fixedCPU(8),
		AvailableRAM:   fixedRAM(8 * 1024 * mib),
	}
	first := Calculate(opts)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Calculate(opts))
	}
}

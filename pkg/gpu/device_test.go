package gpu_test

import (
	"testing"

	"github.com/docker/go-units"
	g "github.com/onsi/gomega"

	"gpurun/pkg/gpu"
)

func TestClassify_idle(t *testing.T) {
	g.RegisterTestingT(t)

	device := gpu.Classify(gpu.Snapshot{
		Index:       0,
		MemoryTotal: 24 * units.GiB,
	})

	g.Expect(device.Idle).To(g.BeTrue())
	g.Expect(device.Attributed).To(g.BeZero())
	g.Expect(device.Unattributed).To(g.BeZero())
	g.Expect(device.SuspectedHidden).To(g.BeFalse())
}

func TestClassify_hiddenUsage(t *testing.T) {
	g.RegisterTestingT(t)

	// Memory in use with no owning process in sight.
	device := gpu.Classify(gpu.Snapshot{
		Index:       1,
		MemoryTotal: 24 * units.GiB,
		MemoryUsed:  600 * units.MiB,
	})

	g.Expect(device.SuspectedHidden).To(g.BeTrue())
	g.Expect(device.Idle).To(g.BeFalse())
	g.Expect(device.Unattributed).To(g.Equal(uint64(600 * units.MiB)))
}

func TestClassify_hiddenThresholdIsStrict(t *testing.T) {
	g.RegisterTestingT(t)

	device := gpu.Classify(gpu.Snapshot{
		MemoryTotal: 24 * units.GiB,
		MemoryUsed:  512 * units.MiB,
	})

	g.Expect(device.SuspectedHidden).To(g.BeFalse())
	// Still too much used memory to count as idle.
	g.Expect(device.Idle).To(g.BeFalse())
}

func TestClassify_idleMemoryBoundary(t *testing.T) {
	g.RegisterTestingT(t)

	below := gpu.Classify(gpu.Snapshot{
		MemoryTotal: 8 * units.GiB,
		MemoryUsed:  499 * units.MiB,
	})
	at := gpu.Classify(gpu.Snapshot{
		MemoryTotal: 8 * units.GiB,
		MemoryUsed:  500 * units.MiB,
	})

	g.Expect(below.Idle).To(g.BeTrue())
	g.Expect(at.Idle).To(g.BeFalse())
}

func TestClassify_attribution(t *testing.T) {
	g.RegisterTestingT(t)

	device := gpu.Classify(gpu.Snapshot{
		MemoryTotal: 24 * units.GiB,
		MemoryUsed:  10 * units.GiB,
		Processes: []gpu.ProcessUsage{
			{PID: 100, Memory: 6 * units.GiB},
			{PID: 200, Memory: 4 * units.GiB},
		},
	})

	g.Expect(device.Attributed).To(g.Equal(uint64(10 * units.GiB)))
	g.Expect(device.Unattributed).To(g.BeZero())
	g.Expect(device.SuspectedHidden).To(g.BeFalse())
	g.Expect(device.Idle).To(g.BeFalse())
}

func TestClassify_partialAttribution(t *testing.T) {
	g.RegisterTestingT(t)

	device := gpu.Classify(gpu.Snapshot{
		MemoryTotal: 24 * units.GiB,
		MemoryUsed:  10 * units.GiB,
		Processes:   []gpu.ProcessUsage{{PID: 100, Memory: 2 * units.GiB}},
	})

	g.Expect(device.Attributed).To(g.Equal(uint64(2 * units.GiB)))
	g.Expect(device.Unattributed).To(g.Equal(uint64(8 * units.GiB)))
	g.Expect(device.SuspectedHidden).To(g.BeTrue())
}

func TestClassify_attributionUnavailable(t *testing.T) {
	g.RegisterTestingT(t)

	// The driver shows a process but no per process memory breakdown, so
	// the used memory is attributed to it rather than flagged as hidden.
	device := gpu.Classify(gpu.Snapshot{
		MemoryTotal: 24 * units.GiB,
		MemoryUsed:  10 * units.GiB,
		Processes:   []gpu.ProcessUsage{{PID: 100}},
	})

	g.Expect(device.Attributed).To(g.Equal(uint64(10 * units.GiB)))
	g.Expect(device.Unattributed).To(g.BeZero())
	g.Expect(device.SuspectedHidden).To(g.BeFalse())
}

func TestClassify_clampsUsedAboveTotal(t *testing.T) {
	g.RegisterTestingT(t)

	device := gpu.Classify(gpu.Snapshot{
		MemoryTotal: 8 * units.GiB,
		MemoryUsed:  9 * units.GiB,
	})

	g.Expect(device.MemoryUsed).To(g.Equal(uint64(8 * units.GiB)))
	g.Expect(device.MemoryFree()).To(g.BeZero())
}

func TestDevice_String(t *testing.T) {
	g.RegisterTestingT(t)

	device := gpu.Classify(gpu.Snapshot{
		Index:       0,
		MemoryTotal: 24 * units.GiB,
		MemoryUsed:  300 * units.MiB,
		Utilization: 5,
	})

	g.Expect(device.String()).To(g.Equal("GPU 0: IDLE - 300/24576 MiB (1.2%), 5% util, 0 processes"))
}

func TestDevice_StringHidden(t *testing.T) {
	g.RegisterTestingT(t)

	device := gpu.Classify(gpu.Snapshot{
		Index:       2,
		MemoryTotal: 24 * units.GiB,
		MemoryUsed:  1024 * units.MiB,
	})

	g.Expect(device.String()).To(g.ContainSubstring("suspected hidden usage: 1024 MiB"))
}

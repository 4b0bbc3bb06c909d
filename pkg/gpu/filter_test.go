package gpu_test

import (
	"testing"

	"github.com/docker/go-units"
	g "github.com/onsi/gomega"

	"gpurun/pkg/gpu"
)

func TestFilter_minFreeMemory(t *testing.T) {
	g.RegisterTestingT(t)

	devices := gpu.ClassifyAll([]gpu.Snapshot{
		{Index: 0, MemoryTotal: 24 * units.GiB, MemoryUsed: 23 * units.GiB,
			Processes: []gpu.ProcessUsage{{PID: 10, Memory: 23 * units.GiB}}},
		{Index: 1, MemoryTotal: 24 * units.GiB},
	})

	kept := gpu.Filter(devices, gpu.Criteria{MinFreeMemory: 2 * units.GiB, MaxUtilization: -1})

	g.Expect(kept).To(g.HaveLen(1))
	g.Expect(kept[0].Index).To(g.Equal(1))
}

func TestFilter_maxUtilizationBoundary(t *testing.T) {
	g.RegisterTestingT(t)

	devices := gpu.ClassifyAll([]gpu.Snapshot{
		{Index: 0, MemoryTotal: 24 * units.GiB, Utilization: 50},
		{Index: 1, MemoryTotal: 24 * units.GiB, Utilization: 51},
	})

	// A device sitting exactly at the cap still qualifies.
	kept := gpu.Filter(devices, gpu.Criteria{MaxUtilization: 50})

	g.Expect(kept).To(g.HaveLen(1))
	g.Expect(kept[0].Index).To(g.Equal(0))
}

func TestFilter_maxUtilizationDisabled(t *testing.T) {
	g.RegisterTestingT(t)

	devices := gpu.ClassifyAll([]gpu.Snapshot{
		{Index: 0, MemoryTotal: 24 * units.GiB, Utilization: 100},
	})

	kept := gpu.Filter(devices, gpu.Criteria{MaxUtilization: -1})

	g.Expect(kept).To(g.HaveLen(1))
}

func TestFilter_requireIdle(t *testing.T) {
	g.RegisterTestingT(t)

	devices := gpu.ClassifyAll([]gpu.Snapshot{
		{Index: 0, MemoryTotal: 24 * units.GiB, MemoryUsed: 4 * units.GiB,
			Processes: []gpu.ProcessUsage{{PID: 10, Memory: 4 * units.GiB}}},
		{Index: 1, MemoryTotal: 24 * units.GiB},
	})

	kept := gpu.Filter(devices, gpu.Criteria{MaxUtilization: -1, RequireIdle: true})

	g.Expect(kept).To(g.HaveLen(1))
	g.Expect(kept[0].Index).To(g.Equal(1))
}

func TestFilter_idempotent(t *testing.T) {
	g.RegisterTestingT(t)

	devices := gpu.ClassifyAll([]gpu.Snapshot{
		{Index: 0, MemoryTotal: 24 * units.GiB},
		{Index: 1, MemoryTotal: 24 * units.GiB, MemoryUsed: 23 * units.GiB,
			Processes: []gpu.ProcessUsage{{PID: 10, Memory: 23 * units.GiB}}},
	})
	criteria := gpu.Criteria{MinFreeMemory: 2 * units.GiB, MaxUtilization: -1}

	once := gpu.Filter(devices, criteria)
	twice := gpu.Filter(once, criteria)

	g.Expect(twice).To(g.Equal(once))
}

func TestFilterReasons(t *testing.T) {
	g.RegisterTestingT(t)

	devices := gpu.ClassifyAll([]gpu.Snapshot{
		{Index: 0, MemoryTotal: 24 * units.GiB, MemoryUsed: 23 * units.GiB},
		{Index: 1, MemoryTotal: 24 * units.GiB, Utilization: 90},
	})

	reasons := gpu.FilterReasons(devices, 1, gpu.Criteria{
		MinFreeMemory:  2 * units.GiB,
		MaxUtilization: 50,
		RequireIdle:    true,
	})

	g.Expect(reasons).To(g.ContainElement("1 claimed by other processes"))
	g.Expect(reasons).To(g.ContainElement("1 with suspected hidden usage"))
	g.Expect(reasons).To(g.ContainElement("1 below 2GiB free memory"))
	g.Expect(reasons).To(g.ContainElement("1 above 50% utilization"))
	g.Expect(reasons).To(g.ContainElement("1 not idle"))
}

func TestFilterReasons_empty(t *testing.T) {
	g.RegisterTestingT(t)

	reasons := gpu.FilterReasons(nil, 0, gpu.Criteria{MaxUtilization: -1})

	g.Expect(reasons).To(g.BeEmpty())
}

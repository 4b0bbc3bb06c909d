//go:build linux && cgo

package nvml

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"gpurun/pkg/gpu"
)

// Discoverer queries NVML for device snapshots. Every query opens its own
// NVML session so polling always sees fresh driver state.
type Discoverer struct{}

func New() *Discoverer {
	return &Discoverer{}
}

// Available reports whether snapshots can be produced on this host.
func (d *Discoverer) Available() bool {
	return true
}

// Snapshots returns the current state of every device on the host.
func (d *Discoverer) Snapshots(_ context.Context) ([]gpu.Snapshot, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("initializing NVML: %s", nvml.ErrorString(ret))
	}

	defer func() {
		_ = nvml.Shutdown()
	}()

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("counting devices: %s", nvml.ErrorString(ret))
	}

	snapshots := make([]gpu.Snapshot, 0, count)

	for i := 0; i < count; i++ {
		snapshot, err := querySnapshot(i)
		if err != nil {
			return nil, err
		}

		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}

func querySnapshot(index int) (gpu.Snapshot, error) {
	device, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return gpu.Snapshot{}, fmt.Errorf("getting handle for device %d: %s", index, nvml.ErrorString(ret))
	}

	memory, ret := device.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return gpu.Snapshot{}, fmt.Errorf("getting memory info for device %d: %s", index, nvml.ErrorString(ret))
	}

	snapshot := gpu.Snapshot{
		Index:       index,
		MemoryTotal: memory.Total,
		MemoryUsed:  memory.Used,
	}

	if utilization, ret := device.GetUtilizationRates(); ret == nvml.SUCCESS {
		snapshot.Utilization = int(utilization.Gpu)
	}

	snapshot.Processes = queryProcesses(device)

	return snapshot, nil
}

// queryProcesses merges compute and graphics processes by PID. The driver
// reports max uint64 when it cannot attribute memory, stored here as zero.
func queryProcesses(device nvml.Device) []gpu.ProcessUsage {
	merged := make(map[uint32]uint64)

	for _, list := range [][]nvml.ProcessInfo{computeProcesses(device), graphicsProcesses(device)} {
		for _, process := range list {
			memory := process.UsedGpuMemory
			if memory == math.MaxUint64 {
				memory = 0
			}

			if existing, ok := merged[process.Pid]; !ok || memory > existing {
				merged[process.Pid] = memory
			}
		}
	}

	if len(merged) == 0 {
		return nil
	}

	processes := make([]gpu.ProcessUsage, 0, len(merged))
	for pid, memory := range merged {
		processes = append(processes, gpu.ProcessUsage{PID: pid, Memory: memory})
	}

	sort.Slice(processes, func(i, j int) bool {
		return processes[i].PID < processes[j].PID
	})

	return processes
}

func computeProcesses(device nvml.Device) []nvml.ProcessInfo {
	processes, ret := device.GetComputeRunningProcesses()
	if ret != nvml.SUCCESS {
		return nil
	}

	return processes
}

func graphicsProcesses(device nvml.Device) []nvml.ProcessInfo {
	processes, ret := device.GetGraphicsRunningProcesses()
	if ret != nvml.SUCCESS {
		return nil
	}

	return processes
}

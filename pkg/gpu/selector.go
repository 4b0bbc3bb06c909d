package gpu

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/go-units"

	errdefs "gpurun/pkg/errors"
)

// Selection is the device set handed to the launcher. Indices are in rank
// order, best device first.
type Selection struct {
	Indices  []int
	AllIdle  bool
	Warnings []string
}

// VisibleDevices renders the selection as a CUDA_VISIBLE_DEVICES value.
func (s *Selection) VisibleDevices() string {
	parts := make([]string, 0, len(s.Indices))
	for _, index := range s.Indices {
		parts = append(parts, strconv.Itoa(index))
	}

	return strings.Join(parts, ",")
}

// Select ranks the filtered devices and picks up to MaxCount of them,
// skipping indices claimed by other processes. Ranking prefers more free
// memory, then fewer processes, then the lower index.
func Select(filtered []Device, claimed map[int]bool, criteria Criteria) (*Selection, error) {
	candidates := make([]Device, 0, len(filtered))

	for _, device := range filtered {
		if claimed[device.Index] {
			continue
		}

		candidates = append(candidates, device)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		if a.MemoryFree() != b.MemoryFree() {
			return a.MemoryFree() > b.MemoryFree()
		}

		if len(a.Processes) != len(b.Processes) {
			return len(a.Processes) < len(b.Processes)
		}

		return a.Index < b.Index
	})

	if len(candidates) < criteria.MinCount {
		return nil, errdefs.InsufficientDevicesError{
			Available: len(candidates),
			Required:  criteria.MinCount,
		}
	}

	count := len(candidates)
	if count > criteria.MaxCount {
		count = criteria.MaxCount
	}

	selection := &Selection{Indices: make([]int, 0, count), AllIdle: true}

	for _, device := range candidates[:count] {
		selection.Indices = append(selection.Indices, device.Index)

		if !device.Idle {
			selection.AllIdle = false
		}
	}

	if !selection.AllIdle {
		selection.Warnings = append(selection.Warnings,
			fmt.Sprintf("selected GPUs are not all idle: %s", selection.VisibleDevices()))
	}

	return selection, nil
}

// SelectExplicit takes the requested indices as given. Thresholds, ranking
// and claim exclusion are bypassed, only existence is checked. Devices
// below the free memory bar produce warnings instead of failures.
func SelectExplicit(devices []Device, indices []int, criteria Criteria) (*Selection, error) {
	byIndex := make(map[int]Device, len(devices))
	for _, device := range devices {
		byIndex[device.Index] = device
	}

	selection := &Selection{Indices: indices, AllIdle: true}

	for _, index := range indices {
		device, ok := byIndex[index]
		if !ok {
			return nil, errdefs.DeviceNotFoundError{Index: index, Count: len(devices)}
		}

		if !device.Idle {
			selection.AllIdle = false
		}

		if criteria.MinFreeMemory > 0 && device.MemoryFree() < criteria.MinFreeMemory {
			selection.Warnings = append(selection.Warnings,
				fmt.Sprintf("GPU %d has only %s free", index, units.BytesSize(float64(device.MemoryFree()))))
		}
	}

	if !selection.AllIdle {
		selection.Warnings = append(selection.Warnings,
			fmt.Sprintf("selected GPUs are not all idle: %s", selection.VisibleDevices()))
	}

	return selection, nil
}

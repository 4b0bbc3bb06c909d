package gpu_test

import (
	"testing"

	g "github.com/onsi/gomega"

	"gpurun/pkg/gpu"
)

func TestCriteria_Validate(t *testing.T) {
	tt := []struct {
		name     string
		criteria gpu.Criteria
		wantErr  bool
	}{
		{
			name:     "valid",
			criteria: gpu.Criteria{MinCount: 1, MaxCount: 4, MaxUtilization: 50},
		},
		{
			name:     "valid with checks disabled",
			criteria: gpu.Criteria{MinCount: 2, MaxCount: 2, MaxUtilization: -1},
		},
		{
			name:     "zero min count",
			criteria: gpu.Criteria{MinCount: 0, MaxCount: 1},
			wantErr:  true,
		},
		{
			name:     "max below min",
			criteria: gpu.Criteria{MinCount: 4, MaxCount: 2},
			wantErr:  true,
		},
		{
			name:     "utilization above 100",
			criteria: gpu.Criteria{MinCount: 1, MaxCount: 1, MaxUtilization: 101},
			wantErr:  true,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			g.RegisterTestingT(t)

			err := tc.criteria.Validate()

			if tc.wantErr {
				g.Expect(err).To(g.HaveOccurred())
			} else {
				g.Expect(err).NotTo(g.HaveOccurred())
			}
		})
	}
}

func TestParseDeviceList(t *testing.T) {
	g.RegisterTestingT(t)

	indices, err := gpu.ParseDeviceList("0,2,1")

	g.Expect(err).NotTo(g.HaveOccurred())
	g.Expect(indices).To(g.Equal([]int{0, 2, 1}))
}

func TestParseDeviceList_whitespace(t *testing.T) {
	g.RegisterTestingT(t)

	indices, err := gpu.ParseDeviceList(" 1 , 3 ")

	g.Expect(err).NotTo(g.HaveOccurred())
	g.Expect(indices).To(g.Equal([]int{1, 3}))
}

func TestParseDeviceList_invalid(t *testing.T) {
	tt := []struct {
		name string
		list string
	}{
		{name: "empty", list: ""},
		{name: "only commas", list: ",,"},
		{name: "not a number", list: "0,a"},
		{name: "negative", list: "-1"},
		{name: "duplicate", list: "1,1"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			g.RegisterTestingT(t)

			_, err := gpu.ParseDeviceList(tc.list)

			g.Expect(err).To(g.HaveOccurred())
		})
	}
}

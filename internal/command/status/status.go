package status

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	cmdflags "gpurun/internal/command/flags"
	"gpurun/internal/config"
	"gpurun/internal/inject"
	"gpurun/pkg/app"
	"gpurun/pkg/flags"
	"gpurun/pkg/metrics"
)

func NewCommand(cfg *config.Config) (*cobra.Command, error) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show GPU occupancy and claims",
		PreRunE: func(c *cobra.Command, _ []string) error {
			flags.BindCommandToViper(c)

			return nil
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return status(c, cfg)
		},
	}

	cmdflags.AddLockFlagsToCommand(cmd, cfg)
	cmdflags.AddStatusFlagsToCommand(cmd, cfg)

	return cmd, nil
}

func status(cmd *cobra.Command, cfg *config.Config) error {
	ports, err := inject.InitializePorts(cfg)
	if err != nil {
		return err
	}

	gpuApp := inject.InitializeApp(&app.Config{}, ports)

	report, err := gpuApp.Status(cmd.Context())
	if err != nil {
		return err
	}

	if cfg.PromFile != "" {
		exporter := metrics.NewExporter()
		exporter.Observe(report.Devices, report.Claims)

		if err := exporter.WriteTextfile(cfg.PromFile); err != nil {
			return fmt.Errorf("writing metrics to %s: %w", cfg.PromFile, err)
		}
	}

	switch cfg.Output {
	case "", "table":
		return renderTable(cmd, report)
	case "json":
		payload, err := json.MarshalIndent(newReportView(report), "", "  ")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(payload))

		return nil
	case "yaml":
		payload, err := yaml.Marshal(newReportView(report))
		if err != nil {
			return err
		}

		fmt.Fprint(cmd.OutOrStdout(), string(payload))

		return nil
	default:
		return fmt.Errorf("unknown output format %q", cfg.Output)
	}
}

func renderTable(cmd *cobra.Command, report *app.StatusReport) error {
	out := cmd.OutOrStdout()

	if !report.Supported {
		fmt.Fprintln(out, "GPU status is not supported on this platform")

		return nil
	}

	if len(report.Devices) == 0 {
		fmt.Fprintln(out, "No GPUs detected")

		return nil
	}

	for _, device := range report.Devices {
		line := device.String()

		if claim, ok := report.Claims[device.Index]; ok {
			switch {
			case claim.Foreign:
				line += " [claimed (foreign)]"
			case claim.PID > 0:
				line += fmt.Sprintf(" [claimed by pid %d]", claim.PID)
			default:
				line += " [claimed]"
			}
		}

		fmt.Fprintln(out, line)
	}

	if len(report.Claims) > 0 {
		fmt.Fprintf(out, "\n%d of %d GPUs claimed\n", len(report.Claims), len(report.Devices))
	}

	return nil
}

type deviceView struct {
	Index           int    `json:"index" yaml:"index"`
	MemoryTotal     uint64 `json:"memory_total_bytes" yaml:"memory_total_bytes"`
	MemoryUsed      uint64 `json:"memory_used_bytes" yaml:"memory_used_bytes"`
	MemoryFree      uint64 `json:"memory_free_bytes" yaml:"memory_free_bytes"`
	Utilization     int    `json:"utilization_percent" yaml:"utilization_percent"`
	ProcessCount    int    `json:"process_count" yaml:"process_count"`
	Attributed      uint64 `json:"attributed_bytes" yaml:"attributed_bytes"`
	Unattributed    uint64 `json:"unattributed_bytes" yaml:"unattributed_bytes"`
	SuspectedHidden bool   `json:"suspected_hidden_usage" yaml:"suspected_hidden_usage"`
	Idle            bool   `json:"idle" yaml:"idle"`
	Claimed         bool   `json:"claimed" yaml:"claimed"`
}

type claimView struct {
	GPU       int    `json:"gpu" yaml:"gpu"`
	PID       int    `json:"pid" yaml:"pid"`
	Hostname  string `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	ClaimedAt string `json:"claimed_at,omitempty" yaml:"claimed_at,omitempty"`
	Foreign   bool   `json:"foreign,omitempty" yaml:"foreign,omitempty"`
}

type reportView struct {
	Supported bool         `json:"supported" yaml:"supported"`
	Devices   []deviceView `json:"devices" yaml:"devices"`
	Claims    []claimView  `json:"claims,omitempty" yaml:"claims,omitempty"`
}

func newReportView(report *app.StatusReport) reportView {
	view := reportView{
		Supported: report.Supported,
		Devices:   make([]deviceView, 0, len(report.Devices)),
	}

	for _, device := range report.Devices {
		_, claimed := report.Claims[device.Index]

		view.Devices = append(view.Devices, deviceView{
			Index:           device.Index,
			MemoryTotal:     device.MemoryTotal,
			MemoryUsed:      device.MemoryUsed,
			MemoryFree:      device.MemoryFree(),
			Utilization:     device.Utilization,
			ProcessCount:    len(device.Processes),
			Attributed:      device.Attributed,
			Unattributed:    device.Unattributed,
			SuspectedHidden: device.SuspectedHidden,
			Idle:            device.Idle,
			Claimed:         claimed,
		})
	}

	indices := make([]int, 0, len(report.Claims))
	for index := range report.Claims {
		indices = append(indices, index)
	}

	sort.Ints(indices)

	for _, index := range indices {
		claim := report.Claims[index]

		view.Claims = append(view.Claims, claimView{
			GPU:       index,
			PID:       claim.PID,
			Hostname:  claim.Hostname,
			ClaimedAt: formatClaimTime(claim.ClaimedAt),
			Foreign:   claim.Foreign,
		})
	}

	return view
}

func formatClaimTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(time.RFC3339)
}

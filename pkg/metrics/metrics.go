package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"gpurun/pkg/gpu"
	"gpurun/pkg/lock"
)

// Namespace prefixes every exported metric name.
const Namespace = "gpurun"

// Exporter renders device and claim state as Prometheus metrics, meant
// for the node_exporter textfile collector.
type Exporter struct {
	registry *prometheus.Registry

	memoryTotal *prometheus.GaugeVec
	memoryUsed  *prometheus.GaugeVec
	utilization *prometheus.GaugeVec
	processes   *prometheus.GaugeVec
	idle        *prometheus.GaugeVec
	claimed     *prometheus.GaugeVec
}

func NewExporter() *Exporter {
	labels := []string{"gpu"}

	e := &Exporter{
		registry: prometheus.NewRegistry(),
		memoryTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gpu_memory_total_bytes",
			Help:      "Total memory on the GPU.",
		}, labels),
		memoryUsed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gpu_memory_used_bytes",
			Help:      "Used memory on the GPU.",
		}, labels),
		utilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gpu_utilization_percent",
			Help:      "GPU utilization percentage.",
		}, labels),
		processes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gpu_process_count",
			Help:      "Number of processes visible on the GPU.",
		}, labels),
		idle: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gpu_idle",
			Help:      "Whether the GPU is idle.",
		}, labels),
		claimed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "gpu_claimed",
			Help:      "Whether the GPU has a valid advisory claim.",
		}, labels),
	}

	e.registry.MustRegister(e.memoryTotal, e.memoryUsed, e.utilization, e.processes, e.idle, e.claimed)

	return e
}

// Observe records the given device and claim state.
func (e *Exporter) Observe(devices []gpu.Device, claims map[int]lock.Claim) {
	for _, device := range devices {
		label := prometheus.Labels{"gpu": strconv.Itoa(device.Index)}

		e.memoryTotal.With(label).Set(float64(device.MemoryTotal))
		e.memoryUsed.With(label).Set(float64(device.MemoryUsed))
		e.utilization.With(label).Set(float64(device.Utilization))
		e.processes.With(label).Set(float64(len(device.Processes)))
		e.idle.With(label).Set(boolGauge(device.Idle))

		_, isClaimed := claims[device.Index]
		e.claimed.With(label).Set(boolGauge(isClaimed))
	}
}

// Registry returns the backing registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// WriteTextfile writes the recorded metrics to path in the Prometheus
// text format, for the node_exporter textfile collector to pick up.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.registry)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

package connectivity

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the rebuild instrumentation of a Graph.
type Metrics struct {
	RebuildsTotal   *prometheus.CounterVec
	RebuildDuration *prometheus.HistogramVec
	Subgraphs       prometheus.Gauge
	Nets            prometheus.Gauge
	Buses           prometheus.Gauge
	ConflictsTotal  prometheus.Counter
	MergesTotal     prometheus.Counter
	SheetsTotal     *prometheus.CounterVec
}

// NewMetrics registers the metrics with reg. A nil reg gets a private
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		RebuildsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schnet_rebuilds_total",
				Help: "Total number of connectivity rebuilds",
			},
			[]string{"mode", "status"},
		),
		RebuildDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "schnet_rebuild_duration_seconds",
				Help:    "Connectivity rebuild duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
			},
			[]string{"mode"},
		),
		Subgraphs: f.NewGauge(prometheus.GaugeOpts{
			Name: "schnet_subgraphs",
			Help: "Subgraphs in the resolved graph",
		}),
		Nets: f.NewGauge(prometheus.GaugeOpts{
			Name: "schnet_nets",
			Help: "Named nets in the resolved graph",
		}),
		Buses: f.NewGauge(prometheus.GaugeOpts{
			Name: "schnet_buses",
			Help: "Named buses in the resolved graph",
		}),
		ConflictsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "schnet_naming_conflicts_total",
			Help: "Naming conflicts found by rebuilds",
		}),
		MergesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "schnet_subgraph_merges_total",
			Help: "Subgraphs absorbed by hierarchical propagation",
		}),
		SheetsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "schnet_sheets_total",
				Help: "Sheet instances processed, by clustered or reused",
			},
			[]string{"result"},
		),
	}
}

// RecordRebuild records a completed rebuild.
func (m *Metrics) RecordRebuild(r *RebuildReport, nets, buses int) {
	if m == nil {
		return
	}
	mode := r.Mode()
	m.RebuildsTotal.WithLabelValues(mode, "ok").Inc()
	m.RebuildDuration.WithLabelValues(mode).Observe(r.Duration.Seconds())
	m.Subgraphs.Set(float64(r.SubgraphsCreated - r.SubgraphsMerged))
	m.Nets.Set(float64(nets))
	m.Buses.Set(float64(buses))
	m.ConflictsTotal.Add(float64(len(r.Conflicts)))
	m.MergesTotal.Add(float64(r.SubgraphsMerged))
	m.SheetsTotal.WithLabelValues("clustered").Add(float64(r.SheetsClustered))
	m.SheetsTotal.WithLabelValues("reused").Add(float64(r.SheetsReused))
}

// RecordFailure records an abandoned rebuild.
func (m *Metrics) RecordFailure(full bool, status string, d time.Duration) {
	if m == nil {
		return
	}
	mode := "incremental"
	if full {
		mode = "full"
	}
	m.RebuildsTotal.WithLabelValues(mode, status).Inc()
	m.RebuildDuration.WithLabelValues(mode).Observe(d.Seconds())
}

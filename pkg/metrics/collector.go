package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the network core's peer counts and sync state as
// Prometheus gauges. It is registered by the caller (cmd/neond wires it
// to an HTTP /metrics handler); this package only owns the metric
// definitions and update methods.
type Collector struct {
	ConnectedTotal    prometheus.Gauge
	GossipedTotal     prometheus.Gauge
	DisconnectedTotal prometheus.Gauge
	SyncState         prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ConnectedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neond",
			Subsystem: "network",
			Name:      "connected_total",
			Help:      "Number of peers currently connected.",
		}),
		GossipedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neond",
			Subsystem: "network",
			Name:      "gossiped_total",
			Help:      "Number of known but unconnected peer addresses.",
		}),
		DisconnectedTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neond",
			Subsystem: "network",
			Name:      "disconnected_total",
			Help:      "Number of formerly connected peer addresses.",
		}),
		SyncState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "neond",
			Subsystem: "network",
			Name:      "sync_state",
			Help:      "0 when idle, 1 when a block sync is in progress.",
		}),
	}
	reg.MustRegister(c.ConnectedTotal, c.GossipedTotal, c.DisconnectedTotal, c.SyncState)
	return c
}

// SetPeerCounts updates the three peer-book gauges at once.
func (c *Collector) SetPeerCounts(connected, gossiped, disconnected int) {
	c.ConnectedTotal.Set(float64(connected))
	c.GossipedTotal.Set(float64(gossiped))
	c.DisconnectedTotal.Set(float64(disconnected))
}

// SetSyncing records whether a block sync is currently in progress.
func (c *Collector) SetSyncing(syncing bool) {
	if syncing {
		c.SyncState.Set(1)
		return
	}
	c.SyncState.Set(0)
}

package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shardql/shardql/cmn"
)

// Metrics are the dispatcher's prometheus instruments, registered once
// by the owning process and passed in rather than
// held as package globals, so tests can use a private registry.
type Metrics struct {
	partitionsDispatched prometheus.Counter
	partitionErrors      *prometheus.CounterVec
	dispatchLatency      prometheus.Histogram
	noOnlineNodes        prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		partitionsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shardql",
			Subsystem: "dispatch",
			Name:      "partitions_dispatched_total",
			Help:      "Number of RemoteScanExec partitions dispatched to leaf nodes.",
		}),
		partitionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shardql",
			Subsystem: "dispatch",
			Name:      "partition_errors_total",
			Help:      "Number of partition dispatches that returned an error, by kind.",
		}, []string{"kind"}),
		dispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "shardql",
			Subsystem: "dispatch",
			Name:      "execute_latency_seconds",
			Help:      "Wall-clock latency of Dispatcher.Execute.",
			Buckets:   prometheus.DefBuckets,
		}),
		noOnlineNodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "shardql",
			Subsystem: "dispatch",
			Name:      "no_online_nodes_total",
			Help:      "Number of Execute calls that found zero online nodes and returned an empty result.",
		}),
	}
	reg.MustRegister(m.partitionsDispatched, m.partitionErrors, m.dispatchLatency, m.noOnlineNodes)
	return m
}

// errKind buckets an error for the partition_errors_total label using
// the cmn error kinds from spec §7 rather than string matching.
func errKind(err error) string {
	switch err.(type) {
	case *cmn.ErrTransient:
		return "transient"
	case *cmn.ErrCancelled:
		return "cancelled"
	case *cmn.ErrInvalid:
		return "invalid"
	case *cmn.ErrFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

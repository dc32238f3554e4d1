package audit

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gradebook"

type pipelineMetrics struct {
	logged        prometheus.Counter
	written       prometheus.Counter
	writeFailures prometheus.Counter
	rotations     prometheus.Counter
	discarded     prometheus.Counter
	queueDepth    prometheus.GaugeFunc
}

func newPipelineMetrics(reg prometheus.Registerer, depth func() float64) *pipelineMetrics {
	m := &pipelineMetrics{
		logged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_logged_total",
			Help:      "Total audit entries accepted by Log",
		}),
		written: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_written_total",
			Help:      "Total audit entries persisted by the writer",
		}),
		writeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_write_failures_total",
			Help:      "Total audit entries dropped because the write failed",
		}),
		rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_file_rotations_total",
			Help:      "Total audit log file rotations",
		}),
		discarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_entries_discarded_total",
			Help:      "Total queued audit entries lost at shutdown",
		}),
		queueDepth: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audit_queue_depth",
			Help:      "Audit entries waiting for the writer",
		}, depth),
	}

	if reg != nil {
		reg.MustRegister(m.logged, m.written, m.writeFailures, m.rotations, m.discarded, m.queueDepth)
	}
	return m
}

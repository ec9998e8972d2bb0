package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

// gateMetrics counts gate decisions; it implements middlewares.DecisionRecorder.
type gateMetrics struct {
	registry  *prometheus.Registry
	decisions *prometheus.CounterVec
}

func newGateMetrics() *gateMetrics {
	m := &gateMetrics{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sharegate",
			Name:      "gate_decisions_total",
			Help:      "Share gate decisions by endpoint intent and outcome.",
		}, []string{"intent", "outcome"}),
	}
	m.registry.MustRegister(m.decisions)
	return m
}

func (m *gateMetrics) RecordDecision(intent, outcome string) {
	m.decisions.WithLabelValues(intent, outcome).Inc()
}

func (m *gateMetrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

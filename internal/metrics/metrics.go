package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the quickstart client.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	attachTotal         *prometheus.CounterVec
	detachTotal         *prometheus.CounterVec
	joinsTotal          prometheus.Counter
	joinFailuresTotal   *prometheus.CounterVec
	sessionsEndedTotal  prometheus.Counter
	activeSessions      prometheus.Gauge
	watchedParticipants prometheus.Gauge
	rtpPacketsTotal     *prometheus.CounterVec
}

// New creates and registers Prometheus metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	attachTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quickstart_track_attach_total",
		Help: "Elements attached to the participants container",
	}, []string{"kind"})
	detachTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quickstart_track_detach_total",
		Help: "Elements removed from the participants container",
	}, []string{"kind"})
	joinsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quickstart_joins_total",
		Help: "Sessions successfully joined",
	})
	joinFailuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quickstart_join_failures_total",
		Help: "Join attempts that failed, by reason",
	}, []string{"reason"})
	sessionsEndedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quickstart_sessions_ended_total",
		Help: "Sessions that reached the disconnected state",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quickstart_active_sessions",
		Help: "Sessions joined and not yet disconnected",
	})
	watchedParticipants := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quickstart_watched_participants",
		Help: "Remote participants with live watchers",
	})
	rtpPacketsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quickstart_rtp_packets_total",
		Help: "RTP packets received on subscribed remote tracks",
	}, []string{"kind"})

	registry.MustRegister(
		attachTotal,
		detachTotal,
		joinsTotal,
		joinFailuresTotal,
		sessionsEndedTotal,
		activeSessions,
		watchedParticipants,
		rtpPacketsTotal,
	)

	return &Metrics{
		registry:            registry,
		attachTotal:         attachTotal,
		detachTotal:         detachTotal,
		joinsTotal:          joinsTotal,
		joinFailuresTotal:   joinFailuresTotal,
		sessionsEndedTotal:  sessionsEndedTotal,
		activeSessions:      activeSessions,
		watchedParticipants: watchedParticipants,
		rtpPacketsTotal:     rtpPacketsTotal,
	}
}

func (m *Metrics) IncAttach(kind string) {
	if m == nil {
		return
	}
	m.attachTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) AddDetach(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.detachTotal.WithLabelValues(kind).Add(float64(n))
}

// SessionStarted counts a join and bumps the active sessions gauge.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.joinsTotal.Inc()
	m.activeSessions.Inc()
}

func (m *Metrics) SessionEnded() {
	if m == nil {
		return
	}
	m.sessionsEndedTotal.Inc()
	m.activeSessions.Dec()
}

func (m *Metrics) IncJoinFailure(reason string) {
	if m == nil {
		return
	}
	m.joinFailuresTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetWatchedParticipants(n int) {
	if m == nil {
		return
	}
	m.watchedParticipants.Set(float64(n))
}

func (m *Metrics) AddPackets(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rtpPacketsTotal.WithLabelValues(kind).Add(float64(n))
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

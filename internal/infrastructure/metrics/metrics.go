// Package metrics exposes Prometheus collectors for the realtime layer.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ActiveConnections       prometheus.Gauge
	PresenceTransitions     *prometheus.CounterVec
	EventsPublished         *prometheus.CounterVec
	EventsDropped           prometheus.Counter
	MessagesRelayed         prometheus.Counter
	NotificationsDispatched *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "foodshare_ws_active_connections",
			Help: "Current number of open websocket connections",
		}),
		PresenceTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodshare_presence_transitions_total",
			Help: "Users going online or offline",
		}, []string{"state"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodshare_ws_events_published_total",
			Help: "Events queued to websocket connections, by event name",
		}, []string{"event"}),
		EventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "foodshare_ws_events_dropped_total",
			Help: "Events dropped because a connection's send buffer was full",
		}),
		MessagesRelayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "foodshare_chat_messages_relayed_total",
			Help: "Chat messages persisted and relayed",
		}),
		NotificationsDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "foodshare_notifications_dispatched_total",
			Help: "Notifications persisted, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) ConnectionOpened() {
	if m == nil || m.ActiveConnections == nil {
		return
	}
	m.ActiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil || m.ActiveConnections == nil {
		return
	}
	m.ActiveConnections.Dec()
}

func (m *Metrics) RecordPresence(online bool) {
	if m == nil || m.PresenceTransitions == nil {
		return
	}
	state := "offline"
	if online {
		state = "online"
	}
	m.PresenceTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) RecordEvent(event string, deliveries int) {
	if m == nil || m.EventsPublished == nil || deliveries == 0 {
		return
	}
	m.EventsPublished.WithLabelValues(event).Add(float64(deliveries))
}

func (m *Metrics) RecordDrop() {
	if m == nil || m.EventsDropped == nil {
		return
	}
	m.EventsDropped.Inc()
}

func (m *Metrics) RecordMessage() {
	if m == nil || m.MessagesRelayed == nil {
		return
	}
	m.MessagesRelayed.Inc()
}

func (m *Metrics) RecordNotification(kind string) {
	if m == nil || m.NotificationsDispatched == nil {
		return
	}
	m.NotificationsDispatched.WithLabelValues(kind).Inc()
}

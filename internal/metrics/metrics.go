package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_ws_connections_active",
		Help: "Currently open websocket connections.",
	})
	SocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_socket_events_total",
		Help: "Inbound socket events by type.",
	}, []string{"type"})
	DroppedDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_ws_dropped_deliveries_total",
		Help: "Events dropped because a client send buffer was full.",
	})
)

// Handler returns the handler for Prometheus scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

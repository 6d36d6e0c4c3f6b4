package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		ordersTotal,
		compensationsTotal,
		webhookEventsTotal,
	)
}

var (
	ordersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pay_orders_total",
			Help: "Order state transitions (pending/complete/failed/cancel).",
		},
		[]string{"state"},
	)

	compensationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pay_compensating_cancels_total",
			Help: "Gateway cancels issued because a confirmed charge could not be recorded locally.",
		},
	)

	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pay_webhook_events_total",
			Help: "Webhook deliveries by reported status, including unknown ones.",
		},
		[]string{"status"},
	)
)

func IncOrder(state string) {
	ordersTotal.WithLabelValues(norm(state)).Inc()
}

func IncCompensation() {
	compensationsTotal.Inc()
}

func IncWebhook(status string) {
	webhookEventsTotal.WithLabelValues(norm(status)).Inc()
}

package monitoring

import "github.com/prometheus/client_golang/prometheus"

var (
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ipn_webhook_events_total",
			Help: "Total IPN webhook deliveries by result",
		},
		[]string{"result"},
	)

	BalanceCredits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "balance_credits_total",
			Help: "Total settled payments credited to user balances",
		},
	)

	GatewayRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total payment gateway API calls",
		},
		[]string{"endpoint", "outcome"},
	)
)

func Init() {
	prometheus.MustRegister(WebhookEvents)
	prometheus.MustRegister(BalanceCredits)
	prometheus.MustRegister(GatewayRequests)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		couponRedemptionsTotal,
		contractGrantsTotal,
		contractRevokesTotal,
	)
}

var (
	couponRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pay_coupon_redemptions_total",
			Help: "Coupon redemption attempts by result (used/exhausted).",
		},
		[]string{"result"},
	)

	contractGrantsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pay_contract_grants_total",
			Help: "Contracts granted by product type code.",
		},
		[]string{"type"},
	)

	contractRevokesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pay_contract_revokes_total",
			Help: "Contracts deactivated by product type code.",
		},
		[]string{"type"},
	)
)

func IncCouponRedemption(result string) {
	couponRedemptionsTotal.WithLabelValues(norm(result)).Inc()
}

func IncContractGrant(typeCode string) {
	contractGrantsTotal.WithLabelValues(norm(typeCode)).Inc()
}

func IncContractRevoke(typeCode string) {
	contractRevokesTotal.WithLabelValues(norm(typeCode)).Inc()
}

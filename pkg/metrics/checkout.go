package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Checkout submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeBlocked  = "blocked"
	OutcomeFailed   = "failed"
)

// CheckoutMetrics records checkout submissions and the money they moved.
type CheckoutMetrics struct {
	submissions    *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	salesTotal     *prometheus.CounterVec
	discountTotal  prometheus.Counter
	pointsRedeemed prometheus.Counter
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_checkout_submissions_total",
		Help: "Checkout submissions by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pos_checkout_submit_duration_seconds",
		Help:    "Duration of checkout submissions including the backend call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	salesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_sales_amount_total",
		Help: "Final totals of accepted checkouts in currency units.",
	}, []string{"payment_method"})
	discountTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_discount_amount_total",
		Help: "Discount amounts granted on accepted checkouts in currency units.",
	})
	pointsRedeemed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_points_redeemed_total",
		Help: "Loyalty points redeemed on accepted checkouts.",
	})
	reg.MustRegister(submissions, duration, salesTotal, discountTotal, pointsRedeemed)
	return &CheckoutMetrics{
		submissions:    submissions,
		duration:       duration,
		salesTotal:     salesTotal,
		discountTotal:  discountTotal,
		pointsRedeemed: pointsRedeemed,
	}
}

// ObserveSubmission counts a submission attempt and its duration.
func (c *CheckoutMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if c == nil || c.submissions == nil {
		return
	}
	label := normalizeLabel(outcome)
	c.submissions.WithLabelValues(label).Inc()
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordSale adds an accepted checkout's amounts.
func (c *CheckoutMetrics) RecordSale(paymentMethod string, finalTotal, discount, points int64) {
	if c == nil || c.salesTotal == nil {
		return
	}
	c.salesTotal.WithLabelValues(normalizeLabel(paymentMethod)).Add(float64(finalTotal))
	c.discountTotal.Add(float64(discount))
	c.pointsRedeemed.Add(float64(points))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

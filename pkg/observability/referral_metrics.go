package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ReferralMetrics counts referral lifecycle events on the global meter.
// A nil *ReferralMetrics is valid and records nothing.
type ReferralMetrics struct {
	created     metric.Int64Counter
	transitions metric.Int64Counter
	expired     metric.Int64Counter
}

func NewReferralMetrics() (*ReferralMetrics, error) {
	meter := otel.Meter(tracerName)

	created, err := meter.Int64Counter("referrals_created_total",
		metric.WithDescription("Referrals issued"),
		metric.WithUnit("{referral}"))
	if err != nil {
		return nil, err
	}
	transitions, err := meter.Int64Counter("referral_status_transitions_total",
		metric.WithDescription("Referral status changes made through the API"),
		metric.WithUnit("{transition}"))
	if err != nil {
		return nil, err
	}
	expired, err := meter.Int64Counter("referrals_expired_total",
		metric.WithDescription("Referrals moved to EXPIRED by the sweep"),
		metric.WithUnit("{referral}"))
	if err != nil {
		return nil, err
	}

	return &ReferralMetrics{created: created, transitions: transitions, expired: expired}, nil
}

func (m *ReferralMetrics) Created(ctx context.Context, urgency string, newPatient bool) {
	if m == nil {
		return
	}
	m.created.Add(ctx, 1, metric.WithAttributes(
		attribute.String("urgency", urgency),
		attribute.Bool("new_patient", newPatient),
	))
}

func (m *ReferralMetrics) Transitioned(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *ReferralMetrics) Expired(ctx context.Context, n int64) {
	if m == nil || n == 0 {
		return
	}
	m.expired.Add(ctx, n)
}

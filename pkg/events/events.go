// Package events publishes referral lifecycle events over NATS after the
// corresponding database write has committed.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	KindReferralCreated = "referral.created"
	KindReferralStatus  = "referral.status"
)

// Publisher is the subset of *nats.Conn the bus needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

// ReferralEvent is the JSON payload of every referral subject.
type ReferralEvent struct {
	ReferralID     uuid.UUID `json:"referralId"`
	DoctorID       uuid.UUID `json:"doctorId"`
	PatientID      uuid.UUID `json:"patientId"`
	PhysioID       uuid.UUID `json:"physioId"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previousStatus,omitempty"`
	NewPatient     bool      `json:"newPatient,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Bus publishes events under "<prefix>.<kind>.<referral id>". A Bus with a
// nil Publisher drops everything, which is how NATS is switched off.
type Bus struct {
	pub    Publisher
	prefix string
	logger *slog.Logger
}

func NewBus(pub Publisher, prefix string, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{pub: pub, prefix: strings.Trim(prefix, "."), logger: logger}
}

// Subject builds the full subject for kind and id. An empty id yields the
// wildcard form used by subscribers.
func (b *Bus) Subject(kind string, id string) string {
	parts := make([]string, 0, 3)
	if b.prefix != "" {
		parts = append(parts, b.prefix)
	}
	parts = append(parts, kind)
	if id == "" {
		id = "*"
	}
	parts = append(parts, id)
	return strings.Join(parts, ".")
}

func (b *Bus) ReferralCreated(ctx context.Context, ev ReferralEvent) {
	b.publish(ctx, KindReferralCreated, ev)
}

func (b *Bus) ReferralStatusChanged(ctx context.Context, ev ReferralEvent) {
	b.publish(ctx, KindReferralStatus, ev)
}

// publish never fails the caller: the write it describes is already durable.
func (b *Bus) publish(ctx context.Context, kind string, ev ReferralEvent) {
	if b == nil || b.pub == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.ErrorContext(ctx, "events: encode failed", "kind", kind, "error", err)
		return
	}
	subject := b.Subject(kind, ev.ReferralID.String())
	if err := b.pub.Publish(subject, data); err != nil {
		b.logger.WarnContext(ctx, "events: publish failed", "subject", subject, "error", err)
	}
}

func Decode(data []byte) (ReferralEvent, error) {
	var ev ReferralEvent
	err := json.Unmarshal(data, &ev)
	return ev, err
}

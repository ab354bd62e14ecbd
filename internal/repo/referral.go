package repo

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const (
	referralsTable = "referrals"

	referralID         = "id"
	referralStatus     = "status"
	referralExpiryDate = "expiry_date"
	referralCreatedAt  = "created_at"
	referralUpdatedAt  = "updated_at"
	referralDoctorID   = "doctor_id"
	referralPatientID  = "patient_id"
	referralPhysioID   = "physio_id"
)

var referralColumns = []string{
	referralID, "diagnosis", "sessions", "sessions_used", "urgency", "service_type", "notes",
	"issued_at", referralExpiryDate, referralStatus, referralCreatedAt, referralUpdatedAt,
	referralDoctorID, referralPatientID, referralPhysioID,
}

func scanReferral(s entsql.ColumnScanner) (*Referral, error) {
	r := &Referral{}
	err := s.Scan(
		&r.ID, &r.Diagnosis, &r.Sessions, &r.SessionsUsed, &r.Urgency, &r.ServiceType, &r.Notes,
		&r.IssuedAt, &r.ExpiryDate, &r.Status, &r.CreatedAt, &r.UpdatedAt,
		&r.DoctorID, &r.PatientID, &r.PhysioID,
	)
	if err != nil {
		return nil, fmt.Errorf("scan referral: %w", err)
	}
	return r, nil
}

// CreateReferral inserts r as given; the caller sets status, dates and counters.
func (c *Client) CreateReferral(ctx context.Context, r *Referral) error {
	if r.ID == uuid.Nil {
		r.ID = NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.IssuedAt
	}
	r.UpdatedAt = r.CreatedAt

	query, args := builder().
		Insert(referralsTable).
		Columns(referralColumns...).
		Values(
			r.ID, r.Diagnosis, r.Sessions, r.SessionsUsed, r.Urgency, r.ServiceType, r.Notes,
			r.IssuedAt, r.ExpiryDate, r.Status, r.CreatedAt, r.UpdatedAt,
			r.DoctorID, r.PatientID, r.PhysioID,
		).
		Query()
	if err := exec(ctx, c.driver, query, args); err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

func (c *Client) GetReferral(ctx context.Context, id uuid.UUID) (*Referral, error) {
	query, args := builder().
		Select(referralColumns...).
		From(entsql.Table(referralsTable)).
		Where(entsql.EQ(referralID, id)).
		Query()
	return queryOne(ctx, c.driver, query, args, scanReferral)
}

// ListReferrals returns referrals matching f, newest first.
func (c *Client) ListReferrals(ctx context.Context, f ReferralFilter) ([]*Referral, error) {
	var preds []*entsql.Predicate
	if f.DoctorID != nil {
		preds = append(preds, entsql.EQ(referralDoctorID, *f.DoctorID))
	}
	if f.PatientID != nil {
		preds = append(preds, entsql.EQ(referralPatientID, *f.PatientID))
	}
	if f.PhysioID != nil {
		preds = append(preds, entsql.EQ(referralPhysioID, *f.PhysioID))
	}
	if f.Status != nil {
		preds = append(preds, entsql.EQ(referralStatus, *f.Status))
	}
	if f.ValidAfter != nil {
		preds = append(preds, entsql.GTE(referralExpiryDate, *f.ValidAfter))
	}

	sel := builder().
		Select(referralColumns...).
		From(entsql.Table(referralsTable))
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	query, args := sel.OrderBy(entsql.Desc(referralCreatedAt), entsql.Desc(referralID)).Query()
	return queryAll(ctx, c.driver, query, args, scanReferral)
}

// UpdateReferralStatus moves a referral from one status to another. The
// write only applies while the stored status still equals from; otherwise
// ErrStale (or ErrNotFound when the row is gone) is returned.
func (c *Client) UpdateReferralStatus(ctx context.Context, id uuid.UUID, from, to ReferralStatus, now time.Time) (*Referral, error) {
	query, args := builder().
		Update(referralsTable).
		Set(referralStatus, to).
		Set(referralUpdatedAt, now).
		Where(entsql.And(
			entsql.EQ(referralID, id),
			entsql.EQ(referralStatus, from),
		)).
		Query()
	n, err := execAffected(ctx, c.driver, query, args)
	if err != nil {
		return nil, fmt.Errorf("update referral status: %w", err)
	}
	if n == 0 {
		if _, err := c.GetReferral(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrStale
	}
	return c.GetReferral(ctx, id)
}

// ExpireReferrals marks every ACTIVE referral whose expiry date is before now
// as EXPIRED and reports how many changed.
func (c *Client) ExpireReferrals(ctx context.Context, now time.Time) (int64, error) {
	query, args := builder().
		Update(referralsTable).
		Set(referralStatus, ReferralStatusExpired).
		Set(referralUpdatedAt, now).
		Where(entsql.And(
			entsql.EQ(referralStatus, ReferralStatusActive),
			entsql.LT(referralExpiryDate, now),
		)).
		Query()
	n, err := execAffected(ctx, c.driver, query, args)
	if err != nil {
		return 0, fmt.Errorf("expire referrals: %w", err)
	}
	return n, nil
}

package repo

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

// The licenses table is the single namespace for doctor and physio license
// numbers; its primary key makes a number unique across both roles.
const (
	licensesTable = "licenses"

	licenseNumber    = "number"
	licenseKind      = "kind"
	licenseCreatedAt = "created_at"
	licenseUserID    = "user_id"
)

var licenseColumns = []string{licenseNumber, licenseKind, licenseCreatedAt, licenseUserID}

func scanLicense(s entsql.ColumnScanner) (*License, error) {
	l := &License{}
	if err := s.Scan(&l.Number, &l.Kind, &l.CreatedAt, &l.UserID); err != nil {
		return nil, fmt.Errorf("scan license: %w", err)
	}
	return l, nil
}

// GetLicense returns who holds number, or ErrNotFound.
func (c *Client) GetLicense(ctx context.Context, number string) (*License, error) {
	query, args := builder().
		Select(licenseColumns...).
		From(entsql.Table(licensesTable)).
		Where(entsql.EQ(licenseNumber, number)).
		Query()
	return queryOne(ctx, c.driver, query, args, scanLicense)
}

func registerLicense(ctx context.Context, q dialect.ExecQuerier, number string, userID uuid.UUID, kind LicenseKind) error {
	query, args := builder().
		Insert(licensesTable).
		Columns(licenseColumns...).
		Values(number, kind, time.Now().UTC(), userID).
		Query()
	if err := exec(ctx, q, query, args); err != nil {
		return fmt.Errorf("register license: %w", err)
	}
	return nil
}

// swapLicense moves userID's registration of kind from previous to next.
func swapLicense(ctx context.Context, q dialect.ExecQuerier, previous, next string, userID uuid.UUID, kind LicenseKind) error {
	if previous == next {
		return nil
	}
	query, args := builder().
		Delete(licensesTable).
		Where(entsql.And(
			entsql.EQ(licenseUserID, userID),
			entsql.EQ(licenseKind, kind),
		)).
		Query()
	if err := exec(ctx, q, query, args); err != nil {
		return fmt.Errorf("release license: %w", err)
	}
	return registerLicense(ctx, q, next, userID, kind)
}

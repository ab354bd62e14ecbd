package repo

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
)

const (
	usersTable = "users"

	userID           = "id"
	userEmail        = "email"
	userUsername     = "username"
	userPhone        = "phone"
	userPasswordHash = "password_hash"
	userRole         = "role"
	userFirstName    = "first_name"
	userLastName     = "last_name"
	userIsActive     = "is_active"
	userIsVerified   = "is_verified"
	userCreatedAt    = "created_at"
	userUpdatedAt    = "updated_at"
)

var userColumns = []string{
	userID, userEmail, userUsername, userPhone, userPasswordHash, userRole,
	userFirstName, userLastName, userIsActive, userIsVerified, userCreatedAt, userUpdatedAt,
}

func scanUser(s entsql.ColumnScanner) (*User, error) {
	u := &User{}
	err := s.Scan(
		&u.ID, &u.Email, &u.Username, &u.Phone, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (c *Client) userWhere(ctx context.Context, p *entsql.Predicate) (*User, error) {
	query, args := builder().
		Select(userColumns...).
		From(entsql.Table(usersTable)).
		Where(p).
		Limit(1).
		Query()
	return queryOne(ctx, c.driver, query, args, scanUser)
}

func (c *Client) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return c.userWhere(ctx, entsql.EQ(userID, id))
}

// GetUserByEmail expects an already normalized (lower-case) address.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return c.userWhere(ctx, entsql.EQ(userEmail, email))
}

func (c *Client) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return c.userWhere(ctx, entsql.EQ(userUsername, username))
}

// GetUserByPhone expects an E.164 number.
func (c *Client) GetUserByPhone(ctx context.Context, phone string) (*User, error) {
	return c.userWhere(ctx, entsql.EQ(userPhone, phone))
}

// GetUsers loads the given identities keyed by id. Missing ids are absent
// from the result.
func (c *Client) GetUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*User, error) {
	out := make(map[uuid.UUID]*User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := builder().
		Select(userColumns...).
		From(entsql.Table(usersTable)).
		Where(entsql.In(userID, args...)).
		Query()
	users, err := queryAll(ctx, c.driver, query, qargs, scanUser)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// ListUsersByRole returns active identities with role, ordered by name.
func (c *Client) ListUsersByRole(ctx context.Context, role Role) ([]*User, error) {
	query, args := builder().
		Select(userColumns...).
		From(entsql.Table(usersTable)).
		Where(entsql.And(
			entsql.EQ(userRole, role),
			entsql.EQ(userIsActive, true),
		)).
		OrderBy(userLastName, userFirstName).
		Query()
	return queryAll(ctx, c.driver, query, args, scanUser)
}

// SearchPatients matches active patients whose name, email or phone contains
// term, case-insensitively.
func (c *Client) SearchPatients(ctx context.Context, term string, limit int) ([]*User, error) {
	preds := []*entsql.Predicate{
		entsql.EQ(userRole, RolePatient),
		entsql.EQ(userIsActive, true),
	}
	if term != "" {
		preds = append(preds, entsql.Or(
			entsql.ContainsFold(userFirstName, term),
			entsql.ContainsFold(userLastName, term),
			entsql.ContainsFold(userEmail, term),
			entsql.Contains(userPhone, term),
		))
	}
	sel := builder().
		Select(userColumns...).
		From(entsql.Table(usersTable)).
		Where(entsql.And(preds...)).
		OrderBy(userLastName, userFirstName)
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()
	return queryAll(ctx, c.driver, query, args, scanUser)
}

// CreateUser inserts u, assigning id and timestamps when unset. A duplicate
// email, username or phone returns ErrConstraint.
func (c *Client) CreateUser(ctx context.Context, u *User) error {
	return insertUser(ctx, c.driver, u)
}

// CreatePatient inserts a PATIENT identity and its empty profile atomically.
func (c *Client) CreatePatient(ctx context.Context, u *User) (*PatientProfile, error) {
	if u.Role != RolePatient {
		return nil, fmt.Errorf("create patient: role %q", u.Role)
	}
	var profile *PatientProfile
	err := c.withTx(ctx, func(q dialect.ExecQuerier) error {
		if err := insertUser(ctx, q, u); err != nil {
			return err
		}
		profile = &PatientProfile{UserID: u.ID}
		return insertPatientProfile(ctx, q, profile)
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func insertUser(ctx context.Context, q dialect.ExecQuerier, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = NewID()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = u.CreatedAt

	query, args := builder().
		Insert(usersTable).
		Columns(userColumns...).
		Values(
			u.ID, u.Email, u.Username, u.Phone, u.PasswordHash, u.Role,
			u.FirstName, u.LastName, u.IsActive, u.IsVerified, u.CreatedAt, u.UpdatedAt,
		).
		Query()
	if err := exec(ctx, q, query, args); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUserNames changes the display names of an identity.
func (c *Client) UpdateUserNames(ctx context.Context, id uuid.UUID, first, last *string) error {
	query, args := builder().
		Update(usersTable).
		Set(userFirstName, first).
		Set(userLastName, last).
		Set(userUpdatedAt, time.Now().UTC()).
		Where(entsql.EQ(userID, id)).
		Query()
	n, err := execAffected(ctx, c.driver, query, args)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

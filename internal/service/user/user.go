package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
)

// View is the public shape of an identity. It never carries the password hash.
type View struct {
	ID         uuid.UUID `json:"id"`
	Email      *string   `json:"email"`
	Username   *string   `json:"username,omitempty"`
	Phone      *string   `json:"phone,omitempty"`
	Role       repo.Role `json:"role"`
	FirstName  *string   `json:"firstName"`
	LastName   *string   `json:"lastName"`
	IsActive   bool      `json:"isActive"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}

func ViewOf(u *repo.User) *View {
	return &View{
		ID:         u.ID,
		Email:      u.Email,
		Username:   u.Username,
		Phone:      u.Phone,
		Role:       u.Role,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	ListUsersByRole(ctx context.Context, role repo.Role) ([]*repo.User, error)
}

type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*View, error)
	ListByRole(ctx context.Context, role string) ([]*View, error)
}

type UserService struct {
	store Store
}

func New(store Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*View, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return ViewOf(u), nil
}

// ListByRole returns active users holding role, ordered by last then first
// name. Doctors use it to pick the physiotherapist of a referral.
func (s *UserService) ListByRole(ctx context.Context, role string) ([]*View, error) {
	r := repo.Role(strings.ToUpper(strings.TrimSpace(role)))
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	users, err := s.store.ListUsersByRole(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	out := make([]*View, 0, len(users))
	for _, u := range users {
		out = append(out, ViewOf(u))
	}
	return out, nil
}

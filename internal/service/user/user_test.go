package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo/repotest"
)

func seed(t *testing.T, s *repotest.Store, role repo.Role, first, last string, active bool) *repo.User {
	t.Helper()
	email := first + "." + last + "@example.com"
	u := &repo.User{Email: &email, Role: role, FirstName: &first, LastName: &last, IsActive: active, PasswordHash: "h"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestListByRole(t *testing.T) {
	store := repotest.New()
	svc := New(store)
	ctx := context.Background()

	seed(t, store, repo.RolePhysio, "Ka", "Wong", true)
	seed(t, store, repo.RolePhysio, "Ann", "Chan", true)
	seed(t, store, repo.RolePhysio, "Old", "Lee", false)
	seed(t, store, repo.RoleDoctor, "Doc", "Ho", true)

	got, err := svc.ListByRole(ctx, "physio")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Chan", *got[0].LastName)
	assert.Equal(t, "Wong", *got[1].LastName)

	_, err = svc.ListByRole(ctx, "nurse")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestGetByID(t *testing.T) {
	store := repotest.New()
	svc := New(store)
	u := seed(t, store, repo.RoleDoctor, "Doc", "Ho", true)

	v, err := svc.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.RoleDoctor, v.Role)

	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

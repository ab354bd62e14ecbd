package patient

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo/repotest"
)

func add(t *testing.T, s *repotest.Store, role repo.Role, first, last, phone string) *repo.User {
	t.Helper()
	email := fmt.Sprintf("%s.%s@example.com", first, last)
	u := &repo.User{Email: &email, Role: role, FirstName: &first, LastName: &last, IsActive: true}
	if phone != "" {
		u.Phone = &phone
	}
	if role == repo.RolePatient {
		_, err := s.CreatePatient(context.Background(), u)
		require.NoError(t, err)
		return u
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestSearch(t *testing.T) {
	store := repotest.New()
	svc := New(store)
	ctx := context.Background()

	doc := add(t, store, repo.RoleDoctor, "Doc", "Ho", "")
	add(t, store, repo.RolePatient, "Mei", "Chan", "+85291234567")
	add(t, store, repo.RolePatient, "Ann", "Chan", "")
	add(t, store, repo.RolePatient, "Bo", "Lam", "")
	add(t, store, repo.RolePhysio, "Chan", "Physio", "")

	got, err := svc.Search(ctx, doc.ID, "chan", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Ann", *got[0].FirstName)
	assert.Equal(t, "Mei", *got[1].FirstName)
	assert.NotNil(t, got[0].PatientProfile)

	got, err = svc.Search(ctx, doc.ID, "9123", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = svc.Search(ctx, doc.ID, "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	patient := add(t, store, repo.RolePatient, "Nosy", "Patient", "")
	_, err = svc.Search(ctx, patient.ID, "", 0)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestProfile(t *testing.T) {
	store := repotest.New()
	svc := New(store)
	ctx := context.Background()
	p := add(t, store, repo.RolePatient, "Mei", "Chan", "")

	d, err := svc.Profile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, d.ID)
	require.NotNil(t, d.PatientProfile)
	assert.Equal(t, p.ID, d.PatientProfile.UserID)

	doc := add(t, store, repo.RoleDoctor, "Doc", "Ho", "")
	_, err = svc.Profile(ctx, doc.ID)
	assert.ErrorIs(t, err, ErrPatientNotFound)
	_, err = svc.Profile(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

// Package repotest provides an in-memory stand-in for repo.Client that
// enforces the same uniqueness rules as the Postgres schema.
package repotest

import (
	"bytes"
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/google/uuid"
)

type Store struct {
	mu sync.Mutex

	users     map[uuid.UUID]repo.User
	licenses  map[string]repo.License
	doctors   map[uuid.UUID]repo.DoctorProfile // by user id
	physios   map[uuid.UUID]repo.PhysioProfile // by user id
	patients  map[uuid.UUID]repo.PatientProfile
	referrals map[uuid.UUID]repo.Referral
}

func New() *Store {
	return &Store{
		users:     map[uuid.UUID]repo.User{},
		licenses:  map[string]repo.License{},
		doctors:   map[uuid.UUID]repo.DoctorProfile{},
		physios:   map[uuid.UUID]repo.PhysioProfile{},
		patients:  map[uuid.UUID]repo.PatientProfile{},
		referrals: map[uuid.UUID]repo.Referral{},
	}
}

// ---------------------------------------------------------------------------
// Identities
// ---------------------------------------------------------------------------

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (s *Store) findUser(match func(repo.User) bool) (*repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*repo.User, error) {
	return s.findUser(func(u repo.User) bool { return u.Email != nil && *u.Email == email })
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*repo.User, error) {
	return s.findUser(func(u repo.User) bool { return u.Username != nil && *u.Username == username })
}

func (s *Store) GetUserByPhone(_ context.Context, phone string) (*repo.User, error) {
	return s.findUser(func(u repo.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (s *Store) GetUsers(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[uuid.UUID]*repo.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (s *Store) ListUsersByRole(_ context.Context, role repo.Role) ([]*repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repo.User
	for _, u := range s.users {
		if u.Role == role && u.IsActive {
			out = append(out, &u)
		}
	}
	sortByName(out)
	return out, nil
}

func (s *Store) SearchPatients(_ context.Context, term string, limit int) ([]*repo.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term = strings.ToLower(term)
	contains := func(p *string) bool { return p != nil && strings.Contains(strings.ToLower(*p), term) }
	var out []*repo.User
	for _, u := range s.users {
		if u.Role != repo.RolePatient || !u.IsActive {
			continue
		}
		if term == "" || contains(u.FirstName) || contains(u.LastName) || contains(u.Email) || contains(u.Phone) {
			out = append(out, &u)
		}
	}
	sortByName(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortByName(users []*repo.User) {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	sort.Slice(users, func(i, j int) bool {
		li, lj := str(users[i].LastName), str(users[j].LastName)
		if li != lj {
			return li < lj
		}
		return str(users[i].FirstName) < str(users[j].FirstName)
	})
}

func (s *Store) CreateUser(_ context.Context, u *repo.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertUserLocked(u)
}

func (s *Store) insertUserLocked(u *repo.User) error {
	same := func(a, b *string) bool { return a != nil && b != nil && *a == *b }
	for _, existing := range s.users {
		if same(existing.Email, u.Email) || same(existing.Username, u.Username) || same(existing.Phone, u.Phone) {
			return &repo.ConstraintError{Err: errDuplicate("users")}
		}
	}
	if u.ID == uuid.Nil {
		u.ID = repo.NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = *u
	return nil
}

func (s *Store) CreatePatient(_ context.Context, u *repo.User) (*repo.PatientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.insertUserLocked(u); err != nil {
		return nil, err
	}
	p := repo.PatientProfile{ID: repo.NewID(), UserID: u.ID, CreatedAt: u.CreatedAt, UpdatedAt: u.CreatedAt}
	s.patients[u.ID] = p
	return &p, nil
}

func (s *Store) UpdateUserNames(_ context.Context, id uuid.UUID, first, last *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repo.ErrNotFound
	}
	u.FirstName, u.LastName = first, last
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u
	return nil
}

// ---------------------------------------------------------------------------
// Licenses and profiles
// ---------------------------------------------------------------------------

func (s *Store) GetLicense(_ context.Context, number string) (*repo.License, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.licenses[number]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &l, nil
}

func (s *Store) registerLocked(number string, userID uuid.UUID, kind repo.LicenseKind) error {
	if _, taken := s.licenses[number]; taken {
		return &repo.ConstraintError{Err: errDuplicate("licenses")}
	}
	s.licenses[number] = repo.License{Number: number, UserID: userID, Kind: kind, CreatedAt: time.Now().UTC()}
	return nil
}

func (s *Store) swapLocked(previous, next string, userID uuid.UUID, kind repo.LicenseKind) error {
	if previous == next {
		return nil
	}
	if l, taken := s.licenses[next]; taken && l.UserID != userID {
		return &repo.ConstraintError{Err: errDuplicate("licenses")}
	}
	delete(s.licenses, previous)
	return s.registerLocked(next, userID, kind)
}

func (s *Store) GetDoctorProfile(_ context.Context, userID uuid.UUID) (*repo.DoctorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.doctors[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CreateDoctorProfile(_ context.Context, p *repo.DoctorProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doctors[p.UserID]; exists {
		return &repo.ConstraintError{Err: errDuplicate("doctor_profiles")}
	}
	if err := s.registerLocked(p.LicenseNumber, p.UserID, repo.LicenseKindDoctor); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = repo.NewID()
	}
	if p.VerificationStatus == "" {
		p.VerificationStatus = repo.VerificationPending
	}
	if p.ConsultationType == "" {
		p.ConsultationType = repo.ConsultationBoth
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.doctors[p.UserID] = *p
	return nil
}

func (s *Store) UpdateDoctorProfile(_ context.Context, p *repo.DoctorProfile, previousLicense string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[p.UserID]; !ok {
		return repo.ErrNotFound
	}
	if err := s.swapLocked(previousLicense, p.LicenseNumber, p.UserID, repo.LicenseKindDoctor); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	s.doctors[p.UserID] = *p
	return nil
}

func (s *Store) GetPhysioProfile(_ context.Context, userID uuid.UUID) (*repo.PhysioProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.physios[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	p.Services = slices.Clone(p.Services)
	return &p, nil
}

func (s *Store) CreatePhysioProfile(_ context.Context, p *repo.PhysioProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.physios[p.UserID]; exists {
		return &repo.ConstraintError{Err: errDuplicate("physio_profiles")}
	}
	if err := s.registerLocked(p.LicenseNo, p.UserID, repo.LicenseKindPhysio); err != nil {
		return err
	}
	if p.ID == uuid.Nil {
		p.ID = repo.NewID()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	stampServices(p)
	s.physios[p.UserID] = *p
	return nil
}

func (s *Store) UpdatePhysioProfile(_ context.Context, p *repo.PhysioProfile, previousLicense string, replaceServices bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.physios[p.UserID]
	if !ok {
		return repo.ErrNotFound
	}
	if err := s.swapLocked(previousLicense, p.LicenseNo, p.UserID, repo.LicenseKindPhysio); err != nil {
		return err
	}
	if replaceServices {
		stampServices(p)
	} else {
		p.Services = current.Services
	}
	p.UpdatedAt = time.Now().UTC()
	s.physios[p.UserID] = *p
	return nil
}

func stampServices(p *repo.PhysioProfile) {
	for _, sv := range p.Services {
		sv.ID = repo.NewID()
		sv.ProviderID = p.ID
		sv.CreatedAt = time.Now().UTC()
	}
}

func (s *Store) GetPatientProfile(_ context.Context, userID uuid.UUID) (*repo.PatientProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[userID]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (s *Store) CreatePatientProfile(_ context.Context, p *repo.PatientProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.patients[p.UserID]; exists {
		return &repo.ConstraintError{Err: errDuplicate("patient_profiles")}
	}
	if p.ID == uuid.Nil {
		p.ID = repo.NewID()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	s.patients[p.UserID] = *p
	return nil
}

func (s *Store) UpdatePatientProfile(_ context.Context, p *repo.PatientProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.patients[p.UserID]; !ok {
		return repo.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	s.patients[p.UserID] = *p
	return nil
}

// ---------------------------------------------------------------------------
// Referrals
// ---------------------------------------------------------------------------

func (s *Store) CreateReferral(_ context.Context, r *repo.Referral) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range []uuid.UUID{r.DoctorID, r.PatientID, r.PhysioID} {
		if _, ok := s.users[id]; !ok {
			return &repo.ConstraintError{Err: errDuplicate("referrals foreign key")}
		}
	}
	if r.ID == uuid.Nil {
		r.ID = repo.NewID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = r.IssuedAt
	}
	r.UpdatedAt = r.CreatedAt
	s.referrals[r.ID] = *r
	return nil
}

func (s *Store) GetReferral(_ context.Context, id uuid.UUID) (*repo.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &r, nil
}

func (s *Store) ListReferrals(_ context.Context, f repo.ReferralFilter) ([]*repo.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repo.Referral
	for _, r := range s.referrals {
		switch {
		case f.DoctorID != nil && r.DoctorID != *f.DoctorID,
			f.PatientID != nil && r.PatientID != *f.PatientID,
			f.PhysioID != nil && r.PhysioID != *f.PhysioID,
			f.Status != nil && r.Status != *f.Status,
			f.ValidAfter != nil && r.ExpiryDate.Before(*f.ValidAfter):
			continue
		}
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out, nil
}

func (s *Store) UpdateReferralStatus(_ context.Context, id uuid.UUID, from, to repo.ReferralStatus, now time.Time) (*repo.Referral, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.referrals[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if r.Status != from {
		return nil, repo.ErrStale
	}
	r.Status = to
	r.UpdatedAt = now
	s.referrals[id] = r
	return &r, nil
}

func (s *Store) ExpireReferrals(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.referrals {
		if r.Status == repo.ReferralStatusActive && r.ExpiryDate.Before(now) {
			r.Status = repo.ReferralStatusExpired
			r.UpdatedAt = now
			s.referrals[id] = r
			n++
		}
	}
	return n, nil
}

// UserCount reports how many identities are stored.
func (s *Store) UserCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

type errDuplicate string

func (e errDuplicate) Error() string {
	return "duplicate key value violates unique constraint on " + string(e)
}

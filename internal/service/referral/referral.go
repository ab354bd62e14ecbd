package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/pkg/events"
	"github.com/carolhungwt/physio-doctor-platform/pkg/observability"
	"github.com/carolhungwt/physio-doctor-platform/pkg/reqctx"
)

// ---------------------------------------------------------------------------
// Dependencies
// ---------------------------------------------------------------------------

// Store is the storage the workflow needs. *repo.Client satisfies it.
type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (*repo.User, error)
	GetUserByEmail(ctx context.Context, email string) (*repo.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*repo.User, error)
	GetUsers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*repo.User, error)
	CreatePatient(ctx context.Context, u *repo.User) (*repo.PatientProfile, error)

	GetDoctorProfile(ctx context.Context, userID uuid.UUID) (*repo.DoctorProfile, error)
	GetPhysioProfile(ctx context.Context, userID uuid.UUID) (*repo.PhysioProfile, error)
	GetPatientProfile(ctx context.Context, userID uuid.UUID) (*repo.PatientProfile, error)
	CreatePatientProfile(ctx context.Context, p *repo.PatientProfile) error

	CreateReferral(ctx context.Context, r *repo.Referral) error
	GetReferral(ctx context.Context, id uuid.UUID) (*repo.Referral, error)
	ListReferrals(ctx context.Context, f repo.ReferralFilter) ([]*repo.Referral, error)
	UpdateReferralStatus(ctx context.Context, id uuid.UUID, from, to repo.ReferralStatus, now time.Time) (*repo.Referral, error)
	ExpireReferrals(ctx context.Context, now time.Time) (int64, error)
}

// PasswordHasher hashes the temporary password of patients created here.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

type Config struct {
	DefaultValidityDays    int
	MaxValidityDays        int // 0 = unbounded
	DefaultPhoneRegion     string
	PlaceholderEmailDomain string
	TempPasswordLength     int
}

func ConfigFromCentral(c *config.Config) Config {
	return Config{
		DefaultValidityDays:    c.Referral.DefaultValidityDays,
		MaxValidityDays:        c.Referral.MaxValidityDays,
		DefaultPhoneRegion:     c.Referral.DefaultPhoneRegion,
		PlaceholderEmailDomain: c.Referral.PlaceholderEmailDomain,
		TempPasswordLength:     c.Authentication.DefaultPasswordLength,
	}
}

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// PatientSelector is either ExistingPatient or NewPatient.
type PatientSelector interface {
	isPatientSelector()
}

type ExistingPatient struct {
	PatientID uuid.UUID
}

type NewPatient struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

func (ExistingPatient) isPatientSelector() {}
func (NewPatient) isPatientSelector()      {}

type CreateRequest struct {
	Patient      PatientSelector
	PhysioID     uuid.UUID
	Diagnosis    string
	Sessions     int
	Urgency      string
	ServiceType  string
	Notes        string
	ValidityDays *int
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, callerID uuid.UUID, req CreateRequest) (*Detail, error)
	Get(ctx context.Context, id, callerID uuid.UUID) (*Detail, error)
	UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status string) (*Detail, error)

	ListByDoctor(ctx context.Context, callerID uuid.UUID) ([]*Detail, error)
	ListByPatient(ctx context.Context, callerID uuid.UUID) ([]*Detail, error)
	ListActiveForPatient(ctx context.Context, callerID uuid.UUID) ([]*Detail, error)
	ListByPhysio(ctx context.Context, callerID uuid.UUID) ([]*Detail, error)

	// ExpireStale moves every ACTIVE referral past its expiry date to EXPIRED.
	ExpireStale(ctx context.Context) (int64, error)
}

type Option func(*referralService)

func WithClock(now func() time.Time) Option {
	return func(s *referralService) { s.now = now }
}

func WithEvents(bus *events.Bus) Option {
	return func(s *referralService) { s.bus = bus }
}

func WithMetrics(m *observability.ReferralMetrics) Option {
	return func(s *referralService) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *referralService) { s.logger = l }
}

type referralService struct {
	store   Store
	hasher  PasswordHasher
	cfg     Config
	now     func() time.Time
	bus     *events.Bus
	metrics *observability.ReferralMetrics
	logger  *slog.Logger
}

func New(store Store, hasher PasswordHasher, cfg Config, opts ...Option) Service {
	if cfg.DefaultValidityDays <= 0 {
		cfg.DefaultValidityDays = 90
	}
	if cfg.TempPasswordLength <= 0 {
		cfg.TempPasswordLength = 16
	}
	if cfg.PlaceholderEmailDomain == "" {
		cfg.PlaceholderEmailDomain = "patients.invalid"
	}
	if cfg.DefaultPhoneRegion == "" {
		cfg.DefaultPhoneRegion = "HK"
	}

	s := &referralService{
		store:  store,
		hasher: hasher,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func (s *referralService) Create(ctx context.Context, callerID uuid.UUID, req CreateRequest) (*Detail, error) {
	in, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	doctor, err := s.store.GetUser(ctx, callerID)
	if err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load caller: %w", err)
	}
	if doctor == nil || doctor.Role != repo.RoleDoctor || !doctor.IsActive {
		return nil, ErrNotDoctor
	}

	profile, err := s.store.GetDoctorProfile(ctx, callerID)
	if repo.IsNotFound(err) {
		return nil, ErrNoDoctorProfile
	}
	if err != nil {
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}
	if missing := missingProfileFields(profile); len(missing) > 0 {
		return nil, &IncompleteProfileError{Missing: missing}
	}

	physio, err := s.store.GetUser(ctx, in.physioID)
	if err != nil && !repo.IsNotFound(err) {
		return nil, fmt.Errorf("load physio: %w", err)
	}
	if physio == nil || physio.Role != repo.RolePhysio {
		return nil, ErrPhysioNotFound
	}

	patient, createdPatient, err := s.resolvePatient(ctx, in.patient)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now().UTC()
	r := &repo.Referral{
		ID:           repo.NewID(),
		DoctorID:     doctor.ID,
		PatientID:    patient.ID,
		PhysioID:     physio.ID,
		Diagnosis:    in.diagnosis,
		Sessions:     in.sessions,
		SessionsUsed: 0,
		Urgency:      in.urgency,
		ServiceType:  in.serviceType,
		Notes:        in.notes,
		IssuedAt:     issuedAt,
		ExpiryDate:   issuedAt.Add(time.Duration(in.validityDays) * 24 * time.Hour),
		Status:       repo.ReferralStatusActive,
	}
	if err := s.store.CreateReferral(ctx, r); err != nil {
		return nil, fmt.Errorf("create referral: %w", err)
	}

	reqctx.Logger(ctx, s.logger).Info("referral created",
		"referral_id", r.ID,
		"patient_id", patient.ID,
		"physio_id", physio.ID,
		"new_patient", createdPatient,
	)
	s.metrics.Created(ctx, string(r.Urgency), createdPatient)
	s.bus.ReferralCreated(ctx, events.ReferralEvent{
		ReferralID: r.ID,
		DoctorID:   r.DoctorID,
		PatientID:  r.PatientID,
		PhysioID:   r.PhysioID,
		Status:     string(r.Status),
		NewPatient: createdPatient,
		OccurredAt: issuedAt,
	})

	d := newDetail(r)
	d.Doctor = doctorParty(doctor, profile)
	d.Physio = &PhysioParty{Party: partyOf(physio), Specialties: s.physioSpecialties(ctx, physio.ID)}
	p := partyOf(patient)
	d.Patient = &p
	return d, nil
}

// missingProfileFields returns the labels of every field a doctor needs
// before issuing referrals, in display order.
func missingProfileFields(p *repo.DoctorProfile) []string {
	var missing []string
	if strings.TrimSpace(p.LicenseNumber) == "" {
		missing = append(missing, "Medical license number")
	}
	if len(p.Specialties) == 0 {
		missing = append(missing, "Specialties")
	}
	if p.ConsultationFee <= 0 {
		missing = append(missing, "Consultation fee")
	}
	if blank(p.BankName) || blank(p.BankAccountNumber) || blank(p.BankAccountName) {
		missing = append(missing, "Banking details (required for referral fees)")
	}
	return missing
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// ---------------------------------------------------------------------------
// Access and status
// ---------------------------------------------------------------------------

func (s *referralService) Get(ctx context.Context, id, callerID uuid.UUID) (*Detail, error) {
	r, err := s.loadReferral(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.DoctorID != callerID && r.PatientID != callerID {
		caller, err := s.store.GetUser(ctx, callerID)
		if err != nil && !repo.IsNotFound(err) {
			return nil, fmt.Errorf("load caller: %w", err)
		}
		if caller == nil || caller.Role != repo.RoleAdmin {
			return nil, ErrAccessDenied
		}
	}

	out, err := s.expand(ctx, []*repo.Referral{r})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *referralService) UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status string) (*Detail, error) {
	to, parseErr := ParseStatus(status)

	r, err := s.loadReferral(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.DoctorID != callerID {
		return nil, ErrNotIssuingDoctor
	}
	if parseErr != nil {
		return nil, parseErr
	}
	if !CanTransition(r.Status, to, ActorDoctor) {
		return nil, ErrInvalidTransition
	}

	now := s.now().UTC()
	updated, err := s.store.UpdateReferralStatus(ctx, id, r.Status, to, now)
	switch {
	case errors.Is(err, repo.ErrStale):
		return nil, ErrInvalidTransition
	case repo.IsNotFound(err):
		return nil, ErrReferralNotFound
	case err != nil:
		return nil, fmt.Errorf("update referral status: %w", err)
	}

	reqctx.Logger(ctx, s.logger).Info("referral status changed",
		"referral_id", id, "from", r.Status, "to", to)
	s.metrics.Transitioned(ctx, string(r.Status), string(to))
	s.bus.ReferralStatusChanged(ctx, events.ReferralEvent{
		ReferralID:     updated.ID,
		DoctorID:       updated.DoctorID,
		PatientID:      updated.PatientID,
		PhysioID:       updated.PhysioID,
		Status:         string(updated.Status),
		PreviousStatus: string(r.Status),
		OccurredAt:     now,
	})

	out, err := s.expand(ctx, []*repo.Referral{updated})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *referralService) loadReferral(ctx context.Context, id uuid.UUID) (*repo.Referral, error) {
	r, err := s.store.GetReferral(ctx, id)
	if repo.IsNotFound(err) {
		return nil, ErrReferralNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load referral: %w", err)
	}
	return r, nil
}

// ---------------------------------------------------------------------------
// Views
// ---------------------------------------------------------------------------

func (s *referralService) ListByDoctor(ctx context.Context, callerID uuid.UUID) ([]*Detail, error) {
	return s.list(ctx, repo.ReferralFilter{DoctorID: &callerID})
}

func (s *referralService) ListByPatient(ctx context.Context, callerID uuid.UUID) ([]*Detail, error) {
	return s.list(ctx, repo.ReferralFilter{PatientID: &callerID})
}

// ListActiveForPatient filters on expiry at query time, so a referral the
// sweep has not reached yet is already excluded here.
func (s *referralService) ListActiveForPatient(ctx context.Context, callerID uuid.UUID) ([]*Detail, error) {
	status := repo.ReferralStatusActive
	now := s.now().UTC()
	return s.list(ctx, repo.ReferralFilter{
		PatientID:  &callerID,
		Status:     &status,
		ValidAfter: &now,
	})
}

// ListByPhysio returns the referrals naming the caller as the physiotherapist,
// in every status.
func (s *referralService) ListByPhysio(ctx context.Context, callerID uuid.UUID) ([]*Detail, error) {
	return s.list(ctx, repo.ReferralFilter{PhysioID: &callerID})
}

func (s *referralService) list(ctx context.Context, f repo.ReferralFilter) ([]*Detail, error) {
	refs, err := s.store.ListReferrals(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return s.expand(ctx, refs)
}

func (s *referralService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.store.ExpireReferrals(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}
	s.metrics.Expired(ctx, n)
	if n > 0 {
		s.logger.InfoContext(ctx, "expired stale referrals", "count", n)
	}
	return n, nil
}

// expand attaches participant summaries. Participants that vanished are
// left nil rather than failing the whole view.
func (s *referralService) expand(ctx context.Context, refs []*repo.Referral) ([]*Detail, error) {
	out := make([]*Detail, 0, len(refs))
	if len(refs) == 0 {
		return out, nil
	}

	seen := map[uuid.UUID]struct{}{}
	var ids []uuid.UUID
	for _, r := range refs {
		for _, id := range []uuid.UUID{r.DoctorID, r.PatientID, r.PhysioID} {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}

	doctorProfiles := map[uuid.UUID]*repo.DoctorProfile{}
	physioSpecs := map[uuid.UUID][]string{}

	for _, r := range refs {
		d := newDetail(r)
		if u, ok := users[r.DoctorID]; ok {
			p, cached := doctorProfiles[r.DoctorID]
			if !cached {
				p, err = s.store.GetDoctorProfile(ctx, r.DoctorID)
				if err != nil && !repo.IsNotFound(err) {
					return nil, fmt.Errorf("load doctor profile: %w", err)
				}
				doctorProfiles[r.DoctorID] = p
			}
			d.Doctor = doctorParty(u, p)
		}
		if u, ok := users[r.PatientID]; ok {
			p := partyOf(u)
			d.Patient = &p
		}
		if u, ok := users[r.PhysioID]; ok {
			specs, cached := physioSpecs[r.PhysioID]
			if !cached {
				specs = s.physioSpecialties(ctx, r.PhysioID)
				physioSpecs[r.PhysioID] = specs
			}
			d.Physio = &PhysioParty{Party: partyOf(u), Specialties: specs}
		}
		out = append(out, d)
	}
	return out, nil
}

func doctorParty(u *repo.User, p *repo.DoctorProfile) *DoctorParty {
	d := &DoctorParty{Party: partyOf(u), Specialties: []string{}}
	if p != nil {
		d.Specialties = p.Specialties
		d.LicenseNumber = p.LicenseNumber
		d.ClinicName = p.ClinicName
		d.City = p.City
	}
	return d
}

func (s *referralService) physioSpecialties(ctx context.Context, userID uuid.UUID) []string {
	p, err := s.store.GetPhysioProfile(ctx, userID)
	if err != nil {
		if !repo.IsNotFound(err) {
			s.logger.WarnContext(ctx, "load physio profile", "user_id", userID, "error", err)
		}
		return []string{}
	}
	return p.Specialties
}

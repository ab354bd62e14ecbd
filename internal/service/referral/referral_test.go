package referral

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolhungwt/physio-doctor-platform/internal/repo"
	"github.com/carolhungwt/physio-doctor-platform/internal/repo/repotest"
	"github.com/carolhungwt/physio-doctor-platform/pkg/events"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "plain:" + p, nil }

type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	fail     bool
}

func (p *recordingPublisher) Publish(subj string, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subj)
	if p.fail {
		return errors.New("nats: connection closed")
	}
	return nil
}

type fixture struct {
	store  *repotest.Store
	svc    Service
	pub    *recordingPublisher
	now    time.Time
	doctor *repo.User
	physio *repo.User
}

func str(s string) *string { return &s }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: repotest.New(),
		pub:   &recordingPublisher{},
		now:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = f.service(f.store)
	f.doctor = f.addUser(t, repo.RoleDoctor, "dr@example.com", "")
	f.physio = f.addUser(t, repo.RolePhysio, "pt@example.com", "")
	require.NoError(t, f.store.CreateDoctorProfile(context.Background(), completeDoctorProfile(f.doctor.ID)))
	return f
}

func (f *fixture) service(store Store) Service {
	return New(store, plainHasher{}, Config{DefaultValidityDays: 90},
		WithClock(func() time.Time { return f.now }),
		WithEvents(events.NewBus(f.pub, "pdp", nil)),
	)
}

func (f *fixture) addUser(t *testing.T, role repo.Role, email, phone string) *repo.User {
	t.Helper()
	u := &repo.User{Role: role, IsActive: true, FirstName: str("Test"), LastName: str(string(role))}
	if email != "" {
		u.Email = str(email)
	}
	if phone != "" {
		u.Phone = str(phone)
	}
	if role == repo.RolePatient {
		_, err := f.store.CreatePatient(context.Background(), u)
		require.NoError(t, err)
		return u
	}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func completeDoctorProfile(userID uuid.UUID) *repo.DoctorProfile {
	return &repo.DoctorProfile{
		UserID:            userID,
		LicenseNumber:     "MCHK-" + userID.String()[:8],
		Specialties:       repo.Strings{"Orthopaedics"},
		ConsultationFee:   600,
		BankName:          str("HSBC"),
		BankAccountNumber: str("ciphertext"),
		BankAccountName:   str("Dr Test"),
	}
}

func (f *fixture) newPatientRequest(np NewPatient) CreateRequest {
	return CreateRequest{
		Patient:   np,
		PhysioID:  f.physio.ID,
		Diagnosis: "Lumbar strain",
		Sessions:  6,
	}
}

func TestCreateWithNewPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.store.UserCount()

	d, err := f.svc.Create(ctx, f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "Mei", LastName: "Chan", Email: "Mei.Chan@Example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, before+1, f.store.UserCount())
	assert.Equal(t, repo.ReferralStatusActive, d.Status)
	assert.Equal(t, 0, d.SessionsUsed)
	assert.Equal(t, repo.UrgencyRoutine, d.Urgency)
	assert.Equal(t, f.now, d.IssuedAt)
	assert.Equal(t, f.now.Add(90*24*time.Hour), d.ExpiryDate)

	require.NotNil(t, d.Patient)
	require.NotNil(t, d.Patient.Email)
	assert.Equal(t, "mei.chan@example.com", *d.Patient.Email)
	require.NotNil(t, d.Doctor)
	assert.Equal(t, []string{"Orthopaedics"}, d.Doctor.Specialties)
	require.NotNil(t, d.Physio)
	assert.Equal(t, f.physio.ID, d.Physio.ID)

	patient, err := f.store.GetUser(ctx, d.PatientID)
	require.NoError(t, err)
	assert.Equal(t, repo.RolePatient, patient.Role)
	assert.True(t, strings.HasPrefix(patient.PasswordHash, "plain:"))
	_, err = f.store.GetPatientProfile(ctx, patient.ID)
	assert.NoError(t, err, "new patient gets an empty profile")

	assert.Equal(t, []string{"pdp.referral.created." + d.ID.String()}, f.pub.subjects)
}

func TestCreateReusesPatientByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.addUser(t, repo.RolePatient, "a@x.com", "")
	before := f.store.UserCount()

	d, err := f.svc.Create(ctx, f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "A", LastName: "X", Email: "A@X.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, d.PatientID)
	assert.Equal(t, before, f.store.UserCount())
}

func TestCreateReusesPatientByPhone(t *testing.T) {
	f := newFixture(t)
	existing := f.addUser(t, repo.RolePatient, "", "+85291234567")

	d, err := f.svc.Create(context.Background(), f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "B", LastName: "Y", Phone: "9123 4567",
	}))
	require.NoError(t, err)
	assert.Equal(t, existing.ID, d.PatientID)
}

func TestCreatePhoneOnlySynthesizesEmail(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.Create(context.Background(), f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "C", LastName: "Z", Phone: "+852 6123 4567",
	}))
	require.NoError(t, err)
	require.NotNil(t, d.Patient.Email)
	assert.Equal(t, fmt.Sprintf("patient+%s@patients.invalid", d.PatientID), *d.Patient.Email)
	require.NotNil(t, d.Patient.Phone)
	assert.Equal(t, "+85261234567", *d.Patient.Phone)
}

func TestCreateRejectsMatchWithOtherRole(t *testing.T) {
	f := newFixture(t)
	before := f.store.UserCount()

	_, err := f.svc.Create(context.Background(), f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "D", LastName: "R", Email: "pt@example.com",
	}))
	assert.ErrorIs(t, err, ErrPatientRoleConflict)
	assert.Equal(t, before, f.store.UserCount())
	assert.Empty(t, f.pub.subjects)
}

func TestCreateBackfillsMissingPatientProfile(t *testing.T) {
	tests := []struct {
		name    string
		stored  *repo.User
		request NewPatient
	}{
		{
			name:    "matched by email",
			stored:  &repo.User{Role: repo.RolePatient, Email: str("reg@example.com"), IsActive: true},
			request: NewPatient{FirstName: "R", LastName: "G", Email: "Reg@Example.com"},
		},
		{
			name:    "matched by phone",
			stored:  &repo.User{Role: repo.RolePatient, Email: str("ph@example.com"), Phone: str("+85298765432"), IsActive: true},
			request: NewPatient{FirstName: "P", LastName: "H", Phone: "9876 5432"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			require.NoError(t, f.store.CreateUser(ctx, tt.stored))
			_, err := f.store.GetPatientProfile(ctx, tt.stored.ID)
			require.True(t, repo.IsNotFound(err))

			d, err := f.svc.Create(ctx, f.doctor.ID, f.newPatientRequest(tt.request))
			require.NoError(t, err)
			assert.Equal(t, tt.stored.ID, d.PatientID)

			profile, err := f.store.GetPatientProfile(ctx, tt.stored.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.stored.ID, profile.UserID)

			again, err := f.svc.Create(ctx, f.doctor.ID, CreateRequest{
				Patient: ExistingPatient{PatientID: tt.stored.ID}, PhysioID: f.physio.ID, Diagnosis: "x", Sessions: 1,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.stored.ID, again.PatientID)
		})
	}
}

func TestCreatePreconditionOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("validation runs before role check", func(t *testing.T) {
		f := newFixture(t)
		patient := f.addUser(t, repo.RolePatient, "p@x.com", "")
		_, err := f.svc.Create(ctx, patient.ID, CreateRequest{PhysioID: f.physio.ID, Diagnosis: "x", Sessions: 1})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("non doctor is forbidden", func(t *testing.T) {
		f := newFixture(t)
		patient := f.addUser(t, repo.RolePatient, "p@x.com", "")
		_, err := f.svc.Create(ctx, patient.ID, f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "n@x.com"}))
		assert.ErrorIs(t, err, ErrNotDoctor)
	})

	t.Run("inactive doctor is forbidden", func(t *testing.T) {
		f := newFixture(t)
		u := &repo.User{Role: repo.RoleDoctor, Email: str("off@x.com"), IsActive: false}
		require.NoError(t, f.store.CreateUser(ctx, u))
		_, err := f.svc.Create(ctx, u.ID, f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "n@x.com"}))
		assert.ErrorIs(t, err, ErrNotDoctor)
	})

	t.Run("doctor without profile", func(t *testing.T) {
		f := newFixture(t)
		bare := f.addUser(t, repo.RoleDoctor, "bare@x.com", "")
		_, err := f.svc.Create(ctx, bare.ID, f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "n@x.com"}))
		assert.ErrorIs(t, err, ErrNoDoctorProfile)
	})

	t.Run("incomplete profile lists every missing field", func(t *testing.T) {
		f := newFixture(t)
		doc := f.addUser(t, repo.RoleDoctor, "inc@x.com", "")
		require.NoError(t, f.store.CreateDoctorProfile(ctx, &repo.DoctorProfile{
			UserID:        doc.ID,
			LicenseNumber: "MCHK-INC",
			Specialties:   repo.Strings{"GP"},
		}))
		before := f.store.UserCount()

		_, err := f.svc.Create(ctx, doc.ID, f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "n@x.com"}))
		require.ErrorIs(t, err, ErrProfileIncomplete)
		var inc *IncompleteProfileError
		require.ErrorAs(t, err, &inc)
		assert.Equal(t, []string{"Consultation fee", "Banking details (required for referral fees)"}, inc.Missing)
		assert.Equal(t,
			"Profile incomplete. Missing required fields: Consultation fee, Banking details (required for referral fees)",
			err.Error())
		assert.Equal(t, before, f.store.UserCount(), "no patient is created before preconditions pass")
	})

	t.Run("physio must have the physio role", func(t *testing.T) {
		f := newFixture(t)
		req := f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "n@x.com"})
		req.PhysioID = f.doctor.ID
		_, err := f.svc.Create(ctx, f.doctor.ID, req)
		assert.ErrorIs(t, err, ErrPhysioNotFound)

		req.PhysioID = uuid.New()
		_, err = f.svc.Create(ctx, f.doctor.ID, req)
		assert.ErrorIs(t, err, ErrPhysioNotFound)
	})
}

func TestCreateExistingPatient(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves", func(t *testing.T) {
		f := newFixture(t)
		p := f.addUser(t, repo.RolePatient, "p@x.com", "")
		d, err := f.svc.Create(ctx, f.doctor.ID, CreateRequest{
			Patient: ExistingPatient{PatientID: p.ID}, PhysioID: f.physio.ID, Diagnosis: "Frozen shoulder", Sessions: 4,
			Urgency: "urgent", ServiceType: "home_visit",
		})
		require.NoError(t, err)
		assert.Equal(t, p.ID, d.PatientID)
		assert.Equal(t, repo.UrgencyUrgent, d.Urgency)
		require.NotNil(t, d.ServiceType)
		assert.Equal(t, repo.ReferralServiceHomeVisit, *d.ServiceType)
	})

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.doctor.ID, CreateRequest{
			Patient: ExistingPatient{PatientID: uuid.New()}, PhysioID: f.physio.ID, Diagnosis: "x", Sessions: 1,
		})
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("id of a non patient", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Create(ctx, f.doctor.ID, CreateRequest{
			Patient: ExistingPatient{PatientID: f.physio.ID}, PhysioID: f.physio.ID, Diagnosis: "x", Sessions: 1,
		})
		assert.ErrorIs(t, err, ErrPatientNotFound)
	})

	t.Run("patient without profile", func(t *testing.T) {
		f := newFixture(t)
		u := &repo.User{Role: repo.RolePatient, Email: str("np@x.com"), IsActive: true}
		require.NoError(t, f.store.CreateUser(ctx, u))
		_, err := f.svc.Create(ctx, f.doctor.ID, CreateRequest{
			Patient: ExistingPatient{PatientID: u.ID}, PhysioID: f.physio.ID, Diagnosis: "x", Sessions: 1,
		})
		assert.ErrorIs(t, err, ErrNoPatientProfile)
	})
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	zero, thousand := 0, 1000

	tests := []struct {
		name string
		mut  func(*CreateRequest)
	}{
		{"no patient selector", func(r *CreateRequest) { r.Patient = nil }},
		{"missing physio", func(r *CreateRequest) { r.PhysioID = uuid.Nil }},
		{"blank diagnosis", func(r *CreateRequest) { r.Diagnosis = "  " }},
		{"zero sessions", func(r *CreateRequest) { r.Sessions = 0 }},
		{"bad urgency", func(r *CreateRequest) { r.Urgency = "SOON" }},
		{"bad service type", func(r *CreateRequest) { r.ServiceType = "ONLINE" }},
		{"zero validity", func(r *CreateRequest) { r.ValidityDays = &zero }},
		{"new patient without contact", func(r *CreateRequest) { r.Patient = NewPatient{FirstName: "a", LastName: "b"} }},
		{"new patient bad email", func(r *CreateRequest) { r.Patient = NewPatient{FirstName: "a", LastName: "b", Email: "not-an-email"} }},
		{"new patient bad phone", func(r *CreateRequest) { r.Patient = NewPatient{FirstName: "a", LastName: "b", Phone: "12"} }},
		{"new patient without name", func(r *CreateRequest) { r.Patient = NewPatient{Email: "a@b.com"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "ok@x.com"})
			tt.mut(&req)
			_, err := f.svc.Create(ctx, f.doctor.ID, req)
			var verr *ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	t.Run("max validity", func(t *testing.T) {
		svc := New(f.store, plainHasher{}, Config{MaxValidityDays: 365})
		req := f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "ok@x.com"})
		req.ValidityDays = &thousand
		_, err := svc.Create(ctx, f.doctor.ID, req)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Msg, "365")
	})
}

func TestCreateCustomValidity(t *testing.T) {
	f := newFixture(t)
	days := 30
	req := f.newPatientRequest(NewPatient{FirstName: "a", LastName: "b", Email: "v@x.com"})
	req.ValidityDays = &days

	d, err := f.svc.Create(context.Background(), f.doctor.ID, req)
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(30*24*time.Hour), d.ExpiryDate)
	assert.True(t, d.ExpiryDate.After(d.IssuedAt))
}

func TestCreateSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.pub.fail = true

	d, err := f.svc.Create(context.Background(), f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "a", LastName: "b", Email: "pf@x.com",
	}))
	require.NoError(t, err)
	_, err = f.store.GetReferral(context.Background(), d.ID)
	assert.NoError(t, err)
}

// racingStore hides the first email match, as if a concurrent request
// inserted the patient between lookup and insert.
type racingStore struct {
	*repotest.Store
	hidden atomic.Bool
}

func (s *racingStore) GetUserByEmail(ctx context.Context, email string) (*repo.User, error) {
	if s.hidden.CompareAndSwap(false, true) {
		return nil, repo.ErrNotFound
	}
	return s.Store.GetUserByEmail(ctx, email)
}

func TestCreateRecoversFromInsertRace(t *testing.T) {
	f := newFixture(t)
	winner := f.addUser(t, repo.RolePatient, "race@x.com", "")
	rs := &racingStore{Store: f.store}
	svc := f.service(rs)
	before := f.store.UserCount()

	d, err := svc.Create(context.Background(), f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "R", LastName: "C", Email: "race@x.com",
	}))
	require.NoError(t, err)
	assert.Equal(t, winner.ID, d.PatientID)
	assert.Equal(t, before, f.store.UserCount())
}

func TestCreateConcurrentSamePatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.store.UserCount()

	const n = 8
	var wg sync.WaitGroup
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := f.svc.Create(ctx, f.doctor.ID, f.newPatientRequest(NewPatient{
				FirstName: "Same", LastName: "Person", Email: "same@x.com",
			}))
			errs[i] = err
			if err == nil {
				ids[i] = d.PatientID
			}
		}()
	}
	wg.Wait()

	for i := range n {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	assert.Equal(t, before+1, f.store.UserCount())
}

func createOne(t *testing.T, f *fixture, email string) *Detail {
	t.Helper()
	d, err := f.svc.Create(context.Background(), f.doctor.ID, f.newPatientRequest(NewPatient{
		FirstName: "P", LastName: "Q", Email: email,
	}))
	require.NoError(t, err)
	return d
}

func TestGetAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := createOne(t, f, "g@x.com")
	admin := f.addUser(t, repo.RoleAdmin, "admin@x.com", "")
	stranger := f.addUser(t, repo.RolePatient, "s@x.com", "")

	for _, caller := range []uuid.UUID{f.doctor.ID, d.PatientID, admin.ID} {
		got, err := f.svc.Get(ctx, d.ID, caller)
		require.NoError(t, err)
		assert.Equal(t, d.ID, got.ID)
	}

	_, err := f.svc.Get(ctx, d.ID, stranger.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = f.svc.Get(ctx, d.ID, f.physio.ID)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = f.svc.Get(ctx, uuid.New(), f.doctor.ID)
	assert.ErrorIs(t, err, ErrReferralNotFound)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("complete then terminal", func(t *testing.T) {
		f := newFixture(t)
		d := createOne(t, f, "u@x.com")

		got, err := f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, "completed")
		require.NoError(t, err)
		assert.Equal(t, repo.ReferralStatusCompleted, got.Status)
		assert.Contains(t, f.pub.subjects, "pdp.referral.status."+d.ID.String())

		for _, next := range []string{"ACTIVE", "REVOKED", "EXPIRED", "COMPLETED"} {
			_, err := f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, next)
			assert.ErrorIs(t, err, ErrInvalidTransition, next)
		}
	})

	t.Run("revoke", func(t *testing.T) {
		f := newFixture(t)
		d := createOne(t, f, "r@x.com")
		got, err := f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, "REVOKED")
		require.NoError(t, err)
		assert.Equal(t, repo.ReferralStatusRevoked, got.Status)
	})

	t.Run("doctor cannot expire", func(t *testing.T) {
		f := newFixture(t)
		d := createOne(t, f, "e@x.com")
		_, err := f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, "EXPIRED")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, err = f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, "ACTIVE")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("only the issuing doctor", func(t *testing.T) {
		f := newFixture(t)
		d := createOne(t, f, "o@x.com")
		other := f.addUser(t, repo.RoleDoctor, "other@x.com", "")
		_, err := f.svc.UpdateStatus(ctx, d.ID, other.ID, "COMPLETED")
		assert.ErrorIs(t, err, ErrNotIssuingDoctor)
		_, err = f.svc.UpdateStatus(ctx, d.ID, d.PatientID, "COMPLETED")
		assert.ErrorIs(t, err, ErrNotIssuingDoctor)
	})

	t.Run("unknown status and referral", func(t *testing.T) {
		f := newFixture(t)
		d := createOne(t, f, "x@x.com")
		_, err := f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, "PAUSED")
		assert.ErrorIs(t, err, ErrUnknownStatus)
		_, err = f.svc.UpdateStatus(ctx, uuid.New(), f.doctor.ID, "COMPLETED")
		assert.ErrorIs(t, err, ErrReferralNotFound)
	})

	t.Run("concurrent transitions have one winner", func(t *testing.T) {
		f := newFixture(t)
		d := createOne(t, f, "c@x.com")

		var wg sync.WaitGroup
		var ok, conflict atomic.Int32
		for _, s := range []string{"COMPLETED", "REVOKED", "COMPLETED", "REVOKED"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, s)
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, ErrInvalidTransition):
					conflict.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.EqualValues(t, 1, ok.Load())
		assert.EqualValues(t, 3, conflict.Load())
	})
}

func TestListViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := createOne(t, f, "l@x.com")
	f.now = f.now.Add(time.Minute)
	second := createOne(t, f, "l@x.com")
	f.now = f.now.Add(time.Minute)
	revoked := createOne(t, f, "l@x.com")
	_, err := f.svc.UpdateStatus(ctx, revoked.ID, f.doctor.ID, "REVOKED")
	require.NoError(t, err)

	patientID := first.PatientID

	byDoctor, err := f.svc.ListByDoctor(ctx, f.doctor.ID)
	require.NoError(t, err)
	require.Len(t, byDoctor, 3)
	assert.Equal(t, revoked.ID, byDoctor[0].ID, "newest first")
	assert.Equal(t, first.ID, byDoctor[2].ID)
	require.NotNil(t, byDoctor[0].Patient)
	require.NotNil(t, byDoctor[0].Physio)

	byPatient, err := f.svc.ListByPatient(ctx, patientID)
	require.NoError(t, err)
	assert.Len(t, byPatient, 3)

	active, err := f.svc.ListActiveForPatient(ctx, patientID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)

	byPhysio, err := f.svc.ListByPhysio(ctx, f.physio.ID)
	require.NoError(t, err)
	require.Len(t, byPhysio, 3, "every status")
	assert.Equal(t, revoked.ID, byPhysio[0].ID)

	other := f.addUser(t, repo.RolePhysio, "pt2@example.com", "")
	none, err := f.svc.ListByPhysio(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	empty, err := f.svc.ListByDoctor(ctx, f.physio.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestListOrderWithinSameInstant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var created []uuid.UUID
	for range 4 {
		created = append(created, createOne(t, f, "tie@x.com").ID)
	}

	views := []struct {
		name string
		list func(context.Context, uuid.UUID) ([]*Detail, error)
		who  uuid.UUID
	}{
		{"doctor", f.svc.ListByDoctor, f.doctor.ID},
		{"physio", f.svc.ListByPhysio, f.physio.ID},
	}
	for _, v := range views {
		t.Run(v.name, func(t *testing.T) {
			for range 3 {
				got, err := v.list(ctx, v.who)
				require.NoError(t, err)
				require.Len(t, got, len(created))
				for i, d := range got {
					assert.Equal(t, created[len(created)-1-i], d.ID)
				}
			}
		})
	}
}

func TestExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	one := 1
	req := f.newPatientRequest(NewPatient{FirstName: "E", LastName: "X", Email: "exp@x.com"})
	req.ValidityDays = &one
	d, err := f.svc.Create(ctx, f.doctor.ID, req)
	require.NoError(t, err)

	f.now = f.now.Add(48 * time.Hour)

	active, err := f.svc.ListActiveForPatient(ctx, d.PatientID)
	require.NoError(t, err)
	assert.Empty(t, active, "past-expiry referral is hidden before the sweep runs")

	all, err := f.svc.ListByPatient(ctx, d.PatientID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, repo.ReferralStatusActive, all[0].Status)

	n, err := f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := f.svc.Get(ctx, d.ID, f.doctor.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.ReferralStatusExpired, got.Status)

	_, err = f.svc.UpdateStatus(ctx, d.ID, f.doctor.ID, "COMPLETED")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	n, err = f.svc.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCanTransition(t *testing.T) {
	all := []repo.ReferralStatus{
		repo.ReferralStatusActive, repo.ReferralStatusExpired,
		repo.ReferralStatusCompleted, repo.ReferralStatusRevoked,
	}
	allowed := map[[2]repo.ReferralStatus]Actor{
		{repo.ReferralStatusActive, repo.ReferralStatusCompleted}: ActorDoctor,
		{repo.ReferralStatusActive, repo.ReferralStatusRevoked}:   ActorDoctor,
		{repo.ReferralStatusActive, repo.ReferralStatusExpired}:   ActorSweep,
	}
	for _, from := range all {
		for _, to := range all {
			for _, actor := range []Actor{ActorDoctor, ActorSweep} {
				want, ok := allowed[[2]repo.ReferralStatus{from, to}]
				assert.Equal(t, ok && want == actor, CanTransition(from, to, actor), "%s -> %s (%d)", from, to, actor)
			}
		}
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carolhungwt/physio-doctor-platform/internal/service/auth"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/profile"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/referral"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
)

// stubReferrals embeds the interface so only the methods under test need
// bodies.
type stubReferrals struct {
	referral.Service

	err    error
	got    referral.CreateRequest
	status string
}

func (s *stubReferrals) Create(_ context.Context, _ uuid.UUID, req referral.CreateRequest) (*referral.Detail, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &referral.Detail{ID: uuid.New(), Diagnosis: req.Diagnosis, Sessions: req.Sessions}, nil
}

func (s *stubReferrals) Get(_ context.Context, id, _ uuid.UUID) (*referral.Detail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &referral.Detail{ID: id}, nil
}

func (s *stubReferrals) UpdateStatus(_ context.Context, id, _ uuid.UUID, status string) (*referral.Detail, error) {
	s.status = status
	if s.err != nil {
		return nil, s.err
	}
	return &referral.Detail{ID: id}, nil
}

func (s *stubReferrals) ListActiveForPatient(context.Context, uuid.UUID) ([]*referral.Detail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*referral.Detail{}, nil
}

func (s *stubReferrals) ListByPhysio(_ context.Context, callerID uuid.UUID) ([]*referral.Detail, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*referral.Detail{{ID: uuid.New(), PhysioID: callerID}}, nil
}

type stubProfiles struct {
	profile.Service
	err error
}

func (s *stubProfiles) CreateDoctor(context.Context, uuid.UUID, profile.DoctorInput) (*profile.DoctorView, error) {
	return nil, s.err
}

type stubAuth struct {
	auth.Service
	err error
}

func (s *stubAuth) Login(context.Context, string, string) (*auth.AuthTokens, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &auth.AuthTokens{AccessToken: "a", RefreshToken: "r", ExpiresIn: 900}, nil
}

func newApp(withClaims bool) *fiber.App {
	app := fiber.New()
	if withClaims {
		app.Use(func(c fiber.Ctx) error {
			sid := uuid.New()
			c.Locals(pasetotoken.CtxKeyClaims, &pasetotoken.Claims{
				Type:      pasetotoken.TokenTypeAccess,
				UserID:    uuid.New(),
				Role:      "DOCTOR",
				SessionID: &sid,
			})
			return c.Next()
		})
	}
	return app
}

func send(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func TestCreateReferralSelector(t *testing.T) {
	physio := uuid.NewString()

	t.Run("new patient", func(t *testing.T) {
		svc := &stubReferrals{}
		app := newApp(true)
		app.Post("/referrals", NewReferralHandler(svc).Create)

		code, body := send(t, app, http.MethodPost, "/referrals", `{
			"newPatient": {"firstName": "Mei", "lastName": "Chan", "email": "mei@example.com"},
			"physioId": "`+physio+`", "diagnosis": "ACL rehab", "sessions": 8, "urgency": "URGENT"}`)

		assert.Equal(t, http.StatusCreated, code)
		assert.Contains(t, body, "data")
		np, ok := svc.got.Patient.(referral.NewPatient)
		require.True(t, ok)
		assert.Equal(t, "mei@example.com", np.Email)
		assert.Equal(t, physio, svc.got.PhysioID.String())
		assert.Equal(t, 8, svc.got.Sessions)
		assert.Nil(t, svc.got.ValidityDays)
	})

	t.Run("existing patient", func(t *testing.T) {
		svc := &stubReferrals{}
		app := newApp(true)
		app.Post("/referrals", NewReferralHandler(svc).Create)
		pid := uuid.New()

		code, _ := send(t, app, http.MethodPost, "/referrals",
			`{"patientId": "`+pid.String()+`", "physioId": "`+physio+`", "diagnosis": "x", "sessions": 1, "validityDays": 30}`)

		assert.Equal(t, http.StatusCreated, code)
		assert.Equal(t, referral.ExistingPatient{PatientID: pid}, svc.got.Patient)
		require.NotNil(t, svc.got.ValidityDays)
		assert.Equal(t, 30, *svc.got.ValidityDays)
	})

	t.Run("both selectors rejected before the service", func(t *testing.T) {
		svc := &stubReferrals{}
		app := newApp(true)
		app.Post("/referrals", NewReferralHandler(svc).Create)

		code, body := send(t, app, http.MethodPost, "/referrals",
			`{"patientId": "`+uuid.NewString()+`", "newPatient": {"firstName": "A"}, "physioId": "`+physio+`"}`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Provide either patientId or newPatient, not both", body["error"])
		assert.Nil(t, svc.got.Patient)
	})

	t.Run("neither selector reaches the service", func(t *testing.T) {
		svc := &stubReferrals{err: &referral.ValidationError{Msg: "Either patientId or newPatient is required"}}
		app := newApp(true)
		app.Post("/referrals", NewReferralHandler(svc).Create)

		code, body := send(t, app, http.MethodPost, "/referrals", `{"physioId": "`+physio+`"}`)

		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Either patientId or newPatient is required", body["error"])
		assert.Nil(t, svc.got.Patient)
	})

	t.Run("malformed ids", func(t *testing.T) {
		app := newApp(true)
		app.Post("/referrals", NewReferralHandler(&stubReferrals{}).Create)

		code, _ := send(t, app, http.MethodPost, "/referrals", `{"patientId": "nope", "physioId": "`+physio+`"}`)
		assert.Equal(t, http.StatusBadRequest, code)

		code, _ = send(t, app, http.MethodPost, "/referrals", `{"patientId": "`+uuid.NewString()+`", "physioId": "nope"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestReferralErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"not a doctor", referral.ErrNotDoctor, http.StatusForbidden, referral.ErrNotDoctor.Error()},
		{"missing profile", referral.ErrNoDoctorProfile, http.StatusConflict, referral.ErrNoDoctorProfile.Error()},
		{
			"incomplete profile lists every field",
			&referral.IncompleteProfileError{Missing: []string{"Specialties", "Consultation fee"}},
			http.StatusConflict,
			"Profile incomplete. Missing required fields: Specialties, Consultation fee",
		},
		{"physio missing", referral.ErrPhysioNotFound, http.StatusBadRequest, referral.ErrPhysioNotFound.Error()},
		{"patient missing", referral.ErrPatientNotFound, http.StatusNotFound, referral.ErrPatientNotFound.Error()},
		{"patient without profile", referral.ErrNoPatientProfile, http.StatusConflict, referral.ErrNoPatientProfile.Error()},
		{"role conflict", referral.ErrPatientRoleConflict, http.StatusConflict, referral.ErrPatientRoleConflict.Error()},
		{"internal", errors.New("db down"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newApp(true)
			app.Post("/referrals", NewReferralHandler(&stubReferrals{err: tt.err}).Create)

			code, body := send(t, app, http.MethodPost, "/referrals",
				`{"patientId": "`+uuid.NewString()+`", "physioId": "`+uuid.NewString()+`", "diagnosis": "x", "sessions": 1}`)

			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.msg, body["error"])
		})
	}
}

func TestReferralStatusAndAccess(t *testing.T) {
	id := uuid.NewString()

	t.Run("status update passes the raw status through", func(t *testing.T) {
		svc := &stubReferrals{}
		app := newApp(true)
		app.Patch("/referrals/:id/status", NewReferralHandler(svc).UpdateStatus)

		code, _ := send(t, app, http.MethodPatch, "/referrals/"+id+"/status", `{"status": "COMPLETED"}`)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "COMPLETED", svc.status)
	})

	statusErrors := []struct {
		err  error
		code int
	}{
		{referral.ErrNotIssuingDoctor, http.StatusForbidden},
		{referral.ErrReferralNotFound, http.StatusNotFound},
		{referral.ErrUnknownStatus, http.StatusBadRequest},
		{referral.ErrInvalidTransition, http.StatusConflict},
	}
	for _, tt := range statusErrors {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newApp(true)
			app.Patch("/referrals/:id/status", NewReferralHandler(&stubReferrals{err: tt.err}).UpdateStatus)

			code, body := send(t, app, http.MethodPatch, "/referrals/"+id+"/status", `{"status": "REVOKED"}`)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}

	t.Run("empty status", func(t *testing.T) {
		app := newApp(true)
		app.Patch("/referrals/:id/status", NewReferralHandler(&stubReferrals{}).UpdateStatus)

		code, _ := send(t, app, http.MethodPatch, "/referrals/"+id+"/status", `{}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("get forbidden for unrelated caller", func(t *testing.T) {
		app := newApp(true)
		app.Get("/referrals/:id", NewReferralHandler(&stubReferrals{err: referral.ErrAccessDenied}).Get)

		code, body := send(t, app, http.MethodGet, "/referrals/"+id, "")
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, referral.ErrAccessDenied.Error(), body["error"])
	})

	t.Run("get rejects a malformed id", func(t *testing.T) {
		app := newApp(true)
		app.Get("/referrals/:id", NewReferralHandler(&stubReferrals{}).Get)

		code, _ := send(t, app, http.MethodGet, "/referrals/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("active list without claims is unauthorized", func(t *testing.T) {
		app := newApp(false)
		app.Get("/referrals/patient/active", NewReferralHandler(&stubReferrals{}).ListActiveForPatient)

		code, _ := send(t, app, http.MethodGet, "/referrals/patient/active", "")
		assert.Equal(t, http.StatusUnauthorized, code)
	})

	t.Run("active list wraps data", func(t *testing.T) {
		app := newApp(true)
		app.Get("/referrals/patient/active", NewReferralHandler(&stubReferrals{}).ListActiveForPatient)

		code, body := send(t, app, http.MethodGet, "/referrals/patient/active", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []any{}, body["data"])
	})

	t.Run("physio list is scoped to the caller", func(t *testing.T) {
		app := newApp(true)
		app.Get("/referrals/physio", NewReferralHandler(&stubReferrals{}).ListByPhysio)

		code, body := send(t, app, http.MethodGet, "/referrals/physio", "")
		assert.Equal(t, http.StatusOK, code)
		data, ok := body["data"].([]any)
		require.True(t, ok)
		require.Len(t, data, 1)
		physioID, _ := data[0].(map[string]any)["physioId"].(string)
		_, err := uuid.Parse(physioID)
		assert.NoError(t, err, "physio id comes from the caller's claims")
	})
}

func TestProfileErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{profile.ErrNotDoctor, http.StatusForbidden},
		{profile.ErrDoctorProfileExists, http.StatusConflict},
		{profile.ErrLicenseTakenByPhysio, http.StatusConflict},
		{profile.ErrUserNotFound, http.StatusNotFound},
		{&profile.ValidationError{Msg: "At least one specialty is required"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newApp(true)
			app.Post("/profiles/doctor", NewProfileHandler(&stubProfiles{err: tt.err}).CreateDoctor)

			code, body := send(t, app, http.MethodPost, "/profiles/doctor", `{"licenseNumber": "M-1"}`)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}
}

func TestLogin(t *testing.T) {
	t.Run("email alias for identifier", func(t *testing.T) {
		app := newApp(false)
		app.Post("/auth/login", NewAuthHandler(&stubAuth{}).Login)

		code, body := send(t, app, http.MethodPost, "/auth/login", `{"email": "a@example.com", "password": "secret123"}`)
		assert.Equal(t, http.StatusOK, code)
		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "a", data["accessToken"])
	})

	tests := []struct {
		err  error
		code int
	}{
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{auth.ErrAccountDeactivated, http.StatusUnauthorized},
		{auth.ErrAccountLocked, http.StatusTooManyRequests},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			app := newApp(false)
			app.Post("/auth/login", NewAuthHandler(&stubAuth{err: tt.err}).Login)

			code, body := send(t, app, http.MethodPost, "/auth/login", `{"identifier": "doc", "password": "secret123"}`)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.err.Error(), body["error"])
		})
	}

	t.Run("missing password", func(t *testing.T) {
		app := newApp(false)
		app.Post("/auth/login", NewAuthHandler(&stubAuth{}).Login)

		code, _ := send(t, app, http.MethodPost, "/auth/login", `{"identifier": "doc"}`)
		assert.Equal(t, http.StatusBadRequest, code)
	})
}

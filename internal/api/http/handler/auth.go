package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/carolhungwt/physio-doctor-platform/internal/service/auth"
	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// POST /api/v1/auth/register
func (h *AuthHandler) Register(c fiber.Ctx) error {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Role      string `json:"role"`
		Username  string `json:"username"`
		Phone     string `json:"phone"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	tokens, err := h.svc.Register(c.Context(), auth.RegisterRequest{
		Email:     body.Email,
		Password:  body.Password,
		Role:      body.Role,
		Username:  body.Username,
		Phone:     body.Phone,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		return mapAuthError(c, err)
	}

	return created(c, tokens)
}

// POST /api/v1/auth/login
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var body struct {
		// Identifier is an email, an E.164 phone number or a username.
		Identifier string `json:"identifier"`
		Email      string `json:"email"`
		Password   string `json:"password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Identifier == "" {
		body.Identifier = body.Email
	}
	if body.Identifier == "" || body.Password == "" {
		return badRequest(c, "identifier and password are required")
	}

	tokens, err := h.svc.Login(c.Context(), body.Identifier, body.Password)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokens)
}

// POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.RefreshToken == "" {
		return badRequest(c, "refreshToken is required")
	}

	tokens, err := h.svc.RefreshTokens(c.Context(), body.RefreshToken)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, tokens)
}

// POST /api/v1/auth/logout  (requires AuthRequired middleware)
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	claims, valid := pasetotoken.ClaimsFromFiber(c)
	if !valid || claims.SessionID == nil {
		return unauthorized(c, "unauthorized")
	}

	if err := h.svc.Logout(c.Context(), *claims.SessionID); err != nil {
		return internalError(c, err)
	}

	return noContent(c)
}

// GET /api/v1/auth/me  (requires AuthRequired middleware)
func (h *AuthHandler) Me(c fiber.Ctx) error {
	uid, valid := callerID(c)
	if !valid {
		return unauthorized(c, "unauthorized")
	}

	u, err := h.svc.Me(c.Context(), uid)
	if err != nil {
		return mapAuthError(c, err)
	}

	return ok(c, u)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func mapAuthError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, auth.ErrUsernameExists),
		errors.Is(err, auth.ErrPhoneExists):
		return conflict(c, err.Error())
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidPhone),
		errors.Is(err, auth.ErrPasswordTooShort),
		errors.Is(err, auth.ErrInvalidRole):
		return badRequest(c, err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrAccountDeactivated),
		errors.Is(err, auth.ErrInvalidToken):
		return unauthorized(c, err.Error())
	case errors.Is(err, auth.ErrAccountLocked):
		return tooManyRequests(c, err.Error())
	case errors.Is(err, auth.ErrUserNotFound):
		return notFound(c, err.Error())
	default:
		return internalError(c, err)
	}
}

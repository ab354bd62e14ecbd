package handler

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	pasetotoken "github.com/carolhungwt/physio-doctor-platform/pkg/paseto"
	"github.com/carolhungwt/physio-doctor-platform/pkg/reqctx"
)

func ok(c fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"data": data})
}

func created(c fiber.Ctx, data any) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": data})
}

func noContent(c fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func badRequest(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": msg})
}

func forbidden(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": msg})
}

func notFound(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": msg})
}

func conflict(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": msg})
}

func tooManyRequests(c fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": msg})
}

// internalError logs err with the request's logger and hides it from the client.
func internalError(c fiber.Ctx, err error) error {
	reqctx.Logger(c.Context(), slog.Default()).Error("request failed",
		"method", c.Method(), "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

// callerID returns the authenticated user. Routes using it sit behind
// AuthRequired, so a miss means the middleware was not mounted.
func callerID(c fiber.Ctx) (uuid.UUID, bool) {
	claims, ok := pasetotoken.ClaimsFromFiber(c)
	if !ok {
		return uuid.Nil, false
	}
	return claims.UserID, true
}

func parseID(c fiber.Ctx, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(param))
	return id, err == nil
}

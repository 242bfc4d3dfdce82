package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/auth"
	"opsdesk/internal/model"
	"opsdesk/internal/service"
)

// ActorLocalKey is the Fiber locals key holding the authenticated service.Actor.
const ActorLocalKey = "actor"

// Authenticator resolves a bearer token to the calling user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (service.Actor, error)
}

// Auth requires an "Authorization: Bearer <token>" header and stores the caller in locals.
func Auth(authn Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		actor, err := authn.Authenticate(c.UserContext(), token)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrTokenExpired):
			return fiber.NewError(fiber.StatusUnauthorized, "token expired")
		case errors.Is(err, auth.ErrInvalidToken):
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		case errors.Is(err, service.ErrAccountDisabled):
			return fiber.NewError(fiber.StatusUnauthorized, "account is disabled")
		default:
			return err
		}

		c.Locals(ActorLocalKey, actor)
		return c.Next()
	}
}

// ActorFrom returns the caller stored by Auth.
func ActorFrom(c *fiber.Ctx) (service.Actor, bool) {
	a, ok := c.Locals(ActorLocalKey).(service.Actor)
	return a, ok
}

// RequireRole rejects callers below min. It must run after Auth.
func RequireRole(min model.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}
		if !actor.Role.AtLeast(min) {
			return fiber.NewError(fiber.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

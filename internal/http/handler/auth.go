package handler

import (
	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/service"
)

// Login exchanges email and password for a bearer token.
//
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param body body service.LoginInput true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} errorPayload
// @Router /auth/login [post]
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.LoginInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		res, err := svc.Login(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// Me returns the caller's account.
//
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Router /auth/me [get]
func Me(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u, err := svc.Me(c.UserContext(), actor(c))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(u)
	}
}

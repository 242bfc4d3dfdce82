package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"
)

// ListUsers returns a page of users, filterable by role, active flag and a name/email search.
//
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role"
// @Param active query bool false "Active flag"
// @Param q query string false "Search"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} service.ListResult[model.User]
// @Router /users [get]
func ListUsers(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return serviceError(c, err)
		}
		f := repository.UserFilter{Role: model.Role(c.Query("role")), Search: c.Query("q")}
		if v := c.Query("active"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return serviceError(c, invalidQuery("active"))
			}
			f.Active = &b
		}
		res, err := svc.List(c.UserContext(), f, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateUser registers an account.
//
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateUserInput true "User"
// @Success 201 {object} model.User
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /users [post]
func CreateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.CreateUserInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		u, err := svc.Create(c.UserContext(), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(u)
	}
}

// GetUser returns one user.
//
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 404 {object} errorPayload
// @Router /users/{id} [get]
func GetUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		u, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(u)
	}
}

// UpdateUser applies a partial update.
//
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body service.UpdateUserInput true "Changes"
// @Success 200 {object} model.User
// @Router /users/{id} [patch]
func UpdateUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var in service.UpdateUserInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		u, err := svc.Update(c.UserContext(), id, in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(u)
	}
}

type activeBody struct {
	Active *bool `json:"active"`
}

// SetUserActive enables or disables an account.
//
// @Summary Enable or disable user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body activeBody true "Active flag"
// @Success 200 {object} model.User
// @Router /users/{id}/active [post]
func SetUserActive(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var in activeBody
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		if in.Active == nil {
			return writeErrorFields(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "validation failed",
				map[string]string{"active": "active is required"})
		}
		u, err := svc.SetActive(c.UserContext(), actor(c), id, *in.Active)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(u)
	}
}

// ChangePassword changes the caller's own password.
//
// @Summary Change own password
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param body body service.ChangePasswordInput true "Passwords"
// @Success 204
// @Router /users/me/password [put]
func ChangePassword(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ChangePasswordInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		if err := svc.ChangePassword(c.UserContext(), actor(c), in); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

type resetPasswordBody struct {
	Password string `json:"password"`
}

// ResetPassword sets another user's password.
//
// @Summary Reset password
// @Tags users
// @Accept json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body resetPasswordBody true "New password"
// @Success 204
// @Router /users/{id}/password [put]
func ResetPassword(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var in resetPasswordBody
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		if err := svc.ResetPassword(c.UserContext(), id, in.Password); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteUser removes an account.
//
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Router /users/{id} [delete]
func DeleteUser(svc service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), actor(c), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

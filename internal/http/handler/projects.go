package handler

import (
	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"
)

// ListProjects returns a page of projects.
//
// @Summary List projects
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status"
// @Param q query string false "Search name or client"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} service.ListResult[model.Project]
// @Router /projects [get]
func ListProjects(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return serviceError(c, err)
		}
		f := repository.ProjectFilter{Status: model.ProjectStatus(c.Query("status")), Search: c.Query("q")}
		res, err := svc.List(c.UserContext(), f, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateProject creates a project.
//
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ProjectInput true "Project"
// @Success 201 {object} model.Project
// @Failure 400 {object} errorPayload
// @Router /projects [post]
func CreateProject(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.ProjectInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		p, err := svc.Create(c.UserContext(), actor(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	}
}

// GetProject returns one project.
//
// @Summary Get project
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} model.Project
// @Failure 404 {object} errorPayload
// @Router /projects/{id} [get]
func GetProject(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		p, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(p)
	}
}

// UpdateProject applies a partial update.
//
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param body body service.UpdateProjectInput true "Changes"
// @Success 200 {object} model.Project
// @Router /projects/{id} [patch]
func UpdateProject(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var in service.UpdateProjectInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		p, err := svc.Update(c.UserContext(), id, in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(p)
	}
}

// DeleteProject removes a project and its time logs.
//
// @Summary Delete project
// @Tags projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 204
// @Router /projects/{id} [delete]
func DeleteProject(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ProjectProgress compares logged hours with the estimate.
//
// @Summary Project progress
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 200 {object} model.ProjectProgress
// @Router /projects/{id}/progress [get]
func ProjectProgress(svc service.ProjectService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		p, err := svc.Progress(c.UserContext(), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(p)
	}
}

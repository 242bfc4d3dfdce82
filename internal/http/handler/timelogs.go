package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/model"
	"opsdesk/internal/report"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"
)

// timeLogFilter reads user_id, project_id, work_type, from and to.
func timeLogFilter(c *fiber.Ctx) (repository.TimeLogFilter, error) {
	var f repository.TimeLogFilter
	var err error
	if f.UserID, err = queryID(c, "user_id"); err != nil {
		return f, err
	}
	if f.ProjectID, err = queryID(c, "project_id"); err != nil {
		return f, err
	}
	if f.From, f.To, err = dateRange(c); err != nil {
		return f, err
	}
	f.WorkType = model.WorkType(c.Query("work_type"))
	return f, nil
}

// ListTimeLogs returns a page of time logs visible to the caller.
//
// @Summary List time logs
// @Tags timelogs
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID"
// @Param project_id query string false "Project ID"
// @Param work_type query string false "Work type"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} service.ListResult[model.TimeLog]
// @Router /timelogs [get]
func ListTimeLogs(svc service.TimeLogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return serviceError(c, err)
		}
		f, err := timeLogFilter(c)
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.List(c.UserContext(), actor(c), f, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// CreateTimeLog records hours for the caller.
//
// @Summary Log time
// @Tags timelogs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TimeLogInput true "Time log"
// @Success 201 {object} model.TimeLog
// @Failure 422 {object} errorPayload
// @Router /timelogs [post]
func CreateTimeLog(svc service.TimeLogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.TimeLogInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		l, err := svc.Create(c.UserContext(), actor(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(l)
	}
}

// GetTimeLog returns one time log.
//
// @Summary Get time log
// @Tags timelogs
// @Produce json
// @Security BearerAuth
// @Param id path string true "Time log ID"
// @Success 200 {object} model.TimeLog
// @Router /timelogs/{id} [get]
func GetTimeLog(svc service.TimeLogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		l, err := svc.Get(c.UserContext(), actor(c), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(l)
	}
}

// UpdateTimeLog applies a partial update.
//
// @Summary Update time log
// @Tags timelogs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Time log ID"
// @Param body body service.UpdateTimeLogInput true "Changes"
// @Success 200 {object} model.TimeLog
// @Router /timelogs/{id} [patch]
func UpdateTimeLog(svc service.TimeLogService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var in service.UpdateTimeLogInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		l, err := svc.Update(c.UserContext(), actor(c), id, in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(l)
	}
}

// DeleteTimeLog removes a time log.
//
// @Summary Delete time log
// @Tags timelogs
// @Security BearerAuth
// @Param id path string true "Time log ID"
// @Success 204
// @Router /timelogs/{id} [delete]
func DeleteTimeLog(svc service.TimeLogService) fiber.Handler {
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

// ExportTimeLogs streams the filtered time logs as an XLSX workbook.
//
// @Summary Export time logs
// @Tags timelogs
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param user_id query string false "User ID"
// @Param project_id query string false "Project ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /timelogs/export [get]
func ExportTimeLogs(logs service.TimeLogService, projects service.ProjectService, users service.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := timeLogFilter(c)
		if err != nil {
			return serviceError(c, err)
		}
		ctx := c.UserContext()
		items, err := logs.All(ctx, actor(c), f)
		if err != nil {
			return serviceError(c, err)
		}
		names := exportNames(ctx, items, projects, users)
		body, err := report.TimeLogWorkbook(items, names)
		if err != nil {
			return err
		}
		return sendWorkbook(c, "timelogs.xlsx", body)
	}
}

// exportNames resolves user and project IDs to display names. Unresolvable IDs are left out
// and the workbook falls back to the raw ID.
func exportNames(ctx context.Context, items []model.TimeLog, projects service.ProjectService, users service.UserService) map[string]string {
	names := make(map[string]string)
	for _, l := range items {
		if _, seen := names[l.ProjectID]; !seen {
			if p, err := projects.Get(ctx, l.ProjectID); err == nil {
				names[l.ProjectID] = p.Name
			} else {
				names[l.ProjectID] = l.ProjectID
			}
		}
		if _, seen := names[l.UserID]; !seen {
			if u, err := users.Get(ctx, l.UserID); err == nil {
				names[l.UserID] = u.Name
			} else {
				names[l.UserID] = l.UserID
			}
		}
	}
	return names
}

func sendWorkbook(c *fiber.Ctx, filename string, body []byte) error {
	c.Set(fiber.HeaderContentType, report.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(body)
}

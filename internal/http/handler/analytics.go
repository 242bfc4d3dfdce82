package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/report"
	"opsdesk/internal/revenue"
	"opsdesk/internal/service"
)

// Revenue summarises revenue between from and to.
//
// @Summary Revenue summary
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Success 200 {object} revenue.Summary
// @Router /analytics/revenue [get]
func Revenue(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := dateRange(c)
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.Revenue(c.UserContext(), from, to)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// MonthlyRevenue returns twelve monthly totals for a year.
//
// @Summary Monthly revenue
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {array} revenue.MonthTotal
// @Router /analytics/revenue/monthly [get]
func MonthlyRevenue(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := queryInt(c, "year")
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.MonthlyRevenue(c.UserContext(), year)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// ExportRevenue downloads a year's revenue as an XLSX workbook.
//
// @Summary Export revenue
// @Tags analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {file} file
// @Router /analytics/revenue/export [get]
func ExportRevenue(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := queryInt(c, "year")
		if err != nil {
			return serviceError(c, err)
		}
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		ctx := c.UserContext()
		monthly, err := svc.MonthlyRevenue(ctx, year)
		if err != nil {
			return serviceError(c, err)
		}
		r := revenue.YearRange(year)
		summary, err := svc.Revenue(ctx, r.From, r.To)
		if err != nil {
			return serviceError(c, err)
		}
		body, err := report.RevenueWorkbook(*summary, monthly)
		if err != nil {
			return err
		}
		return sendWorkbook(c, "revenue-"+strconv.Itoa(year)+".xlsx", body)
	}
}

// ProjectRevenue breaks one project's revenue down by month.
//
// @Summary Project revenue
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param from query string false "From date, defaults to the project start"
// @Param to query string false "To date, defaults to today"
// @Success 200 {object} service.ProjectRevenueReport
// @Router /analytics/projects/{id}/revenue [get]
func ProjectRevenue(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		from, to, err := dateRange(c)
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.ProjectRevenue(c.UserContext(), id, from, to)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// HoursByWorkType totals hours per work type.
//
// @Summary Hours by work type
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID"
// @Param project_id query string false "Project ID"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {array} service.WorkTypeHours
// @Router /analytics/hours/work-types [get]
func HoursByWorkType(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := timeLogFilter(c)
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.HoursByWorkType(c.UserContext(), f)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// HoursByUser totals hours per user between from and to.
//
// @Summary Hours by user
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Success 200 {array} service.UserHours
// @Router /analytics/hours/users [get]
func HoursByUser(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := dateRange(c)
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.HoursByUser(c.UserContext(), from, to)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// Dashboard returns the landing-page overview.
//
// @Summary Dashboard
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Dashboard
// @Router /analytics/dashboard [get]
func Dashboard(svc service.AnalyticsService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Dashboard(c.UserContext())
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

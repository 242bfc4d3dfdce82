package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"opsdesk/internal/model"
	"opsdesk/internal/repository"
	"opsdesk/internal/service"
)

// ListLeaves returns a page of leave requests visible to the caller.
//
// @Summary List leave requests
// @Tags leaves
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID"
// @Param status query string false "Status"
// @Param type query string false "Leave type"
// @Param year query int false "Year"
// @Param limit query int false "Limit"
// @Param offset query int false "Offset"
// @Success 200 {object} service.ListResult[model.LeaveRequest]
// @Router /leaves [get]
func ListLeaves(svc service.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, offset, err := page(c)
		if err != nil {
			return serviceError(c, err)
		}
		year, err := queryInt(c, "year")
		if err != nil {
			return serviceError(c, err)
		}
		userID, err := queryID(c, "user_id")
		if err != nil {
			return serviceError(c, err)
		}
		f := repository.LeaveFilter{
			UserID: userID,
			Status: model.LeaveStatus(c.Query("status")),
			Type:   model.LeaveType(c.Query("type")),
			Year:   year,
		}
		res, err := svc.List(c.UserContext(), actor(c), f, limit, offset)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// ApplyLeave submits a leave request for the caller.
//
// @Summary Apply for leave
// @Tags leaves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.LeaveInput true "Leave request"
// @Success 201 {object} model.LeaveRequest
// @Failure 409 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /leaves [post]
func ApplyLeave(svc service.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.LeaveInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		r, err := svc.Apply(c.UserContext(), actor(c), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// GetLeave returns one leave request.
//
// @Summary Get leave request
// @Tags leaves
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leave request ID"
// @Success 200 {object} model.LeaveRequest
// @Router /leaves/{id} [get]
func GetLeave(svc service.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		r, err := svc.Get(c.UserContext(), actor(c), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(r)
	}
}

type reviewFunc func(ctx context.Context, a service.Actor, id string, in service.ReviewInput) (*model.LeaveRequest, error)

// reviewLeave runs approve or reject. The note body is optional.
func reviewLeave(decide reviewFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		var in service.ReviewInput
		if len(c.Body()) > 0 {
			if err := bind(c, &in); err != nil {
				return serviceError(c, err)
			}
		}
		r, err := decide(c.UserContext(), actor(c), id, in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(r)
	}
}

// ApproveLeave approves a pending request.
//
// @Summary Approve leave
// @Tags leaves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leave request ID"
// @Param body body service.ReviewInput false "Note"
// @Success 200 {object} model.LeaveRequest
// @Router /leaves/{id}/approve [post]
func ApproveLeave(svc service.LeaveService) fiber.Handler {
	return reviewLeave(svc.Approve)
}

// RejectLeave rejects a pending request.
//
// @Summary Reject leave
// @Tags leaves
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leave request ID"
// @Param body body service.ReviewInput false "Note"
// @Success 200 {object} model.LeaveRequest
// @Router /leaves/{id}/reject [post]
func RejectLeave(svc service.LeaveService) fiber.Handler {
	return reviewLeave(svc.Reject)
}

// CancelLeave withdraws the caller's own request.
//
// @Summary Cancel leave
// @Tags leaves
// @Produce json
// @Security BearerAuth
// @Param id path string true "Leave request ID"
// @Success 200 {object} model.LeaveRequest
// @Router /leaves/{id}/cancel [post]
func CancelLeave(svc service.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return invalidID(c)
		}
		r, err := svc.Cancel(c.UserContext(), actor(c), id)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(r)
	}
}

// LeaveBalance reports remaining days per leave type.
//
// @Summary Leave balance
// @Tags leaves
// @Produce json
// @Security BearerAuth
// @Param user_id query string false "User ID, defaults to the caller"
// @Param year query int false "Year, defaults to the current year"
// @Success 200 {object} service.LeaveBalanceReport
// @Router /leaves/balance [get]
func LeaveBalance(svc service.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := queryInt(c, "year")
		if err != nil {
			return serviceError(c, err)
		}
		userID, err := queryID(c, "user_id")
		if err != nil {
			return serviceError(c, err)
		}
		res, err := svc.Balance(c.UserContext(), actor(c), userID, year)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(res)
	}
}

// SetLeaveAllocation overrides one employee's yearly allocation.
//
// @Summary Set leave allocation
// @Tags leaves
// @Accept json
// @Security BearerAuth
// @Param body body service.AllocationInput true "Allocation"
// @Success 204
// @Router /leaves/allocations [put]
func SetLeaveAllocation(svc service.LeaveService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AllocationInput
		if err := bind(c, &in); err != nil {
			return serviceError(c, err)
		}
		if err := svc.SetAllocation(c.UserContext(), in); err != nil {
			return serviceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

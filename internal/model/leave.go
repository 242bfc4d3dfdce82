package model

import "time"

// LeaveType is a leave category with its own yearly allocation.
type LeaveType string

const (
	LeaveSick   LeaveType = "sick"
	LeaveCasual LeaveType = "casual"
	LeaveAnnual LeaveType = "annual"
)

var LeaveTypes = []LeaveType{LeaveSick, LeaveCasual, LeaveAnnual}

// LeaveStatus is the review state of a leave request.
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveRejected  LeaveStatus = "rejected"
	LeaveCancelled LeaveStatus = "cancelled"
)

// LeaveRequest is an employee's request for days off. StartDate and EndDate are inclusive.
type LeaveRequest struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	Type       LeaveType   `json:"type"`
	StartDate  time.Time   `json:"start_date"`
	EndDate    time.Time   `json:"end_date"`
	Reason     string      `json:"reason,omitempty"`
	Status     LeaveStatus `json:"status"`
	ReviewedBy string      `json:"reviewed_by,omitempty"`
	ReviewNote string      `json:"review_note,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Blocking reports whether the request still reserves its dates.
func (r *LeaveRequest) Blocking() bool {
	return r.Status == LeavePending || r.Status == LeaveApproved
}

// Days is the inclusive calendar day count of the request.
func (r *LeaveRequest) Days() int {
	return DaysBetween(r.StartDate, r.EndDate)
}

// LeaveAllocation overrides the default yearly allocation for one employee and type.
type LeaveAllocation struct {
	UserID string    `json:"user_id"`
	Year   int       `json:"year"`
	Type   LeaveType `json:"type"`
	Days   int       `json:"days"`
}

// LeaveBalance is the remaining allowance for one leave type in one year.
type LeaveBalance struct {
	Type      LeaveType `json:"type"`
	Allocated int       `json:"allocated"`
	Used      int       `json:"used"`
	Pending   int       `json:"pending"`
	Remaining int       `json:"remaining"`
}

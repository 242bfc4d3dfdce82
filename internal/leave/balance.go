// Package leave computes leave durations and yearly balances from already-fetched requests.
package leave

import (
	"time"

	"opsdesk/internal/model"
)

// Allocation is the number of days granted per leave type for one year.
type Allocation map[model.LeaveType]int

// Days returns the inclusive calendar day count between start and end, or 0 if end is before start.
func Days(start, end time.Time) int {
	return model.DaysBetween(start, end)
}

// DaysInYear counts the days of r that fall inside the given calendar year.
func DaysInYear(r model.LeaveRequest, year int) int {
	yStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	yEnd := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	s, e := model.DateOf(r.StartDate), model.DateOf(r.EndDate)
	if s.Before(yStart) {
		s = yStart
	}
	if e.After(yEnd) {
		e = yEnd
	}
	return Days(s, e)
}

// Overlaps reports whether the inclusive ranges of a and b share at least one day.
func Overlaps(a, b model.LeaveRequest) bool {
	return !model.DateOf(a.EndDate).Before(model.DateOf(b.StartDate)) &&
		!model.DateOf(b.EndDate).Before(model.DateOf(a.StartDate))
}

// Balance computes allocation, usage and remaining days per leave type for year.
// Only approved requests count as used; pending requests are reported separately.
// The result always lists every leave type in model.LeaveTypes order.
func Balance(alloc Allocation, requests []model.LeaveRequest, year int) []model.LeaveBalance {
	used := make(map[model.LeaveType]int, len(model.LeaveTypes))
	pending := make(map[model.LeaveType]int, len(model.LeaveTypes))
	for _, r := range requests {
		switch r.Status {
		case model.LeaveApproved:
			used[r.Type] += DaysInYear(r, year)
		case model.LeavePending:
			pending[r.Type] += DaysInYear(r, year)
		}
	}

	out := make([]model.LeaveBalance, 0, len(model.LeaveTypes))
	for _, t := range model.LeaveTypes {
		out = append(out, model.LeaveBalance{
			Type:      t,
			Allocated: alloc[t],
			Used:      used[t],
			Pending:   pending[t],
			Remaining: alloc[t] - used[t],
		})
	}
	return out
}

// Find returns the balance entry for t.
func Find(balances []model.LeaveBalance, t model.LeaveType) (model.LeaveBalance, bool) {
	for _, b := range balances {
		if b.Type == t {
			return b, true
		}
	}
	return model.LeaveBalance{}, false
}

// Available is what can still be requested: remaining days minus days held by pending requests.
func Available(b model.LeaveBalance) int {
	return b.Remaining - b.Pending
}

// CanTake reports whether days more of b's type can be requested.
func CanTake(b model.LeaveBalance, days int) bool {
	return days > 0 && Available(b) >= days
}

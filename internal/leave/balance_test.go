package leave

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"opsdesk/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func req(t model.LeaveType, s model.LeaveStatus, start, end time.Time) model.LeaveRequest {
	return model.LeaveRequest{Type: t, Status: s, StartDate: start, EndDate: end}
}

func TestDays(t *testing.T) {
	assert.Equal(t, 1, Days(day(2026, 5, 4), day(2026, 5, 4)))
	assert.Equal(t, 5, Days(day(2026, 5, 4), day(2026, 5, 8)))
	assert.Equal(t, 0, Days(day(2026, 5, 8), day(2026, 5, 4)))
	// time-of-day is ignored
	assert.Equal(t, 2, Days(day(2026, 5, 4).Add(23*time.Hour), day(2026, 5, 5).Add(time.Hour)))
	// across a DST-free leap February
	assert.Equal(t, 3, Days(day(2028, 2, 28), day(2028, 3, 1)))
}

func TestDaysInYear(t *testing.T) {
	r := req(model.LeaveAnnual, model.LeaveApproved, day(2025, 12, 29), day(2026, 1, 2))
	assert.Equal(t, 3, DaysInYear(r, 2025))
	assert.Equal(t, 2, DaysInYear(r, 2026))
	assert.Equal(t, 0, DaysInYear(r, 2027))
}

func TestOverlaps(t *testing.T) {
	a := req(model.LeaveSick, model.LeavePending, day(2026, 3, 1), day(2026, 3, 5))
	assert.True(t, Overlaps(a, req(model.LeaveSick, model.LeavePending, day(2026, 3, 5), day(2026, 3, 9))))
	assert.True(t, Overlaps(a, req(model.LeaveSick, model.LeavePending, day(2026, 2, 1), day(2026, 3, 1))))
	assert.True(t, Overlaps(a, req(model.LeaveSick, model.LeavePending, day(2026, 3, 2), day(2026, 3, 3))))
	assert.False(t, Overlaps(a, req(model.LeaveSick, model.LeavePending, day(2026, 3, 6), day(2026, 3, 9))))
	assert.False(t, Overlaps(a, req(model.LeaveSick, model.LeavePending, day(2026, 2, 1), day(2026, 2, 28))))
}

func TestBalance(t *testing.T) {
	alloc := Allocation{model.LeaveSick: 10, model.LeaveCasual: 10, model.LeaveAnnual: 15}
	requests := []model.LeaveRequest{
		req(model.LeaveAnnual, model.LeaveApproved, day(2026, 4, 6), day(2026, 4, 10)),
		req(model.LeaveAnnual, model.LeaveApproved, day(2025, 12, 30), day(2026, 1, 1)),
		req(model.LeaveAnnual, model.LeavePending, day(2026, 8, 3), day(2026, 8, 4)),
		req(model.LeaveSick, model.LeaveApproved, day(2026, 2, 2), day(2026, 2, 3)),
		req(model.LeaveSick, model.LeaveRejected, day(2026, 2, 9), day(2026, 2, 13)),
		req(model.LeaveCasual, model.LeaveCancelled, day(2026, 6, 1), day(2026, 6, 1)),
	}

	got := Balance(alloc, requests, 2026)
	want := []model.LeaveBalance{
		{Type: model.LeaveSick, Allocated: 10, Used: 2, Remaining: 8},
		{Type: model.LeaveCasual, Allocated: 10, Remaining: 10},
		{Type: model.LeaveAnnual, Allocated: 15, Used: 6, Pending: 2, Remaining: 9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Balance mismatch (-want +got):\n%s", diff)
	}

	annual, ok := Find(got, model.LeaveAnnual)
	assert.True(t, ok)
	assert.Equal(t, 7, Available(annual))

	_, ok = Find(got, model.LeaveType("unpaid"))
	assert.False(t, ok)
}

func TestBalanceNoAllocation(t *testing.T) {
	got := Balance(Allocation{}, []model.LeaveRequest{
		req(model.LeaveCasual, model.LeaveApproved, day(2026, 1, 5), day(2026, 1, 5)),
	}, 2026)
	casual, _ := Find(got, model.LeaveCasual)
	assert.Equal(t, -1, casual.Remaining)
}

func TestCanTake(t *testing.T) {
	b := model.LeaveBalance{Type: model.LeaveAnnual, Allocated: 15, Used: 6, Pending: 2, Remaining: 9}
	assert.True(t, CanTake(b, 7))
	assert.False(t, CanTake(b, 8))
	assert.False(t, CanTake(b, 0))
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleManager))
	assert.True(t, RoleManager.AtLeast(RoleManager))
	assert.False(t, RoleEmployee.AtLeast(RoleManager))
	assert.False(t, Role("guest").Valid())
	assert.False(t, Role("guest").AtLeast(Role("other")))
}

func TestUserPassword(t *testing.T) {
	u := &User{Role: RoleManager}
	require.NoError(t, u.SetPassword("S3cret!pass"))
	assert.NoError(t, u.CheckPassword("S3cret!pass"))
	assert.Error(t, u.CheckPassword("wrong"))
	assert.True(t, u.IsManager())
	assert.False(t, u.IsAdmin())
}

func TestBillingModelKey(t *testing.T) {
	assert.Equal(t, "hourly", BillingModel{Type: BillingHourly}.Key())
	assert.Equal(t, "monthly_retainer/hours", BillingModel{Type: BillingRetainer, SubType: SubTypeHours}.Key())
}

func TestProjectActiveOn(t *testing.T) {
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	p := &Project{StartDate: time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), EndDate: &end}

	assert.False(t, p.ActiveOn(time.Date(2026, 1, 14, 23, 0, 0, 0, time.UTC)))
	assert.True(t, p.ActiveOn(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)))
	assert.True(t, p.ActiveOn(end))
	assert.False(t, p.ActiveOn(end.AddDate(0, 0, 1)))

	p.EndDate = nil
	assert.True(t, p.ActiveOn(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("28/02/2026")
	assert.Error(t, err)
}

func TestLeaveRequestBlocking(t *testing.T) {
	assert.True(t, (&LeaveRequest{Status: LeavePending}).Blocking())
	assert.True(t, (&LeaveRequest{Status: LeaveApproved}).Blocking())
	assert.False(t, (&LeaveRequest{Status: LeaveRejected}).Blocking())
	assert.False(t, (&LeaveRequest{Status: LeaveCancelled}).Blocking())
}

func TestLeaveRequestDays(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2026, time.March, day, 0, 0, 0, 0, time.UTC) }

	assert.Equal(t, 1, (&LeaveRequest{StartDate: d(2), EndDate: d(2)}).Days())
	assert.Equal(t, 5, (&LeaveRequest{StartDate: d(2), EndDate: d(6)}).Days())
	assert.Equal(t, 0, (&LeaveRequest{StartDate: d(6), EndDate: d(2)}).Days())
}

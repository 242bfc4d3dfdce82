package model

import "time"

// WorkType categorises a time log entry.
type WorkType string

const (
	WorkDevelopment WorkType = "development"
	WorkDesign      WorkType = "design"
	WorkMeeting     WorkType = "meeting"
	WorkTesting     WorkType = "testing"
	WorkSupport     WorkType = "support"
	WorkOther       WorkType = "other"
)

var WorkTypes = []WorkType{WorkDevelopment, WorkDesign, WorkMeeting, WorkTesting, WorkSupport, WorkOther}

// TimeLog records hours a user worked on a project on a given date.
type TimeLog struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProjectID   string    `json:"project_id"`
	Date        time.Time `json:"date"`
	Hours       float64   `json:"hours"`
	WorkType    WorkType  `json:"work_type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

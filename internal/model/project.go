package model

import "time"

// ProjectStatus tracks where a project is in its lifecycle.
type ProjectStatus string

const (
	ProjectPlanned   ProjectStatus = "planned"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
)

var ProjectStatuses = []ProjectStatus{ProjectPlanned, ProjectActive, ProjectOnHold, ProjectCompleted}

// BillingType is the top-level project billing model.
type BillingType string

const (
	BillingOneTime  BillingType = "one_time"
	BillingHourly   BillingType = "hourly"
	BillingRetainer BillingType = "monthly_retainer"
)

// BillingSubType refines one-time and retainer projects.
type BillingSubType string

const (
	SubTypeNone  BillingSubType = ""
	SubTypeFixed BillingSubType = "fixed"
	SubTypeHours BillingSubType = "hours"
)

// BillingModel describes how a project earns revenue.
//
//	one_time/fixed          FixedAmount once, on the start date
//	one_time/hours          EstimatedHours x HourlyRate once, on the start date
//	hourly                  logged hours x HourlyRate
//	monthly_retainer/fixed  FixedAmount per active month
//	monthly_retainer/hours  RetainerHours x HourlyRate per active month, plus overage
type BillingModel struct {
	Type    BillingType    `json:"type"`
	SubType BillingSubType `json:"sub_type,omitempty"`
}

// Key is a stable label such as "monthly_retainer/hours" or "hourly".
func (b BillingModel) Key() string {
	if b.SubType == SubTypeNone {
		return string(b.Type)
	}
	return string(b.Type) + "/" + string(b.SubType)
}

// Project is a unit of client work that time is logged against.
type Project struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Client         string        `json:"client"`
	Description    string        `json:"description,omitempty"`
	Status         ProjectStatus `json:"status"`
	Billing        BillingModel  `json:"billing"`
	FixedAmount    float64       `json:"fixed_amount"`
	HourlyRate     float64       `json:"hourly_rate"`
	EstimatedHours float64       `json:"estimated_hours"`
	RetainerHours  float64       `json:"retainer_hours"`
	StartDate      time.Time     `json:"start_date"`
	EndDate        *time.Time    `json:"end_date,omitempty"`
	CreatedBy      string        `json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ActiveOn reports whether day falls between the start date and the (optional) end date.
func (p *Project) ActiveOn(day time.Time) bool {
	d := DateOf(day)
	if d.Before(DateOf(p.StartDate)) {
		return false
	}
	return p.EndDate == nil || !d.After(DateOf(*p.EndDate))
}

// ProjectProgress compares logged effort with the estimate.
type ProjectProgress struct {
	ProjectID      string  `json:"project_id"`
	LoggedHours    float64 `json:"logged_hours"`
	EstimatedHours float64 `json:"estimated_hours"`
	Percent        float64 `json:"percent"`
}

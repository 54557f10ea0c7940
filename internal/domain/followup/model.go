package followup

import (
	"time"

	"github.com/google/uuid"
)

// MilestoneMonths is the fixed follow-up schedule, in months after the anchor date.
var MilestoneMonths = []int{3, 6, 9, 12, 18, 24}

// ValidMonths reports whether m is one of MilestoneMonths.
func ValidMonths(m int) bool {
	for _, v := range MilestoneMonths {
		if v == m {
			return true
		}
	}
	return false
}

// Stored milestone statuses.
const (
	StoredUpcoming  = "upcoming"
	StoredCompleted = "completed"
)

// DisplayStatus is the read-time projection of a milestone.
type DisplayStatus string

const (
	Upcoming  DisplayStatus = "Upcoming"
	Due       DisplayStatus = "Due"
	Completed DisplayStatus = "Completed"
)

type Milestone struct {
	CaseID          uuid.UUID  `db:"case_id" json:"case_id"`
	MilestoneMonths int        `db:"milestone_months" json:"milestone_months"`
	DueDate         time.Time  `db:"due_date" json:"due_date"`
	FollowupDate    *time.Time `db:"followup_date" json:"followup_date,omitempty"`
	Status          string     `db:"status" json:"status"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// Value types of a metric definition.
const (
	TypeBoolean = "BOOLEAN"
	TypeText    = "TEXT"
)

type MetricDefinition struct {
	ID              uuid.UUID `db:"id" json:"id"`
	MilestoneMonths int       `db:"milestone_months" json:"milestone_months"`
	MetricKey       string    `db:"metric_key" json:"metric_key"`
	MetricLabel     string    `db:"metric_label" json:"metric_label"`
	ValueType       string    `db:"value_type" json:"value_type"`
	AllowNA         bool      `db:"allow_na" json:"allow_na"`
	DisplayOrder    int       `db:"display_order" json:"display_order"`
	IsActive        bool      `db:"is_active" json:"is_active"`
}

// MetricValue is one answer. For BOOLEAN metrics a nil ValueBoolean means
// "not applicable".
type MetricValue struct {
	CaseID          uuid.UUID `db:"case_id" json:"case_id"`
	MilestoneMonths int       `db:"milestone_months" json:"milestone_months"`
	MetricKey       string    `db:"metric_key" json:"metric_key"`
	ValueBoolean    *bool     `db:"value_boolean" json:"value_boolean,omitempty"`
	ValueText       *string   `db:"value_text" json:"value_text,omitempty"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Submission is a completed questionnaire. Boolean answers are "yes", "no"
// or "na"; text answers are stored as given.
type Submission struct {
	FollowupDate string            `json:"followup_date"`
	Responses    map[string]string `json:"responses"`
}

// MetricRequest creates or updates a catalog entry.
type MetricRequest struct {
	MilestoneMonths int    `json:"milestone_months" yaml:"-" validate:"required,oneof=3 6 9 12 18 24"`
	MetricKey       string `json:"metric_key" yaml:"key" validate:"required,max=64"`
	MetricLabel     string `json:"metric_label" yaml:"label" validate:"required,max=200"`
	ValueType       string `json:"value_type" yaml:"type" validate:"required,oneof=BOOLEAN TEXT"`
	AllowNA         bool   `json:"allow_na" yaml:"allow_na"`
	DisplayOrder    int    `json:"display_order" yaml:"order" validate:"min=0"`
	IsActive        *bool  `json:"is_active" yaml:"active"`
}

// MilestoneView is a milestone with its display status.
type MilestoneView struct {
	Milestone
	Display DisplayStatus `json:"display_status"`
}

// MonitoringView is everything the monitoring page needs for one case.
type MonitoringView struct {
	CaseID     uuid.UUID       `json:"case_id"`
	CaseNumber string          `json:"case_number"`
	CaseStatus string          `json:"case_status"`
	AnchorDate *time.Time      `json:"anchor_date,omitempty"`
	Today      string          `json:"today"`
	Milestones []MilestoneView `json:"milestones"`
}

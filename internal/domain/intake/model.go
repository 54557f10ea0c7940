package intake

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is one stored intake section.
type Record struct {
	CaseID     uuid.UUID       `db:"case_id" json:"case_id"`
	Document   Document        `db:"document" json:"document"`
	SectionKey string          `db:"section_key" json:"section_key"`
	Data       json.RawMessage `db:"data" json:"data"`
	UpdatedBy  string          `db:"updated_by" json:"updated_by"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// SectionState is a section together with its validation and completion.
type SectionState struct {
	CaseID     uuid.UUID  `json:"case_id"`
	Document   Document   `json:"document"`
	Section    string     `json:"section"`
	Title      string     `json:"title"`
	Data       Section    `json:"data"`
	Validation Result     `json:"validation"`
	Progress   Progress   `json:"progress"`
	UpdatedBy  string     `json:"updated_by,omitempty"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// SectionProgress is one row of a document progress report.
type SectionProgress struct {
	Section  string   `json:"section"`
	Title    string   `json:"title"`
	Progress Progress `json:"progress"`
	Complete bool     `json:"complete"`
	Saved    bool     `json:"saved"`
}

// DocumentProgress summarises every section of one document.
type DocumentProgress struct {
	CaseID           uuid.UUID         `json:"case_id"`
	Document         Document          `json:"document"`
	Sections         []SectionProgress `json:"sections"`
	CompleteSections int               `json:"complete_sections"`
	TotalSections    int               `json:"total_sections"`
	OverallPct       int               `json:"overall_pct"`
}

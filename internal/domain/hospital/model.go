package hospital

import (
	"time"

	"github.com/google/uuid"
)

// ProcessType is the processing track a hospital's cases follow.
type ProcessType string

const (
	ProcessBRC    ProcessType = "BRC"
	ProcessBRRC   ProcessType = "BRRC"
	ProcessBGRC   ProcessType = "BGRC"
	ProcessBCRC   ProcessType = "BCRC"
	ProcessNonBRC ProcessType = "NON_BRC"
)

var processTypes = map[ProcessType]bool{
	ProcessBRC: true, ProcessBRRC: true, ProcessBGRC: true, ProcessBCRC: true, ProcessNonBRC: true,
}

func (p ProcessType) Valid() bool {
	return processTypes[p]
}

const dateLayout = "2006-01-02"

// ProcessMap assigns a process type to a hospital from a given date.
type ProcessMap struct {
	ID                uuid.UUID   `db:"id" json:"id"`
	HospitalID        uuid.UUID   `db:"hospital_id" json:"hospital_id"`
	ProcessType       ProcessType `db:"process_type" json:"process_type"`
	IsActive          bool        `db:"is_active" json:"is_active"`
	EffectiveFromDate time.Time   `db:"effective_from_date" json:"effective_from_date"`
	CreatedAt         time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at" json:"updated_at"`
}

// MapRequest is the body of create and update calls.
type MapRequest struct {
	HospitalID        string `json:"hospital_id" validate:"required,uuid"`
	ProcessType       string `json:"process_type" validate:"required,oneof=BRC BRRC BGRC BCRC NON_BRC"`
	IsActive          *bool  `json:"is_active"`
	EffectiveFromDate string `json:"effective_from_date" validate:"required,datetime=2006-01-02"`
}

// apply copies a validated request onto m.
func (r MapRequest) apply(m *ProcessMap) {
	m.HospitalID = uuid.MustParse(r.HospitalID)
	m.ProcessType = ProcessType(r.ProcessType)
	m.IsActive = r.IsActive == nil || *r.IsActive
	m.EffectiveFromDate, _ = time.Parse(dateLayout, r.EffectiveFromDate)
}

// ListFilter narrows List.
type ListFilter struct {
	HospitalID *uuid.UUID
	ActiveOnly bool
}

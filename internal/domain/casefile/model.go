package casefile

import (
	"time"

	"github.com/google/uuid"

	"github.com/nfi/casedesk/internal/domain/hospital"
)

// Case is a beneficiary's application for assistance.
type Case struct {
	ID              uuid.UUID            `db:"id" json:"id"`
	CaseNumber      string               `db:"case_number" json:"case_number"`
	HospitalID      uuid.UUID            `db:"hospital_id" json:"hospital_id"`
	ProcessType     hospital.ProcessType `db:"process_type" json:"process_type"`
	Status          string               `db:"case_status" json:"case_status"`
	BeneficiaryName string               `db:"beneficiary_name" json:"beneficiary_name"`
	CreatedBy       string               `db:"created_by" json:"created_by"`
	CreatedAt       time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time            `db:"updated_at" json:"updated_at"`
}

// ClinicalDetails holds the dates that anchor the follow-up schedule.
type ClinicalDetails struct {
	CaseID              uuid.UUID  `db:"case_id" json:"case_id"`
	AdmissionDate       *time.Time `db:"admission_date" json:"admission_date,omitempty"`
	DischargeDate       *time.Time `db:"discharge_date" json:"discharge_date,omitempty"`
	GestationalAgeWeeks *int       `db:"gestational_age_weeks" json:"gestational_age_weeks,omitempty"`
	BirthWeightGrams    *int       `db:"birth_weight_grams" json:"birth_weight_grams,omitempty"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}

// AnchorDate is the discharge date, falling back to the admission date.
func (d *ClinicalDetails) AnchorDate() (time.Time, bool) {
	if d == nil {
		return time.Time{}, false
	}
	if d.DischargeDate != nil {
		return *d.DischargeDate, true
	}
	if d.AdmissionDate != nil {
		return *d.AdmissionDate, true
	}
	return time.Time{}, false
}

// StatusChange records one accepted transition.
type StatusChange struct {
	ID         uuid.UUID `db:"id" json:"id"`
	CaseID     uuid.UUID `db:"case_id" json:"case_id"`
	FromStatus string    `db:"from_status" json:"from_status"`
	ToStatus   string    `db:"to_status" json:"to_status"`
	Note       string    `db:"note" json:"note,omitempty"`
	ChangedBy  string    `db:"changed_by" json:"changed_by"`
	ChangedAt  time.Time `db:"changed_at" json:"changed_at"`
}

// ListFilter narrows a case listing. Status is any spelling of a status and
// matches every case in the same group; the service resolves it to the
// stored spellings in Statuses.
type ListFilter struct {
	Status     string
	Statuses   []string
	HospitalID *uuid.UUID
}

type CreateRequest struct {
	HospitalID      string               `json:"hospital_id" validate:"required,uuid"`
	BeneficiaryName string               `json:"beneficiary_name" validate:"required,max=200"`
	Clinical        *ClinicalDetailsForm `json:"clinical_details"`
}

type ClinicalDetailsForm struct {
	AdmissionDate       string `json:"admission_date" validate:"omitempty,datetime=2006-01-02"`
	DischargeDate       string `json:"discharge_date" validate:"omitempty,datetime=2006-01-02"`
	GestationalAgeWeeks *int   `json:"gestational_age_weeks" validate:"omitempty,min=20,max=45"`
	BirthWeightGrams    *int   `json:"birth_weight_grams" validate:"omitempty,min=200,max=6000"`
}

type TransitionRequest struct {
	ToStatus string `json:"to_status" validate:"required"`
	Note     string `json:"note" validate:"max=2000"`
}

// GroupCount is one row of the status summary report.
type GroupCount struct {
	Group string `json:"group"`
	Key   string `json:"key"`
	Count int    `json:"count"`
}

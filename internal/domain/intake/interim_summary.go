package intake

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Interim Summary sections.

type BirthDetails struct {
	DateOfBirth         *Date  `json:"date_of_birth"`
	Gender              string `json:"gender" validate:"omitempty,oneof=male female ambiguous"`
	BirthWeightGrams    *int   `json:"birth_weight_grams" validate:"omitempty,min=200,max=6000"`
	GestationalAgeWeeks *int   `json:"gestational_age_weeks" validate:"omitempty,min=20,max=45"`
	ModeOfDelivery      string `json:"mode_of_delivery" validate:"omitempty,oneof=vaginal caesarean assisted"`
	PlaceOfBirth        string `json:"place_of_birth"`
}

func (s *BirthDetails) Fields() map[string]any {
	return map[string]any{
		"date_of_birth":         s.DateOfBirth,
		"gender":                s.Gender,
		"birth_weight_grams":    s.BirthWeightGrams,
		"gestational_age_weeks": s.GestationalAgeWeeks,
		"mode_of_delivery":      s.ModeOfDelivery,
		"place_of_birth":        s.PlaceOfBirth,
	}
}

type MaternalDetails struct {
	MotherName string `json:"mother_name"`
	MotherAge  *int   `json:"mother_age" validate:"omitempty,min=12,max=60"`
	Gravida    *int   `json:"gravida" validate:"omitempty,min=1"`
	Para       *int   `json:"para" validate:"omitempty,min=0"`
	BloodGroup string `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

func (s *MaternalDetails) Fields() map[string]any {
	return map[string]any{
		"mother_name": s.MotherName,
		"mother_age":  s.MotherAge,
		"gravida":     s.Gravida,
		"para":        s.Para,
		"blood_group": s.BloodGroup,
	}
}

type AntenatalRiskFactors struct {
	Preeclampsia        *bool  `json:"preeclampsia"`
	GestationalDiabetes *bool  `json:"gestational_diabetes"`
	PROM                *bool  `json:"prom"`
	MaternalInfection   *bool  `json:"maternal_infection"`
	OtherRiskFactors    string `json:"other_risk_factors"`
}

func (s *AntenatalRiskFactors) Fields() map[string]any {
	return map[string]any{
		"preeclampsia":         s.Preeclampsia,
		"gestational_diabetes": s.GestationalDiabetes,
		"prom":                 s.PROM,
		"maternal_infection":   s.MaternalInfection,
		"other_risk_factors":   s.OtherRiskFactors,
	}
}

// antenatalRiskFactorsRecorded is filled when any risk factor is flagged or
// described.
func antenatalRiskFactorsRecorded(f map[string]any) bool {
	return truthy(f["preeclampsia"]) ||
		truthy(f["gestational_diabetes"]) ||
		truthy(f["prom"]) ||
		truthy(f["maternal_infection"]) ||
		Present(f["other_risk_factors"])
}

type Admission struct {
	AdmissionDate        *Date  `json:"admission_date"`
	AdmissionWeightGrams *int   `json:"admission_weight_grams" validate:"omitempty,min=200,max=8000"`
	ReasonForAdmission   string `json:"reason_for_admission"`
	CareLevel            string `json:"care_level" validate:"omitempty,oneof=I II III IV"`
}

func (s *Admission) Fields() map[string]any {
	return map[string]any{
		"admission_date":         s.AdmissionDate,
		"admission_weight_grams": s.AdmissionWeightGrams,
		"reason_for_admission":   s.ReasonForAdmission,
		"care_level":             s.CareLevel,
	}
}

type Diagnosis struct {
	PrimaryDiagnosis   string `json:"primary_diagnosis"`
	SecondaryDiagnoses string `json:"secondary_diagnoses"`
	ICD10Code          string `json:"icd10_code" validate:"omitempty,max=10"`
}

func (s *Diagnosis) Fields() map[string]any {
	return map[string]any{
		"primary_diagnosis":   s.PrimaryDiagnosis,
		"secondary_diagnoses": s.SecondaryDiagnoses,
		"icd10_code":          s.ICD10Code,
	}
}

// diagnosisRecorded is filled when either diagnosis text is present. A bare
// code does not count.
func diagnosisRecorded(f map[string]any) bool {
	return Present(f["primary_diagnosis"]) || Present(f["secondary_diagnoses"])
}

type TreatmentGiven struct {
	Ventilation  *bool  `json:"ventilation"`
	CPAP         *bool  `json:"cpap"`
	Phototherapy *bool  `json:"phototherapy"`
	Antibiotics  *bool  `json:"antibiotics"`
	Notes        string `json:"notes"`
}

func (s *TreatmentGiven) Fields() map[string]any {
	return map[string]any{
		"ventilation":  s.Ventilation,
		"cpap":         s.CPAP,
		"phototherapy": s.Phototherapy,
		"antibiotics":  s.Antibiotics,
		"notes":        s.Notes,
	}
}

// treatmentRecorded is filled when any of the four treatments was given or
// the notes say something.
func treatmentRecorded(f map[string]any) bool {
	if truthy(f["ventilation"]) || truthy(f["cpap"]) || truthy(f["phototherapy"]) || truthy(f["antibiotics"]) {
		return true
	}
	notes, _ := f["notes"].(string)
	return strings.TrimSpace(notes) != ""
}

type CurrentStatus struct {
	CurrentWeightGrams    *int   `json:"current_weight_grams" validate:"omitempty,min=200,max=10000"`
	FeedingMode           string `json:"feeding_mode" validate:"omitempty,oneof=breast formula mixed tube parenteral"`
	Condition             string `json:"condition" validate:"omitempty,oneof=stable improving critical"`
	ExpectedDischargeDate *Date  `json:"expected_discharge_date"`
}

func (s *CurrentStatus) Fields() map[string]any {
	return map[string]any{
		"current_weight_grams":    s.CurrentWeightGrams,
		"feeding_mode":            s.FeedingMode,
		"condition":               s.Condition,
		"expected_discharge_date": s.ExpectedDischargeDate,
	}
}

type CostUpdate struct {
	CostIncurred     *decimal.Decimal `json:"cost_incurred" validate:"omitempty,gte=0"`
	EstimatedBalance *decimal.Decimal `json:"estimated_balance" validate:"omitempty,gte=0"`
	BillDate         *Date            `json:"bill_date"`
}

func (s *CostUpdate) Fields() map[string]any {
	return map[string]any{
		"cost_incurred":     s.CostIncurred,
		"estimated_balance": s.EstimatedBalance,
		"bill_date":         s.BillDate,
	}
}

// ProjectedTotal is the incurred cost plus the remaining estimate.
func (s *CostUpdate) ProjectedTotal() decimal.Decimal {
	total := decimal.Zero
	if s.CostIncurred != nil {
		total = total.Add(*s.CostIncurred)
	}
	if s.EstimatedBalance != nil {
		total = total.Add(*s.EstimatedBalance)
	}
	return total
}

type DoctorRemarks struct {
	DoctorName  string `json:"doctor_name"`
	Remarks     string `json:"remarks"`
	RemarksDate *Date  `json:"remarks_date"`
}

func (s *DoctorRemarks) Fields() map[string]any {
	return map[string]any{
		"doctor_name":  s.DoctorName,
		"remarks":      s.Remarks,
		"remarks_date": s.RemarksDate,
	}
}

var interimSummarySections = []sectionDef{
	{
		key: "birth_details", title: "Birth details",
		rule: Rule{Required: []string{"date_of_birth", "gender", "birth_weight_grams", "gestational_age_weeks", "mode_of_delivery"}},
		new:  func() Section { return &BirthDetails{} },
	},
	{
		key: "maternal_details", title: "Maternal details",
		rule: Rule{Required: []string{"mother_name", "mother_age"}},
		new:  func() Section { return &MaternalDetails{} },
	},
	{
		key: "antenatal_risk_factors", title: "Antenatal risk factors",
		rule: Rule{ContentName: "risk factor", HasContent: antenatalRiskFactorsRecorded},
		new:  func() Section { return &AntenatalRiskFactors{} },
	},
	{
		key: "admission", title: "Admission",
		rule: Rule{Required: []string{"admission_date", "reason_for_admission"}},
		new:  func() Section { return &Admission{} },
	},
	{
		key: "diagnosis", title: "Diagnosis",
		rule: Rule{ContentName: "diagnosis", HasContent: diagnosisRecorded},
		new:  func() Section { return &Diagnosis{} },
	},
	{
		key: "treatment_given", title: "Treatment given",
		rule: Rule{ContentName: "treatment or a treatment note", HasContent: treatmentRecorded},
		new:  func() Section { return &TreatmentGiven{} },
	},
	{
		key: "current_status", title: "Current status",
		rule: Rule{Required: []string{"current_weight_grams", "feeding_mode", "condition"}},
		new:  func() Section { return &CurrentStatus{} },
	},
	{
		key: "cost_update", title: "Cost update",
		rule: Rule{Required: []string{"cost_incurred", "estimated_balance"}},
		new:  func() Section { return &CostUpdate{} },
	},
	{
		key: "doctor_remarks", title: "Doctor's remarks",
		rule: Rule{Required: []string{"doctor_name", "remarks"}},
		new:  func() Section { return &DoctorRemarks{} },
	},
}

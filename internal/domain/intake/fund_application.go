package intake

import (
	"github.com/shopspring/decimal"
)

// Fund Application sections.

type Beneficiary struct {
	BabyName     string `json:"baby_name" validate:"max=200"`
	MotherName   string `json:"mother_name" validate:"max=200"`
	FatherName   string `json:"father_name" validate:"max=200"`
	Gender       string `json:"gender" validate:"omitempty,oneof=male female ambiguous"`
	DateOfBirth  *Date  `json:"date_of_birth"`
	ContactPhone string `json:"contact_phone" validate:"omitempty,min=8,max=15,numeric"`
	Address      string `json:"address"`
	District     string `json:"district"`
	State        string `json:"state"`
}

func (s *Beneficiary) Fields() map[string]any {
	return map[string]any{
		"baby_name":     s.BabyName,
		"mother_name":   s.MotherName,
		"father_name":   s.FatherName,
		"gender":        s.Gender,
		"date_of_birth": s.DateOfBirth,
		"contact_phone": s.ContactPhone,
		"address":       s.Address,
		"district":      s.District,
		"state":         s.State,
	}
}

type Family struct {
	FatherOccupation string           `json:"father_occupation"`
	MotherOccupation string           `json:"mother_occupation"`
	MonthlyIncome    *decimal.Decimal `json:"monthly_income" validate:"omitempty,gte=0"`
	FamilySize       *int             `json:"family_size" validate:"omitempty,min=1,max=30"`
	RationCardType   string           `json:"ration_card_type" validate:"omitempty,oneof=APL BPL AAY none"`
}

func (s *Family) Fields() map[string]any {
	return map[string]any{
		"father_occupation": s.FatherOccupation,
		"mother_occupation": s.MotherOccupation,
		"monthly_income":    s.MonthlyIncome,
		"family_size":       s.FamilySize,
		"ration_card_type":  s.RationCardType,
	}
}

type Hospitalization struct {
	HospitalName   string `json:"hospital_name"`
	UHID           string `json:"uhid"`
	AdmissionDate  *Date  `json:"admission_date"`
	WardType       string `json:"ward_type" validate:"omitempty,oneof=NICU PICU SNCU general"`
	TreatingDoctor string `json:"treating_doctor"`
}

func (s *Hospitalization) Fields() map[string]any {
	return map[string]any{
		"hospital_name":   s.HospitalName,
		"uhid":            s.UHID,
		"admission_date":  s.AdmissionDate,
		"ward_type":       s.WardType,
		"treating_doctor": s.TreatingDoctor,
	}
}

type ClinicalSummary struct {
	Diagnosis           string `json:"diagnosis"`
	GestationalAgeWeeks *int   `json:"gestational_age_weeks" validate:"omitempty,min=20,max=45"`
	BirthWeightGrams    *int   `json:"birth_weight_grams" validate:"omitempty,min=200,max=6000"`
	TreatmentPlan       string `json:"treatment_plan"`
}

func (s *ClinicalSummary) Fields() map[string]any {
	return map[string]any{
		"diagnosis":             s.Diagnosis,
		"gestational_age_weeks": s.GestationalAgeWeeks,
		"birth_weight_grams":    s.BirthWeightGrams,
		"treatment_plan":        s.TreatmentPlan,
	}
}

type Financial struct {
	EstimatedCost      *decimal.Decimal `json:"estimated_cost" validate:"omitempty,gte=0"`
	AmountPaidByFamily *decimal.Decimal `json:"amount_paid_by_family" validate:"omitempty,gte=0"`
	AmountRequested    *decimal.Decimal `json:"amount_requested" validate:"omitempty,gte=0"`
}

func (s *Financial) Fields() map[string]any {
	return map[string]any{
		"estimated_cost":        s.EstimatedCost,
		"amount_paid_by_family": s.AmountPaidByFamily,
		"amount_requested":      s.AmountRequested,
	}
}

// Shortfall is the estimated cost not yet covered by the family. It is nil
// until the estimate is known.
func (s *Financial) Shortfall() *decimal.Decimal {
	if s.EstimatedCost == nil {
		return nil
	}
	d := *s.EstimatedCost
	if s.AmountPaidByFamily != nil {
		d = d.Sub(*s.AmountPaidByFamily)
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return &d
}

type OtherSupport struct {
	GovernmentScheme  string           `json:"government_scheme"`
	InsuranceProvider string           `json:"insurance_provider"`
	OtherOrganization string           `json:"other_organization"`
	AmountSanctioned  *decimal.Decimal `json:"amount_sanctioned" validate:"omitempty,gte=0"`
}

func (s *OtherSupport) Fields() map[string]any {
	return map[string]any{
		"government_scheme":  s.GovernmentScheme,
		"insurance_provider": s.InsuranceProvider,
		"other_organization": s.OtherOrganization,
		"amount_sanctioned":  s.AmountSanctioned,
	}
}

type Remarks struct {
	Remarks string `json:"remarks"`
}

func (s *Remarks) Fields() map[string]any {
	return map[string]any{"remarks": s.Remarks}
}

var fundApplicationSections = []sectionDef{
	{
		key: "beneficiary", title: "Beneficiary",
		rule: Rule{Required: []string{"mother_name", "gender", "date_of_birth", "contact_phone", "address"}},
		new:  func() Section { return &Beneficiary{} },
	},
	{
		key: "family", title: "Family",
		rule: Rule{Required: []string{"father_occupation", "monthly_income", "family_size"}},
		new:  func() Section { return &Family{} },
	},
	{
		key: "hospitalization", title: "Hospitalization",
		rule: Rule{Required: []string{"hospital_name", "admission_date", "treating_doctor"}},
		new:  func() Section { return &Hospitalization{} },
	},
	{
		key: "clinical_summary", title: "Clinical summary",
		rule: Rule{Required: []string{"diagnosis", "treatment_plan"}},
		new:  func() Section { return &ClinicalSummary{} },
	},
	{
		key: "financial", title: "Financial details",
		rule: Rule{Required: []string{"estimated_cost", "amount_requested"}},
		new:  func() Section { return &Financial{} },
	},
	{
		key: "other_support", title: "Other support",
		new: func() Section { return &OtherSupport{} },
	},
	{
		key: "remarks", title: "Remarks",
		new: func() Section { return &Remarks{} },
	},
}

// Package intake normalizes partner payloads into a CanonicalOrder.
//
// Each source format is handled by an Adapter. Adapters are looked up by
// source id in a Registry, so a new partner format is added by registering
// one more adapter without touching the order pipeline.
package intake

// PatientInfo identifies the patient as submitted. DOB is YYYY-MM-DD.
type PatientInfo struct {
	MRN       string `json:"mrn" validate:"mrn"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob" validate:"datetime=2006-01-02"`
}

type ProviderInfo struct {
	NPI  string `json:"npi" validate:"npi"`
	Name string `json:"name"`
}

type CarePlanInfo struct {
	PrimaryDiagnosis    string `json:"primary_diagnosis" validate:"required,icd10"`
	AdditionalDiagnosis string `json:"additional_diagnosis"`
	MedicationName      string `json:"medication_name" validate:"required"`
	MedicationHistory   string `json:"medication_history"`
	PatientRecords      string `json:"patient_records" validate:"required"`
}

// Flags are per-request options carried alongside the order.
type Flags struct {
	Confirm     bool   `json:"confirm"`
	BackendHint string `json:"llm_provider,omitempty"`
}

// CanonicalOrder is the only shape the order pipeline understands.
type CanonicalOrder struct {
	Patient  PatientInfo  `json:"patient"`
	Provider ProviderInfo `json:"provider"`
	CarePlan CarePlanInfo `json:"careplan"`
	Source   string       `json:"source" validate:"-"`
	RawData  []byte       `json:"-" validate:"-"`
	Flags    Flags        `json:"flags" validate:"-"`
}

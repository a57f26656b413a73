package dto

import (
	"time"

	"github.com/google/uuid"
)

// Response DTOs

type SubmitResponse struct {
	Message    string    `json:"message"`
	CarePlanID uuid.UUID `json:"care_plan_id"`
	Status     string    `json:"status"`
}

// CarePlanStatusResponse carries content only when completed and error
// only when failed.
type CarePlanStatusResponse struct {
	Status  string  `json:"status"`
	Content *string `json:"content,omitempty"`
	Error   *string `json:"error,omitempty"`
}

type PatientSummary struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	MRN       string `json:"mrn"`
	DOB       string `json:"dob"`
}

type ProviderSummary struct {
	Name string `json:"name"`
	NPI  string `json:"npi"`
}

type CarePlanDetailResponse struct {
	ID                  uuid.UUID       `json:"id"`
	Status              string          `json:"status"`
	Content             string          `json:"content"`
	Patient             PatientSummary  `json:"patient"`
	Provider            ProviderSummary `json:"provider"`
	Medication          string          `json:"medication"`
	PrimaryDiagnosis    string          `json:"primary_diagnosis"`
	AdditionalDiagnosis string          `json:"additional_diagnosis"`
	Source              string          `json:"source"`
	CreatedAt           time.Time       `json:"created_at"`
}

type CarePlanDownload struct {
	Filename string
	Content  string
}

type CarePlanSearchResult struct {
	ID               uuid.UUID `json:"id"`
	PatientName      string    `json:"patient_name"`
	PatientMRN       string    `json:"patient_mrn"`
	ProviderName     string    `json:"provider_name"`
	ProviderNPI      string    `json:"provider_npi"`
	MedicationName   string    `json:"medication_name"`
	PrimaryDiagnosis string    `json:"primary_diagnosis"`
	CreatedAt        time.Time `json:"created_at"`
	DownloadURL      string    `json:"download_url"`
}

type CarePlanSearchResponse struct {
	Results []CarePlanSearchResult `json:"results"`
}

// Request DTOs

// IntakeRequest is a raw partner submission plus the flags a transport can
// add on top of the payload.
type IntakeRequest struct {
	Source      string
	SourceHint  string
	Raw         []byte
	Confirm     bool
	BackendHint string
}

type TokenResponse struct {
	Token     string    `json:"token"`
	TokenID   string    `json:"token_id"`
	Source    string    `json:"source"`
	ExpiresAt time.Time `json:"expires_at"`
}

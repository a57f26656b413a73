package intake

import (
	"testing"

	"careplan-service/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const medCenterPayload = `{
	"pt": {"mrn": "234567", "fname": "Maria", "lname": "Garcia", "dob": "01/15/2025"},
	"provider": {"name": "Dr. Patel", "npi_num": "2345678901"},
	"dx": {"primary": "I10", "secondary": ["I10", "E78.5"]},
	"rx": {"med_name": "Lisinopril"},
	"med_hx": ["Amlodipine 5mg daily", "Aspirin 81mg"],
	"allergies": ["Penicillin", "Sulfa"],
	"clinical_notes": "BP 150/95."
}`

func TestMedCenterAdapter_Transform(t *testing.T) {
	adapter := NewMedCenterAdapter(validator.NewValidator())

	order, err := Process(adapter, []byte(medCenterPayload), "")
	require.NoError(t, err)

	assert.Equal(t, "234567", order.Patient.MRN)
	assert.Equal(t, "Maria", order.Patient.FirstName)
	assert.Equal(t, "2025-01-15", order.Patient.DOB)
	assert.Equal(t, "2345678901", order.Provider.NPI)
	assert.Equal(t, "Dr. Patel", order.Provider.Name)
	assert.Equal(t, "I10, E78.5", order.CarePlan.AdditionalDiagnosis)
	assert.Equal(t, "Amlodipine 5mg daily; Aspirin 81mg", order.CarePlan.MedicationHistory)
	assert.Equal(t, "Allergies: Penicillin, Sulfa\n\nBP 150/95.", order.CarePlan.PatientRecords)
	assert.Equal(t, SourceMedCenter, order.Source)
}

func TestMedCenterAdapter_PatientRecordsFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"no notes or allergies", `{}`, "(No clinical notes)"},
		{"allergies only", `{"allergies": ["Latex"]}`, "Allergies: Latex"},
		{"notes only", `{"clinical_notes": " stable "}`, "stable"},
		{"empty allergy list", `{"allergies": [], "clinical_notes": "ok"}`, "ok"},
	}

	adapter := NewMedCenterAdapter(validator.NewValidator())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := adapter.Transform(mustParse(t, adapter, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, order.CarePlan.PatientRecords)
		})
	}
}

func TestMedCenterAdapter_UnparseableDOBLeftForValidation(t *testing.T) {
	adapter := NewMedCenterAdapter(validator.NewValidator())

	order, err := adapter.Transform(mustParse(t, adapter, `{"pt": {"dob": "13/45/2025"}, "dx": {"secondary": "E11.9"}}`))
	require.NoError(t, err)
	assert.Equal(t, "13/45/2025", order.Patient.DOB)
	assert.Equal(t, "E11.9", order.CarePlan.AdditionalDiagnosis)

	assert.Error(t, adapter.Validate(order))
}

func TestMedCenterAdapter_MissingSectionsBecomeEmpty(t *testing.T) {
	adapter := NewMedCenterAdapter(validator.NewValidator())

	order, err := adapter.Transform(mustParse(t, adapter, `{"pt": null, "rx": "oops"}`))
	require.NoError(t, err)
	assert.Empty(t, order.Patient.MRN)
	assert.Empty(t, order.CarePlan.MedicationName)
	assert.Empty(t, order.Patient.DOB)
}

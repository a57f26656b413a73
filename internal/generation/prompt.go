package generation

import (
	"fmt"

	"careplan-service/internal/domain/entity"
)

const SystemPrompt = "You are a clinical pharmacist assistant. " +
	"Generate detailed, professional care plans for patients."

const userPromptTemplate = `Generate a pharmacist care plan for the following patient information.

Patient Information:
- Name: %s
- MRN: %s
- DOB: %s

Provider Information:
- Name: %s
- NPI: %s

Diagnosis:
- Primary: %s
- Additional: %s

Medication:
- Name: %s
- History: %s

Patient Records:
%s

Please generate a comprehensive care plan with the following sections:

1. Problem list / Drug therapy problems
2. Goals (SMART goals)
3. Pharmacist interventions
4. Monitoring plan

Format the output clearly with section headers.`

// BuildUserPrompt renders the order with its patient and provider loaded.
func BuildUserPrompt(cp *entity.CarePlan) string {
	return fmt.Sprintf(userPromptTemplate,
		cp.Patient.FullName(),
		cp.Patient.MRN,
		cp.Patient.DOBString(),
		cp.Provider.Name,
		cp.Provider.NPI,
		cp.PrimaryDiagnosis,
		orNone(cp.AdditionalDiagnosis),
		cp.MedicationName,
		orNone(cp.MedicationHistory),
		cp.PatientRecords,
	)
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

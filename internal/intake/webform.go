package intake

import "careplan-service/pkg/validator"

const SourceWebForm = "webform"

// WebFormAdapter reads the flat JSON body posted by the web form.
type WebFormAdapter struct {
	baseAdapter
}

func NewWebFormAdapter(v *validator.CustomValidator) Adapter {
	return &WebFormAdapter{baseAdapter{validator: v}}
}

func (a *WebFormAdapter) SourceID() string {
	return SourceWebForm
}

func (a *WebFormAdapter) Parse(raw []byte) (interface{}, error) {
	return parseJSONObject(raw)
}

func (a *WebFormAdapter) Transform(parsed interface{}) (*CanonicalOrder, error) {
	body, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, unexpectedType(SourceWebForm, parsed)
	}

	return &CanonicalOrder{
		Patient: PatientInfo{
			MRN:       trimmed(body["patient_mrn"]),
			FirstName: trimmed(body["patient_first_name"]),
			LastName:  trimmed(body["patient_last_name"]),
			DOB:       truncate(str(body["patient_dob"]), 10),
		},
		Provider: ProviderInfo{
			NPI:  trimmed(body["provider_npi"]),
			Name: trimmed(body["provider_name"]),
		},
		CarePlan: CarePlanInfo{
			PrimaryDiagnosis:    trimmed(body["primary_diagnosis"]),
			AdditionalDiagnosis: trimmed(body["additional_diagnosis"]),
			MedicationName:      trimmed(body["medication_name"]),
			MedicationHistory:   trimmed(body["medication_history"]),
			PatientRecords:      trimmed(body["patient_records"]),
		},
		Source: SourceWebForm,
		Flags:  requestFlags(body),
	}, nil
}

package intake

import (
	"strings"
	"time"

	"careplan-service/pkg/validator"
)

const (
	SourceMedCenter      = "medcenter"
	SourceMedCenterAlias = "medcenter_api"

	noClinicalNotes = "(No clinical notes)"
)

// MedCenterAdapter reads the MedCenter open API JSON format with nested
// pt, provider, dx and rx objects.
type MedCenterAdapter struct {
	baseAdapter
}

func NewMedCenterAdapter(v *validator.CustomValidator) Adapter {
	return &MedCenterAdapter{baseAdapter{validator: v}}
}

func (a *MedCenterAdapter) SourceID() string {
	return SourceMedCenter
}

func (a *MedCenterAdapter) Parse(raw []byte) (interface{}, error) {
	return parseJSONObject(raw)
}

func (a *MedCenterAdapter) Transform(parsed interface{}) (*CanonicalOrder, error) {
	body, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, unexpectedType(SourceMedCenter, parsed)
	}

	pt := object(body["pt"])
	provider := object(body["provider"])
	dx := object(body["dx"])
	rx := object(body["rx"])

	return &CanonicalOrder{
		Patient: PatientInfo{
			MRN:       trimmed(pt["mrn"]),
			FirstName: trimmed(pt["fname"]),
			LastName:  trimmed(pt["lname"]),
			DOB:       usDateToISO(str(pt["dob"])),
		},
		Provider: ProviderInfo{
			NPI:  trimmed(provider["npi_num"]),
			Name: trimmed(provider["name"]),
		},
		CarePlan: CarePlanInfo{
			PrimaryDiagnosis:    trimmed(dx["primary"]),
			AdditionalDiagnosis: joinList(dx["secondary"], ", ", true),
			MedicationName:      trimmed(rx["med_name"]),
			MedicationHistory:   joinList(body["med_hx"], "; ", false),
			PatientRecords:      clinicalRecords(body["allergies"], trimmed(body["clinical_notes"])),
		},
		Source: SourceMedCenter,
		Flags:  requestFlags(body),
	}, nil
}

// usDateToISO converts MM/DD/YYYY to YYYY-MM-DD. Anything unparseable is
// returned truncated so validation rejects it.
func usDateToISO(s string) string {
	s = truncate(strings.TrimSpace(s), 10)
	if s == "" {
		return ""
	}
	t, err := time.Parse("01/02/2006", s)
	if err != nil {
		return s
	}
	return t.Format("2006-01-02")
}

// clinicalRecords prefixes an allergy line to the clinical notes.
func clinicalRecords(allergies interface{}, notes string) string {
	list, _ := allergies.([]interface{})
	if len(list) == 0 {
		if notes == "" {
			return noClinicalNotes
		}
		return notes
	}

	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, str(a))
	}
	line := "Allergies: " + strings.Join(names, ", ")
	if notes == "" {
		return line
	}
	return line + "\n\n" + notes
}

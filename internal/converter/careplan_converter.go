package converter

import (
	"fmt"
	"strings"

	"careplan-service/internal/delivery/dto"
	"careplan-service/internal/domain/entity"
)

const downloadURLPattern = "/api/v1/careplans/%s/download"

// CarePlanToStatusResponse converts a CarePlan entity to its polling view
func CarePlanToStatusResponse(carePlan *entity.CarePlan) *dto.CarePlanStatusResponse {
	if carePlan == nil {
		return nil
	}

	response := &dto.CarePlanStatusResponse{Status: string(carePlan.Status)}
	switch carePlan.Status {
	case entity.CarePlanStatusCompleted:
		content := carePlan.GeneratedContent
		response.Content = &content
	case entity.CarePlanStatusFailed:
		msg := carePlan.ErrorMessage
		if msg == "" {
			msg = "Generation failed"
		}
		response.Error = &msg
	}
	return response
}

// CarePlanToDetailResponse converts a CarePlan with patient and provider loaded
func CarePlanToDetailResponse(carePlan *entity.CarePlan) *dto.CarePlanDetailResponse {
	if carePlan == nil {
		return nil
	}

	return &dto.CarePlanDetailResponse{
		ID:      carePlan.ID,
		Status:  string(carePlan.Status),
		Content: carePlan.GeneratedContent,
		Patient: dto.PatientSummary{
			FirstName: carePlan.Patient.FirstName,
			LastName:  carePlan.Patient.LastName,
			MRN:       carePlan.Patient.MRN,
			DOB:       carePlan.Patient.DOBString(),
		},
		Provider: dto.ProviderSummary{
			Name: carePlan.Provider.Name,
			NPI:  carePlan.Provider.NPI,
		},
		Medication:          carePlan.MedicationName,
		PrimaryDiagnosis:    carePlan.PrimaryDiagnosis,
		AdditionalDiagnosis: carePlan.AdditionalDiagnosis,
		Source:              carePlan.Source,
		CreatedAt:           carePlan.CreatedAt,
	}
}

func CarePlanToSearchResult(carePlan *entity.CarePlan) dto.CarePlanSearchResult {
	return dto.CarePlanSearchResult{
		ID:               carePlan.ID,
		PatientName:      carePlan.Patient.FullName(),
		PatientMRN:       carePlan.Patient.MRN,
		ProviderName:     carePlan.Provider.Name,
		ProviderNPI:      carePlan.Provider.NPI,
		MedicationName:   carePlan.MedicationName,
		PrimaryDiagnosis: carePlan.PrimaryDiagnosis,
		CreatedAt:        carePlan.CreatedAt,
		DownloadURL:      fmt.Sprintf(downloadURLPattern, carePlan.ID),
	}
}

func CarePlansToSearchResults(carePlans []entity.CarePlan) []dto.CarePlanSearchResult {
	results := make([]dto.CarePlanSearchResult, len(carePlans))
	for i := range carePlans {
		results[i] = CarePlanToSearchResult(&carePlans[i])
	}
	return results
}

// CarePlanExportHeader is the fixed column set of the CSV report.
var CarePlanExportHeader = []string{
	"patient_mrn", "patient_first_name", "patient_last_name", "patient_dob",
	"provider_name", "provider_npi", "medication_name", "primary_diagnosis",
	"careplan_created_at", "duplication_warning",
}

func CarePlanToExportRow(carePlan *entity.CarePlan) []string {
	return []string{
		carePlan.Patient.MRN,
		carePlan.Patient.FirstName,
		carePlan.Patient.LastName,
		carePlan.Patient.DOBString(),
		carePlan.Provider.Name,
		carePlan.Provider.NPI,
		carePlan.MedicationName,
		carePlan.PrimaryDiagnosis,
		carePlan.CreatedAt.Format("2006-01-02T15:04:05.000000-07:00"),
		"",
	}
}

// DownloadFilename builds careplan_<mrn>_<medication>.txt with characters
// unsafe in a Content-Disposition value replaced.
func DownloadFilename(carePlan *entity.CarePlan) string {
	name := fmt.Sprintf("careplan_%s_%s.txt", carePlan.Patient.MRN, carePlan.MedicationName)
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '/', '\r', '\n':
			return '_'
		}
		return r
	}, name)
}

package intake

import (
	"strings"
	"testing"

	"careplan-service/pkg/apperror"
	"careplan-service/pkg/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const careOrderXML = `<?xml version="1.0" encoding="UTF-8"?>
<CareOrderRequest>
    <RequestMetadata>
        <SourceSystem>PharmaCorp_Portal</SourceSystem>
    </RequestMetadata>
    <PatientInformation>
        <MedicalRecordNumber>345678</MedicalRecordNumber>
        <PatientName>
            <FirstName>Robert</FirstName>
            <MiddleName>James</MiddleName>
            <LastName>Williams</LastName>
        </PatientName>
        <DateOfBirth>1972-11-30</DateOfBirth>
    </PatientInformation>
    <PrescriberInformation>
        <FullName>Dr. Michael Chen</FullName>
        <NPINumber>5678901234</NPINumber>
    </PrescriberInformation>
    <DiagnosisList>
        <PrimaryDiagnosis><ICDCode>G70.01</ICDCode></PrimaryDiagnosis>
        <SecondaryDiagnoses>
            <Diagnosis><ICDCode>I10</ICDCode></Diagnosis>
            <Diagnosis><ICDCode>E78.5</ICDCode></Diagnosis>
        </SecondaryDiagnoses>
    </DiagnosisList>
    <MedicationOrder><DrugName>Octagam</DrugName></MedicationOrder>
    <MedicationHistory>
        <Medication>
            <MedicationName>Pyridostigmine</MedicationName>
            <Dosage>60 mg</Dosage>
            <Route>Oral</Route>
            <Frequency>Every 6 hours</Frequency>
        </Medication>
        <Medication>
            <MedicationName>Prednisone</MedicationName>
            <Dosage>10 mg</Dosage>
            <Route>Oral</Route>
            <Frequency>Daily</Frequency>
        </Medication>
    </MedicationHistory>
    <ClinicalDocumentation>
        <NarrativeText>58 y/o male with known MG presenting with acute exacerbation.</NarrativeText>
    </ClinicalDocumentation>
</CareOrderRequest>`

func TestPharmaCorpAdapter_Transform(t *testing.T) {
	adapter := NewPharmaCorpAdapter(validator.NewValidator())

	order, err := Process(adapter, []byte(careOrderXML), "")
	require.NoError(t, err)

	assert.Equal(t, "345678", order.Patient.MRN)
	assert.Equal(t, "Robert", order.Patient.FirstName)
	assert.Equal(t, "Williams", order.Patient.LastName)
	assert.Equal(t, "1972-11-30", order.Patient.DOB)
	assert.Equal(t, "5678901234", order.Provider.NPI)
	assert.Equal(t, "Dr. Michael Chen", order.Provider.Name)
	assert.Equal(t, "G70.01", order.CarePlan.PrimaryDiagnosis)
	assert.Equal(t, "I10, E78.5", order.CarePlan.AdditionalDiagnosis)
	assert.Equal(t, "Octagam", order.CarePlan.MedicationName)
	assert.Equal(t, "Pyridostigmine 60 mg Oral Every 6 hours; Prednisone 10 mg Oral Daily", order.CarePlan.MedicationHistory)
	assert.Contains(t, order.CarePlan.PatientRecords, "MG")
	assert.Equal(t, SourcePharmaCorp, order.Source)
	assert.False(t, order.Flags.Confirm)
}

func TestPharmaCorpAdapter_RequestOptions(t *testing.T) {
	adapter := NewPharmaCorpAdapter(validator.NewValidator())
	raw := strings.Replace(careOrderXML, "</CareOrderRequest>",
		"<RequestOptions><Confirm>TRUE</Confirm><GenerationBackend>mock</GenerationBackend></RequestOptions></CareOrderRequest>", 1)

	order, err := Process(adapter, []byte(raw), "")
	require.NoError(t, err)
	assert.True(t, order.Flags.Confirm)
	assert.Equal(t, "mock", order.Flags.BackendHint)
}

func TestPharmaCorpAdapter_EmptyNarrative(t *testing.T) {
	adapter := NewPharmaCorpAdapter(validator.NewValidator())

	order, err := adapter.Transform(mustParse(t, adapter, `<CareOrderRequest><ClinicalDocumentation><NarrativeText>  </NarrativeText></ClinicalDocumentation></CareOrderRequest>`))
	require.NoError(t, err)
	assert.Equal(t, "(No clinical documentation)", order.CarePlan.PatientRecords)
	assert.Empty(t, order.CarePlan.AdditionalDiagnosis)
}

func TestPharmaCorpAdapter_InvalidXML(t *testing.T) {
	adapter := NewPharmaCorpAdapter(validator.NewValidator())

	_, err := Process(adapter, []byte("<invalid"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidXML))
}

func TestPharmaCorpAdapter_TrailingContentIsInvalidXML(t *testing.T) {
	adapter := NewPharmaCorpAdapter(validator.NewValidator())

	for _, raw := range []string{
		"<CareOrderRequest></CareOrderRequest><Other><unclosed>",
		"<CareOrderRequest></CareOrderRequest><Other/>",
		"<CareOrderRequest></CareOrderRequest>trailing text",
		"<CareOrderRequest></CareOrderRequest></Extra>",
	} {
		_, err := adapter.Parse([]byte(raw))
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidXML), raw)
	}

	_, err := adapter.Parse([]byte("<CareOrderRequest></CareOrderRequest>\n<!-- sent by portal -->\n"))
	assert.NoError(t, err, "whitespace and comments may follow the root")
}

func TestPharmaCorpAdapter_WrongRoot(t *testing.T) {
	adapter := NewPharmaCorpAdapter(validator.NewValidator())

	_, err := Process(adapter, []byte("<Order><PatientInformation/></Order>"), "")
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidXML, appErr.Code)
	assert.Equal(t, "Order", appErr.Detail["root"])
}

package intake

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"careplan-service/pkg/apperror"
	"careplan-service/pkg/validator"
)

const (
	SourcePharmaCorp      = "pharmacorp_portal"
	SourcePharmaCorpAlias = "pharmacorp"

	pharmaCorpRoot          = "CareOrderRequest"
	noClinicalDocumentation = "(No clinical documentation)"
)

type careOrderRequest struct {
	XMLName xml.Name

	Patient struct {
		MRN  string `xml:"MedicalRecordNumber"`
		Name struct {
			First string `xml:"FirstName"`
			Last  string `xml:"LastName"`
		} `xml:"PatientName"`
		DOB string `xml:"DateOfBirth"`
	} `xml:"PatientInformation"`

	Prescriber struct {
		NPI      string `xml:"NPINumber"`
		FullName string `xml:"FullName"`
	} `xml:"PrescriberInformation"`

	Diagnoses struct {
		Primary   string   `xml:"PrimaryDiagnosis>ICDCode"`
		Secondary []string `xml:"SecondaryDiagnoses>Diagnosis>ICDCode"`
	} `xml:"DiagnosisList"`

	DrugName string `xml:"MedicationOrder>DrugName"`

	History []struct {
		Name      string `xml:"MedicationName"`
		Dosage    string `xml:"Dosage"`
		Route     string `xml:"Route"`
		Frequency string `xml:"Frequency"`
	} `xml:"MedicationHistory>Medication"`

	Narrative string `xml:"ClinicalDocumentation>NarrativeText"`

	Options struct {
		Confirm           string `xml:"Confirm"`
		GenerationBackend string `xml:"GenerationBackend"`
	} `xml:"RequestOptions"`
}

// PharmaCorpAdapter reads the PharmaCorp portal CareOrderRequest XML.
type PharmaCorpAdapter struct {
	baseAdapter
}

func NewPharmaCorpAdapter(v *validator.CustomValidator) Adapter {
	return &PharmaCorpAdapter{baseAdapter{validator: v}}
}

func (a *PharmaCorpAdapter) SourceID() string {
	return SourcePharmaCorp
}

func (a *PharmaCorpAdapter) Parse(raw []byte) (interface{}, error) {
	var req careOrderRequest
	dec := xml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&req); err != nil {
		return nil, apperror.Format(apperror.CodeInvalidXML, "Invalid XML format", err.Error())
	}
	if err := expectDocumentEnd(dec); err != nil {
		return nil, apperror.Format(apperror.CodeInvalidXML, "Invalid XML format", err.Error())
	}

	if req.XMLName.Local != pharmaCorpRoot {
		return nil, apperror.Config(
			apperror.CodeInvalidXML,
			"Expected CareOrderRequest root element",
			map[string]interface{}{"root": req.XMLName.Local},
		)
	}
	return &req, nil
}

// expectDocumentEnd allows only whitespace, comments and processing
// instructions after the root element.
func expectDocumentEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("unexpected element <%s> after root element", t.Name.Local)
		case xml.EndElement:
			return fmt.Errorf("unexpected end element </%s>", t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return errors.New("unexpected text after root element")
			}
		}
	}
}

func (a *PharmaCorpAdapter) Transform(parsed interface{}) (*CanonicalOrder, error) {
	req, ok := parsed.(*careOrderRequest)
	if !ok {
		return nil, unexpectedType(SourcePharmaCorp, parsed)
	}

	secondary := make([]string, 0, len(req.Diagnoses.Secondary))
	for _, code := range req.Diagnoses.Secondary {
		if code = strings.TrimSpace(code); code != "" {
			secondary = append(secondary, code)
		}
	}

	history := make([]string, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, joinFields(m.Name, m.Dosage, m.Route, m.Frequency))
	}

	narrative := strings.TrimSpace(req.Narrative)
	if narrative == "" {
		narrative = noClinicalDocumentation
	}

	return &CanonicalOrder{
		Patient: PatientInfo{
			MRN:       strings.TrimSpace(req.Patient.MRN),
			FirstName: strings.TrimSpace(req.Patient.Name.First),
			LastName:  strings.TrimSpace(req.Patient.Name.Last),
			DOB:       truncate(strings.TrimSpace(req.Patient.DOB), 10),
		},
		Provider: ProviderInfo{
			NPI:  strings.TrimSpace(req.Prescriber.NPI),
			Name: strings.TrimSpace(req.Prescriber.FullName),
		},
		CarePlan: CarePlanInfo{
			PrimaryDiagnosis:    strings.TrimSpace(req.Diagnoses.Primary),
			AdditionalDiagnosis: strings.Join(secondary, ", "),
			MedicationName:      strings.TrimSpace(req.DrugName),
			MedicationHistory:   strings.Join(history, "; "),
			PatientRecords:      narrative,
		},
		Source: SourcePharmaCorp,
		Flags: Flags{
			Confirm:     strings.EqualFold(strings.TrimSpace(req.Options.Confirm), "true"),
			BackendHint: strings.TrimSpace(req.Options.GenerationBackend),
		},
	}, nil
}

// joinFields joins the non-empty trimmed values with a space.
func joinFields(values ...string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

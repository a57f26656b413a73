package intake

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"careplan-service/pkg/apperror"
	"careplan-service/pkg/validator"
)

// Adapter converts one partner payload format into a CanonicalOrder.
type Adapter interface {
	SourceID() string
	// Parse fails with an INVALID_JSON or INVALID_XML format error.
	Parse(raw []byte) (interface{}, error)
	// Transform maps missing fields to empty strings and never rejects data.
	Transform(parsed interface{}) (*CanonicalOrder, error)
	Validate(order *CanonicalOrder) error
}

// Process runs parse, transform and validate, then stamps the source and
// keeps the raw payload. sourceHint overrides the adapter's source id.
func Process(adapter Adapter, raw []byte, sourceHint string) (*CanonicalOrder, error) {
	parsed, err := adapter.Parse(raw)
	if err != nil {
		return nil, err
	}

	order, err := adapter.Transform(parsed)
	if err != nil {
		return nil, err
	}

	if err := adapter.Validate(order); err != nil {
		return nil, err
	}

	order.Source = strings.TrimSpace(sourceHint)
	if order.Source == "" {
		order.Source = adapter.SourceID()
	}
	order.RawData = raw
	return order, nil
}

// DefaultValidate checks the canonical field contract and reports every
// violation at once.
func DefaultValidate(v *validator.CustomValidator, order *CanonicalOrder) error {
	err := v.Validate(order)
	if err == nil {
		return nil
	}

	errs := v.FormatValidationErrors(err)
	if errs == nil {
		return err
	}
	return apperror.Validation(errs)
}

// baseAdapter supplies the shared Validate implementation.
type baseAdapter struct {
	validator *validator.CustomValidator
}

func (b baseAdapter) Validate(order *CanonicalOrder) error {
	return DefaultValidate(b.validator, order)
}

// parseJSONObject decodes a JSON object keeping numbers exact.
func parseJSONObject(raw []byte) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var parsed interface{}
	if err := dec.Decode(&parsed); err != nil {
		return nil, apperror.Format(apperror.CodeInvalidJSON, "Invalid JSON format", err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		diagnostic := "unexpected data after JSON value"
		if err != nil {
			diagnostic = err.Error()
		}
		return nil, apperror.Format(apperror.CodeInvalidJSON, "Invalid JSON format", diagnostic)
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, apperror.Format(apperror.CodeInvalidJSON, "Invalid JSON format", "expected a JSON object")
	}
	return obj, nil
}

// str renders a decoded JSON value as text. Missing and null become "".
func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func trimmed(v interface{}) string {
	return strings.TrimSpace(str(v))
}

func object(v interface{}) map[string]interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	return map[string]interface{}{}
}

// joinList joins a JSON list with sep, skipping empty entries. A scalar is
// returned as text.
func joinList(v interface{}, sep string, trim bool) string {
	list, ok := v.([]interface{})
	if !ok {
		return trimmed(v)
	}

	parts := make([]string, 0, len(list))
	for _, item := range list {
		s := str(item)
		if trim {
			s = strings.TrimSpace(s)
		}
		if s == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep)
}

// requestFlags reads confirm and llm_provider from a JSON body. Only a
// literal true confirms.
func requestFlags(parsed map[string]interface{}) Flags {
	confirm, _ := parsed["confirm"].(bool)
	hint, _ := parsed["llm_provider"].(string)
	return Flags{Confirm: confirm, BackendHint: strings.TrimSpace(hint)}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func unexpectedType(source string, parsed interface{}) error {
	return fmt.Errorf("%s adapter: unexpected parsed type %T", source, parsed)
}

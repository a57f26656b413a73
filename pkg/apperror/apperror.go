// Package apperror defines the structured error taxonomy shared by intake,
// the duplication gate and the read path. Every error carries a type, a
// stable code and the HTTP status it maps to.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an error for callers. Warning is the only type a caller
// can bypass, by resubmitting with confirm=true.
type Type string

const (
	TypeValidation Type = "validation"
	TypeBlock      Type = "block"
	TypeWarning    Type = "warning"
	TypeError      Type = "error"
)

const (
	CodeInvalidJSON             = "INVALID_JSON"
	CodeInvalidXML              = "INVALID_XML"
	CodeValidation              = "VALIDATION_ERROR"
	CodeUnknownSource           = "UNKNOWN_SOURCE"
	CodeProviderNPIMismatch     = "PROVIDER_NPI_NAME_MISMATCH"
	CodePatientMRNMismatch      = "PATIENT_MRN_MISMATCH"
	CodePatientNameDOBDuplicate = "PATIENT_NAME_DOB_DUPLICATE"
	CodeOrderSameDayDuplicate   = "ORDER_SAME_DAY_DUPLICATE"
	CodeOrderDiffDayDuplicate   = "ORDER_DIFF_DAY_DUPLICATE"
	CodeConcurrentSubmission    = "CONCURRENT_SUBMISSION"
	CodeNotFound                = "NOT_FOUND"
	CodeNotReady                = "NOT_READY"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeInternal                = "INTERNAL_ERROR"
)

// FieldError is a single field-level contract violation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Type       Type
	Code       string
	Message    string
	Detail     map[string]interface{}
	Errors     []FieldError
	HTTPStatus int
	// Retryable marks conflicts that may succeed if the caller resubmits
	// unchanged, such as a lost unique-key race.
	Retryable bool
}

func (e *Error) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s: %s (%d field errors)", e.Code, e.Message, len(e.Errors))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Format reports a payload that could not be parsed at all.
func Format(code, message, diagnostic string) *Error {
	return &Error{
		Type:       TypeValidation,
		Code:       code,
		Message:    message,
		Detail:     map[string]interface{}{"error": diagnostic},
		HTTPStatus: http.StatusBadRequest,
	}
}

func Validation(errs []FieldError) *Error {
	return &Error{
		Type:       TypeValidation,
		Code:       CodeValidation,
		Message:    "Validation failed",
		Errors:     errs,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Block is a business rule hard stop. Confirmation never bypasses it.
func Block(code, message string) *Error {
	return &Error{Type: TypeBlock, Code: code, Message: message, HTTPStatus: http.StatusConflict}
}

// Warning is a business rule soft stop, reported with 200 and success=false.
func Warning(code, message string) *Error {
	return &Error{Type: TypeWarning, Code: code, Message: message, HTTPStatus: http.StatusOK}
}

func Conflict(code, message string) *Error {
	return &Error{Type: TypeBlock, Code: code, Message: message, HTTPStatus: http.StatusConflict, Retryable: true}
}

func NotFound(message string) *Error {
	return &Error{Type: TypeError, Code: CodeNotFound, Message: message, HTTPStatus: http.StatusNotFound}
}

func NotReady(message string, detail map[string]interface{}) *Error {
	return &Error{Type: TypeError, Code: CodeNotReady, Message: message, Detail: detail, HTTPStatus: http.StatusBadRequest}
}

func Config(code, message string, detail map[string]interface{}) *Error {
	return &Error{Type: TypeValidation, Code: code, Message: message, Detail: detail, HTTPStatus: http.StatusBadRequest}
}

func Unauthorized(message string) *Error {
	return &Error{Type: TypeError, Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsType(err error, t Type) bool {
	appErr, ok := As(err)
	return ok && appErr.Type == t
}

func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

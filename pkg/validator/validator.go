package validator

import (
	"reflect"
	"regexp"
	"strings"

	"careplan-service/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var (
	mrnPattern   = regexp.MustCompile(`^\d{6}$`)
	npiPattern   = regexp.MustCompile(`^\d{10}$`)
	icd10Pattern = regexp.MustCompile(`^[A-Za-z][0-9]{2}(\.[0-9A-Za-z]{1,4})?$`)
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()

	// Report fields by their JSON name so errors read "patient.mrn".
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	v.RegisterValidation("mrn", matches(mrnPattern))
	v.RegisterValidation("npi", matches(npiPattern))
	v.RegisterValidation("icd10", matches(icd10Pattern))

	return &CustomValidator{validator: v}
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(strings.TrimSpace(fl.Field().String()))
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// FormatValidationErrors flattens every violation into field errors, in
// struct order. Non-validation errors yield nil.
func (cv *CustomValidator) FormatValidationErrors(err error) []apperror.FieldError {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	errs := make([]apperror.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := fieldPath(e.Namespace())
		errs = append(errs, apperror.FieldError{Field: field, Message: message(field, e)})
	}
	return errs
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func message(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "mrn":
		return "MRN must be exactly 6 digits"
	case "npi":
		return "NPI must be exactly 10 digits"
	case "icd10":
		return "Primary diagnosis must match ICD-10 format (e.g. A00, E11.9)"
	case "datetime":
		return "Date of birth must be a valid date in YYYY-MM-DD format"
	case "min":
		return field + " must be at least " + e.Param() + " characters"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + e.Param()
	default:
		return field + " is invalid"
	}
}

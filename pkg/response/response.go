package response

import (
	"encoding/json"
	"net/http"

	"careplan-service/pkg/apperror"
)

type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the single envelope for every failed request.
type ErrorResponse struct {
	Success bool                   `json:"success"`
	Type    apperror.Type          `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Detail  map[string]interface{} `json:"detail"`
	Errors  []apperror.FieldError  `json:"errors,omitempty"`
}

func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	JSON(w, statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// AppError writes err using its own type, code and HTTP status.
func AppError(w http.ResponseWriter, err *apperror.Error) {
	detail := err.Detail
	if detail == nil {
		detail = map[string]interface{}{}
	}
	JSON(w, err.HTTPStatus, ErrorResponse{
		Success: false,
		Type:    err.Type,
		Code:    err.Code,
		Message: err.Message,
		Detail:  detail,
		Errors:  err.Errors,
	})
}

func Error(w http.ResponseWriter, statusCode int, code, message string) {
	JSON(w, statusCode, ErrorResponse{
		Success: false,
		Type:    apperror.TypeError,
		Code:    code,
		Message: message,
		Detail:  map[string]interface{}{},
	})
}

func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Unauthorized"
	}
	AppError(w, apperror.Unauthorized(message))
}

func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	AppError(w, apperror.NotFound(message))
}

func InternalServerError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal server error"
	}
	Error(w, http.StatusInternalServerError, apperror.CodeInternal, message)
}

func MethodNotAllowed(w http.ResponseWriter) {
	JSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Success: false,
		Type:    apperror.TypeBlock,
		Code:    "METHOD_NOT_ALLOWED",
		Message: "Method not allowed",
		Detail:  map[string]interface{}{},
	})
}

package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/velomart/cart-service/internal/errors"
)

// APIResponse is the envelope every cart endpoint responds with. Handlers
// never let the HTTP framework render its own error page; failures are
// converted into this shape with an appropriate status code.
type APIResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message,omitempty"`
	SessionID string         `json:"sessionId,omitempty"`
	Data      any            `json:"data,omitempty"`
	Error     *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func WriteJson(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	return json.NewEncoder(w).Encode(data)
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	WriteJson(w, statusCode, APIResponse{Success: true, Data: data})
}

func SuccessMessage(w http.ResponseWriter, statusCode int, message string) {
	WriteJson(w, statusCode, APIResponse{Success: true, Message: message})
}

// SuccessWithSession echoes the session id back, matching the add-item
// contract where the client may have just minted the identifier.
func SuccessWithSession(w http.ResponseWriter, statusCode int, sessionID, message string, data any) {
	WriteJson(w, statusCode, APIResponse{
		Success:   true,
		Message:   message,
		SessionID: sessionID,
		Data:      data,
	})
}

func Error(w http.ResponseWriter, err error) {
	var statusCode int

	var errorResponse *ErrorResponse

	if appErr, ok := errors.IsAppError(err); ok {
		statusCode = appErr.StatusCode
		errorResponse = &ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
		}

		if appErr.Detail != "" {
			errorResponse.Details = []string{appErr.Detail}
		}
	} else {
		statusCode = http.StatusInternalServerError
		errorResponse = &ErrorResponse{
			Code:    errors.ErrCodeInternal,
			Message: "An unexpected error occurred",
		}
	}

	WriteJson(w, statusCode, APIResponse{Success: false, Error: errorResponse})
}

// ValidationError translates validator failures into the envelope, one
// human-readable detail per failing field.
func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) {
	var errMsgs []string

	for _, err := range errs {
		var message string

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("Field %s is required", err.Field())
		case "email":
			message = fmt.Sprintf("Field %s must be a valid email address", err.Field())
		case "min":
			message = fmt.Sprintf("Field %s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("Field %s must be at most %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("Field %s must be one of: %s", err.Field(), err.Param())
		default:
			message = fmt.Sprintf("Field %s is invalid: %s=%s", err.Field(), err.Tag(), err.Param())
		}

		errMsgs = append(errMsgs, message)
	}

	errorResponse := &ErrorResponse{
		Code:    errors.ErrCodeValidation,
		Message: "Validation failed",
		Details: errMsgs,
	}

	WriteJson(w, http.StatusBadRequest, APIResponse{Success: false, Error: errorResponse})
}

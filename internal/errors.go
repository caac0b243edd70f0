package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound       ErrorType = "NOT_FOUND"
	ErrorTypeAuthentication ErrorType = "AUTHENTICATION_ERROR"
	ErrorTypeGateway        ErrorType = "GATEWAY_ERROR"
	ErrorTypeIntegrity      ErrorType = "INTEGRITY_ERROR"
	ErrorTypeInternal       ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidEmail     ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidBody      ErrorCode = "INVALID_BODY"

	ErrCodeCampaignNotFound ErrorCode = "CAMPAIGN_NOT_FOUND"
	ErrCodeCampaignInactive ErrorCode = "CAMPAIGN_INACTIVE"
	ErrCodeDonationNotFound ErrorCode = "DONATION_NOT_FOUND"
	ErrCodeOrgNotFound      ErrorCode = "ORGANIZATION_NOT_FOUND"

	ErrCodeGatewayUnavailable ErrorCode = "GATEWAY_UNAVAILABLE"

	ErrCodeMissingSignature ErrorCode = "MISSING_SIGNATURE_HEADERS"
	ErrCodeStaleTimestamp   ErrorCode = "STALE_TIMESTAMP"
	ErrCodeInvalidSignature ErrorCode = "INVALID_SIGNATURE"
	ErrCodeWebhookSecret    ErrorCode = "WEBHOOK_SECRET_NOT_CONFIGURED"
	ErrCodeMalformedPayload ErrorCode = "MALFORMED_PAYLOAD"

	ErrCodeCredentialIntegrity ErrorCode = "CREDENTIAL_INTEGRITY"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
		messages := make([]string, len(validationErrors.Errors))
		for i, err := range validationErrors.Errors {
			messages[i] = err.Message
		}
		return strings.Join(messages, "; ")
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	e.Details = details
	return e
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "Validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewAuthenticationError is used for inbound webhook authentication failures.
func NewAuthenticationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewGatewayError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeGateway,
		Code:       ErrCodeGatewayUnavailable,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Cause:      cause,
	}
}

// NewIntegrityError reports a stored credential that failed authentication on
// decrypt. It is a security incident and is never described to donors.
func NewIntegrityError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeIntegrity,
		Code:       ErrCodeCredentialIntegrity,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       ErrCodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrCampaignNotFound = NewNotFoundError("Campaign not found", ErrCodeCampaignNotFound)
	ErrDonationNotFound = NewNotFoundError("Donation not found", ErrCodeDonationNotFound)
	ErrOrgNotFound      = NewNotFoundError("Organization not found", ErrCodeOrgNotFound)

	ErrMissingSignatureHeaders = NewAuthenticationError("Missing signature headers", ErrCodeMissingSignature)
	ErrStaleTimestamp          = NewAuthenticationError("Timestamp expired or invalid", ErrCodeStaleTimestamp)
	ErrInvalidSignature        = NewAuthenticationError("Invalid signature", ErrCodeInvalidSignature)
	ErrWebhookSecretMissing    = NewAuthenticationError("Webhook secret not configured", ErrCodeWebhookSecret)
)

// IsAppError finds the first AppError in err's chain.
func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err carries an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := IsAppError(err)
	return ok && appErr.Type == t
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

package transport

import (
	"encoding/json"
	stdErrors "errors"
	"io"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	"github.com/frahmantamala/pix-donation/pkg/logger"
)

// MaxBodySize bounds request bodies accepted by JSON endpoints.
const MaxBodySize = 1 << 20

// BaseHandler provides common functionality for HTTP handlers
type BaseHandler struct {
	Logger *slog.Logger
}

// NewBaseHandler creates a base handler with logger
func NewBaseHandler(lg *slog.Logger) *BaseHandler {
	if lg == nil {
		lg = logger.LoggerWrapper()
		if lg == nil {
			lg = slog.Default()
		}
	}
	return &BaseHandler{Logger: lg}
}

// WriteJSON writes a JSON response
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", "error", err)
	}
}

// WriteError writes a generic error envelope for the given status.
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.Logger.Error("http error", "status", status, "message", message)
	appErr := &errors.AppError{
		Type:       errorTypeForStatus(status),
		Code:       errors.ErrCodeInternal,
		Message:    message,
		StatusCode: status,
	}
	h.WriteJSON(w, status, errors.Response{Error: appErr})
}

// HandleServiceError writes err as an error envelope. AppErrors keep their
// status, code and details; causes are logged and never sent. Integrity
// failures and unknown errors become a plain 500.
func (h *BaseHandler) HandleServiceError(w http.ResponseWriter, err error) {
	appErr, ok := errors.IsAppError(err)
	if !ok {
		h.Logger.Error("unhandled service error", "error", err)
		h.writeAppError(w, errors.NewInternalError("Internal server error", nil))
		return
	}

	switch {
	case appErr.Type == errors.ErrorTypeIntegrity:
		h.Logger.Error("credential integrity failure reached transport", "error", err)
		h.writeAppError(w, errors.NewInternalError("Internal server error", nil))
		return
	case appErr.StatusCode >= http.StatusInternalServerError:
		h.Logger.Error("service error", "type", appErr.Type, "code", appErr.Code, "error", err)
	default:
		h.Logger.Warn("request rejected", "type", appErr.Type, "code", appErr.Code, "message", appErr.Message)
	}

	h.writeAppError(w, appErr)
}

func (h *BaseHandler) writeAppError(w http.ResponseWriter, appErr *errors.AppError) {
	status, body := appErr.ToHTTPResponse()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	h.WriteJSON(w, status, body)
}

// DecodeJSON reads a bounded JSON body into dst. Malformed, oversized or
// trailing content is reported as a validation error.
func (h *BaseHandler) DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(w, r.Body, MaxBodySize)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if stdErrors.As(err, &maxErr) {
			return errors.NewValidationError("Request body too large", errors.ErrCodeInvalidBody)
		}
		if stdErrors.Is(err, money.ErrInvalidAmount) {
			return errors.NewValidationFieldError("amount", "amount must be a decimal number with at most two fractional digits", errors.ErrCodeInvalidAmount)
		}
		return errors.NewValidationError("Invalid request body", errors.ErrCodeInvalidBody)
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.NewValidationError("Invalid request body", errors.ErrCodeInvalidBody)
	}
	return nil
}

func errorTypeForStatus(status int) errors.ErrorType {
	switch {
	case status == http.StatusNotFound:
		return errors.ErrorTypeNotFound
	case status == http.StatusUnauthorized:
		return errors.ErrorTypeAuthentication
	case status == http.StatusBadGateway:
		return errors.ErrorTypeGateway
	case status >= 400 && status < 500:
		return errors.ErrorTypeValidation
	default:
		return errors.ErrorTypeInternal
	}
}

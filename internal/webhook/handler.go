package webhook

import (
	"context"
	stdErrors "errors"
	"io"
	"net/http"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/transport"
)

type VerifierAPI interface {
	Verify(ctx context.Context, rawBody []byte, signatureHeader, timestampHeader string) (*VerifiedEvent, error)
}

type ProcessorAPI interface {
	Process(ctx context.Context, ev *VerifiedEvent) (Outcome, error)
}

type Handler struct {
	*transport.BaseHandler
	Verifier  VerifierAPI
	Processor ProcessorAPI
}

func NewHandler(baseHandler *transport.BaseHandler, verifier VerifierAPI, processor ProcessorAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Verifier:    verifier,
		Processor:   processor,
	}
}

type StatusResponse struct {
	Status Outcome `json:"status"`
}

// ReceivePagou handles gateway callbacks. A 5xx answer asks the gateway to
// retry; everything else is final.
func (h *Handler) ReceivePagou(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, transport.MaxBodySize))
	if err != nil {
		h.Logger.Warn("ReceivePagou: unreadable body", "error", err)
		h.HandleServiceError(w, errors.NewValidationError("Invalid request body", errors.ErrCodeInvalidBody))
		return
	}

	ev, err := h.Verifier.Verify(r.Context(), rawBody, r.Header.Get(SignatureHeader), r.Header.Get(TimestampHeader))
	if stdErrors.Is(err, ErrUnknownTransaction) {
		h.WriteJSON(w, http.StatusOK, StatusResponse{Status: OutcomeIgnoredUnknown})
		return
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	outcome, err := h.Processor.Process(r.Context(), ev)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, StatusResponse{Status: outcome})
}

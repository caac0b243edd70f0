package donation

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/pix-donation/internal/transport"
)

type ServiceAPI interface {
	CreateDonation(ctx context.Context, dto *CreateDonationDTO) (*DonationView, error)
	GetDonation(ctx context.Context, id string) (*DonationView, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(baseHandler *transport.BaseHandler, service ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: baseHandler,
		Service:     service,
	}
}

func (h *Handler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var dto CreateDonationDTO
	if err := h.DecodeJSON(w, r, &dto); err != nil {
		h.Logger.Warn("CreateDonation: invalid request body", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	view, err := h.Service.CreateDonation(r.Context(), &dto)
	if err != nil {
		h.Logger.Error("CreateDonation: service error", "error", err, "campaign_id", dto.CampaignID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, view)
}

func (h *Handler) GetDonation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.Service.GetDonation(r.Context(), id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, view)
}

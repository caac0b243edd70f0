package campaign

import (
	"context"
	"fmt"
	"log/slog"

	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	"github.com/frahmantamala/pix-donation/internal/core/events"
)

// TotalsHandler keeps campaign current_amount in step with settled donations.
type TotalsHandler struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewTotalsHandler(repo RepositoryAPI, logger *slog.Logger) *TotalsHandler {
	return &TotalsHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *TotalsHandler) HandleDonationCompleted(ctx context.Context, event events.Event) error {
	settled, ok := event.(*events.DonationSettledEvent)
	if !ok {
		h.logger.Error("invalid event type for donation completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected DonationSettledEvent, got %T", event)
	}

	if err := h.repo.AdjustCurrentAmount(ctx, settled.CampaignID, settled.Amount); err != nil {
		return fmt.Errorf("increment campaign %s total: %w", settled.CampaignID, err)
	}

	h.logger.Info("campaign total incremented",
		"campaign_id", settled.CampaignID,
		"donation_id", settled.DonationID,
		"amount", settled.Amount)
	return nil
}

// HandleDonationRefunded only subtracts donations that had been counted.
func (h *TotalsHandler) HandleDonationRefunded(ctx context.Context, event events.Event) error {
	settled, ok := event.(*events.DonationSettledEvent)
	if !ok {
		h.logger.Error("invalid event type for donation refunded handler", "event_type", event.EventType())
		return fmt.Errorf("expected DonationSettledEvent, got %T", event)
	}

	if settled.PreviousStatus != donationDatamodel.StatusCompleted {
		h.logger.Debug("refund of uncounted donation, total unchanged",
			"donation_id", settled.DonationID,
			"previous_status", settled.PreviousStatus)
		return nil
	}

	if err := h.repo.AdjustCurrentAmount(ctx, settled.CampaignID, -settled.Amount); err != nil {
		return fmt.Errorf("decrement campaign %s total: %w", settled.CampaignID, err)
	}

	h.logger.Info("campaign total decremented",
		"campaign_id", settled.CampaignID,
		"donation_id", settled.DonationID,
		"amount", settled.Amount)
	return nil
}

func (h *TotalsHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypeDonationCompleted, h.HandleDonationCompleted)
	eventBus.Subscribe(events.EventTypeDonationRefunded, h.HandleDonationRefunded)

	h.logger.Info("campaign event handlers registered",
		"handlers", []string{events.EventTypeDonationCompleted, events.EventTypeDonationRefunded})
}

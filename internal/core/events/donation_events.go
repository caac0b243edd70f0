package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeDonationCompleted = "donation.completed"
	EventTypeDonationRefunded  = "donation.refunded"
)

// DonationSettledEvent is published after a webhook transition commits.
// PreviousStatus lets subscribers tell a refund of a paid donation from a
// refund of one that never completed.
type DonationSettledEvent struct {
	BaseEvent
	DonationID     string `json:"donation_id"`
	CampaignID     string `json:"campaign_id"`
	Amount         int64  `json:"amount"`
	PreviousStatus string `json:"previous_status"`
	GatewayTxID    string `json:"gateway_tx_id"`
}

func NewDonationCompletedEvent(donationID, campaignID, txID string, amount int64, previousStatus string) *DonationSettledEvent {
	return newDonationSettledEvent(EventTypeDonationCompleted, donationID, campaignID, txID, amount, previousStatus)
}

func NewDonationRefundedEvent(donationID, campaignID, txID string, amount int64, previousStatus string) *DonationSettledEvent {
	return newDonationSettledEvent(EventTypeDonationRefunded, donationID, campaignID, txID, amount, previousStatus)
}

func newDonationSettledEvent(eventType, donationID, campaignID, txID string, amount int64, previousStatus string) *DonationSettledEvent {
	return &DonationSettledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"donation_id":     donationID,
				"campaign_id":     campaignID,
				"amount":          amount,
				"previous_status": previousStatus,
				"gateway_tx_id":   txID,
			},
		},
		DonationID:     donationID,
		CampaignID:     campaignID,
		Amount:         amount,
		PreviousStatus: previousStatus,
		GatewayTxID:    txID,
	}
}

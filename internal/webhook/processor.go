package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	errors "github.com/frahmantamala/pix-donation/internal"
	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	"github.com/frahmantamala/pix-donation/internal/core/datamodel/webhooklog"
	"github.com/frahmantamala/pix-donation/internal/core/events"
)

type Publisher interface {
	Publish(ctx context.Context, event events.Event)
}

type Processor struct {
	repo      RepositoryAPI
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewProcessor(repo RepositoryAPI, publisher Publisher, logger *slog.Logger) *Processor {
	return &Processor{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source; used by tests.
func (p *Processor) WithClock(now func() time.Time) *Processor {
	p.now = now
	return p
}

// Process applies a verified callback at most once. The log row and the
// donation transition commit together; domain events go out only after
// the commit succeeds.
func (p *Processor) Process(ctx context.Context, ev *VerifiedEvent) (Outcome, error) {
	key := ev.IdempotencyKey()
	headers, err := json.Marshal(map[string]string{
		"signature": ev.Signature,
		"timestamp": ev.Timestamp,
	})
	if err != nil {
		return "", errors.NewInternalError("Failed to process webhook", err)
	}

	outcome := OutcomeApplied
	var settled events.Event

	err = p.repo.WithinTransaction(ctx, func(tx TxRepository) error {
		entry := &webhooklog.WebhookLog{
			IdempotencyKey: key,
			OrganizationID: ev.OrganizationID,
			Event:          ev.Event,
			GatewayTxID:    ev.TxID,
			Payload:        datatypes.JSON(ev.RawBody),
			Headers:        datatypes.JSON(headers),
			SignatureValid: true,
		}
		if err := tx.InsertLogIfAbsent(entry); err != nil {
			return err
		}

		logged, err := tx.LockLog(key)
		if err != nil {
			return err
		}
		if logged.Processed {
			outcome = OutcomeAlreadyProcessed
			return nil
		}

		now := p.now().UTC()
		if err := tx.MarkLogProcessed(logged.ID, now); err != nil {
			return err
		}

		settled, err = p.apply(tx, ev, now)
		return err
	})
	if err != nil {
		p.logger.Error("webhook processing failed, transaction rolled back",
			"idempotency_key", key,
			"donation_id", ev.DonationID,
			"error", err)
		return "", errors.NewInternalError("Failed to process webhook", err)
	}

	if outcome == OutcomeAlreadyProcessed {
		p.logger.Info("webhook already processed", "idempotency_key", key)
		return outcome, nil
	}

	if settled != nil {
		p.publisher.Publish(ctx, settled)
	}

	p.logger.Info("webhook processed",
		"idempotency_key", key,
		"event", ev.Event,
		"donation_id", ev.DonationID)
	return outcome, nil
}

func (p *Processor) apply(tx TxRepository, ev *VerifiedEvent, now time.Time) (events.Event, error) {
	switch ev.Event {
	case EventCompleted:
		d, err := tx.LockDonation(ev.DonationID)
		if err != nil {
			return nil, err
		}
		// Only a pending donation can complete; a late completed callback
		// must not undo a refund.
		if d.Status != donationDatamodel.StatusPending {
			p.logger.Warn("completed event ignored for non-pending donation",
				"donation_id", d.ID,
				"status", d.Status)
			return nil, nil
		}
		paidAt := now
		if ev.PaidAt != nil {
			paidAt = ev.PaidAt.UTC()
		}
		if err := tx.MarkDonationCompleted(d.ID, paidAt); err != nil {
			return nil, err
		}
		return events.NewDonationCompletedEvent(d.ID, d.CampaignID, ev.TxID, d.Amount.Int64(), d.Status), nil

	case EventRefunded:
		d, err := tx.LockDonation(ev.DonationID)
		if err != nil {
			return nil, err
		}
		refundedAt := now
		if ev.RefundedAt != nil {
			refundedAt = ev.RefundedAt.UTC()
		}
		if err := tx.MarkDonationRefunded(d.ID, refundedAt); err != nil {
			return nil, err
		}
		return events.NewDonationRefundedEvent(d.ID, d.CampaignID, ev.TxID, d.Amount.Int64(), d.Status), nil

	default:
		p.logger.Info("webhook event recorded without state change",
			"event", ev.Event,
			"donation_id", ev.DonationID)
		return nil, nil
	}
}

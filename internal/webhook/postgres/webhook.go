package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	"github.com/frahmantamala/pix-donation/internal/core/datamodel/webhooklog"
	"github.com/frahmantamala/pix-donation/internal/webhook"
)

type WebhookRepository struct {
	db *gorm.DB
}

func NewWebhookRepository(db *gorm.DB) webhook.RepositoryAPI {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) FindDonationByTxID(ctx context.Context, txID string) (*donationDatamodel.Donation, error) {
	var d donationDatamodel.Donation
	err := r.db.WithContext(ctx).
		Preload("Campaign.Organization").
		Where("gateway_tx_id = ?", txID).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *WebhookRepository) WithinTransaction(ctx context.Context, fn func(tx webhook.TxRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepository{tx: tx})
	})
}

type txRepository struct {
	tx *gorm.DB
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports it.
func (r *txRepository) forUpdate() *gorm.DB {
	if r.tx.Dialector.Name() == "postgres" {
		return r.tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.tx
}

func (r *txRepository) InsertLogIfAbsent(entry *webhooklog.WebhookLog) error {
	return r.tx.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "idempotency_key"}},
			DoNothing: true,
		}).
		Create(entry).Error
}

func (r *txRepository) LockLog(idempotencyKey string) (*webhooklog.WebhookLog, error) {
	var entry webhooklog.WebhookLog
	err := r.forUpdate().Where("idempotency_key = ?", idempotencyKey).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *txRepository) MarkLogProcessed(id int64, at time.Time) error {
	return r.tx.Model(&webhooklog.WebhookLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"processed":    true,
			"processed_at": at,
		}).Error
}

func (r *txRepository) LockDonation(id string) (*donationDatamodel.Donation, error) {
	var d donationDatamodel.Donation
	err := r.forUpdate().Where("id = ?", id).First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *txRepository) MarkDonationCompleted(id string, paidAt time.Time) error {
	return r.tx.Model(&donationDatamodel.Donation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  donationDatamodel.StatusCompleted,
			"paid_at": paidAt,
		}).Error
}

// MarkDonationRefunded leaves paid_at as it was.
func (r *txRepository) MarkDonationRefunded(id string, refundedAt time.Time) error {
	return r.tx.Model(&donationDatamodel.Donation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      donationDatamodel.StatusRefunded,
			"refunded_at": refundedAt,
		}).Error
}

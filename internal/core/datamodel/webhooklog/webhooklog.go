package webhooklog

import (
	"time"

	"gorm.io/datatypes"
)

// WebhookLog is the durable de-duplication ledger for gateway callbacks.
// One row exists per (event, txid) through IdempotencyKey.
type WebhookLog struct {
	ID             int64          `gorm:"primaryKey"`
	IdempotencyKey string         `gorm:"column:idempotency_key;not null;uniqueIndex"`
	OrganizationID string         `gorm:"column:organization_id;not null;index"`
	Event          string         `gorm:"column:event;type:text;not null"`
	GatewayTxID    string         `gorm:"column:gateway_tx_id;not null"`
	Payload        datatypes.JSON `gorm:"column:payload"`
	Headers        datatypes.JSON `gorm:"column:headers"`
	SignatureValid bool           `gorm:"column:signature_valid;not null;default:false"`
	Processed      bool           `gorm:"column:processed;not null;default:false"`
	ProcessedAt    *time.Time     `gorm:"column:processed_at"`
	CreatedAt      time.Time      `gorm:"column:created_at"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}

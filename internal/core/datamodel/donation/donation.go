package donation

import (
	"time"

	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	"github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
)

const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusRefunded  = "REFUNDED"
)

// Donation is the payment state machine. GatewayTxID is unique and, once
// set, never changes.
type Donation struct {
	ID               string             `gorm:"primaryKey;type:varchar(36)"`
	CampaignID       string             `gorm:"column:campaign_id;not null;index"`
	Campaign         *campaign.Campaign `gorm:"foreignKey:CampaignID"`
	DonorName        string             `gorm:"column:donor_name;not null"`
	DonorEmail       string             `gorm:"column:donor_email;not null"`
	DonorDocument    *string            `gorm:"column:donor_document"`
	DonorPhone       *string            `gorm:"column:donor_phone"`
	IsAnonymous      bool               `gorm:"column:is_anonymous;not null;default:false"`
	Amount           money.Cents        `gorm:"column:amount;not null"`
	IdempotencyKey   string             `gorm:"column:idempotency_key;not null;uniqueIndex"`
	GatewayTxID      *string            `gorm:"column:gateway_tx_id;uniqueIndex"`
	GatewayQRCode    *string            `gorm:"column:gateway_qr_code"`
	GatewayEMV       *string            `gorm:"column:gateway_emv"`
	GatewayExpiresAt *time.Time         `gorm:"column:gateway_expires_at"`
	IsMock           bool               `gorm:"column:is_mock;not null;default:false"`
	Status           string             `gorm:"column:status;not null;default:PENDING;index"`
	PaidAt           *time.Time         `gorm:"column:paid_at"`
	RefundedAt       *time.Time         `gorm:"column:refunded_at"`
	CreatedAt        time.Time          `gorm:"column:created_at"`
	UpdatedAt        time.Time          `gorm:"column:updated_at"`
}

func (Donation) TableName() string {
	return "donations"
}

// HasCharge reports whether a gateway charge has been attached.
func (d *Donation) HasCharge() bool {
	return d.GatewayTxID != nil && *d.GatewayTxID != ""
}

package campaign

import (
	"time"

	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	"github.com/frahmantamala/pix-donation/internal/core/datamodel/organization"
)

const (
	StatusDraft     = "DRAFT"
	StatusActive    = "ACTIVE"
	StatusPaused    = "PAUSED"
	StatusCompleted = "COMPLETED"
	StatusCancelled = "CANCELLED"
)

type Campaign struct {
	ID             string                     `gorm:"primaryKey;type:varchar(36)"`
	OrganizationID string                     `gorm:"column:organization_id;not null;uniqueIndex:idx_campaigns_org_slug,priority:1"`
	Organization   *organization.Organization `gorm:"foreignKey:OrganizationID"`
	Title          string                     `gorm:"column:title;not null"`
	Slug           string                     `gorm:"column:slug;not null;uniqueIndex:idx_campaigns_org_slug,priority:2"`
	Status         string                     `gorm:"column:status;not null;default:DRAFT"`
	GoalAmount     money.Cents                `gorm:"column:goal_amount;not null;default:0"`
	CurrentAmount  money.Cents                `gorm:"column:current_amount;not null;default:0"`
	CreatedAt      time.Time                  `gorm:"column:created_at"`
	UpdatedAt      time.Time                  `gorm:"column:updated_at"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

func (c *Campaign) IsActive() bool {
	return c.Status == StatusActive
}

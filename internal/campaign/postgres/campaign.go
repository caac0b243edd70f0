package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/pix-donation/internal/campaign"
	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
)

type CampaignRepository struct {
	db *gorm.DB
}

func NewCampaignRepository(db *gorm.DB) campaign.RepositoryAPI {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) GetByIDWithOrganization(ctx context.Context, id string) (*campaignDatamodel.Campaign, error) {
	var c campaignDatamodel.Campaign
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(ctx context.Context, c *campaignDatamodel.Campaign) error {
	return r.db.WithContext(ctx).Create(c).Error
}

// AdjustCurrentAmount applies delta in SQL so concurrent settlements do not
// overwrite each other.
func (r *CampaignRepository) AdjustCurrentAmount(ctx context.Context, id string, delta int64) error {
	result := r.db.WithContext(ctx).
		Model(&campaignDatamodel.Campaign{}).
		Where("id = ?", id).
		Update("current_amount", gorm.Expr("current_amount + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

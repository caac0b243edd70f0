package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	orgDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/organization"
	"github.com/frahmantamala/pix-donation/internal/organization"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) organization.RepositoryAPI {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*orgDatamodel.Organization, error) {
	var org orgDatamodel.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) GetBySlug(ctx context.Context, slug string) (*orgDatamodel.Organization, error) {
	var org orgDatamodel.Organization
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, org *orgDatamodel.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *OrganizationRepository) UpdateGatewayCredentials(ctx context.Context, id string, apiKey, packedSecret, webhookSecret string) error {
	result := r.db.WithContext(ctx).
		Model(&orgDatamodel.Organization{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"gateway_api_key":        apiKey,
			"gateway_secret_key":     packedSecret,
			"gateway_webhook_secret": webhookSecret,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

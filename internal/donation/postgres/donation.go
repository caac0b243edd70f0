package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	gatewaytypes "github.com/frahmantamala/pix-donation/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/pix-donation/internal/donation"
)

type DonationRepository struct {
	db *gorm.DB
}

func NewDonationRepository(db *gorm.DB) donation.RepositoryAPI {
	return &DonationRepository{db: db}
}

func (r *DonationRepository) Create(ctx context.Context, d *donationDatamodel.Donation) error {
	return r.db.WithContext(ctx).Omit("Campaign").Create(d).Error
}

func (r *DonationRepository) AttachCharge(ctx context.Context, id string, charge *gatewaytypes.Charge) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&donationDatamodel.Donation{}).
		Where("id = ? AND gateway_tx_id IS NULL", id).
		Updates(map[string]interface{}{
			"gateway_tx_id":      charge.TransactionID,
			"gateway_qr_code":    charge.QRCode,
			"gateway_emv":        charge.CopyPasteCode,
			"gateway_expires_at": charge.ExpiresAt,
			"is_mock":            charge.Mock,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *DonationRepository) GetByID(ctx context.Context, id string) (*donationDatamodel.Donation, error) {
	var d donationDatamodel.Donation
	err := r.db.WithContext(ctx).
		Preload("Campaign").
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

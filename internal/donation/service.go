package donation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	orgDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/organization"
	gatewaytypes "github.com/frahmantamala/pix-donation/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/pix-donation/internal/paymentgateway"
)

type Config struct {
	// NotificationURL is the absolute webhook URL sent with each charge.
	NotificationURL string
	// AllowInactiveCampaigns lets non-ACTIVE campaigns take donations in
	// staging environments.
	AllowInactiveCampaigns bool
}

type Service struct {
	repo      RepositoryAPI
	campaigns CampaignLookup
	gateway   Gateway
	secrets   SecretOpener
	config    Config
	logger    *slog.Logger

	now        func() time.Time
	mockCharge func(amount money.Cents, now time.Time) *gatewaytypes.Charge
}

func NewService(repo RepositoryAPI, campaigns CampaignLookup, gateway Gateway, secrets SecretOpener, config Config, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		campaigns:  campaigns,
		gateway:    gateway,
		secrets:    secrets,
		config:     config,
		logger:     logger,
		now:        time.Now,
		mockCharge: paymentgateway.MockCharge,
	}
}

// WithClock replaces the time source; used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateDonation records a PENDING donation and attaches a Pix charge to it.
// The row is written before the gateway is called so every charge has a
// local reference; when the gateway fails the row stays PENDING without a
// transaction id.
func (s *Service) CreateDonation(ctx context.Context, dto *CreateDonationDTO) (*DonationView, error) {
	log := s.logger
	if requestID := errors.RequestIDFromContext(ctx); requestID != "" {
		log = log.With("request_id", requestID)
	}

	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	c, err := s.campaigns.GetForDonation(ctx, dto.CampaignID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() && !s.config.AllowInactiveCampaigns {
		return nil, errors.NewValidationFieldError("campaignId", "Campaign is not active", errors.ErrCodeCampaignInactive)
	}

	d := &donationDatamodel.Donation{
		ID:             uuid.NewString(),
		CampaignID:     c.ID,
		DonorName:      dto.DonorName,
		DonorEmail:     dto.DonorEmail,
		DonorDocument:  dto.DonorDocument,
		DonorPhone:     dto.DonorPhone,
		IsAnonymous:    dto.IsAnonymous,
		Amount:         dto.Amount,
		IdempotencyKey: uuid.NewString(),
		Status:         donationDatamodel.StatusPending,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		log.Error("failed to persist donation", "campaign_id", c.ID, "error", err)
		return nil, errors.NewInternalError("Failed to create donation", err)
	}

	charge, err := s.issueCharge(ctx, log, c, d)
	if err != nil {
		return nil, err
	}

	attached, err := s.repo.AttachCharge(ctx, d.ID, charge)
	if err != nil {
		log.Error("failed to attach charge to donation",
			"donation_id", d.ID,
			"gateway_tx_id", charge.TransactionID,
			"error", err)
		return nil, errors.NewInternalError("Failed to create donation", err)
	}
	if !attached {
		log.Error("donation already had a charge attached", "donation_id", d.ID)
		return nil, errors.NewInternalError("Failed to create donation", nil)
	}

	txID := charge.TransactionID
	expiresAt := charge.ExpiresAt
	d.GatewayTxID = &txID
	d.GatewayQRCode = &charge.QRCode
	d.GatewayEMV = &charge.CopyPasteCode
	d.GatewayExpiresAt = &expiresAt
	d.IsMock = charge.Mock
	d.Campaign = c

	log.Info("donation created",
		"donation_id", d.ID,
		"campaign_id", c.ID,
		"amount", d.Amount.String(),
		"gateway_tx_id", txID,
		"mock", charge.Mock)

	return ToView(d), nil
}

func (s *Service) issueCharge(ctx context.Context, log *slog.Logger, c *campaignDatamodel.Campaign, d *donationDatamodel.Donation) (*gatewaytypes.Charge, error) {
	org := c.Organization
	if !org.HasGatewayCredentials() {
		log.Warn("organization has no gateway credentials, issuing mock charge",
			"organization_id", org.ID,
			"donation_id", d.ID)
		return s.mockCharge(d.Amount, s.now()), nil
	}

	req := &gatewaytypes.ChargeRequest{
		Amount:          d.Amount,
		ReferenceID:     d.ID,
		NotificationURL: s.config.NotificationURL,
		Payer: gatewaytypes.Payer{
			Name:     d.DonorName,
			Email:    d.DonorEmail,
			Document: d.DonorDocument,
		},
	}

	var charge *gatewaytypes.Charge
	err := s.secrets.WithDecrypted(*org.GatewaySecretKey, func(secret string) error {
		var chargeErr error
		charge, chargeErr = s.gateway.CreateCharge(ctx, gatewaytypes.Credentials{
			APIKey:    *org.GatewayAPIKey,
			SecretKey: secret,
		}, req)
		return chargeErr
	})
	if err == nil {
		return charge, nil
	}

	return nil, s.chargeFailure(log, org, d, err)
}

func (s *Service) chargeFailure(log *slog.Logger, org *orgDatamodel.Organization, d *donationDatamodel.Donation, err error) error {
	if errors.IsType(err, errors.ErrorTypeIntegrity) {
		log.Error("SECURITY: stored gateway secret key failed integrity check",
			"organization_id", org.ID,
			"donation_id", d.ID,
			"error", err)
		return errors.NewGatewayError("Payment gateway unavailable", nil)
	}

	log.Error("gateway charge failed, donation left pending",
		"organization_id", org.ID,
		"donation_id", d.ID,
		"error", err)

	if errors.IsType(err, errors.ErrorTypeGateway) {
		return err
	}
	return errors.NewGatewayError("Payment gateway unavailable", err)
}

// GetDonation returns the current view of a donation for status polling.
func (s *Service) GetDonation(ctx context.Context, id string) (*DonationView, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.ErrDonationNotFound
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load donation", "donation_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to load donation", err)
	}
	if d == nil {
		return nil, errors.ErrDonationNotFound
	}
	return ToView(d), nil
}

package campaign

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	"github.com/frahmantamala/pix-donation/internal/core/common/validation"
	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// GetForDonation returns the campaign with its organization preloaded. The
// caller decides whether the campaign status allows a new donation.
func (s *Service) GetForDonation(ctx context.Context, id string) (*campaignDatamodel.Campaign, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.ErrCampaignNotFound
	}

	c, err := s.repo.GetByIDWithOrganization(ctx, id)
	if err != nil {
		s.logger.Error("failed to load campaign", "campaign_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to load campaign", err)
	}
	if c == nil || c.Organization == nil {
		return nil, errors.ErrCampaignNotFound
	}
	return c, nil
}

type CreateCampaignDTO struct {
	OrganizationID string
	Title          string
	Slug           string
	Status         string
	GoalAmount     money.Cents
}

func (s *Service) Create(ctx context.Context, dto CreateCampaignDTO) (*campaignDatamodel.Campaign, error) {
	v := validation.NewValidator()
	v.Field("organizationId", dto.OrganizationID).Required()
	v.Field("title", dto.Title).Required().MaxLength(255)
	v.Field("slug", dto.Slug).Required().MaxLength(255)
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	status := dto.Status
	if status == "" {
		status = campaignDatamodel.StatusDraft
	}

	c := &campaignDatamodel.Campaign{
		ID:             uuid.NewString(),
		OrganizationID: dto.OrganizationID,
		Title:          dto.Title,
		Slug:           dto.Slug,
		Status:         status,
		GoalAmount:     dto.GoalAmount,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create campaign", "slug", dto.Slug, "error", err)
		return nil, errors.NewInternalError("Failed to create campaign", err)
	}

	s.logger.Info("campaign created", "campaign_id", c.ID, "organization_id", c.OrganizationID, "status", c.Status)
	return c, nil
}

package organization

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/core/common/validation"
	orgDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/organization"
)

type Service struct {
	repo   RepositoryAPI
	vault  Encrypter
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, vault Encrypter, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		vault:  vault,
		logger: logger,
	}
}

func (s *Service) GetByID(ctx context.Context, id string) (*orgDatamodel.Organization, error) {
	org, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to load organization", "organization_id", id, "error", err)
		return nil, errors.NewInternalError("Failed to load organization", err)
	}
	if org == nil {
		return nil, errors.ErrOrgNotFound
	}
	return org, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*orgDatamodel.Organization, error) {
	org, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		s.logger.Error("failed to load organization", "slug", slug, "error", err)
		return nil, errors.NewInternalError("Failed to load organization", err)
	}
	if org == nil {
		return nil, errors.ErrOrgNotFound
	}
	return org, nil
}

// Create registers an organization without gateway credentials; charges for
// its campaigns run in mock mode until SetGatewayCredentials is called.
func (s *Service) Create(ctx context.Context, name, slug, email string) (*orgDatamodel.Organization, error) {
	v := validation.NewValidator()
	v.Field("name", name).Required().MaxLength(255)
	v.Field("slug", slug).Required().MaxLength(255)
	v.Field("email", email).Email()
	if appErr := v.Validate(); appErr != nil {
		return nil, appErr
	}

	org := &orgDatamodel.Organization{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Slug:  strings.TrimSpace(slug),
		Email: email,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		s.logger.Error("failed to create organization", "slug", slug, "error", err)
		return nil, errors.NewInternalError("Failed to create organization", err)
	}

	s.logger.Info("organization created", "organization_id", org.ID, "slug", org.Slug)
	return org, nil
}

// SetGatewayCredentials stores the Pagou keys for an organization. The secret
// key is sealed by the vault; the API key and webhook secret are stored as given.
func (s *Service) SetGatewayCredentials(ctx context.Context, orgID string, creds GatewayCredentialsDTO) error {
	v := validation.NewValidator()
	v.Field("apiKey", creds.APIKey).Required()
	v.Field("secretKey", creds.SecretKey).Required()
	v.Field("webhookSecret", creds.WebhookSecret).Required()
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}

	if _, err := s.GetByID(ctx, orgID); err != nil {
		return err
	}

	packed, err := s.vault.Encrypt(creds.SecretKey)
	if err != nil {
		s.logger.Error("failed to encrypt gateway secret key", "organization_id", orgID, "error", err)
		return errors.NewInternalError("Failed to store gateway credentials", err)
	}

	if err := s.repo.UpdateGatewayCredentials(ctx, orgID, creds.APIKey, packed, creds.WebhookSecret); err != nil {
		s.logger.Error("failed to store gateway credentials", "organization_id", orgID, "error", err)
		return errors.NewInternalError("Failed to store gateway credentials", err)
	}

	s.logger.Info("gateway credentials updated", "organization_id", orgID)
	return nil
}

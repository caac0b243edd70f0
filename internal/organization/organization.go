package organization

import (
	"context"

	orgDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/organization"
)

type RepositoryAPI interface {
	GetByID(ctx context.Context, id string) (*orgDatamodel.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*orgDatamodel.Organization, error)
	Create(ctx context.Context, org *orgDatamodel.Organization) error
	UpdateGatewayCredentials(ctx context.Context, id string, apiKey, packedSecret, webhookSecret string) error
}

// Encrypter seals a plaintext secret into its stored form.
type Encrypter interface {
	Encrypt(plaintext string) (string, error)
}

type GatewayCredentialsDTO struct {
	APIKey        string
	SecretKey     string
	WebhookSecret string
}

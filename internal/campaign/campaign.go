package campaign

import (
	"context"

	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
)

type RepositoryAPI interface {
	// GetByIDWithOrganization loads the campaign and its owning organization
	// in one round trip; nil, nil when the campaign does not exist.
	GetByIDWithOrganization(ctx context.Context, id string) (*campaignDatamodel.Campaign, error)
	Create(ctx context.Context, c *campaignDatamodel.Campaign) error
	AdjustCurrentAmount(ctx context.Context, id string, delta int64) error
}

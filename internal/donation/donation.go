package donation

import (
	"context"
	"time"

	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	gatewaytypes "github.com/frahmantamala/pix-donation/internal/core/datamodel/paymentgateway"
)

const (
	AnonymousDisplayName = "Anônimo"
	MockWarning          = "MOCK MODE - Configure keys in Organization"
)

type RepositoryAPI interface {
	Create(ctx context.Context, d *donationDatamodel.Donation) error
	// AttachCharge stores the charge only while gateway_tx_id is still NULL
	// and reports whether a row was updated.
	AttachCharge(ctx context.Context, id string, charge *gatewaytypes.Charge) (bool, error)
	GetByID(ctx context.Context, id string) (*donationDatamodel.Donation, error)
}

type CampaignLookup interface {
	GetForDonation(ctx context.Context, id string) (*campaignDatamodel.Campaign, error)
}

type Gateway interface {
	CreateCharge(ctx context.Context, creds gatewaytypes.Credentials, req *gatewaytypes.ChargeRequest) (*gatewaytypes.Charge, error)
}

// SecretOpener exposes a decrypted secret only for the duration of fn.
type SecretOpener interface {
	WithDecrypted(packed string, fn func(secret string) error) error
}

type PixView struct {
	QRCode        string    `json:"qrCode"`
	CopyPasteCode string    `json:"copyPasteCode"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type DonationView struct {
	ID            string      `json:"id"`
	CampaignID    string      `json:"campaignId"`
	CampaignTitle string      `json:"campaignTitle,omitempty"`
	DonorName     string      `json:"donorName"`
	Status        string      `json:"status"`
	Amount        money.Cents `json:"amount"`
	Pix           *PixView    `json:"pix,omitempty"`
	PaidAt        *time.Time  `json:"paidAt,omitempty"`
	Warning       string      `json:"warning,omitempty"`
}

// DisplayName hides the donor behind a fixed label when they asked to
// stay anonymous.
func DisplayName(d *donationDatamodel.Donation) string {
	if d.IsAnonymous {
		return AnonymousDisplayName
	}
	return d.DonorName
}

func ToView(d *donationDatamodel.Donation) *DonationView {
	view := &DonationView{
		ID:         d.ID,
		CampaignID: d.CampaignID,
		DonorName:  DisplayName(d),
		Status:     d.Status,
		Amount:     d.Amount,
		PaidAt:     d.PaidAt,
	}
	if d.Campaign != nil {
		view.CampaignTitle = d.Campaign.Title
	}
	if d.HasCharge() {
		pix := &PixView{}
		if d.GatewayQRCode != nil {
			pix.QRCode = *d.GatewayQRCode
		}
		if d.GatewayEMV != nil {
			pix.CopyPasteCode = *d.GatewayEMV
		}
		if d.GatewayExpiresAt != nil {
			pix.ExpiresAt = d.GatewayExpiresAt.UTC()
		}
		view.Pix = pix
	}
	if d.IsMock {
		view.Warning = MockWarning
	}
	return view
}

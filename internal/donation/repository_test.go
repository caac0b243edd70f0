package donation_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/campaign"
	campaignPostgres "github.com/frahmantamala/pix-donation/internal/campaign/postgres"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	gatewaytypes "github.com/frahmantamala/pix-donation/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/pix-donation/internal/donation"
)

// staleAttach behaves as if another writer attached a charge first.
type staleAttach struct {
	donation.RepositoryAPI
}

func (staleAttach) AttachCharge(context.Context, string, *gatewaytypes.Charge) (bool, error) {
	return false, nil
}

var _ = Describe("Donation Repository", func() {
	var (
		f *fixture
		d *donationDatamodel.Donation
	)

	BeforeEach(func() {
		f = newFixture(donation.Config{})
		d = &donationDatamodel.Donation{
			ID:             uuid.NewString(),
			CampaignID:     f.campaign.ID,
			DonorName:      "Maria Silva",
			DonorEmail:     "maria@example.com",
			Amount:         money.Cents(2500),
			IdempotencyKey: uuid.NewString(),
			Status:         donationDatamodel.StatusPending,
		}
		Expect(f.repo.Create(f.ctx, d)).To(Succeed())
	})

	Describe("AttachCharge", func() {
		first := &gatewaytypes.Charge{
			TransactionID: "pagou_tx_first",
			QRCode:        "data:image/png;base64,FIRST",
			CopyPasteCode: "emv-first",
			ExpiresAt:     time.Date(2025, 6, 1, 16, 0, 0, 0, time.UTC),
		}
		second := &gatewaytypes.Charge{
			TransactionID: "pagou_tx_second",
			QRCode:        "data:image/png;base64,SECOND",
			CopyPasteCode: "emv-second",
			ExpiresAt:     time.Date(2025, 6, 1, 17, 0, 0, 0, time.UTC),
			Mock:          true,
		}

		It("attaches a charge to a donation without one", func() {
			attached, err := f.repo.AttachCharge(f.ctx, d.ID, first)
			Expect(err).NotTo(HaveOccurred())
			Expect(attached).To(BeTrue())

			stored, err := f.repo.GetByID(f.ctx, d.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.GatewayTxID).To(Equal("pagou_tx_first"))
		})

		It("never replaces a charge once attached", func() {
			attached, err := f.repo.AttachCharge(f.ctx, d.ID, first)
			Expect(err).NotTo(HaveOccurred())
			Expect(attached).To(BeTrue())

			attached, err = f.repo.AttachCharge(f.ctx, d.ID, second)
			Expect(err).NotTo(HaveOccurred())
			Expect(attached).To(BeFalse())

			stored, err := f.repo.GetByID(f.ctx, d.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*stored.GatewayTxID).To(Equal("pagou_tx_first"))
			Expect(*stored.GatewayQRCode).To(Equal("data:image/png;base64,FIRST"))
			Expect(*stored.GatewayEMV).To(Equal("emv-first"))
			Expect(*stored.GatewayExpiresAt).To(BeTemporally("==", first.ExpiresAt))
			Expect(stored.IsMock).To(BeFalse())
		})

		It("reports false for an unknown donation", func() {
			attached, err := f.repo.AttachCharge(f.ctx, uuid.NewString(), first)
			Expect(err).NotTo(HaveOccurred())
			Expect(attached).To(BeFalse())
		})
	})

	Describe("CreateDonation when the charge cannot be attached", func() {
		It("fails without exposing a charge", func() {
			campaigns := campaign.NewService(campaignPostgres.NewCampaignRepository(f.db), quietLogger())
			service := donation.NewService(staleAttach{f.repo}, campaigns, f.gateway, f.vault, donation.Config{}, quietLogger())

			view, err := service.CreateDonation(f.ctx, &donation.CreateDonationDTO{
				CampaignID: f.campaign.ID,
				DonorName:  "João Pereira",
				DonorEmail: "joao@example.com",
				Amount:     money.Cents(1000),
			})

			Expect(view).To(BeNil())
			Expect(errors.IsType(err, errors.ErrorTypeInternal)).To(BeTrue())

			var created donationDatamodel.Donation
			Expect(f.db.Where("donor_email = ?", "joao@example.com").First(&created).Error).To(Succeed())
			Expect(created.Status).To(Equal(donationDatamodel.StatusPending))
			Expect(created.GatewayTxID).To(BeNil())
		})
	})
})

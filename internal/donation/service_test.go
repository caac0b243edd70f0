package donation_test

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	"github.com/frahmantamala/pix-donation/internal/donation"
	"github.com/frahmantamala/pix-donation/internal/paymentgateway"
)

var _ = Describe("Donation Service", func() {
	var (
		f   *fixture
		dto *donation.CreateDonationDTO
	)

	BeforeEach(func() {
		f = newFixture(donation.Config{NotificationURL: "https://doe.example.org/api/v1/webhooks/pagou"})
		doc := "12345678900"
		dto = &donation.CreateDonationDTO{
			CampaignID:    f.campaign.ID,
			DonorName:     "Maria Silva",
			DonorEmail:    "maria@example.com",
			DonorDocument: &doc,
			Amount:        money.Cents(5000),
		}
	})

	Describe("CreateDonation", func() {
		Context("when the organization has no gateway credentials", func() {
			It("issues a mock charge with a warning", func() {
				view, err := f.service.CreateDonation(f.ctx, dto)
				Expect(err).NotTo(HaveOccurred())

				Expect(view.Status).To(Equal(donationDatamodel.StatusPending))
				Expect(view.Amount).To(Equal(money.Cents(5000)))
				Expect(view.Warning).To(Equal(donation.MockWarning))
				Expect(view.Pix).NotTo(BeNil())
				Expect(view.Pix.QRCode).To(HavePrefix("data:image/png;base64,"))
				Expect(view.Pix.CopyPasteCode).To(ContainSubstring("540550.00"))
				Expect(f.pagou.Requests()).To(BeEmpty())

				stored := f.donations()
				Expect(stored).To(HaveLen(1))
				Expect(*stored[0].GatewayTxID).To(HavePrefix(paymentgateway.MockTxIDPrefix))
				Expect(stored[0].IsMock).To(BeTrue())
			})

			It("expires the mock charge one hour after creation", func() {
				fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
				f.service.WithClock(func() time.Time { return fixed })

				view, err := f.service.CreateDonation(f.ctx, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(view.Pix.ExpiresAt).To(BeTemporally("==", fixed.Add(time.Hour)))
			})
		})

		Context("when the organization has gateway credentials", func() {
			BeforeEach(func() {
				f.configureCredentials("pk_test", "sk_test")
			})

			It("charges through the gateway with decrypted credentials", func() {
				view, err := f.service.CreateDonation(f.ctx, dto)
				Expect(err).NotTo(HaveOccurred())
				Expect(view.Warning).To(BeEmpty())
				Expect(view.Pix.CopyPasteCode).To(Equal("00020126580014br.gov.bcb.pix"))

				reqs := f.pagou.Requests()
				Expect(reqs).To(HaveLen(1))
				Expect(reqs[0].Authorization).To(Equal("Bearer pk_test:sk_test"))
				Expect(reqs[0].Body["reference_id"]).To(Equal(view.ID))
				Expect(reqs[0].Body["notification_url"]).To(Equal("https://doe.example.org/api/v1/webhooks/pagou"))

				stored := f.donations()
				Expect(stored).To(HaveLen(1))
				Expect(*stored[0].GatewayTxID).To(HavePrefix("pagou_tx_"))
				Expect(stored[0].IsMock).To(BeFalse())
				Expect(stored[0].IdempotencyKey).NotTo(BeEmpty())
			})

			It("leaves the donation pending without a charge when the gateway fails", func() {
				f.pagou.SetResponder(func(w http.ResponseWriter) {
					w.WriteHeader(http.StatusInternalServerError)
				})

				_, err := f.service.CreateDonation(f.ctx, dto)
				Expect(errors.IsType(err, errors.ErrorTypeGateway)).To(BeTrue())

				stored := f.donations()
				Expect(stored).To(HaveLen(1))
				Expect(stored[0].Status).To(Equal(donationDatamodel.StatusPending))
				Expect(stored[0].GatewayTxID).To(BeNil())
			})

			It("hides a tampered secret key behind a gateway error", func() {
				packed, err := f.vault.Encrypt("sk_test")
				Expect(err).NotTo(HaveOccurred())
				last := packed[len(packed)-1:]
				flipped := "0"
				if last == "0" {
					flipped = "1"
				}
				f.setPackedCredentials("pk_test", packed[:len(packed)-1]+flipped)

				_, err = f.service.CreateDonation(f.ctx, dto)
				appErr, ok := errors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(errors.ErrorTypeGateway))
				Expect(appErr.Cause).To(BeNil())
				Expect(f.pagou.Requests()).To(BeEmpty())
			})
		})

		Context("campaign preconditions", func() {
			It("rejects an unknown campaign", func() {
				dto.CampaignID = uuid.NewString()
				_, err := f.service.CreateDonation(f.ctx, dto)
				Expect(err).To(MatchError(errors.ErrCampaignNotFound))
				Expect(f.donations()).To(BeEmpty())
			})

			It("rejects an inactive campaign", func() {
				f.setCampaignStatus(campaignDatamodel.StatusPaused)

				_, err := f.service.CreateDonation(f.ctx, dto)
				appErr, ok := errors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
				details := appErr.Details.(errors.ValidationErrors)
				Expect(details.Errors[0].Code).To(Equal(string(errors.ErrCodeCampaignInactive)))
				Expect(f.donations()).To(BeEmpty())
			})

			It("accepts an inactive campaign when configured to", func() {
				f = newFixture(donation.Config{AllowInactiveCampaigns: true})
				f.setCampaignStatus(campaignDatamodel.StatusDraft)
				dto.CampaignID = f.campaign.ID

				_, err := f.service.CreateDonation(f.ctx, dto)
				Expect(err).NotTo(HaveOccurred())
			})
		})

		DescribeTable("input validation",
			func(mutate func(*donation.CreateDonationDTO), field string) {
				mutate(dto)
				_, err := f.service.CreateDonation(f.ctx, dto)

				appErr, ok := errors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(errors.ErrorTypeValidation))
				details := appErr.Details.(errors.ValidationErrors)
				Expect(details.Errors).To(ContainElement(HaveField("Field", field)))
				Expect(f.donations()).To(BeEmpty())
			},
			Entry("zero amount", func(d *donation.CreateDonationDTO) { d.Amount = 0 }, "amount"),
			Entry("negative amount", func(d *donation.CreateDonationDTO) { d.Amount = -100 }, "amount"),
			Entry("missing name", func(d *donation.CreateDonationDTO) { d.DonorName = "  " }, "donorName"),
			Entry("missing email", func(d *donation.CreateDonationDTO) { d.DonorEmail = "" }, "donorEmail"),
			Entry("malformed email", func(d *donation.CreateDonationDTO) { d.DonorEmail = "maria@" }, "donorEmail"),
			Entry("missing campaign", func(d *donation.CreateDonationDTO) { d.CampaignID = "" }, "campaignId"),
			Entry("oversized document", func(d *donation.CreateDonationDTO) {
				long := strings.Repeat("1", 40)
				d.DonorDocument = &long
			}, "donorDocument"),
		)
	})

	Describe("GetDonation", func() {
		It("returns the current state of a donation", func() {
			created, err := f.service.CreateDonation(f.ctx, dto)
			Expect(err).NotTo(HaveOccurred())

			view, err := f.service.GetDonation(f.ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(view.ID).To(Equal(created.ID))
			Expect(view.CampaignTitle).To(Equal("Cestas básicas"))
			Expect(view.DonorName).To(Equal("Maria Silva"))
			Expect(view.Pix.CopyPasteCode).To(Equal(created.Pix.CopyPasteCode))
		})

		It("hides the name of anonymous donors", func() {
			dto.IsAnonymous = true
			created, err := f.service.CreateDonation(f.ctx, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(created.DonorName).To(Equal(donation.AnonymousDisplayName))
		})

		It("returns not found for unknown or malformed ids", func() {
			_, err := f.service.GetDonation(f.ctx, uuid.NewString())
			Expect(err).To(MatchError(errors.ErrDonationNotFound))

			_, err = f.service.GetDonation(f.ctx, "../etc")
			Expect(err).To(MatchError(errors.ErrDonationNotFound))
		})
	})
})

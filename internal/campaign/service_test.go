package campaign_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	errors "github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/campaign"
	campaignPostgres "github.com/frahmantamala/pix-donation/internal/campaign/postgres"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	orgDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/organization"
	"github.com/frahmantamala/pix-donation/internal/core/events"
)

var _ = Describe("Campaign Service", func() {
	var (
		ctx     context.Context
		db      *gorm.DB
		repo    campaign.RepositoryAPI
		service *campaign.Service
		org     *orgDatamodel.Organization
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newTestDB()
		repo = campaignPostgres.NewCampaignRepository(db)
		service = campaign.NewService(repo, quietLogger())

		org = &orgDatamodel.Organization{ID: uuid.NewString(), Name: "Org", Slug: "org"}
		Expect(db.Create(org).Error).To(Succeed())
	})

	Describe("GetForDonation", func() {
		It("returns the campaign with its organization", func() {
			created, err := service.Create(ctx, campaign.CreateCampaignDTO{
				OrganizationID: org.ID,
				Title:          "Reforma da escola",
				Slug:           "reforma",
				Status:         campaignDatamodel.StatusActive,
				GoalAmount:     money.Cents(1000000),
			})
			Expect(err).NotTo(HaveOccurred())

			found, err := service.GetForDonation(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.IsActive()).To(BeTrue())
			Expect(found.Organization).NotTo(BeNil())
			Expect(found.Organization.ID).To(Equal(org.ID))
		})

		It("defaults new campaigns to draft", func() {
			created, err := service.Create(ctx, campaign.CreateCampaignDTO{
				OrganizationID: org.ID, Title: "Draft", Slug: "draft",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Status).To(Equal(campaignDatamodel.StatusDraft))
		})

		It("returns not found for an unknown id", func() {
			_, err := service.GetForDonation(ctx, uuid.NewString())
			Expect(err).To(MatchError(errors.ErrCampaignNotFound))
		})

		It("returns not found for a malformed id", func() {
			_, err := service.GetForDonation(ctx, "not-a-uuid")
			Expect(err).To(MatchError(errors.ErrCampaignNotFound))
		})
	})

	Describe("TotalsHandler", func() {
		var (
			c       *campaignDatamodel.Campaign
			handler *campaign.TotalsHandler
			bus     *events.EventBus
		)

		currentAmount := func() money.Cents {
			var reloaded campaignDatamodel.Campaign
			Expect(db.First(&reloaded, "id = ?", c.ID).Error).To(Succeed())
			return reloaded.CurrentAmount
		}

		BeforeEach(func() {
			var err error
			c, err = service.Create(ctx, campaign.CreateCampaignDTO{
				OrganizationID: org.ID, Title: "T", Slug: "t", Status: campaignDatamodel.StatusActive,
			})
			Expect(err).NotTo(HaveOccurred())

			bus = events.NewEventBus(quietLogger())
			handler = campaign.NewTotalsHandler(repo, quietLogger())
			handler.RegisterEventHandlers(bus)
		})

		It("adds completed donations to the total", func() {
			Expect(bus.PublishSync(ctx, events.NewDonationCompletedEvent("d1", c.ID, "tx1", 5000, donationDatamodel.StatusPending))).To(Succeed())
			Expect(bus.PublishSync(ctx, events.NewDonationCompletedEvent("d2", c.ID, "tx2", 2550, donationDatamodel.StatusPending))).To(Succeed())
			Expect(currentAmount()).To(Equal(money.Cents(7550)))
		})

		It("subtracts a refund of a completed donation", func() {
			Expect(bus.PublishSync(ctx, events.NewDonationCompletedEvent("d1", c.ID, "tx1", 5000, donationDatamodel.StatusPending))).To(Succeed())
			Expect(bus.PublishSync(ctx, events.NewDonationRefundedEvent("d1", c.ID, "tx1", 5000, donationDatamodel.StatusCompleted))).To(Succeed())
			Expect(currentAmount()).To(Equal(money.Cents(0)))
		})

		It("ignores a refund of a donation that never completed", func() {
			Expect(bus.PublishSync(ctx, events.NewDonationRefundedEvent("d1", c.ID, "tx1", 5000, donationDatamodel.StatusPending))).To(Succeed())
			Expect(currentAmount()).To(Equal(money.Cents(0)))
		})

		It("reports a missing campaign", func() {
			err := bus.PublishSync(ctx, events.NewDonationCompletedEvent("d1", uuid.NewString(), "tx1", 5000, donationDatamodel.StatusPending))
			Expect(err).To(HaveOccurred())
		})
	})
})

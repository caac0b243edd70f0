package webhook_test

import (
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/pix-donation/internal"
	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	"github.com/frahmantamala/pix-donation/internal/core/datamodel/webhooklog"
	"github.com/frahmantamala/pix-donation/internal/core/events"
	"github.com/frahmantamala/pix-donation/internal/webhook"
)

const (
	completedBody = `{"event":"qrcode.completed","data":{"txid":"` + testTxID + `","amount":50.00,"paidAt":"2025-06-01T14:58:00Z"}}`
	refundedBody  = `{"event":"qrcode.refunded","data":{"txid":"` + testTxID + `","amount":50.00,"refundedAt":"2025-06-02T09:00:00Z"}}`
	expiredBody   = `{"event":"qrcode.expired","data":{"txid":"` + testTxID + `"}}`
)

var _ = Describe("Processor", func() {
	var f *fixture

	BeforeEach(func() {
		f = newFixture()
	})

	It("completes a pending donation with the gateway's paid time", func() {
		outcome, err := f.deliver(completedBody)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(webhook.OutcomeApplied))

		d := f.reload()
		Expect(d.Status).To(Equal(donationDatamodel.StatusCompleted))
		Expect(*d.PaidAt).To(BeTemporally("==", time.Date(2025, 6, 1, 14, 58, 0, 0, time.UTC)))

		var entry webhooklog.WebhookLog
		Expect(f.db.First(&entry).Error).To(Succeed())
		Expect(entry.IdempotencyKey).To(Equal("webhook:qrcode.completed:" + testTxID))
		Expect(entry.OrganizationID).To(Equal(f.org.ID))
		Expect(entry.Processed).To(BeTrue())
		Expect(entry.SignatureValid).To(BeTrue())
		Expect(string(entry.Payload)).To(ContainSubstring(testTxID))

		published := f.publisher.Events()
		Expect(published).To(HaveLen(1))
		settled := published[0].(*events.DonationSettledEvent)
		Expect(settled.EventType()).To(Equal(events.EventTypeDonationCompleted))
		Expect(settled.Amount).To(BeEquivalentTo(5000))
		Expect(settled.PreviousStatus).To(Equal(donationDatamodel.StatusPending))
	})

	It("uses the processing time when paidAt is absent", func() {
		_, err := f.deliver(`{"event":"qrcode.completed","data":{"txid":"` + testTxID + `"}}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(*f.reload().PaidAt).To(BeTemporally("==", fixedNow))
	})

	It("uses the processing time when paidAt is not understood", func() {
		outcome, err := f.deliver(`{"event":"qrcode.completed","data":{"txid":"` + testTxID + `","paidAt":"01/06/2025 14h58"}}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(webhook.OutcomeApplied))

		d := f.reload()
		Expect(d.Status).To(Equal(donationDatamodel.StatusCompleted))
		Expect(*d.PaidAt).To(BeTemporally("==", fixedNow))
	})

	It("records events with long names", func() {
		name := "qrcode." + strings.Repeat("x", 120)
		outcome, err := f.deliver(`{"event":"` + name + `","data":{"txid":"` + testTxID + `"}}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(webhook.OutcomeApplied))

		var entry webhooklog.WebhookLog
		Expect(f.db.First(&entry).Error).To(Succeed())
		Expect(entry.Event).To(Equal(name))
		Expect(f.reload().Status).To(Equal(donationDatamodel.StatusPending))
	})

	It("applies a duplicate delivery only once", func() {
		first, err := f.deliver(completedBody)
		Expect(err).NotTo(HaveOccurred())
		paidAt := *f.reload().PaidAt

		second, err := f.deliver(completedBody)
		Expect(err).NotTo(HaveOccurred())

		Expect(first).To(Equal(webhook.OutcomeApplied))
		Expect(second).To(Equal(webhook.OutcomeAlreadyProcessed))
		Expect(*f.reload().PaidAt).To(BeTemporally("==", paidAt))
		Expect(f.logCount()).To(BeEquivalentTo(1))
		Expect(f.publisher.Events()).To(HaveLen(1))
	})

	It("serializes concurrent duplicates so exactly one applies", func() {
		const deliveries = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			outcomes []webhook.Outcome
		)
		for i := 0; i < deliveries; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				outcome, err := f.deliver(completedBody)
				Expect(err).NotTo(HaveOccurred())
				mu.Lock()
				outcomes = append(outcomes, outcome)
				mu.Unlock()
			}()
		}
		wg.Wait()

		applied := 0
		for _, o := range outcomes {
			if o == webhook.OutcomeApplied {
				applied++
			}
		}
		Expect(applied).To(Equal(1))
		Expect(outcomes).To(HaveLen(deliveries))
		Expect(f.logCount()).To(BeEquivalentTo(1))
		Expect(f.publisher.Events()).To(HaveLen(1))
	})

	It("keeps paid_at when a completed donation is refunded", func() {
		_, err := f.deliver(completedBody)
		Expect(err).NotTo(HaveOccurred())
		paidAt := *f.reload().PaidAt

		outcome, err := f.deliver(refundedBody)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(webhook.OutcomeApplied))

		d := f.reload()
		Expect(d.Status).To(Equal(donationDatamodel.StatusRefunded))
		Expect(*d.PaidAt).To(BeTemporally("==", paidAt))
		Expect(*d.RefundedAt).To(BeTemporally("==", time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)))
		Expect(f.logCount()).To(BeEquivalentTo(2))

		published := f.publisher.Events()
		Expect(published).To(HaveLen(2))
		Expect(published[1].(*events.DonationSettledEvent).PreviousStatus).To(Equal(donationDatamodel.StatusCompleted))
	})

	It("refunds a pending donation directly", func() {
		_, err := f.deliver(refundedBody)
		Expect(err).NotTo(HaveOccurred())

		d := f.reload()
		Expect(d.Status).To(Equal(donationDatamodel.StatusRefunded))
		Expect(d.PaidAt).To(BeNil())
	})

	It("does not resurrect a refunded donation on a late completed event", func() {
		_, err := f.deliver(refundedBody)
		Expect(err).NotTo(HaveOccurred())

		outcome, err := f.deliver(completedBody)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(webhook.OutcomeApplied))

		d := f.reload()
		Expect(d.Status).To(Equal(donationDatamodel.StatusRefunded))
		Expect(d.PaidAt).To(BeNil())
		Expect(f.publisher.Events()).To(HaveLen(1))
	})

	It("records an expired event without changing the donation", func() {
		outcome, err := f.deliver(expiredBody)
		Expect(err).NotTo(HaveOccurred())
		Expect(outcome).To(Equal(webhook.OutcomeApplied))
		Expect(f.reload().Status).To(Equal(donationDatamodel.StatusPending))
		Expect(f.logCount()).To(BeEquivalentTo(1))
		Expect(f.publisher.Events()).To(BeEmpty())
	})

	It("rolls back the log row when the donation update fails", func() {
		ts := nowTimestamp()
		ev, err := f.verifier.Verify(f.ctx, []byte(completedBody), webhook.Sign(testSecret, ts, []byte(completedBody)), ts)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.db.Migrator().DropTable(&donationDatamodel.Donation{})).To(Succeed())

		_, err = f.processor.Process(f.ctx, ev)
		Expect(errors.IsType(err, errors.ErrorTypeInternal)).To(BeTrue())
		Expect(f.logCount()).To(BeEquivalentTo(0))
		Expect(f.publisher.Events()).To(BeEmpty())
	})
})

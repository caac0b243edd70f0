package webhook_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	"github.com/frahmantamala/pix-donation/internal/transport"
	"github.com/frahmantamala/pix-donation/internal/webhook"
)

var _ = Describe("Webhook Handler", func() {
	var (
		f       *fixture
		handler *webhook.Handler
	)

	BeforeEach(func() {
		f = newFixture()
		handler = webhook.NewHandler(transport.NewBaseHandler(quietLogger()), f.verifier, f.processor)
	})

	send := func(body, signature, timestamp string) (*httptest.ResponseRecorder, map[string]interface{}) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/pagou", strings.NewReader(body))
		if signature != "" {
			req.Header.Set(webhook.SignatureHeader, signature)
		}
		if timestamp != "" {
			req.Header.Set(webhook.TimestampHeader, timestamp)
		}
		w := httptest.NewRecorder()
		handler.ReceivePagou(w, req)

		var decoded map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &decoded)).To(Succeed())
		return w, decoded
	}

	signed := func(body string) (*httptest.ResponseRecorder, map[string]interface{}) {
		ts := nowTimestamp()
		return send(body, "sha256="+webhook.Sign(testSecret, ts, []byte(body)), ts)
	}

	It("processes then acknowledges a duplicate", func() {
		w, body := signed(completedBody)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("processed"))

		w, body = signed(completedBody)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("already_processed"))
		Expect(f.reload().Status).To(Equal(donationDatamodel.StatusCompleted))
	})

	It("acknowledges an unknown txid without writing a log row", func() {
		w, body := signed(`{"event":"qrcode.completed","data":{"txid":"unknown"}}`)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(body["status"]).To(Equal("ignored_unknown_txid"))
		Expect(f.logCount()).To(BeEquivalentTo(0))
	})

	It("answers 401 for missing headers", func() {
		w, body := send(completedBody, "", "")
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(body["error"].(map[string]interface{})["code"]).To(Equal("MISSING_SIGNATURE_HEADERS"))
	})

	It("answers 401 for a replayed delivery", func() {
		stale := strconv.FormatInt(fixedNow.Add(-10*time.Minute).Unix(), 10)
		w, _ := send(completedBody, webhook.Sign(testSecret, stale, []byte(completedBody)), stale)
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(f.reload().Status).To(Equal(donationDatamodel.StatusPending))
	})

	It("answers 401 for a forged signature", func() {
		w, _ := send(completedBody, "sha256="+webhook.Sign("guess", nowTimestamp(), []byte(completedBody)), nowTimestamp())
		Expect(w.Code).To(Equal(http.StatusUnauthorized))
		Expect(f.logCount()).To(BeEquivalentTo(0))
	})

	It("answers 400 for a malformed payload", func() {
		w, body := signed(`{"event":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(body["error"].(map[string]interface{})["code"]).To(Equal("MALFORMED_PAYLOAD"))
	})

	It("answers 500 so the gateway retries when storage fails", func() {
		Expect(f.db.Migrator().DropTable("webhook_logs")).To(Succeed())
		w, body := signed(completedBody)
		Expect(w.Code).To(Equal(http.StatusInternalServerError))
		Expect(body["error"].(map[string]interface{})["message"]).NotTo(ContainSubstring("webhook_logs"))
	})
})

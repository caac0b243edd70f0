package donation_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/pix-donation/internal/donation"
	"github.com/frahmantamala/pix-donation/internal/transport"
)

var _ = Describe("Donation Handler", func() {
	var (
		f      *fixture
		router *chi.Mux
	)

	BeforeEach(func() {
		f = newFixture(donation.Config{NotificationURL: "http://localhost:8080/api/v1/webhooks/pagou"})
		handler := donation.NewHandler(transport.NewBaseHandler(quietLogger()), f.service)

		router = chi.NewRouter()
		router.Post("/api/v1/donations", handler.CreateDonation)
		router.Get("/api/v1/donations/{id}", handler.GetDonation)
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/donations", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	decode := func(w *httptest.ResponseRecorder) map[string]interface{} {
		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		return body
	}

	It("creates a mock donation and answers 201 with a warning", func() {
		w := post(`{"campaignId":"` + f.campaign.ID + `","donorName":"Ana","donorEmail":"ana@example.com","amount":50.00}`)

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(w.Body.String()).To(ContainSubstring(`"amount":50.00`))

		body := decode(w)
		Expect(body["status"]).To(Equal("PENDING"))
		Expect(body["warning"]).To(Equal("MOCK MODE - Configure keys in Organization"))
		pix := body["pix"].(map[string]interface{})
		Expect(pix["qrCode"]).NotTo(BeEmpty())
		Expect(pix["copyPasteCode"]).NotTo(BeEmpty())
		Expect(pix["expiresAt"]).NotTo(BeEmpty())
	})

	It("ignores a client supplied status", func() {
		w := post(`{"campaignId":"` + f.campaign.ID + `","donorName":"Ana","donorEmail":"ana@example.com","amount":10,"status":"COMPLETED"}`)
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(decode(w)["status"]).To(Equal("PENDING"))
	})

	It("rejects amounts with more than two decimals", func() {
		w := post(`{"campaignId":"` + f.campaign.ID + `","donorName":"Ana","donorEmail":"ana@example.com","amount":10.005}`)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_AMOUNT"))
		Expect(f.donations()).To(BeEmpty())
	})

	It("rejects malformed JSON", func() {
		w := post(`{"campaignId":`)
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		errBody := decode(w)["error"].(map[string]interface{})
		Expect(errBody["code"]).To(Equal("INVALID_BODY"))
	})

	It("answers 404 for an unknown campaign", func() {
		w := post(`{"campaignId":"7b0c3f44-3c1e-4a55-9b8e-0d7f1a2b3c4d","donorName":"Ana","donorEmail":"ana@example.com","amount":10}`)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("answers 502 without internal detail when the gateway fails", func() {
		f.configureCredentials("pk", "sk")
		f.pagou.SetResponder(func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("upstream exploded at 10.0.0.7"))
		})

		w := post(`{"campaignId":"` + f.campaign.ID + `","donorName":"Ana","donorEmail":"ana@example.com","amount":10}`)

		Expect(w.Code).To(Equal(http.StatusBadGateway))
		Expect(w.Body.String()).NotTo(ContainSubstring("10.0.0.7"))
		errBody := decode(w)["error"].(map[string]interface{})
		Expect(errBody["type"]).To(Equal("GATEWAY_ERROR"))
	})

	It("returns a created donation by id", func() {
		created := decode(post(`{"campaignId":"` + f.campaign.ID + `","donorName":"Ana","donorEmail":"ana@example.com","amount":"25.5"}`))

		req := httptest.NewRequest(http.MethodGet, "/api/v1/donations/"+created["id"].(string), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		body := decode(w)
		Expect(body["amount"]).To(BeNumerically("==", 25.5))
		Expect(body["campaignTitle"]).To(Equal("Cestas básicas"))
	})

	It("answers 404 for an unknown donation", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/donations/7b0c3f44-3c1e-4a55-9b8e-0d7f1a2b3c4d", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})
})

package paymentgateway

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	gatewaytypes "github.com/frahmantamala/pix-donation/internal/core/datamodel/paymentgateway"
)

const (
	MockTxIDPrefix = "test_"
	MockExpiry     = time.Hour

	// 1x1 transparent PNG.
	mockQRCode = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
)

// MockCharge builds a locally generated charge with the same shape as a real
// one. It is flagged Mock and can never be paid.
func MockCharge(amount money.Cents, now time.Time) *gatewaytypes.Charge {
	key := uuid.NewString()
	id := strings.ReplaceAll(key, "-", "")

	return &gatewaytypes.Charge{
		TransactionID: MockTxIDPrefix + id[:12],
		QRCode:        mockQRCode,
		CopyPasteCode: mockEMV(key, amount),
		ExpiresAt:     now.Add(MockExpiry).UTC(),
		Mock:          true,
	}
}

func mockEMV(key string, amount money.Cents) string {
	value := amount.String()
	return fmt.Sprintf("00020126580014br.gov.bcb.pix0136%s52040000530398654%02d%s5802BR5913PixDonationDev6009Sao Paulo62070503***6304MOCK",
		key, len(value), value)
}

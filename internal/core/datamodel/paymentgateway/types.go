package paymentgateway

import (
	"errors"
	"time"

	"github.com/frahmantamala/pix-donation/internal/core/common/money"
)

// Credentials authenticate outbound calls for one organization. SecretKey is
// plaintext and must not outlive the call it was decrypted for.
type Credentials struct {
	APIKey    string
	SecretKey string
}

type Payer struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Document *string `json:"document,omitempty"`
}

type ChargeRequest struct {
	Amount          money.Cents
	ReferenceID     string
	NotificationURL string
	Payer           Payer
}

func (r *ChargeRequest) Validate() error {
	if r.ReferenceID == "" {
		return errors.New("reference_id is required")
	}
	if !r.Amount.IsPositive() {
		return errors.New("amount must be greater than 0")
	}
	return nil
}

// Charge is a gateway-issued Pix charge. Mock charges carry the same shape
// but were generated locally and can never be paid.
type Charge struct {
	TransactionID string
	QRCode        string
	CopyPasteCode string
	ExpiresAt     time.Time
	Mock          bool
}

// PixRequest is the wire body of POST /pix.
type PixRequest struct {
	Amount          money.Cents `json:"amount"`
	NotificationURL string      `json:"notification_url,omitempty"`
	ReferenceID     string      `json:"reference_id"`
	Payer           Payer       `json:"payer"`
}

// PixResponse is the wire body returned by POST /pix.
type PixResponse struct {
	TxID      string `json:"txid"`
	QRCode    string `json:"qrcode"`
	EMV       string `json:"emv"`
	ExpiresAt string `json:"expires_at"`
}

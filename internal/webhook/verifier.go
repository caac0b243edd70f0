package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/pix-donation/internal"
)

const signaturePrefix = "sha256="

type Verifier struct {
	finder    DonationFinder
	tolerance time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

func NewVerifier(finder DonationFinder, tolerance time.Duration, logger *slog.Logger) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		finder:    finder,
		tolerance: tolerance,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source; used by tests.
func (v *Verifier) WithClock(now func() time.Time) *Verifier {
	v.now = now
	return v
}

// Sign returns the hex HMAC-SHA256 of "<timestamp>.<body>" under secret.
func Sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify authenticates a raw callback. The signing secret is looked up
// through the donation that owns the txid, so a sender can only ever be
// checked against the organization that issued the charge.
func (v *Verifier) Verify(ctx context.Context, rawBody []byte, signatureHeader, timestampHeader string) (*VerifiedEvent, error) {
	signature := strings.TrimSpace(signatureHeader)
	timestamp := strings.TrimSpace(timestampHeader)
	if signature == "" || timestamp == "" {
		return nil, errors.ErrMissingSignatureHeaders
	}

	if !v.fresh(timestamp) {
		v.logger.Warn("webhook rejected: stale or invalid timestamp", "timestamp", timestamp)
		return nil, errors.ErrStaleTimestamp
	}

	var payload Payload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return nil, errors.NewValidationError("Malformed webhook payload", errors.ErrCodeMalformedPayload)
	}
	if payload.Event == "" || payload.Data.TxID == "" {
		return nil, errors.NewValidationError("Webhook payload requires event and data.txid", errors.ErrCodeMalformedPayload)
	}

	d, err := v.finder.FindDonationByTxID(ctx, payload.Data.TxID)
	if err != nil {
		v.logger.Error("webhook donation lookup failed", "txid", payload.Data.TxID, "error", err)
		return nil, errors.NewInternalError("Failed to process webhook", err)
	}
	if d == nil || d.Campaign == nil || d.Campaign.Organization == nil {
		v.logger.Warn("webhook received for unknown txid", "txid", payload.Data.TxID, "event", payload.Event)
		return nil, ErrUnknownTransaction
	}

	org := d.Campaign.Organization
	secret := org.WebhookSecret()
	if secret == "" {
		v.logger.Error("webhook rejected: organization has no webhook secret",
			"organization_id", org.ID,
			"txid", payload.Data.TxID)
		return nil, errors.ErrWebhookSecretMissing
	}

	if !signatureMatches(secret, timestamp, rawBody, signature) {
		v.logger.Warn("webhook rejected: invalid signature",
			"organization_id", org.ID,
			"txid", payload.Data.TxID)
		return nil, errors.ErrInvalidSignature
	}

	v.warnUnparsedTime(payload.Data.TxID, "paidAt", payload.Data.PaidAt)
	v.warnUnparsedTime(payload.Data.TxID, "refundedAt", payload.Data.RefundedAt)

	return &VerifiedEvent{
		Event:          payload.Event,
		TxID:           payload.Data.TxID,
		PaidAt:         payload.Data.PaidAt.Parsed(),
		RefundedAt:     payload.Data.RefundedAt.Parsed(),
		DonationID:     d.ID,
		CampaignID:     d.CampaignID,
		OrganizationID: org.ID,
		RawBody:        rawBody,
		Signature:      signature,
		Timestamp:      timestamp,
	}, nil
}

func (v *Verifier) warnUnparsedTime(txID, field string, t *EventTime) {
	if t != nil && t.Raw != "" && t.Parsed() == nil {
		v.logger.Warn("webhook timestamp not understood, using processing time",
			"txid", txID,
			"field", field,
			"value", t.Raw)
	}
}

func (v *Verifier) fresh(timestamp string) bool {
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	diff := v.now().Sub(time.Unix(ts, 0))
	if diff < 0 {
		diff = -diff
	}
	return diff <= v.tolerance
}

func signatureMatches(secret, timestamp string, body []byte, header string) bool {
	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

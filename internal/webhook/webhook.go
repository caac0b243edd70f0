package webhook

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"strconv"
	"strings"
	"time"

	donationDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/donation"
	"github.com/frahmantamala/pix-donation/internal/core/datamodel/webhooklog"
)

const (
	SignatureHeader = "X-Pagou-Signature"
	TimestampHeader = "X-Pagou-Timestamp"

	EventCompleted = "qrcode.completed"
	EventRefunded  = "qrcode.refunded"
	EventExpired   = "qrcode.expired"

	DefaultTolerance = 300 * time.Second
)

type Outcome string

const (
	OutcomeApplied          Outcome = "processed"
	OutcomeAlreadyProcessed Outcome = "already_processed"
	OutcomeIgnoredUnknown   Outcome = "ignored_unknown_txid"
)

// ErrUnknownTransaction means no donation carries the callback's txid. It is
// acknowledged without side effects so the gateway stops retrying.
var ErrUnknownTransaction = stdErrors.New("webhook: unknown transaction id")

// Payload is the callback body sent by Pagou.
type Payload struct {
	Event string      `json:"event"`
	Data  PayloadData `json:"data"`
}

type PayloadData struct {
	TxID       string      `json:"txid"`
	Amount     json.Number `json:"amount,omitempty"`
	PaidAt     *EventTime  `json:"paidAt,omitempty"`
	RefundedAt *EventTime  `json:"refundedAt,omitempty"`
}

// eventTimeLayouts are tried in order; values without a zone are UTC.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// EventTime decodes a gateway timestamp leniently. A value that matches no
// known layout decodes without error and stays unset, so a signed callback
// is never rejected over its timestamp format.
type EventTime struct {
	time.Time
	Raw string
}

func (t *EventTime) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}
	t.Raw = raw
	t.Time = parseEventTime(raw)
	return nil
}

// Parsed returns the parsed time, or nil when absent or unparseable.
func (t *EventTime) Parsed() *time.Time {
	if t == nil || t.Time.IsZero() {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func parseEventTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		// epoch milliseconds past 2001-09-09
		if n > 1_000_000_000_000 {
			return time.UnixMilli(n).UTC()
		}
		return time.Unix(n, 0).UTC()
	}
	for _, layout := range eventTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

// VerifiedEvent is a callback whose signature and freshness have been
// checked. The organization and donation come from our own records, never
// from the payload.
type VerifiedEvent struct {
	Event          string
	TxID           string
	PaidAt         *time.Time
	RefundedAt     *time.Time
	DonationID     string
	CampaignID     string
	OrganizationID string
	RawBody        []byte
	Signature      string
	Timestamp      string
}

// IdempotencyKey identifies one (event, txid) pair in the webhook log.
func (e *VerifiedEvent) IdempotencyKey() string {
	return IdempotencyKey(e.Event, e.TxID)
}

func IdempotencyKey(event, txID string) string {
	return "webhook:" + event + ":" + txID
}

type DonationFinder interface {
	// FindDonationByTxID returns the donation with its campaign and
	// organization, or nil, nil when none matches.
	FindDonationByTxID(ctx context.Context, txID string) (*donationDatamodel.Donation, error)
}

type RepositoryAPI interface {
	DonationFinder
	WithinTransaction(ctx context.Context, fn func(tx TxRepository) error) error
}

// TxRepository is the set of writes the processor performs inside one
// database transaction.
type TxRepository interface {
	InsertLogIfAbsent(entry *webhooklog.WebhookLog) error
	LockLog(idempotencyKey string) (*webhooklog.WebhookLog, error)
	MarkLogProcessed(id int64, at time.Time) error
	LockDonation(id string) (*donationDatamodel.Donation, error)
	MarkDonationCompleted(id string, paidAt time.Time) error
	MarkDonationRefunded(id string, refundedAt time.Time) error
}

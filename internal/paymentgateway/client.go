package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/pix-donation/internal"
	gatewaytypes "github.com/frahmantamala/pix-donation/internal/core/datamodel/paymentgateway"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

var (
	errMalformedResponse = errors.New("malformed gateway response")
	errUnexpectedStatus  = errors.New("unexpected gateway status")
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client issues Pix charges against the Pagou API. Every call is bounded by
// the configured timeout; a timeout is reported as a gateway error.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		timeout: timeout,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Close releases idle connections held by the client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// CreateCharge requests a Pix charge for req. Network failures, timeouts,
// non-2xx statuses and malformed bodies all return a GatewayError.
func (c *Client) CreateCharge(ctx context.Context, creds gatewaytypes.Credentials, req *gatewaytypes.ChargeRequest) (*gatewaytypes.Charge, error) {
	if err := req.Validate(); err != nil {
		return nil, internal.NewValidationError(err.Error(), internal.ErrCodeValidationFailed)
	}

	body, err := json.Marshal(gatewaytypes.PixRequest{
		Amount:          req.Amount,
		NotificationURL: req.NotificationURL,
		ReferenceID:     req.ReferenceID,
		Payer:           req.Payer,
	})
	if err != nil {
		return nil, internal.NewInternalError("failed to encode charge request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pix", bytes.NewReader(body))
	if err != nil {
		return nil, internal.NewInternalError("failed to build charge request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+creds.APIKey+":"+creds.SecretKey)

	c.logger.Info("pagou: creating pix charge",
		"reference_id", req.ReferenceID,
		"amount", req.Amount.String())

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("pagou: charge request failed",
			"reference_id", req.ReferenceID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err)
		return nil, internal.NewGatewayError("payment gateway unavailable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, internal.NewGatewayError("payment gateway unavailable", fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("pagou: charge rejected",
			"reference_id", req.ReferenceID,
			"status", resp.StatusCode,
			"response", truncate(respBody, 512))
		return nil, internal.NewGatewayError("payment gateway unavailable", fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode))
	}

	charge, err := decodeCharge(respBody)
	if err != nil {
		c.logger.Error("pagou: malformed charge response",
			"reference_id", req.ReferenceID,
			"error", err)
		return nil, internal.NewGatewayError("payment gateway unavailable", err)
	}

	c.logger.Info("pagou: pix charge created",
		"reference_id", req.ReferenceID,
		"txid", charge.TransactionID,
		"expires_at", charge.ExpiresAt,
		"duration_ms", time.Since(start).Milliseconds())

	return charge, nil
}

func decodeCharge(body []byte) (*gatewaytypes.Charge, error) {
	var pix gatewaytypes.PixResponse
	if err := json.Unmarshal(body, &pix); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedResponse, err)
	}
	if pix.TxID == "" {
		return nil, fmt.Errorf("%w: missing txid", errMalformedResponse)
	}
	if pix.EMV == "" {
		return nil, fmt.Errorf("%w: missing emv", errMalformedResponse)
	}

	expiresAt, err := time.Parse(time.RFC3339, pix.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid expires_at %q", errMalformedResponse, pix.ExpiresAt)
	}

	return &gatewaytypes.Charge{
		TransactionID: pix.TxID,
		QRCode:        pix.QRCode,
		CopyPasteCode: pix.EMV,
		ExpiresAt:     expiresAt.UTC(),
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

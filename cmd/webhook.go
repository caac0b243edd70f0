package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/pix-donation/internal/webhook"
)

var (
	webhookURL    string
	webhookSecret string
	webhookEvent  string
	webhookTxID   string
	webhookPaidAt string
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Gateway callback utilities",
}

var webhookSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a signed Pagou callback to a running server",
	Long: `Build a Pagou callback body, sign it with the organization's webhook
secret and POST it to the webhook endpoint. Useful for settling charges
locally without a real gateway.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if webhookSecret == "" || webhookTxID == "" {
			return errors.New("--secret and --txid are required")
		}

		body, err := buildWebhookBody(webhookEvent, webhookTxID, webhookPaidAt, time.Now())
		if err != nil {
			return err
		}

		ts := strconv.FormatInt(time.Now().Unix(), 10)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(webhook.SignatureHeader, webhook.Sign(webhookSecret, ts, body))
		req.Header.Set(webhook.TimestampHeader, ts)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send webhook: %w", err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		fmt.Fprintf(cmd.OutOrStdout(), "%d %s\n", resp.StatusCode, bytes.TrimSpace(respBody))
		return nil
	},
}

// buildWebhookBody renders the callback body. paidAt defaults to now for
// completed events and is ignored otherwise.
func buildWebhookBody(event, txID, paidAt string, now time.Time) ([]byte, error) {
	data := map[string]any{"txid": txID}
	switch event {
	case webhook.EventCompleted:
		at := now.UTC()
		if paidAt != "" {
			parsed, err := time.Parse(time.RFC3339, paidAt)
			if err != nil {
				return nil, fmt.Errorf("invalid --paid-at: %w", err)
			}
			at = parsed
		}
		data["paidAt"] = at.Format(time.RFC3339)
	case webhook.EventRefunded:
		data["refundedAt"] = now.UTC().Format(time.RFC3339)
	}

	return json.Marshal(map[string]any{"event": event, "data": data})
}

func init() {
	webhookSendCmd.Flags().StringVar(&webhookURL, "url", "http://localhost:8080/api/v1/webhooks/pagou", "webhook endpoint")
	webhookSendCmd.Flags().StringVar(&webhookSecret, "secret", "", "organization webhook secret")
	webhookSendCmd.Flags().StringVar(&webhookEvent, "event", webhook.EventCompleted, "callback event")
	webhookSendCmd.Flags().StringVar(&webhookTxID, "txid", "", "gateway transaction id")
	webhookSendCmd.Flags().StringVar(&webhookPaidAt, "paid-at", "", "RFC3339 payment time for completed events")

	webhookCmd.AddCommand(webhookSendCmd)
}

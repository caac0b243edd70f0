package organization

import "time"

// Organization owns campaigns and the Pagou gateway credentials used to
// charge on their behalf. GatewaySecretKey is always the vault's packed
// ciphertext, never plaintext.
type Organization struct {
	ID                   string    `gorm:"primaryKey;type:varchar(36)"`
	Name                 string    `gorm:"column:name;not null"`
	Slug                 string    `gorm:"column:slug;not null;uniqueIndex"`
	Email                string    `gorm:"column:email"`
	GatewayAPIKey        *string   `gorm:"column:gateway_api_key"`
	GatewaySecretKey     *string   `gorm:"column:gateway_secret_key"`
	GatewayWebhookSecret *string   `gorm:"column:gateway_webhook_secret"`
	CreatedAt            time.Time `gorm:"column:created_at"`
	UpdatedAt            time.Time `gorm:"column:updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

// HasGatewayCredentials reports whether real charges can be issued.
func (o *Organization) HasGatewayCredentials() bool {
	return o.GatewayAPIKey != nil && *o.GatewayAPIKey != "" &&
		o.GatewaySecretKey != nil && *o.GatewaySecretKey != ""
}

// WebhookSecret returns the shared secret for inbound signatures, or "" when unset.
func (o *Organization) WebhookSecret() string {
	if o.GatewayWebhookSecret == nil {
		return ""
	}
	return *o.GatewayWebhookSecret
}

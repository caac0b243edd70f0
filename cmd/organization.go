package cmd

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/pix-donation/internal/organization"
	orgPostgres "github.com/frahmantamala/pix-donation/internal/organization/postgres"
	"github.com/frahmantamala/pix-donation/internal/vault"
	"github.com/frahmantamala/pix-donation/pkg/logger"
)

var (
	orgRef           string
	orgAPIKey        string
	orgSecretKey     string
	orgWebhookSecret string
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Manage organizations",
}

var orgSetCredentialsCmd = &cobra.Command{
	Use:   "set-credentials",
	Short: "Store Pagou gateway credentials for an organization",
	Long: `Store the Pagou API key, secret key and webhook secret for an organization.
The secret key is encrypted with the configured vault key before it is written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		initLogger(cfg)
		lg := logger.LoggerWrapper()

		v, err := vault.New(cfg.Security.EncryptionKey, cfg.Security.Environment, lg)
		if err != nil {
			return fmt.Errorf("failed to init vault: %w", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			return fmt.Errorf("failed to init gorm: %w", err)
		}

		orgs := organization.NewService(orgPostgres.NewOrganizationRepository(db), v, lg)

		lookup := orgs.GetBySlug
		if _, err := uuid.Parse(orgRef); err == nil {
			lookup = orgs.GetByID
		}
		org, err := lookup(ctx, orgRef)
		if err != nil {
			return err
		}

		if err := orgs.SetGatewayCredentials(ctx, org.ID, organization.GatewayCredentialsDTO{
			APIKey:        orgAPIKey,
			SecretKey:     orgSecretKey,
			WebhookSecret: orgWebhookSecret,
		}); err != nil {
			return err
		}

		fmt.Printf("Gateway credentials stored for %s (%s)\n", org.Name, org.ID)
		return nil
	},
}

func init() {
	orgSetCredentialsCmd.Flags().StringVar(&orgRef, "org", "", "organization id or slug")
	orgSetCredentialsCmd.Flags().StringVar(&orgAPIKey, "api-key", "", "Pagou API key")
	orgSetCredentialsCmd.Flags().StringVar(&orgSecretKey, "secret-key", "", "Pagou secret key")
	orgSetCredentialsCmd.Flags().StringVar(&orgWebhookSecret, "webhook-secret", "", "Pagou webhook signing secret")
	_ = orgSetCredentialsCmd.MarkFlagRequired("org")

	orgCmd.AddCommand(orgSetCredentialsCmd)
}

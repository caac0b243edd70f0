package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/pix-donation/internal/campaign"
	campaignPostgres "github.com/frahmantamala/pix-donation/internal/campaign/postgres"
	"github.com/frahmantamala/pix-donation/internal/core/common/money"
	campaignDatamodel "github.com/frahmantamala/pix-donation/internal/core/datamodel/campaign"
	"github.com/frahmantamala/pix-donation/internal/organization"
	orgPostgres "github.com/frahmantamala/pix-donation/internal/organization/postgres"
	"github.com/frahmantamala/pix-donation/internal/vault"
	"github.com/frahmantamala/pix-donation/pkg/logger"
)

const (
	seedOrgSlug      = "instituto-exemplo"
	seedCampaignSlug = "campanha-inverno"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long: `Seed the database with a sample organization and an active campaign.
Gateway credentials are read from PAGOU_API_KEY, PAGOU_SECRET_KEY and
PAGOU_WEBHOOK_SECRET; without them the organization charges in mock mode.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		initLogger(cfg)
		lg := logger.LoggerWrapper()

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlDB.Close()

		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range []string{"webhook_logs", "donations", "campaigns", "organizations"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		v, err := vault.New(cfg.Security.EncryptionKey, cfg.Security.Environment, lg)
		if err != nil {
			log.Fatalf("failed to init vault: %v", err)
		}

		orgRepo := orgPostgres.NewOrganizationRepository(db)
		orgs := organization.NewService(orgRepo, v, lg)

		org, err := orgs.GetBySlug(ctx, seedOrgSlug)
		if err != nil {
			org, err = orgs.Create(ctx, "Instituto Exemplo", seedOrgSlug, "contato@institutoexemplo.org")
			if err != nil {
				log.Fatalf("failed to create organization: %v", err)
			}
			fmt.Println("Seeded organization:", org.ID)
		} else {
			fmt.Println("organization already exists:", org.ID)
		}

		creds := organization.GatewayCredentialsDTO{
			APIKey:        os.Getenv("PAGOU_API_KEY"),
			SecretKey:     os.Getenv("PAGOU_SECRET_KEY"),
			WebhookSecret: os.Getenv("PAGOU_WEBHOOK_SECRET"),
		}
		if creds.APIKey != "" && creds.SecretKey != "" && creds.WebhookSecret != "" {
			if err := orgs.SetGatewayCredentials(ctx, org.ID, creds); err != nil {
				log.Fatalf("failed to store gateway credentials: %v", err)
			}
			fmt.Println("Stored gateway credentials")
		} else {
			fmt.Println("No gateway credentials given; charges will run in mock mode")
		}

		var existing int64
		if err := db.Model(&campaignDatamodel.Campaign{}).
			Where("organization_id = ? AND slug = ?", org.ID, seedCampaignSlug).
			Count(&existing).Error; err != nil {
			log.Fatalf("failed to look up campaign: %v", err)
		}
		if existing > 0 {
			fmt.Println("campaign already exists")
			return
		}

		campaigns := campaign.NewService(campaignPostgres.NewCampaignRepository(db), lg)
		c, err := campaigns.Create(ctx, campaign.CreateCampaignDTO{
			OrganizationID: org.ID,
			Title:          "Campanha do Agasalho",
			Slug:           seedCampaignSlug,
			Status:         campaignDatamodel.StatusActive,
			GoalAmount:     money.Cents(1_000_000),
		})
		if err != nil {
			log.Fatalf("failed to create campaign: %v", err)
		}
		fmt.Println("Seeded active campaign:", c.ID)
	},
}

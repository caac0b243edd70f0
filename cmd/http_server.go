package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/pix-donation/api"
	"github.com/frahmantamala/pix-donation/internal"
	"github.com/frahmantamala/pix-donation/internal/campaign"
	campaignPostgres "github.com/frahmantamala/pix-donation/internal/campaign/postgres"
	"github.com/frahmantamala/pix-donation/internal/core/events"
	"github.com/frahmantamala/pix-donation/internal/donation"
	donationPostgres "github.com/frahmantamala/pix-donation/internal/donation/postgres"
	"github.com/frahmantamala/pix-donation/internal/organization"
	orgPostgres "github.com/frahmantamala/pix-donation/internal/organization/postgres"
	"github.com/frahmantamala/pix-donation/internal/paymentgateway"
	"github.com/frahmantamala/pix-donation/internal/transport"
	"github.com/frahmantamala/pix-donation/internal/transport/rest"
	"github.com/frahmantamala/pix-donation/internal/vault"
	"github.com/frahmantamala/pix-donation/internal/webhook"
	webhookPostgres "github.com/frahmantamala/pix-donation/internal/webhook/postgres"
	"github.com/frahmantamala/pix-donation/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// Dependencies is the process-wide container built once at startup and
// torn down by Close.
type Dependencies struct {
	Config        *internal.Config
	DB            *sqlx.DB
	Gorm          *gorm.DB
	Vault         *vault.Vault
	Gateway       *paymentgateway.Client
	EventBus      *events.EventBus
	Organizations *organization.Service
	Campaigns     *campaign.Service
	Donations     *donation.Service
	Verifier      *webhook.Verifier
	Processor     *webhook.Processor
	Router        *chi.Mux
	Logger        *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if _, err := api.Load(context.Background()); err != nil {
		deps.Logger.Error("OpenAPI document failed validation", "error", err)
		deps.Close()
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "environment", deps.Config.Security.Environment)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	deps.Close()
	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	base := transport.NewBaseHandler(deps.Logger)
	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, rest.Handlers{
		Donation: donation.NewHandler(base, deps.Donations),
		Webhook:  webhook.NewHandler(base, deps.Verifier, deps.Processor),
	}, deps.Logger)
}

func initializeDependencies(path string) (*Dependencies, error) {
	config, err := loadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	initLogger(config)
	lg := logger.LoggerWrapper()

	v, err := vault.New(config.Security.EncryptionKey, config.Security.Environment, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vault: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	gateway := paymentgateway.NewClient(paymentgateway.Config{
		BaseURL: config.Payment.GatewayBaseURL,
		Timeout: config.Payment.GatewayTimeout,
	}, lg)

	eventBus := events.NewEventBus(lg)

	campaignRepo := campaignPostgres.NewCampaignRepository(gormDB)
	campaigns := campaign.NewService(campaignRepo, lg)
	campaign.NewTotalsHandler(campaignRepo, lg).RegisterEventHandlers(eventBus)

	organizations := organization.NewService(orgPostgres.NewOrganizationRepository(gormDB), v, lg)

	donations := donation.NewService(
		donationPostgres.NewDonationRepository(gormDB),
		campaigns,
		gateway,
		v,
		donation.Config{
			NotificationURL:        config.Payment.NotificationURL(),
			AllowInactiveCampaigns: config.Payment.AllowInactiveCampaigns,
		},
		lg,
	)

	webhookRepo := webhookPostgres.NewWebhookRepository(gormDB)

	return &Dependencies{
		Config:        config,
		DB:            db,
		Gorm:          gormDB,
		Vault:         v,
		Gateway:       gateway,
		EventBus:      eventBus,
		Organizations: organizations,
		Campaigns:     campaigns,
		Donations:     donations,
		Verifier:      webhook.NewVerifier(webhookRepo, config.Payment.WebhookTolerance, lg),
		Processor:     webhook.NewProcessor(webhookRepo, eventBus, lg),
		Router:        chi.NewRouter(),
		Logger:        lg,
	}, nil
}

// Close drains in-flight event handlers, then releases the gateway's idle
// connections and the database pool.
func (d *Dependencies) Close() {
	if d.EventBus != nil {
		d.EventBus.Wait()
	}
	if d.Gateway != nil {
		d.Gateway.Close()
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("Database close error", "error", err)
		}
	}
}

// initDB opens the pgx-backed pool shared by sqlx and gorm.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
}

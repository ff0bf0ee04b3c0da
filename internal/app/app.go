package app

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"lexledger/internal/config"
	"lexledger/internal/handlers"
	"lexledger/internal/pdf"
	"lexledger/internal/repositories"
	"lexledger/internal/routes"
	"lexledger/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("close database: %v", err)
		}
	}()

	if err := repositories.EnsureSchema(db); err != nil {
		log.Fatal("failed to ensure ledger schema: ", err)
	}

	store := repositories.NewStore(db)

	// === Services ===
	settingsService := services.NewSettingsService()
	syncService := services.NewSyncService()
	multiplier, err := decimal.NewFromString(cfg.Engine.TargetRateMultiplier)
	if err != nil {
		log.Fatal("invalid engine.target_rate_multiplier: ", err)
	}
	balanceService := services.NewBalanceService(multiplier)
	warningService := services.NewWarningService()
	invoiceService := services.NewInvoiceService()
	digestService := services.NewDigestService()

	var notifiers []services.Notifier
	if cfg.Email.SMTPHost != "" {
		notifiers = append(notifiers, services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		))
	}
	if cfg.Telegram.Enabled {
		tg, err := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			log.Printf("telegram disabled: %v", err)
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	renderer := pdf.NewInvoiceGenerator(cfg.Files.RootDir)

	reconcileService := services.NewReconcileService(
		store,
		settingsService,
		syncService,
		balanceService,
		warningService,
		invoiceService,
		digestService,
		notifiers,
		renderer,
	)

	// === Scheduler ===
	// Run times come from the settings ledger, read at startup.
	snap, err := store.LoadSnapshot()
	if err != nil {
		log.Fatal("failed to read ledgers: ", err)
	}
	settings := settingsService.Resolve(snap.SettingRows)

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cronSpec(settings.DailySyncTime), func() {
		if _, err := reconcileService.RunDailySync(time.Now()); err != nil {
			log.Printf("daily sync: %v", err)
		}
	}); err != nil {
		log.Fatal("schedule daily sync: ", err)
	}
	if _, err := scheduler.AddFunc(cronSpec(settings.SummaryEmailTime), func() {
		if err := reconcileService.DispatchDigest(time.Now()); err != nil {
			log.Printf("daily digest: %v", err)
		}
	}); err != nil {
		log.Fatal("schedule daily digest: ", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// === Handlers ===
	webhookHandler := handlers.NewWebhookHandler(store.Payments())
	timeEntryHandler := handlers.NewTimeEntryHandler(store.TimeEntries())
	runHandler := handlers.NewRunHandler(reconcileService)
	reportHandler := handlers.NewReportHandler(reconcileService, store.Clients(), store.Invoices())

	// === Gin ===
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	routes.SetupRoutes(router, webhookHandler, timeEntryHandler, runHandler, reportHandler)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("server listening on %s (sync %s, digest %s)",
		listenAddr, settings.DailySyncTime, settings.SummaryEmailTime)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("failed to start server: ", err)
	}
}

// cronSpec turns a HH:MM settings value into a daily cron expression.
func cronSpec(hhmm string) string {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return "0 1 * * *"
	}
	return fmt.Sprintf("%s %s * * *",
		strings.TrimPrefix(parts[1], "0"),
		strings.TrimPrefix(parts[0], "0"))
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

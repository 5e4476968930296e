package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	advisorclient "github.com/fiscalguide/fiscalguide/internal/clients/advisor"
	"github.com/fiscalguide/fiscalguide/internal/clients/plaid"
	"github.com/fiscalguide/fiscalguide/internal/config"
	"github.com/fiscalguide/fiscalguide/internal/database"
	"github.com/fiscalguide/fiscalguide/internal/modules/advisor"
	"github.com/fiscalguide/fiscalguide/internal/modules/auth"
	"github.com/fiscalguide/fiscalguide/internal/modules/banking"
	bankingjobs "github.com/fiscalguide/fiscalguide/internal/modules/banking/jobs"
	"github.com/fiscalguide/fiscalguide/internal/modules/transactions"
	"github.com/fiscalguide/fiscalguide/internal/modules/users"
	"github.com/fiscalguide/fiscalguide/internal/reliability"
	"github.com/fiscalguide/fiscalguide/internal/scheduler"
	"github.com/fiscalguide/fiscalguide/internal/server"
	"github.com/fiscalguide/fiscalguide/pkg/logger"
)

func main() {
	// Initialize logger
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info"})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting FiscalGuide")

	// Initialize database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := initSchemas(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize schema")
	}

	// Repositories and services
	userRepo := auth.NewRepository(db.Conn(), log)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret)
	authHandler := auth.NewHandler(userRepo, tokens, log)
	usersHandler := users.NewHandler(userRepo, log)

	mappingRepo := transactions.NewMappingRepository(db.Conn(), log)
	resolver := transactions.NewResolver(mappingRepo, log)
	txnRepo := transactions.NewRepository(db.Conn(), log)
	ingestion := transactions.NewService(db.Conn(), txnRepo, resolver, log)
	summaryRepo := transactions.NewSummaryRepository(db.Conn(), log)
	taxService := transactions.NewTaxService(txnRepo, summaryRepo, log)
	txnHandler := transactions.NewHandler(txnRepo, ingestion, taxService, log)

	plaidClient := plaid.NewClient(cfg.PlaidEnv, cfg.PlaidClientID, cfg.PlaidSecret, log)
	aggregator := banking.NewPlaidAdapter(plaidClient)
	accountRepo := banking.NewRepository(db.Conn(), log)
	bankingHandler := banking.NewHandler(accountRepo, aggregator, ingestion, log)

	advisorSvc := advisorclient.NewClient(cfg.AdvisorServiceURL, log)
	advisorHandler := advisor.NewHandler(advisorSvc, txnRepo, log)

	// Initialize scheduler
	sched := scheduler.New(log)

	syncJob := bankingjobs.NewSyncJob(accountRepo, aggregator, ingestion, log)
	if err := sched.AddJob(cfg.BankSyncSchedule, syncJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register bank sync job")
	}

	if err := registerBackupJobs(sched, db, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Failed to register backup jobs")
	}

	sched.Start()
	defer sched.Stop()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DevMode: cfg.DevMode,
		Handlers: server.Handlers{
			Auth:         authHandler,
			Users:        usersHandler,
			Transactions: txnHandler,
			Banking:      bankingHandler,
			Advisor:      advisorHandler,
			Tokens:       tokens,
		},
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func initSchemas(db *database.DB) error {
	if err := auth.InitSchema(db.Conn()); err != nil {
		return err
	}
	if err := transactions.InitSchema(db.Conn()); err != nil {
		return err
	}
	return banking.InitSchema(db.Conn())
}

// registerBackupJobs wires the nightly maintenance job and, when an object
// store is configured, the backup job.
func registerBackupJobs(sched *scheduler.Scheduler, db *database.DB, cfg *config.Config, log zerolog.Logger) error {
	if err := sched.AddJob("0 0 3 * * *", reliability.NewMaintenanceJob(db.Conn(), log)); err != nil {
		return err
	}

	s3cfg := reliability.S3Config{
		Endpoint:        cfg.BackupEndpoint,
		AccessKeyID:     cfg.BackupAccessKeyID,
		SecretAccessKey: cfg.BackupSecretAccessKey,
		Bucket:          cfg.BackupBucket,
		Region:          cfg.BackupRegion,
	}
	if !s3cfg.IsConfigured() {
		log.Info().Msg("Backup object store not configured, cloud backups disabled")
		return nil
	}

	store, err := reliability.NewS3Client(context.Background(), s3cfg, log)
	if err != nil {
		return err
	}

	backups := reliability.NewBackupService(db.Conn(), store, "./data", log)
	return sched.AddJob(cfg.BackupSchedule, reliability.NewBackupJob(backups, cfg.BackupRetentionDays, log))
}

// cmd/dctip/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FairForge/dctip/internal/alerts"
	"github.com/FairForge/dctip/internal/api"
	"github.com/FairForge/dctip/internal/auth"
	"github.com/FairForge/dctip/internal/blob"
	"github.com/FairForge/dctip/internal/collaboration"
	"github.com/FairForge/dctip/internal/compliance"
	"github.com/FairForge/dctip/internal/config"
	"github.com/FairForge/dctip/internal/dashboard"
	"github.com/FairForge/dctip/internal/database"
	"github.com/FairForge/dctip/internal/ledger"
	"github.com/FairForge/dctip/internal/logging"
	"github.com/FairForge/dctip/internal/metrics"
	"github.com/FairForge/dctip/internal/threats"
	"go.uber.org/zap"
)

type stores struct {
	auth          auth.Store
	threats       threats.Store
	ledger        ledger.Store
	compliance    compliance.Store
	alerts        alerts.Store
	collaboration collaboration.Store
}

func memoryStores() stores {
	return stores{
		auth:          auth.NewMemoryStore(),
		threats:       threats.NewMemoryStore(),
		ledger:        ledger.NewMemoryStore(),
		compliance:    compliance.NewMemoryStore(),
		alerts:        alerts.NewMemoryStore(),
		collaboration: collaboration.NewMemoryStore(),
	}
}

func postgresStores(db *sql.DB) stores {
	return stores{
		auth:          auth.NewPostgresStore(db),
		threats:       threats.NewPostgresStore(db),
		ledger:        ledger.NewPostgresStore(db),
		compliance:    compliance.NewPostgresStore(db),
		alerts:        alerts.NewPostgresStore(db),
		collaboration: collaboration.NewPostgresStore(db),
	}
}

func newBlobStore(ctx context.Context, cfg config.BlobConfig, logger *zap.Logger) (blob.Store, error) {
	if cfg.Driver == config.BlobNone {
		return nil, nil
	}
	compressor, err := blob.NewCompressor(cfg.CompressionLevel)
	if err != nil {
		return nil, err
	}
	switch cfg.Driver {
	case config.BlobLocal:
		return blob.NewLocalStore(cfg.LocalPath, compressor, logger)
	case config.BlobS3:
		return blob.NewS3Store(ctx, blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PathStyle: cfg.S3Endpoint != "",
		}, compressor, logger)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}

func main() {
	configPath := flag.String("config", os.Getenv("DCTIP_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	config.LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(&logging.LoggerConfig{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	m := metrics.New()

	st := memoryStores()
	var pinger api.Pinger
	if cfg.Store.Driver == config.StorePostgres {
		pg, err := database.NewPostgres(database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			Database: cfg.Database.Name,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer func() { _ = pg.Close() }()

		if err := pg.Migrate(ctx); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		st = postgresStores(pg.DB())
		pinger = pg
		logger.Info("using postgres store", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.Name))
	} else {
		logger.Warn("using in-memory store; data is lost on restart")
	}

	blobs, err := newBlobStore(ctx, cfg.Blob, logger)
	if err != nil {
		logger.Fatal("failed to create blob store", zap.Error(err))
	}

	ledgerSvc := ledger.NewService(st.ledger, logger, ledger.WithMetrics(m))
	alertSvc := alerts.NewService(st.alerts, logger, alerts.WithMetrics(m))
	threatSvc := threats.NewService(st.threats, ledgerSvc, logger, threats.WithNotifier(alertSvc))

	complianceOpts := []compliance.Option{
		compliance.WithMetrics(m),
		compliance.WithEstimateUnmeasured(cfg.Compliance.EstimateUnmeasured),
		compliance.WithAuditHistoryLimit(cfg.Compliance.AuditHistoryLimit),
	}
	if blobs != nil {
		complianceOpts = append(complianceOpts, compliance.WithBlobStore(blobs))
	}

	server := api.NewServer(cfg, logger, api.Dependencies{
		Auth:          auth.NewService(st.auth, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger),
		Threats:       threatSvc,
		Ledger:        ledgerSvc,
		Compliance:    compliance.NewService(st.compliance, threatSvc, ledgerSvc, logger, complianceOpts...),
		Alerts:        alertSvc,
		Collaboration: collaboration.NewService(st.collaboration, ledgerSvc, logger),
		Dashboard:     dashboard.NewService(threatSvc, ledgerSvc),
		Metrics:       m,
		DB:            pinger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server failed", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Info("shutting down server...", zap.String("signal", sig.String()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}
}

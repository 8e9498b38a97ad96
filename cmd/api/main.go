package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/licitai/internal/application"
	appeval "github.com/bryanwahyu/licitai/internal/application/evaluation"
	appregistry "github.com/bryanwahyu/licitai/internal/application/registry"
	apptenders "github.com/bryanwahyu/licitai/internal/application/tenders"
	"github.com/bryanwahyu/licitai/internal/config"
	domeval "github.com/bryanwahyu/licitai/internal/domain/evaluation"
	domregistry "github.com/bryanwahyu/licitai/internal/domain/registry"
	"github.com/bryanwahyu/licitai/internal/domain/reports"
	"github.com/bryanwahyu/licitai/internal/domain/tenders"
	aiopenai "github.com/bryanwahyu/licitai/internal/infra/ai/openai"
	mysqlp "github.com/bryanwahyu/licitai/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/licitai/internal/infra/db/postgres"
	"github.com/bryanwahyu/licitai/internal/infra/httpserver"
	"github.com/bryanwahyu/licitai/internal/infra/pdftext"
	"github.com/bryanwahyu/licitai/internal/infra/rag"
	"github.com/bryanwahyu/licitai/internal/infra/registry/sri"
	minioStore "github.com/bryanwahyu/licitai/internal/infra/storage"
	"github.com/bryanwahyu/licitai/internal/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// connect database (mysql by default)
	var (
		tenderRepo tenders.Repository
		reportRepo reports.Repository
		checks     []middleware.HealthCheck
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Error("postgres connect error", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		tenderRepo = postgresp.NewTenderRepository(db)
		reportRepo = postgresp.NewReportRepository(db)
		checks = append(checks, middleware.DatabaseCheck(db))
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Error("mysql connect error", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		tenderRepo = mysqlp.NewTenderRepository(db)
		reportRepo = mysqlp.NewReportRepository(db)
		checks = append(checks, middleware.DatabaseCheck(db))
	}

	// init minio
	store, err := minioStore.New(ctx,
		cfg.Minio.Endpoint,
		cfg.Minio.Region,
		cfg.Minio.BucketName,
		cfg.Minio.AccessKey,
		cfg.Minio.SecretKey,
		cfg.Minio.UseSSL,
	)
	if err != nil {
		logger.Error("minio init error", "error", err)
		os.Exit(1)
	}

	// init AI judge + embeddings
	aiClient := aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.EmbedModel)

	// init vector store
	ragStore, err := rag.New(cfg.RAG.PersistPath, aiClient.Embed)
	if err != nil {
		logger.Error("vector store init error", "error", err)
		os.Exit(1)
	}

	extractor := pdftext.New()

	// init SRI registry checker
	sriClient := sri.New(cfg.SRI.BaseURL, cfg.SRI.Timeout)
	checker := appregistry.NewChecker(sriClient, aiClient, logger, appregistry.Config{
		MaxAttempts: cfg.Analysis.MaxAttempts,
		Thresholds:  domregistry.DefaultRelatedThresholds,
		UseAI:       cfg.Analysis.UseAIRelated,
	})

	// init services
	tendersSvc := &apptenders.Service{
		Repo:      tenderRepo,
		Store:     store,
		Indexer:   ragStore,
		Extractor: extractor,
		Clock:     application.SystemClock{},
		Logger:    logger,
	}

	thresholds := domeval.DefaultRiskThresholds
	if cfg.Analysis.ScoreBajo > 0 {
		thresholds.Bajo = cfg.Analysis.ScoreBajo
	}
	if cfg.Analysis.ScoreMedio > 0 {
		thresholds.Medio = cfg.Analysis.ScoreMedio
	}

	evalSvc := &appeval.Service{
		Tenders:       tenderRepo,
		Reports:       reportRepo,
		Store:         store,
		Extractor:     extractor,
		Retriever:     ragStore,
		DocsRetriever: ragStore,
		Assessor:      appeval.NewAssessor(aiClient, logger),
		Checker:       checker,
		Judge:         aiClient,
		Clock:         application.SystemClock{},
		Logger:        logger,
		Cfg: appeval.Config{
			TopK:       cfg.RAG.TopK,
			Thresholds: thresholds,
			TopIssues:  cfg.Analysis.TopIssues,
		},
	}

	handler := httpserver.NewRouter(tendersSvc, evalSvc, logger, cfg.Server.APIKeys, checks...)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

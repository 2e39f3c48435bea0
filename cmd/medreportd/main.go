package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/medreport/internal/common"
	"github.com/joseph-ayodele/medreport/internal/pipeline"
	repo "github.com/joseph-ayodele/medreport/internal/repository"
	svc "github.com/joseph-ayodele/medreport/internal/server"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(2)
	}
	logger := common.NewLogger(cfg.App, os.Stdout)
	slog.SetDefault(logger)
	if err := cfg.ValidateServer(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The job ledger is optional; without DB_URL runs are not recorded.
	var (
		jobsRepo repo.ExtractJobRepository
		ping     func(context.Context) error
		recorder pipeline.JobRecorder
	)
	if cfg.Database.DSN != "" {
		db, err := repo.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.HealthCheck(ctx, 5*time.Second); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		if err := db.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		jobsRepo = repo.NewExtractJobRepository(db, logger)
		recorder = jobsRepo
		ping = func(ctx context.Context) error { return db.HealthCheck(ctx, time.Second) }
	} else {
		logger.Warn("DB_URL not set; job ledger disabled")
	}

	processor := pipeline.NewFromConfig(cfg, recorder, logger)
	maxUpload := cfg.Files.MaxFileSizeBytes()

	var jobReader svc.JobReader
	if jobsRepo != nil {
		jobReader = jobsRepo
	}

	var grpcServer *grpc.Server
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer(grpc.MaxRecvMsgSize(int(maxUpload) * 2))
		svc.RegisterExtractionServer(grpcServer, svc.NewExtractionService(processor, jobReader, maxUpload, logger))

		healthServer := health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		reflection.Register(grpcServer)

		logger.Info("medreportd gRPC listening", "addr", cfg.Server.GRPCAddr)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				logger.Error("gRPC serve error", "error", err)
				stop()
			}
		}()
	}

	var httpServer *http.Server
	if cfg.Server.HTTPAddr != "" {
		httpServer = &http.Server{
			Addr: cfg.Server.HTTPAddr,
			Handler: svc.NewHTTPHandler(svc.HTTPConfig{
				Pipeline:  processor,
				Jobs:      jobReader,
				Ping:      ping,
				MaxUpload: maxUpload,
				Logger:    logger,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("medreportd HTTP listening", "addr", cfg.Server.HTTPAddr)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP serve error", "error", err)
				stop()
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", "error", err)
		}
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	logger.Info("stopped")
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/statement-insights/internal/app"
	"github.com/joseph-ayodele/statement-insights/internal/async"
	"github.com/joseph-ayodele/statement-insights/internal/common"
	"github.com/joseph-ayodele/statement-insights/internal/entity"
	"github.com/joseph-ayodele/statement-insights/internal/ingest"
	svc "github.com/joseph-ayodele/statement-insights/internal/server"
)

func main() {
	_ = godotenv.Load()
	cfg := common.LoadConfig()
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	maxMsg := int(cfg.Pipeline.MaxUploadSize)*4/3 + 1<<20 // base64 plus envelope
	grpcServer := grpc.NewServer(grpc.MaxRecvMsgSize(maxMsg))

	documents := svc.NewDocumentService(a.Processor, a.Jobs, logger)
	healthServer := documents.Register(grpcServer)

	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics serve error", "error", err)
		}
	}()

	var queue *async.ProcessorQueue
	if cfg.Server.WatchDir != "" {
		queue = async.NewProcessorQueue(a.Processor, logger,
			async.WithWorkers(cfg.Queue.Workers),
			async.WithQueueSize(cfg.Queue.Size),
			async.WithProcessTimeout(cfg.Pipeline.ModelTimeout*2),
		)
		paths, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{cfg.Server.WatchDir},
			InitialScan: true,
			Debounce:    2 * time.Second,
		}, logger)
		if err != nil {
			logger.Error("failed to watch inbox", "dir", cfg.Server.WatchDir, "error", err)
			os.Exit(1)
		}
		go ingest.Feed(ctx, paths, queue, persistResult(a, logger), logger)
		logger.Info("watching inbox", "dir", cfg.Server.WatchDir)
	}

	logger.Info("docpiped listening", "addr", cfg.Server.GRPCAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)

	if queue != nil {
		queue.Shutdown(shutdownCtx)
	}

	stopped := make(chan struct{})
	go func() { grpcServer.GracefulStop(); close(stopped) }()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
}

// persistResult writes result.json beside the job's raw response.
func persistResult(a *app.App, logger *slog.Logger) ingest.ResultSink {
	return func(path string, res *entity.ProcessingResult, err error) {
		if res == nil {
			logger.Warn("inbox.file.rejected", "path", path, "error", err)
			return
		}
		b, merr := json.MarshalIndent(res, "", "  ")
		if merr != nil {
			logger.Error("inbox.result.encode_failed", "path", path, "error", merr)
			return
		}
		out, werr := a.Workspaces.PersistArtifact(res.JobID, "result.json", b)
		if werr != nil {
			logger.Error("inbox.result.persist_failed", "path", path, "error", werr)
			return
		}
		logger.Info("inbox.file.done", "path", path, "status", res.Status, "result", out)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ceelsoin/productify-next-sub000/internal/adapter/repo"
	"github.com/ceelsoin/productify-next-sub000/internal/cleanup"
	"github.com/ceelsoin/productify-next-sub000/internal/infra"
	"github.com/ceelsoin/productify-next-sub000/internal/ops"
	"github.com/ceelsoin/productify-next-sub000/internal/orchestrator"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
	"github.com/ceelsoin/productify-next-sub000/internal/refund"
)

const queueCleanInterval = time.Hour

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "orchestrator")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("orchestrator: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)
	ledger := repo.NewCreditLedger(pool)

	queues := queue.NewClient(queue.Config{
		URL:           cfg.RedisURL,
		Password:      cfg.RedisPassword,
		ConsumerGroup: cfg.QueueGroup,
		MaxAttempts:   cfg.MaxAttempts,
	})
	if err := queues.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("orchestrator: redis connection failed")
	}
	defer queues.Close()

	allQueues := append(queue.AllTaskQueues(), queue.ResultQueue)
	if err := queues.EnsureConsumerGroups(ctx, allQueues); err != nil {
		logger.Fatal().Err(err).Msg("orchestrator: consumer group setup failed")
	}

	refunds := refund.NewService(jobs, ledger, logger)
	orch := orchestrator.New(jobs, queues, refunds, logger)
	watchdog := cleanup.New(jobs, refunds, cfg.WatchdogInterval, cfg.JobTimeout, logger)

	results := queue.NewConsumer(queues, queue.ResultQueue, orch.ResultHandler(), 4, logger)
	go func() {
		if err := results.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("orchestrator: result consumer stopped")
		}
	}()

	go func() {
		if err := watchdog.Run(ctx); err != nil {
			logger.Error().Err(err).Msg("orchestrator: watchdog stopped")
		}
	}()

	go func() {
		ticker := time.NewTicker(queueCleanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := queues.Clean(ctx, queue.AllTaskQueues()); err != nil {
					logger.Warn().Err(err).Msg("orchestrator: queue clean failed")
				}
			}
		}
	}()

	app := ops.NewApp(jobs, ledger, queues, orch, refunds, logger)
	router := ops.NewRouter(app, cfg.StoragePath)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("ops API listening")
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("orchestrator: http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("orchestrator: failed to shutdown server")
	}
	logger.Info().Msg("orchestrator stopped")
}

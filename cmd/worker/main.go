package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ceelsoin/productify-next-sub000/internal/adapter/repo"
	"github.com/ceelsoin/productify-next-sub000/internal/infra"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/image"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/speech"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/text"
	"github.com/ceelsoin/productify-next-sub000/internal/providers/videorender"
	"github.com/ceelsoin/productify-next-sub000/internal/queue"
	"github.com/ceelsoin/productify-next-sub000/internal/storage"
	"github.com/ceelsoin/productify-next-sub000/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobs := repo.NewJobRepository(runner)

	queues := queue.NewClient(queue.Config{
		URL:           cfg.RedisURL,
		Password:      cfg.RedisPassword,
		ConsumerGroup: cfg.QueueGroup,
		MaxAttempts:   cfg.MaxAttempts,
	})
	if err := queues.Connect(ctx); err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer queues.Close()

	allQueues := append(queue.AllTaskQueues(), queue.ResultQueue)
	if err := queues.EnsureConsumerGroups(ctx, allQueues); err != nil {
		logger.Fatal().Err(err).Msg("worker: consumer group setup failed")
	}

	storagePath := cfg.StoragePath
	if !filepath.IsAbs(storagePath) {
		if abs, err := filepath.Abs(storagePath); err == nil {
			storagePath = abs
		}
	}
	store, err := storage.NewFileStore(storagePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	imageClient, err := image.NewClient(image.Options{
		APIKey:  cfg.ImageryAPIKey,
		BaseURL: cfg.ImageryBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure image client")
	}
	textClient, err := text.NewClient(text.Options{
		APIKey:  cfg.TextAPIKey,
		BaseURL: cfg.TextBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure text client")
	}
	speechClient, err := speech.NewClient(speech.Options{
		APIKey:  cfg.SpeechAPIKey,
		BaseURL: cfg.SpeechBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure speech client")
	}
	renderClient, err := videorender.NewClient(videorender.Options{
		APIKey:  cfg.RenderAPIKey,
		BaseURL: cfg.RenderBaseURL,
		Logger:  &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure render client")
	}

	consumers := []*queue.Consumer{
		queue.NewConsumer(queues, queue.QueueImage,
			worker.New(jobs, queues, worker.NewImageProcessor(imageClient, store), logger),
			cfg.ImageWorkers, logger),
		queue.NewConsumer(queues, queue.QueueText,
			worker.New(jobs, queues, worker.NewTextProcessor(textClient), logger),
			cfg.TextWorkers, logger),
		queue.NewConsumer(queues, queue.QueueVoice,
			worker.New(jobs, queues, worker.NewVoiceProcessor(speechClient, store), logger),
			cfg.VoiceWorkers, logger),
		queue.NewConsumer(queues, queue.QueueCaptions,
			worker.New(jobs, queues, worker.NewCaptionsProcessor(speechClient, store), logger),
			cfg.CaptionsWorkers, logger),
		queue.NewConsumer(queues, queue.QueueVideo,
			worker.New(jobs, queues, worker.NewVideoProcessor(renderClient, store), logger),
			cfg.VideoWorkers, logger),
	}

	var wg sync.WaitGroup
	for _, c := range consumers {
		wg.Add(1)
		go func(c *queue.Consumer) {
			defer wg.Done()
			if err := c.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("worker: consumer stopped")
			}
		}(c)
	}

	<-ctx.Done()
	wg.Wait()
	logger.Info().Msg("worker stopped")
}

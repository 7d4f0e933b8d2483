package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/notify"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	awsCfg, err := bootstrap.LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	queue, err := bootstrap.BuildNotifyQueue(cfg, &awsCfg)
	if err != nil {
		logger.Error("failed to open notify queue", "error", err)
		os.Exit(1)
	}
	sender, err := bootstrap.BuildEmailSender(cfg, &awsCfg, logger)
	if err != nil {
		logger.Error("failed to configure email sender", "error", err)
		os.Exit(1)
	}
	worker := notify.NewWorker(queue, notify.NewBookingNotifier(sender, cfg.ClinicDisplayName, logger), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()
	logger.Info("notify worker started", "queue_url", cfg.NotifyQueueURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down notify worker...")
	cancel()

	select {
	case <-done:
		logger.Info("notify worker stopped")
	case <-time.After(30 * time.Second):
		logger.Error("notify worker shutdown timed out")
	}
}

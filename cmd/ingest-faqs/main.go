package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"

	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/conversation"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	source := flag.String("file", cfg.FAQDataFile, "FAQ document path or s3://bucket/key")
	flag.Parse()
	cfg.FAQDataFile = *source

	logger := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var awsCfg *aws.Config
	if bootstrap.NeedsAWS(cfg) {
		loaded, err := bootstrap.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config", "error", err)
			os.Exit(1)
		}
		awsCfg = &loaded
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Warn("redis unavailable; ingested FAQs will not be persisted for the API server")
	} else {
		defer redisClient.Close()
	}

	svc, closers, err := bootstrap.BuildFAQService(ctx, cfg, awsCfg, redisClient, logger)
	for _, c := range closers {
		defer c()
	}
	if err != nil {
		logger.Error("failed to build faq service", "error", err)
		os.Exit(1)
	}
	if svc == nil {
		logger.Error("faq search is not configured; set BEDROCK_EMBEDDING_MODEL_ID or GEMINI_API_KEY")
		os.Exit(1)
	}

	count, err := run(ctx, svc, *source)
	if err != nil {
		logger.Error("faq ingest failed", "source", *source, "error", err)
		os.Exit(1)
	}
	logger.Info("faq ingest complete", "source", *source, "count", count)
	fmt.Printf("Ingested %d FAQs from %s\n", count, *source)
}

func run(ctx context.Context, ingestor conversation.FAQIngestor, source string) (int, error) {
	if strings.TrimSpace(source) == "" {
		return 0, errors.New("faq source is required")
	}
	if err := ingestor.Setup(ctx); err != nil {
		return 0, fmt.Errorf("setup: %w", err)
	}
	return ingestor.IngestFile(ctx, source)
}

package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// NeedsAWS reports whether any configured component talks to an AWS service.
func NeedsAWS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	return strings.TrimSpace(cfg.BedrockModelID) != "" ||
		strings.TrimSpace(cfg.BedrockEmbeddingModel) != "" ||
		cfg.SessionBackend() == appconfig.SessionStoreDynamoDB ||
		strings.TrimSpace(cfg.NotifyQueueURL) != "" ||
		cfg.EmailProvider == emailProviderSES ||
		(cfg.EmailProvider == emailProviderAuto && strings.TrimSpace(cfg.SendGridAPIKey) == "" && strings.TrimSpace(cfg.EmailFromAddress) != "") ||
		strings.HasPrefix(strings.TrimSpace(cfg.FAQDataFile), "s3://")
}

// LoadAWSConfig resolves AWS credentials. Explicit keys win over the default chain.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	return awsCfg, nil
}

// BuildCalendar resolves the clinic timezone and slot window.
func BuildCalendar(cfg *appconfig.Config) (*scheduling.Calendar, *scheduling.Generator, error) {
	cal, err := scheduling.LoadCalendar(cfg.ClinicTimezone)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: %w", err)
	}
	gen, err := scheduling.NewGenerator(cfg.SlotWindowStart, cfg.SlotWindowEnd, cfg.SlotInterval)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: slot window: %w", err)
	}
	return cal, gen, nil
}

// BookingStores groups the booking and schedule-override engines for one backend.
type BookingStores struct {
	Bookings bookings.Store
	Schedule bookings.ScheduleStore
	close    func()
}

func (s *BookingStores) Close() {
	if s != nil && s.close != nil {
		s.close()
	}
}

// BuildBookingStores opens the configured storage backend.
func BuildBookingStores(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*BookingStores, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.StorageBackend {
	case appconfig.StoragePostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, fmt.Errorf("bootstrap: DATABASE_URL is required for the postgres storage backend")
		}
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
		}
		logger.Info("booking storage ready", "backend", appconfig.StoragePostgres)
		return &BookingStores{
			Bookings: bookings.NewPostgresStore(pool),
			Schedule: bookings.NewPostgresScheduleStore(pool),
			close:    pool.Close,
		}, nil
	case appconfig.StorageFile, "":
		logger.Info("booking storage ready", "backend", appconfig.StorageFile, "bookings_file", cfg.BookingsFile, "schedule_file", cfg.ScheduleFile)
		return &BookingStores{
			Bookings: bookings.NewFileStore(cfg.BookingsFile),
			Schedule: bookings.NewFileScheduleStore(cfg.ScheduleFile),
		}, nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown storage backend %q", cfg.StorageBackend)
	}
}

package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/conversation"
	"github.com/wolfman30/clinic-scheduler/internal/faq"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Closer is a best-effort shutdown hook collected while wiring.
type Closer func()

// BuildLLMClient wires Bedrock and Gemini chat clients. When both are
// configured Bedrock is primary and Gemini is the fallback. The result is
// wrapped with per-attempt timeouts and retries. A nil client means no model
// is configured.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (conversation.LLMClient, []Closer, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	var (
		primary  conversation.LLMClient
		fallback conversation.LLMClient
		closers  []Closer
	)
	if model := strings.TrimSpace(cfg.BedrockModelID); model != "" {
		if awsCfg == nil {
			return nil, nil, fmt.Errorf("bootstrap: bedrock model configured without aws config")
		}
		primary = conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(*awsCfg), model)
		logger.Info("bedrock chat model configured", "model", model)
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		closers = append(closers, func() { _ = gemini.Close() })
		if primary == nil {
			primary = gemini
		} else {
			fallback = gemini
		}
		logger.Info("gemini chat model configured", "model", cfg.GeminiModelID, "fallback", fallback != nil)
	}
	if primary == nil {
		return nil, closers, nil
	}

	client := conversation.NewFallbackLLMClient(primary, fallback, logger)
	return conversation.NewRetryLLMClient(client, cfg.LLMTimeout, cfg.LLMMaxRetries, logger), closers, nil
}

// BuildEmbedder picks the FAQ embedding provider. Bedrock wins when both are set.
func BuildEmbedder(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config) (faq.Embedder, []Closer, error) {
	if model := strings.TrimSpace(cfg.BedrockEmbeddingModel); model != "" && awsCfg != nil {
		return faq.NewBedrockEmbedder(bedrockruntime.NewFromConfig(*awsCfg), model), nil, nil
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) != "" {
		emb, err := faq.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.GeminiEmbeddingModelID)
		if err != nil {
			return nil, nil, fmt.Errorf("bootstrap: gemini embedder: %w", err)
		}
		return emb, []Closer{func() { _ = emb.Close() }}, nil
	}
	return nil, nil, nil
}

// BuildFAQService wires FAQ search with Redis persistence and S3 sources when
// available. It returns nil when no embedding provider is configured.
func BuildFAQService(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, redisClient *redis.Client, logger *logging.Logger) (*faq.Service, []Closer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	embedder, closers, err := BuildEmbedder(ctx, cfg, awsCfg)
	if err != nil {
		return nil, nil, err
	}
	if embedder == nil {
		logger.Warn("no embedding model configured; faq search disabled")
		return nil, closers, nil
	}

	var opts []faq.Option
	if redisClient != nil {
		opts = append(opts, faq.WithRepository(faq.NewRedisRepository(redisClient)))
	}
	if awsCfg != nil {
		opts = append(opts, faq.WithS3(s3.NewFromConfig(*awsCfg)))
	}
	svc := faq.NewService(embedder, logger, opts...)
	if err := svc.Setup(ctx); err != nil {
		logger.Warn("failed to hydrate faq index", "error", err)
	}
	return svc, closers, nil
}

// BuildSessionStore returns the conversation history backend named by
// CONVERSATION_STORE. A redis backend without a reachable client degrades to memory.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, awsCfg *aws.Config, logger *logging.Logger) (conversation.SessionStore, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.SessionBackend() {
	case appconfig.SessionStoreDynamoDB:
		if awsCfg == nil {
			return nil, fmt.Errorf("bootstrap: dynamodb session store requires aws config")
		}
		logger.Info("conversation sessions in dynamodb", "table", cfg.ConversationTable)
		return conversation.NewDynamoSessionStore(dynamodb.NewFromConfig(*awsCfg), cfg.ConversationTable, cfg.ConversationTTL), nil
	case appconfig.SessionStoreRedis:
		if redisClient != nil {
			logger.Info("conversation sessions in redis", "ttl", cfg.ConversationTTL.String())
			return conversation.NewRedisSessionStore(redisClient, cfg.ConversationTTL), nil
		}
		logger.Warn("redis session store requested but redis is unavailable; using memory")
	}
	return conversation.NewMemorySessionStore(cfg.ConversationCapacity, cfg.ConversationTTL), nil
}

// ConversationDeps are the collaborators the chat service reads from.
type ConversationDeps struct {
	LLM          conversation.LLMClient
	Sessions     conversation.SessionStore
	FAQ          conversation.FAQSearcher
	Availability conversation.AvailabilityLookup
	Calendar     *scheduling.Calendar
	Metrics      *metrics.ChatMetrics
}

// BuildConversationService returns the LLM-backed chat service, or the stub
// when no model is configured.
func BuildConversationService(cfg *appconfig.Config, deps ConversationDeps, logger *logging.Logger) (conversation.Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if deps.LLM == nil {
		logger.Warn("no chat model configured; using stub conversation service")
		return conversation.NewStubService(), nil
	}
	if deps.Sessions == nil {
		deps.Sessions = conversation.NewMemorySessionStore(cfg.ConversationCapacity, cfg.ConversationTTL)
	}

	opts := []conversation.Option{
		conversation.WithHistoryWindow(cfg.ConversationWindow),
		// Each provider client carries its own model id.
		conversation.WithGeneration("", cfg.LLMTemperature, cfg.LLMMaxTokens),
		conversation.WithClinicName(cfg.ClinicDisplayName),
		conversation.WithMetrics(deps.Metrics),
	}
	if deps.FAQ != nil {
		opts = append(opts, conversation.WithFAQ(deps.FAQ, cfg.FAQSearchLimit, cfg.FAQScoreThreshold))
	}
	if deps.Availability != nil {
		opts = append(opts, conversation.WithAvailability(deps.Availability))
	}
	if deps.Calendar != nil {
		opts = append(opts, conversation.WithCalendar(deps.Calendar))
	}
	return conversation.NewLLMService(deps.LLM, deps.Sessions, logger, opts...), nil
}

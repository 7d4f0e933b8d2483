package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/clinic-scheduler/internal/api/router"
	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/conversation"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/internal/webchat"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// App is the fully wired HTTP service shared by the API server and the Lambda
// entrypoint.
type App struct {
	Handler  http.Handler
	Bookings *bookings.Service
	Chat     conversation.Service
	Registry *prometheus.Registry

	closers []Closer
}

// Close releases clients opened during BuildApp, last opened first.
func (a *App) Close() {
	if a == nil {
		return
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// BuildApp wires storage, chat, notifications and the router from config.
// ctx bounds background goroutines such as the rate limiter sweep.
func BuildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	app := &App{Registry: prometheus.NewRegistry()}
	app.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	fail := func(err error) (*App, error) {
		app.Close()
		return nil, err
	}

	var awsCfg *aws.Config
	if NeedsAWS(cfg) {
		loaded, err := LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fail(err)
		}
		awsCfg = &loaded
	}

	cal, gen, err := BuildCalendar(cfg)
	if err != nil {
		return fail(err)
	}
	stores, err := BuildBookingStores(ctx, cfg, logger)
	if err != nil {
		return fail(err)
	}
	app.closers = append(app.closers, stores.Close)

	notifier, err := BuildNotifier(cfg, awsCfg, logger)
	if err != nil {
		return fail(err)
	}
	app.Bookings = bookings.NewService(stores.Bookings, logger,
		bookings.WithScheduleStore(stores.Schedule),
		bookings.WithGenerator(gen),
		bookings.WithCalendar(cal),
		bookings.WithMetrics(metrics.NewBookingMetrics(app.Registry)),
		bookings.WithNotifier(notifier),
	)

	redisClient := BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		app.closers = append(app.closers, func() { _ = redisClient.Close() })
	}

	llm, llmClosers, err := BuildLLMClient(ctx, cfg, awsCfg, logger)
	app.closers = append(app.closers, llmClosers...)
	if err != nil {
		return fail(err)
	}
	faqService, faqClosers, err := BuildFAQService(ctx, cfg, awsCfg, redisClient, logger)
	app.closers = append(app.closers, faqClosers...)
	if err != nil {
		return fail(err)
	}
	sessions, err := BuildSessionStore(cfg, redisClient, awsCfg, logger)
	if err != nil {
		return fail(err)
	}

	deps := ConversationDeps{
		LLM:          llm,
		Sessions:     sessions,
		Availability: app.Bookings,
		Calendar:     cal,
		Metrics:      metrics.NewChatMetrics(app.Registry),
	}
	var ingestor conversation.FAQIngestor
	if faqService != nil {
		deps.FAQ = faqService
		ingestor = faqService
	}
	app.Chat, err = BuildConversationService(cfg, deps, logger)
	if err != nil {
		return fail(err)
	}

	webChat := webchat.NewHandler(app.Chat, logger)
	var limiter *httpmiddleware.RateLimiter
	if cfg.ChatRateLimitRPS > 0 {
		limiter = httpmiddleware.NewRateLimiter(ctx, cfg.ChatRateLimitRPS, cfg.ChatRateLimitBurst)
		webChat.WithLimiter(limiter)
	}

	app.Handler = router.New(&router.Config{
		Logger:             logger,
		BookingsHandler:    bookings.NewHandler(app.Bookings, logger),
		ChatHandler:        conversation.NewHandler(app.Chat, ingestor, cfg.FAQDataFile, logger),
		WebChatHandler:     webChat,
		ChatLimiter:        limiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})
	return app, nil
}

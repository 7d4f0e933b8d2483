package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	"github.com/wolfman30/clinic-scheduler/internal/conversation"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/internal/webchat"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	BookingsHandler    *bookings.Handler
	ChatHandler        *conversation.Handler
	WebChatHandler     *webchat.Handler
	ChatLimiter        *httpmiddleware.RateLimiter
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// Descriptor is the payload served at the service root.
type Descriptor struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

func serviceDescriptor() Descriptor {
	return Descriptor{
		Message: "Medical Appointment Scheduling API",
		Endpoints: map[string]string{
			"chat":         "POST /api/chat - Conversational interface",
			"chat_ws":      "GET /api/chat/ws - WebSocket chat",
			"ingest":       "POST /api/chat/ingest-faqs - Setup FAQ database",
			"availability": "GET /api/calendly/availability",
			"book":         "POST /api/calendly/book",
			"booking":      "GET /api/calendly/bookings/{booking_id}",
			"schedule":     "GET|PUT /api/calendly/schedule/{date} - Admin schedule overrides",
		},
	}
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Group(func(public chi.Router) {
		public.Get("/", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, serviceDescriptor())
		})
		public.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.BookingsHandler != nil {
		r.Route("/api/calendly", func(cal chi.Router) {
			cal.Get("/availability", cfg.BookingsHandler.Availability)
			cal.Post("/book", cfg.BookingsHandler.Book)
			cal.Get("/bookings/{bookingID}", cfg.BookingsHandler.GetBooking)

			// Schedule overrides change what every patient can book.
			cal.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
				admin.Get("/schedule/{date}", cfg.BookingsHandler.GetSchedule)
				admin.Put("/schedule/{date}", cfg.BookingsHandler.PutSchedule)
			})
		})
	}

	if cfg.ChatHandler != nil {
		r.Group(func(chat chi.Router) {
			if cfg.ChatLimiter != nil {
				chat.Use(httpmiddleware.RateLimit(cfg.ChatLimiter))
			}
			chat.Post("/api/chat", cfg.ChatHandler.Chat)
			chat.Post("/api/chat/", cfg.ChatHandler.Chat)
		})
		r.Post("/api/chat/ingest-faqs", cfg.ChatHandler.IngestFAQs)
	}
	if cfg.WebChatHandler != nil {
		r.Get("/api/chat/ws", cfg.WebChatHandler.HandleWebSocket)
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

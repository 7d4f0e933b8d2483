package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/clinic-scheduler/internal/bookings"
	"github.com/wolfman30/clinic-scheduler/internal/faq"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

var conversationTracer = otel.Tracer("clinic.internal.conversation")

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("conversation: message is required")

// Service is what the HTTP and WebSocket layers talk to.
type Service interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// ChatResponse carries the assistant reply. Data is set only for booking intents.
type ChatResponse struct {
	Response       string       `json:"response"`
	ConversationID string       `json:"conversation_id"`
	Action         string       `json:"action"`
	Data           *BookingData `json:"data"`
}

// FAQSearcher ranks clinic FAQs against a message.
type FAQSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]faq.Result, error)
}

// AvailabilityLookup lists a day's slots for booking intents.
type AvailabilityLookup interface {
	Availability(ctx context.Context, date, appointmentType string) (bookings.Availability, error)
}

// LLMService answers chat turns with FAQ context and per-conversation history.
type LLMService struct {
	llm          LLMClient
	sessions     SessionStore
	faq          FAQSearcher
	availability AvailabilityLookup
	metrics      *metrics.ChatMetrics
	calendar     *scheduling.Calendar
	logger       *logging.Logger

	model        string
	clinicName   string
	window       int
	faqLimit     int
	faqThreshold float64
	temperature  float32
	maxTokens    int32
	newID        func() string
}

type Option func(*LLMService)

func WithFAQ(f FAQSearcher, limit int, threshold float64) Option {
	return func(s *LLMService) {
		s.faq = f
		if limit > 0 {
			s.faqLimit = limit
		}
		s.faqThreshold = threshold
	}
}

func WithAvailability(a AvailabilityLookup) Option {
	return func(s *LLMService) { s.availability = a }
}

func WithMetrics(m *metrics.ChatMetrics) Option {
	return func(s *LLMService) { s.metrics = m }
}

func WithCalendar(c *scheduling.Calendar) Option {
	return func(s *LLMService) {
		if c != nil {
			s.calendar = c
		}
	}
}

// WithHistoryWindow caps how many trailing messages are kept per conversation.
func WithHistoryWindow(n int) Option {
	return func(s *LLMService) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithGeneration sets the model id and sampling used for chat replies.
func WithGeneration(model string, temperature float64, maxTokens int) Option {
	return func(s *LLMService) {
		s.model = model
		s.temperature = float32(temperature)
		if maxTokens > 0 {
			s.maxTokens = int32(maxTokens)
		}
	}
}

func WithClinicName(name string) Option {
	return func(s *LLMService) { s.clinicName = name }
}

func NewLLMService(llm LLMClient, sessions SessionStore, logger *logging.Logger, opts ...Option) *LLMService {
	if llm == nil {
		panic("conversation: llm client cannot be nil")
	}
	if sessions == nil {
		sessions = NewMemorySessionStore(0, 0)
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &LLMService{
		llm:          llm,
		sessions:     sessions,
		calendar:     scheduling.NewCalendar(time.Local),
		logger:       logger,
		window:       10,
		faqLimit:     2,
		faqThreshold: 0.5,
		temperature:  0.7,
		maxTokens:    500,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Chat runs one turn: FAQ lookup, model reply, history update, intent extraction.
func (s *LLMService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	conversationID := strings.TrimSpace(req.ConversationID)
	if conversationID == "" {
		conversationID = s.newID()
	}

	ctx, span := conversationTracer.Start(ctx, "conversation.chat", trace.WithAttributes(
		attribute.String("conversation.id", conversationID),
	))
	defer span.End()

	history, err := s.sessions.Load(ctx, conversationID)
	if err != nil {
		s.logger.Warn("failed to load conversation history, starting fresh",
			"conversation_id", conversationID, "error", err)
		history = nil
	}

	faqContext := s.faqContext(ctx, message)
	messages := make([]ChatMessage, 0, len(history)+1)
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	start := time.Now()
	reply, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.model,
		System:      []string{systemPrompt(s.clinicName, s.calendar.Today()), contextBlock(faqContext)},
		Messages:    messages,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	s.metrics.ObserveLLMLatency("chat", time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveTurn("none", "error")
		return nil, fmt.Errorf("conversation: chat completion: %w", err)
	}

	history = append(messages, ChatMessage{Role: ChatRoleAssistant, Content: reply.Text})
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}
	if err := s.sessions.Save(ctx, conversationID, history); err != nil {
		s.logger.Warn("failed to save conversation history", "conversation_id", conversationID, "error", err)
	}

	intent := s.extractIntent(ctx, message)
	resp := &ChatResponse{
		Response:       reply.Text,
		ConversationID: conversationID,
		Action:         intent.Intent,
	}
	if intent.Intent == IntentBooking {
		resp.Data = s.bookingData(ctx, intent)
	}

	span.SetAttributes(attribute.String("conversation.intent", intent.Intent))
	s.metrics.ObserveTurn(intent.Intent, "ok")
	s.logger.Info("chat turn completed",
		"conversation_id", conversationID,
		"intent", intent.Intent,
		"history_length", len(history),
		"input_tokens", reply.Usage.InputTokens,
		"output_tokens", reply.Usage.OutputTokens,
	)
	return resp, nil
}

func (s *LLMService) faqContext(ctx context.Context, message string) string {
	if s.faq == nil {
		return ""
	}
	results, err := s.faq.Search(ctx, message, s.faqLimit)
	if err != nil {
		s.logger.Warn("faq search failed, continuing without context", "error", err)
		return ""
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.Score <= s.faqThreshold {
			continue
		}
		s.metrics.ObserveFAQHit()
		lines = append(lines, fmt.Sprintf("Q: %s\nA: %s", r.Question, r.Answer))
	}
	return strings.Join(lines, "\n")
}

func (s *LLMService) extractIntent(ctx context.Context, message string) Intent {
	start := time.Now()
	out, err := s.llm.Complete(ctx, LLMRequest{
		Model:       s.model,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: fmt.Sprintf(intentPrompt, message)}},
		MaxTokens:   200,
		Temperature: 0.3,
	})
	s.metrics.ObserveLLMLatency("intent", time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("intent extraction failed", "error", err)
		return otherIntent()
	}
	return parseIntent(out.Text)
}

func (s *LLMService) bookingData(ctx context.Context, intent Intent) *BookingData {
	data := &BookingData{Intent: intent}
	if s.availability == nil || intent.PreferredDate == nil {
		return data
	}
	apptType := ""
	if intent.AppointmentType != nil {
		apptType = *intent.AppointmentType
	}
	avail, err := s.availability.Availability(ctx, *intent.PreferredDate, apptType)
	if err != nil && apptType != "" && errors.Is(err, bookings.ErrInvalidAppointmentType) {
		avail, err = s.availability.Availability(ctx, *intent.PreferredDate, "")
	}
	if err != nil {
		s.logger.Debug("no availability for booking intent", "date", *intent.PreferredDate, "error", err)
		return data
	}
	data.AvailableSlots = avail.AvailableSlots
	return data
}

// StubService answers without a model. It is used when no LLM is configured.
type StubService struct{}

func NewStubService() *StubService {
	return &StubService{}
}

func (s *StubService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	id := strings.TrimSpace(req.ConversationID)
	if id == "" {
		id = uuid.NewString()
	}
	return &ChatResponse{
		Response:       "The scheduling assistant is not configured yet. You can still book through /api/calendly/book.",
		ConversationID: id,
		Action:         IntentOther,
	}, nil
}

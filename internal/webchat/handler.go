package webchat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/clinic-scheduler/internal/conversation"
	httpmiddleware "github.com/wolfman30/clinic-scheduler/internal/http/middleware"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const (
	turnTimeout     = 60 * time.Second
	maxFrameBytes   = 64 << 10
	genericErrorMsg = "Sorry, something went wrong. Please try again."
	rateLimitedMsg  = "You're sending messages too quickly. Please wait a moment."
)

// TurnLimiter decides whether a client may start another chat turn.
type TurnLimiter interface {
	Allow(key string) bool
}

// Handler serves chat over a WebSocket, one conversation per connection.
type Handler struct {
	service conversation.Service
	logger  *logging.Logger
	limiter TurnLimiter

	mu       sync.Mutex
	sessions map[string]int // conversationID -> open connections
}

// InboundMessage is what the client sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what the server sends.
type OutboundMessage struct {
	Type           string                    `json:"type"` // "session", "typing", "message", "pong", "error"
	ConversationID string                    `json:"conversation_id,omitempty"`
	Response       string                    `json:"response,omitempty"`
	Action         string                    `json:"action,omitempty"`
	Data           *conversation.BookingData `json:"data,omitempty"`
	Text           string                    `json:"text,omitempty"`
	Timestamp      string                    `json:"timestamp,omitempty"`
}

func NewHandler(service conversation.Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:  service,
		logger:   logger,
		sessions: make(map[string]int),
	}
}

// WithLimiter throttles message frames per client IP with the same buckets as
// POST /api/chat.
func (h *Handler) WithLimiter(l TurnLimiter) *Handler {
	h.limiter = l
	return h
}

// HandleWebSocket upgrades GET /api/chat/ws?conversation_id= to a WebSocket.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Server{
		Handler: func(conn *websocket.Conn) { h.serveWS(conn, r) },
	}.ServeHTTP(w, r)
}

// ActiveConnections reports how many sockets are open for a conversation.
func (h *Handler) ActiveConnections(conversationID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[conversationID]
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	conn.MaxPayloadBytes = maxFrameBytes

	clientIP := httpmiddleware.ClientIP(r)
	convID := strings.TrimSpace(r.URL.Query().Get("conversation_id"))
	if convID == "" {
		convID = uuid.NewString()
	}

	if err := websocket.JSON.Send(conn, OutboundMessage{Type: "session", ConversationID: convID}); err != nil {
		return
	}

	h.track(convID, 1)
	defer h.track(convID, -1)
	h.logger.Info("webchat: connection opened", "conversation_id", convID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "conversation_id", convID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			if h.limiter != nil && !h.limiter.Allow(clientIP) {
				h.logger.Warn("webchat: rate limited", "conversation_id", convID, "client_ip", clientIP)
				if err := websocket.JSON.Send(conn, OutboundMessage{Type: "error", ConversationID: convID, Text: rateLimitedMsg}); err != nil {
					return
				}
				continue
			}
			if err := websocket.JSON.Send(conn, h.reply(r.Context(), conn, convID, msg.Text)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) reply(ctx context.Context, conn *websocket.Conn, convID, text string) OutboundMessage {
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

	ctx, cancel := context.WithTimeout(ctx, turnTimeout)
	defer cancel()
	resp, err := h.service.Chat(ctx, conversation.ChatRequest{ConversationID: convID, Message: text})
	if err != nil {
		if !errors.Is(err, conversation.ErrEmptyMessage) {
			h.logger.Error("webchat: chat turn failed", "conversation_id", convID, "error", err)
		}
		return OutboundMessage{Type: "error", ConversationID: convID, Text: genericErrorMsg}
	}
	return OutboundMessage{
		Type:           "message",
		ConversationID: resp.ConversationID,
		Response:       resp.Response,
		Action:         resp.Action,
		Data:           resp.Data,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	}
}

func (h *Handler) track(convID string, delta int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[convID] += delta
	if h.sessions[convID] <= 0 {
		delete(h.sessions, convID)
	}
}

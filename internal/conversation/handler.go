package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

const maxChatBodyBytes = 64 << 10

// FAQIngestor loads the clinic FAQ document into the search index.
type FAQIngestor interface {
	Setup(ctx context.Context) error
	IngestFile(ctx context.Context, location string) (int, error)
}

// Handler wires HTTP requests to the conversation service.
type Handler struct {
	service   Service
	ingestor  FAQIngestor
	faqSource string
	logger    *logging.Logger
}

// NewHandler creates a conversation handler. ingestor may be nil, in which case
// FAQ ingestion answers 503.
func NewHandler(service Service, ingestor FAQIngestor, faqSource string, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, ingestor: ingestor, faqSource: faqSource, logger: logger}
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		h.writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.service.Chat(r.Context(), req)
	switch {
	case errors.Is(err, ErrEmptyMessage):
		h.writeDetail(w, http.StatusBadRequest, "message is required")
		return
	case err != nil:
		h.logger.Error("failed to process chat message", "error", err)
		h.writeDetail(w, http.StatusBadGateway, "assistant unavailable")
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// IngestFAQs handles POST /api/chat/ingest-faqs.
func (h *Handler) IngestFAQs(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		h.writeDetail(w, http.StatusServiceUnavailable, "faq search not configured")
		return
	}
	if err := h.ingestor.Setup(r.Context()); err != nil {
		h.logger.Error("faq setup failed", "error", err)
		h.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	n, err := h.ingestor.IngestFile(r.Context(), h.faqSource)
	if err != nil {
		h.logger.Error("faq ingest failed", "source", h.faqSource, "error", err)
		h.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "FAQs ingested successfully",
		"count":   n,
	})
}

func (h *Handler) writeDetail(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

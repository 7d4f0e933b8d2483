package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	resp *ChatResponse
	err  error
	got  ChatRequest
}

func (f *fakeService) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

type fakeIngestor struct {
	setupErr  error
	ingestErr error
	location  string
}

func (f *fakeIngestor) Setup(ctx context.Context) error { return f.setupErr }

func (f *fakeIngestor) IngestFile(ctx context.Context, location string) (int, error) {
	f.location = location
	return 12, f.ingestErr
}

func postJSON(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandlerChat(t *testing.T) {
	svc := &fakeService{resp: &ChatResponse{Response: "hi", ConversationID: "c1", Action: IntentOther}}
	h := NewHandler(svc, nil, "", nil)

	rec := postJSON(h.Chat, `{"message": "hello", "conversation_id": "c1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c1", svc.got.ConversationID)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "hi", body["response"])
	assert.Equal(t, "other", body["action"])
	assert.Nil(t, body["data"])
}

func TestHandlerChatErrors(t *testing.T) {
	h := NewHandler(&fakeService{err: ErrEmptyMessage}, nil, "", nil)
	assert.Equal(t, http.StatusBadRequest, postJSON(h.Chat, `{"message": ""}`).Code)
	assert.Equal(t, http.StatusBadRequest, postJSON(h.Chat, `{`).Code)

	h = NewHandler(&fakeService{err: errors.New("boom")}, nil, "", nil)
	rec := postJSON(h.Chat, `{"message": "hi"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "assistant unavailable")
}

func TestHandlerIngestFAQs(t *testing.T) {
	ing := &fakeIngestor{}
	h := NewHandler(&fakeService{}, ing, "data/clinic_info.json", nil)

	rec := postJSON(h.IngestFAQs, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data/clinic_info.json", ing.location)
	assert.Contains(t, rec.Body.String(), "FAQs ingested successfully")

	ing.ingestErr = errors.New("faq: no entries")
	rec = postJSON(h.IngestFAQs, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "no entries")

	rec = postJSON(NewHandler(&fakeService{}, nil, "", nil).IngestFAQs, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

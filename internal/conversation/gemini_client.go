package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLLMClient implements LLMClient on the Gemini API.
type GeminiLLMClient struct {
	client  *genai.Client
	modelID string
}

func NewGeminiLLMClient(ctx context.Context, apiKey, modelID string) (*GeminiLLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("conversation: failed to create gemini client: %w", err)
	}
	return &GeminiLLMClient{client: client, modelID: modelID}, nil
}

func (c *GeminiLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	modelID := c.modelID
	if strings.TrimSpace(req.Model) != "" {
		modelID = req.Model
	}
	model := c.client.GenerativeModel(modelID)
	if req.Temperature >= 0 {
		model.SetTemperature(req.Temperature)
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	system := make([]string, 0, len(req.System))
	turns := make([]*genai.Content, 0, len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			system = append(system, block)
		}
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			system = append(system, content)
		case ChatRoleUser:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(content)}})
		case ChatRoleAssistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(content)}})
		default:
			return LLMResponse{}, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}
	if len(turns) == 0 {
		return LLMResponse{}, errors.New("conversation: gemini requires at least one message")
	}
	if len(system) > 0 {
		model.SystemInstruction = genai.NewUserContent(genai.Text(strings.Join(system, "\n\n")))
	}

	cs := model.StartChat()
	cs.History = turns[:len(turns)-1]
	last := turns[len(turns)-1]
	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return LLMResponse{}, errors.New("conversation: gemini returned no candidates")
	}

	candidate := resp.Candidates[0]
	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	result := LLMResponse{
		Text:       strings.TrimSpace(text.String()),
		StopReason: candidate.FinishReason.String(),
	}
	if result.Text == "" {
		return LLMResponse{}, errors.New("conversation: gemini returned empty content")
	}
	if resp.UsageMetadata != nil {
		result.Usage = TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  resp.UsageMetadata.TotalTokenCount,
		}
	}
	return result, nil
}

// Close releases the underlying Gemini client.
func (c *GeminiLLMClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

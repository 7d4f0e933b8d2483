package faq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Embedder turns texts into vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type bedrockInvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockEmbedder calls a Titan text embedding model through InvokeModel.
type BedrockEmbedder struct {
	api     bedrockInvokeModelAPI
	modelID string
}

func NewBedrockEmbedder(api bedrockInvokeModelAPI, modelID string) *BedrockEmbedder {
	if api == nil {
		panic("faq: bedrock runtime client cannot be nil")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "amazon.titan-embed-text-v2:0"
	}
	return &BedrockEmbedder{api: api, modelID: modelID}
}

func (e *BedrockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings := make([][]float32, 0, len(texts))
	for _, text := range texts {
		payload, err := json.Marshal(map[string]any{
			"inputText": text,
		})
		if err != nil {
			return nil, fmt.Errorf("faq: embedding request marshal: %w", err)
		}

		out, err := e.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
			ModelId:     aws.String(e.modelID),
			ContentType: aws.String("application/json"),
			Accept:      aws.String("application/json"),
			Body:        payload,
		})
		if err != nil {
			return nil, fmt.Errorf("faq: bedrock embed: %w", err)
		}

		var decoded struct {
			Embedding []float64 `json:"embedding"`
		}
		if err := json.Unmarshal(out.Body, &decoded); err != nil {
			return nil, fmt.Errorf("faq: embedding response parse: %w", err)
		}
		if len(decoded.Embedding) == 0 {
			return nil, errors.New("faq: embedding response was empty")
		}

		vec := make([]float32, len(decoded.Embedding))
		for i, f := range decoded.Embedding {
			vec[i] = float32(f)
		}
		embeddings = append(embeddings, vec)
	}
	return embeddings, nil
}

// GeminiEmbedder uses the Gemini embedding API.
type GeminiEmbedder struct {
	client  *genai.Client
	modelID string
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelID string) (*GeminiEmbedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("faq: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "text-embedding-004"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("faq: failed to create gemini client: %w", err)
	}
	return &GeminiEmbedder{client: client, modelID: modelID}, nil
}

func (e *GeminiEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	model := e.client.EmbeddingModel(e.modelID)
	batch := model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}
	resp, err := model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("faq: gemini embed: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, errors.New("faq: embedding response size mismatch")
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, errors.New("faq: embedding response was empty")
		}
		out[i] = emb.Values
	}
	return out, nil
}

// Close releases the Gemini client.
func (e *GeminiEmbedder) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

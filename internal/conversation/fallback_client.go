package conversation

import (
	"context"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// FallbackLLMClient tries primary first and falls back to a second provider on error.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackLLMClient returns primary unchanged when fallback is nil.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) LLMClient {
	if fallback == nil {
		return primary
	}
	if primary == nil {
		return fallback
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctx.Err() != nil {
		return LLMResponse{}, err
	}
	c.logger.Warn("primary LLM failed, attempting fallback", "error", err)

	resp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("fallback LLM also failed", "primary_error", err, "fallback_error", fallbackErr)
		return LLMResponse{}, fallbackErr
	}
	return resp, nil
}

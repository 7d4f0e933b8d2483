package conversation

import (
	"context"
	"time"

	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// RetryLLMClient bounds every attempt with a timeout and retries failures a fixed
// number of times. It never retries once the caller's context is done.
type RetryLLMClient struct {
	next       LLMClient
	timeout    time.Duration
	maxRetries int
	logger     *logging.Logger
}

func NewRetryLLMClient(next LLMClient, timeout time.Duration, maxRetries int, logger *logging.Logger) *RetryLLMClient {
	if next == nil {
		panic("conversation: retry client requires an LLM client")
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RetryLLMClient{next: next, timeout: timeout, maxRetries: maxRetries, logger: logger}
}

func (c *RetryLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		resp, err := c.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		if attempt < c.maxRetries {
			c.logger.Warn("llm call failed, retrying", "attempt", attempt+1, "error", err)
		}
	}
	return LLMResponse{}, lastErr
}

func (c *RetryLLMClient) attempt(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if c.timeout <= 0 {
		return c.next.Complete(ctx, req)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.next.Complete(attemptCtx, req)
}

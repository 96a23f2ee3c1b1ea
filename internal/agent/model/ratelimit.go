package model

import (
	"context"
	"fmt"
	"iter"

	"golang.org/x/time/rate"
	"google.golang.org/adk/model"
)

// RateLimitedLLM blocks model calls until the request budget allows them.
type RateLimitedLLM struct {
	next    model.LLM
	limiter *rate.Limiter
}

// NewRateLimited wraps next with a limit of requestsPerMinute, allowing
// bursts of the same size. A non-positive limit returns next unchanged.
func NewRateLimited(next model.LLM, requestsPerMinute int) model.LLM {
	if requestsPerMinute <= 0 || next == nil {
		return next
	}
	return &RateLimitedLLM{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), requestsPerMinute),
	}
}

// Name returns the wrapped model's name.
func (l *RateLimitedLLM) Name() string {
	return l.next.Name()
}

// GenerateContent waits for a token, then delegates.
func (l *RateLimitedLLM) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		if err := l.limiter.Wait(ctx); err != nil {
			yield(nil, fmt.Errorf("model rate limit: %w", err))
			return
		}
		for resp, err := range l.next.GenerateContent(ctx, req, stream) {
			if !yield(resp, err) {
				return
			}
		}
	}
}

package ai

import (
	"context"
)

// AIProvider generates free-text answers over placement data.
// Token usage may be nil when the backend does not report it.
type AIProvider interface {
	GenerateAnalysis(ctx context.Context, prompt string) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

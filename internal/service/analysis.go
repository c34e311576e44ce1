package service

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"placement/internal/ai"
	"placement/internal/errors"
	"placement/internal/observability"
	"placement/internal/placement"
)

// TypeAIAnalysis is the response type of answers written by the language model.
const TypeAIAnalysis = "ai_analysis"

// Fallback reasons.
const (
	ReasonDisabled = "ai_disabled"
	ReasonTimeout  = "timeout"
	ReasonError    = "ai_error"
	ReasonEmpty    = "empty_answer"
)

// Analysis is an answer to a natural-language placement question.
type Analysis struct {
	placement.Response
	Source         string `json:"source"`
	FallbackReason string `json:"fallbackReason,omitempty"`
	DurationMS     int64  `json:"durationMs"`
}

type aiResult struct {
	text  string
	usage *ai.TokenUsage
	err   error
}

// Analyze answers question with the language model when one is configured,
// racing it against the analysis timeout. Timeouts, provider errors and
// empty answers fall back to the rule-based responder, so only an empty
// question or a store failure produce an error.
func (s *Service) Analyze(ctx context.Context, question string) (Analysis, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Analysis{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "question is required", nil)
	}

	start := s.now()
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return Analysis{}, err
	}

	if s.analyzer == nil {
		return s.fallback(ctx, question, snap, ReasonDisabled, start), nil
	}

	text, err := s.callAnalyzer(ctx, placement.BuildAnalysisPrompt(question, snap))
	switch {
	case err != nil && stderrors.Is(err, context.DeadlineExceeded):
		return s.fallback(ctx, question, snap, ReasonTimeout, start), nil
	case err != nil:
		s.logger.LogError(err, "AI analysis failed, using fallback responder")
		return s.fallback(ctx, question, snap, ReasonError, start), nil
	case strings.TrimSpace(text) == "":
		return s.fallback(ctx, question, snap, ReasonEmpty, start), nil
	}

	s.metrics.RecordAnalysis(ctx, observability.SourceAI, "")
	return Analysis{
		Response: placement.Response{
			Type:       TypeAIAnalysis,
			Content:    strings.TrimSpace(text),
			Confidence: placement.ConfidenceHigh,
			Model:      s.model,
		},
		Source:     observability.SourceAI,
		DurationMS: s.now().Sub(start).Milliseconds(),
	}, nil
}

// callAnalyzer runs the provider in its own goroutine and waits for it or the
// analysis timeout, whichever comes first. A timeout is reported as a network
// error with code AI_TIMEOUT wrapping context.DeadlineExceeded; a cancelled
// caller context wraps context.Canceled instead.
func (s *Service) callAnalyzer(ctx context.Context, prompt string) (string, error) {
	timeout := s.analysisTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan aiResult, 1)
	started := time.Now()
	go func() {
		text, usage, err := s.analyzer.GenerateAnalysis(callCtx, prompt)
		done <- aiResult{text: text, usage: usage, err: err}
	}()

	select {
	case res := <-done:
		var in, out, total int64
		if res.usage != nil {
			in, out, total = res.usage.InputTokens, res.usage.OutputTokens, res.usage.TotalTokens
		}
		s.metrics.RecordAICall(ctx, time.Since(started), res.err, in, out, total)
		return res.text, res.err
	case <-callCtx.Done():
		cause := callCtx.Err()
		s.metrics.RecordAICall(ctx, time.Since(started), cause, 0, 0, 0)
		if !stderrors.Is(cause, context.DeadlineExceeded) {
			return "", errors.NewNetworkError(errors.ErrCodeAIServiceFailed, "AI analysis cancelled", cause)
		}
		s.logger.Warn("AI analysis timed out, using fallback responder", "timeout", timeout)
		return "", errors.NewNetworkError(errors.ErrCodeAITimeout, "AI analysis timed out", cause)
	}
}

func (s *Service) fallback(ctx context.Context, question string, snap placement.Snapshot, reason string, start time.Time) Analysis {
	s.metrics.RecordAnalysis(ctx, observability.SourceFallback, reason)
	return Analysis{
		Response:       placement.Respond(question, snap),
		Source:         observability.SourceFallback,
		FallbackReason: reason,
		DurationMS:     s.now().Sub(start).Milliseconds(),
	}
}

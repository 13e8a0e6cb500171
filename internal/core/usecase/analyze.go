package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

var errEmptyAnalysisText = errors.New("journal text is empty")

// AnalyzeMoodUseCase scores journal text. It always yields a complete result:
// when the provider cannot produce one, the neutral fallback is returned and
// the outcome is flagged as degraded.
type AnalyzeMoodUseCase struct {
	provider ports.MoodProvider
	observer ports.PipelineObserver
	logger   *slog.Logger
}

func NewAnalyzeMoodUseCase(provider ports.MoodProvider, observer ports.PipelineObserver, logger *slog.Logger) *AnalyzeMoodUseCase {
	return &AnalyzeMoodUseCase{
		provider: provider,
		observer: observerOrNoop(observer),
		logger:   loggerOrDefault(logger),
	}
}

func (uc *AnalyzeMoodUseCase) Analyze(ctx context.Context, text string) (outcome domain.AnalysisOutcome) {
	started := time.Now()
	defer func() {
		if recovered := recover(); recovered != nil {
			outcome = uc.fallback(fmt.Errorf("analysis panic: %v", recovered))
		}
		uc.observer.ObserveAnalysis(outcome.Degraded, time.Since(started))
	}()

	if strings.TrimSpace(text) == "" {
		return uc.fallback(errEmptyAnalysisText)
	}
	if uc.provider == nil {
		return uc.fallback(errors.New("mood provider is not configured"))
	}

	analysis, err := uc.provider.AnalyzeMood(ctx, text)
	if err != nil {
		return uc.fallback(err)
	}
	return domain.AnalysisOutcome{
		Result:      analysis.Result,
		APIResponse: analysis.APIResponse,
	}
}

func (uc *AnalyzeMoodUseCase) fallback(cause error) domain.AnalysisOutcome {
	uc.logger.Warn("mood_analysis_fallback", "error", cause)
	return domain.AnalysisOutcome{
		Result:   domain.FallbackAnalysis(),
		Degraded: true,
		Reason:   cause.Error(),
	}
}

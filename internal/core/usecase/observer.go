package usecase

import (
	"log/slog"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

type noopObserver struct{}

func (noopObserver) ObserveIngest(domain.DocumentStatus, time.Duration) {}
func (noopObserver) ObserveAnalysis(bool, time.Duration)               {}
func (noopObserver) ObserveEntrySaved()                                 {}
func (noopObserver) ObserveLinkFailure(domain.TaxonomyKind)             {}

func observerOrNoop(observer ports.PipelineObserver) ports.PipelineObserver {
	if observer == nil {
		return noopObserver{}
	}
	return observer
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

const defaultWatchPollInterval = time.Second

// StatusWatcher observes a document until it reaches a terminal status.
// Notifications, the initial read and polling all feed a single state machine.
type StatusWatcher struct {
	docs         ports.DocumentRepository
	notifier     ports.StatusNotifier
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewStatusWatcher builds a watcher. A zero pollInterval disables polling when
// a notifier is available; without a notifier the watcher always polls.
func NewStatusWatcher(docs ports.DocumentRepository, notifier ports.StatusNotifier, pollInterval time.Duration, logger *slog.Logger) *StatusWatcher {
	if pollInterval <= 0 && notifier == nil {
		pollInterval = defaultWatchPollInterval
	}
	return &StatusWatcher{
		docs:         docs,
		notifier:     notifier,
		pollInterval: pollInterval,
		logger:       loggerOrDefault(logger),
	}
}

type observation struct {
	status  domain.DocumentStatus
	text    string
	failure string
	// reread asks the loop to fetch the record before applying a completion.
	reread bool
}

// DocumentWatch is a live observation of one document.
type DocumentWatch struct {
	documentID string
	principal  domain.Principal
	watcher    *StatusWatcher
	onComplete func(text string)

	events  chan observation
	stop    chan struct{}
	done    chan struct{}
	stopped chan struct{}

	sub       ports.Subscription
	closeOnce sync.Once
	fireOnce  sync.Once

	mu      sync.RWMutex
	outcome ports.WatchOutcome
}

// Watch subscribes to status changes for documentID, reads its current state
// and keeps observing until the document is terminal, ctx ends or Close is called.
// onComplete runs at most once, with the extracted text, when the document completes.
func (w *StatusWatcher) Watch(ctx context.Context, principal domain.Principal, documentID string, onComplete func(text string)) (*DocumentWatch, error) {
	if err := principal.Validate(); err != nil {
		return nil, err
	}

	watch := &DocumentWatch{
		documentID: documentID,
		principal:  principal,
		watcher:    w,
		onComplete: onComplete,
		events:     make(chan observation, 8),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		outcome:    ports.WatchOutcome{DocumentID: documentID, Status: domain.StatusProcessing},
	}

	// Subscribe before the initial read so a transition in between is not lost.
	if w.notifier != nil {
		sub, err := w.notifier.SubscribeDocumentStatus(ctx, documentID, watch.handleEvent)
		if err != nil {
			return nil, fmt.Errorf("subscribe to document status: %w", err)
		}
		watch.sub = sub
	}

	doc, err := w.read(ctx, principal, documentID)
	if err != nil {
		watch.release()
		return nil, err
	}

	go watch.run(ctx, observeDocument(doc))
	return watch, nil
}

// WaitForTerminal blocks until the document is completed or failed. A failed
// document is reported through the outcome, not the error.
func (w *StatusWatcher) WaitForTerminal(ctx context.Context, principal domain.Principal, documentID string) (ports.WatchOutcome, error) {
	watch, err := w.Watch(ctx, principal, documentID, nil)
	if err != nil {
		return ports.WatchOutcome{}, err
	}
	defer watch.Close()

	select {
	case <-watch.Done():
	case <-ctx.Done():
	}
	outcome := watch.Outcome()
	if !outcome.Status.IsTerminal() {
		if ctx.Err() != nil {
			return outcome, ctx.Err()
		}
		return outcome, context.Canceled
	}
	return outcome, nil
}

func (w *StatusWatcher) read(ctx context.Context, principal domain.Principal, documentID string) (*domain.Document, error) {
	doc, err := w.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != principal.UserID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "watch document", fmt.Errorf("id=%s", documentID))
	}
	return doc, nil
}

// Done is closed once the watch has finished, either terminally or by Close.
func (d *DocumentWatch) Done() <-chan struct{} {
	return d.done
}

func (d *DocumentWatch) Outcome() ports.WatchOutcome {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.outcome
}

// Close releases the subscription and stops the watch. It is safe to call more than once.
func (d *DocumentWatch) Close() {
	d.closeOnce.Do(func() {
		close(d.stop)
	})
	<-d.stopped
}

func (d *DocumentWatch) handleEvent(event domain.DocumentStatusEvent) {
	if event.DocumentID != d.documentID {
		return
	}
	obs := observation{status: event.Status, failure: event.Error}
	if event.Status == domain.StatusCompleted || (event.Status == domain.StatusFailed && event.Error == "") {
		obs.reread = true
	}
	select {
	case d.events <- obs:
	case <-d.stop:
	default:
		// The loop is busy; polling or a later event will catch up.
		d.watcher.logger.Debug("watch_event_dropped", "document_id", d.documentID, "status", event.Status)
	}
}

// run owns the state machine. The completion callback fires after the
// subscription is released, so it may call Close.
func (d *DocumentWatch) run(ctx context.Context, initial observation) {
	d.loop(ctx, initial)
	close(d.done)
	d.release()
	close(d.stopped)

	outcome := d.Outcome()
	if outcome.Status == domain.StatusCompleted && d.onComplete != nil {
		d.fireOnce.Do(func() {
			d.onComplete(outcome.Text)
		})
	}
}

func (d *DocumentWatch) loop(ctx context.Context, initial observation) {
	if d.apply(ctx, initial) {
		return
	}

	var tick <-chan time.Time
	if d.watcher.pollInterval > 0 {
		ticker := time.NewTicker(d.watcher.pollInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		case obs := <-d.events:
			if d.apply(ctx, obs) {
				return
			}
		case <-tick:
			doc, err := d.watcher.read(ctx, d.principal, d.documentID)
			if err != nil {
				d.watcher.logger.Warn("watch_poll_failed", "document_id", d.documentID, "error", err)
				continue
			}
			if d.apply(ctx, observeDocument(doc)) {
				return
			}
		}
	}
}

// apply advances the state machine and reports whether it reached a terminal state.
// Only the loop goroutine calls it.
func (d *DocumentWatch) apply(ctx context.Context, obs observation) bool {
	current := d.Outcome().Status
	if current.IsTerminal() || !current.CanTransitionTo(obs.status) {
		return current.IsTerminal()
	}

	if obs.reread {
		doc, err := d.watcher.read(ctx, d.principal, d.documentID)
		if err != nil {
			d.watcher.logger.Warn("watch_reread_failed", "document_id", d.documentID, "error", err)
			return false
		}
		obs = observeDocument(doc)
		if !obs.status.IsTerminal() {
			return false
		}
	}

	d.mu.Lock()
	d.outcome.Status = obs.status
	d.outcome.Text = obs.text
	d.outcome.FailureMessage = obs.failure
	d.mu.Unlock()
	return true
}

func (d *DocumentWatch) release() {
	if d.sub == nil {
		return
	}
	if err := d.sub.Unsubscribe(); err != nil {
		d.watcher.logger.Warn("watch_unsubscribe_failed", "document_id", d.documentID, "error", err)
	}
	d.sub = nil
}

func observeDocument(doc *domain.Document) observation {
	obs := observation{status: doc.Status}
	switch doc.Status {
	case domain.StatusCompleted:
		obs.text = doc.ExtractedText()
	case domain.StatusFailed:
		obs.failure = doc.FailureReason
		if obs.failure == "" {
			obs.failure = "document processing failed"
		}
	}
	return obs
}

package nats

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/nats-io/nats.go"
)

func TestStatusEventRoundTrip(t *testing.T) {
	event := domain.DocumentStatusEvent{
		DocumentID: "doc-1",
		OwnerID:    domain.DemoUserID,
		Status:     domain.StatusCompleted,
		OccurredAt: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC),
	}
	raw, err := encodeStatusEvent(event)
	if err != nil {
		t.Fatalf("encodeStatusEvent() error = %v", err)
	}
	got, err := decodeStatusEvent(raw)
	if err != nil {
		t.Fatalf("decodeStatusEvent() error = %v", err)
	}
	if got.DocumentID != event.DocumentID || got.Status != event.Status || got.OwnerID != event.OwnerID || !got.OccurredAt.Equal(event.OccurredAt) {
		t.Fatalf("expected %+v, got %+v", event, got)
	}
}

func TestDecodeStatusEventRejectsIncomplete(t *testing.T) {
	for _, raw := range []string{`{}`, `{"document_id":"x"}`, `garbage`} {
		if _, err := decodeStatusEvent([]byte(raw)); err == nil {
			t.Fatalf("expected error for %s", raw)
		}
	}
}

func TestStatusSubjectEscapesTokens(t *testing.T) {
	if got := statusSubject("documents.status", "a.b*c>"); got != "documents.status.a_b_c_" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("publish: %w", nats.ErrNoServers))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
	plain := errors.New("bad subject")
	if got := wrapTemporaryIfNeeded(plain); got != plain {
		t.Fatalf("expected error unchanged, got %v", got)
	}
}

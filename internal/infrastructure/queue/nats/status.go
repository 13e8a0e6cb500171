package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
	"github.com/nats-io/nats.go"
)

func (b *Bus) PublishDocumentStatus(ctx context.Context, event domain.DocumentStatusEvent) error {
	payload, err := encodeStatusEvent(event)
	if err != nil {
		return err
	}
	return b.publish(ctx, statusSubject(b.statusPrefix, event.DocumentID), payload)
}

// SubscribeDocumentStatus delivers status events for one document until the
// returned subscription is released.
func (b *Bus) SubscribeDocumentStatus(_ context.Context, documentID string, handler func(domain.DocumentStatusEvent)) (ports.Subscription, error) {
	sub, err := b.conn.Subscribe(statusSubject(b.statusPrefix, documentID), func(msg *nats.Msg) {
		event, err := decodeStatusEvent(msg.Data)
		if err != nil {
			b.logger.Warn("status_event_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		handler(event)
	})
	if err != nil {
		return nil, wrapTemporaryIfNeeded(fmt.Errorf("nats subscribe status: %w", err))
	}
	if err := b.conn.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, wrapTemporaryIfNeeded(fmt.Errorf("nats flush: %w", err))
	}
	return subscription{sub: sub}, nil
}

func statusSubject(prefix, documentID string) string {
	// Subjects are dot-delimited; ids are uuids but keep wildcards out regardless.
	id := strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(documentID)
	return prefix + "." + id
}

func encodeStatusEvent(event domain.DocumentStatusEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal status event: %w", err)
	}
	return payload, nil
}

func decodeStatusEvent(raw []byte) (domain.DocumentStatusEvent, error) {
	var event domain.DocumentStatusEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return domain.DocumentStatusEvent{}, fmt.Errorf("unmarshal status event: %w", err)
	}
	if event.DocumentID == "" || event.Status == "" {
		return domain.DocumentStatusEvent{}, fmt.Errorf("status event missing document_id or status")
	}
	return event, nil
}

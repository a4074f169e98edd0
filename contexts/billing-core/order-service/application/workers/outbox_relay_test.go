package workers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"memberhub/contexts/billing-core/order-service/ports"
)

type stubOutbox struct {
	rows   []ports.OutboxMessage
	sent   []string
	failed []string
}

func (s *stubOutbox) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	var pending []ports.OutboxMessage
	for _, row := range s.rows {
		if row.Status != "pending" {
			continue
		}
		pending = append(pending, row)
		if len(pending) >= limit {
			break
		}
	}
	return pending, nil
}

func (s *stubOutbox) MarkOutboxSent(_ context.Context, outboxID string, _ time.Time) error {
	s.setStatus(outboxID, "sent")
	s.sent = append(s.sent, outboxID)
	return nil
}

func (s *stubOutbox) MarkOutboxFailed(_ context.Context, outboxID string, _ time.Time) error {
	s.setStatus(outboxID, "failed")
	s.failed = append(s.failed, outboxID)
	return nil
}

func (s *stubOutbox) setStatus(outboxID string, status string) {
	for idx := range s.rows {
		if s.rows[idx].OutboxID == outboxID {
			s.rows[idx].Status = status
		}
	}
}

type stubPublisher struct {
	published []ports.EventEnvelope
}

func (p *stubPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	p.published = append(p.published, event)
	return nil
}

func TestOutboxRelayParksPoisonRowAndContinues(t *testing.T) {
	validPayload, err := json.Marshal(ports.EventEnvelope{EventID: "evt-2", EventType: "order.completed"})
	if err != nil {
		t.Fatalf("marshal envelope failed: %v", err)
	}
	outbox := &stubOutbox{rows: []ports.OutboxMessage{
		{OutboxID: "out-1", EventType: "order.completed", Payload: []byte("{not json"), Status: "pending"},
		{OutboxID: "out-2", EventType: "order.completed", Payload: validPayload, Status: "pending"},
	}}
	publisher := &stubPublisher{}
	relay := OutboxRelay{Outbox: outbox, Publisher: publisher, BatchSize: 10}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once failed: %v", err)
	}

	if len(publisher.published) != 1 || publisher.published[0].EventID != "evt-2" {
		t.Fatalf("healthy row not published past the poison row: %+v", publisher.published)
	}
	if len(outbox.failed) != 1 || outbox.failed[0] != "out-1" {
		t.Fatalf("poison row not parked: %v", outbox.failed)
	}
	if len(outbox.sent) != 1 || outbox.sent[0] != "out-2" {
		t.Fatalf("healthy row not marked sent: %v", outbox.sent)
	}

	// The next cycle must see an empty queue, not the poison row again.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("parked row republished: %+v", publisher.published)
	}
}

package voice

import (
	"context"
	"errors"
	"testing"
	"time"
)

func endedEvent() WebhookEvent {
	return WebhookEvent{
		Event: EventCallEnded,
		Call: &CallPayload{
			FromNumber:          "+15551234567",
			ToNumber:            "+15557654321",
			CallID:              "call-abc",
			AgentID:             "agent-1",
			ProviderAgentID:     "prov-agent-9",
			DisconnectionReason: "user_hangup",
			Transcript:          "hello",
			StartTimestamp:      1700000000000,
			EndTimestamp:        1700000060000,
		},
	}
}

func TestIngest_SkipsNonActionableEvents(t *testing.T) {
	store := NewMemoryStore()
	store.Link("agent-1", "user-1")
	svc := NewService(store, store, nil)

	for _, ev := range []WebhookEvent{
		{Event: EventCallStarted, Call: &CallPayload{AgentID: "agent-1"}},
		{Event: EventCallAnalyzed, Call: &CallPayload{AgentID: "agent-1"}},
		{Event: EventCallEnded, Call: nil},
		{Event: "something_else", Call: &CallPayload{AgentID: "agent-1"}},
	} {
		res, err := svc.Ingest(context.Background(), ev)
		if err != nil {
			t.Fatalf("event %q: unexpected err: %v", ev.Event, err)
		}
		if !res.Skipped {
			t.Fatalf("event %q: expected skip", ev.Event)
		}
	}
	if len(store.Records) != 0 {
		t.Fatalf("expected no inserts, got %d", len(store.Records))
	}
}

func TestIngest_UnlinkedAgentFails(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, store, nil)

	_, err := svc.Ingest(context.Background(), endedEvent())
	if !errors.Is(err, ErrAgentNotLinked) {
		t.Fatalf("expected ErrAgentNotLinked, got %v", err)
	}
	if len(store.Records) != 0 {
		t.Fatalf("expected no inserts")
	}
}

func TestIngest_AmbiguousAgentFails(t *testing.T) {
	store := NewMemoryStore()
	store.Link("agent-1", "user-1")
	store.Link("agent-1", "user-2")
	svc := NewService(store, store, nil)

	_, err := svc.Ingest(context.Background(), endedEvent())
	if !errors.Is(err, ErrAgentNotLinked) {
		t.Fatalf("expected ErrAgentNotLinked for ambiguous link, got %v", err)
	}
}

func TestIngest_InsertsOneRecordWithConvertedFields(t *testing.T) {
	store := NewMemoryStore()
	store.Link("agent-1", "user-1")
	svc := NewService(store, store, nil)
	now := time.Unix(1700000100, 0).UTC()
	svc.clock = func() time.Time { return now }

	res, err := svc.Ingest(context.Background(), endedEvent())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Skipped || res.Duplicate {
		t.Fatalf("expected clean success, got %+v", res)
	}
	if len(store.Records) != 1 {
		t.Fatalf("expected exactly one insert, got %d", len(store.Records))
	}

	rec := store.Records[0]
	if rec.ID == "" {
		t.Fatalf("expected generated record id")
	}
	if rec.UserID != "user-1" {
		t.Fatalf("expected resolved owner, got %q", rec.UserID)
	}
	if rec.FromNumber != "+15551234567" || rec.ToNumber != "+15557654321" {
		t.Fatalf("unexpected numbers: %q %q", rec.FromNumber, rec.ToNumber)
	}
	if rec.AgentID != "agent-1" || rec.ProviderCallID != "call-abc" || rec.ProviderAgentID != "prov-agent-9" {
		t.Fatalf("unexpected ids: %+v", rec)
	}
	if rec.DisconnectionReason != "user_hangup" || rec.Transcript != "hello" {
		t.Fatalf("unexpected provider fields: %+v", rec)
	}
	if !rec.StartTime.Equal(time.UnixMilli(1700000000000).UTC()) {
		t.Fatalf("unexpected start time: %v", rec.StartTime)
	}
	if !rec.EndTime.Equal(time.UnixMilli(1700000060000).UTC()) {
		t.Fatalf("unexpected end time: %v", rec.EndTime)
	}
	if rec.DurationSeconds() != 60 {
		t.Fatalf("unexpected duration: %d", rec.DurationSeconds())
	}
	if !rec.CreatedAt.Equal(now) {
		t.Fatalf("unexpected created_at: %v", rec.CreatedAt)
	}
}

func TestIngest_StorageFailureSurfacesInsertError(t *testing.T) {
	store := NewMemoryStore()
	store.Link("agent-1", "user-1")
	store.InsertErr = errors.New("connection refused")
	svc := NewService(store, store, nil)

	_, err := svc.Ingest(context.Background(), endedEvent())
	if !errors.Is(err, ErrInsertFailed) {
		t.Fatalf("expected ErrInsertFailed, got %v", err)
	}
}

func TestIngest_RedeliveryWithoutGuardDuplicates(t *testing.T) {
	store := NewMemoryStore()
	store.Link("agent-1", "user-1")
	svc := NewService(store, store, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Ingest(context.Background(), endedEvent()); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}
	// Historical behavior: no dedup key, redelivery inserts a second row.
	if len(store.Records) != 2 {
		t.Fatalf("expected duplicate rows, got %d", len(store.Records))
	}
}

func TestIngest_GuardSuppressesRedelivery(t *testing.T) {
	store := NewMemoryStore()
	store.Link("agent-1", "user-1")
	svc := NewService(store, store, NewMemoryDedup())

	first, err := svc.Ingest(context.Background(), endedEvent())
	if err != nil || first.Duplicate {
		t.Fatalf("first delivery should insert: %+v %v", first, err)
	}
	second, err := svc.Ingest(context.Background(), endedEvent())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !second.Duplicate {
		t.Fatalf("expected duplicate ack")
	}
	if len(store.Records) != 1 {
		t.Fatalf("expected one row, got %d", len(store.Records))
	}
}

func TestIngest_GuardOutageFailsOpen(t *testing.T) {
	store := NewMemoryStore()
	store.Link("agent-1", "user-1")
	guard := NewMemoryDedup()
	guard.Err = errors.New("redis down")
	svc := NewService(store, store, guard)

	res, err := svc.Ingest(context.Background(), endedEvent())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Duplicate || len(store.Records) != 1 {
		t.Fatalf("guard outage should not block inserts")
	}
}

func TestSummary_AggregatesOwnCallsOnly(t *testing.T) {
	store := NewMemoryStore()
	now := time.Unix(1700000000, 0).UTC()
	store.Records = []CallRecord{
		{ID: "r1", UserID: "u1", Transcript: "hi", StartTime: now, EndTime: now.Add(30 * time.Second), CreatedAt: now},
		{ID: "r2", UserID: "u1", StartTime: now, EndTime: now.Add(45 * time.Second), CreatedAt: now},
		{ID: "r3", UserID: "u2", StartTime: now, EndTime: now.Add(10 * time.Second), CreatedAt: now},
	}
	svc := NewService(store, store, nil)

	out, err := svc.Summary(context.Background(), "u1", time.Time{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 2 || out.TotalDurationSeconds != 75 || out.TranscribedCalls != 1 {
		t.Fatalf("unexpected summary: %+v", out)
	}
}

package voice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAgentNotLinked means the agent id resolved to zero or multiple owners.
	// The lookup contract is exactly-one-or-fail; resolution failure is
	// terminal for the event, no retry is attempted.
	ErrAgentNotLinked = errors.New("voice: agent not linked to any user")

	// ErrInsertFailed wraps storage failures on the success path.
	ErrInsertFailed = errors.New("voice: insert failed")

	ErrInvalidRequest = errors.New("voice: invalid request")
)

// OwnerResolver maps a provider agent id to the single owning user.
// Implementations must return ErrAgentNotLinked unless exactly one owner
// matches.
type OwnerResolver interface {
	ResolveOwner(ctx context.Context, agentID string) (string, error)
}

// CallStore is the persistence contract for call records.
// Inserts are append-only; no update or delete methods are provided.
type CallStore interface {
	InsertCall(ctx context.Context, rec CallRecord) error
	ListCalls(ctx context.Context, userID string, since time.Time, limit int) ([]CallRecord, error)
	ListRecentCalls(ctx context.Context, limit int) ([]CallRecord, error)
}

// DedupGuard marks a provider call id as delivered and reports whether this
// is the first delivery. A nil guard disables deduplication, which matches
// the historical behavior: redelivery inserts a duplicate row.
type DedupGuard interface {
	FirstDelivery(ctx context.Context, providerCallID string) (bool, error)
}

type Service struct {
	resolver OwnerResolver
	store    CallStore
	dedup    DedupGuard
	clock    func() time.Time
}

func NewService(resolver OwnerResolver, store CallStore, dedup DedupGuard) *Service {
	return &Service{resolver: resolver, store: store, dedup: dedup, clock: time.Now}
}

// IngestResult describes the terminal state of one webhook delivery.
type IngestResult struct {
	// Skipped is set for non-actionable events (wrong type or missing call).
	// These are acknowledged as success so the provider does not retry.
	Skipped bool

	// Duplicate is set when the dedup guard has already seen this
	// provider call id; the delivery is acked without a second insert.
	Duplicate bool

	Record CallRecord
}

// Ingest runs one delivery to completion:
// filter -> resolve owner -> (dedup) -> insert.
// All paths are terminal after one pass; there are no retries or waiting
// states. Exactly one insert happens on the success path, none otherwise.
func (s *Service) Ingest(ctx context.Context, ev WebhookEvent) (IngestResult, error) {
	if !ev.Actionable() {
		return IngestResult{Skipped: true}, nil
	}

	userID, err := s.resolver.ResolveOwner(ctx, ev.Call.AgentID)
	if err != nil {
		if errors.Is(err, ErrAgentNotLinked) {
			return IngestResult{}, err
		}
		// Lookup infrastructure failures are indistinguishable from a
		// missing link for the caller; keep the cause for operators.
		return IngestResult{}, fmt.Errorf("%w: %v", ErrAgentNotLinked, err)
	}

	if s.dedup != nil && ev.Call.CallID != "" {
		first, derr := s.dedup.FirstDelivery(ctx, ev.Call.CallID)
		if derr == nil && !first {
			return IngestResult{Duplicate: true}, nil
		}
		// Guard failures fail open: a duplicate row is preferable to a
		// dropped call record.
	}

	rec := CallRecord{
		ID:                  uuid.NewString(),
		UserID:              userID,
		FromNumber:          ev.Call.FromNumber,
		ToNumber:            ev.Call.ToNumber,
		AgentID:             ev.Call.AgentID,
		ProviderCallID:      ev.Call.CallID,
		ProviderAgentID:     ev.Call.ProviderAgentID,
		DisconnectionReason: ev.Call.DisconnectionReason,
		Transcript:          ev.Call.Transcript,
		StartTime:           msToTime(ev.Call.StartTimestamp),
		EndTime:             msToTime(ev.Call.EndTimestamp),
		CreatedAt:           s.clock().UTC(),
	}

	if err := s.store.InsertCall(ctx, rec); err != nil {
		return IngestResult{}, fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	return IngestResult{Record: rec}, nil
}

// ListCalls returns the caller's own call history, newest first.
func (s *Service) ListCalls(ctx context.Context, userID string, since time.Time, limit int) ([]CallRecord, error) {
	if userID == "" {
		return nil, ErrInvalidRequest
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.store.ListCalls(ctx, userID, since, limit)
}

// ListRecentCalls returns the newest records across all users (admin view).
func (s *Service) ListRecentCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.store.ListRecentCalls(ctx, limit)
}

// CallsSummary aggregates a user's call history for dashboard cards.
type CallsSummary struct {
	UserID string `json:"user_id"`

	TotalCalls           int `json:"total_calls"`
	TotalDurationSeconds int `json:"total_duration_seconds"`
	TranscribedCalls     int `json:"transcribed_calls"`
}

func (s *Service) Summary(ctx context.Context, userID string, since time.Time) (CallsSummary, error) {
	if userID == "" {
		return CallsSummary{}, ErrInvalidRequest
	}
	rows, err := s.store.ListCalls(ctx, userID, since, 200)
	if err != nil {
		return CallsSummary{}, err
	}

	out := CallsSummary{UserID: userID}
	for _, r := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += r.DurationSeconds()
		if r.Transcript != "" {
			out.TranscribedCalls++
		}
	}
	return out, nil
}

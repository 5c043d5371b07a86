package voice

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore implements OwnerResolver and CallStore on Postgres.
//
// It assumes the following tables exist:
// - agent_links (call_agent_id, user_id) with call_agent_id unique in
//   well-formed data; the resolver still enforces exactly-one in case
//   provisioning ever writes conflicting rows.
// - call_records (insert-only; no dedup constraint on provider_call_id,
//   duplicates are accepted unless the Redis guard is enabled upstream).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ResolveOwner(ctx context.Context, agentID string) (string, error) {
	if agentID == "" {
		return "", ErrAgentNotLinked
	}

	// LIMIT 2 is enough to detect ambiguity without scanning every row.
	const q = `
SELECT user_id
FROM agent_links
WHERE call_agent_id = $1
LIMIT 2
`
	rows, err := s.db.QueryContext(ctx, q, agentID)
	if err != nil {
		return "", fmt.Errorf("agent_links lookup: %w", err)
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return "", fmt.Errorf("agent_links scan: %w", err)
		}
		owners = append(owners, uid)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("agent_links rows: %w", err)
	}
	if len(owners) != 1 {
		return "", ErrAgentNotLinked
	}
	return owners[0], nil
}

func (s *PostgresStore) InsertCall(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (
  id, user_id, from_number, to_number, call_agent_id, provider_call_id,
  provider_agent_id, disconnection_reason, transcript, start_time, end_time, created_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
)
`
	_, err := s.db.ExecContext(ctx, q,
		rec.ID,
		rec.UserID,
		rec.FromNumber,
		rec.ToNumber,
		rec.AgentID,
		rec.ProviderCallID,
		rec.ProviderAgentID,
		rec.DisconnectionReason,
		rec.Transcript,
		rec.StartTime,
		rec.EndTime,
		rec.CreatedAt,
	)
	return err
}

func (s *PostgresStore) ListCalls(ctx context.Context, userID string, since time.Time, limit int) ([]CallRecord, error) {
	const q = `
SELECT id, user_id, from_number, to_number, call_agent_id, provider_call_id,
       provider_agent_id, disconnection_reason, transcript, start_time, end_time, created_at
FROM call_records
WHERE user_id = $1 AND created_at >= $2
ORDER BY created_at DESC
LIMIT $3
`
	rows, err := s.db.QueryContext(ctx, q, userID, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCallRecords(rows)
}

func (s *PostgresStore) ListRecentCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	const q = `
SELECT id, user_id, from_number, to_number, call_agent_id, provider_call_id,
       provider_agent_id, disconnection_reason, transcript, start_time, end_time, created_at
FROM call_records
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCallRecords(rows)
}

func scanCallRecords(rows *sql.Rows) ([]CallRecord, error) {
	out := make([]CallRecord, 0)
	for rows.Next() {
		var r CallRecord
		if err := rows.Scan(
			&r.ID,
			&r.UserID,
			&r.FromNumber,
			&r.ToNumber,
			&r.AgentID,
			&r.ProviderCallID,
			&r.ProviderAgentID,
			&r.DisconnectionReason,
			&r.Transcript,
			&r.StartTime,
			&r.EndTime,
			&r.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

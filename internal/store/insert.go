package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IvanLi-CN/codex-vibe-monitor/internal/quota"
)

// Invocation is a stored row as read back after insertion.
type Invocation struct {
	ID               int64
	InvokeID         string
	OccurredAt       string
	Model            string
	InputTokens      int64
	OutputTokens     int64
	CacheInputTokens int64
	ReasoningTokens  int64
	TotalTokens      int64
	Cost             float64
	Status           string
	ErrorMessage     string
	CreatedAt        string
}

// recordPayload is the normalized projection stored in the payload column,
// convenient for ad-hoc queries. The raw_response column keeps the record
// as received; the two are intentionally separate.
type recordPayload struct {
	Model            string  `json:"model"`
	InputTokens      int64   `json:"inputTokens"`
	OutputTokens     int64   `json:"outputTokens"`
	CacheInputTokens int64   `json:"cacheInputTokens"`
	ReasoningTokens  int64   `json:"reasoningTokens"`
	TotalTokens      int64   `json:"totalTokens"`
	Cost             float64 `json:"cost"`
	Status           string  `json:"status"`
	ErrorMessage     string  `json:"errorMessage"`
}

const insertSQL = `
INSERT OR IGNORE INTO codex_invocations (
  invoke_id, occurred_at, model, input_tokens, output_tokens,
  cache_input_tokens, reasoning_tokens, total_tokens, cost, status,
  error_message, payload, raw_response
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectInsertedSQL = `
SELECT id, invoke_id, occurred_at, model, input_tokens, output_tokens,
       cache_input_tokens, reasoning_tokens, total_tokens, cost, status,
       error_message, created_at
FROM codex_invocations
WHERE invoke_id = ? AND occurred_at = ?
`

// InsertBatch writes the records inside one transaction, in the supplied
// order, keyed on (invoke_id, occurred_at). A record whose key is already
// present is silently skipped. The newly inserted rows are returned in
// insert order; any other failure aborts the whole batch.
func (s *Store) InsertBatch(ctx context.Context, records []quota.Record) ([]Invocation, error) {
	if len(records) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %v", ErrPersist, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: prepare insert: %v", ErrPersist, err)
	}
	defer stmt.Close()

	var inserted []Invocation
	for _, rec := range records {
		payload, err := json.Marshal(recordPayload{
			Model:            rec.Model,
			InputTokens:      rec.InputTokens,
			OutputTokens:     rec.OutputTokens,
			CacheInputTokens: rec.CacheInputTokens,
			ReasoningTokens:  rec.ReasoningTokens,
			TotalTokens:      rec.TotalTokens,
			Cost:             rec.Cost,
			Status:           rec.Status,
			ErrorMessage:     rec.ErrorMessage,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: marshal payload for %s: %v", ErrPersist, rec.RequestID, err)
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal raw record for %s: %v", ErrPersist, rec.RequestID, err)
		}

		res, err := stmt.ExecContext(ctx,
			rec.RequestID,
			rec.RequestTime,
			rec.Model,
			rec.InputTokens,
			rec.OutputTokens,
			rec.CacheInputTokens,
			rec.ReasoningTokens,
			rec.TotalTokens,
			rec.Cost,
			rec.Status,
			rec.ErrorMessage,
			string(payload),
			string(raw),
		)
		if err != nil {
			return nil, fmt.Errorf("%w: insert %s: %v", ErrPersist, rec.RequestID, err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("%w: rows affected for %s: %v", ErrPersist, rec.RequestID, err)
		}
		if affected == 0 {
			continue
		}

		var inv Invocation
		err = tx.QueryRowContext(ctx, selectInsertedSQL, rec.RequestID, rec.RequestTime).Scan(
			&inv.ID,
			&inv.InvokeID,
			&inv.OccurredAt,
			&inv.Model,
			&inv.InputTokens,
			&inv.OutputTokens,
			&inv.CacheInputTokens,
			&inv.ReasoningTokens,
			&inv.TotalTokens,
			&inv.Cost,
			&inv.Status,
			&inv.ErrorMessage,
			&inv.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: read back %s: %v", ErrPersist, rec.RequestID, err)
		}
		inserted = append(inserted, inv)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%w: commit: %v", ErrPersist, err)
	}
	return inserted, nil
}

// Package app wires the configuration, fetcher and store into one run.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/IvanLi-CN/codex-vibe-monitor/internal/config"
	"github.com/IvanLi-CN/codex-vibe-monitor/internal/quota"
	"github.com/IvanLi-CN/codex-vibe-monitor/internal/store"
)

// Result reports what a single run did.
type Result struct {
	Fetched  int
	Inserted int
}

type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
}

func NewRunner(cfg *config.Config, logger *slog.Logger, client *http.Client) *Runner {
	return &Runner{cfg: cfg, logger: logger, client: client}
}

// Run performs one fetch-and-store cycle. An empty fetch returns before the
// database is touched, so the file stays absent or unchanged. There are no
// retries; a failed run is recovered by the next scheduled invocation.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	logger := r.logger.With("run_id", uuid.NewString())

	fetcher := quota.NewFetcher(r.cfg, r.client)
	records, err := fetcher.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetch quota: %w", err)
	}

	res := Result{Fetched: len(records)}
	logger.Info("quota fetched", "records", res.Fetched)
	if res.Fetched == 0 {
		return res, nil
	}

	st, err := store.Open(r.cfg.DatabasePath)
	if err != nil {
		return res, fmt.Errorf("open store: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()

	inserted, err := st.InsertBatch(ctx, records)
	if err != nil {
		return res, fmt.Errorf("persist records: %w", err)
	}
	res.Inserted = len(inserted)

	for _, inv := range inserted {
		logger.Debug("stored invocation",
			"id", inv.ID,
			"invoke_id", inv.InvokeID,
			"occurred_at", inv.OccurredAt,
			"status", inv.Status,
		)
	}
	logger.Info("run complete", "fetched", res.Fetched, "inserted", res.Inserted)
	return res, nil
}

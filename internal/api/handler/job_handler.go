package handler

import (
	"context"

	"talenttrack/internal/config"
	"talenttrack/internal/retry"
	"talenttrack/internal/storage"
	"talenttrack/internal/storage/models"
)

// JobHandler serves the public, merged job listing.
type JobHandler struct {
	store    storage.DataStore
	retryCfg retry.Config
}

// NewJobHandler wires the listing aggregator.
func NewJobHandler(cfg *config.Config, store storage.DataStore) *JobHandler {
	return &JobHandler{
		store:    store,
		retryCfg: retryConfig(&cfg.Retry),
	}
}

// List returns postings from both tables, normalized and sorted by effective
// posting date, newest first. Reads go through the same retry policy as
// writes.
func (h *JobHandler) List(ctx context.Context) ([]models.JobPosting, error) {
	postings, err := retry.Do(ctx, h.retryCfg, func() ([]models.JobPosting, error) {
		return h.store.ListPostings(ctx)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return postings, nil
}

package handler

import (
	"context"

	"talenttrack/internal/apperr"
	"talenttrack/internal/storage"
)

// HealthHandler reports service liveness against the database.
type HealthHandler struct {
	store storage.DataStore
}

// NewHealthHandler wires the health probe.
func NewHealthHandler(store storage.DataStore) *HealthHandler {
	return &HealthHandler{store: store}
}

// Check round-trips the database. A failure surfaces as Unavailable.
func (h *HealthHandler) Check(ctx context.Context) error {
	if err := h.store.HealthCheck(ctx); err != nil {
		return apperr.Unavailable("Service unavailable", "database unreachable")
	}
	return nil
}

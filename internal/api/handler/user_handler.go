package handler

import (
	"context"
	"errors"
	"strings"

	"talenttrack/internal/apperr"
	"talenttrack/internal/config"
	"talenttrack/internal/logger"
	"talenttrack/internal/retry"
	"talenttrack/internal/storage"
	"talenttrack/internal/storage/models"
)

// UserHandler mirrors identity-provider accounts into the local users table.
type UserHandler struct {
	store    storage.DataStore
	retryCfg retry.Config
}

// NewUserHandler wires the user bootstrap flow.
func NewUserHandler(cfg *config.Config, store storage.DataStore) *UserHandler {
	return &UserHandler{
		store:    store,
		retryCfg: retryConfig(&cfg.Retry),
	}
}

// InitUserRequest carries the profile fields from the identity provider.
type InitUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Init returns the local user row for the caller's external identity,
// creating it from the supplied profile on first contact.
func (h *UserHandler) Init(ctx context.Context, req *InitUserRequest, externalUserID string) (*models.User, error) {
	if externalUserID == "" {
		return nil, apperr.Unauthorized()
	}

	user, err := retry.Do(ctx, h.retryCfg, func() (*models.User, error) {
		return h.store.FindUserByExternalID(ctx, externalUserID)
	})
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrRecordNotFound) {
		return nil, mapStoreError(err)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		return nil, apperr.Validation("Email is required", "")
	}

	newUser := &models.User{
		ExternalID: externalUserID,
		Email:      email,
		Name:       strings.TrimSpace(req.Name),
	}
	if _, err := retry.Do(ctx, h.retryCfg, func() (struct{}, error) {
		return struct{}{}, h.store.CreateUser(ctx, newUser)
	}); err != nil {
		if storage.IsDuplicateEntry(err) {
			// A concurrent bootstrap won the insert; the existing row is canonical.
			existing, readErr := retry.Do(ctx, h.retryCfg, func() (*models.User, error) {
				return h.store.FindUserByExternalID(ctx, externalUserID)
			})
			if readErr == nil {
				return existing, nil
			}
			logger.Warn().Err(readErr).Str("external_id", externalUserID).Msg("failed to read back user after duplicate insert")
		}
		return nil, mapStoreError(err)
	}

	logger.Info().Str("user_id", newUser.ID).Str("external_id", externalUserID).Msg("user bootstrapped")
	return newUser, nil
}

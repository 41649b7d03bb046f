package handler

import (
	"context"
	"testing"

	"talenttrack/internal/apperr"
	"talenttrack/internal/storage"
	"talenttrack/internal/storage/models"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitRequiresIdentity(t *testing.T) {
	h := NewUserHandler(testConfig(), &fakeStore{})

	_, err := h.Init(context.Background(), &InitUserRequest{Email: "a@b.com"}, "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestInitReturnsExistingUser(t *testing.T) {
	store := &fakeStore{
		findUserFn: func(externalID string) (*models.User, error) {
			return &models.User{ID: "user-1", ExternalID: externalID, Email: "jane@example.com"}, nil
		},
	}
	h := NewUserHandler(testConfig(), store)

	user, err := h.Init(context.Background(), &InitUserRequest{}, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
}

func TestInitCreatesUserOnFirstContact(t *testing.T) {
	var created *models.User
	store := &fakeStore{
		createUserFn: func(u *models.User) error {
			u.ID = "user-created"
			created = u
			return nil
		},
	}
	h := NewUserHandler(testConfig(), store)

	user, err := h.Init(context.Background(), &InitUserRequest{Email: " jane@example.com ", Name: "Jane"}, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "user-created", user.ID)

	require.NotNil(t, created)
	assert.Equal(t, "ext-1", created.ExternalID)
	assert.Equal(t, "jane@example.com", created.Email)
}

func TestInitRequiresEmailForNewUser(t *testing.T) {
	h := NewUserHandler(testConfig(), &fakeStore{})

	_, err := h.Init(context.Background(), &InitUserRequest{Name: "Jane"}, "ext-1")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "Email is required", appErr.Message)
}

func TestInitDuplicateRaceReadsBack(t *testing.T) {
	calls := 0
	store := &fakeStore{
		findUserFn: func(externalID string) (*models.User, error) {
			calls++
			if calls == 1 {
				return nil, storage.ErrRecordNotFound
			}
			return &models.User{ID: "user-existing", ExternalID: externalID}, nil
		},
		createUserFn: func(u *models.User) error {
			return &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'ext-1' for key 'idx_users_external_id_unique'"}
		},
	}
	h := NewUserHandler(testConfig(), store)

	user, err := h.Init(context.Background(), &InitUserRequest{Email: "jane@example.com"}, "ext-1")
	require.NoError(t, err)
	assert.Equal(t, "user-existing", user.ID)
}

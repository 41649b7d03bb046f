package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"talenttrack/internal/apperr"
	"talenttrack/internal/constants"
	"talenttrack/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() *SubmitApplicationRequest {
	return &SubmitApplicationRequest{
		JobID:     "job-1",
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Phone:     "555-0100",
		Skills:    StringList{"Go", "SQL"},
		ResumeURL: "http://localhost:9000/resumes/resumes/abc.pdf",
	}
}

func postingFixture(id string) *models.JobPosting {
	return &models.JobPosting{
		Source:  models.PostingSourceJob,
		ID:      id,
		Title:   "Backend Engineer",
		Company: "Acme",
	}
}

func TestSubmitValidationOrder(t *testing.T) {
	h := NewApplicationHandler(testConfig(), &fakeStore{}, nil)

	tests := []struct {
		name    string
		mutate  func(*SubmitApplicationRequest)
		message string
	}{
		{"missing job id", func(r *SubmitApplicationRequest) { r.JobID = "" }, "Job ID is required"},
		{"missing resume", func(r *SubmitApplicationRequest) { r.ResumeURL = "" }, "Resume is required"},
		{"blank name", func(r *SubmitApplicationRequest) { r.Name = "   " }, "Name is required"},
		{"missing email", func(r *SubmitApplicationRequest) { r.Email = "" }, "Email is required"},
		{"malformed email", func(r *SubmitApplicationRequest) { r.Email = "not-an-email" }, "Invalid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSubmission()
			tt.mutate(req)

			_, err := h.Submit(context.Background(), req, "")
			require.Error(t, err)

			var appErr *apperr.Error
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestSubmitAnonymousUsesSystemUser(t *testing.T) {
	var createdApplication *models.Application
	store := &fakeStore{
		resolvePostingFn: func(id string) (*models.JobPosting, error) {
			return postingFixture(id), nil
		},
		ensureSystemUserFn: func() (*models.User, error) {
			return &models.User{ID: "system-user", ExternalID: constants.SystemUserExternalID}, nil
		},
		createApplicationFn: func(a *models.Application) error {
			a.ID = "application-1"
			createdApplication = a
			return nil
		},
	}
	publisher := &fakePublisher{}
	h := NewApplicationHandler(testConfig(), store, publisher)

	resp, err := h.Submit(context.Background(), validSubmission(), "")
	require.NoError(t, err)

	assert.Equal(t, "Application submitted successfully", resp.Message)
	assert.Equal(t, "application-1", resp.ApplicationID)

	require.NotNil(t, createdApplication)
	assert.Equal(t, "system-user", createdApplication.UserID)
	assert.Equal(t, constants.StatusPending, createdApplication.Status)
	assert.Equal(t, "candidate-1", createdApplication.CandidateID)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, "application.submitted", publisher.events[0].routingKey)
}

func TestSubmitUnknownJob(t *testing.T) {
	h := NewApplicationHandler(testConfig(), &fakeStore{}, nil)

	_, err := h.Submit(context.Background(), validSubmission(), "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
	assert.Equal(t, "Job not found", appErr.Message)
}

func TestSubmitAuthenticatedUnknownUser(t *testing.T) {
	store := &fakeStore{
		resolvePostingFn: func(id string) (*models.JobPosting, error) {
			return postingFixture(id), nil
		},
	}
	h := NewApplicationHandler(testConfig(), store, nil)

	_, err := h.Submit(context.Background(), validSubmission(), "ext-unknown")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "user reference error", appErr.Message)
}

func TestSubmitRetriesTransientPostingRead(t *testing.T) {
	attempts := 0
	store := &fakeStore{
		resolvePostingFn: func(id string) (*models.JobPosting, error) {
			attempts++
			if attempts < 3 {
				return nil, errors.New("dial tcp: connection refused")
			}
			return postingFixture(id), nil
		},
		ensureSystemUserFn: func() (*models.User, error) {
			return &models.User{ID: "system-user"}, nil
		},
	}
	h := NewApplicationHandler(testConfig(), store, nil)

	_, err := h.Submit(context.Background(), validSubmission(), "")
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestSubmitTransientExhaustionMapsToUnavailable(t *testing.T) {
	store := &fakeStore{
		resolvePostingFn: func(id string) (*models.JobPosting, error) {
			return nil, errors.New("dial tcp: connection refused")
		},
	}
	h := NewApplicationHandler(testConfig(), store, nil)

	_, err := h.Submit(context.Background(), validSubmission(), "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUnavailable, appErr.Kind)
	assert.Equal(t, "Database connection error", appErr.Message)
}

func TestSubmitPublishFailureDoesNotFailRequest(t *testing.T) {
	store := &fakeStore{
		resolvePostingFn: func(id string) (*models.JobPosting, error) {
			return postingFixture(id), nil
		},
	}
	h := NewApplicationHandler(testConfig(), store, &fakePublisher{err: errors.New("broker down")})

	_, err := h.Submit(context.Background(), validSubmission(), "")
	require.NoError(t, err)
}

func TestListRequiresIdentity(t *testing.T) {
	h := NewApplicationHandler(testConfig(), &fakeStore{}, nil)

	_, err := h.List(context.Background(), "", "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestListAttachesPostings(t *testing.T) {
	store := &fakeStore{
		findUserFn: func(externalID string) (*models.User, error) {
			return &models.User{ID: "user-1", ExternalID: externalID}, nil
		},
		listApplicationsFn: func(userID, jobID string) ([]models.Application, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "job-1", jobID)
			return []models.Application{
				{ID: "app-1", JobID: "job-1", CreatedAt: time.Now()},
				{ID: "app-2", JobID: "job-1"},
			}, nil
		},
		postingsByIDsFn: func(ids []string) (map[string]models.JobPosting, error) {
			assert.Equal(t, []string{"job-1"}, ids)
			return map[string]models.JobPosting{"job-1": *postingFixture("job-1")}, nil
		},
	}
	h := NewApplicationHandler(testConfig(), store, nil)

	applications, err := h.List(context.Background(), "ext-1", "job-1")
	require.NoError(t, err)
	require.Len(t, applications, 2)
	require.NotNil(t, applications[0].Job)
	assert.Equal(t, "Backend Engineer", applications[0].Job.Title)
	require.NotNil(t, applications[1].Job)
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	store := &fakeStore{
		findUserFn: func(externalID string) (*models.User, error) {
			return &models.User{ID: "user-1"}, nil
		},
	}
	h := NewApplicationHandler(testConfig(), store, nil)

	_, err := h.UpdateStatus(context.Background(), "ext-1", "app-1", "ARCHIVED")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, "Invalid status", appErr.Message)
}

func TestUpdateStatusUnknownApplication(t *testing.T) {
	store := &fakeStore{
		findUserFn: func(externalID string) (*models.User, error) {
			return &models.User{ID: "user-1"}, nil
		},
	}
	h := NewApplicationHandler(testConfig(), store, nil)

	_, err := h.UpdateStatus(context.Background(), "ext-1", "app-missing", constants.StatusReviewed)
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindNotFound, appErr.Kind)
}

func TestUpdateStatusOverwrites(t *testing.T) {
	store := &fakeStore{
		findUserFn: func(externalID string) (*models.User, error) {
			return &models.User{ID: "user-1"}, nil
		},
		updateStatusFn: func(id, status string) (*models.Application, error) {
			return &models.Application{ID: id, Status: status}, nil
		},
	}
	h := NewApplicationHandler(testConfig(), store, nil)

	application, err := h.UpdateStatus(context.Background(), "ext-1", "app-1", constants.StatusShortlisted)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusShortlisted, application.Status)
}

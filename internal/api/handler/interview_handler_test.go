package handler

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"talenttrack/internal/apperr"
	"talenttrack/internal/storage"
	"talenttrack/internal/storage/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleRequest(ids ...string) *ScheduleInterviewsRequest {
	return &ScheduleInterviewsRequest{
		ApplicationIDs: ids,
		ScheduledFor:   time.Date(2026, 9, 15, 14, 0, 0, 0, time.UTC),
	}
}

func schedulerStore() *fakeStore {
	return &fakeStore{
		findUserFn: func(externalID string) (*models.User, error) {
			return &models.User{ID: "user-1", ExternalID: externalID}, nil
		},
		getApplicationFn: func(id string) (*models.Application, error) {
			return &models.Application{
				ID:          id,
				CandidateID: "candidate-1",
				Candidate:   &models.Candidate{ID: "candidate-1", Email: "jane@example.com", Name: "Jane"},
			}, nil
		},
	}
}

func TestScheduleRequiresIdentity(t *testing.T) {
	h := NewInterviewHandler(testConfig(), &fakeStore{}, nil)

	_, err := h.Schedule(context.Background(), scheduleRequest("app-1"), "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestScheduleValidation(t *testing.T) {
	h := NewInterviewHandler(testConfig(), schedulerStore(), nil)

	_, err := h.Schedule(context.Background(), &ScheduleInterviewsRequest{ScheduledFor: time.Now()}, "ext-1")
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Application IDs are required", appErr.Message)

	_, err = h.Schedule(context.Background(), &ScheduleInterviewsRequest{ApplicationIDs: []string{"app-1"}}, "ext-1")
	require.Error(t, err)
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Scheduled time is required", appErr.Message)
}

func TestScheduleCreatesInterviewPerApplication(t *testing.T) {
	store := schedulerStore()
	var created []*models.Interview
	store.createInterviewFn = func(i *models.Interview) error {
		i.ID = "interview-" + i.ApplicationID
		created = append(created, i)
		return nil
	}
	publisher := &fakePublisher{}
	h := NewInterviewHandler(testConfig(), store, publisher)

	interviews, err := h.Schedule(context.Background(), scheduleRequest("app-1", "app-2"), "ext-1")
	require.NoError(t, err)
	require.Len(t, interviews, 2)
	require.Len(t, created, 2)

	assert.Equal(t, 60, interviews[0].Duration)
	assert.Equal(t, "user-1", interviews[0].UserID)
	assert.Equal(t, "candidate-1", interviews[0].CandidateID)

	require.Len(t, publisher.events, 2)
	assert.Equal(t, "interview.scheduled", publisher.events[0].routingKey)
}

func TestScheduleSkipsMissingApplications(t *testing.T) {
	store := schedulerStore()
	store.getApplicationFn = func(id string) (*models.Application, error) {
		if id == "app-missing" {
			return nil, storage.ErrRecordNotFound
		}
		return &models.Application{ID: id, CandidateID: "candidate-1"}, nil
	}
	h := NewInterviewHandler(testConfig(), store, nil)

	interviews, err := h.Schedule(context.Background(), scheduleRequest("app-missing", "app-1"), "ext-1")
	require.NoError(t, err)
	require.Len(t, interviews, 1)
	assert.Equal(t, "app-1", interviews[0].ApplicationID)
}

func TestSchedulePerIDFailureDoesNotAffectSiblings(t *testing.T) {
	store := schedulerStore()
	store.createInterviewFn = func(i *models.Interview) error {
		if i.ApplicationID == "app-bad" {
			return errors.New("insert failed")
		}
		i.ID = "interview-1"
		return nil
	}
	h := NewInterviewHandler(testConfig(), store, nil)

	interviews, err := h.Schedule(context.Background(), scheduleRequest("app-bad", "app-1"), "ext-1")
	require.NoError(t, err)
	require.Len(t, interviews, 1)
	assert.Equal(t, "app-1", interviews[0].ApplicationID)
}

func TestScheduleMeetingURLDeterministic(t *testing.T) {
	slot := time.Date(2026, 9, 15, 14, 0, 0, 0, time.UTC)

	first := meetingURL("app-1", slot)
	second := meetingURL("app-1", slot)
	assert.Equal(t, first, second)

	other := meetingURL("app-2", slot)
	assert.NotEqual(t, first, other)

	ref := meetingReference("app-1", slot)
	assert.Len(t, ref, 10)
	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{10}$`), ref)
	assert.Equal(t, "https://meet.google.com/"+ref, first)

	// The same instant in another zone yields the same reference.
	shifted := slot.In(time.FixedZone("UTC+8", 8*3600))
	assert.Equal(t, ref, meetingReference("app-1", shifted))
}

func TestScheduleHonorsExplicitDuration(t *testing.T) {
	store := schedulerStore()
	h := NewInterviewHandler(testConfig(), store, nil)

	req := scheduleRequest("app-1")
	req.Duration = 45
	interviews, err := h.Schedule(context.Background(), req, "ext-1")
	require.NoError(t, err)
	require.Len(t, interviews, 1)
	assert.Equal(t, 45, interviews[0].Duration)
}

func TestListInterviewsRequiresIdentity(t *testing.T) {
	h := NewInterviewHandler(testConfig(), &fakeStore{}, nil)

	_, err := h.List(context.Background(), "")
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindUnauthorized, appErr.Kind)
}

func TestListInterviewsAttachesPostings(t *testing.T) {
	store := schedulerStore()
	store.listInterviewsFn = func(userID string) ([]models.Interview, error) {
		assert.Equal(t, "user-1", userID)
		return []models.Interview{
			{ID: "interview-1", Application: &models.Application{ID: "app-1", JobID: "job-1"}},
			{ID: "interview-2"},
		}, nil
	}
	store.postingsByIDsFn = func(ids []string) (map[string]models.JobPosting, error) {
		assert.Equal(t, []string{"job-1"}, ids)
		return map[string]models.JobPosting{"job-1": {ID: "job-1", Title: "Backend Engineer"}}, nil
	}
	h := NewInterviewHandler(testConfig(), store, nil)

	interviews, err := h.List(context.Background(), "ext-1")
	require.NoError(t, err)
	require.Len(t, interviews, 2)
	require.NotNil(t, interviews[0].Application.Job)
	assert.Equal(t, "Backend Engineer", interviews[0].Application.Job.Title)
	assert.Nil(t, interviews[1].Application)
}

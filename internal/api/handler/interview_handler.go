package handler

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"talenttrack/internal/apperr"
	"talenttrack/internal/config"
	"talenttrack/internal/constants"
	"talenttrack/internal/logger"
	"talenttrack/internal/retry"
	"talenttrack/internal/storage"
	"talenttrack/internal/storage/models"
)

// InterviewHandler schedules interviews and lists them per scheduler.
type InterviewHandler struct {
	store    storage.DataStore
	events   eventEmitter
	retryCfg retry.Config

	interviewRoutingKey string
}

// NewInterviewHandler wires the interview flows. publisher may be nil.
func NewInterviewHandler(cfg *config.Config, store storage.DataStore, publisher storage.EventPublisher) *InterviewHandler {
	return &InterviewHandler{
		store:               store,
		events:              eventEmitter{publisher: publisher},
		retryCfg:            retryConfig(&cfg.Retry),
		interviewRoutingKey: cfg.RabbitMQ.InterviewRoutingKey,
	}
}

// ScheduleInterviewsRequest batches interview creation over a set of
// applications sharing one slot.
type ScheduleInterviewsRequest struct {
	ApplicationIDs []string  `json:"applicationIds"`
	ScheduledFor   time.Time `json:"scheduledFor"`
	Duration       int       `json:"duration"`
	Notes          string    `json:"notes"`
}

// Schedule creates one interview per application ID. Missing applications are
// skipped with a warning; a failure on one ID never affects its siblings.
// Each insert and its application's status flip commit atomically.
func (h *InterviewHandler) Schedule(ctx context.Context, req *ScheduleInterviewsRequest, externalUserID string) ([]models.Interview, error) {
	if externalUserID == "" {
		return nil, apperr.Unauthorized()
	}
	if len(req.ApplicationIDs) == 0 {
		return nil, apperr.Validation("Application IDs are required", "")
	}
	if req.ScheduledFor.IsZero() {
		return nil, apperr.Validation("Scheduled time is required", "")
	}
	duration := req.Duration
	if duration <= 0 {
		duration = constants.DefaultInterviewDuration
	}

	scheduler, err := retry.Do(ctx, h.retryCfg, func() (*models.User, error) {
		return h.store.FindUserByExternalID(ctx, externalUserID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, apperr.Validation("user reference error", "")
		}
		return nil, mapStoreError(err)
	}

	created := make([]models.Interview, 0, len(req.ApplicationIDs))
	for _, applicationID := range req.ApplicationIDs {
		application, err := retry.Do(ctx, h.retryCfg, func() (*models.Application, error) {
			return h.store.GetApplicationWithCandidate(ctx, applicationID)
		})
		if err != nil {
			if errors.Is(err, storage.ErrRecordNotFound) {
				logger.Warn().Str("application_id", applicationID).Msg("application not found, skipping interview")
				continue
			}
			logger.Error().Err(err).Str("application_id", applicationID).Msg("failed to load application, skipping interview")
			continue
		}

		interview := models.Interview{
			ApplicationID: application.ID,
			CandidateID:   application.CandidateID,
			UserID:        scheduler.ID,
			ScheduledFor:  req.ScheduledFor,
			Duration:      duration,
			MeetingURL:    meetingURL(application.ID, req.ScheduledFor),
			Notes:         req.Notes,
		}
		if _, err := retry.Do(ctx, h.retryCfg, func() (struct{}, error) {
			return struct{}{}, h.store.CreateInterview(ctx, &interview)
		}); err != nil {
			logger.Error().Err(err).Str("application_id", applicationID).Msg("failed to create interview, skipping")
			continue
		}

		created = append(created, interview)

		payload := map[string]interface{}{
			"interviewId":   interview.ID,
			"applicationId": application.ID,
			"candidateId":   application.CandidateID,
			"scheduledFor":  req.ScheduledFor,
			"meetingUrl":    interview.MeetingURL,
		}
		if application.Candidate != nil {
			payload["candidateEmail"] = application.Candidate.Email
			payload["candidateName"] = application.Candidate.Name
		}
		h.events.emit(ctx, h.interviewRoutingKey, payload)
	}

	return created, nil
}

// List returns the interviews scheduled by the caller, earliest first, with
// application, posting, candidate, and scheduler attached.
func (h *InterviewHandler) List(ctx context.Context, externalUserID string) ([]models.Interview, error) {
	if externalUserID == "" {
		return nil, apperr.Unauthorized()
	}
	scheduler, err := retry.Do(ctx, h.retryCfg, func() (*models.User, error) {
		return h.store.FindUserByExternalID(ctx, externalUserID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, apperr.Validation("user reference error", "")
		}
		return nil, mapStoreError(err)
	}

	interviews, err := retry.Do(ctx, h.retryCfg, func() ([]models.Interview, error) {
		return h.store.ListInterviewsByUser(ctx, scheduler.ID)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := h.attachPostings(ctx, interviews); err != nil {
		return nil, err
	}
	return interviews, nil
}

func (h *InterviewHandler) attachPostings(ctx context.Context, interviews []models.Interview) error {
	seen := make(map[string]bool)
	var ids []string
	for _, interview := range interviews {
		if interview.Application != nil && !seen[interview.Application.JobID] {
			seen[interview.Application.JobID] = true
			ids = append(ids, interview.Application.JobID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	postings, err := retry.Do(ctx, h.retryCfg, func() (map[string]models.JobPosting, error) {
		return h.store.PostingsByIDs(ctx, ids)
	})
	if err != nil {
		return mapStoreError(err)
	}

	for i := range interviews {
		if interviews[i].Application == nil {
			continue
		}
		if posting, ok := postings[interviews[i].Application.JobID]; ok {
			p := posting
			interviews[i].Application.Job = &p
		}
	}
	return nil
}

// meetingURL derives the meeting link deterministically from the application
// and the slot, so re-scheduling the same pair lands on the same room.
func meetingURL(applicationID string, scheduledFor time.Time) string {
	return fmt.Sprintf("https://meet.google.com/%s", meetingReference(applicationID, scheduledFor))
}

// meetingReference hashes (applicationID, scheduledFor) and renders the first
// 10 usable characters as a lowercase room reference.
func meetingReference(applicationID string, scheduledFor time.Time) string {
	sum := sha256.Sum256([]byte(applicationID + "|" + scheduledFor.UTC().Format(time.RFC3339)))
	encoded := strings.ToLower(base64.RawURLEncoding.EncodeToString(sum[:]))

	var b strings.Builder
	for _, r := range encoded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == 10 {
				break
			}
		}
	}
	return b.String()
}

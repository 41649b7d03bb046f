package handler

import (
	"context"
	"errors"
	"strings"

	"talenttrack/internal/apperr"
	"talenttrack/internal/config"
	"talenttrack/internal/constants"
	"talenttrack/internal/logger"
	"talenttrack/internal/retry"
	"talenttrack/internal/storage"
	"talenttrack/internal/storage/models"
	"talenttrack/pkg/utils"
)

// ApplicationHandler covers the submission pipeline and the review surface.
type ApplicationHandler struct {
	store    storage.DataStore
	events   eventEmitter
	retryCfg retry.Config

	submittedRoutingKey string
}

// NewApplicationHandler wires the application flows. publisher may be nil.
func NewApplicationHandler(cfg *config.Config, store storage.DataStore, publisher storage.EventPublisher) *ApplicationHandler {
	return &ApplicationHandler{
		store:               store,
		events:              eventEmitter{publisher: publisher},
		retryCfg:            retryConfig(&cfg.Retry),
		submittedRoutingKey: cfg.RabbitMQ.SubmittedRoutingKey,
	}
}

// SubmitApplicationRequest is the submission payload. Skills accepts a list
// or a bare string.
type SubmitApplicationRequest struct {
	JobID       string     `json:"jobId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Phone       string     `json:"phone"`
	Skills      StringList `json:"skills"`
	Experience  string     `json:"experience"`
	ResumeURL   string     `json:"resumeUrl"`
	CoverLetter string     `json:"coverLetter"`
	MatchScore  int        `json:"matchScore"`
}

// SubmitApplicationResponse acknowledges a created application.
type SubmitApplicationResponse struct {
	Message       string `json:"message"`
	ApplicationID string `json:"applicationId"`
}

// Submit runs the full pipeline: validate, resolve the posting, upsert the
// candidate, resolve the acting user, create the PENDING application. Every
// store operation goes through the retry wrapper.
func (h *ApplicationHandler) Submit(ctx context.Context, req *SubmitApplicationRequest, externalUserID string) (*SubmitApplicationResponse, error) {
	if err := validateSubmission(req); err != nil {
		return nil, err
	}

	posting, err := retry.Do(ctx, h.retryCfg, func() (*models.JobPosting, error) {
		return h.store.ResolvePosting(ctx, req.JobID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, apperr.NotFound("Job not found", "")
		}
		return nil, mapStoreError(err)
	}

	candidate := &models.Candidate{
		Email:      strings.TrimSpace(req.Email),
		Name:       strings.TrimSpace(req.Name),
		Phone:      req.Phone,
		Skills:     utils.ConvertArrayToJSON([]string(req.Skills)),
		Experience: req.Experience,
		ResumeURL:  req.ResumeURL,
	}
	savedCandidate, err := retry.Do(ctx, h.retryCfg, func() (*models.Candidate, error) {
		return h.store.UpsertCandidateByEmail(ctx, candidate)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	actingUser, err := h.resolveActingUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	application := &models.Application{
		JobID:       posting.ID,
		CandidateID: savedCandidate.ID,
		UserID:      actingUser.ID,
		ResumeURL:   req.ResumeURL,
		CoverLetter: req.CoverLetter,
		MatchScore:  req.MatchScore,
		Status:      constants.StatusPending,
	}
	if _, err := retry.Do(ctx, h.retryCfg, func() (struct{}, error) {
		return struct{}{}, h.store.CreateApplication(ctx, application)
	}); err != nil {
		return nil, mapApplicationWriteError(err)
	}

	logger.Info().
		Str("application_id", application.ID).
		Str("job_id", posting.ID).
		Str("candidate_id", savedCandidate.ID).
		Msg("application submitted")

	h.events.emit(ctx, h.submittedRoutingKey, map[string]interface{}{
		"applicationId":  application.ID,
		"jobId":          posting.ID,
		"jobTitle":       posting.Title,
		"candidateId":    savedCandidate.ID,
		"candidateEmail": savedCandidate.Email,
		"candidateName":  savedCandidate.Name,
		"skills":         utils.JSONToArray(savedCandidate.Skills),
	})

	return &SubmitApplicationResponse{
		Message:       "Application submitted successfully",
		ApplicationID: application.ID,
	}, nil
}

func validateSubmission(req *SubmitApplicationRequest) error {
	if req.JobID == "" {
		return apperr.Validation("Job ID is required", "")
	}
	if req.ResumeURL == "" {
		return apperr.Validation("Resume is required", "")
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperr.Validation("Name is required", "")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return apperr.Validation("Email is required", "")
	}
	if !emailPattern.MatchString(email) {
		return apperr.Validation("Invalid email address", "")
	}
	return nil
}

// resolveActingUser attributes the submission: an authenticated caller must
// exist in the users table, anonymous submissions fall to the system user.
func (h *ApplicationHandler) resolveActingUser(ctx context.Context, externalUserID string) (*models.User, error) {
	if externalUserID != "" {
		user, err := retry.Do(ctx, h.retryCfg, func() (*models.User, error) {
			return h.store.FindUserByExternalID(ctx, externalUserID)
		})
		if err != nil {
			if errors.Is(err, storage.ErrRecordNotFound) {
				return nil, apperr.Validation("user reference error", "")
			}
			return nil, mapStoreError(err)
		}
		return user, nil
	}

	user, err := retry.Do(ctx, h.retryCfg, func() (*models.User, error) {
		return h.store.EnsureSystemUser(ctx)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return user, nil
}

// mapApplicationWriteError distinguishes the two FK targets of the
// applications table by the violated constraint.
func mapApplicationWriteError(err error) error {
	if storage.IsForeignKeyViolation(err) {
		if strings.Contains(strings.ToLower(err.Error()), "user") {
			return apperr.Validation("user reference error", "")
		}
		return apperr.Validation("Invalid job ID", "")
	}
	return mapStoreError(err)
}

// List returns the caller's applications newest first, optionally filtered by
// posting, with candidate and posting data attached.
func (h *ApplicationHandler) List(ctx context.Context, externalUserID, jobID string) ([]models.Application, error) {
	user, err := h.requireUser(ctx, externalUserID)
	if err != nil {
		return nil, err
	}

	applications, err := retry.Do(ctx, h.retryCfg, func() ([]models.Application, error) {
		return h.store.ListApplicationsByUser(ctx, user.ID, jobID)
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	if err := h.attachPostings(ctx, applications); err != nil {
		return nil, err
	}
	return applications, nil
}

// UpdateStatus overwrites an application's review status. The status must be
// a known value; no transition graph is enforced.
func (h *ApplicationHandler) UpdateStatus(ctx context.Context, externalUserID, applicationID, status string) (*models.Application, error) {
	if _, err := h.requireUser(ctx, externalUserID); err != nil {
		return nil, err
	}
	if applicationID == "" {
		return nil, apperr.Validation("Application ID is required", "")
	}
	if !constants.ValidApplicationStatus(status) {
		return nil, apperr.Validation("Invalid status", "unknown application status: "+status)
	}

	application, err := retry.Do(ctx, h.retryCfg, func() (*models.Application, error) {
		return h.store.UpdateApplicationStatus(ctx, applicationID, status)
	})
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, apperr.NotFound("Application not found", "")
		}
		return nil, mapStoreError(err)
	}
	return application, nil
}

// requireUser rejects unauthenticated callers and maps the external identity
// to the local user row.
func (h *ApplicationHandler) requireUser(ctx context.Context, externalUserID string) (*models.User, error) {
	if externalUserID == "" {
		return nil, apperr.Unauthorized()
	}
	user, err := retry.Do(ctx, h.retryCfg, func() (*models.User, error) {
		return h.store.FindUserByExternalID(ctx, externalUserID)
	})
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return nil, apperr.Validation("user reference error", "")
		}
		return nil, mapStoreError(err)
	}
	return user, nil
}

// attachPostings fills the read-time Job field from the unified posting
// lookup, one batch query for the whole page.
func (h *ApplicationHandler) attachPostings(ctx context.Context, applications []models.Application) error {
	if len(applications) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(applications))
	ids := make([]string, 0, len(applications))
	for _, application := range applications {
		if !seen[application.JobID] {
			seen[application.JobID] = true
			ids = append(ids, application.JobID)
		}
	}

	postings, err := retry.Do(ctx, h.retryCfg, func() (map[string]models.JobPosting, error) {
		return h.store.PostingsByIDs(ctx, ids)
	})
	if err != nil {
		return mapStoreError(err)
	}

	for i := range applications {
		if posting, ok := postings[applications[i].JobID]; ok {
			p := posting
			applications[i].Job = &p
		}
	}
	return nil
}

package router

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"talenttrack/internal/api/handler"
	"talenttrack/internal/apperr"
	"talenttrack/internal/config"
	"talenttrack/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
	"go.opentelemetry.io/otel/trace"
)

// externalUserIDKey is where middleware stores the resolved caller identity.
const externalUserIDKey = "externalUserID"

// Handlers bundles everything the routes dispatch to.
type Handlers struct {
	Application *handler.ApplicationHandler
	Interview   *handler.InterviewHandler
	Job         *handler.JobHandler
	Resume      *handler.ResumeHandler
	User        *handler.UserHandler
	Health      *handler.HealthHandler
}

// RegisterRoutes mounts the /api/v1 surface. Routes that require a caller
// identity sit behind the bearer-token middleware; public routes resolve an
// identity opportunistically when a valid token is present.
func RegisterRoutes(h *server.Hertz, cfg *config.Config, handlers Handlers) {
	api := h.Group("/api/v1")

	requireAuth := bearerAuth(cfg.Auth.APIKeys)

	// Public surface
	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		if err := handlers.Health.Check(c); err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api.GET("/jobs", func(c context.Context, ctx *app.RequestContext) {
		postings, err := handlers.Job.List(c)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, postings)
	})

	api.POST("/applications", func(c context.Context, ctx *app.RequestContext) {
		var req handler.SubmitApplicationRequest
		if !bindJSON(c, ctx, &req) {
			return
		}
		resp, err := handlers.Application.Submit(c, &req, optionalIdentity(ctx, cfg.Auth.APIKeys))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusCreated, resp)
	})

	api.POST("/resume/parse", func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "File not found in request"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "Failed to open uploaded file"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "Failed to read uploaded file"})
			return
		}

		result, err := handlers.Resume.Parse(c, data, fileHeader.Filename)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, result)
	})

	// Authenticated surface
	authed := api.Group("", requireAuth)

	authed.GET("/applications", func(c context.Context, ctx *app.RequestContext) {
		applications, err := handlers.Application.List(c, identity(ctx), ctx.Query("jobId"))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, applications)
	})

	authed.PATCH("/applications/:id", func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Status string `json:"status"`
		}
		if !bindJSON(c, ctx, &req) {
			return
		}
		application, err := handlers.Application.UpdateStatus(c, identity(ctx), ctx.Param("id"), req.Status)
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, application)
	})

	authed.POST("/interviews", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ScheduleInterviewsRequest
		if !bindJSON(c, ctx, &req) {
			return
		}
		interviews, err := handlers.Interview.Schedule(c, &req, identity(ctx))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusCreated, interviews)
	})

	authed.GET("/interviews", func(c context.Context, ctx *app.RequestContext) {
		interviews, err := handlers.Interview.List(c, identity(ctx))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, interviews)
	})

	authed.POST("/users/init", func(c context.Context, ctx *app.RequestContext) {
		var req handler.InitUserRequest
		if !bindJSON(c, ctx, &req) {
			return
		}
		user, err := handlers.User.Init(c, &req, identity(ctx))
		if err != nil {
			writeError(c, ctx, err)
			return
		}
		ctx.JSON(consts.StatusOK, user)
	})
}

// bearerAuth validates Bearer tokens against the configured key map and
// stashes the mapped external user ID for the handlers.
func bearerAuth(apiKeys map[string]string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, token string) (bool, error) {
			externalID, ok := apiKeys[token]
			if !ok {
				return false, nil
			}
			ctx.Set(externalUserIDKey, externalID)
			return true, nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "Unauthorized"})
			ctx.Abort()
		}),
	)
}

// identity returns the external user ID placed by the auth middleware.
func identity(ctx *app.RequestContext) string {
	if v, exists := ctx.Get(externalUserIDKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// optionalIdentity resolves a bearer token on a public route. An absent or
// unknown token simply yields no identity.
func optionalIdentity(ctx *app.RequestContext, apiKeys map[string]string) string {
	auth := string(ctx.GetHeader("Authorization"))
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found {
		return ""
	}
	return apiKeys[strings.TrimSpace(token)]
}

// bindJSON decodes the request body, writing a validation error on failure.
func bindJSON(c context.Context, ctx *app.RequestContext, dst interface{}) bool {
	body, err := ctx.Body()
	if err != nil {
		writeError(c, ctx, apperr.Validation("Invalid request body", ""))
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(c, ctx, apperr.Validation("Invalid request body", err.Error()))
		return false
	}
	return true
}

// writeError renders the taxonomy-mapped status and {error, details?} body,
// and records the failure on the active request span.
func writeError(c context.Context, ctx *app.RequestContext, err error) {
	status := apperr.HTTPStatus(err)
	tracing.RecordHTTPError(trace.SpanFromContext(c), err, status)
	ctx.JSON(status, apperr.Payload(err))
}

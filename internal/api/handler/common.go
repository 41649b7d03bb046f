package handler

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"talenttrack/internal/apperr"
	"talenttrack/internal/config"
	"talenttrack/internal/logger"
	"talenttrack/internal/retry"
	"talenttrack/internal/storage"
)

// emailPattern matches a plausible address: something before and after the @,
// with a dot in the domain part. Deliverability is not this service's problem.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// StringList decodes either a JSON string list or a bare string, which gets
// wrapped as a single-element list. Clients send skills both ways.
type StringList []string

func (s *StringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	if strings.TrimSpace(single) == "" {
		*s = nil
		return nil
	}
	*s = StringList{single}
	return nil
}

// retryConfig builds the store retry policy: transient infrastructure
// failures retried with exponential backoff, everything else propagates.
func retryConfig(cfg *config.RetryConfig) retry.Config {
	rc := retry.Config{Retryable: storage.IsTransient}
	if cfg != nil {
		rc.MaxRetries = cfg.MaxRetries
		rc.InitialDelay = time.Duration(cfg.InitialDelayMS) * time.Millisecond
	}
	return rc
}

// mapStoreError converts a store failure that survived retries into the
// client-facing taxonomy. Not-found and FK cases are mapped at call sites
// where the referent is known.
func mapStoreError(err error) error {
	if storage.IsTransient(err) {
		return apperr.Wrap(apperr.KindUnavailable, "Database connection error", err)
	}
	return apperr.Internal("Internal server error", err)
}

// eventEmitter publishes domain events best-effort: a broker failure is
// logged and the request proceeds.
type eventEmitter struct {
	publisher storage.EventPublisher // nil when RabbitMQ is unavailable
}

func (e *eventEmitter) emit(ctx context.Context, routingKey string, payload interface{}) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishJSON(ctx, routingKey, payload); err != nil {
		logger.Warn().Err(err).Str("routing_key", routingKey).Msg("failed to publish domain event")
	}
}

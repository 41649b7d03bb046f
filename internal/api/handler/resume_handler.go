package handler

import (
	"context"

	"talenttrack/internal/processor"
)

// ResumeHandler exposes the resume ingest pipeline over HTTP.
type ResumeHandler struct {
	ingester *processor.ResumeIngester
}

// NewResumeHandler wraps the ingester.
func NewResumeHandler(ingester *processor.ResumeIngester) *ResumeHandler {
	return &ResumeHandler{ingester: ingester}
}

// Parse uploads the file and returns extracted (or fallback) candidate
// fields.
func (h *ResumeHandler) Parse(ctx context.Context, data []byte, filename string) (*processor.IngestResult, error) {
	return h.ingester.Ingest(ctx, data, filename)
}

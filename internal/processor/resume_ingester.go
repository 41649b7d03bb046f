package processor

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"talenttrack/internal/apperr"
	"talenttrack/internal/constants"
	"talenttrack/internal/logger"
	"talenttrack/internal/parser"
	"talenttrack/internal/storage"
	"talenttrack/pkg/utils"

	"github.com/gofrs/uuid/v5"
)

var allowedResumeExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// IngestResult is what a resume upload produces: the durable file URL plus
// extracted (or fallback) candidate fields ready for form prefill.
type IngestResult struct {
	CandidateID string `json:"candidateId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Skills      string `json:"skills"`
	Experience  string `json:"experience"`
	ResumeURL   string `json:"resumeUrl"`
	MatchScore  int    `json:"matchScore"`
	Note        string `json:"note,omitempty"`
	Duplicate   bool   `json:"duplicate,omitempty"`
}

// ResumeIngester uploads resume files and extracts candidate fields from
// them. Extraction failures degrade to a filename-derived fallback rather
// than failing the request.
type ResumeIngester struct {
	objectStore storage.ObjectStorage
	dedup       storage.DedupStore // optional
	extractor   parser.ResumeExtractor
}

// NewResumeIngester wires the ingest pipeline. dedup may be nil when Redis is
// unavailable; objectStore may be nil when MinIO is unavailable, in which case
// every ingest fails with an unavailable error while the rest of the service
// keeps running.
func NewResumeIngester(objectStore storage.ObjectStorage, dedup storage.DedupStore, extractor parser.ResumeExtractor) *ResumeIngester {
	return &ResumeIngester{
		objectStore: objectStore,
		dedup:       dedup,
		extractor:   extractor,
	}
}

// Ingest validates the file type, uploads the bytes, and extracts candidate
// fields. Only the extension gate and the upload can fail the call; every
// extraction problem resolves to the fallback result.
func (p *ResumeIngester) Ingest(ctx context.Context, data []byte, filename string) (*IngestResult, error) {
	if p.objectStore == nil {
		return nil, apperr.Unavailable("Resume upload unavailable", "object storage is not initialized")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedResumeExtensions[ext] {
		return nil, apperr.Validation(
			"unsupported file type",
			fmt.Sprintf("file extension %q is not supported, expected .pdf, .doc or .docx", ext),
		)
	}

	submissionID, err := uuid.NewV7()
	if err != nil {
		return nil, apperr.Internal("failed to generate submission id", err)
	}

	result := &IngestResult{CandidateID: submissionID.String()}

	fileMD5 := utils.CalculateMD5(data)
	result.Duplicate = p.checkDuplicate(ctx, fileMD5)

	resumeURL, err := p.objectStore.UploadResumeFile(ctx, submissionID.String(), ext, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to store resume file: %w", err)
	}
	result.ResumeURL = resumeURL

	p.recordMD5(ctx, fileMD5)

	extracted, err := p.extractor.Extract(ctx, data, filename)
	if err != nil {
		logger.Warn().Err(err).Str("filename", filename).Msg("resume extraction failed, using fallback fields")
		result.Name = FallbackNameFromFilename(filename)
		result.Note = constants.ParseFallbackNote
		return result, nil
	}

	if id := strings.TrimSpace(extracted.CandidateID); id != "" {
		result.CandidateID = id
	}
	result.Name = strings.TrimSpace(extracted.Name)
	result.Email = strings.TrimSpace(extracted.Email)
	result.Phone = strings.TrimSpace(extracted.Phone)
	result.Skills = extracted.Skills.Join()
	result.Experience = strings.TrimSpace(extracted.Experience)
	result.MatchScore = clampScore(extracted.MatchScore)
	return result, nil
}

// checkDuplicate is best-effort: a Redis failure never blocks ingestion.
func (p *ResumeIngester) checkDuplicate(ctx context.Context, fileMD5 string) bool {
	if p.dedup == nil {
		return false
	}
	exists, err := p.dedup.CheckResumeFileMD5Exists(ctx, fileMD5)
	if err != nil {
		logger.Warn().Err(err).Msg("resume dedup check failed, continuing")
		return false
	}
	if exists {
		logger.Info().Str("md5", fileMD5).Msg("byte-identical resume file seen before")
	}
	return exists
}

func (p *ResumeIngester) recordMD5(ctx context.Context, fileMD5 string) {
	if p.dedup == nil {
		return
	}
	if err := p.dedup.AddResumeFileMD5(ctx, fileMD5); err != nil {
		logger.Warn().Err(err).Msg("failed to record resume file md5")
	}
}

// FallbackNameFromFilename derives a human-looking name from the uploaded
// file: extension stripped, underscores and hyphens become spaces, each word
// title-cased. "jane_doe.pdf" becomes "Jane Doe".
func FallbackNameFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)

	words := strings.Fields(base)
	for i, word := range words {
		runes := []rune(strings.ToLower(word))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func clampScore(score float64) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return int(score)
	}
}

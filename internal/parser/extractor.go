package parser

import (
	"context"
	"encoding/json"
	"strings"
)

// ResumeExtractor turns raw resume bytes into structured candidate fields.
// Implementations talk to an extraction service over HTTP or run a local
// subprocess; callers treat both the same way.
type ResumeExtractor interface {
	Extract(ctx context.Context, data []byte, filename string) (*ExtractedResume, error)
}

// ExtractedResume is the structured output of an extraction run. CandidateID
// is the backend's own identifier for the parsed candidate; it may be empty.
type ExtractedResume struct {
	CandidateID string    `json:"candidateId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Skills      SkillList `json:"skills"`
	Experience  string    `json:"experience"`
	MatchScore  float64   `json:"matchScore"`
}

// SkillList decodes either a JSON string list or a single comma-separated
// string; extraction backends are inconsistent about which they emit.
type SkillList []string

func (s *SkillList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = trimAll(list)
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	if joined == "" {
		*s = nil
		return nil
	}
	*s = trimAll(strings.Split(joined, ","))
	return nil
}

// Join renders the skills as a single comma-separated string.
func (s SkillList) Join() string {
	return strings.Join(s, ", ")
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

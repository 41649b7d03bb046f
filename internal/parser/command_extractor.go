package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"talenttrack/internal/logger"
)

// CommandExtractor runs a local extraction subprocess. The resume bytes are
// written to a temp file whose path is appended to the configured command;
// the subprocess prints structured JSON on stdout.
type CommandExtractor struct {
	// Command is the argv prefix, e.g. ["python", "scripts/resume_parser.py"].
	Command []string
	// Timeout bounds a single extraction run.
	Timeout time.Duration
}

var _ ResumeExtractor = (*CommandExtractor)(nil)

// NewCommandExtractor creates a subprocess-backed extractor.
func NewCommandExtractor(command []string, timeout time.Duration) (*CommandExtractor, error) {
	if len(command) == 0 {
		return nil, fmt.Errorf("extraction command cannot be empty")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &CommandExtractor{Command: command, Timeout: timeout}, nil
}

// Extract writes the resume to a temp file, runs the subprocess on it, and
// decodes its stdout. The temp file is removed afterwards whether or not the
// run succeeds.
func (e *CommandExtractor) Extract(ctx context.Context, data []byte, filename string) (*ExtractedResume, error) {
	tmpFile, err := os.CreateTemp("", "resume-*"+filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if removeErr := os.Remove(tmpPath); removeErr != nil && !os.IsNotExist(removeErr) {
			logger.Warn().Err(removeErr).Str("path", tmpPath).Msg("failed to remove temp resume file")
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	args := append(append([]string{}, e.Command[1:]...), tmpPath)
	cmd := exec.CommandContext(runCtx, e.Command[0], args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("extraction subprocess failed: %w", err)
	}

	var result ExtractedResume
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to decode subprocess output: %w", err)
	}
	return &result, nil
}

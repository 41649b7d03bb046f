package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestPostingFromJobFillsDepartment(t *testing.T) {
	created := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	job := Job{
		ID:           "job-1",
		Title:        "Backend Engineer",
		Company:      "Acme",
		Requirements: datatypes.JSON(`["Go","SQL"]`),
		CreatedAt:    created,
	}

	posting := PostingFromJob(job)

	assert.Equal(t, PostingSourceJob, posting.Source)
	assert.Equal(t, "Acme", posting.Company)
	assert.Equal(t, "General", posting.Department)
	assert.Equal(t, []string{"Go", "SQL"}, posting.Requirements)
	assert.Equal(t, created, posting.PostedDate)
}

func TestPostingFromPositionFillsCompany(t *testing.T) {
	posted := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	position := Position{
		ID:         "pos-1",
		Title:      "Data Analyst",
		Department: "Analytics",
		PostedDate: posted,
	}

	posting := PostingFromPosition(position)

	assert.Equal(t, PostingSourcePosition, posting.Source)
	assert.Equal(t, "Our Company", posting.Company)
	assert.Equal(t, "Analytics", posting.Department)
	assert.Equal(t, posted, posting.PostedDate)
}

func TestPostingFreeTextRequirements(t *testing.T) {
	position := Position{
		ID:           "pos-1",
		Requirements: datatypes.JSON(`"3+ years of SQL"`),
	}
	posting := PostingFromPosition(position)
	assert.Equal(t, []string{"3+ years of SQL"}, posting.Requirements)

	empty := PostingFromPosition(Position{ID: "pos-2"})
	assert.Nil(t, empty.Requirements)
}

func TestMergePostingsSortsByEffectiveDate(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	jobs := []Job{
		{ID: "job-old", CreatedAt: base},
		{ID: "job-new", CreatedAt: base.Add(72 * time.Hour)},
	}
	positions := []Position{
		{ID: "pos-mid", PostedDate: base.Add(24 * time.Hour)},
	}

	merged := MergePostings(jobs, positions)

	require.Len(t, merged, 3)
	assert.Equal(t, "job-new", merged[0].ID)
	assert.Equal(t, "pos-mid", merged[1].ID)
	assert.Equal(t, "job-old", merged[2].ID)
}

package models

import (
	"encoding/json"
	"sort"

	"gorm.io/datatypes"
)

const (
	positionCompanyPlaceholder = "Our Company"
	jobDepartmentPlaceholder   = "General"
)

// PostingFromJob normalizes a primary-shape row into the unified read shape.
// Jobs carry no department and use their creation time as the posting date.
func PostingFromJob(job Job) JobPosting {
	return JobPosting{
		Source:       PostingSourceJob,
		ID:           job.ID,
		Title:        job.Title,
		Company:      job.Company,
		Department:   jobDepartmentPlaceholder,
		Location:     job.Location,
		Type:         job.Type,
		Description:  job.Description,
		Requirements: decodeRequirements(job.Requirements),
		CreatedAt:    job.CreatedAt,
		PostedDate:   job.CreatedAt,
	}
}

// PostingFromPosition normalizes a legacy-shape row. Positions carry no
// company, so a fixed placeholder is supplied.
func PostingFromPosition(position Position) JobPosting {
	return JobPosting{
		Source:       PostingSourcePosition,
		ID:           position.ID,
		Title:        position.Title,
		Company:      positionCompanyPlaceholder,
		Department:   position.Department,
		Location:     position.Location,
		Type:         position.Type,
		Description:  position.Description,
		Requirements: decodeRequirements(position.Requirements),
		CreatedAt:    position.CreatedAt,
		PostedDate:   position.PostedDate,
	}
}

// MergePostings normalizes both table shapes, concatenates them, and sorts
// descending by effective posting date.
func MergePostings(jobs []Job, positions []Position) []JobPosting {
	merged := make([]JobPosting, 0, len(jobs)+len(positions))
	for _, job := range jobs {
		merged = append(merged, PostingFromJob(job))
	}
	for _, position := range positions {
		merged = append(merged, PostingFromPosition(position))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].PostedDate.After(merged[j].PostedDate)
	})
	return merged
}

func decodeRequirements(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var requirements []string
	if err := json.Unmarshal(data, &requirements); err != nil {
		// Legacy rows store requirements as free text rather than a list.
		var freeText string
		if err := json.Unmarshal(data, &freeText); err != nil {
			return nil
		}
		if freeText == "" {
			return nil
		}
		return []string{freeText}
	}
	return requirements
}

package constants

// Application review statuses. Transitions are deliberately unconstrained:
// staff may move an application to any known status at any time.
const (
	StatusPending            = "PENDING"
	StatusReviewed           = "REVIEWED"
	StatusShortlisted        = "SHORTLISTED"
	StatusRejected           = "REJECTED"
	StatusInterviewScheduled = "Interview Scheduled"
)

// ValidApplicationStatus reports whether s is a member of the known status set.
func ValidApplicationStatus(s string) bool {
	switch s {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusInterviewScheduled:
		return true
	}
	return false
}

// Sentinel acting user for applications submitted without an authenticated
// identity. Lazily upserted on first use, never deleted.
const (
	SystemUserExternalID = "system"
	SystemUserEmail      = "system@example.com"
	SystemUserName       = "System User"
)

const (
	// PositionStatusOpen is the only Position status surfaced by the listing aggregator.
	PositionStatusOpen = "Open"

	// PositionCompanyPlaceholder fills the company field for positions, which do not carry one.
	PositionCompanyPlaceholder = "Our Company"
	// JobDepartmentPlaceholder fills the department field for jobs, which do not carry one.
	JobDepartmentPlaceholder = "General"
)

const (
	// DefaultInterviewDuration is the interview length in minutes when the request omits one.
	DefaultInterviewDuration = 60

	// ParseFallbackNote is returned when the extraction collaborator fails and the
	// ingester degrades to filename-derived fields.
	ParseFallbackNote = "Automatic parsing failed. Please fill in your details manually."
)

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Job is the primary job-posting shape.
type Job struct {
	ID           string         `gorm:"type:char(36);primaryKey" json:"id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Company      string         `gorm:"type:varchar(255)" json:"company"`
	Location     string         `gorm:"type:varchar(255)" json:"location"`
	Type         string         `gorm:"type:varchar(50)" json:"type"`
	Description  string         `gorm:"type:text" json:"description"`
	Requirements datatypes.JSON `gorm:"type:json" json:"requirements"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"createdAt"`
	UpdatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updatedAt"`
}

func (Job) TableName() string {
	return "jobs"
}

// Position is the secondary, legacy-divergent posting shape. It carries a
// department and an explicit posted date where Job does not.
type Position struct {
	ID           string         `gorm:"type:char(36);primaryKey" json:"id"`
	Title        string         `gorm:"type:varchar(255);not null" json:"title"`
	Department   string         `gorm:"type:varchar(255)" json:"department"`
	Location     string         `gorm:"type:varchar(255)" json:"location"`
	Type         string         `gorm:"type:varchar(50)" json:"type"`
	Description  string         `gorm:"type:text" json:"description"`
	Requirements datatypes.JSON `gorm:"type:json" json:"requirements"`
	Status       string         `gorm:"type:varchar(50);default:'Open';index:idx_positions_status" json:"status"`
	PostedDate   time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"postedDate"`
	CreatedAt    time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"createdAt"`
}

func (Position) TableName() string {
	return "positions"
}

// Posting source tags for the unified read shape.
const (
	PostingSourceJob      = "job"
	PostingSourcePosition = "position"
)

// JobPosting is the tagged-variant read shape covering both posting tables.
// It is produced once at the storage boundary; handlers never see the raw
// tables. Not itself a table.
type JobPosting struct {
	Source       string    `json:"-"`
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Company      string    `json:"company"`
	Department   string    `json:"department"`
	Location     string    `json:"location"`
	Type         string    `json:"type"`
	Description  string    `json:"description"`
	Requirements []string  `json:"requirements"`
	CreatedAt    time.Time `json:"createdAt"`
	// PostedDate is the effective listing date: positions carry their own,
	// jobs fall back to CreatedAt.
	PostedDate time.Time `json:"postedDate"`
}

// Candidate is the applicant, deduplicated by email. Upsert-only: mutable
// fields are overwritten on resubmission, rows are never deleted.
type Candidate struct {
	ID         string         `gorm:"type:char(36);primaryKey" json:"id"`
	Email      string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_candidates_email_unique" json:"email"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Phone      string         `gorm:"type:varchar(50)" json:"phone"`
	Skills     datatypes.JSON `gorm:"type:json" json:"skills"`
	Experience string         `gorm:"type:text" json:"experience"`
	ResumeURL  string         `gorm:"type:varchar(1024)" json:"resumeUrl"`
	CreatedAt  time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"createdAt"`
	UpdatedAt  time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updatedAt"`
}

func (Candidate) TableName() string {
	return "candidates"
}

// User mirrors an identity-provider account. The sentinel system user
// attributes applications submitted without authentication.
type User struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	ExternalID string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_external_id_unique" json:"externalId"`
	Email      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_users_email_unique" json:"email"`
	Name       string    `gorm:"type:varchar(255)" json:"name"`
	CreatedAt  time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Application links a candidate to a posting, attributed to an acting user.
// JobID may reference either posting table, so it carries no FK constraint;
// existence is checked at submission time.
type Application struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	JobID       string    `gorm:"type:char(36);not null;index:idx_applications_job_id" json:"jobId"`
	CandidateID string    `gorm:"type:char(36);not null;index:idx_applications_candidate_id" json:"candidateId"`
	UserID      string    `gorm:"type:char(36);not null;index:idx_applications_user_id" json:"userId"`
	ResumeURL   string    `gorm:"type:varchar(1024);not null" json:"resumeUrl"`
	CoverLetter string    `gorm:"type:text" json:"coverLetter"`
	MatchScore  int       `gorm:"default:0" json:"matchScore"`
	Status      string    `gorm:"type:varchar(50);default:'PENDING';index:idx_applications_status" json:"status"`
	CreatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);index:idx_applications_created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime" json:"updatedAt"`

	Candidate *Candidate `gorm:"foreignKey:CandidateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"candidate,omitempty"`
	User      *User      `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`

	// Job is filled at read time from the unified posting lookup.
	Job *JobPosting `gorm:"-" json:"job,omitempty"`
}

func (Application) TableName() string {
	return "applications"
}

// Interview belongs to one application and denormalizes the candidate
// reference. Created together with the application's status flip inside one
// transaction.
type Interview struct {
	ID            string    `gorm:"type:char(36);primaryKey" json:"id"`
	ApplicationID string    `gorm:"type:char(36);not null;index:idx_interviews_application_id" json:"applicationId"`
	CandidateID   string    `gorm:"type:char(36);not null;index:idx_interviews_candidate_id" json:"candidateId"`
	UserID        string    `gorm:"type:char(36);not null;index:idx_interviews_user_id" json:"userId"`
	ScheduledFor  time.Time `gorm:"type:datetime(6);not null;index:idx_interviews_scheduled_for" json:"scheduledFor"`
	Duration      int       `gorm:"default:60" json:"duration"`
	MeetingURL    string    `gorm:"type:varchar(512)" json:"meetingUrl"`
	Notes         string    `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)" json:"createdAt"`

	Application *Application `gorm:"foreignKey:ApplicationID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"application,omitempty"`
	Candidate   *Candidate   `gorm:"foreignKey:CandidateID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"candidate,omitempty"`
	Scheduler   *User        `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"scheduler,omitempty"`
}

func (Interview) TableName() string {
	return "interviews"
}

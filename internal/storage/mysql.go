package storage

import (
	"context"
	"fmt"
	"time"

	"talenttrack/internal/config"
	"talenttrack/internal/constants"
	"talenttrack/internal/storage/models"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var mysqlTracer = otel.Tracer("talenttrack/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin adds OpenTelemetry spans around GORM operations.
type GormTracingPlugin struct {
	tracer trace.Tracer
	dbName string
}

// Name returns the plugin name.
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize registers before/after callbacks for every CRUD verb.
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()

	hooks := []struct {
		verb   string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}{
		{"CREATE",
			func(n string, f func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(n, f) }},
		{"SELECT",
			func(n string, f func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(n, f) }},
		{"UPDATE",
			func(n string, f func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(n, f) }},
		{"DELETE",
			func(n string, f func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(n, f) }},
		{"ROW",
			func(n string, f func(*gorm.DB)) error { return cb.Row().Before("gorm:row").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Row().After("gorm:row").Register(n, f) }},
		{"RAW",
			func(n string, f func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(n, f) },
			func(n string, f func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(n, f) }},
	}

	for _, h := range hooks {
		if err := h.before("otel:before_"+h.verb, p.before(h.verb)); err != nil {
			return err
		}
		if err := h.after("otel:after_"+h.verb, p.after()); err != nil {
			return err
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}

		tableName := db.Statement.Table
		if tableName == "" {
			tableName = "unknown"
		}

		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, tableName),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", tableName),
			),
		)

		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

		if db.Error != nil {
			if db.Error == gorm.ErrRecordNotFound {
				// Part of normal control flow, not an error condition.
				span.SetAttributes(attribute.String("error.type", "record_not_found"))
				span.SetStatus(codes.Ok, "record not found")
			} else {
				span.SetAttributes(attribute.String("error.type", "database_error"))
				span.RecordError(db.Error)
				span.SetStatus(codes.Error, db.Error.Error())
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
	}
}

// NewGormTracingPlugin creates the tracing plugin for the named database.
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{tracer: mysqlTracer, dbName: dbName}
}

// DataStore is the relational persistence boundary used by the request
// handlers. *MySQL is the production implementation; tests substitute fakes.
type DataStore interface {
	// HealthCheck verifies connectivity with a trivial round trip.
	HealthCheck(ctx context.Context) error

	// Posting reads (unified across both posting tables)
	ResolvePosting(ctx context.Context, id string) (*models.JobPosting, error)
	ListPostings(ctx context.Context) ([]models.JobPosting, error)
	PostingsByIDs(ctx context.Context, ids []string) (map[string]models.JobPosting, error)

	// Candidate / user upserts
	UpsertCandidateByEmail(ctx context.Context, candidate *models.Candidate) (*models.Candidate, error)
	FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	EnsureSystemUser(ctx context.Context) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error

	// Applications
	CreateApplication(ctx context.Context, application *models.Application) error
	GetApplicationWithCandidate(ctx context.Context, id string) (*models.Application, error)
	ListApplicationsByUser(ctx context.Context, userID, jobID string) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id, status string) (*models.Application, error)

	// Interviews
	CreateInterview(ctx context.Context, interview *models.Interview) error
	ListInterviewsByUser(ctx context.Context, userID string) ([]models.Interview, error)
}

var _ DataStore = (*MySQL)(nil)

// MySQL provides relational persistence over GORM.
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL connects to MySQL, configures pooling, registers tracing, and
// migrates the schema. Construction is explicit; there is no module-level
// connection state.
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mysql config cannot be nil")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	case 4:
		logLevel = logger.Info
	default:
		logLevel = logger.Error
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	m := &MySQL{db: db, cfg: cfg}

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("failed to register tracing plugin: %w", err)
	}

	if err := m.autoMigrateSchema(); err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return m, nil
}

func (m *MySQL) autoMigrateSchema() error {
	return m.db.AutoMigrate(
		&models.Job{},
		&models.Position{},
		&models.Candidate{},
		&models.User{},
		&models.Application{},
		&models.Interview{},
	)
}

// DB exposes the underlying GORM handle for transactional composition.
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close closes the database connection pool.
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// HealthCheck runs SELECT 1 against the pool.
func (m *MySQL) HealthCheck(ctx context.Context) error {
	var one int
	return m.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// ResolvePosting looks the id up in the jobs table first, then positions.
// Absent from both yields gorm.ErrRecordNotFound.
func (m *MySQL) ResolvePosting(ctx context.Context, id string) (*models.JobPosting, error) {
	var job models.Job
	err := m.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if err == nil {
		posting := models.PostingFromJob(job)
		return &posting, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var position models.Position
	if err := m.db.WithContext(ctx).Where("id = ?", id).First(&position).Error; err != nil {
		return nil, err
	}
	posting := models.PostingFromPosition(position)
	return &posting, nil
}

// ListPostings reads both posting tables concurrently and returns the merged,
// normalized list sorted by effective posting date, newest first.
func (m *MySQL) ListPostings(ctx context.Context) ([]models.JobPosting, error) {
	var jobs []models.Job
	var positions []models.Position
	errCh := make(chan error, 2)

	go func() {
		errCh <- m.db.WithContext(ctx).Order("created_at DESC").Find(&jobs).Error
	}()
	go func() {
		errCh <- m.db.WithContext(ctx).
			Where("status = ?", constants.PositionStatusOpen).
			Order("posted_date DESC").
			Find(&positions).Error
	}()

	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil {
			return nil, err
		}
	}

	return models.MergePostings(jobs, positions), nil
}

// PostingsByIDs resolves a batch of posting ids across both tables.
func (m *MySQL) PostingsByIDs(ctx context.Context, ids []string) (map[string]models.JobPosting, error) {
	result := make(map[string]models.JobPosting, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var jobs []models.Job
	if err := m.db.WithContext(ctx).Where("id IN ?", ids).Find(&jobs).Error; err != nil {
		return nil, err
	}
	for _, job := range jobs {
		result[job.ID] = models.PostingFromJob(job)
	}

	var positions []models.Position
	if err := m.db.WithContext(ctx).Where("id IN ?", ids).Find(&positions).Error; err != nil {
		return nil, err
	}
	for _, position := range positions {
		if _, seen := result[position.ID]; !seen {
			result[position.ID] = models.PostingFromPosition(position)
		}
	}

	return result, nil
}

// UpsertCandidateByEmail creates the candidate or, when the email already
// exists, overwrites the mutable fields. Exactly one row per email, always.
func (m *MySQL) UpsertCandidateByEmail(ctx context.Context, candidate *models.Candidate) (*models.Candidate, error) {
	if candidate.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("failed to generate candidate id: %w", err)
		}
		candidate.ID = id.String()
	}

	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "phone", "skills", "experience", "resume_url", "updated_at",
		}),
	}).Create(candidate).Error
	if err != nil {
		return nil, err
	}

	// Re-read by email: on conflict the surviving row keeps its original id.
	var saved models.Candidate
	if err := m.db.WithContext(ctx).Where("email = ?", candidate.Email).First(&saved).Error; err != nil {
		return nil, err
	}
	return &saved, nil
}

// FindUserByExternalID maps an identity-provider id to the local user row.
func (m *MySQL) FindUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := m.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureSystemUser lazily upserts the sentinel user that attributes
// unauthenticated submissions.
func (m *MySQL) EnsureSystemUser(ctx context.Context) (*models.User, error) {
	var user models.User
	err := m.db.WithContext(ctx).Where("email = ?", constants.SystemUserEmail).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate user id: %w", err)
	}
	user = models.User{
		ID:         id.String(),
		ExternalID: constants.SystemUserExternalID,
		Email:      constants.SystemUserEmail,
		Name:       constants.SystemUserName,
	}
	err = m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&user).Error
	if err != nil {
		return nil, err
	}

	// Another request may have won the race; read back the canonical row.
	if err := m.db.WithContext(ctx).Where("email = ?", constants.SystemUserEmail).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser inserts a user row mirrored from the identity provider.
func (m *MySQL) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id.String()
	}
	return m.db.WithContext(ctx).Create(user).Error
}

// CreateApplication inserts a new application row.
func (m *MySQL) CreateApplication(ctx context.Context, application *models.Application) error {
	if application.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate application id: %w", err)
		}
		application.ID = id.String()
	}
	return m.db.WithContext(ctx).Create(application).Error
}

// GetApplicationWithCandidate loads an application and its candidate.
func (m *MySQL) GetApplicationWithCandidate(ctx context.Context, id string) (*models.Application, error) {
	var application models.Application
	err := m.db.WithContext(ctx).
		Preload("Candidate").
		Where("id = ?", id).
		First(&application).Error
	if err != nil {
		return nil, err
	}
	return &application, nil
}

// ListApplicationsByUser returns the applications attributed to userID,
// optionally filtered by jobID, newest first, with candidates preloaded.
func (m *MySQL) ListApplicationsByUser(ctx context.Context, userID, jobID string) ([]models.Application, error) {
	query := m.db.WithContext(ctx).
		Preload("Candidate").
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if jobID != "" {
		query = query.Where("job_id = ?", jobID)
	}

	var applications []models.Application
	if err := query.Find(&applications).Error; err != nil {
		return nil, err
	}
	return applications, nil
}

// UpdateApplicationStatus overwrites the status and returns the updated row.
// No transition table is consulted.
func (m *MySQL) UpdateApplicationStatus(ctx context.Context, id, status string) (*models.Application, error) {
	var application models.Application
	if err := m.db.WithContext(ctx).Where("id = ?", id).First(&application).Error; err != nil {
		return nil, err
	}

	if err := m.db.WithContext(ctx).
		Model(&application).
		Update("status", status).Error; err != nil {
		return nil, err
	}
	application.Status = status
	return &application, nil
}

// CreateInterview inserts the interview and flips its application's status to
// "Interview Scheduled" inside one transaction: both writes land or neither.
func (m *MySQL) CreateInterview(ctx context.Context, interview *models.Interview) error {
	if interview.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate interview id: %w", err)
		}
		interview.ID = id.String()
	}

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(interview).Error; err != nil {
			return err
		}
		return tx.Model(&models.Application{}).
			Where("id = ?", interview.ApplicationID).
			Update("status", constants.StatusInterviewScheduled).Error
	})
}

// ListInterviewsByUser returns the interviews scheduled by userID, earliest
// first, with application, candidate, and scheduler preloaded.
func (m *MySQL) ListInterviewsByUser(ctx context.Context, userID string) ([]models.Interview, error) {
	var interviews []models.Interview
	err := m.db.WithContext(ctx).
		Preload("Application").
		Preload("Candidate").
		Preload("Scheduler").
		Where("user_id = ?", userID).
		Order("scheduled_for ASC").
		Find(&interviews).Error
	if err != nil {
		return nil, err
	}
	return interviews, nil
}

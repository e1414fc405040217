package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/godilite/feedback-analytics/internal/repository/models"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
)

// FeedbackRepository reads subjects and completed submissions and writes the rows needed
// to seed them.
type FeedbackRepository struct {
	db *sqlx.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: sqlx.NewDb(db, "sqlite3")}
}

func newID() string {
	return ulid.Make().String()
}

// GetSubject returns nil without error when the subject does not exist in the tenant.
func (r *FeedbackRepository) GetSubject(ctx context.Context, tenantID, subjectID string) (*models.Subject, error) {
	const query = `
		SELECT id, tenant_id, person_id, name, created_at
		FROM subjects
		WHERE tenant_id = ? AND id = ?
	`

	var s models.Subject
	if err := r.db.GetContext(ctx, &s, query, tenantID, subjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query GetSubject: %w", err)
	}
	return &s, nil
}

// ListCompletedSubmissions returns completed submissions, newest first, joined with the
// survey schema and the person ids of subject and evaluator.
func (r *FeedbackRepository) ListCompletedSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.CompletedSubmission, error) {
	const query = `
		SELECT
			s.id,
			s.tenant_id,
			s.survey_id,
			s.subject_id,
			subj.person_id AS subject_person_id,
			s.evaluator_id,
			COALESCE(ev.person_id, '') AS evaluator_person_id,
			s.relationship,
			sv.schema_json,
			s.response_json,
			s.completed_at
		FROM submissions AS s
		JOIN subjects AS subj ON subj.id = s.subject_id AND subj.tenant_id = s.tenant_id
		JOIN surveys AS sv ON sv.id = s.survey_id AND sv.tenant_id = s.tenant_id
		LEFT JOIN evaluators AS ev ON ev.id = s.evaluator_id AND ev.tenant_id = s.tenant_id
		WHERE s.tenant_id = ?
		  AND s.status = ?
		  AND (? = '' OR s.subject_id = ?)
		  AND (? = '' OR s.survey_id = ?)
		ORDER BY s.completed_at DESC, s.id
	`

	var rows []models.CompletedSubmission
	err := r.db.SelectContext(ctx, &rows, query,
		filter.TenantID,
		models.SubmissionCompleted,
		filter.SubjectID, filter.SubjectID,
		filter.SurveyID, filter.SurveyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query ListCompletedSubmissions: %w", err)
	}
	return rows, nil
}

func (r *FeedbackRepository) CreateTenant(ctx context.Context, t *models.Tenant) error {
	const query = `INSERT INTO tenants (id, name, created_at) VALUES (:id, :name, :created_at)`

	stamp(&t.ID, &t.CreatedAt)
	if _, err := r.db.NamedExecContext(ctx, query, t); err != nil {
		return fmt.Errorf("insert tenant: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) CreateSubject(ctx context.Context, s *models.Subject) error {
	const query = `
		INSERT INTO subjects (id, tenant_id, person_id, name, created_at)
		VALUES (:id, :tenant_id, :person_id, :name, :created_at)
	`

	stamp(&s.ID, &s.CreatedAt)
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("insert subject: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) CreateEvaluator(ctx context.Context, e *models.Evaluator) error {
	const query = `
		INSERT INTO evaluators (id, tenant_id, person_id, name, created_at)
		VALUES (:id, :tenant_id, :person_id, :name, :created_at)
	`

	stamp(&e.ID, &e.CreatedAt)
	if _, err := r.db.NamedExecContext(ctx, query, e); err != nil {
		return fmt.Errorf("insert evaluator: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) CreateSurvey(ctx context.Context, s *models.Survey) error {
	const query = `
		INSERT INTO surveys (id, tenant_id, title, schema_json, created_at)
		VALUES (:id, :tenant_id, :title, :schema_json, :created_at)
	`

	stamp(&s.ID, &s.CreatedAt)
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("insert survey: %w", err)
	}
	return nil
}

// CreateSubmission stores a submission; completed submissions without a completion time
// are stamped with the creation time.
func (r *FeedbackRepository) CreateSubmission(ctx context.Context, s *models.Submission) error {
	const query = `
		INSERT INTO submissions (
			id, tenant_id, survey_id, subject_id, evaluator_id, relationship,
			status, response_json, completed_at, created_at
		) VALUES (
			:id, :tenant_id, :survey_id, :subject_id, :evaluator_id, :relationship,
			:status, :response_json, :completed_at, :created_at
		)
	`

	stamp(&s.ID, &s.CreatedAt)
	if s.Status == "" {
		s.Status = models.SubmissionPending
	}
	if s.Status == models.SubmissionCompleted && !s.CompletedAt.Valid {
		s.CompletedAt = sql.NullTime{Time: s.CreatedAt, Valid: true}
	}
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = newID()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

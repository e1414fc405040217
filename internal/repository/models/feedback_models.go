package models

import (
	"database/sql"
	"time"
)

const (
	SubmissionPending   = "pending"
	SubmissionCompleted = "completed"
)

type Tenant struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Subject is the person being evaluated within a tenant.
type Subject struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	PersonID  string    `db:"person_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

type Evaluator struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	PersonID  string    `db:"person_id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// Survey carries the authored schema document as raw JSON.
type Survey struct {
	ID        string    `db:"id"`
	TenantID  string    `db:"tenant_id"`
	Title     string    `db:"title"`
	Schema    string    `db:"schema_json"`
	CreatedAt time.Time `db:"created_at"`
}

type Submission struct {
	ID           string       `db:"id"`
	TenantID     string       `db:"tenant_id"`
	SurveyID     string       `db:"survey_id"`
	SubjectID    string       `db:"subject_id"`
	EvaluatorID  string       `db:"evaluator_id"`
	Relationship string       `db:"relationship"`
	Status       string       `db:"status"`
	Response     string       `db:"response_json"`
	CompletedAt  sql.NullTime `db:"completed_at"`
	CreatedAt    time.Time    `db:"created_at"`
}

// CompletedSubmission is a completed submission joined with its survey schema and the
// people behind the subject and the evaluator.
type CompletedSubmission struct {
	ID                string       `db:"id"`
	TenantID          string       `db:"tenant_id"`
	SurveyID          string       `db:"survey_id"`
	SubjectID         string       `db:"subject_id"`
	SubjectPersonID   string       `db:"subject_person_id"`
	EvaluatorID       string       `db:"evaluator_id"`
	EvaluatorPersonID string       `db:"evaluator_person_id"`
	Relationship      string       `db:"relationship"`
	Schema            string       `db:"schema_json"`
	Response          string       `db:"response_json"`
	CompletedAt       sql.NullTime `db:"completed_at"`
}

// SubmissionFilter scopes submission listings. Empty SubjectID or SurveyID means any.
type SubmissionFilter struct {
	TenantID  string
	SubjectID string
	SurveyID  string
}

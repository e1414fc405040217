package service

import (
	"context"

	"github.com/godilite/feedback-analytics/internal/repository/models"
)

// FeedbackRepository is the storage the analytics service reads from.
type FeedbackRepository interface {
	// GetSubject returns nil, nil when the subject is unknown in the tenant.
	GetSubject(ctx context.Context, tenantID, subjectID string) (*models.Subject, error)
	ListCompletedSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.CompletedSubmission, error)
}

package mocks

import (
	"context"
	"errors"

	"github.com/godilite/feedback-analytics/internal/repository/models"
)

// MockFeedbackRepository is a mock implementation of the FeedbackRepository interface
// for testing the service layer.
type MockFeedbackRepository struct {
	GetSubjectFunc               func(ctx context.Context, tenantID, subjectID string) (*models.Subject, error)
	ListCompletedSubmissionsFunc func(ctx context.Context, filter models.SubmissionFilter) ([]models.CompletedSubmission, error)
}

// GetSubject implements the FeedbackRepository interface
func (m *MockFeedbackRepository) GetSubject(ctx context.Context, tenantID, subjectID string) (*models.Subject, error) {
	if m.GetSubjectFunc != nil {
		return m.GetSubjectFunc(ctx, tenantID, subjectID)
	}
	return nil, errors.New("GetSubjectFunc not implemented")
}

// ListCompletedSubmissions implements the FeedbackRepository interface
func (m *MockFeedbackRepository) ListCompletedSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.CompletedSubmission, error) {
	if m.ListCompletedSubmissionsFunc != nil {
		return m.ListCompletedSubmissionsFunc(ctx, filter)
	}
	return nil, errors.New("ListCompletedSubmissionsFunc not implemented")
}

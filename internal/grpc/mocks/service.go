package mocks

import (
	"context"
	"errors"

	"github.com/godilite/feedback-analytics/internal/service"
)

// MockAnalyticsService is a mock implementation of the AnalyticsService interface
// for testing the handler layer. It uses function-based mocking for flexibility.
type MockAnalyticsService struct {
	SubjectReportFunc          func(ctx context.Context, tenantID, subjectID, surveyID string) (service.SubjectReport, error)
	SelfVsEvaluatorFunc        func(ctx context.Context, tenantID, subjectID, surveyID string) (service.SelfEvaluatorComparison, error)
	OrganizationComparisonFunc func(ctx context.Context, tenantID, subjectID, surveyID string) (service.OrganizationComparison, error)
	ComprehensiveReportFunc    func(ctx context.Context, tenantID, subjectID, surveyID string) (service.ComprehensiveReport, error)
}

func (m *MockAnalyticsService) SubjectReport(ctx context.Context, tenantID, subjectID, surveyID string) (service.SubjectReport, error) {
	if m.SubjectReportFunc != nil {
		return m.SubjectReportFunc(ctx, tenantID, subjectID, surveyID)
	}
	return service.SubjectReport{}, errors.New("SubjectReportFunc not implemented")
}

func (m *MockAnalyticsService) SelfVsEvaluator(ctx context.Context, tenantID, subjectID, surveyID string) (service.SelfEvaluatorComparison, error) {
	if m.SelfVsEvaluatorFunc != nil {
		return m.SelfVsEvaluatorFunc(ctx, tenantID, subjectID, surveyID)
	}
	return service.SelfEvaluatorComparison{}, errors.New("SelfVsEvaluatorFunc not implemented")
}

func (m *MockAnalyticsService) OrganizationComparison(ctx context.Context, tenantID, subjectID, surveyID string) (service.OrganizationComparison, error) {
	if m.OrganizationComparisonFunc != nil {
		return m.OrganizationComparisonFunc(ctx, tenantID, subjectID, surveyID)
	}
	return service.OrganizationComparison{}, errors.New("OrganizationComparisonFunc not implemented")
}

func (m *MockAnalyticsService) ComprehensiveReport(ctx context.Context, tenantID, subjectID, surveyID string) (service.ComprehensiveReport, error) {
	if m.ComprehensiveReportFunc != nil {
		return m.ComprehensiveReportFunc(ctx, tenantID, subjectID, surveyID)
	}
	return service.ComprehensiveReport{}, errors.New("ComprehensiveReportFunc not implemented")
}

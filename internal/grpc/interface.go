package grpc

import (
	"context"
	"time"

	"github.com/godilite/feedback-analytics/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type AnalyticsService interface {
	SubjectReport(ctx context.Context, tenantID, subjectID, surveyID string) (service.SubjectReport, error)
	SelfVsEvaluator(ctx context.Context, tenantID, subjectID, surveyID string) (service.SelfEvaluatorComparison, error)
	OrganizationComparison(ctx context.Context, tenantID, subjectID, surveyID string) (service.OrganizationComparison, error)
	ComprehensiveReport(ctx context.Context, tenantID, subjectID, surveyID string) (service.ComprehensiveReport, error)
}

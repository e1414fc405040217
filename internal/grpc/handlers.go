package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godilite/feedback-analytics/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	defaultCacheDuration = time.Minute
	defaultGRPCTimeout   = 10 * time.Second

	fieldTenantID  = "tenant_id"
	fieldSubjectID = "subject_id"
	fieldSurveyID  = "survey_id"

	// TenantMetadataKey carries the tenant when the request body does not.
	TenantMetadataKey = "x-tenant-id"

	allSurveys = "all"
)

type CacheKeyType string

const (
	cacheKeySubjectReport   CacheKeyType = "grpc:subject_report"
	cacheKeySelfVsEvaluator CacheKeyType = "grpc:self_vs_evaluator"
	cacheKeyOrganization    CacheKeyType = "grpc:organization_comparison"
	cacheKeyComprehensive   CacheKeyType = "grpc:comprehensive_report"
)

// subjectRequest is the decoded form of every request message.
type subjectRequest struct {
	tenantID  string
	subjectID string
	surveyID  string
}

type GRPCHandlers struct {
	analytics      AnalyticsService
	cache          Cacher
	logger         *zap.Logger
	sfGroup        singleflight.Group
	cacheTTL       time.Duration
	requestTimeout time.Duration
}

type HandlerOption func(*GRPCHandlers)

// WithRequestTimeout bounds each call, including the cache lookup.
func WithRequestTimeout(d time.Duration) HandlerOption {
	return func(h *GRPCHandlers) {
		if d > 0 {
			h.requestTimeout = d
		}
	}
}

// NewGRPCHandlers initializes the gRPC handlers. cache may be nil to disable caching.
func NewGRPCHandlers(analytics AnalyticsService, cache Cacher, logger *zap.Logger, ttl time.Duration, opts ...HandlerOption) *GRPCHandlers {
	if analytics == nil {
		panic("nil AnalyticsService provided to NewGRPCHandlers")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	h := &GRPCHandlers{
		analytics:      analytics,
		cache:          cache,
		logger:         logger.Named("grpc-handler"),
		cacheTTL:       ttl,
		requestTimeout: defaultGRPCTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func stringField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}
	switch v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return strings.TrimSpace(v.GetStringValue()), nil
	case *structpb.Value_NullValue:
		return "", nil
	}
	return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
}

func (s *GRPCHandlers) parseAndValidate(ctx context.Context, req *structpb.Struct) (subjectRequest, error) {
	var (
		r   subjectRequest
		err error
	)
	if r.tenantID, err = stringField(req, fieldTenantID); err != nil {
		return r, err
	}
	if r.subjectID, err = stringField(req, fieldSubjectID); err != nil {
		return r, err
	}
	if r.surveyID, err = stringField(req, fieldSurveyID); err != nil {
		return r, err
	}

	if r.tenantID == "" {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(TenantMetadataKey); len(vals) > 0 {
				r.tenantID = strings.TrimSpace(vals[0])
			}
		}
	}

	if r.tenantID == "" {
		return r, status.Error(codes.InvalidArgument, "tenant_id is required")
	}
	if r.subjectID == "" {
		return r, status.Error(codes.InvalidArgument, "subject_id is required")
	}
	return r, nil
}

func normalizeKey(prefix CacheKeyType, r subjectRequest) string {
	survey := r.surveyID
	if survey == "" {
		survey = allSurveys
	}
	return fmt.Sprintf("%s:%s:%s:%s", prefix, r.tenantID, r.subjectID, survey)
}

func (s *GRPCHandlers) handleError(ctx context.Context, op string, err error) error {
	switch ctx.Err() {
	case context.Canceled:
		s.logger.Warn("request canceled", zap.String("op", op))
		return status.Error(codes.Canceled, "request canceled")
	case context.DeadlineExceeded:
		s.logger.Warn("request timeout", zap.String("op", op))
		return status.Error(codes.DeadlineExceeded, "request timed out")
	}

	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		s.logger.Info("invalid request", zap.String("op", op), zap.Error(err))
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrNotFound):
		s.logger.Info("nothing to report", zap.String("op", op), zap.Error(err))
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrStorageFailure):
		s.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		return status.Error(codes.Internal, "database error")
	default:
		s.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		return status.Errorf(codes.Internal, "%s failed: %v", op, err)
	}
}

// toStruct converts a report into its JSON-shaped message.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// serve runs the shared request pipeline: validate, bound, cache, fetch, encode.
func serve[T any](
	s *GRPCHandlers,
	ctx context.Context,
	op string,
	prefix CacheKeyType,
	req *structpb.Struct,
	fetch func(ctx context.Context, r subjectRequest) (T, error),
) (*structpb.Struct, error) {
	r, err := s.parseAndValidate(ctx, req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	result, err := FindAndCache(ctx, s.cache, &s.sfGroup, normalizeKey(prefix, r), s.cacheTTL, s.logger, func(fetchCtx context.Context) (T, error) {
		return fetch(fetchCtx, r)
	})
	if err != nil {
		return nil, s.handleError(ctx, op, err)
	}

	out, err := toStruct(result)
	if err != nil {
		s.logger.Error("failed to encode response", zap.String("op", op), zap.Error(err))
		return nil, status.Errorf(codes.Internal, "%s failed: encode response", op)
	}
	return out, nil
}

func (s *GRPCHandlers) GetSubjectReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serve(s, ctx, "GetSubjectReport", cacheKeySubjectReport, req, func(ctx context.Context, r subjectRequest) (service.SubjectReport, error) {
		return s.analytics.SubjectReport(ctx, r.tenantID, r.subjectID, r.surveyID)
	})
}

func (s *GRPCHandlers) GetSelfVsEvaluator(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serve(s, ctx, "GetSelfVsEvaluator", cacheKeySelfVsEvaluator, req, func(ctx context.Context, r subjectRequest) (service.SelfEvaluatorComparison, error) {
		return s.analytics.SelfVsEvaluator(ctx, r.tenantID, r.subjectID, r.surveyID)
	})
}

func (s *GRPCHandlers) GetOrganizationComparison(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serve(s, ctx, "GetOrganizationComparison", cacheKeyOrganization, req, func(ctx context.Context, r subjectRequest) (service.OrganizationComparison, error) {
		return s.analytics.OrganizationComparison(ctx, r.tenantID, r.subjectID, r.surveyID)
	})
}

func (s *GRPCHandlers) GetComprehensiveReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	return serve(s, ctx, "GetComprehensiveReport", cacheKeyComprehensive, req, func(ctx context.Context, r subjectRequest) (service.ComprehensiveReport, error) {
		return s.analytics.ComprehensiveReport(ctx, r.tenantID, r.subjectID, r.surveyID)
	})
}

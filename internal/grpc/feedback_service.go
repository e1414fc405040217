package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Requests and responses are google.protobuf.Struct messages. Requests carry tenant_id,
// subject_id and survey_id string fields; responses carry the JSON form of the report.
const (
	ServiceName = "feedback.v1.FeedbackAnalytics"

	FullMethodGetSubjectReport          = "/" + ServiceName + "/GetSubjectReport"
	FullMethodGetSelfVsEvaluator        = "/" + ServiceName + "/GetSelfVsEvaluator"
	FullMethodGetOrganizationComparison = "/" + ServiceName + "/GetOrganizationComparison"
	FullMethodGetComprehensiveReport    = "/" + ServiceName + "/GetComprehensiveReport"
)

// FeedbackAnalyticsServer is the server API of the feedback analytics service.
type FeedbackAnalyticsServer interface {
	GetSubjectReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSelfVsEvaluator(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrganizationComparison(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetComprehensiveReport(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv FeedbackAnalyticsServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FeedbackAnalyticsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(FeedbackAnalyticsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FeedbackAnalyticsServiceDesc describes the service for grpc.Server.RegisterService.
var FeedbackAnalyticsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedbackAnalyticsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetSubjectReport",
			Handler: unaryHandler(FullMethodGetSubjectReport, func(srv FeedbackAnalyticsServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetSubjectReport(ctx, req)
			}),
		},
		{
			MethodName: "GetSelfVsEvaluator",
			Handler: unaryHandler(FullMethodGetSelfVsEvaluator, func(srv FeedbackAnalyticsServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetSelfVsEvaluator(ctx, req)
			}),
		},
		{
			MethodName: "GetOrganizationComparison",
			Handler: unaryHandler(FullMethodGetOrganizationComparison, func(srv FeedbackAnalyticsServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetOrganizationComparison(ctx, req)
			}),
		},
		{
			MethodName: "GetComprehensiveReport",
			Handler: unaryHandler(FullMethodGetComprehensiveReport, func(srv FeedbackAnalyticsServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
				return srv.GetComprehensiveReport(ctx, req)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "feedback/v1/feedback.proto",
}

// RegisterFeedbackAnalyticsServer registers srv on s.
func RegisterFeedbackAnalyticsServer(s grpc.ServiceRegistrar, srv FeedbackAnalyticsServer) {
	s.RegisterService(&FeedbackAnalyticsServiceDesc, srv)
}

// FeedbackAnalyticsClient calls a remote FeedbackAnalytics service.
type FeedbackAnalyticsClient struct {
	cc grpc.ClientConnInterface
}

func NewFeedbackAnalyticsClient(cc grpc.ClientConnInterface) *FeedbackAnalyticsClient {
	return &FeedbackAnalyticsClient{cc: cc}
}

func (c *FeedbackAnalyticsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *FeedbackAnalyticsClient) GetSubjectReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, FullMethodGetSubjectReport, in, opts...)
}

func (c *FeedbackAnalyticsClient) GetSelfVsEvaluator(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, FullMethodGetSelfVsEvaluator, in, opts...)
}

func (c *FeedbackAnalyticsClient) GetOrganizationComparison(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, FullMethodGetOrganizationComparison, in, opts...)
}

func (c *FeedbackAnalyticsClient) GetComprehensiveReport(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, FullMethodGetComprehensiveReport, in, opts...)
}

// NewSubjectRequest builds the request message shared by every method.
func NewSubjectRequest(tenantID, subjectID, surveyID string) *structpb.Struct {
	fields := map[string]*structpb.Value{
		fieldSubjectID: structpb.NewStringValue(subjectID),
	}
	if tenantID != "" {
		fields[fieldTenantID] = structpb.NewStringValue(tenantID)
	}
	if surveyID != "" {
		fields[fieldSurveyID] = structpb.NewStringValue(surveyID)
	}
	return &structpb.Struct{Fields: fields}
}

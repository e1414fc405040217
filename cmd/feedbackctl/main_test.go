package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	handler "github.com/godilite/feedback-analytics/internal/grpc"
	"github.com/godilite/feedback-analytics/internal/grpc/mocks"
	"github.com/godilite/feedback-analytics/internal/scoring"
	"github.com/godilite/feedback-analytics/internal/service"
)

func startServer(t *testing.T, analytics handler.AnalyticsService) dialFunc {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	handler.RegisterFeedbackAnalyticsServer(srv, handler.NewGRPCHandlers(analytics, nil, zap.NewNop(), time.Minute))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return func(string) (*grpc.ClientConn, error) {
		return grpc.NewClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}
}

func TestFeedbackctl(t *testing.T) {
	var seen []string
	analytics := &mocks.MockAnalyticsService{
		OrganizationComparisonFunc: func(ctx context.Context, tenantID, subjectID, surveyID string) (service.OrganizationComparison, error) {
			seen = []string{tenantID, subjectID, surveyID}
			return service.OrganizationComparison{
				SubjectID: subjectID, SubjectScore: 65, OrganizationAverage: 60, Difference: 5,
				Performance: scoring.AbovePar, PopulationSize: 2, Questions: []service.OrganizationQuestion{},
			}, nil
		},
		SubjectReportFunc: func(ctx context.Context, tenantID, subjectID, surveyID string) (service.SubjectReport, error) {
			return service.SubjectReport{}, fmt.Errorf("%w: subject %s", service.ErrNotFound, subjectID)
		},
	}
	dial := startServer(t, analytics)
	ctx := context.Background()

	t.Run("prints the report as JSON", func(t *testing.T) {
		var out bytes.Buffer

		err := newRootCommand(&out, dial).ParseAndRun(ctx, []string{"-tenant", "acme", "org", "-subject", "alice", "-survey", "q3"})

		require.NoError(t, err)
		assert.Equal(t, []string{"acme", "alice", "q3"}, seen)
		var got map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		assert.Equal(t, "AbovePar", got["performance"])
		assert.Equal(t, 60.0, got["organization_average"])
	})

	t.Run("flags from the environment", func(t *testing.T) {
		t.Setenv("FEEDBACKCTL_TENANT", "globex")
		var out bytes.Buffer

		err := newRootCommand(&out, dial).ParseAndRun(ctx, []string{"org", "-subject", "bob"})

		require.NoError(t, err)
		assert.Equal(t, []string{"globex", "bob", ""}, seen)
	})

	t.Run("server errors carry the status code", func(t *testing.T) {
		var out bytes.Buffer

		err := newRootCommand(&out, dial).ParseAndRun(ctx, []string{"-tenant", "acme", "subject", "-subject", "zed"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "NotFound")
		assert.Empty(t, out.String())
	})

	t.Run("missing flags", func(t *testing.T) {
		err := newRootCommand(&bytes.Buffer{}, dial).ParseAndRun(ctx, []string{"report", "-subject", "alice"})
		assert.EqualError(t, err, "-tenant is required")

		err = newRootCommand(&bytes.Buffer{}, dial).ParseAndRun(ctx, []string{"-tenant", "acme", "self"})
		assert.EqualError(t, err, "-subject is required")
	})

	t.Run("no subcommand shows help", func(t *testing.T) {
		err := newRootCommand(&bytes.Buffer{}, dial).ParseAndRun(ctx, []string{"-tenant", "acme"})
		assert.ErrorIs(t, err, flag.ErrHelp)
	})
}

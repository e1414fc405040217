package app

import (
	"context"
	"database/sql"
	"net"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/godilite/feedback-analytics/internal/config"
	handler "github.com/godilite/feedback-analytics/internal/grpc"
	"github.com/godilite/feedback-analytics/internal/repository"
	"github.com/godilite/feedback-analytics/internal/repository/models"
	dbbuilder "github.com/godilite/feedback-analytics/pkg/database"
)

const percentSchema = `{"pages":[{"elements":[
	{"type":"rating","name":"overall","title":"Overall","ratingMin":0,"ratingMax":100,"ratingStep":10}
]}]}`

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppEnv:             "test",
		LogLevel:           "debug",
		DBDriver:           "sqlite3",
		DBPath:             filepath.Join(t.TempDir(), "data", "feedback.db"),
		DBMigrate:          true,
		DBTimeout:          2 * time.Second,
		CacheTTL:           time.Minute,
		GRPCPort:           50051,
		GRPCRequestTimeout: 5 * time.Second,
		AtParThreshold:     0.01,
	}
}

// seedOrganization stores three subjects: alice (self 80, evaluators 60 and 70),
// bob (evaluator 50) and carol (evaluator 70).
func seedOrganization(t *testing.T, dbPath string) {
	t.Helper()
	ctx := context.Background()

	db, err := dbbuilder.New(dbbuilder.WithDataSource(dbPath))
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewFeedbackRepository(db)

	require.NoError(t, repo.CreateTenant(ctx, &models.Tenant{ID: "acme", Name: "Acme"}))
	require.NoError(t, repo.CreateSurvey(ctx, &models.Survey{ID: "q3", TenantID: "acme", Title: "Q3", Schema: percentSchema}))

	people := []string{"alice", "bob", "carol"}
	for _, p := range people {
		require.NoError(t, repo.CreateSubject(ctx, &models.Subject{ID: p, TenantID: "acme", PersonID: "person-" + p, Name: p}))
	}
	for _, p := range append(people, "dave", "erin") {
		require.NoError(t, repo.CreateEvaluator(ctx, &models.Evaluator{ID: "ev-" + p, TenantID: "acme", PersonID: "person-" + p}))
	}

	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	subs := []struct {
		subject, evaluator, relationship, answer string
	}{
		{"alice", "ev-alice", "Self", "80"},
		{"alice", "ev-dave", "Peer", "60"},
		{"alice", "ev-erin", "Manager", "70"},
		{"bob", "ev-dave", "Peer", "50"},
		{"carol", "ev-erin", "Manager", "70"},
	}
	for i, s := range subs {
		require.NoError(t, repo.CreateSubmission(ctx, &models.Submission{
			TenantID:     "acme",
			SurveyID:     "q3",
			SubjectID:    s.subject,
			EvaluatorID:  s.evaluator,
			Relationship: s.relationship,
			Status:       models.SubmissionCompleted,
			Response:     `{"overall":"` + s.answer + `"}`,
			CompletedAt:  sql.NullTime{Time: base.Add(time.Duration(i) * time.Minute), Valid: true},
		}))
	}
	require.NoError(t, repo.CreateSubmission(ctx, &models.Submission{
		TenantID: "acme", SurveyID: "q3", SubjectID: "bob", EvaluatorID: "ev-erin",
		Relationship: "Peer", Response: `{"overall":"0"}`,
	}))
}

func TestAppServesReports(t *testing.T) {
	cfg := testConfig(t)
	logger := zaptest.NewLogger(t)
	lis := bufconn.Listen(1 << 20)

	application, err := NewApp(context.Background(), cfg, logger, WithListener(lis))
	require.NoError(t, err)
	seedOrganization(t, cfg.DBPath)

	runCtx, stop := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- application.Run(runCtx) }()
	t.Cleanup(func() {
		stop()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("application did not stop")
		}
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client := handler.NewFeedbackAnalyticsClient(conn)
	num := func(s *structpb.Struct, path ...string) float64 {
		for _, p := range path[:len(path)-1] {
			s = s.GetFields()[p].GetStructValue()
		}
		return s.GetFields()[path[len(path)-1]].GetNumberValue()
	}

	t.Run("health", func(t *testing.T) {
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: handler.ServiceName})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
	})

	t.Run("subject report", func(t *testing.T) {
		resp, err := client.GetSubjectReport(ctx, handler.NewSubjectRequest("acme", "alice", ""))

		require.NoError(t, err)
		assert.Equal(t, 80.0, num(resp, "self", "overall_score"))
		assert.Equal(t, 65.0, num(resp, "evaluators", "overall_score"))
		assert.Equal(t, 2.0, num(resp, "evaluator_count"))
	})

	t.Run("self vs evaluator", func(t *testing.T) {
		resp, err := client.GetSelfVsEvaluator(ctx, handler.NewSubjectRequest("acme", "alice", "q3"))

		require.NoError(t, err)
		assert.Equal(t, 15.0, num(resp, "difference"))
		assert.InDelta(t, 23.08, num(resp, "percentage_difference"), 0.01)
	})

	t.Run("organization comparison", func(t *testing.T) {
		resp, err := client.GetOrganizationComparison(ctx, handler.NewSubjectRequest("acme", "alice", ""))

		require.NoError(t, err)
		assert.Equal(t, 60.0, num(resp, "organization_average"))
		assert.Equal(t, 5.0, num(resp, "difference"))
		assert.InDelta(t, 8.33, num(resp, "percentage_difference"), 0.01)
		assert.Equal(t, 2.0, num(resp, "population_size"))
		assert.Equal(t, "AbovePar", resp.GetFields()["performance"].GetStringValue())
	})

	t.Run("comprehensive report", func(t *testing.T) {
		resp, err := client.GetComprehensiveReport(ctx, handler.NewSubjectRequest("acme", "bob", ""))

		require.NoError(t, err)
		assert.Equal(t, 50.0, num(resp, "evaluator_score"))
		assert.Equal(t, 0.0, num(resp, "self_score"))
		assert.Equal(t, 1.0, num(resp, "total_submissions"), "pending submissions are not scored")
		assert.Equal(t, "BelowPar", resp.GetFields()["organization"].GetStructValue().GetFields()["performance"].GetStringValue())
		assert.False(t, resp.GetFields()["has_self_assessment"].GetBoolValue())
	})

	t.Run("errors map to status codes", func(t *testing.T) {
		_, err := client.GetSubjectReport(ctx, handler.NewSubjectRequest("acme", "zed", ""))
		assert.Equal(t, codes.NotFound, status.Code(err))

		_, err = client.GetSelfVsEvaluator(ctx, handler.NewSubjectRequest("acme", "bob", ""))
		assert.Equal(t, codes.NotFound, status.Code(err))

		_, err = client.GetSubjectReport(ctx, handler.NewSubjectRequest("globex", "alice", ""))
		assert.Equal(t, codes.NotFound, status.Code(err), "tenants are isolated")

		_, err = client.GetSubjectReport(ctx, handler.NewSubjectRequest("", "alice", ""))
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
}

func TestNewAppFailsOnUnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t), WithListener(bufconn.Listen(1024)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache init failed")
}

func TestNewAppInMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBPath = ":memory:"

	application, err := NewApp(context.Background(), cfg, zaptest.NewLogger(t), WithListener(bufconn.Listen(1024)))
	require.NoError(t, err)

	assert.Equal(t, 1, application.dbPool.Stats().MaxOpenConnections)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, application.Shutdown(ctx))
}

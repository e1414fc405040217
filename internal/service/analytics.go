package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/godilite/feedback-analytics/internal/repository/models"
	"github.com/godilite/feedback-analytics/internal/scoring"
	"github.com/godilite/feedback-analytics/internal/survey"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultDBTimeout = 2 * time.Second

	selfRelationship        = "self"
	unspecifiedRelationship = "Unspecified"
	highlightCount          = 3
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStorageFailure  = errors.New("storage failure")
)

// AnalyticsService builds self, evaluator and organization views of 360 feedback.
// It keeps no state between calls; every call reloads submissions and re-extracts questions.
type AnalyticsService struct {
	storage        FeedbackRepository
	extractor      *survey.Extractor
	scorer         *scoring.Scorer
	logger         *zap.Logger
	atParThreshold float64
	dbTimeout      time.Duration
}

type Option func(*AnalyticsService)

// WithAtParThreshold overrides the absolute difference under which a subject is AtPar.
func WithAtParThreshold(threshold float64) Option {
	return func(s *AnalyticsService) {
		if threshold > 0 {
			s.atParThreshold = threshold
		}
	}
}

// WithDBTimeout bounds every storage call.
func WithDBTimeout(d time.Duration) Option {
	return func(s *AnalyticsService) {
		if d > 0 {
			s.dbTimeout = d
		}
	}
}

// NewAnalyticsService creates a new AnalyticsService instance.
func NewAnalyticsService(storage FeedbackRepository, logger *zap.Logger, opts ...Option) *AnalyticsService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	s := &AnalyticsService{
		storage:        storage,
		extractor:      survey.NewExtractor(logger),
		scorer:         scoring.NewScorer(logger),
		logger:         logger.Named("analytics"),
		atParThreshold: scoring.DefaultAtParThreshold,
		dbTimeout:      defaultDBTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// subjectData is everything loaded and derived for one subject within a single call.
type subjectData struct {
	subject    models.Subject
	surveyID   string
	all        []models.CompletedSubmission
	self       *models.CompletedSubmission
	evaluators []models.CompletedSubmission
	questions  *survey.QuestionSet
}

// questionMemo extracts each distinct survey schema at most once per call.
type questionMemo map[string]*survey.QuestionSet

func (s *AnalyticsService) questionsFor(memo questionMemo, sub models.CompletedSubmission) *survey.QuestionSet {
	if qs, ok := memo[sub.SurveyID]; ok {
		return qs
	}
	qs := s.extractor.ExtractRatingQuestions([]byte(sub.Schema))
	if qs.Len() == 0 {
		s.logger.Warn("survey schema has no scorable questions", zap.String("survey_id", sub.SurveyID))
	}
	memo[sub.SurveyID] = qs
	return qs
}

func isSelf(sub models.CompletedSubmission) bool {
	if sub.EvaluatorPersonID != "" && sub.EvaluatorPersonID == sub.SubjectPersonID {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(sub.Relationship), selfRelationship)
}

func validate(tenantID, subjectID string) error {
	if strings.TrimSpace(tenantID) == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidArgument)
	}
	if strings.TrimSpace(subjectID) == "" {
		return fmt.Errorf("%w: subject id is required", ErrInvalidArgument)
	}
	return nil
}

func (s *AnalyticsService) listCompleted(ctx context.Context, filter models.SubmissionFilter) ([]models.CompletedSubmission, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	defer cancel()

	rows, err := s.storage.ListCompletedSubmissions(dbCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return rows, nil
}

func (s *AnalyticsService) loadSubject(ctx context.Context, memo questionMemo, tenantID, subjectID, surveyID string) (*subjectData, error) {
	if err := validate(tenantID, subjectID); err != nil {
		return nil, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.dbTimeout)
	subject, err := s.storage.GetSubject(dbCtx, tenantID, subjectID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if subject == nil {
		return nil, fmt.Errorf("%w: subject %s", ErrNotFound, subjectID)
	}

	rows, err := s.listCompleted(ctx, models.SubmissionFilter{
		TenantID:  tenantID,
		SubjectID: subjectID,
		SurveyID:  surveyID,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no completed submissions for subject %s", ErrNotFound, subjectID)
	}

	data := &subjectData{
		subject:  *subject,
		surveyID: surveyID,
		all:      rows,
	}
	for i := range rows {
		if isSelf(rows[i]) {
			// rows are newest first, so the first self submission is the latest one
			if data.self == nil {
				data.self = &rows[i]
			}
			continue
		}
		data.evaluators = append(data.evaluators, rows[i])
	}
	data.questions = s.questionsFor(memo, rows[0])

	return data, nil
}

func (s *AnalyticsService) decodeResponse(sub models.CompletedSubmission) scoring.Response {
	if strings.TrimSpace(sub.Response) == "" {
		return nil
	}
	var resp scoring.Response
	if err := json.Unmarshal([]byte(sub.Response), &resp); err != nil {
		s.logger.Warn("discarding undecodable response",
			zap.String("submission_id", sub.ID),
			zap.Error(err))
		return nil
	}
	return resp
}

func (s *AnalyticsService) responses(subs []models.CompletedSubmission) []scoring.Response {
	out := make([]scoring.Response, 0, len(subs))
	for _, sub := range subs {
		out = append(out, s.decodeResponse(sub))
	}
	return out
}

func (s *AnalyticsService) buildSubjectReport(data *subjectData) SubjectReport {
	report := SubjectReport{
		Subject: SubjectInfo{
			ID:       data.subject.ID,
			TenantID: data.subject.TenantID,
			Name:     data.subject.Name,
		},
		SurveyID:          data.surveyID,
		TotalSubmissions:  len(data.all),
		EvaluatorCount:    len(data.evaluators),
		HasSelfAssessment: data.self != nil,
	}

	if data.self != nil {
		self := s.scorer.ScoreResponse(s.decodeResponse(*data.self), data.questions)
		report.Self = &self
	}
	if len(data.evaluators) > 0 {
		evaluators := s.scorer.AverageScores(s.responses(data.evaluators), data.questions)
		report.Evaluators = &evaluators
	}
	return report
}

// SubjectReport scores the subject's self assessment and averages its evaluators.
func (s *AnalyticsService) SubjectReport(ctx context.Context, tenantID, subjectID, surveyID string) (SubjectReport, error) {
	data, err := s.loadSubject(ctx, questionMemo{}, tenantID, subjectID, surveyID)
	if err != nil {
		return SubjectReport{}, err
	}

	report := s.buildSubjectReport(data)

	s.logger.Info("built subject report",
		zap.String("tenant_id", tenantID),
		zap.String("subject_id", subjectID),
		zap.String("survey_id", surveyID),
		zap.Int("submissions", report.TotalSubmissions),
		zap.Int("evaluators", report.EvaluatorCount),
		zap.Bool("self", report.HasSelfAssessment))

	return report, nil
}

func selfVsEvaluator(report SubjectReport) (SelfEvaluatorComparison, error) {
	if report.Self == nil {
		return SelfEvaluatorComparison{}, fmt.Errorf("%w: no self assessment for subject %s", ErrNotFound, report.Subject.ID)
	}
	if report.Evaluators == nil {
		return SelfEvaluatorComparison{}, fmt.Errorf("%w: no evaluator submissions for subject %s", ErrNotFound, report.Subject.ID)
	}

	c := scoring.Compare(*report.Self, *report.Evaluators)
	out := SelfEvaluatorComparison{
		SubjectID:            report.Subject.ID,
		SelfScore:            c.FirstScore,
		EvaluatorScore:       c.SecondScore,
		Difference:           c.Difference,
		PercentageDifference: c.PercentageDifference,
		EvaluatorCount:       report.EvaluatorCount,
		Questions:            make([]SelfEvaluatorQuestion, 0, len(c.Questions)),
	}
	for _, q := range c.Questions {
		out.Questions = append(out.Questions, SelfEvaluatorQuestion{
			QuestionID:     q.QuestionID,
			Name:           q.Name,
			Title:          q.Title,
			SelfScore:      q.FirstScore,
			EvaluatorScore: q.SecondScore,
			Difference:     q.Difference,
		})
	}
	return out, nil
}

// SelfVsEvaluator contrasts the subject's self assessment with its evaluator average.
func (s *AnalyticsService) SelfVsEvaluator(ctx context.Context, tenantID, subjectID, surveyID string) (SelfEvaluatorComparison, error) {
	report, err := s.SubjectReport(ctx, tenantID, subjectID, surveyID)
	if err != nil {
		return SelfEvaluatorComparison{}, fmt.Errorf("subject report: %w", err)
	}
	return selfVsEvaluator(report)
}

type subjectGroup struct {
	subjectID string
	subs      []models.CompletedSubmission
}

// groupBySubject keeps subjects in order of first appearance.
func groupBySubject(rows []models.CompletedSubmission) []subjectGroup {
	index := make(map[string]int)
	var groups []subjectGroup
	for _, row := range rows {
		i, ok := index[row.SubjectID]
		if !ok {
			i = len(groups)
			index[row.SubjectID] = i
			groups = append(groups, subjectGroup{subjectID: row.SubjectID})
		}
		groups[i].subs = append(groups[i].subs, row)
	}
	return groups
}

func (s *AnalyticsService) organizationComparison(memo questionMemo, subjectID string, target scoring.ScoreSummary, tenantRows []models.CompletedSubmission) (OrganizationComparison, error) {
	var population []scoring.ScoreSummary
	for _, g := range groupBySubject(tenantRows) {
		if g.subjectID == subjectID {
			continue
		}
		var evaluators []models.CompletedSubmission
		for _, sub := range g.subs {
			if !isSelf(sub) {
				evaluators = append(evaluators, sub)
			}
		}
		if len(evaluators) == 0 {
			continue
		}
		qs := s.questionsFor(memo, evaluators[0])
		population = append(population, s.scorer.AverageScores(s.responses(evaluators), qs))
	}
	if len(population) == 0 {
		return OrganizationComparison{}, fmt.Errorf("%w: no peer evaluations to compare subject %s against", ErrNotFound, subjectID)
	}

	overalls := make([]float64, 0, len(population))
	for _, p := range population {
		overalls = append(overalls, p.OverallScore)
	}
	orgAverage := scoring.Mean(overalls)
	diff := target.OverallScore - orgAverage

	out := OrganizationComparison{
		SubjectID:            subjectID,
		SubjectScore:         target.OverallScore,
		OrganizationAverage:  orgAverage,
		Difference:           diff,
		PercentageDifference: scoring.PercentageDifference(diff, orgAverage),
		Performance:          scoring.Classify(diff, s.atParThreshold),
		PopulationSize:       len(population),
		Questions:            make([]OrganizationQuestion, 0, len(target.Questions)),
	}

	for _, tq := range target.Questions {
		var peers []float64
		for _, p := range population {
			if pq, ok := p.Question(tq.QuestionID); ok {
				peers = append(peers, pq.Score)
			}
		}
		if len(peers) == 0 {
			continue
		}
		avg := scoring.Mean(peers)
		out.Questions = append(out.Questions, OrganizationQuestion{
			QuestionID:          tq.QuestionID,
			Name:                tq.Name,
			Title:               tq.Title,
			SubjectScore:        tq.Score,
			OrganizationAverage: avg,
			Difference:          tq.Score - avg,
			PeerCount:           len(peers),
		})
	}
	return out, nil
}

// OrganizationComparison contrasts the subject's evaluator average with the tenant's other
// subjects, optionally restricted to one survey.
func (s *AnalyticsService) OrganizationComparison(ctx context.Context, tenantID, subjectID, surveyID string) (OrganizationComparison, error) {
	memo := questionMemo{}
	data, err := s.loadSubject(ctx, memo, tenantID, subjectID, surveyID)
	if err != nil {
		return OrganizationComparison{}, fmt.Errorf("subject report: %w", err)
	}

	report := s.buildSubjectReport(data)
	if report.Evaluators == nil {
		return OrganizationComparison{}, fmt.Errorf("%w: no evaluator submissions for subject %s", ErrNotFound, subjectID)
	}

	tenantRows, err := s.listCompleted(ctx, models.SubmissionFilter{TenantID: tenantID, SurveyID: surveyID})
	if err != nil {
		return OrganizationComparison{}, err
	}

	out, err := s.organizationComparison(memo, subjectID, *report.Evaluators, tenantRows)
	if err != nil {
		return OrganizationComparison{}, err
	}

	s.logger.Info("built organization comparison",
		zap.String("tenant_id", tenantID),
		zap.String("subject_id", subjectID),
		zap.Float64("subject_score", out.SubjectScore),
		zap.Float64("organization_average", out.OrganizationAverage),
		zap.String("performance", string(out.Performance)),
		zap.Int("population", out.PopulationSize))

	return out, nil
}

// relationshipSummaries groups evaluator submissions by relationship label, compared
// case-insensitively, in order of first appearance.
func (s *AnalyticsService) relationshipSummaries(data *subjectData) []RelationshipSummary {
	type group struct {
		label string
		subs  []models.CompletedSubmission
	}
	index := make(map[string]int)
	var groups []group
	for _, sub := range data.evaluators {
		label := strings.TrimSpace(sub.Relationship)
		if label == "" {
			label = unspecifiedRelationship
		}
		key := strings.ToLower(label)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{label: label})
		}
		groups[i].subs = append(groups[i].subs, sub)
	}

	out := make([]RelationshipSummary, 0, len(groups))
	for _, g := range groups {
		out = append(out, RelationshipSummary{
			Relationship: g.label,
			Responses:    len(g.subs),
			Summary:      s.scorer.AverageScores(s.responses(g.subs), data.questions),
		})
	}
	return out
}

// highlights returns the n best and n worst questions; ties keep schema order.
func highlights(summary scoring.ScoreSummary, n int) (best, worst []scoring.QuestionScore) {
	desc := make([]scoring.QuestionScore, len(summary.Questions))
	copy(desc, summary.Questions)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].Score > desc[j].Score })

	asc := make([]scoring.QuestionScore, len(summary.Questions))
	copy(asc, summary.Questions)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].Score < asc[j].Score })

	if len(desc) > n {
		desc = desc[:n]
		asc = asc[:n]
	}
	return desc, asc
}

// ComprehensiveReport merges the subject report, the self-vs-evaluator comparison and the
// organization comparison. Only a failing subject report fails the call; missing
// comparisons are left zero.
func (s *AnalyticsService) ComprehensiveReport(ctx context.Context, tenantID, subjectID, surveyID string) (ComprehensiveReport, error) {
	if err := validate(tenantID, subjectID); err != nil {
		return ComprehensiveReport{}, err
	}

	var (
		data       *subjectData
		tenantRows []models.CompletedSubmission
		tenantErr  error
		memo       = questionMemo{}
	)

	// loadSubject is the only writer of memo until Wait returns.
	// A failed tenant listing only costs the organization section.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		data, err = s.loadSubject(gctx, memo, tenantID, subjectID, surveyID)
		return err
	})
	g.Go(func() error {
		tenantRows, tenantErr = s.listCompleted(gctx, models.SubmissionFilter{TenantID: tenantID, SurveyID: surveyID})
		return nil
	})
	if err := g.Wait(); err != nil {
		return ComprehensiveReport{}, fmt.Errorf("comprehensive report: %w", err)
	}

	base := s.buildSubjectReport(data)
	report := ComprehensiveReport{
		Subject:           base.Subject,
		SurveyID:          base.SurveyID,
		TotalSubmissions:  base.TotalSubmissions,
		EvaluatorCount:    base.EvaluatorCount,
		HasSelfAssessment: base.HasSelfAssessment,
		Self:              scoring.ScoreSummary{Questions: []scoring.QuestionScore{}},
		Evaluators:        scoring.ScoreSummary{Questions: []scoring.QuestionScore{}},
		SelfVsEvaluator:   SelfEvaluatorComparison{SubjectID: subjectID, Questions: []SelfEvaluatorQuestion{}},
		Organization:      OrganizationComparison{SubjectID: subjectID, Questions: []OrganizationQuestion{}},
		Relationships:     s.relationshipSummaries(data),
		Strengths:         []scoring.QuestionScore{},
		DevelopmentAreas:  []scoring.QuestionScore{},
	}

	if base.Self != nil {
		report.Self = *base.Self
		report.SelfScore = base.Self.OverallScore
	}
	if base.Evaluators != nil {
		report.Evaluators = *base.Evaluators
		report.EvaluatorScore = base.Evaluators.OverallScore
		report.Strengths, report.DevelopmentAreas = highlights(*base.Evaluators, highlightCount)
	}

	if cmp, err := selfVsEvaluator(base); err == nil {
		report.SelfVsEvaluator = cmp
	} else {
		s.logger.Debug("self vs evaluator unavailable", zap.String("subject_id", subjectID), zap.Error(err))
	}

	if base.Evaluators != nil {
		if tenantErr != nil {
			s.logger.Warn("organization comparison skipped, tenant submissions unavailable",
				zap.String("tenant_id", tenantID),
				zap.String("subject_id", subjectID),
				zap.Error(tenantErr))
		} else if org, err := s.organizationComparison(memo, subjectID, *base.Evaluators, tenantRows); err == nil {
			report.Organization = org
		} else {
			s.logger.Debug("organization comparison unavailable", zap.String("subject_id", subjectID), zap.Error(err))
		}
	}

	s.logger.Info("built comprehensive report",
		zap.String("tenant_id", tenantID),
		zap.String("subject_id", subjectID),
		zap.String("survey_id", surveyID),
		zap.Float64("self_score", report.SelfScore),
		zap.Float64("evaluator_score", report.EvaluatorScore),
		zap.String("performance", string(report.Organization.Performance)))

	return report, nil
}

package service

import "github.com/godilite/feedback-analytics/internal/scoring"

type SubjectInfo struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
}

// SubjectReport holds the self and evaluator summaries of one subject. Either summary is
// nil when the subject has no submission of that kind.
type SubjectReport struct {
	Subject           SubjectInfo           `json:"subject"`
	SurveyID          string                `json:"survey_id,omitempty"`
	TotalSubmissions  int                   `json:"total_submissions"`
	EvaluatorCount    int                   `json:"evaluator_count"`
	HasSelfAssessment bool                  `json:"has_self_assessment"`
	Self              *scoring.ScoreSummary `json:"self,omitempty"`
	Evaluators        *scoring.ScoreSummary `json:"evaluators,omitempty"`
}

type SelfEvaluatorQuestion struct {
	QuestionID     string  `json:"question_id"`
	Name           string  `json:"name"`
	Title          string  `json:"title"`
	SelfScore      float64 `json:"self_score"`
	EvaluatorScore float64 `json:"evaluator_score"`
	Difference     float64 `json:"difference"`
}

// SelfEvaluatorComparison contrasts self assessment with the evaluator average. Percentages
// are relative to the evaluator score.
type SelfEvaluatorComparison struct {
	SubjectID            string                  `json:"subject_id"`
	SelfScore            float64                 `json:"self_score"`
	EvaluatorScore       float64                 `json:"evaluator_score"`
	Difference           float64                 `json:"difference"`
	PercentageDifference float64                 `json:"percentage_difference"`
	EvaluatorCount       int                     `json:"evaluator_count"`
	Questions            []SelfEvaluatorQuestion `json:"questions"`
}

type OrganizationQuestion struct {
	QuestionID          string  `json:"question_id"`
	Name                string  `json:"name"`
	Title               string  `json:"title"`
	SubjectScore        float64 `json:"subject_score"`
	OrganizationAverage float64 `json:"organization_average"`
	Difference          float64 `json:"difference"`
	PeerCount           int     `json:"peer_count"`
}

// OrganizationComparison contrasts the subject's evaluator average with the mean evaluator
// average of every other subject in the tenant.
type OrganizationComparison struct {
	SubjectID            string                 `json:"subject_id"`
	SubjectScore         float64                `json:"subject_score"`
	OrganizationAverage  float64                `json:"organization_average"`
	Difference           float64                `json:"difference"`
	PercentageDifference float64                `json:"percentage_difference"`
	Performance          scoring.Performance    `json:"performance"`
	PopulationSize       int                    `json:"population_size"`
	Questions            []OrganizationQuestion `json:"questions"`
}

// RelationshipSummary aggregates evaluators sharing a relationship label.
type RelationshipSummary struct {
	Relationship string               `json:"relationship"`
	Responses    int                  `json:"responses"`
	Summary      scoring.ScoreSummary `json:"summary"`
}

// ComprehensiveReport merges every view of a subject. Views that cannot be computed are
// left zero or empty.
type ComprehensiveReport struct {
	Subject           SubjectInfo             `json:"subject"`
	SurveyID          string                  `json:"survey_id,omitempty"`
	TotalSubmissions  int                     `json:"total_submissions"`
	EvaluatorCount    int                     `json:"evaluator_count"`
	HasSelfAssessment bool                    `json:"has_self_assessment"`
	SelfScore         float64                 `json:"self_score"`
	EvaluatorScore    float64                 `json:"evaluator_score"`
	Self              scoring.ScoreSummary    `json:"self"`
	Evaluators        scoring.ScoreSummary    `json:"evaluators"`
	SelfVsEvaluator   SelfEvaluatorComparison `json:"self_vs_evaluator"`
	Organization      OrganizationComparison  `json:"organization"`
	Relationships     []RelationshipSummary   `json:"relationships"`
	Strengths         []scoring.QuestionScore `json:"strengths"`
	DevelopmentAreas  []scoring.QuestionScore `json:"development_areas"`
}

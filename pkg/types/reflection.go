package types

import (
	"math"
	"time"
)

// ReflectionScores holds the five rubric dimensions plus the locally
// computed overall score, each 0-100.
type ReflectionScores struct {
	Accuracy     int `json:"accuracy"`
	Helpfulness  int `json:"helpfulness"`
	Completeness int `json:"completeness"`
	Clarity      int `json:"clarity"`
	Empathy      int `json:"empathy"`
	Overall      int `json:"overall"`
}

// ComputeOverall sets Overall to the rounded mean of the five dimensions.
// The grader's own overall figure is never trusted.
func (s *ReflectionScores) ComputeOverall() {
	sum := s.Accuracy + s.Helpfulness + s.Completeness + s.Clarity + s.Empathy
	s.Overall = int(math.Round(float64(sum) / 5))
}

// ReflectionResult is the outcome of evaluating one draft response.
type ReflectionResult struct {
	Scores          ReflectionScores `json:"scores"`
	Improvements    []string         `json:"improvements"`
	ShouldRevise    bool             `json:"should_revise"`
	Reasoning       string           `json:"reasoning"`
	RevisedResponse string           `json:"revised_response,omitempty"`
}

// ReflectionRecord is the immutable audit row persisted for every
// evaluation, including degraded defaults.
type ReflectionRecord struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	TenantID     string           `json:"tenant_id"`
	UserQuery    string           `json:"user_query"`
	Response     string           `json:"response"`
	Scores       ReflectionScores `json:"scores"`
	Improvements []string         `json:"improvements,omitempty"`
	WasRevised   bool             `json:"was_revised"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ReflectionAverages holds mean scores over a trailing window.
type ReflectionAverages struct {
	Accuracy     float64 `json:"accuracy"`
	Helpfulness  float64 `json:"helpfulness"`
	Completeness float64 `json:"completeness"`
	Clarity      float64 `json:"clarity"`
	Empathy      float64 `json:"empathy"`
	Overall      float64 `json:"overall"`
	SampleSize   int     `json:"sample_size"`
	RevisionRate float64 `json:"revision_rate"`
}

// ImprovementTrend counts how often a recurring improvement theme appears
// across persisted reflections.
type ImprovementTrend struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

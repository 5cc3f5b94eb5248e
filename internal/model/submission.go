package model

import (
	"encoding/json"
	"time"
)

// Submission is the terminal artifact of a test run, keyed by the candidate's
// dni so the store itself enforces one row per candidate. Once written it is
// only ever overwritten through the resubmission path, never partially
// mutated.
type Submission struct {
	DNI                 string           `gorm:"primarykey;size:8" json:"dni"`
	Name                string           `json:"name" gorm:"not null"`
	Answers             []string         `json:"answers" gorm:"serializer:json;not null"`
	SubmittedAt         time.Time        `json:"submitted_at" gorm:"not null"`
	TimeExpired         bool             `json:"time_expired"`
	CompletionTime      int              `json:"completion_time"`
	SessionID           string           `json:"session_id" gorm:"size:36"`
	Resubmitted         bool             `json:"resubmitted"`
	PreviousSubmissions int              `json:"previous_submissions"`
	Detection           *HeuristicReport `json:"detection,omitempty" gorm:"serializer:json"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// HeuristicReport carries the advisory AI-likeness metadata attached to a
// submission. It never influences whether the submission is accepted.
type HeuristicReport struct {
	// Server holds the server-side recomputation, one entry per answer that
	// was long enough to score.
	Server []AnswerScore `json:"server,omitempty"`
	// Client is the caller-supplied analysis, stored verbatim for reviewers.
	Client json.RawMessage `json:"client,omitempty"`
}

type AnswerScore struct {
	Index         int      `json:"index"`
	AIProbability float64  `json:"aiProbability"`
	Confidence    string   `json:"confidence"`
	Findings      []string `json:"findings,omitempty"`
}

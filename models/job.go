package models

import "time"

// JobStatus is the lifecycle state of a verification job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// VerificationJob tracks the progress of one bulk verification run.
// It is mutated only by the orchestrator and is terminal once the
// status leaves processing.
type VerificationJob struct {
	ID           string     `json:"id"`
	Total        int        `json:"total"`
	Processed    int        `json:"processed"`
	PassCount    int        `json:"pass_count"`
	WarningCount int        `json:"warning_count"`
	FailCount    int        `json:"fail_count"`
	Status       JobStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// VerificationSummary aggregates a completed (or partial) result set.
type VerificationSummary struct {
	Total        int     `json:"total"`
	Pass         int     `json:"pass"`
	Warning      int     `json:"warning"`
	Fail         int     `json:"fail"`
	Pending      int     `json:"pending"`
	Skipped      int     `json:"skipped"`
	AlreadyKnown int     `json:"already_known"`
	PassRate     float64 `json:"pass_rate"` // whole-number percentage
	TokenCost    int     `json:"token_cost"`
	TimeEstimate string  `json:"time_estimate"`
}

// CostEstimate compares the phased enrichment strategy against deep
// enrichment for every candidate. Advisory only; it never gates execution.
type CostEstimate struct {
	Products       int     `json:"products"`
	PhasedCost     float64 `json:"phased_cost"`
	NaiveCost      float64 `json:"naive_cost"`
	Savings        float64 `json:"savings"`
	SavingsPercent float64 `json:"savings_percent"`
}

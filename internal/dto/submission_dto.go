package dto

import (
	"time"

	"github.com/codearena/judge-api/internal/models"
)

// SubmissionResponse is the history view of one submission attempt.
type SubmissionResponse struct {
	ID              uint      `json:"id"`
	ProblemID       uint      `json:"problem_id"`
	Language        string    `json:"language"`
	Status          string    `json:"status"`
	TestCasesTotal  int       `json:"test_cases_total"`
	TestCasesPassed int       `json:"test_cases_passed"`
	Runtime         float64   `json:"runtime"`
	MemoryKB        int       `json:"memory_kb"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewSubmissionResponse converts a submission model into its history DTO.
// The source code is deliberately omitted from listings.
func NewSubmissionResponse(submission models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:              submission.ID,
		ProblemID:       submission.ProblemID,
		Language:        submission.Language,
		Status:          submission.Status,
		TestCasesTotal:  submission.TestCasesTotal,
		TestCasesPassed: submission.TestCasesPassed,
		Runtime:         submission.Runtime,
		MemoryKB:        submission.MemoryKB,
		ErrorMessage:    submission.ErrorMessage,
		CreatedAt:       submission.CreatedAt,
	}
}

// NewSubmissionResponseSlice converts a slice of submissions.
func NewSubmissionResponseSlice(submissions []models.Submission) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		out = append(out, NewSubmissionResponse(submission))
	}
	return out
}

package dto

import "github.com/codearena/judge-api/internal/models"

// RunRequest is the payload for evaluating code against a problem's visible
// test cases.
type RunRequest struct {
	Code     string `json:"code" validate:"required,min=1"`
	Language string `json:"language" validate:"required"`
}

// SubmitRequest is the payload for a graded submission.
type SubmitRequest struct {
	Code     string `json:"code" validate:"required,min=1"`
	Language string `json:"language" validate:"required"`
}

// TestCaseResult reports the outcome of one executed test case.
type TestCaseResult struct {
	StatusID int     `json:"status_id"`
	Passed   bool    `json:"passed"`
	Time     float64 `json:"time"`
	MemoryKB int     `json:"memory_kb"`
	Stderr   string  `json:"stderr,omitempty"`
}

// RunResponse summarises a run against the visible test cases.
type RunResponse struct {
	Success      bool             `json:"success"`
	TestCases    []TestCaseResult `json:"test_cases"`
	Runtime      float64          `json:"runtime"`
	MemoryKB     int              `json:"memory_kb"`
	ErrorMessage string           `json:"error_message,omitempty"`
}

// SubmitResponse summarises a graded submission.
type SubmitResponse struct {
	SubmissionID    uint    `json:"submission_id"`
	Accepted        bool    `json:"accepted"`
	TotalTestCases  int     `json:"total_test_cases"`
	PassedTestCases int     `json:"passed_test_cases"`
	Runtime         float64 `json:"runtime"`
	MemoryKB        int     `json:"memory_kb"`
}

// NewSubmitResponse builds a submit summary from a finalized submission.
func NewSubmitResponse(submission models.Submission) SubmitResponse {
	return SubmitResponse{
		SubmissionID:    submission.ID,
		Accepted:        submission.Status == models.SubmissionStatusAccepted,
		TotalTestCases:  submission.TestCasesTotal,
		PassedTestCases: submission.TestCasesPassed,
		Runtime:         submission.Runtime,
		MemoryKB:        submission.MemoryKB,
	}
}

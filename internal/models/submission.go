package models

import "time"

// Submission lifecycle states. A submission is created pending and moves
// exactly once to a terminal state.
const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusAccepted = "accepted"
	SubmissionStatusWrong    = "wrong"
	SubmissionStatusError    = "error"
)

// Submission is the durable record of one graded submission attempt.
type Submission struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	ProblemID       uint      `gorm:"not null;index" json:"problem_id"`
	Code            string    `gorm:"type:text;not null" json:"code"`
	Language        string    `gorm:"size:32;not null" json:"language"`
	Status          string    `gorm:"size:32;not null" json:"status"`
	TestCasesTotal  int       `gorm:"default:0" json:"test_cases_total"`
	TestCasesPassed int       `gorm:"default:0" json:"test_cases_passed"`
	Runtime         float64   `gorm:"default:0" json:"runtime"`
	MemoryKB        int       `gorm:"default:0" json:"memory_kb"`
	ErrorMessage    string    `gorm:"type:text" json:"error_message"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsTerminal reports whether the submission has reached a final verdict.
func (s Submission) IsTerminal() bool {
	return s.Status != SubmissionStatusPending
}

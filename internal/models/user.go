package models

import "time"

// User represents a platform account whose progress the judge tracks.
// Authentication lives elsewhere; the judge only reads the identity and
// mutates the progress counters.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	DisplayName  string    `gorm:"size:255;not null" json:"display_name"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PhotoURL     string    `gorm:"size:512" json:"photo_url"`
	EasySolved   int       `gorm:"default:0" json:"easy_solved"`
	MediumSolved int       `gorm:"default:0" json:"medium_solved"`
	HardSolved   int       `gorm:"default:0" json:"hard_solved"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SolvedProblem marks a problem as solved by a user. The composite unique
// index is what makes progress reconciliation idempotent under concurrent
// accepted submissions: the insert either takes effect once or conflicts.
type SolvedProblem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_solved_user_problem" json:"user_id"`
	ProblemID uint      `gorm:"not null;uniqueIndex:idx_solved_user_problem" json:"problem_id"`
	CreatedAt time.Time `json:"created_at"`
}

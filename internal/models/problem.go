package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Difficulty enumerates problem difficulty levels.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// TestCase is one input/expected-output pair attached to a problem.
// Visible cases carry an explanation shown to users; hidden cases do not.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	Explanation    string `json:"explanation,omitempty"`
}

// CodeSnippet pairs a language with a piece of code, used for starter code
// and reference solutions.
type CodeSnippet struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// Problem represents a coding problem available for run and submit.
type Problem struct {
	ID                 uint                             `gorm:"primaryKey" json:"id"`
	Title              string                           `gorm:"size:255;not null" json:"title"`
	Description        string                           `gorm:"type:text;not null" json:"description"`
	Difficulty         string                           `gorm:"size:32;not null" json:"difficulty"`
	Tags               string                           `gorm:"type:text" json:"tags"`
	VisibleTestCases   datatypes.JSONSlice[TestCase]    `json:"visible_test_cases"`
	HiddenTestCases    datatypes.JSONSlice[TestCase]    `json:"hidden_test_cases"`
	StarterCode        datatypes.JSONSlice[CodeSnippet] `json:"starter_code"`
	ReferenceSolutions datatypes.JSONSlice[CodeSnippet] `json:"reference_solutions"`
	CreatedAt          time.Time                        `json:"created_at"`
	UpdatedAt          time.Time                        `json:"updated_at"`
}

// TagsSlice returns the tags as a slice of strings.
func (p Problem) TagsSlice() []string {
	if p.Tags == "" {
		return nil
	}

	parts := strings.Split(p.Tags, ",")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// ValidDifficulty reports whether the difficulty is one of the known levels.
func ValidDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

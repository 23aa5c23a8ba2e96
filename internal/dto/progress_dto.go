package dto

import "github.com/codearena/judge-api/internal/models"

// DifficultyCount groups the per-difficulty solved counters.
type DifficultyCount struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// ProgressResponse summarises a user's solved problems.
type ProgressResponse struct {
	SolvedTotal     int                      `json:"solved_total"`
	DifficultyCount DifficultyCount          `json:"difficulty_count"`
	SolvedProblems  []ProblemSummaryResponse `json:"solved_problems"`
}

// NewProgressResponse builds the progress DTO from the user record and the
// solved problem list.
func NewProgressResponse(user models.User, solved []models.Problem) ProgressResponse {
	problems := make([]ProblemSummaryResponse, 0, len(solved))
	for _, problem := range solved {
		problems = append(problems, NewProblemSummaryResponse(problem))
	}

	return ProgressResponse{
		SolvedTotal: len(solved),
		DifficultyCount: DifficultyCount{
			Easy:   user.EasySolved,
			Medium: user.MediumSolved,
			Hard:   user.HardSolved,
		},
		SolvedProblems: problems,
	}
}

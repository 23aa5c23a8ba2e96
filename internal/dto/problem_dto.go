package dto

import (
	"strings"

	"gorm.io/datatypes"

	"github.com/codearena/judge-api/internal/models"
)

// TestCaseInput is one test case supplied by a problem author.
type TestCaseInput struct {
	Input          string `json:"input" validate:"required"`
	ExpectedOutput string `json:"expected_output" validate:"required"`
	Explanation    string `json:"explanation"`
}

// CodeSnippetInput pairs a language with code in author payloads.
type CodeSnippetInput struct {
	Language string `json:"language" validate:"required"`
	Code     string `json:"code" validate:"required,min=1"`
}

// ProblemCreateRequest is the payload for authoring a problem. Reference
// solutions are validated against the visible test cases before the problem
// is persisted.
type ProblemCreateRequest struct {
	Title              string             `json:"title" validate:"required,min=3,max=255"`
	Description        string             `json:"description" validate:"required"`
	Difficulty         string             `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Tags               []string           `json:"tags"`
	VisibleTestCases   []TestCaseInput    `json:"visible_test_cases" validate:"required,min=1,dive"`
	HiddenTestCases    []TestCaseInput    `json:"hidden_test_cases" validate:"required,min=1,dive"`
	StarterCode        []CodeSnippetInput `json:"starter_code" validate:"dive"`
	ReferenceSolutions []CodeSnippetInput `json:"reference_solutions" validate:"required,min=1,dive"`
}

// ProblemUpdateRequest mirrors the create payload for full updates.
type ProblemUpdateRequest = ProblemCreateRequest

// ProblemSummaryResponse is the listing view of a problem.
type ProblemSummaryResponse struct {
	ID         uint     `json:"id"`
	Title      string   `json:"title"`
	Difficulty string   `json:"difficulty"`
	Tags       []string `json:"tags"`
}

// ProblemResponse is the detail view of a problem. Hidden test cases and
// reference solutions never leave the server.
type ProblemResponse struct {
	ID               uint                 `json:"id"`
	Title            string               `json:"title"`
	Description      string               `json:"description"`
	Difficulty       string               `json:"difficulty"`
	Tags             []string             `json:"tags"`
	VisibleTestCases []models.TestCase    `json:"visible_test_cases"`
	StarterCode      []models.CodeSnippet `json:"starter_code"`
}

// NewProblemSummaryResponse builds a listing DTO from a model.
func NewProblemSummaryResponse(problem models.Problem) ProblemSummaryResponse {
	return ProblemSummaryResponse{
		ID:         problem.ID,
		Title:      problem.Title,
		Difficulty: problem.Difficulty,
		Tags:       problem.TagsSlice(),
	}
}

// NewProblemResponse builds a detail DTO from a model.
func NewProblemResponse(problem models.Problem) ProblemResponse {
	return ProblemResponse{
		ID:               problem.ID,
		Title:            problem.Title,
		Description:      problem.Description,
		Difficulty:       problem.Difficulty,
		Tags:             problem.TagsSlice(),
		VisibleTestCases: []models.TestCase(problem.VisibleTestCases),
		StarterCode:      []models.CodeSnippet(problem.StarterCode),
	}
}

// Model converts the authoring payload into a Problem model.
func (r ProblemCreateRequest) Model() models.Problem {
	visible := make([]models.TestCase, 0, len(r.VisibleTestCases))
	for _, testCase := range r.VisibleTestCases {
		visible = append(visible, models.TestCase{
			Input:          testCase.Input,
			ExpectedOutput: testCase.ExpectedOutput,
			Explanation:    testCase.Explanation,
		})
	}

	hidden := make([]models.TestCase, 0, len(r.HiddenTestCases))
	for _, testCase := range r.HiddenTestCases {
		hidden = append(hidden, models.TestCase{
			Input:          testCase.Input,
			ExpectedOutput: testCase.ExpectedOutput,
		})
	}

	return models.Problem{
		Title:              strings.TrimSpace(r.Title),
		Description:        r.Description,
		Difficulty:         strings.ToLower(strings.TrimSpace(r.Difficulty)),
		Tags:               strings.Join(r.Tags, ","),
		VisibleTestCases:   datatypes.NewJSONSlice(visible),
		HiddenTestCases:    datatypes.NewJSONSlice(hidden),
		StarterCode:        datatypes.NewJSONSlice(snippets(r.StarterCode)),
		ReferenceSolutions: datatypes.NewJSONSlice(snippets(r.ReferenceSolutions)),
	}
}

func snippets(inputs []CodeSnippetInput) []models.CodeSnippet {
	out := make([]models.CodeSnippet, 0, len(inputs))
	for _, input := range inputs {
		out = append(out, models.CodeSnippet{Language: input.Language, Code: input.Code})
	}
	return out
}

package models

// Verdict is the reduced outcome of one evaluation batch. It is ephemeral:
// the submit path copies it onto the Submission record, the run path returns
// it to the caller directly.
type Verdict struct {
	Status       string  `json:"status"`
	Passed       int     `json:"passed"`
	Total        int     `json:"total"`
	Runtime      float64 `json:"runtime"`
	MemoryKB     int     `json:"memory_kb"`
	ErrorMessage string  `json:"error_message,omitempty"`
}

// Accepted reports whether every unit in the batch passed.
func (v Verdict) Accepted() bool {
	return v.Status == SubmissionStatusAccepted
}

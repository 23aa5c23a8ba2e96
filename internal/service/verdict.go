package service

import (
	"github.com/codearena/judge-api/internal/models"
	"github.com/codearena/judge-api/pkg/judge"
)

// ReduceVerdict folds ordered per-test-case results into a single verdict.
//
// A unit passes only when its status code is the service's "matched expected
// output" code. Runtime accumulates and memory peaks across passed units
// only. The first non-passing unit fixes the overall status (runtime error
// maps to "error", every other failure category to "wrong") and supplies the
// error message. The fold never short-circuits: later units still contribute
// to the pass count and metrics, but cannot displace the first failure's
// classification.
//
// Callers must guarantee a non-empty result set; an empty batch reduces to
// an accepted verdict with zero cases, which is a caller configuration bug.
func ReduceVerdict(results []judge.Result) models.Verdict {
	verdict := models.Verdict{
		Status: models.SubmissionStatusAccepted,
		Total:  len(results),
	}

	for _, result := range results {
		if result.StatusID == judge.StatusAccepted {
			verdict.Passed++
			verdict.Runtime += result.TimeSeconds()
			if result.MemoryKB > verdict.MemoryKB {
				verdict.MemoryKB = result.MemoryKB
			}
			continue
		}

		if verdict.Status != models.SubmissionStatusAccepted {
			// first failure already recorded
			continue
		}

		if result.StatusID == judge.StatusRuntimeError {
			verdict.Status = models.SubmissionStatusError
		} else {
			verdict.Status = models.SubmissionStatusWrong
		}
		verdict.ErrorMessage = result.Stderr
	}

	return verdict
}

// internal/question/checker.go
package question

import (
	"fmt"

	"github.com/mwiater/hogbench/internal/logging"
)

// CheckResult records the validation status of one question during the
// pre-check gate.
type CheckResult struct {
	Index          int
	Preview        string
	HasValidation  bool
	IsValid        *bool
	FailureReasons []string
}

// CheckError is returned when the pre-check gate refuses to let a run
// proceed. Callers map it to the data-validation exit code.
type CheckError struct {
	Message string
	Missing []CheckResult
	Invalid []CheckResult
}

func (e *CheckError) Error() string { return e.Message }

// Check applies the pre-check policy before any model call is made:
// questions without a validation field fail the run unless skipValidation
// is set (which bypasses the gate entirely), questions with
// is_valid=false fail the run unless ignoreInvalid drops them, and an
// empty set after filtering always fails.
func Check(questions []Question, skipValidation, ignoreInvalid bool) ([]Question, []CheckResult, error) {
	if skipValidation {
		logging.LogEvent("[PRECHECK] Skipping validation check (--skip-validation)")
		return questions, nil, nil
	}

	var (
		results []CheckResult
		missing []CheckResult
		invalid []CheckResult
		valid   []Question
	)

	for idx, q := range questions {
		if q.Validation == nil {
			r := CheckResult{
				Index:          idx,
				Preview:        q.Preview(),
				HasValidation:  false,
				FailureReasons: []string{"missing 'validation' field"},
			}
			results = append(results, r)
			missing = append(missing, r)
			continue
		}

		isValid := q.Validation.IsValid
		r := CheckResult{
			Index:         idx,
			Preview:       q.Preview(),
			HasValidation: true,
			IsValid:       &isValid,
		}
		if !isValid {
			r.FailureReasons = q.Validation.FailureReasons
		}
		results = append(results, r)

		if isValid {
			valid = append(valid, q)
		} else {
			invalid = append(invalid, r)
		}
	}

	if len(missing) > 0 {
		logCheckFailures("missing validation metadata", missing)
		return nil, results, &CheckError{
			Message: fmt.Sprintf("%d questions lack validation metadata; run validation first or pass --skip-validation", len(missing)),
			Missing: missing,
		}
	}

	if len(invalid) > 0 {
		if ignoreInvalid {
			logging.LogEvent("[PRECHECK] Ignoring %d invalid questions (--ignore-invalid)", len(invalid))
		} else {
			logCheckFailures("questions failed validation", invalid)
			return nil, results, &CheckError{
				Message: fmt.Sprintf("%d questions failed validation; pass --ignore-invalid to drop them", len(invalid)),
				Invalid: invalid,
			}
		}
	}

	if len(valid) == 0 {
		return nil, results, &CheckError{
			Message: "no valid questions remain after filtering",
			Invalid: invalid,
		}
	}

	logging.LogEvent("[PRECHECK] Passed: %d/%d questions valid", len(valid), len(questions))
	return valid, results, nil
}

func logCheckFailures(reason string, results []CheckResult) {
	logging.LogEvent("[PRECHECK] Failed: %s (%d questions)", reason, len(results))
	shown := results
	if len(shown) > 10 {
		shown = shown[:10]
	}
	for _, r := range shown {
		logging.LogEvent("[PRECHECK]   question %d: %s", r.Index+1, r.Preview)
		for i, msg := range r.FailureReasons {
			if i >= 2 {
				break
			}
			logging.LogEvent("[PRECHECK]     - %s", msg)
		}
	}
	if len(results) > 10 {
		logging.LogEvent("[PRECHECK]   ... and %d more", len(results)-10)
	}
}

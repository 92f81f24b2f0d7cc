// internal/tester/recovery.go
package tester

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/mwiater/hogbench/internal/fileio"
	"github.com/mwiater/hogbench/internal/logging"
	"github.com/mwiater/hogbench/internal/question"
)

// recoveryKey identifies one (question, cell) outcome across runs.
type recoveryKey struct {
	QuestionHash  string
	ContextLength int
	DepthBin      string
}

func hashQuestion(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// keyForResult derives the recovery key from a prior result line.
func keyForResult(r Result, noReference bool) recoveryKey {
	if noReference || r.TestMode == ModeNoReference {
		return recoveryKey{QuestionHash: hashQuestion(r.Question), DepthBin: ModeNoReference}
	}
	return recoveryKey{
		QuestionHash:  hashQuestion(r.Question),
		ContextLength: r.TestContextLength,
		DepthBin:      r.DepthBin,
	}
}

// keyForAssignment derives the recovery key an assignment would produce.
func keyForAssignment(a Assignment, q question.Question, noReference bool) recoveryKey {
	if noReference {
		return recoveryKey{QuestionHash: hashQuestion(q.Text), DepthBin: ModeNoReference}
	}
	return recoveryKey{
		QuestionHash:  hashQuestion(q.Text),
		ContextLength: a.ContextLength,
		DepthBin:      a.DepthBin,
	}
}

// LoadPriorResults reads a prior result file for recovery. Lines that do
// not decode as results are skipped with a warning.
func LoadPriorResults(path string) ([]Result, error) {
	_, lines, err := fileio.ReadJSONL(path)
	if err != nil {
		return nil, fmt.Errorf("load prior results: %w", err)
	}

	results := make([]Result, 0, len(lines))
	skipped := 0
	for i, line := range lines {
		var r Result
		if err := json.Unmarshal(line, &r); err != nil || r.Question == "" {
			skipped++
			logging.LogEvent("[RECOVERY] Skipping prior line %d: not a result record", i+1)
			continue
		}
		results = append(results, r)
	}
	if skipped > 0 {
		logging.LogEvent("[RECOVERY] Loaded %d prior results (%d lines skipped)", len(results), skipped)
	}
	return results, nil
}

// PlanRecovery splits the assignment list into work already answered by a
// successful prior result and work that must be rerun. Kept priors carry
// over verbatim; failed priors are dropped in favor of a fresh attempt.
func PlanRecovery(prior []Result, assignments []Assignment, questions []question.Question, noReference bool) (kept []Result, pending []Assignment) {
	succeeded := make(map[recoveryKey]Result, len(prior))
	for _, r := range prior {
		if !r.ParsingStatus.Succeeded() {
			continue
		}
		key := keyForResult(r, noReference)
		if _, dup := succeeded[key]; !dup {
			succeeded[key] = r
		}
	}

	claimed := make(map[recoveryKey]bool, len(succeeded))
	for _, a := range assignments {
		key := keyForAssignment(a, questions[a.QuestionIndex], noReference)
		if r, ok := succeeded[key]; ok && !claimed[key] {
			claimed[key] = true
			kept = append(kept, r)
			continue
		}
		pending = append(pending, a)
	}

	logging.LogEvent("[RECOVERY] Keeping %d prior results, %d assignments pending", len(kept), len(pending))
	return kept, pending
}

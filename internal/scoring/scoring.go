// Package scoring turns per-check findings into 0..100 scores and combines
// them into a scan's overall score.
package scoring

import "github.com/raysh454/qadetector/internal/model"

const (
	AccessibilityPenalty = 5
	SpellingPenalty      = 10
	HTMLErrorPenalty     = 10
	HTMLWarningPenalty   = 2
)

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Accessibility scores a count of violated rules.
func Accessibility(violations int) int {
	return clamp(100 - AccessibilityPenalty*violations)
}

// Spelling scores a count of misspelled tokens.
func Spelling(errors int) int {
	return clamp(100 - SpellingPenalty*errors)
}

// HTMLValidation scores validator errors and warnings. Info messages never
// reach this point.
func HTMLValidation(errors, warnings int) int {
	return clamp(100 - HTMLErrorPenalty*errors - HTMLWarningPenalty*warnings)
}

// HTMLCounts splits validator issues by kind.
func HTMLCounts(issues []model.Issue) (errors, warnings int) {
	for _, is := range issues {
		switch is.Kind {
		case model.IssueHTMLError:
			errors++
		case model.IssueHTMLWarning:
			warnings++
		}
	}
	return errors, warnings
}

// Mean is the round-half-up integer mean of scores, or 100 for none.
func Mean(scores []int) int {
	n := len(scores)
	if n == 0 {
		return 100
	}
	sum := 0
	for _, s := range scores {
		sum += clamp(s)
	}
	return (2*sum + n) / (2 * n)
}

// Aggregate fills the per-check and overall scores of scan from results.
// Checks absent from results are disabled and keep a nil score.
func Aggregate(scan *model.Scan, results map[model.CheckName]*model.CheckResult) {
	scores := make([]int, 0, len(results))
	issues := make([]model.Issue, 0)
	for _, name := range model.AllChecks {
		res, ok := results[name]
		if !ok || res == nil {
			continue
		}
		scan.SetCheckScore(name, res.Score)
		scores = append(scores, res.Score)
		issues = append(issues, res.Issues...)
	}
	scan.OverallScore = Mean(scores)
	scan.Issues = issues
}

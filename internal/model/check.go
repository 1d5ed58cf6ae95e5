package model

// CheckName identifies one of the built-in checks.
type CheckName string

const (
	CheckAccessibility  CheckName = "accessibility"
	CheckSpelling       CheckName = "spelling"
	CheckHTMLValidation CheckName = "html_validation"
)

// AllChecks lists the checks in the order results are reported.
var AllChecks = []CheckName{CheckAccessibility, CheckSpelling, CheckHTMLValidation}

// CheckResult is the transient output of one check over one content bundle.
type CheckResult struct {
	Check  CheckName `json:"check"`
	Issues []Issue   `json:"issues"`
	Score  int       `json:"score"`

	// Failed is set when the check errored and the result was replaced by
	// the neutral one.
	Failed bool   `json:"failed,omitempty"`
	Error  string `json:"-"`
}

// NeutralResult is what a failing check contributes: no issues, full score.
func NeutralResult(name CheckName) *CheckResult {
	return &CheckResult{Check: name, Issues: []Issue{}, Score: 100}
}

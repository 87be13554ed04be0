package eval

import (
	"regexp"

	"github.com/forbearing/ogam/ogamerrs"
)

// SecurityError reports a sandbox violation (spec §4.1 "Sandbox"). It is a
// distinct kind from a parse error so callers can tell "malformed" from
// "forbidden" apart, per spec §4.1 "Failure modes".
type SecurityError struct {
	Expr   string
	Reason string
}

func (e *SecurityError) Error() string {
	return "eval: expression rejected by sandbox (" + e.Reason + "): " + e.Expr
}

// forbidden lists the patterns spec §4.1 requires rejecting before
// tokenization. Each entry is checked against the raw expression text;
// the first match wins. Ordering follows the spec's own listing.
var forbidden = []struct {
	reason string
	re     *regexp.Regexp
}{
	{"shell-quoting characters", regexp.MustCompile("`|\\$\\(")}, // backtick or $(
	{"global-variable-like sigil", regexp.MustCompile(`\$[A-Za-z_]`)},
	{"variable-variable", regexp.MustCompile(`\$\$`)},
	{"function call", regexp.MustCompile(`[A-Za-z_]\w*\s*\(`)},
	{"static scope resolution", regexp.MustCompile(`::`)},
	{"method call via arrow", regexp.MustCompile(`->`)},
	{"method call via dot", regexp.MustCompile(`\.[A-Za-z_]\w*\s*\(`)},
	{"object instantiation", regexp.MustCompile(`\bnew\s+[A-Za-z_]`)},
	{"anonymous function", regexp.MustCompile(`\bfunction\s*\(|=>`)},
	{"increment or decrement", regexp.MustCompile(`\+\+|--`)},
	{"compound assignment", regexp.MustCompile(`[+\-*/%.]=[^=]|[+\-*/%.]=$`)},
	{"array indexing", regexp.MustCompile(`\[`)},
}

// bareAssign matches any "="; comparisonOperators (==, !=, <=, >=, ===,
// !==) are removed from expr first, so what bareAssign still finds is a
// bare assignment.
// It is checked separately because the comparison operators themselves
// contain "=" and must not be flagged.
var comparisonOperators = regexp.MustCompile(`===|!==|==|!=|<=|>=`)
var bareAssign = regexp.MustCompile(`=`)

// checkSandbox rejects expr if it matches any forbidden pattern.
func checkSandbox(expr string) error {
	for _, f := range forbidden {
		if f.re.MatchString(expr) {
			return &SecurityError{Expr: expr, Reason: f.reason}
		}
	}
	stripped := comparisonOperators.ReplaceAllString(expr, "")
	if bareAssign.MatchString(stripped) {
		return &SecurityError{Expr: expr, Reason: "assignment"}
	}
	return nil
}

// wrapSecurity converts a *SecurityError into an ogamerrs.ExpressionSecurity error.
func wrapSecurity(err error) error {
	if err == nil {
		return nil
	}
	return ogamerrs.Wrap(ogamerrs.ExpressionSecurity, err, "expression sandbox violation")
}

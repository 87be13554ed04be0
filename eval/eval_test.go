package eval_test

import (
	"testing"

	"github.com/forbearing/ogam/eval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBooleanComparisons(t *testing.T) {
	bindings := eval.MapBindings{
		"age":    18,
		"name":   "ann",
		"active": true,
		"user":   map[string]any{"city": "NYC"},
	}

	cases := []struct {
		expr string
		want bool
	}{
		{"age > 17", true},
		{"age >= 18", true},
		{"age < 18", false},
		{"age == 18", true},
		{"age != 19", true},
		{"name == \"ann\"", true},
		{"active", true},
		{"!active", false},
		{"active && age > 10", true},
		{"active || age > 100", true},
		{"user.city == \"NYC\"", true},
		{"age > 10 && name == \"ann\"", true},
	}
	for _, c := range cases {
		got, err := eval.EvaluateBoolean(c.expr, bindings)
		require.NoErrorf(t, err, "expr %q", c.expr)
		assert.Equalf(t, c.want, got, "expr %q", c.expr)
	}
}

func TestEvaluateMissingBindingIsFalsy(t *testing.T) {
	got, err := eval.EvaluateBoolean("missing", eval.MapBindings{})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestSandboxRejectsForbiddenConstructs(t *testing.T) {
	forbidden := []string{
		"a.b()",
		"a = 1",
		"a++",
		"new Foo()",
		"a[0]",
		"$(rm -rf /)",
		"`whoami`",
	}
	for _, expr := range forbidden {
		_, err := eval.EvaluateBoolean(expr, eval.MapBindings{})
		assert.Errorf(t, err, "expected sandbox rejection for %q", expr)
	}
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"user", "address", "city"}, eval.SplitPath("user.address.city"))
	assert.Equal(t, []string{"x"}, eval.SplitPath("x"))
}

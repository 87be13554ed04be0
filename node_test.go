package ogam_test

import (
	"testing"

	"github.com/forbearing/ogam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, root ogam.SQLNode, param *ogam.Parameter) *ogam.DynamicContext {
	t.Helper()
	ctx := ogam.NewDynamicContext(ogam.NewConfiguration(), param)
	_, err := root.Apply(ctx)
	require.NoError(t, err)
	return ctx
}

func TestTextNodeSubstitutesPlaceholders(t *testing.T) {
	n := &ogam.TextNode{Raw: "SELECT * FROM ${table} WHERE id = #{id}"}
	param := ogam.NewParameter(map[string]any{"table": "users", "id": 7})
	ctx := render(t, n, param)
	assert.Equal(t, "SELECT * FROM users WHERE id = ?", ctx.SQL())
	require.Len(t, ctx.Mappings, 1)
	assert.Equal(t, "id", ctx.Mappings[0].Property)
}

func TestIfNodeSkipsWhenFalse(t *testing.T) {
	n := &ogam.IfNode{Test: "name != null", Child: &ogam.TextNode{Raw: "AND name = #{name}"}}

	ctx := render(t, n, ogam.NewParameter(map[string]any{}))
	assert.Equal(t, "", ctx.SQL())

	ctx = render(t, n, ogam.NewParameter(map[string]any{"name": "ann"}))
	assert.Equal(t, "AND name = ?", ctx.SQL())
}

func TestWhereNodeStripsLeadingConjunction(t *testing.T) {
	body := ogam.MixedNode{
		&ogam.IfNode{Test: "id != null", Child: &ogam.TextNode{Raw: "AND id = #{id}"}},
		&ogam.IfNode{Test: "name != null", Child: &ogam.TextNode{Raw: "AND name = #{name}"}},
	}
	where := ogam.NewWhereNode(body)

	ctx := render(t, where, ogam.NewParameter(map[string]any{"id": 1}))
	assert.Equal(t, "WHERE id = ?", ctx.SQL())

	ctx = render(t, where, ogam.NewParameter(map[string]any{}))
	assert.Equal(t, "", ctx.SQL())
}

func TestForEachNodeGeneratesPlaceholdersPerItem(t *testing.T) {
	n := &ogam.ForEachNode{
		CollectionPath: "ids",
		Item:           "id",
		Open:           "(",
		Close:          ")",
		Separator:      ", ",
		Child:          &ogam.TextNode{Raw: "#{id}"},
	}
	ctx := render(t, n, ogam.NewParameter(map[string]any{"ids": []any{1, 2, 3}}))
	assert.Equal(t, "(?, ?, ?)", ctx.SQL())
	assert.Len(t, ctx.Mappings, 3)
}

func TestWhereNodeWithNestedForEachPreservesSyntheticBindings(t *testing.T) {
	body := ogam.MixedNode{
		&ogam.ForEachNode{
			CollectionPath: "ids",
			Item:           "id",
			Open:           "AND id IN (",
			Close:          ")",
			Separator:      ", ",
			Child:          &ogam.TextNode{Raw: "#{id}"},
		},
	}
	where := ogam.NewWhereNode(body)
	param := ogam.NewParameter(map[string]any{"ids": []any{1, 2, 3}})

	ctx := render(t, where, param)
	assert.Equal(t, "WHERE id IN (?, ?, ?)", ctx.SQL())
	require.Len(t, ctx.Mappings, 3)

	for _, m := range ctx.Mappings {
		v, err := param.Resolve(m.Property)
		require.NoError(t, err, "synthetic ForEach binding %q must survive Where's isolated rendering", m.Property)
		assert.NotNil(t, v, "synthetic ForEach binding %q must not silently resolve to nil/NULL", m.Property)
	}
}

func TestIncludeNodeSplicesRegisteredFragment(t *testing.T) {
	cfg := ogam.NewConfiguration()
	cfg.RegisterFragment("cols", &ogam.TextNode{Raw: "id, name"})

	root := ogam.MixedNode{
		&ogam.TextNode{Raw: "SELECT "},
		&ogam.IncludeNode{RefID: "cols"},
		&ogam.TextNode{Raw: " FROM users"},
	}
	ctx := ogam.NewDynamicContext(cfg, ogam.NewParameter(nil))
	_, err := root.Apply(ctx)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users", ctx.SQL())
}

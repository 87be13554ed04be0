package ogam_test

import (
	"testing"

	"github.com/forbearing/ogam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hydrateOrder struct {
	ID    int64
	Total string
}

type hydrateTag struct {
	ID   int64
	Name string
}

type hydrateUser struct {
	ID    int64
	Name  string
	Order hydrateOrder
	Tags  []hydrateTag
}

func newHydrator(t *testing.T) (*ogam.Hydrator, *ogam.Configuration) {
	t.Helper()
	cfg := ogam.NewConfiguration()
	cfg.RegisterGoType("hydrateUser", hydrateUser{})
	cfg.RegisterGoType("hydrateOrder", hydrateOrder{})
	cfg.RegisterGoType("hydrateTag", hydrateTag{})
	return ogam.NewHydrator(cfg), cfg
}

func TestHydrateScalarRequiresExactlyOneColumn(t *testing.T) {
	h, _ := newHydrator(t)

	out, err := h.HydrateScalar([]map[string]any{{"count": int64(3)}})
	require.NoError(t, err)
	require.Equal(t, []any{int64(3)}, out)

	_, err = h.HydrateScalar([]map[string]any{{"a": 1, "b": 2}})
	assert.Error(t, err)
}

func TestHydrateArrayPassesRowsThrough(t *testing.T) {
	h, _ := newHydrator(t)
	rows := []map[string]any{{"id": int64(1)}, {"id": int64(2)}}
	out, err := h.HydrateArray(rows)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, rows[0], out[0])
}

func TestHydrateObjectsAutoMapsByColumnName(t *testing.T) {
	h, cfg := newHydrator(t)
	rm := &ogam.ResultMap{ID: "user", TargetType: "hydrateUser", AutoMapping: true}
	targetType, _ := cfg.GoType("hydrateUser")

	rows := []map[string]any{{"ID": int64(1), "Name": "ann"}}
	out, err := h.HydrateObjects(rows, rm, targetType)
	require.NoError(t, err)
	require.Len(t, out, 1)
	u := out[0].(*hydrateUser)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, "ann", u.Name)
}

func TestHydrateObjectsFoldsRepeatedIdentityKey(t *testing.T) {
	h, cfg := newHydrator(t)
	targetType, _ := cfg.GoType("hydrateUser")

	rm := &ogam.ResultMap{
		ID:         "userWithTags",
		TargetType: "hydrateUser",
		IDMappings: []ogam.ResultMapping{{Property: "ID", Column: "id"}},
		Mappings:   []ogam.ResultMapping{{Property: "Name", Column: "name"}},
		Collections: []ogam.Collection{
			{
				Property:     "Tags",
				OfType:       "hydrateTag",
				ColumnPrefix: "tag_",
				Inline: &ogam.ResultMap{
					ID:         "tag",
					TargetType: "hydrateTag",
					IDMappings: []ogam.ResultMapping{{Property: "ID", Column: "id"}},
					Mappings:   []ogam.ResultMapping{{Property: "Name", Column: "name"}},
				},
			},
		},
	}

	rows := []map[string]any{
		{"id": int64(1), "name": "ann", "tag_id": int64(10), "tag_name": "vip"},
		{"id": int64(1), "name": "ann", "tag_id": int64(11), "tag_name": "new"},
		{"id": int64(1), "name": "ann", "tag_id": int64(10), "tag_name": "vip"}, // duplicate JOIN row
	}
	out, err := h.HydrateObjects(rows, rm, targetType)
	require.NoError(t, err)
	require.Len(t, out, 1, "repeated identity key must fold into one root")

	u := out[0].(*hydrateUser)
	require.Len(t, u.Tags, 2, "duplicate child identity key must not duplicate the collection entry")
	assert.ElementsMatch(t, []string{"vip", "new"}, []string{u.Tags[0].Name, u.Tags[1].Name})
}

func TestHydrateObjectsAssociationIsSkippedWhenAllIDColumnsNull(t *testing.T) {
	h, cfg := newHydrator(t)
	targetType, _ := cfg.GoType("hydrateUser")

	rm := &ogam.ResultMap{
		ID:         "userWithOrder",
		TargetType: "hydrateUser",
		IDMappings: []ogam.ResultMapping{{Property: "ID", Column: "id"}},
		Associations: []ogam.Association{
			{
				Property:     "Order",
				TargetType:   "hydrateOrder",
				ColumnPrefix: "order_",
				IDMappings:   []ogam.ResultMapping{{Property: "ID", Column: "id"}},
				Inline: &ogam.ResultMap{
					ID:         "order",
					TargetType: "hydrateOrder",
					IDMappings: []ogam.ResultMapping{{Property: "ID", Column: "id"}},
					Mappings:   []ogam.ResultMapping{{Property: "Total", Column: "total"}},
				},
			},
		},
	}

	rows := []map[string]any{{"id": int64(1), "order_id": nil, "order_total": nil}}
	out, err := h.HydrateObjects(rows, rm, targetType)
	require.NoError(t, err)
	u := out[0].(*hydrateUser)
	assert.Equal(t, hydrateOrder{}, u.Order, "association must stay zero-valued when its id columns are all null")
}

func TestHydrateObjectsDiscriminatorResolvesTargetMap(t *testing.T) {
	h, cfg := newHydrator(t)
	userType, _ := cfg.GoType("hydrateUser")
	require.NoError(t, cfg.RegisterResultMap(&ogam.ResultMap{
		ID:         "tagAsTarget",
		TargetType: "hydrateTag",
		Mappings:   []ogam.ResultMapping{{Property: "Name", Column: "name"}},
	}))

	rm := &ogam.ResultMap{
		ID:         "discriminated",
		TargetType: "hydrateUser",
		Discriminator: &ogam.Discriminator{
			Column:      "kind",
			ResultMapOf: map[string]string{"tag": "tagAsTarget"},
		},
	}
	cfg.RegisterGoType("hydrateTag", hydrateTag{})

	rows := []map[string]any{{"kind": "tag", "name": "vip"}}
	out, err := h.HydrateObjects(rows, rm, userType)
	require.NoError(t, err)
	require.Len(t, out, 1)
	tag, ok := out[0].(*hydrateTag)
	require.True(t, ok, "discriminator must switch the hydrated Go type, not just the column bindings")
	assert.Equal(t, "vip", tag.Name)
}

func TestHydrateObjectsEmptyRowsReturnsNil(t *testing.T) {
	h, cfg := newHydrator(t)
	targetType, _ := cfg.GoType("hydrateUser")
	out, err := h.HydrateObjects(nil, &ogam.ResultMap{TargetType: "hydrateUser"}, targetType)
	require.NoError(t, err)
	assert.Nil(t, out)
}

package querybuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typedoc/types"
)

func TestManager(t *testing.T) {
	m := NewSortManager()

	t.Run("create fills defaults", func(t *testing.T) {
		g := m.Create(map[string]types.Type{"name": types.LiteralString("title")})
		assert.Equal(t, AllowedSortClass, g.Name)
		require.Len(t, g.Args, 4)
		assert.Equal(t, "mixed", g.Args[0].String())
		assert.Equal(t, `"title"`, g.Args[2].String())
	})

	t.Run("property by name", func(t *testing.T) {
		g := m.Create(map[string]types.Type{"name": types.LiteralString("title")})
		name, ok := m.PropertyString(g, "name")
		assert.True(t, ok)
		assert.Equal(t, "title", name)

		assert.Nil(t, m.Property(g, "missing"))
		assert.Nil(t, m.Property(types.NewGeneric("Other", types.String()), "name"))
		assert.Nil(t, m.Property(types.NewGeneric(AllowedSortClass), "name"))
	})

	t.Run("with properties pads and replaces", func(t *testing.T) {
		g := m.WithProperties(types.NewGeneric(AllowedSortClass), map[string]types.Type{
			"defaultDirection": types.LiteralString(SortDescending),
			"unknown":          types.String(),
		})
		require.Len(t, g.Args, 4)
		dir, _ := m.PropertyString(g, "defaultDirection")
		assert.Equal(t, SortDescending, dir)
	})

	t.Run("templates follow properties", func(t *testing.T) {
		qb := NewQueryBuilderManager()
		tpls := qb.Templates()
		require.Len(t, tpls, 7)
		assert.Equal(t, "TRequest", tpls[0].Name)
		assert.Equal(t, "TDefaultSorts", tpls[6].Name)
		assert.Equal(t, "allowedFields", qb.Properties()[5])
	})

	t.Run("include class default", func(t *testing.T) {
		inc := NewIncludeManager()
		g := inc.Create(nil)
		assert.Equal(t, IncludedRelationshipClass, inc.Property(g, "includeClass").String())
	})
}

func TestDefaultSort(t *testing.T) {
	tests := []struct {
		in        string
		name      string
		direction string
	}{
		{"name", "name", SortAscending},
		{"-created_at", "created_at", SortDescending},
		{"-a-b", "a-b", SortDescending},
	}
	m := NewSortManager()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			g := DefaultSort(m, tt.in)
			name, _ := m.PropertyString(g, "name")
			dir, _ := m.PropertyString(g, "defaultDirection")
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.direction, dir)
		})
	}
}

func TestIncludes(t *testing.T) {
	m := NewIncludeManager()

	t.Run("direct relationship", func(t *testing.T) {
		shape := Includes(m, "posts", "Count", "Exists")
		require.Len(t, shape.Items, 3)

		var names, classes []string
		for _, item := range shape.Items {
			name, _ := m.PropertyString(item.Value, "name")
			names = append(names, name)
			classes = append(classes, m.Property(item.Value, "includeClass").String())
		}
		assert.Equal(t, []string{"posts", "postsCount", "postsExists"}, names)
		assert.Equal(t, []string{IncludedRelationshipClass, IncludedCountClass, IncludedExistsClass}, classes)
	})

	t.Run("nested relationship", func(t *testing.T) {
		shape := Includes(m, "author.profile", "Count", "Exists")
		assert.Len(t, shape.Items, 1)
	})
}

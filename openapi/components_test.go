package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponentsTableClaim(t *testing.T) {
	t.Run("same key keeps its name", func(t *testing.T) {
		c := NewComponentsTable()
		assert.Equal(t, "User", c.Claim("k1", `App\Models\User`))
		assert.Equal(t, "User", c.Claim("k1", `App\Models\User`))
	})

	t.Run("collision uses namespace prefix", func(t *testing.T) {
		c := NewComponentsTable()
		assert.Equal(t, "User", c.Claim("k1", `App\Models\User`))
		assert.Equal(t, "ApiUser", c.Claim("k2", `App\Api\User`))
	})

	t.Run("prefixed collision gets numeric suffix", func(t *testing.T) {
		c := NewComponentsTable()
		assert.Equal(t, "User", c.Claim("k1", `A\Api\User`))
		assert.Equal(t, "ApiUser", c.Claim("k2", `B\Api\User`))
		assert.Equal(t, "ApiUser2", c.Claim("k3", `C\Api\User`))
		assert.Equal(t, "ApiUser3", c.Claim("k4", `D\Api\User`))
	})

	t.Run("unqualified collision gets numeric suffix", func(t *testing.T) {
		c := NewComponentsTable()
		assert.Equal(t, "User", c.Claim("k1", "User"))
		assert.Equal(t, "User2", c.Claim("k2", "User"))
	})

	t.Run("names are sanitized", func(t *testing.T) {
		c := NewComponentsTable()
		assert.Equal(t, "Pagedfoo", c.Claim("k1", "Paged<foo>"))
	})
}

func TestComponentsTableSchemas(t *testing.T) {
	c := NewComponentsTable()
	name := c.Claim("k1", "User")
	c.Set(name, NewObject())
	c.Set("Other", &Schema{})
	c.Set(name, &Schema{Type: TypeString("string")})

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, []string{"User", "Other"}, c.Names())
	assert.True(t, c.Has("User"))
	assert.Equal(t, TypeString("string"), c.Get("User").Type)

	schemas := c.Schemas()
	delete(schemas, "User")
	assert.True(t, c.Has("User"))
}

func TestComponentsTableRename(t *testing.T) {
	c := NewComponentsTable()
	name := c.Claim("k1", "UserData")
	c.Set(name, NewObject())
	c.Set("Taken", &Schema{})

	assert.False(t, c.Rename("missing", "X"))
	assert.False(t, c.Rename("UserData", "Taken"))
	assert.True(t, c.Rename("UserData", "User"))

	assert.False(t, c.Has("UserData"))
	assert.True(t, c.Has("User"))
	assert.Equal(t, []string{"User", "Taken"}, c.Names())

	got, ok := c.Name("k1")
	assert.True(t, ok)
	assert.Equal(t, "User", got)
}

func TestRewriteRefs(t *testing.T) {
	inner := RefTo("Old")
	s := NewObject().
		AddProperty("a", inner).
		AddProperty("b", &Schema{Type: TypeString("array"), Items: RefTo("Old")}).
		AddProperty("c", &Schema{AnyOf: []*Schema{RefTo("Keep"), {Type: TypeString("null")}}})
	s.AddProperty("self", s)

	RewriteRefs(s, map[string]string{"Old": "New"})

	assert.Equal(t, "#/components/schemas/New", inner.Ref)
	assert.Equal(t, "#/components/schemas/New", s.Properties.Get("b").Items.Ref)
	assert.Equal(t, "#/components/schemas/Keep", s.Properties.Get("c").AnyOf[0].Ref)
}

func TestNamespacePrefix(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`App\Api\User`, "Api"},
		{`api\User`, "Api"},
		{`my-ns\User`, "My_ns"},
		{"User", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, namespacePrefix(tt.in))
		})
	}
}

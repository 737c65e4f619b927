package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameComponent(t *testing.T) {
	tr := newTestTransformer()
	name := tr.Components().Claim("k1", "UserDataRequest")
	body := NewObject().AddProperty("name", &Schema{Type: TypeString("string")})
	tr.Components().Set(name, body)
	tr.Components().Set("Other", NewObject().AddProperty("user", RefTo(name)))

	op := &Operation{
		RequestBody: &RequestBody{
			Description: "`UserDataRequest`",
			Content:     map[string]*MediaType{ContentJSON: {Schema: RefTo(name)}},
		},
		Responses: map[string]*Response{
			"200": JSONResponse(200, ContentJSON, &Schema{Type: TypeString("array"), Items: RefTo(name)}),
		},
		Parameters: []*Parameter{{Name: "filter", In: "query", Schema: RefTo(name)}},
	}
	doc := &Document{
		Paths:      map[string]*PathItem{"/users": {Post: op}},
		Components: &Components{Schemas: tr.Components().Schemas()},
	}

	require.True(t, tr.RenameComponent(doc, "UserDataRequest", "UserData"))

	assert.True(t, tr.Components().Has("UserData"))
	assert.False(t, tr.Components().Has("UserDataRequest"))
	assert.Same(t, body, doc.Components.Schemas["UserData"])
	assert.NotContains(t, doc.Components.Schemas, "UserDataRequest")

	assert.Equal(t, "`UserData`", op.RequestBody.Description)
	assert.Equal(t, "#/components/schemas/UserData", op.RequestBody.Content[ContentJSON].Schema.Ref)
	assert.Equal(t, "#/components/schemas/UserData", op.Responses["200"].Content[ContentJSON].Schema.Items.Ref)
	assert.Equal(t, "#/components/schemas/UserData", op.Parameters[0].Schema.Ref)
	assert.Equal(t, "#/components/schemas/UserData", doc.Components.Schemas["Other"].Properties.Get("user").Ref)

	assert.False(t, tr.RenameComponent(doc, "UserDataRequest", "UserData"))
	assert.False(t, tr.RenameComponent(doc, "Other", "UserData"))
}

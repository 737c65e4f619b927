package openapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalvas/typedoc/types"
)

type createdExt struct{}

func (createdExt) ShouldHandle(t types.Type) bool {
	name, _ := types.ClassName(t)
	return name == "Admin"
}

func (createdExt) ToResponse(tr *Transformer, t types.Type) (int, *Response) {
	return http.StatusCreated, JSONResponse(http.StatusCreated, "application/vnd.api+json", tr.Transform(t))
}

type silentExt struct{}

func (silentExt) ShouldHandle(types.Type) bool { return true }

func (silentExt) ToResponse(*Transformer, types.Type) (int, *Response) { return 0, nil }

func TestToResponse(t *testing.T) {
	t.Run("void is no content", func(t *testing.T) {
		code, resp := newTestTransformer().ToResponse(types.Void())
		assert.Equal(t, http.StatusNoContent, code)
		assert.Equal(t, "No Content", resp.Description)
		assert.Nil(t, resp.Content)
	})

	t.Run("default json", func(t *testing.T) {
		tr := newTestTransformer()
		code, resp := tr.ToResponse(types.NewObject("User"))
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "OK", resp.Description)
		require.Contains(t, resp.Content, ContentJSON)
		assert.Equal(t, "#/components/schemas/User", resp.Content[ContentJSON].Schema.Ref)
	})

	t.Run("extension", func(t *testing.T) {
		tr := newTestTransformer()
		tr.Register(silentExt{}, createdExt{})

		code, resp := tr.ToResponse(types.NewObject("Admin"))
		assert.Equal(t, http.StatusCreated, code)
		assert.Equal(t, "Created", resp.Description)
		assert.Contains(t, resp.Content, "application/vnd.api+json")

		code, _ = tr.ToResponse(types.NewObject("User"))
		assert.Equal(t, http.StatusOK, code)
	})
}

type formBodyExt struct{}

func (formBodyExt) ShouldHandleRequest(t types.Type) bool {
	name, _ := types.ClassName(t)
	return name == "Upload"
}

func (formBodyExt) ToRequestBody(*Transformer, types.Type) *RequestBody {
	return &RequestBody{
		Description: "`Upload`",
		Content:     map[string]*MediaType{"multipart/form-data": {Schema: NewObject()}},
	}
}

func TestToRequestBody(t *testing.T) {
	t.Run("default json", func(t *testing.T) {
		body := newTestTransformer().ToRequestBody(types.NewShape(types.Item("name", types.String())))
		assert.True(t, body.Required)
		require.Contains(t, body.Content, ContentJSON)
		assert.True(t, body.Content[ContentJSON].Schema.Properties.Has("name"))
	})

	t.Run("extension", func(t *testing.T) {
		tr := newTestTransformer().Register(formBodyExt{})

		body := tr.ToRequestBody(types.NewObject("Upload"))
		assert.False(t, body.Required)
		assert.Equal(t, "`Upload`", body.Description)
		assert.Contains(t, body.Content, "multipart/form-data")

		body = tr.ToRequestBody(types.NewShape(types.Item("name", types.String())))
		assert.Contains(t, body.Content, ContentJSON)
	})
}

func TestResponseDescription(t *testing.T) {
	tests := []struct {
		key, want string
	}{
		{"200", "OK"},
		{"404", "Not Found"},
		{"default", "Default response"},
		{"799", "799"},
		{"2XX", "2XX"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, responseDescription(tt.key))
		})
	}
}

func TestErrorResponses(t *testing.T) {
	t.Run("validation", func(t *testing.T) {
		op := &Operation{}
		AddValidationResponse(op)

		resp := op.Responses["422"]
		require.NotNil(t, resp)
		assert.Equal(t, "Validation error", resp.Description)
		assert.Equal(t, []string{"message", "errors"}, resp.Content[ContentJSON].Schema.Required)
	})

	t.Run("authorization", func(t *testing.T) {
		op := &Operation{}
		AddAuthorizationResponse(op)

		resp := op.Responses["403"]
		require.NotNil(t, resp)
		assert.Equal(t, "Authorization error", resp.Description)
	})

	t.Run("existing response is kept", func(t *testing.T) {
		custom := &Response{Description: "Custom"}
		op := &Operation{Responses: map[string]*Response{"403": custom}}
		AddAuthorizationResponse(op)
		assert.Same(t, custom, op.Responses["403"])
	})
}

func TestAddResponseHeaders(t *testing.T) {
	tr := newTestTransformer()

	t.Run("shape items", func(t *testing.T) {
		resp := &Response{Description: "OK"}
		tr.AddResponseHeaders(resp, types.NewShape(
			types.Item("Location", types.String()),
			types.OptionalItem("X-Request-Id", types.Integer()),
			types.Item("content-type", types.String()),
		))

		require.Len(t, resp.Headers, 2)
		assert.True(t, resp.Headers["Location"].Required)
		assert.Equal(t, TypeString("string"), resp.Headers["Location"].Schema.Type)
		assert.False(t, resp.Headers["X-Request-Id"].Required)
		assert.Equal(t, TypeString("integer"), resp.Headers["X-Request-Id"].Schema.Type)
		assert.NotContains(t, resp.Headers, "content-type")
	})

	t.Run("not a shape", func(t *testing.T) {
		resp := &Response{Description: "OK"}
		tr.AddResponseHeaders(resp, types.Mixed())
		tr.AddResponseHeaders(nil, types.NewShape(types.Item("Location", types.String())))
		assert.Nil(t, resp.Headers)
	})
}

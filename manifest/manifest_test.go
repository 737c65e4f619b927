package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appManifest = `
classes:
  - name: \App\Models\User
    parent: Illuminate\Database\Eloquent\Model
    properties:
      - name: id
        type: int
        readOnly: true
      - name: email
        type: ?string
        description: Login email
      - name: roles
        type: list<string>
  - name: App\Support\Box
    abstract: true
    templates:
      - name: T
        of: mixed
    properties:
      - name: value
        type: T
    methods:
      - name: get
        returns: T
      - name: map
        templates:
          - name: U
        params:
          - name: fn
            type: U
        returns: App\Support\Box<U>
  - name: App\Http\UserController
    uses: [App\Concerns\Paginates]
    methods:
      - name: show
        params:
          - name: $id
            type: int
        returns: App\Models\User
        description: |-
          Show a user.

          Returns the user profile.
      - name: box
        returns: App\Support\Box<App\Models\User>
functions:
  - name: now
    returns: string
routes:
  - method: get
    uri: /users/{id}
    name: users.show
    tags: [users]
    action: App\Http\UserController@show
  - method: GET
    uri: /users/{id}/box
    action: App\Http\UserController@box
    variables:
      - name: $box
        type: $this->box()
    returns: $box->get()
  - method: POST
    uri: /users
    action: App\Http\UserController@store
    request: array{email: string, 'name'?: string}
    returns: App\Models\User
    summary: Create a user
    deprecated: true
`

func TestDecode(t *testing.T) {
	t.Run("full manifest", func(t *testing.T) {
		m, err := Decode(strings.NewReader(appManifest))
		require.NoError(t, err)
		require.Len(t, m.Classes, 3)
		require.Len(t, m.Functions, 1)
		require.Len(t, m.Routes, 3)

		box := m.Classes[1]
		assert.Equal(t, "T", box.Templates[0].Name)
		assert.Equal(t, "mixed", box.Templates[0].Of)
		assert.Equal(t, []string{`App\Concerns\Paginates`}, m.Classes[2].Uses)
		assert.Equal(t, "$this->box()", m.Routes[1].Variables[0].Type)
		assert.True(t, m.Routes[2].Deprecated)
	})

	t.Run("empty document", func(t *testing.T) {
		m, err := Decode(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, m.Classes)
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		_, err := Decode(strings.NewReader("classes:\n  - name: A\n    extends: B\n"))
		assert.Error(t, err)
	})

	t.Run("validation errors", func(t *testing.T) {
		_, err := Decode(strings.NewReader(`
classes:
  - name: A
  - name: \A
  - parent: B
routes:
  - uri: /x
  - method: GET
    uri: /y
    action: Controller@
`))
		require.ErrorIs(t, err, ErrInvalidManifest)
		msg := err.Error()
		assert.Contains(t, msg, "class A declared twice")
		assert.Contains(t, msg, "class #2 has no name")
		assert.Contains(t, msg, "route #0 needs a method and a uri")
		assert.Contains(t, msg, `malformed action "Controller@"`)
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(appManifest), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Routes, 3)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.yaml")
}

func TestMerge(t *testing.T) {
	a := &Manifest{Classes: []*Class{{Name: "A"}}, Routes: []*Route{{Method: "GET", URI: "/a"}}}
	b := &Manifest{Classes: []*Class{{Name: "B"}}, Functions: []*Function{{Name: "f"}}}

	m := Merge(a, nil, b)
	require.Len(t, m.Classes, 2)
	assert.Equal(t, "B", m.Classes[1].Name)
	assert.Len(t, m.Functions, 1)
	assert.Len(t, m.Routes, 1)
	assert.NoError(t, m.Validate())
}

func TestRouteClassMethod(t *testing.T) {
	tests := []struct {
		action, class, method string
	}{
		{`\App\Http\UserController@show`, `App\Http\UserController`, "show"},
		{`App\Actions\CreatePost`, `App\Actions\CreatePost`, ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		class, method := (&Route{Action: tt.action}).ClassMethod()
		assert.Equal(t, tt.class, class)
		assert.Equal(t, tt.method, method)
	}
}

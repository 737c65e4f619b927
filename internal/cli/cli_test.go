package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/typedoc/config"
	"github.com/vitalvas/typedoc/manifest"
)

const modelsManifest = `
classes:
  - name: App\Models\User
    parent: Illuminate\Database\Eloquent\Model
    properties:
      - name: id
        type: int
      - name: email
        type: string
`

const routesManifest = `
classes:
  - name: App\Http\UserController
    methods:
      - name: show
        returns: App\Models\User
  - name: App\Actions\CreateUser
    uses: [Lorisleiva\Actions\Concerns\AsAction]
    methods:
      - name: asController
        returns: App\Models\User
      - name: handle
        returns: App\Models\User
        description: Create a user.
      - name: rules
        returns: "['email' => 'required|email', 'name' => 'string|max:80']"
routes:
  - method: GET
    uri: /users/{id}
    name: users.show
    action: App\Http\UserController@show
  - method: POST
    uri: /users
    name: users.store
    action: App\Actions\CreateUser
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadManifests(t *testing.T) {
	dir := t.TempDir()
	models := writeFile(t, dir, "models.yaml", modelsManifest)
	routes := writeFile(t, dir, "routes.yaml", routesManifest)

	t.Run("merges in order", func(t *testing.T) {
		m, err := LoadManifests(context.Background(), []string{models, routes})
		require.NoError(t, err)
		require.Len(t, m.Classes, 3)
		assert.Equal(t, `App\Models\User`, m.Classes[0].Name)
		assert.Len(t, m.Routes, 2)
	})

	t.Run("duplicate classes across files", func(t *testing.T) {
		_, err := LoadManifests(context.Background(), []string{models, models})
		assert.ErrorIs(t, err, manifest.ErrInvalidManifest)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadManifests(context.Background(), []string{models, filepath.Join(dir, "nope.yaml")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.yaml")
	})

	t.Run("no manifests", func(t *testing.T) {
		_, err := LoadManifests(context.Background(), nil)
		assert.Error(t, err)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := LoadManifests(ctx, []string{models})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGenerate(t *testing.T) {
	m, err := manifest.Decode(strings.NewReader(modelsManifest + strings.TrimPrefix(routesManifest, "\nclasses:\n")))
	require.NoError(t, err)
	p, err := manifest.NewParser(0)
	require.NoError(t, err)
	src, err := manifest.NewSource(m, p)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Info.Title = "Users"
	cfg.Info.Servers = []string{"https://api.example.com"}

	doc, diags := Generate(cfg, src, slog.New(slog.DiscardHandler))
	require.NotNil(t, diags)

	assert.Equal(t, "Users", doc.Info.Title)
	require.Len(t, doc.Servers, 1)

	show := doc.Paths["/users/{id}"].Get
	require.NotNil(t, show)
	assert.Equal(t, "#/components/schemas/User", show.Responses["200"].Content["application/json"].Schema.Ref)

	t.Run("action route", func(t *testing.T) {
		store := doc.Paths["/users"].Post
		require.NotNil(t, store)
		assert.Equal(t, "Create a user.", store.Summary)
		assert.Contains(t, store.Responses, "422")
		require.NotNil(t, store.RequestBody)
		body := store.RequestBody.Content["application/json"].Schema
		assert.Equal(t, []string{"email"}, body.Required)
		assert.Equal(t, "email", body.Properties.Get("email").Format)
	})
}

func TestRootCommand(t *testing.T) {
	t.Run("version", func(t *testing.T) {
		var out bytes.Buffer
		root := NewRootCommand("1.2.3")
		root.SetOut(&out)
		root.SetArgs([]string{"version"})
		require.NoError(t, root.Execute())
		assert.Equal(t, "1.2.3\n", out.String())
	})

	t.Run("generate json to stdout", func(t *testing.T) {
		dir := t.TempDir()
		models := writeFile(t, dir, "models.yaml", modelsManifest)
		routes := writeFile(t, dir, "routes.yaml", routesManifest)

		var out, logs bytes.Buffer
		root := NewRootCommand("test")
		root.SetOut(&out)
		root.SetErr(&logs)
		root.SetArgs([]string{"generate", "-m", models, "--manifest", routes})
		require.NoError(t, root.Execute())

		var doc map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
		assert.Equal(t, "3.1.0", doc["openapi"])
		assert.Contains(t, doc["paths"], "/users")
		assert.Contains(t, logs.String(), "run_id=")
		assert.Contains(t, logs.String(), "document generated")
	})

	t.Run("generate yaml to file", func(t *testing.T) {
		dir := t.TempDir()
		models := writeFile(t, dir, "models.yaml", modelsManifest)
		routes := writeFile(t, dir, "routes.yaml", routesManifest)
		cfgPath := writeFile(t, dir, "typedoc.yaml", "info:\n  title: From Config\n")
		outPath := filepath.Join(dir, "docs", "openapi.yaml")

		root := NewRootCommand("test")
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"generate", "-m", models + "," + routes, "-c", cfgPath, "-o", outPath, "--format", "yaml"})
		require.NoError(t, root.Execute())

		data, err := os.ReadFile(outPath)
		require.NoError(t, err)
		var doc map[string]any
		require.NoError(t, yaml.Unmarshal(data, &doc))
		info, ok := doc["info"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "From Config", info["title"])
	})

	t.Run("manifest flag is required", func(t *testing.T) {
		root := NewRootCommand("test")
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"generate"})
		assert.Error(t, root.Execute())
	})

	t.Run("bad format", func(t *testing.T) {
		dir := t.TempDir()
		models := writeFile(t, dir, "models.yaml", modelsManifest)

		root := NewRootCommand("test")
		root.SetErr(&bytes.Buffer{})
		root.SetArgs([]string{"generate", "-m", models, "--format", "xml"})
		assert.ErrorIs(t, root.Execute(), config.ErrInvalidConfig)
	})
}

func TestBlogExample(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "blog")
	m, err := LoadManifests(context.Background(), []string{
		filepath.Join(dir, "models.yaml"),
		filepath.Join(dir, "http.yaml"),
	})
	require.NoError(t, err)
	p, err := manifest.NewParser(0)
	require.NoError(t, err)
	src, err := manifest.NewSource(m, p)
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, "typedoc.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Blog API", cfg.Info.Title)
	assert.Equal(t, 20, cfg.Paginate.DefaultSize)
	assert.Equal(t, "MIT", cfg.Info.License.Name)

	doc, _ := Generate(cfg, src, slog.New(slog.DiscardHandler))
	require.NotNil(t, doc.Info.License)
	for _, path := range []string{"/posts", "/posts/{post}", "/posts/{post}/publish", "/users/{user}"} {
		assert.Contains(t, doc.Paths, path)
	}

	publish := doc.Paths["/posts/{post}/publish"].Post
	require.NotNil(t, publish)
	assert.Contains(t, publish.Responses, "403")
	assert.Contains(t, publish.Responses, "422")
	require.NotNil(t, publish.RequestBody)

	show := doc.Paths["/posts/{post}"].Get
	require.NotNil(t, show)
	assert.Equal(t, "posts.show", show.OperationID)
}

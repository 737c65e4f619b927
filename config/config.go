// Package config loads typedoc settings from a YAML file, the process
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vitalvas/typedoc/extensions/jsonapi"
	"github.com/vitalvas/typedoc/extensions/laraveldata"
	"github.com/vitalvas/typedoc/extensions/paginate"
	"github.com/vitalvas/typedoc/openapi"
)

// DefaultMaxDepth is the default limit of nested resolution.
const DefaultMaxDepth = 64

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Info         InfoConfig         `yaml:"info"`
	Inference    InferenceConfig    `yaml:"inference"`
	Paginate     PaginateConfig     `yaml:"paginate"`
	QueryBuilder QueryBuilderConfig `yaml:"queryBuilder"`
	Data         DataConfig         `yaml:"data"`
	JSONAPI      JSONAPIConfig      `yaml:"jsonApi"`
	Output       OutputConfig       `yaml:"output"`
}

type InfoConfig struct {
	Title       string   `yaml:"title"`
	Version     string   `yaml:"version"`
	Description string   `yaml:"description"`
	Servers     []string `yaml:"servers"`
	Contact     struct {
		Name  string `yaml:"name"`
		URL   string `yaml:"url"`
		Email string `yaml:"email"`
	} `yaml:"contact"`
	License struct {
		Name string `yaml:"name"`
		URL  string `yaml:"url"`
	} `yaml:"license"`
}

// InferenceConfig tunes the resolver and the hook broker.
type InferenceConfig struct {
	MaxDepth int `yaml:"maxDepth"`
	// Strict re-panics hook contract violations.
	Strict bool `yaml:"strict"`
	// Priority lists hook names that run before all others.
	Priority []string `yaml:"priority"`
}

// PaginateConfig mirrors the json-api-paginate settings.
type PaginateConfig struct {
	MethodName          string `yaml:"methodName"`
	PaginationParameter string `yaml:"paginationParameter"`
	NumberParameter     string `yaml:"numberParameter"`
	CursorParameter     string `yaml:"cursorParameter"`
	SizeParameter       string `yaml:"sizeParameter"`
	DefaultSize         int    `yaml:"defaultSize"`
	UseCursor           bool   `yaml:"useCursor"`
	UseSimple           bool   `yaml:"useSimple"`
	UseFast             bool   `yaml:"useFast"`
}

type QueryBuilderConfig struct {
	CountSuffix  string `yaml:"countSuffix"`
	ExistsSuffix string `yaml:"existsSuffix"`
}

// DataConfig holds the laravel-data settings.
type DataConfig struct {
	Wrap       string            `yaml:"wrap"`
	InputNames map[string]string `yaml:"inputNames"`
}

type JSONAPIConfig struct {
	ResourceNamespace string `yaml:"resourceNamespace"`
	ModelNamespace    string `yaml:"modelNamespace"`
}

// OutputConfig selects where and how the document is written. An empty
// path writes to stdout.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// Default returns the built-in settings.
func Default() *Config {
	pg := paginate.DefaultConfig()
	qb := QueryBuilderConfig{CountSuffix: "Count", ExistsSuffix: "Exists"}
	ja := jsonapi.DefaultConfig()
	return &Config{
		Info:      InfoConfig{Title: "API", Version: "1.0.0"},
		Inference: InferenceConfig{MaxDepth: DefaultMaxDepth},
		Paginate: PaginateConfig{
			MethodName:          pg.MethodName,
			PaginationParameter: pg.PaginationParameter,
			NumberParameter:     pg.NumberParameter,
			CursorParameter:     pg.CursorParameter,
			SizeParameter:       pg.SizeParameter,
			DefaultSize:         pg.DefaultSize,
		},
		QueryBuilder: qb,
		JSONAPI: JSONAPIConfig{
			ResourceNamespace: ja.ResourceNamespace,
			ModelNamespace:    ja.ModelNamespace,
		},
		Output: OutputConfig{Format: "json"},
	}
}

// Load returns the defaults overlaid with the YAML file at path (when not
// empty) and the TYPEDOC_* environment. A .env file in the working
// directory is loaded first; a missing one is ignored.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides settings from the environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err))
			return
		}
		*dst = b
	}

	str("TYPEDOC_TITLE", &c.Info.Title)
	str("TYPEDOC_VERSION", &c.Info.Version)
	num("TYPEDOC_MAX_DEPTH", &c.Inference.MaxDepth)
	flag("TYPEDOC_STRICT", &c.Inference.Strict)
	str("TYPEDOC_PAGINATE_METHOD", &c.Paginate.MethodName)
	num("TYPEDOC_PAGINATE_DEFAULT_SIZE", &c.Paginate.DefaultSize)
	flag("TYPEDOC_PAGINATE_USE_CURSOR", &c.Paginate.UseCursor)
	str("TYPEDOC_DATA_WRAP", &c.Data.Wrap)
	str("TYPEDOC_JSONAPI_RESOURCE_NAMESPACE", &c.JSONAPI.ResourceNamespace)
	str("TYPEDOC_JSONAPI_MODEL_NAMESPACE", &c.JSONAPI.ModelNamespace)
	str("TYPEDOC_OUTPUT_FORMAT", &c.Output.Format)
	str("TYPEDOC_OUTPUT_PATH", &c.Output.Path)
	return errors.Join(errs...)
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(c.Info.Title) == "" {
		add("info.title is required")
	}
	if strings.TrimSpace(c.Info.Version) == "" {
		add("info.version is required")
	}
	if c.Info.License.Name == "" && c.Info.License.URL != "" {
		add("info.license.name is required when info.license.url is set")
	}
	if c.Inference.MaxDepth < 0 {
		add("inference.maxDepth must not be negative, got %d", c.Inference.MaxDepth)
	}
	if c.Paginate.DefaultSize < 0 {
		add("paginate.defaultSize must not be negative, got %d", c.Paginate.DefaultSize)
	}
	if c.Paginate.UseCursor && (c.Paginate.UseSimple || c.Paginate.UseFast) {
		add("paginate.useCursor cannot be combined with useSimple or useFast")
	}
	switch c.Output.Format {
	case "json", "yaml", "yml":
	default:
		add("output.format must be json or yaml, got %q", c.Output.Format)
	}
	if ext := filepath.Ext(c.Output.Path); c.Output.Path != "" && ext != "" && formatOf(ext) != formatOf("."+c.Output.Format) {
		add("output.path extension %q does not match format %q", ext, c.Output.Format)
	}
	return errors.Join(errs...)
}

func formatOf(ext string) string {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	}
	return ext
}

// Document returns the document info block.
func (c InfoConfig) Document() openapi.Info {
	info := openapi.Info{Title: c.Title, Version: c.Version, Description: c.Description}
	if c.Contact.Name != "" || c.Contact.URL != "" || c.Contact.Email != "" {
		info.Contact = &openapi.Contact{Name: c.Contact.Name, URL: c.Contact.URL, Email: c.Contact.Email}
	}
	if c.License.Name != "" {
		info.License = &openapi.License{Name: c.License.Name, URL: c.License.URL}
	}
	return info
}

// Extension converts the settings for the paginate extension.
func (c PaginateConfig) Extension() paginate.Config {
	return paginate.Config{
		MethodName:          c.MethodName,
		PaginationParameter: c.PaginationParameter,
		NumberParameter:     c.NumberParameter,
		CursorParameter:     c.CursorParameter,
		SizeParameter:       c.SizeParameter,
		DefaultSize:         c.DefaultSize,
		UseCursor:           c.UseCursor,
		UseSimple:           c.UseSimple,
		UseFast:             c.UseFast,
	}
}

// Extension converts the settings for the laravel-data extension.
func (c DataConfig) Extension() laraveldata.Config {
	return laraveldata.Config{Wrap: c.Wrap, InputNames: c.InputNames}
}

// Extension converts the settings for the JSON:API extension.
func (c JSONAPIConfig) Extension() jsonapi.Config {
	return jsonapi.Config{ResourceNamespace: c.ResourceNamespace, ModelNamespace: c.ModelNamespace}
}

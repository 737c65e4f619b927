// Package manifest loads YAML manifests describing classes, functions and
// routes statically, and serves them to the inference index as declared
// members.
//
// Types are written as expressions:
//
//	?string                          nullable string
//	array{id: int, tags?: string[]}  keyed shape
//	list<App\Models\User>            list
//	Paginator<int, User>             generic
//	User::query()->where('a', 1)     deferred call chain
//	new UserResource($user)          constructor call
package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest is one decoded manifest document.
type Manifest struct {
	Classes   []*Class    `yaml:"classes"`
	Functions []*Function `yaml:"functions"`
	Routes    []*Route    `yaml:"routes"`
}

// Class declares one class.
type Class struct {
	Name       string      `yaml:"name"`
	Parent     string      `yaml:"parent"`
	Abstract   bool        `yaml:"abstract"`
	Interfaces []string    `yaml:"interfaces"`
	Uses       []string    `yaml:"uses"`
	Templates  []*Template `yaml:"templates"`
	Properties []*Property `yaml:"properties"`
	Methods    []*Function `yaml:"methods"`
}

// Template declares a template parameter.
type Template struct {
	Name    string `yaml:"name"`
	Of      string `yaml:"of"`
	Default string `yaml:"default"`
}

// Property declares a class property.
type Property struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Default     string `yaml:"default"`
	Description string `yaml:"description"`
	ReadOnly    bool   `yaml:"readOnly"`
}

// Function declares a method or a global function.
type Function struct {
	Name        string      `yaml:"name"`
	Static      bool        `yaml:"static"`
	Templates   []*Template `yaml:"templates"`
	Params      []*Param    `yaml:"params"`
	Returns     string      `yaml:"returns"`
	SelfOut     string      `yaml:"selfOut"`
	Throws      []string    `yaml:"throws"`
	Description string      `yaml:"description"`
}

// Param declares a function parameter.
type Param struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Default  string `yaml:"default"`
	Variadic bool   `yaml:"variadic"`
}

// Route declares one HTTP route and what its action does.
type Route struct {
	Method string   `yaml:"method"`
	URI    string   `yaml:"uri"`
	Name   string   `yaml:"name"`
	Tags   []string `yaml:"tags"`

	// Action is "Class@method" or an invokable "Class".
	Action string `yaml:"action"`

	Request string `yaml:"request"`
	Returns string `yaml:"returns"`

	Summary     string `yaml:"summary"`
	Description string `yaml:"description"`
	Deprecated  bool   `yaml:"deprecated"`

	// Variables are assigned in order before the statements run.
	Variables  []*Variable `yaml:"variables"`
	Statements []string    `yaml:"statements"`
}

// Variable is a local variable of a route action.
type Variable struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: open %s: %w", path, err)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("manifest: %s: %w", path, err)
	}
	return m, nil
}

// Decode reads and validates one manifest document from r. An empty
// document is an empty manifest.
func Decode(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Merge concatenates manifests in order.
func Merge(ms ...*Manifest) *Manifest {
	out := &Manifest{}
	for _, m := range ms {
		if m == nil {
			continue
		}
		out.Classes = append(out.Classes, m.Classes...)
		out.Functions = append(out.Functions, m.Functions...)
		out.Routes = append(out.Routes, m.Routes...)
	}
	return out
}

// Validate checks names and route actions. Type expressions are checked
// when definitions are built.
func (m *Manifest) Validate() error {
	var errs []error
	seen := make(map[string]bool, len(m.Classes))
	for i, c := range m.Classes {
		name := className(c.Name)
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("%w: class #%d has no name", ErrInvalidManifest, i))
			continue
		case seen[name]:
			errs = append(errs, fmt.Errorf("%w: class %s declared twice", ErrInvalidManifest, name))
		}
		seen[name] = true
		for _, meth := range c.Methods {
			if meth.Name == "" {
				errs = append(errs, fmt.Errorf("%w: class %s has a method without a name", ErrInvalidManifest, name))
			}
		}
		for _, p := range c.Properties {
			if p.Name == "" {
				errs = append(errs, fmt.Errorf("%w: class %s has a property without a name", ErrInvalidManifest, name))
			}
		}
	}
	for i, fn := range m.Functions {
		if fn.Name == "" {
			errs = append(errs, fmt.Errorf("%w: function #%d has no name", ErrInvalidManifest, i))
		}
	}
	for i, r := range m.Routes {
		if r.Method == "" || r.URI == "" {
			errs = append(errs, fmt.Errorf("%w: route #%d needs a method and a uri", ErrInvalidManifest, i))
		}
		if class, method, _ := strings.Cut(r.Action, "@"); strings.Contains(r.Action, "@") && (class == "" || method == "") {
			errs = append(errs, fmt.Errorf("%w: route %s %s has a malformed action %q", ErrInvalidManifest, r.Method, r.URI, r.Action))
		}
	}
	return errors.Join(errs...)
}

// ClassMethod splits the route action into class and method. An invokable
// action has an empty method.
func (r *Route) ClassMethod() (class, method string) {
	class, method, _ = strings.Cut(r.Action, "@")
	return className(class), method
}

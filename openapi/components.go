package openapi

import (
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ComponentsTable owns the named component schemas of one generation run.
// Schemas are keyed by a structural type key so equivalent types always map
// to the same component name.
//
// See: https://spec.openapis.org/oas/v3.1.0#components-object (schemas)
type ComponentsTable struct {
	schemas  map[string]*Schema
	keyNames map[string]string // type key -> chosen name
	nameKeys map[string]string // name -> type key that claimed it
	order    []string
}

// NewComponentsTable returns an empty table.
func NewComponentsTable() *ComponentsTable {
	return &ComponentsTable{
		schemas:  make(map[string]*Schema),
		keyNames: make(map[string]string),
		nameKeys: make(map[string]string),
	}
}

// Name returns the component name claimed for key.
func (c *ComponentsTable) Name(key string) (string, bool) {
	name, ok := c.keyNames[key]
	return name, ok
}

// Claim returns a unique component name for the type identified by key.
// The first claimant of a short name keeps it. A second type with the same
// short name gets the namespace segment as a prefix (e.g. "Api\User" becomes
// "ApiUser"); if that still collides a numeric suffix is appended.
func (c *ComponentsTable) Claim(key, qualified string) string {
	if name, ok := c.keyNames[key]; ok {
		return name
	}

	simple := sanitizeSchemaName(shortName(qualified))
	name := simple
	if existing, ok := c.nameKeys[name]; ok && existing != key {
		name = namespacePrefix(qualified) + simple
		if existing, ok := c.nameKeys[name]; ok && existing != key {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := c.nameKeys[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	c.keyNames[key] = name
	c.nameKeys[name] = key
	return name
}

// Set stores the schema body of a claimed name.
func (c *ComponentsTable) Set(name string, s *Schema) {
	if _, ok := c.schemas[name]; !ok {
		c.order = append(c.order, name)
	}
	c.schemas[name] = s
}

// Get returns the schema of a component.
func (c *ComponentsTable) Get(name string) *Schema {
	return c.schemas[name]
}

// Has reports whether a component schema exists.
func (c *ComponentsTable) Has(name string) bool {
	_, ok := c.schemas[name]
	return ok
}

// Rename moves a component to a new name. References in already built
// schemas are not rewritten; callers run it before schemas are shared or
// rewrite them with RewriteRefs.
func (c *ComponentsTable) Rename(from, to string) bool {
	s, ok := c.schemas[from]
	if !ok || from == to {
		return false
	}
	if _, taken := c.schemas[to]; taken {
		return false
	}
	delete(c.schemas, from)
	c.schemas[to] = s
	for i, n := range c.order {
		if n == from {
			c.order[i] = to
		}
	}
	if key, ok := c.nameKeys[from]; ok {
		delete(c.nameKeys, from)
		c.nameKeys[to] = key
		c.keyNames[key] = to
	}
	return true
}

// Len returns the number of component schemas.
func (c *ComponentsTable) Len() int {
	return len(c.schemas)
}

// Names returns the component names in registration order.
func (c *ComponentsTable) Names() []string {
	return append([]string(nil), c.order...)
}

// Schemas returns a copy of the name to schema map.
func (c *ComponentsTable) Schemas() map[string]*Schema {
	out := make(map[string]*Schema, len(c.schemas))
	for k, v := range c.schemas {
		out[k] = v
	}
	return out
}

// shortName returns the last segment of a namespaced class name.
func shortName(qualified string) string {
	if idx := strings.LastIndexByte(qualified, '\\'); idx >= 0 {
		return qualified[idx+1:]
	}
	return qualified
}

var titleCaser = cases.Title(language.Und, cases.NoLower)

// namespacePrefix returns the capitalized immediate namespace of a
// qualified class name, e.g. "App\Api\User" -> "Api".
func namespacePrefix(qualified string) string {
	idx := strings.LastIndexByte(qualified, '\\')
	if idx < 0 {
		return ""
	}
	ns := qualified[:idx]
	if j := strings.LastIndexByte(ns, '\\'); j >= 0 {
		ns = ns[j+1:]
	}
	ns = strings.NewReplacer("-", "_", ".", "_").Replace(ns)
	return titleCaser.String(ns)
}

// sanitizeSchemaName drops characters that are not valid in component keys.
//
// See: https://spec.openapis.org/oas/v3.1.0#components-object (fixed fields)
func sanitizeSchemaName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// RewriteRefs walks a schema tree and renames component references.
func RewriteRefs(s *Schema, renames map[string]string) {
	walkSchema(s, make(map[*Schema]bool), func(n *Schema) {
		if name, ok := n.RefName(); ok {
			if to, ok := renames[name]; ok {
				n.Ref = schemaRefPrefix + to
			}
		}
	})
}

func walkSchema(s *Schema, seen map[*Schema]bool, fn func(*Schema)) {
	if s == nil || seen[s] {
		return
	}
	seen[s] = true
	fn(s)
	walkSchema(s.Items, seen, fn)
	walkSchema(s.AdditionalProperties, seen, fn)
	for _, k := range s.Properties.Keys() {
		walkSchema(s.Properties.Get(k), seen, fn)
	}
	for _, list := range [][]*Schema{s.PrefixItems, s.AllOf, s.OneOf, s.AnyOf} {
		for _, c := range list {
			walkSchema(c, seen, fn)
		}
	}
}

// sortedNames returns map keys in lexical order.
func sortedNames[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

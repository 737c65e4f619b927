package types

import "maps"

// Well-known attribute keys read by the schema transformer.
const (
	AttrDescription = "description"
	AttrFormat      = "format"
	AttrExample     = "example"
	AttrDefault     = "default"
	AttrDeprecated  = "deprecated"
	AttrReadOnly    = "readOnly"
)

// Attrs is the out-of-band metadata carried by every type. It does not take
// part in structural equality. The zero value is ready to use.
type Attrs struct {
	values map[string]any
}

// Attr returns the attribute stored under key.
func (a *Attrs) Attr(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// AttrOr returns the attribute stored under key, or def when it is absent.
func (a *Attrs) AttrOr(key string, def any) any {
	if v, ok := a.values[key]; ok {
		return v
	}
	return def
}

// HasAttr reports whether key is set.
func (a *Attrs) HasAttr(key string) bool {
	_, ok := a.values[key]
	return ok
}

// SetAttr stores value under key.
func (a *Attrs) SetAttr(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	a.values[key] = value
}

// DeleteAttr removes key.
func (a *Attrs) DeleteAttr(key string) {
	delete(a.values, key)
}

// AttrMap returns a copy of all attributes.
func (a *Attrs) AttrMap() map[string]any {
	return maps.Clone(a.values)
}

// MergeAttrs copies every attribute of other into a, overwriting on conflict.
func (a *Attrs) MergeAttrs(other *Attrs) {
	if other == nil || len(other.values) == 0 {
		return
	}
	if a.values == nil {
		a.values = make(map[string]any, len(other.values))
	}
	maps.Copy(a.values, other.values)
}

func (a *Attrs) attrs() *Attrs { return a }

func (a Attrs) clone() Attrs {
	return Attrs{values: maps.Clone(a.values)}
}

// StringAttr returns the attribute under key when it is a string.
func StringAttr(t Type, key string) (string, bool) {
	v, ok := t.Attr(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// BoolAttr returns the attribute under key when it is a bool, false otherwise.
func BoolAttr(t Type, key string) bool {
	v, _ := t.Attr(key)
	b, _ := v.(bool)
	return b
}

package types

import (
	"strconv"
)

// Type is a node of the type graph. The set of implementations is closed to
// this package.
type Type interface {
	Attr(key string) (any, bool)
	AttrOr(key string, def any) any
	HasAttr(key string) bool
	SetAttr(key string, value any)
	DeleteAttr(key string)
	AttrMap() map[string]any
	MergeAttrs(other *Attrs)
	String() string

	attrs() *Attrs
}

// CopyAttrs merges every attribute of src into dst and returns dst.
func CopyAttrs(dst, src Type) Type {
	if dst != nil && src != nil {
		dst.MergeAttrs(src.attrs())
	}
	return dst
}

// Kind enumerates scalar and literal kinds.
type Kind int

// Scalar kinds.
const (
	KindString Kind = iota + 1
	KindInteger
	KindFloat
	KindBoolean
	KindNull
	KindMixed
	KindVoid
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "int"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "bool"
	case KindNull:
		return "null"
	case KindMixed:
		return "mixed"
	case KindVoid:
		return "void"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Scalar is a primitive type without a known value.
type Scalar struct {
	Attrs
	Kind Kind
}

func (t *Scalar) String() string { return t.Kind.String() }

// Literal is a scalar with a statically known value. Value holds a string,
// int64, float64 or bool matching Kind.
type Literal struct {
	Attrs
	Kind  Kind
	Value any
}

func (t *Literal) String() string {
	switch v := t.Value.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return t.Kind.String()
	}
}

// StringValue returns the literal's value when it is a string literal.
func (t *Literal) StringValue() (string, bool) {
	s, ok := t.Value.(string)
	return s, ok
}

// ArrayOf is a homogeneous array. A nil Key means a list with integer keys;
// a string Key describes a map.
type ArrayOf struct {
	Attrs
	Key   Type
	Value Type
}

func (t *ArrayOf) String() string {
	if t.Key != nil {
		return "array<" + t.Key.String() + ", " + str(t.Value) + ">"
	}
	return "array<" + str(t.Value) + ">"
}

// ShapeItem is one entry of a Shape. Key is a string, an int, or nil for
// positional items.
type ShapeItem struct {
	Attrs
	Key      any
	Value    Type
	Optional bool
}

// KeyString returns the item key as a string when it is a string key.
func (i *ShapeItem) KeyString() (string, bool) {
	s, ok := i.Key.(string)
	return s, ok
}

// Shape is a keyed record or a positional tuple. List distinguishes tuples
// from associative shapes. Items keep source order.
type Shape struct {
	Attrs
	Items []*ShapeItem
	List  bool
}

func (t *Shape) String() string {
	var b []byte
	b = append(b, "array{"...)
	for i, item := range t.Items {
		if i > 0 {
			b = append(b, ", "...)
		}
		if !t.List {
			switch k := item.Key.(type) {
			case string:
				b = append(b, k...)
			case int:
				b = strconv.AppendInt(b, int64(k), 10)
			}
			if item.Optional {
				b = append(b, '?')
			}
			b = append(b, ": "...)
		}
		b = append(b, str(item.Value)...)
	}
	b = append(b, '}')
	return string(b)
}

// Get returns the item with the given string key.
func (t *Shape) Get(key string) *ShapeItem {
	for _, item := range t.Items {
		if k, ok := item.Key.(string); ok && k == key {
			return item
		}
	}
	return nil
}

// Values returns the item values in order.
func (t *Shape) Values() []Type {
	out := make([]Type, len(t.Items))
	for i, item := range t.Items {
		out[i] = item.Value
	}
	return out
}

// Union is a set of alternative types.
type Union struct {
	Attrs
	Members []Type
}

func (t *Union) String() string {
	var b []byte
	for i, m := range t.Members {
		if i > 0 {
			b = append(b, '|')
		}
		b = append(b, str(m)...)
	}
	return string(b)
}

// Object is a reference to a class without type arguments.
type Object struct {
	Attrs
	Name string
}

func (t *Object) String() string { return t.Name }

// Generic is a class instantiated with template arguments, positionally
// bound to the class's declared template parameters.
type Generic struct {
	Attrs
	Name string
	Args []Type
}

func (t *Generic) String() string {
	b := []byte(t.Name)
	b = append(b, '<')
	for i, a := range t.Args {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, str(a)...)
	}
	b = append(b, '>')
	return string(b)
}

// Arg returns the i-th argument, or Unknown when the generic is partially
// instantiated.
func (t *Generic) Arg(i int) Type {
	if i < 0 || i >= len(t.Args) {
		return NewUnknown()
	}
	return t.Args[i]
}

// Template is a type parameter. Constraint and Default may be nil.
type Template struct {
	Attrs
	Name       string
	Constraint Type
	Default    Type
}

func (t *Template) String() string { return t.Name }

// Param is a function parameter.
type Param struct {
	Name     string
	Type     Type
	Default  Type
	Variadic bool
}

// Function is a callable signature.
type Function struct {
	Attrs
	Name       string
	Params     []*Param
	Return     Type
	Templates  []*Template
	Exceptions []Type
}

func (t *Function) String() string {
	b := []byte("(")
	for i, p := range t.Params {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, str(p.Type)...)
	}
	b = append(b, "): "...)
	b = append(b, str(t.Return)...)
	return string(b)
}

// Param returns the parameter with the given name.
func (t *Function) Param(name string) *Param {
	for _, p := range t.Params {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// RefKind is the kind of a deferred reference.
type RefKind int

// Reference kinds.
const (
	MethodCall RefKind = iota + 1
	StaticCall
	New
	PropertyFetch
	FunctionCall
)

func (k RefKind) String() string {
	switch k {
	case MethodCall:
		return "methodCall"
	case StaticCall:
		return "staticCall"
	case New:
		return "constructorCall"
	case PropertyFetch:
		return "propertyFetch"
	case FunctionCall:
		return "functionCall"
	default:
		return "reference"
	}
}

// Arg is a call argument. Name is empty for positional arguments.
type Arg struct {
	Name string
	Type Type
}

// Reference is a deferred computation resolved lazily by the resolver.
// Subject is used by method calls and property fetches, Class by static and
// constructor calls, Member names the method, property or function.
type Reference struct {
	Attrs
	Kind    RefKind
	Subject Type
	Class   string
	Member  string
	Args    []Arg
}

func (t *Reference) String() string {
	var b []byte
	switch t.Kind {
	case MethodCall:
		b = append(b, "("+str(t.Subject)+")->"+t.Member...)
	case StaticCall:
		b = append(b, t.Class+"::"+t.Member...)
	case New:
		b = append(b, "new "+t.Class...)
	case PropertyFetch:
		return "(" + str(t.Subject) + ")->" + t.Member
	case FunctionCall:
		b = append(b, t.Member...)
	}
	b = append(b, '(')
	for i, a := range t.Args {
		if i > 0 {
			b = append(b, ", "...)
		}
		if a.Name != "" {
			b = append(b, a.Name+": "...)
		}
		b = append(b, str(a.Type)...)
	}
	b = append(b, ')')
	return string(b)
}

// ClassString is a class-string value naming Class.
type ClassString struct {
	Attrs
	Class string
}

func (t *ClassString) String() string { return "class-string<" + t.Class + ">" }

// Var reads a lexical variable from the resolution scope.
type Var struct {
	Attrs
	Name string
}

func (t *Var) String() string { return "$" + t.Name }

// Placeholder is a self-out slot that keeps the receiver's current argument.
type Placeholder struct {
	Attrs
}

func (t *Placeholder) String() string { return "_" }

// Computed is a type derived from its inputs once they are fully resolved.
// Compute may panic with a contract error when the inputs have the wrong
// shape.
type Computed struct {
	Attrs
	Label   string
	Inputs  []Type
	Compute func(inputs []Type) Type
}

func (t *Computed) String() string {
	b := []byte(t.Label + "(")
	for i, in := range t.Inputs {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = append(b, str(in)...)
	}
	b = append(b, ')')
	return string(b)
}

// Unknown is the sentinel for types that could not be determined.
type Unknown struct {
	Attrs
}

func (t *Unknown) String() string { return "unknown" }

func str(t Type) string {
	if t == nil {
		return "unknown"
	}
	return t.String()
}

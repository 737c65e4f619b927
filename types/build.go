package types

// Scalar constructors. Each call returns a fresh node so attributes never
// leak between uses.

func String() *Scalar  { return &Scalar{Kind: KindString} }
func Integer() *Scalar { return &Scalar{Kind: KindInteger} }
func Float() *Scalar   { return &Scalar{Kind: KindFloat} }
func Boolean() *Scalar { return &Scalar{Kind: KindBoolean} }
func Null() *Scalar    { return &Scalar{Kind: KindNull} }
func Mixed() *Scalar   { return &Scalar{Kind: KindMixed} }
func Void() *Scalar    { return &Scalar{Kind: KindVoid} }

// NewUnknown returns a fresh Unknown sentinel.
func NewUnknown() *Unknown { return &Unknown{} }

// LiteralString returns a string literal.
func LiteralString(v string) *Literal { return &Literal{Kind: KindString, Value: v} }

// LiteralInt returns an integer literal.
func LiteralInt(v int64) *Literal { return &Literal{Kind: KindInteger, Value: v} }

// LiteralFloat returns a float literal.
func LiteralFloat(v float64) *Literal { return &Literal{Kind: KindFloat, Value: v} }

// LiteralBool returns a boolean literal.
func LiteralBool(v bool) *Literal { return &Literal{Kind: KindBoolean, Value: v} }

// NewArray returns a list of value.
func NewArray(value Type) *ArrayOf { return &ArrayOf{Value: value} }

// NewMap returns an array keyed by key.
func NewMap(key, value Type) *ArrayOf { return &ArrayOf{Key: key, Value: value} }

// NewObject returns an object reference.
func NewObject(name string) *Object { return &Object{Name: name} }

// NewGeneric returns a generic instantiation.
func NewGeneric(name string, args ...Type) *Generic {
	return &Generic{Name: name, Args: args}
}

// NewTemplate returns a template with no constraint.
func NewTemplate(name string) *Template { return &Template{Name: name} }

// NewList returns a positional shape.
func NewList(values ...Type) *Shape {
	items := make([]*ShapeItem, len(values))
	for i, v := range values {
		items[i] = &ShapeItem{Value: v}
	}
	return &Shape{Items: items, List: true}
}

// NewShape returns a keyed shape. It is a list when no item has a key.
func NewShape(items ...*ShapeItem) *Shape {
	list := true
	for _, item := range items {
		if item.Key != nil {
			list = false
			break
		}
	}
	return &Shape{Items: items, List: list}
}

// Item returns a required keyed shape item.
func Item(key string, value Type) *ShapeItem {
	return &ShapeItem{Key: key, Value: value}
}

// OptionalItem returns an optional keyed shape item.
func OptionalItem(key string, value Type) *ShapeItem {
	return &ShapeItem{Key: key, Value: value, Optional: true}
}

// NewUnion flattens nested unions and removes members that are the Same.
// A single remaining member is returned as is; no members yields Unknown.
func NewUnion(members ...Type) Type {
	var flat []Type
	var add func(t Type)
	add = func(t Type) {
		if u, ok := t.(*Union); ok {
			for _, m := range u.Members {
				add(m)
			}
			return
		}
		for _, existing := range flat {
			if Same(existing, t) {
				return
			}
		}
		flat = append(flat, t)
	}
	for _, m := range members {
		if m != nil {
			add(m)
		}
	}
	switch len(flat) {
	case 0:
		return NewUnknown()
	case 1:
		return flat[0]
	default:
		return &Union{Members: flat}
	}
}

// NewMethodCall returns a deferred method call on subject.
func NewMethodCall(subject Type, method string, args ...Arg) *Reference {
	return &Reference{Kind: MethodCall, Subject: subject, Member: method, Args: args}
}

// NewStaticCall returns a deferred static method call.
func NewStaticCall(class, method string, args ...Arg) *Reference {
	return &Reference{Kind: StaticCall, Class: class, Member: method, Args: args}
}

// NewConstructorCall returns a deferred `new class(...)` expression.
func NewConstructorCall(class string, args ...Arg) *Reference {
	return &Reference{Kind: New, Class: class, Member: "__construct", Args: args}
}

// NewPropertyFetch returns a deferred property read on subject.
func NewPropertyFetch(subject Type, property string) *Reference {
	return &Reference{Kind: PropertyFetch, Subject: subject, Member: property}
}

// NewFunctionCall returns a deferred call of a global function.
func NewFunctionCall(name string, args ...Arg) *Reference {
	return &Reference{Kind: FunctionCall, Member: name, Args: args}
}

// Positional wraps types as positional call arguments.
func Positional(ts ...Type) []Arg {
	args := make([]Arg, len(ts))
	for i, t := range ts {
		args[i] = Arg{Type: t}
	}
	return args
}

// Named returns a named call argument.
func Named(name string, t Type) Arg { return Arg{Name: name, Type: t} }

// IsUnknown reports whether t is nil or the Unknown sentinel.
func IsUnknown(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(*Unknown)
	return ok
}

// IsNull reports whether t is the null scalar.
func IsNull(t Type) bool {
	s, ok := t.(*Scalar)
	return ok && s.Kind == KindNull
}

// ClassName returns the class name of an Object or Generic.
func ClassName(t Type) (string, bool) {
	switch v := t.(type) {
	case *Object:
		return v.Name, true
	case *Generic:
		return v.Name, true
	}
	return "", false
}

// LiteralStrings returns the string literal values of a shape, skipping
// anything else.
func LiteralStrings(t Type) []string {
	s, ok := t.(*Shape)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range s.Items {
		if lit, ok := item.Value.(*Literal); ok {
			if v, ok := lit.StringValue(); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

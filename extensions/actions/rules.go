package actions

import (
	"slices"
	"strconv"
	"strings"

	"github.com/vitalvas/typedoc/openapi"
	"github.com/vitalvas/typedoc/types"
)

// RulesExtractor documents the validation rules an action returns from
// rules(): as query parameters on routes without a request body, and as
// the JSON request body otherwise.
type RulesExtractor struct {
	tr *openapi.Transformer
}

// HookName implements infer.Named.
func (*RulesExtractor) HookName() string { return "actions.rules" }

// Extract implements openapi.ParameterExtractor.
func (x *RulesExtractor) Extract(route *openapi.RouteInfo, _ []*openapi.Parameter) []*openapi.Parameter {
	if openapi.HasRequestBody(route.Method) {
		return nil
	}
	s := x.rulesSchema(route.Class)
	if s == nil {
		return nil
	}
	var out []*openapi.Parameter
	for _, name := range s.Properties.Keys() {
		prop := s.Properties.Get(name)
		p := &openapi.Parameter{
			Name:        name,
			In:          "query",
			Description: prop.Description,
			Required:    slices.Contains(s.Required, name),
			Schema:      prop,
		}
		if prop.Type.Has("array") {
			p.Name = name + "[]"
		}
		out = append(out, p)
	}
	return out
}

// TransformOperation implements openapi.OperationTransformer. It adds the
// rules request body and the validation error response.
func (x *RulesExtractor) TransformOperation(op *openapi.Operation, route *openapi.RouteInfo) {
	s := x.rulesSchema(route.Class)
	if s == nil {
		return
	}
	openapi.AddValidationResponse(op)
	if !openapi.HasRequestBody(route.Method) || op.RequestBody != nil {
		return
	}
	op.RequestBody = &openapi.RequestBody{
		Required: len(s.Required) > 0,
		Content: map[string]*openapi.MediaType{
			openapi.ContentJSON: {Schema: s},
		},
	}
}

// rulesSchema returns the object schema described by the rules of class,
// or nil when class is not an action with literal rules.
func (x *RulesExtractor) rulesSchema(class string) *openapi.Schema {
	idx := x.tr.Index()
	if !isAction(idx, class) {
		return nil
	}
	if m, _ := idx.Method(idx.Definition(class), "rules"); m == nil {
		return nil
	}
	r := x.tr.Resolver()
	rules, ok := r.Resolve(r.NewScope(), types.NewMethodCall(types.NewObject(class), "rules")).(*types.Shape)
	if !ok {
		return nil
	}
	return RulesSchema(rules)
}

// RulesSchema returns the object schema described by a Laravel rules
// array keyed by dotted field paths, or nil when no entry maps to a field.
func RulesSchema(rules *types.Shape) *openapi.Schema {
	if rules == nil || rules.List {
		return nil
	}
	root := openapi.NewObject()
	for _, item := range rules.Items {
		key, ok := item.KeyString()
		if !ok {
			continue
		}
		list := ruleList(item.Value)
		if list == nil {
			continue
		}
		s, required := ruleSchema(list)
		if desc, ok := item.Attr(types.AttrDescription); ok {
			s.Description, _ = desc.(string)
		}
		if example, ok := item.Attr(types.AttrExample); ok {
			s.Example = example
		}
		place(root, strings.Split(key, "."), s, required)
	}
	if root.Properties == nil {
		return nil
	}
	return root
}

// ruleList returns the rule strings of a rules entry: a pipe separated
// string or a list of strings. Rule objects are skipped.
func ruleList(t types.Type) []string {
	switch v := t.(type) {
	case *types.Literal:
		s, ok := v.StringValue()
		if !ok {
			return nil
		}
		return strings.Split(s, "|")
	case *types.Shape:
		out := []string{}
		for _, s := range types.LiteralStrings(v) {
			out = append(out, strings.Split(s, "|")...)
		}
		return out
	}
	return nil
}

// ruleSchema maps Laravel validation rules to a schema. Untyped fields are
// strings.
func ruleSchema(rules []string) (*openapi.Schema, bool) {
	s := &openapi.Schema{}
	required, nullable := false, false
	var lo, hi *float64

	for _, rule := range rules {
		name, arg, _ := strings.Cut(strings.TrimSpace(rule), ":")
		switch name {
		case "required":
			required = true
		case "nullable":
			nullable = true
		case "string":
			s.Type = openapi.TypeString("string")
		case "integer", "int":
			s.Type = openapi.TypeString("integer")
		case "numeric", "decimal":
			s.Type = openapi.TypeString("number")
		case "boolean", "bool", "accepted", "declined":
			s.Type = openapi.TypeString("boolean")
		case "array", "list":
			s.Type = openapi.TypeString("array")
		case "email":
			s.Type, s.Format = openapi.TypeString("string"), "email"
		case "url", "active_url":
			s.Type, s.Format = openapi.TypeString("string"), "uri"
		case "uuid":
			s.Type, s.Format = openapi.TypeString("string"), "uuid"
		case "ip", "ipv4":
			s.Type, s.Format = openapi.TypeString("string"), "ipv4"
		case "ipv6":
			s.Type, s.Format = openapi.TypeString("string"), "ipv6"
		case "date":
			s.Type, s.Format = openapi.TypeString("string"), "date-time"
		case "file", "image", "mimes", "mimetypes":
			s.Type, s.Format = openapi.TypeString("string"), "binary"
		case "regex":
			s.Pattern = arg
		case "in":
			s.Enum = nil
			for _, v := range strings.Split(arg, ",") {
				s.Enum = append(s.Enum, strings.Trim(v, `"'`))
			}
		case "min", "max", "size":
			n, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				continue
			}
			if name != "max" {
				lo = &n
			}
			if name != "min" {
				hi = &n
			}
		}
	}
	if s.Type.IsEmpty() {
		s.Type = openapi.TypeString("string")
	}
	if s.Type.Has("array") && s.Items == nil {
		s.Items = &openapi.Schema{}
	}
	applyBounds(s, lo, hi)
	if nullable {
		s = openapi.Nullable(s)
	}
	return s, required
}

// applyBounds applies lo and hi as length, value or item count limits
// depending on the schema type.
func applyBounds(s *openapi.Schema, lo, hi *float64) {
	count := func(v *float64) *int {
		if v == nil {
			return nil
		}
		n := int(*v)
		return &n
	}
	switch {
	case s.Type.Has("integer"), s.Type.Has("number"):
		s.Minimum, s.Maximum = lo, hi
	case s.Type.Has("array"):
		s.MinItems, s.MaxItems = count(lo), count(hi)
	case s.Type.Has("string") && s.Format != "binary":
		s.MinLength, s.MaxLength = count(lo), count(hi)
	}
}

// place puts s under the dotted path below root. A "*" segment addresses
// the items of an array.
func place(root *openapi.Schema, path []string, s *openapi.Schema, required bool) {
	parent := root
	for i, seg := range path {
		last := i == len(path)-1
		if seg == "*" {
			if last {
				parent.Items = merged(parent.Items, s)
				return
			}
			if parent.Items == nil || parent.Items.Type.IsEmpty() {
				parent.Items = openapi.NewObject()
			}
			parent = parent.Items
			continue
		}

		asObject(parent)
		if last {
			var existing *openapi.Schema
			if parent.Properties != nil {
				existing = parent.Properties.Get(seg)
			}
			parent.AddProperty(seg, merged(existing, s))
			if required {
				parent.AddRequired(seg)
			}
			return
		}

		child := (*openapi.Schema)(nil)
		if parent.Properties != nil {
			child = parent.Properties.Get(seg)
		}
		if child == nil {
			child = openapi.NewObject()
			if path[i+1] == "*" {
				child = &openapi.Schema{Type: openapi.TypeString("array")}
			}
			parent.AddProperty(seg, child)
		}
		parent = child
	}
}

// merged returns s keeping the nested members already placed in existing
// by rules for deeper paths.
func merged(existing, s *openapi.Schema) *openapi.Schema {
	if existing == nil {
		return s
	}
	if s.Items == nil || s.Items.Type.IsEmpty() {
		if existing.Items != nil {
			s.Items = existing.Items
		}
	}
	if existing.Properties != nil && s.Properties == nil {
		asObject(s)
		s.Properties = existing.Properties
		s.Required = existing.Required
	}
	return s
}

// asObject turns s into an object schema, keeping nullability. Laravel
// validates objects with named keys under the array rule.
func asObject(s *openapi.Schema) {
	if s.Type.Has("object") {
		return
	}
	if s.Type.Has("null") {
		s.Type = openapi.TypeArray("object", "null")
	} else {
		s.Type = openapi.TypeString("object")
	}
	s.Items, s.MinItems, s.MaxItems = nil, nil, nil
}

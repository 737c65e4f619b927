package types

import (
	"sort"
	"strconv"
	"strings"
)

type pair struct{ a, b Type }

// Same reports structural equality: same variant and recursively equal
// children. Attributes are ignored. Union members compare as sets.
func Same(a, b Type) bool {
	return same(a, b, make(map[pair]bool))
}

func same(a, b Type, seen map[pair]bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a == b {
		return true
	}
	p := pair{a, b}
	if seen[p] {
		return true
	}
	seen[p] = true

	switch x := a.(type) {
	case *Scalar:
		y, ok := b.(*Scalar)
		return ok && x.Kind == y.Kind
	case *Literal:
		y, ok := b.(*Literal)
		return ok && x.Kind == y.Kind && x.Value == y.Value
	case *ArrayOf:
		y, ok := b.(*ArrayOf)
		return ok && same(x.Key, y.Key, seen) && same(x.Value, y.Value, seen)
	case *Shape:
		y, ok := b.(*Shape)
		if !ok || x.List != y.List || len(x.Items) != len(y.Items) {
			return false
		}
		for i := range x.Items {
			xi, yi := x.Items[i], y.Items[i]
			if xi.Key != yi.Key || xi.Optional != yi.Optional || !same(xi.Value, yi.Value, seen) {
				return false
			}
		}
		return true
	case *Union:
		y, ok := b.(*Union)
		if !ok || len(x.Members) != len(y.Members) {
			return false
		}
		for _, m := range x.Members {
			found := false
			for _, n := range y.Members {
				if same(m, n, seen) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case *Object:
		y, ok := b.(*Object)
		return ok && x.Name == y.Name
	case *Generic:
		y, ok := b.(*Generic)
		return ok && x.Name == y.Name && sameList(x.Args, y.Args, seen)
	case *Template:
		y, ok := b.(*Template)
		return ok && x.Name == y.Name
	case *Function:
		y, ok := b.(*Function)
		if !ok || len(x.Params) != len(y.Params) || !same(x.Return, y.Return, seen) {
			return false
		}
		for i := range x.Params {
			if !same(x.Params[i].Type, y.Params[i].Type, seen) {
				return false
			}
		}
		return true
	case *Reference:
		y, ok := b.(*Reference)
		if !ok || x.Kind != y.Kind || x.Class != y.Class || x.Member != y.Member || len(x.Args) != len(y.Args) {
			return false
		}
		if !same(x.Subject, y.Subject, seen) {
			return false
		}
		for i := range x.Args {
			if x.Args[i].Name != y.Args[i].Name || !same(x.Args[i].Type, y.Args[i].Type, seen) {
				return false
			}
		}
		return true
	case *ClassString:
		y, ok := b.(*ClassString)
		return ok && x.Class == y.Class
	case *Var:
		y, ok := b.(*Var)
		return ok && x.Name == y.Name
	case *Placeholder:
		_, ok := b.(*Placeholder)
		return ok
	case *Computed:
		y, ok := b.(*Computed)
		return ok && x.Label == y.Label && sameList(x.Inputs, y.Inputs, seen)
	case *Unknown:
		_, ok := b.(*Unknown)
		return ok
	}
	return false
}

func sameList(a, b []Type, seen map[pair]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !same(a[i], b[i], seen) {
			return false
		}
	}
	return true
}

// Key returns a canonical text form of t. Two types are Same exactly when
// their keys are equal, which makes Key usable as a map key for
// deduplication.
func Key(t Type) string {
	var sb strings.Builder
	writeKey(&sb, t, make(map[Type]int), 0)
	return sb.String()
}

func writeKey(sb *strings.Builder, t Type, onPath map[Type]int, depth int) {
	if t == nil {
		sb.WriteString("?")
		return
	}
	if d, ok := onPath[t]; ok {
		sb.WriteString("^")
		sb.WriteString(strconv.Itoa(depth - d))
		return
	}
	onPath[t] = depth
	defer delete(onPath, t)

	switch v := t.(type) {
	case *Scalar:
		sb.WriteString(v.Kind.String())
	case *Literal:
		sb.WriteString(v.Kind.String())
		sb.WriteByte('(')
		sb.WriteString(v.String())
		sb.WriteByte(')')
	case *ArrayOf:
		sb.WriteString("array<")
		if v.Key != nil {
			writeKey(sb, v.Key, onPath, depth+1)
			sb.WriteByte(',')
		}
		writeKey(sb, v.Value, onPath, depth+1)
		sb.WriteByte('>')
	case *Shape:
		if v.List {
			sb.WriteString("list{")
		} else {
			sb.WriteString("shape{")
		}
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			switch k := item.Key.(type) {
			case string:
				sb.WriteString(strconv.Quote(k))
			case int:
				sb.WriteString(strconv.Itoa(k))
			}
			if item.Optional {
				sb.WriteByte('?')
			}
			sb.WriteByte(':')
			writeKey(sb, item.Value, onPath, depth+1)
		}
		sb.WriteByte('}')
	case *Union:
		parts := make([]string, len(v.Members))
		for i, m := range v.Members {
			var inner strings.Builder
			writeKey(&inner, m, onPath, depth+1)
			parts[i] = inner.String()
		}
		sort.Strings(parts)
		sb.WriteString("union(")
		sb.WriteString(strings.Join(parts, "|"))
		sb.WriteByte(')')
	case *Object:
		sb.WriteString("object(")
		sb.WriteString(v.Name)
		sb.WriteByte(')')
	case *Generic:
		sb.WriteString("generic(")
		sb.WriteString(v.Name)
		for _, a := range v.Args {
			sb.WriteByte(',')
			writeKey(sb, a, onPath, depth+1)
		}
		sb.WriteByte(')')
	case *Template:
		sb.WriteString("template(")
		sb.WriteString(v.Name)
		sb.WriteByte(')')
	case *Function:
		sb.WriteString("fn(")
		for i, p := range v.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeKey(sb, p.Type, onPath, depth+1)
		}
		sb.WriteString("):")
		writeKey(sb, v.Return, onPath, depth+1)
	case *Reference:
		sb.WriteString("ref(")
		sb.WriteString(v.Kind.String())
		sb.WriteByte(',')
		sb.WriteString(v.Class)
		sb.WriteByte(',')
		sb.WriteString(v.Member)
		sb.WriteByte(',')
		writeKey(sb, v.Subject, onPath, depth+1)
		for _, a := range v.Args {
			sb.WriteByte(',')
			sb.WriteString(a.Name)
			sb.WriteByte('=')
			writeKey(sb, a.Type, onPath, depth+1)
		}
		sb.WriteByte(')')
	case *ClassString:
		sb.WriteString("class-string(")
		sb.WriteString(v.Class)
		sb.WriteByte(')')
	case *Var:
		sb.WriteString("var(")
		sb.WriteString(v.Name)
		sb.WriteByte(')')
	case *Placeholder:
		sb.WriteString("_")
	case *Computed:
		sb.WriteString("computed(")
		sb.WriteString(v.Label)
		for _, in := range v.Inputs {
			sb.WriteByte(',')
			writeKey(sb, in, onPath, depth+1)
		}
		sb.WriteByte(')')
	case *Unknown:
		sb.WriteString("unknown")
	}
}

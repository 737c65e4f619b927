package infer

import (
	"fmt"
	"log/slog"

	"github.com/vitalvas/typedoc/types"
)

// ArgumentsTemplate is bound, while a method is resolved, to a shape of the
// call's arguments.
const ArgumentsTemplate = "$arguments"

const defaultMaxDepth = 64

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithMaxDepth limits nested resolution. Deeper types resolve to Unknown.
func WithMaxDepth(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxDepth = n
		}
	}
}

// WithResolverLogger sets the resolver logger.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// Resolver turns deferred types into concrete ones.
type Resolver struct {
	index    *Index
	broker   *Broker
	logger   *slog.Logger
	maxDepth int

	depth    int
	inFlight map[string]bool
}

// NewResolver returns a resolver over index and its broker.
func NewResolver(index *Index, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		index:    index,
		broker:   index.broker,
		logger:   slog.Default(),
		maxDepth: defaultMaxDepth,
		inFlight: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index returns the definition index.
func (r *Resolver) Index() *Index {
	return r.index
}

// Broker returns the hook broker.
func (r *Resolver) Broker() *Broker {
	return r.broker
}

// Resolve returns t with every reference, template, variable and computed
// type replaced by what it denotes in s. A type with nothing to resolve is
// returned as is, so Resolve is idempotent.
func (r *Resolver) Resolve(s *Scope, t types.Type) types.Type {
	if t == nil {
		return types.NewUnknown()
	}
	if !deferred(t) {
		return t
	}
	if r.depth >= r.maxDepth {
		r.recursion(t, "maximum resolution depth reached")
		return types.NewUnknown()
	}
	r.depth++
	defer func() { r.depth-- }()

	switch v := t.(type) {
	case *types.Template:
		return r.resolveTemplate(s, v)
	case *types.Var:
		return r.resolveVar(s, v)
	case *types.Computed:
		return r.resolveComputed(s, v)
	case *types.Reference:
		return r.resolveReference(s, v)
	}
	return r.resolveNested(s, t)
}

func (r *Resolver) resolveNested(s *Scope, t types.Type) types.Type {
	return types.Map(t, func(n types.Type) (types.Type, bool) {
		switch v := n.(type) {
		case *types.Template, *types.Var, *types.Computed, *types.Reference:
			return r.Resolve(s, n), true
		case *types.Function:
			return n, true
		case *types.Union:
			members := make([]types.Type, len(v.Members))
			for i, m := range v.Members {
				if deferred(m) {
					members[i] = r.Resolve(s, m)
				} else {
					members[i] = types.Clone(m)
				}
			}
			return types.CopyAttrs(types.NewUnion(members...), n), true
		}
		return nil, false
	}, nil)
}

// deferred reports whether t contains anything Resolve would replace.
// Function signatures are left alone.
func deferred(t types.Type) bool {
	found := false
	types.Visit(t, func(n types.Type) bool {
		if found {
			return false
		}
		switch n.(type) {
		case *types.Template, *types.Var, *types.Computed, *types.Reference:
			found = true
			return false
		case *types.Function:
			return false
		}
		return true
	})
	return found
}

func (r *Resolver) resolveTemplate(s *Scope, t *types.Template) types.Type {
	if bound, ok := s.Binding(t.Name); ok && bound != nil {
		return types.CopyAttrs(types.Clone(bound), t)
	}
	if t.Constraint != nil {
		return types.CopyAttrs(r.Resolve(s, types.Clone(t.Constraint)), t)
	}
	return types.CopyAttrs(types.NewUnknown(), t)
}

func (r *Resolver) resolveVar(s *Scope, v *types.Var) types.Type {
	if t, ok := s.Var(v.Name); ok && t != nil {
		return types.Clone(t)
	}
	return types.NewUnknown()
}

func (r *Resolver) resolveComputed(s *Scope, c *types.Computed) types.Type {
	inputs := make([]types.Type, len(c.Inputs))
	for i, in := range c.Inputs {
		inputs[i] = r.Resolve(s, in)
	}
	if c.Compute == nil {
		return types.NewUnknown()
	}
	var out types.Type
	r.broker.Guard(c.Label, func() {
		out = c.Compute(inputs)
	})
	if out == nil {
		return types.NewUnknown()
	}
	return types.CopyAttrs(out, c)
}

func (r *Resolver) resolveReference(s *Scope, ref *types.Reference) types.Type {
	key := s.Class + "@" + types.Key(ref)
	if r.inFlight[key] {
		r.recursion(ref, "recursive reference")
		return types.NewUnknown()
	}
	r.inFlight[key] = true
	defer delete(r.inFlight, key)

	switch ref.Kind {
	case types.MethodCall:
		subject := r.Resolve(s, ref.Subject)
		return r.methodCall(s, subject, ref.Member, r.resolveArgs(s, ref.Args))
	case types.StaticCall:
		return r.staticCall(s, r.className(s, ref.Class), ref.Member, r.resolveArgs(s, ref.Args))
	case types.New:
		return r.newCall(s, r.className(s, ref.Class), r.resolveArgs(s, ref.Args))
	case types.PropertyFetch:
		return r.propertyFetch(s, r.Resolve(s, ref.Subject), ref.Member)
	case types.FunctionCall:
		return r.functionCall(s, ref.Member, r.resolveArgs(s, ref.Args))
	}
	return types.NewUnknown()
}

func (r *Resolver) resolveArgs(s *Scope, args []types.Arg) Args {
	out := make(Args, len(args))
	for i, a := range args {
		out[i] = types.Arg{Name: a.Name, Type: r.Resolve(s, a.Type)}
	}
	return out
}

func (r *Resolver) className(s *Scope, name string) string {
	switch name {
	case "self", "static":
		if s.Class != "" {
			return s.Class
		}
	case "parent":
		if s.Class != "" {
			return r.index.Definition(s.Class).Parent
		}
	}
	return name
}

func (r *Resolver) methodCall(s *Scope, subject types.Type, name string, args Args) types.Type {
	if u, ok := subject.(*types.Union); ok {
		out := make([]types.Type, 0, len(u.Members))
		for _, m := range u.Members {
			out = append(out, r.methodCall(s, m, name, args))
		}
		return types.NewUnion(out...)
	}

	class, ok := types.ClassName(subject)
	if !ok {
		if _, unknown := subject.(*types.Unknown); unknown {
			ev := &MethodCallEvent{Scope: s, Instance: types.Clone(subject), Name: name, Args: args}
			if t := r.broker.methodReturnType(ev); t != nil {
				return t
			}
		}
		return types.NewUnknown()
	}
	def := r.index.Definition(class)
	ev := &MethodCallEvent{Scope: s, Instance: types.Clone(subject), Name: name, Args: args, Definition: def}
	if t := r.broker.methodReturnType(ev); t != nil {
		return t
	}

	method, owner := r.index.Method(def, name)
	if method == nil {
		r.unresolved(class+"::"+name, "method not found")
		return types.NewUnknown()
	}
	ret, _ := r.callMethod(s, subject, def, owner, method, args)
	return ret
}

// callMethod resolves a method's return type against subject. The second
// result is the receiver's type after the call, or nil when the method
// declares no self-out type.
func (r *Resolver) callMethod(s *Scope, subject types.Type, def, owner *ClassDefinition, method *FunctionDefinition, args Args) (types.Type, types.Type) {
	cs := s.WithClass(def.Name)
	cs.BindAll(r.classBindings(s, def, subject))
	if owner != nil && owner != def {
		for _, tpl := range owner.Templates {
			if !cs.hasOwnBinding(tpl.Name) {
				cs.Bind(tpl.Name, types.NewUnknown())
			}
		}
	}
	cs.Bind(ArgumentsTemplate, argumentsShape(args))
	cs.BindAll(r.inferTemplates(cs, method.Type, args))

	if g, ok := method.Type.Return.(*types.Generic); ok && method.SelfOut == nil && isSelf(g) {
		return r.applySelfOut(cs, subject, g), nil
	}

	var out types.Type
	if method.SelfOut != nil {
		out = r.applySelfOut(cs, subject, method.SelfOut)
	}
	if out != nil && returnsSelf(method.Type.Return) {
		return out, out
	}
	return r.Resolve(cs, bindSelf(method.Type.Return, subject)), out
}

// classBindings binds the class templates of def to the arguments of
// subject. Missing arguments take the template default, or Unknown.
func (r *Resolver) classBindings(s *Scope, def *ClassDefinition, subject types.Type) map[string]types.Type {
	out := make(map[string]types.Type, len(def.Templates))
	g, _ := subject.(*types.Generic)
	for i, tpl := range def.Templates {
		switch {
		case g != nil && i < len(g.Args) && g.Args[i] != nil:
			out[tpl.Name] = g.Args[i]
		case tpl.Default != nil:
			out[tpl.Name] = r.Resolve(s, types.Clone(tpl.Default))
		default:
			out[tpl.Name] = types.NewUnknown()
		}
	}
	return out
}

// applySelfOut computes the receiver's type after a call declaring selfOut.
func (r *Resolver) applySelfOut(s *Scope, subject, selfOut types.Type) types.Type {
	g, ok := selfOut.(*types.Generic)
	if !ok {
		return r.Resolve(s, bindSelf(selfOut, subject))
	}

	name := g.Name
	class, _ := types.ClassName(subject)
	if name == "self" || name == "static" {
		name = class
	}
	current, _ := subject.(*types.Generic)
	if current != nil && current.Name != name {
		current = nil
	}

	args := make([]types.Type, 0, len(g.Args))
	for i, a := range g.Args {
		if _, keep := a.(*types.Placeholder); keep {
			if current != nil && i < len(current.Args) {
				args = append(args, types.Clone(current.Args[i]))
			} else {
				args = append(args, types.NewUnknown())
			}
			continue
		}
		args = append(args, r.Resolve(s, bindSelf(a, subject)))
	}
	if current != nil {
		for i := len(g.Args); i < len(current.Args); i++ {
			args = append(args, types.Clone(current.Args[i]))
		}
	}

	out := &types.Generic{Name: name, Args: args}
	if name == class {
		types.CopyAttrs(out, subject)
	}
	return types.CopyAttrs(out, g)
}

func isSelf(t types.Type) bool {
	switch v := t.(type) {
	case *types.Object:
		return v.Name == "self" || v.Name == "static" || v.Name == "$this"
	case *types.Generic:
		return v.Name == "self" || v.Name == "static"
	}
	return false
}

func returnsSelf(t types.Type) bool {
	return t != nil && isSelf(t)
}

// bindSelf returns a copy of t with self types replaced by subject.
func bindSelf(t types.Type, subject types.Type) types.Type {
	if t == nil {
		return nil
	}
	return types.Map(t, func(n types.Type) (types.Type, bool) {
		if o, ok := n.(*types.Object); ok && isSelf(o) {
			return types.CopyAttrs(types.Clone(subject), o), true
		}
		return nil, false
	}, nil)
}

func argumentsShape(args Args) *types.Shape {
	shape := &types.Shape{List: true}
	for _, a := range args {
		item := &types.ShapeItem{Value: a.Type}
		if a.Name != "" {
			item.Key = a.Name
			shape.List = false
		}
		shape.Items = append(shape.Items, item)
	}
	return shape
}

// inferTemplates binds the templates of fn from the call arguments. Named
// arguments match parameters by name, the rest bind positionally; a
// variadic parameter takes the union of what is left.
func (r *Resolver) inferTemplates(s *Scope, fn *types.Function, args Args) map[string]types.Type {
	own := make(map[string]bool, len(fn.Templates))
	for _, t := range fn.Templates {
		own[t.Name] = true
	}
	u := &unifier{
		out:  make(map[string]types.Type),
		want: func(name string) bool { return own[name] || !s.hasOwnBinding(name) },
	}

	var positional []types.Type
	for _, a := range args {
		if a.Name == "" {
			positional = append(positional, a.Type)
		}
	}
	next := 0
	for _, p := range fn.Params {
		if p.Variadic {
			rest := append([]types.Type(nil), positional[min(next, len(positional)):]...)
			for _, a := range args {
				if a.Name != "" && fn.Param(a.Name) == nil {
					rest = append(rest, a.Type)
				}
			}
			if len(rest) > 0 {
				u.unify(p.Type, types.NewUnion(rest...))
			}
			break
		}
		if t := args.Get(p.Name, -1); t != nil {
			u.unify(p.Type, t)
			continue
		}
		if next < len(positional) {
			u.unify(p.Type, positional[next])
			next++
		}
	}
	return u.out
}

type unifier struct {
	out  map[string]types.Type
	want func(name string) bool
}

func (u *unifier) bind(name string, t types.Type) {
	if !u.want(name) || t == nil {
		return
	}
	if existing, ok := u.out[name]; ok {
		u.out[name] = types.NewUnion(existing, t)
		return
	}
	u.out[name] = t
}

func (u *unifier) unify(param, arg types.Type) {
	if param == nil || arg == nil {
		return
	}
	switch p := param.(type) {
	case *types.Template:
		u.bind(p.Name, arg)
	case *types.ArrayOf:
		switch a := arg.(type) {
		case *types.ArrayOf:
			if p.Key != nil && a.Key != nil {
				u.unify(p.Key, a.Key)
			}
			u.unify(p.Value, a.Value)
		case *types.Shape:
			if len(a.Items) == 0 {
				return
			}
			u.unify(p.Value, types.NewUnion(a.Values()...))
			if p.Key != nil && !a.List {
				keys := make([]types.Type, 0, len(a.Items))
				for _, item := range a.Items {
					switch k := item.Key.(type) {
					case string:
						keys = append(keys, types.LiteralString(k))
					case int:
						keys = append(keys, types.LiteralInt(int64(k)))
					}
				}
				if len(keys) > 0 {
					u.unify(p.Key, types.NewUnion(keys...))
				}
			}
		}
	case *types.Shape:
		a, ok := arg.(*types.Shape)
		if !ok {
			return
		}
		for i, item := range p.Items {
			if k, ok := item.KeyString(); ok {
				if ai := a.Get(k); ai != nil {
					u.unify(item.Value, ai.Value)
				}
				continue
			}
			if i < len(a.Items) {
				u.unify(item.Value, a.Items[i].Value)
			}
		}
	case *types.Generic:
		if p.Name == "class-string" && len(p.Args) == 1 {
			switch a := arg.(type) {
			case *types.ClassString:
				u.unify(p.Args[0], types.NewObject(a.Class))
			case *types.Literal:
				if name, ok := a.StringValue(); ok {
					u.unify(p.Args[0], types.NewObject(name))
				}
			}
			return
		}
		a, ok := arg.(*types.Generic)
		if !ok || a.Name != p.Name {
			return
		}
		for i := range min(len(p.Args), len(a.Args)) {
			u.unify(p.Args[i], a.Args[i])
		}
	case *types.Union:
		for _, m := range p.Members {
			if types.IsNull(m) {
				continue
			}
			u.unify(m, withoutNull(arg))
		}
	}
}

func withoutNull(t types.Type) types.Type {
	uni, ok := t.(*types.Union)
	if !ok {
		return t
	}
	kept := make([]types.Type, 0, len(uni.Members))
	for _, m := range uni.Members {
		if !types.IsNull(m) {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		return t
	}
	return types.NewUnion(kept...)
}

func (r *Resolver) staticCall(s *Scope, class, name string, args Args) types.Type {
	def := r.index.Definition(class)
	ev := &StaticMethodCallEvent{Scope: s, Class: class, Name: name, Args: args, Definition: def}
	if t := r.broker.staticMethodReturnType(ev); t != nil {
		return t
	}

	method, owner := r.index.Method(def, name)
	if method == nil {
		r.unresolved(class+"::"+name, "static method not found")
		return types.NewUnknown()
	}
	ret, _ := r.callMethod(s, r.instanceOf(s, def), def, owner, method, args)
	return ret
}

// instanceOf returns the type of an instance of def with its template
// arguments taken from defaults.
func (r *Resolver) instanceOf(s *Scope, def *ClassDefinition) types.Type {
	if len(def.Templates) == 0 {
		return types.NewObject(def.Name)
	}
	bindings := r.classBindings(s, def, nil)
	args := make([]types.Type, len(def.Templates))
	for i, tpl := range def.Templates {
		args[i] = bindings[tpl.Name]
	}
	return types.NewGeneric(def.Name, args...)
}

func (r *Resolver) newCall(s *Scope, class string, args Args) types.Type {
	def := r.index.Definition(class)
	instance := types.Type(types.NewObject(class))
	ctor, _ := r.index.Method(def, "__construct")

	if len(def.Templates) > 0 {
		var inferred map[string]types.Type
		if ctor != nil {
			fn := &types.Function{Params: ctor.Type.Params, Templates: def.Templates}
			inferred = r.inferTemplates(s.WithClass(class), fn, args)
		}
		defaults := r.classBindings(s, def, nil)
		targs := make([]types.Type, len(def.Templates))
		for i, tpl := range def.Templates {
			if t, ok := inferred[tpl.Name]; ok {
				targs[i] = t
			} else {
				targs[i] = defaults[tpl.Name]
			}
		}
		instance = types.NewGeneric(class, targs...)
	}

	ev := &MethodCallEvent{Scope: s, Instance: types.Clone(instance), Name: "__construct", Args: args, Definition: def}
	if t := r.broker.methodReturnType(ev); t != nil {
		if _, ok := types.ClassName(t); ok {
			return t
		}
	}
	return instance
}

func (r *Resolver) propertyFetch(s *Scope, subject types.Type, name string) types.Type {
	if u, ok := subject.(*types.Union); ok {
		out := make([]types.Type, 0, len(u.Members))
		for _, m := range u.Members {
			out = append(out, r.propertyFetch(s, m, name))
		}
		return types.NewUnion(out...)
	}
	if shape, ok := subject.(*types.Shape); ok {
		if item := shape.Get(name); item != nil {
			return item.Value
		}
		return types.NewUnknown()
	}

	class, ok := types.ClassName(subject)
	if !ok {
		return types.NewUnknown()
	}
	def := r.index.Definition(class)
	ev := &PropertyFetchEvent{Scope: s, Instance: types.Clone(subject), Name: name, Definition: def}
	if t := r.broker.propertyType(ev); t != nil {
		return t
	}

	prop, _ := r.index.Property(def, name)
	if prop == nil || prop.Type == nil {
		r.unresolved(class+"::$"+name, "property not found")
		return types.NewUnknown()
	}
	cs := s.WithClass(class)
	cs.BindAll(r.classBindings(s, def, subject))
	return r.Resolve(cs, bindSelf(prop.Type, subject))
}

func (r *Resolver) functionCall(s *Scope, name string, args Args) types.Type {
	fn := r.index.Function(name)
	if fn == nil {
		r.unresolved(name, "function not found")
		return types.NewUnknown()
	}
	cs := s.Child()
	cs.Bind(ArgumentsTemplate, argumentsShape(args))
	cs.BindAll(r.inferTemplates(cs, fn.Type, args))
	return r.Resolve(cs, types.Clone(fn.Type.Return))
}

// ResolveStatement analyzes a method call whose result is discarded, such
// as `$query->allowedSorts(...)`. When the receiver is a scope variable, its
// binding is updated with the method's self-out type and SideEffectHooks
// observe the live value. A return type hook answering the call finishes
// it: no side effects run and the variable is left unchanged.
func (r *Resolver) ResolveStatement(s *Scope, call types.Type) types.Type {
	ref, ok := call.(*types.Reference)
	if !ok || ref.Kind != types.MethodCall {
		return r.Resolve(s, call)
	}
	v, ok := ref.Subject.(*types.Var)
	if !ok {
		return r.Resolve(s, call)
	}
	live, ok := s.Var(v.Name)
	if !ok {
		return r.Resolve(s, call)
	}
	class, ok := types.ClassName(live)
	if !ok {
		return r.Resolve(s, call)
	}

	args := r.resolveArgs(s, ref.Args)
	def := r.index.Definition(class)
	ev := &MethodCallEvent{Scope: s, Instance: types.Clone(live), Name: ref.Member, Args: args, Definition: def}
	if t := r.broker.methodReturnType(ev); t != nil {
		return t
	}

	var result types.Type = types.NewUnknown()
	if method, owner := r.index.Method(def, ref.Member); method != nil {
		ret, out := r.callMethod(s, live, def, owner, method, args)
		result = ret
		if out != nil {
			if ret == out {
				result = types.Clone(out)
			}
			s.SetVar(v.Name, out)
			live = out
		}
	}

	r.broker.sideEffect(&SideEffectCallEvent{
		Scope:      s,
		Variable:   v.Name,
		Instance:   live,
		Name:       ref.Member,
		Args:       args,
		Definition: def,
		Result:     result,
	})
	return result
}

func (r *Resolver) recursion(t types.Type, msg string) {
	r.logger.Debug("resolution stopped", "type", t.String(), "reason", msg)
	r.broker.diagnostics.Add(Diagnostic{
		Severity: SeverityWarning,
		Category: CategoryRecursion,
		Source:   t.String(),
		Message:  msg,
	})
}

func (r *Resolver) unresolved(subject, msg string) {
	r.broker.diagnostics.Add(Diagnostic{
		Severity: SeverityInfo,
		Category: CategoryUnresolved,
		Source:   subject,
		Message:  fmt.Sprintf("%s, using unknown", msg),
	})
}

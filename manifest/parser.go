package manifest

import (
	"strconv"
	"strings"

	"github.com/vitalvas/typedoc/types"
)

var scalars = map[string]func() *types.Scalar{
	"int":              types.Integer,
	"integer":          types.Integer,
	"positive-int":     types.Integer,
	"negative-int":     types.Integer,
	"string":           types.String,
	"non-empty-string": types.String,
	"numeric-string":   types.String,
	"float":            types.Float,
	"double":           types.Float,
	"bool":             types.Boolean,
	"boolean":          types.Boolean,
	"mixed":            types.Mixed,
	"void":             types.Void,
	"never":            types.Void,
	"null":             types.Null,
	"object":           func() *types.Scalar { return &types.Scalar{Kind: types.KindObject} },
}

// parser is a recursive descent parser over the tokens of one type
// expression. Names listed in templates parse as template variables.
type parser struct {
	expr      string
	toks      []token
	pos       int
	templates map[string]bool
}

// parse parses expr. Grammar, loosest binding first:
//
//	type    = postfix { "|" postfix }
//	postfix = primary { "[]" | "->" name [ args ] }
//	primary = "?" postfix | "(" type ")" | literal | shape | $var
//	        | array-like | "class-string<" name ">" | "new" name [ args ]
//	        | name "::class" | name "::" name args | name args
//	        | name "<" type { "," type } ">" | name
func parse(expr string, templates []string) (types.Type, error) {
	toks, err := lex(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{expr: expr, toks: toks}
	if len(templates) > 0 {
		p.templates = make(map[string]bool, len(templates))
		for _, name := range templates {
			p.templates[name] = true
		}
	}
	if p.peek().kind == tokEOF {
		return nil, syntaxErrorf(expr, 0, "empty type expression")
	}
	t, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok)
	}
	return t, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func isPunct(tok token, text string) bool {
	return tok.kind == tokPunct && tok.text == text
}

// accept consumes the punctuation text if it comes next.
func (p *parser) accept(text string) bool {
	if isPunct(p.peek(), text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(text string) error {
	if tok := p.peek(); !isPunct(tok, text) {
		return syntaxErrorf(p.expr, tok.pos, "expected %q, got %s", text, tok)
	}
	p.pos++
	return nil
}

func (p *parser) expectIdent() (string, error) {
	tok := p.next()
	if tok.kind != tokIdent {
		return "", syntaxErrorf(p.expr, tok.pos, "expected name, got %s", tok)
	}
	return className(tok.text), nil
}

func (p *parser) unexpected(tok token) error {
	return syntaxErrorf(p.expr, tok.pos, "unexpected %s", tok)
}

func (p *parser) parseType() (types.Type, error) {
	first, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	if !isPunct(p.peek(), "|") {
		return first, nil
	}
	members := []types.Type{first}
	for p.accept("|") {
		t, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		members = append(members, t)
	}
	return types.NewUnion(members...), nil
}

func (p *parser) parsePostfix() (types.Type, error) {
	t, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.accept("[]"):
			t = types.NewArray(t)
		case p.accept("->"):
			tok := p.next()
			if tok.kind != tokIdent {
				return nil, syntaxErrorf(p.expr, tok.pos, "expected member name, got %s", tok)
			}
			if !isPunct(p.peek(), "(") {
				t = types.NewPropertyFetch(t, tok.text)
				continue
			}
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			t = types.NewMethodCall(t, tok.text, args...)
		default:
			return t, nil
		}
	}
}

func (p *parser) parsePrimary() (types.Type, error) {
	tok := p.next()
	switch tok.kind {
	case tokString:
		return types.LiteralString(tok.text), nil
	case tokInt:
		n, err := strconv.ParseInt(tok.text, 10, 64)
		if err != nil {
			return nil, syntaxErrorf(p.expr, tok.pos, "invalid integer %s", tok)
		}
		return types.LiteralInt(n), nil
	case tokFloat:
		f, err := strconv.ParseFloat(tok.text, 64)
		if err != nil {
			return nil, syntaxErrorf(p.expr, tok.pos, "invalid float %s", tok)
		}
		return types.LiteralFloat(f), nil
	case tokVar:
		if tok.text == "this" {
			return types.NewObject("$this"), nil
		}
		return &types.Var{Name: tok.text}, nil
	case tokIdent:
		return p.parseName(tok)
	case tokPunct:
		switch tok.text {
		case "?":
			t, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			return types.NewUnion(t, types.Null()), nil
		case "(":
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			return t, p.expect(")")
		case "[":
			return p.parseItems("]", "=>")
		case "[]":
			return types.NewList(), nil
		}
	}
	return nil, p.unexpected(tok)
}

// parseName parses everything that starts with an identifier.
func (p *parser) parseName(tok token) (types.Type, error) {
	name := className(tok.text)
	lower := strings.ToLower(name)

	switch lower {
	case "true", "false":
		return types.LiteralBool(lower == "true"), nil
	case "new":
		class, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		var args []types.Arg
		if isPunct(p.peek(), "(") {
			if args, err = p.parseArgs(); err != nil {
				return nil, err
			}
		}
		return types.NewConstructorCall(class, args...), nil
	case "array", "list", "non-empty-array", "non-empty-list", "iterable":
		return p.parseArrayLike(strings.HasSuffix(lower, "list"))
	case "class-string":
		if !p.accept("<") {
			return types.String(), nil
		}
		class, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &types.ClassString{Class: class}, p.expect(">")
	case "_":
		return &types.Placeholder{}, nil
	}
	if scalar, ok := scalars[lower]; ok {
		return scalar(), nil
	}
	if p.templates[name] {
		return types.NewTemplate(name), nil
	}

	if p.accept("::") {
		member := p.next()
		if member.kind != tokIdent {
			return nil, syntaxErrorf(p.expr, member.pos, "expected member name, got %s", member)
		}
		if member.text == "class" {
			return &types.ClassString{Class: name}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return types.NewStaticCall(name, member.text, args...), nil
	}
	if isPunct(p.peek(), "(") {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return types.NewFunctionCall(name, args...), nil
	}
	if p.accept("<") {
		var params []types.Type
		for {
			t, err := p.parseType()
			if err != nil {
				return nil, err
			}
			params = append(params, t)
			if !p.accept(",") {
				break
			}
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
		return types.NewGeneric(name, params...), nil
	}
	return types.NewObject(name), nil
}

// parseArrayLike parses the tail of array, list and their variants:
// a "{...}" shape, "<V>" or "<K, V>" parameters, or nothing.
func (p *parser) parseArrayLike(list bool) (types.Type, error) {
	if p.accept("{") {
		t, err := p.parseItems("}", ":")
		if err != nil {
			return nil, err
		}
		if list {
			t.List = true
			for _, item := range t.Items {
				item.Key = nil
			}
		}
		return t, nil
	}
	if !p.accept("<") {
		return types.NewArray(types.Mixed()), nil
	}
	first, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if !p.accept(",") {
		return types.NewArray(first), p.expect(">")
	}
	second, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if list {
		return types.NewArray(second), p.expect(">")
	}
	return types.NewMap(first, second), p.expect(">")
}

// parseItems parses shape items up to the closing punctuation. A key is
// a name, a string or an integer followed by sep (or ":" in brackets);
// a "?" before sep marks the item optional. Unkeyed items take the next
// integer key once any item is keyed.
func (p *parser) parseItems(closing, sep string) (*types.Shape, error) {
	var items []*types.ShapeItem
	keyed := false
	for !p.accept(closing) {
		if len(items) > 0 {
			if err := p.expect(","); err != nil {
				return nil, err
			}
			// trailing comma
			if p.accept(closing) {
				break
			}
		}
		item := &types.ShapeItem{}
		if key, optional, ok := p.itemKey(sep); ok {
			item.Key, item.Optional = key, optional
			keyed = true
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		item.Value = t
		items = append(items, item)
	}
	if !keyed {
		return types.NewShape(items...), nil
	}

	next := 0
	for _, item := range items {
		switch k := item.Key.(type) {
		case nil:
			item.Key = next
			next++
		case int:
			if k >= next {
				next = k + 1
			}
		}
	}
	return types.NewShape(items...), nil
}

// itemKey consumes an item key when one comes next.
func (p *parser) itemKey(sep string) (key any, optional, ok bool) {
	tok := p.peek()
	if tok.kind != tokIdent && tok.kind != tokString && tok.kind != tokInt {
		return nil, false, false
	}
	n := 1
	if isPunct(p.peekAt(n), "?") {
		optional = true
		n++
	}
	after := p.peekAt(n)
	if !isPunct(after, sep) && !isPunct(after, ":") {
		return nil, false, false
	}
	p.pos += n + 1

	if tok.kind == tokInt {
		if i, err := strconv.Atoi(tok.text); err == nil {
			return i, optional, true
		}
	}
	return tok.text, optional, true
}

// parseArgs parses a parenthesized argument list. "name: T" is a named
// argument.
func (p *parser) parseArgs() ([]types.Arg, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var args []types.Arg
	for !p.accept(")") {
		if len(args) > 0 {
			if err := p.expect(","); err != nil {
				return nil, err
			}
		}
		var arg types.Arg
		if tok := p.peek(); tok.kind == tokIdent && isPunct(p.peekAt(1), ":") {
			arg.Name = tok.text
			p.pos += 2
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		arg.Type = t
		args = append(args, arg)
	}
	return args, nil
}

// className drops the leading namespace separator of a fully qualified
// name.
func className(name string) string {
	return strings.TrimPrefix(name, `\`)
}

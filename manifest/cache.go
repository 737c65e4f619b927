package manifest

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vitalvas/typedoc/types"
)

// DefaultCacheSize bounds the number of parsed expressions kept by a Parser.
const DefaultCacheSize = 1024

// Parser parses type expressions and caches the results. Manifests repeat
// the same expressions across classes, so parsing is memoized by
// expression and the template names in scope.
type Parser struct {
	cache *lru.Cache[string, types.Type]
}

// NewParser returns a parser caching up to size expressions.
func NewParser(size int) (*Parser, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, types.Type](size)
	if err != nil {
		return nil, err
	}
	return &Parser{cache: c}, nil
}

// Parse parses expr. Names in templates parse as template variables. The
// returned type is a fresh copy the caller may mutate.
func (p *Parser) Parse(expr string, templates ...string) (types.Type, error) {
	expr = strings.TrimSpace(expr)
	key := expr
	if len(templates) > 0 {
		key = strings.Join(templates, ",") + "\x00" + expr
	}
	if t, ok := p.cache.Get(key); ok {
		return types.Clone(t), nil
	}

	t, err := parse(expr, templates)
	if err != nil {
		return nil, err
	}
	p.cache.Add(key, t)
	return types.Clone(t), nil
}

// Len returns the number of cached expressions.
func (p *Parser) Len() int {
	return p.cache.Len()
}

// ParseType parses expr without caching.
func ParseType(expr string, templates ...string) (types.Type, error) {
	return parse(strings.TrimSpace(expr), templates)
}

package types

// Hierarchy answers direct-ancestry questions about classes. Ancestors
// returns the direct parent class and implemented interfaces of name.
type Hierarchy interface {
	Ancestors(name string) []string
}

// IsSubclassOf reports whether child is parent or transitively extends or
// implements it.
func IsSubclassOf(h Hierarchy, child, parent string) bool {
	if child == parent {
		return true
	}
	if h == nil {
		return false
	}
	seen := map[string]bool{child: true}
	queue := []string{child}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		for _, anc := range h.Ancestors(name) {
			if anc == parent {
				return true
			}
			if !seen[anc] {
				seen[anc] = true
				queue = append(queue, anc)
			}
		}
	}
	return false
}

// IsInstanceOf reports whether t is an Object or Generic whose class is name
// or a subclass of it.
func IsInstanceOf(h Hierarchy, t Type, name string) bool {
	class, ok := ClassName(t)
	if !ok {
		return false
	}
	return IsSubclassOf(h, class, name)
}

// IsInstanceOfAny reports whether t is an instance of any of names.
func IsInstanceOfAny(h Hierarchy, t Type, names ...string) bool {
	for _, n := range names {
		if IsInstanceOf(h, t, n) {
			return true
		}
	}
	return false
}

// IsSubclassOfAny reports whether class is a subclass of any of names.
func IsSubclassOfAny(h Hierarchy, class string, names ...string) bool {
	for _, n := range names {
		if IsSubclassOf(h, class, n) {
			return true
		}
	}
	return false
}

// Graph is a static inheritance graph.
type Graph struct {
	parents map[string][]string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{parents: make(map[string][]string)}
}

// Declare records that name directly extends or implements ancestors.
func (g *Graph) Declare(name string, ancestors ...string) *Graph {
	g.parents[name] = append(g.parents[name], ancestors...)
	return g
}

// Ancestors implements Hierarchy.
func (g *Graph) Ancestors(name string) []string {
	return g.parents[name]
}

// Chain combines hierarchies, concatenating their answers.
type Chain []Hierarchy

// Ancestors implements Hierarchy.
func (c Chain) Ancestors(name string) []string {
	var out []string
	for _, h := range c {
		if h != nil {
			out = append(out, h.Ancestors(name)...)
		}
	}
	return out
}

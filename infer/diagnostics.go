package infer

import (
	"strings"
)

// Severity is the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Category classifies diagnostics for filtering.
type Category string

const (
	CategoryShapeContract Category = "shape-contract"
	CategoryHookFailure   Category = "hook-failure"
	CategoryRecursion     Category = "recursion"
	CategoryUnresolved    Category = "unresolved"
)

// Diagnostic is one recorded problem. Source names the hook or class
// involved.
type Diagnostic struct {
	Severity Severity
	Category Category
	Source   string
	Message  string
}

func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	if d.Category != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Category))
		sb.WriteString("] ")
	}
	if d.Source != "" {
		sb.WriteString(d.Source)
		sb.WriteString(": ")
	}
	sb.WriteString(d.Message)
	return sb.String()
}

// Diagnostics collects problems found during a run. A nil *Diagnostics
// discards everything.
type Diagnostics struct {
	items []Diagnostic
}

// NewDiagnostics returns an empty collector.
func NewDiagnostics() *Diagnostics {
	return &Diagnostics{}
}

// Add records d.
func (c *Diagnostics) Add(d Diagnostic) {
	if c == nil {
		return
	}
	c.items = append(c.items, d)
}

// All returns the recorded diagnostics in order.
func (c *Diagnostics) All() []Diagnostic {
	if c == nil {
		return nil
	}
	return c.items
}

// Len returns the number of recorded diagnostics.
func (c *Diagnostics) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (c *Diagnostics) HasErrors() bool {
	for _, d := range c.All() {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ByCategory returns the diagnostics of one category.
func (c *Diagnostics) ByCategory(cat Category) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.All() {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	return out
}

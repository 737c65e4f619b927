package manifest

import (
	"errors"
	"fmt"
)

// ErrInvalidManifest is wrapped by every manifest validation error.
var ErrInvalidManifest = errors.New("manifest: invalid manifest")

// SyntaxError reports a malformed type expression.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("manifest: %s at offset %d in %q", e.Msg, e.Pos, e.Expr)
}

func syntaxErrorf(expr string, pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Expr: expr, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

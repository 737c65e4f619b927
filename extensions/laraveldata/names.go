package laraveldata

import (
	"strings"

	"github.com/vitalvas/typedoc/openapi"
)

// ContextualNamesTransformer settles the names of input components whose
// schema differs from the output form. Without an output use the "Request"
// suffix is dropped; otherwise a configured input name is applied.
type ContextualNamesTransformer struct {
	ext *Extension
}

// HookName implements infer.Named.
func (*ContextualNamesTransformer) HookName() string { return "laraveldata.names" }

// TransformDocument implements openapi.DocumentTransformer.
func (n *ContextualNamesTransformer) TransformDocument(doc *openapi.Document, tr *openapi.Transformer) {
	for _, class := range n.ext.refs.names() {
		refs := n.ext.refs.classes[class]
		if !refs.different || refs.input == "" {
			continue
		}

		var to string
		if !refs.output {
			to = strings.TrimSuffix(refs.input, "Request")
		} else {
			to = n.ext.cfg.InputNames[class]
		}
		if to == "" || to == refs.input {
			continue
		}
		if tr.RenameComponent(doc, refs.input, to) {
			refs.input = to
		}
	}
}

package openapi

import "strings"

// RenameComponent moves component from to the name to after the document
// was generated. References across the document are rewritten, and
// request body and response descriptions naming the component as `from`
// are updated. It returns false when from is unknown or to is taken.
func (tr *Transformer) RenameComponent(doc *Document, from, to string) bool {
	if !tr.components.Rename(from, to) {
		return false
	}
	renames := map[string]string{from: to}

	if doc.Components != nil && doc.Components.Schemas != nil {
		if s, ok := doc.Components.Schemas[from]; ok {
			delete(doc.Components.Schemas, from)
			doc.Components.Schemas[to] = s
		}
		for _, s := range doc.Components.Schemas {
			RewriteRefs(s, renames)
		}
	}

	quoted := strings.NewReplacer("`"+from+"`", "`"+to+"`")
	for _, item := range doc.Paths {
		for _, p := range item.Parameters {
			RewriteRefs(p.Schema, renames)
		}
		for _, op := range item.Operations() {
			for _, p := range op.Parameters {
				RewriteRefs(p.Schema, renames)
			}
			if op.RequestBody != nil {
				op.RequestBody.Description = quoted.Replace(op.RequestBody.Description)
				rewriteContent(op.RequestBody.Content, renames)
			}
			for _, resp := range op.Responses {
				resp.Description = quoted.Replace(resp.Description)
				rewriteContent(resp.Content, renames)
			}
		}
	}

	tr.logger.Debug("component renamed", "from", from, "to", to)
	return true
}

func rewriteContent(content map[string]*MediaType, renames map[string]string) {
	for _, mt := range content {
		RewriteRefs(mt.Schema, renames)
	}
}

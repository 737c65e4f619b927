package openapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/vitalvas/typedoc/types"
)

// ContentJSON is the default media type of request and response bodies.
const ContentJSON = "application/json"

// ToResponse builds the response for a returned type. Registered response
// extensions are asked first; otherwise void maps to 204 and anything else
// to a 200 JSON response.
//
// See: https://spec.openapis.org/oas/v3.1.0#response-object
func (tr *Transformer) ToResponse(t types.Type) (int, *Response) {
	t = tr.resolver.Resolve(tr.resolver.NewScope(), t)

	for _, ext := range tr.responseExts {
		if !ext.ShouldHandle(t) {
			continue
		}
		var (
			code int
			resp *Response
		)
		tr.guard(ext, func() { code, resp = ext.ToResponse(tr, t) })
		if resp != nil {
			if code == 0 {
				code = http.StatusOK
			}
			return code, resp
		}
	}

	if s, ok := t.(*types.Scalar); ok && s.Kind == types.KindVoid {
		return http.StatusNoContent, &Response{Description: responseDescription(strconv.Itoa(http.StatusNoContent))}
	}

	return http.StatusOK, JSONResponse(http.StatusOK, ContentJSON, tr.Transform(t))
}

// AddResponseHeaders documents the items of a headers shape, such as the
// headers argument of a JSON response class, on resp. Content-Type is
// carried by the media type and skipped.
func (tr *Transformer) AddResponseHeaders(resp *Response, headers types.Type) {
	sh, ok := headers.(*types.Shape)
	if !ok || resp == nil {
		return
	}
	for _, item := range sh.Items {
		name, ok := item.KeyString()
		if !ok || name == "" || strings.EqualFold(name, "Content-Type") {
			continue
		}
		if resp.Headers == nil {
			resp.Headers = make(map[string]*Header)
		}
		resp.Headers[name] = &Header{Required: !item.Optional, Schema: tr.Transform(item.Value)}
	}
}

// JSONResponse returns a response carrying schema under the given media type.
func JSONResponse(code int, contentType string, schema *Schema) *Response {
	return &Response{
		Description: responseDescription(strconv.Itoa(code)),
		Content: map[string]*MediaType{
			contentType: {Schema: schema},
		},
	}
}

// ToRequestBody builds the request body for t. Registered request body
// extensions are asked first; otherwise t becomes a required JSON body.
//
// See: https://spec.openapis.org/oas/v3.1.0#request-body-object
func (tr *Transformer) ToRequestBody(t types.Type) *RequestBody {
	t = tr.resolver.Resolve(tr.resolver.NewScope(), t)
	for _, ext := range tr.requestExts {
		if !ext.ShouldHandleRequest(t) {
			continue
		}
		var body *RequestBody
		tr.guard(ext, func() { body = ext.ToRequestBody(tr, t) })
		if body != nil {
			return body
		}
	}

	return &RequestBody{
		Required: true,
		Content: map[string]*MediaType{
			ContentJSON: {Schema: tr.Transform(t)},
		},
	}
}

// responseDescription returns a human-readable description for a response key.
//
// See: https://spec.openapis.org/oas/v3.1.0#response-object (description)
func responseDescription(key string) string {
	if key == "default" {
		return "Default response"
	}
	code, err := strconv.Atoi(key)
	if err == nil {
		if text := http.StatusText(code); text != "" {
			return text
		}
	}
	return key
}

// AddValidationResponse adds the 422 response Laravel returns when request
// validation fails, unless the operation already documents one.
func AddValidationResponse(op *Operation) {
	errs := NewObject()
	errs.Description = "A detailed description of each field that failed validation."
	errs.AdditionalProperties = &Schema{
		Type:  TypeString("array"),
		Items: &Schema{Type: TypeString("string")},
	}
	body := NewObject().
		AddProperty("message", &Schema{Type: TypeString("string"), Description: "Errors overview."}).
		AddProperty("errors", errs).
		SetRequired("message", "errors")
	addErrorResponse(op, http.StatusUnprocessableEntity, "Validation error", body)
}

// AddAuthorizationResponse adds the 403 response of a failed authorization
// check, unless the operation already documents one.
func AddAuthorizationResponse(op *Operation) {
	body := NewObject().
		AddProperty("message", &Schema{Type: TypeString("string"), Description: "Error overview."}).
		SetRequired("message")
	addErrorResponse(op, http.StatusForbidden, "Authorization error", body)
}

func addErrorResponse(op *Operation, code int, description string, body *Schema) {
	key := strconv.Itoa(code)
	if op.Responses == nil {
		op.Responses = make(map[string]*Response)
	}
	if _, ok := op.Responses[key]; ok {
		return
	}
	resp := JSONResponse(code, ContentJSON, body)
	resp.Description = description
	op.Responses[key] = resp
}

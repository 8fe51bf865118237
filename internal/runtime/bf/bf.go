// Package bf provides the small set of Go html/template helpers the
// default server adapter uses to emit the hydration DOM contract
// (spec.md §6.3): scope/element/conditional markers and the
// data-bf-props JSON island.
package bf

import (
	"encoding/json"
	"html/template"
	"strconv"

	"github.com/tidwall/sjson"
)

// FuncMap returns the helpers registered into every generated server
// template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"bfScope":       ScopeAttr,
		"bfMark":        Marker,
		"bfCond":        CondAttr,
		"bfCondStart":   CondStart,
		"bfCondEnd":     CondEnd,
		"bfKey":         KeyAttr,
		"bfEventID":     EventIDAttr,
		"bfIndex":       IndexAttr,
		"bfPropsScript": PropsScriptFromValue,
	}
}

// PropsScriptFromValue marshals v (a component's props struct, the
// template pipeline value) and wraps it as the data-bf-props sibling
// script, for adapters that want request-time prop serialization rather
// than a compile-time-assembled PropsBuilder payload.
func PropsScriptFromValue(scopeID string, v interface{}) template.HTML {
	b, err := json.Marshal(v)
	if err != nil {
		return template.HTML("<!-- bfPropsScript error: " + err.Error() + " -->")
	}
	return PropsScript(scopeID, string(b))
}

// ScopeAttr renders the component's scope-root marker: data-bf-scope="id".
func ScopeAttr(scopeID string) template.HTMLAttr {
	return template.HTMLAttr(`data-bf-scope="` + template.HTMLEscapeString(scopeID) + `"`)
}

// Marker renders a null-path element's sentinel: data-bf="id".
func Marker(elementID string) template.HTMLAttr {
	return template.HTMLAttr(`data-bf="` + template.HTMLEscapeString(elementID) + `"`)
}

// CondAttr renders a conditional's branch-root marker, used when the
// active branch is itself a single element rather than a fragment:
// data-bf-cond="id".
func CondAttr(condID string) template.HTMLAttr {
	return template.HTMLAttr(`data-bf-cond="` + template.HTMLEscapeString(condID) + `"`)
}

// CondStart renders the comment-pair start marker used when a
// conditional branch is a fragment (spec.md §6.3): <!--bf-cond-start:id-->.
func CondStart(condID string) template.HTML {
	return template.HTML("<!--bf-cond-start:" + template.HTMLEscapeString(condID) + "-->")
}

// CondEnd renders the matching comment-pair end marker.
func CondEnd(condID string) template.HTML {
	return template.HTML("<!--bf-cond-end:" + template.HTMLEscapeString(condID) + "-->")
}

// KeyAttr renders a list item's identity marker: data-key="value".
func KeyAttr(key string) template.HTMLAttr {
	return template.HTMLAttr(`data-key="` + template.HTMLEscapeString(key) + `"`)
}

// EventIDAttr renders the delegated-event marker an element carries so
// the client's single delegated listener can look up its handler:
// data-event-id="id".
func EventIDAttr(eventID string) template.HTMLAttr {
	return template.HTMLAttr(`data-event-id="` + template.HTMLEscapeString(eventID) + `"`)
}

// IndexAttr renders a list item's position marker: data-index="n", read
// by the client when resolving `index` parameters in event handlers
// bound inside list templates.
func IndexAttr(index int) template.HTMLAttr {
	return template.HTMLAttr(`data-index="` + strconv.Itoa(index) + `"`)
}

// PropsBuilder incrementally assembles the JSON object serialized into a
// component's data-bf-props script tag, one field at a time, using
// dotted-path sjson.Set so nested prop shapes don't require building an
// intermediate map[string]interface{}.
type PropsBuilder struct {
	json string
	err  error
}

// NewPropsBuilder starts an empty props object.
func NewPropsBuilder() *PropsBuilder {
	return &PropsBuilder{json: "{}"}
}

// SetRaw sets path to a pre-serialized JSON value (used for computed
// initial values whose JS expression the compiler has already evaluated
// to literal JSON text at the server layer, e.g. "0", "\"red\"", "true").
func (p *PropsBuilder) SetRaw(path, rawJSON string) *PropsBuilder {
	if p.err != nil {
		return p
	}
	out, err := sjson.SetRaw(p.json, path, rawJSON)
	if err != nil {
		p.err = err
		return p
	}
	p.json = out
	return p
}

// Set sets path to a Go value, letting sjson marshal it.
func (p *PropsBuilder) Set(path string, value interface{}) *PropsBuilder {
	if p.err != nil {
		return p
	}
	out, err := sjson.Set(p.json, path, value)
	if err != nil {
		p.err = err
		return p
	}
	p.json = out
	return p
}

// Build returns the assembled JSON text and any error encountered along
// the way.
func (p *PropsBuilder) Build() (string, error) {
	return p.json, p.err
}

// PropsScript renders the data-bf-props hydration payload: a script tag
// of type application/json carrying the scope's initial prop values,
// keyed by scope id so the client's bootstrap can locate it via
// document.querySelector (spec.md §6.3).
func PropsScript(scopeID string, propsJSON string) template.HTML {
	return template.HTML(`<script type="application/json" data-bf-props="` +
		template.HTMLEscapeString(scopeID) + `">` + propsJSON + `</script>`)
}

// Package template turns template text and a render context into final email
// content. The source decides which text to render (tenant override or
// embedded default); the engine is a pure function over (text, context).
package template

import (
	"bytes"
	"strings"
	texttemplate "text/template"

	"billmail/internal/types"
)

// Engine renders template text against a context. It is stateless and
// side-effect free: identical inputs always produce identical output.
type Engine struct{}

// NewEngine returns a rendering engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Render parses and executes the template text against ctx.
//
// The context is a mapping carrying at least "Text" (the translation
// dictionary), "Account", and one domain display object ("Invoice",
// "Payment", or "Subscription" depending on the action).
//
// Unresolved variables render as the empty string rather than failing:
// missing dictionary keys yield "" via the map zero value, and missing
// top-level context keys are rendered as Go's "<no value>" marker, which is
// stripped before returning. Malformed template syntax is a hard error
// because template content is operator-controlled.
func (e *Engine) Render(name, text string, ctx map[string]any) (string, error) {
	tmpl, err := texttemplate.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", types.NewAppErrorWithDetails(
			types.ErrCodeRenderSyntax,
			"template failed to parse",
			err,
			map[string]any{"template": name},
		)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", types.NewAppErrorWithDetails(
			types.ErrCodeRenderFailed,
			"template execution failed",
			err,
			map[string]any{"template": name},
		)
	}

	// missingkey=zero prints "<no value>" for absent map entries of
	// interface type; the contract is empty string.
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}

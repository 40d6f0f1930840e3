// Package renderer fills card templates by substituting named {slot}
// placeholders with caller-supplied values.
package renderer

import (
	"fmt"
	"strings"

	"github.com/dpshade/party-deck/internal/models"
)

// SlotResolver maps a slot name to its value. The second return value
// reports whether the slot could be resolved; returning false fails the
// fill with a SlotError.
type SlotResolver func(name string) (string, bool)

// MapResolver adapts a plain map to a SlotResolver.
func MapResolver(values map[string]string) SlotResolver {
	return func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	}
}

// ErrEmptyTemplate is returned when a template has no text at all.
var ErrEmptyTemplate = fmt.Errorf("template text is empty")

// SyntaxError reports unbalanced or nested braces in template text.
type SyntaxError struct {
	TemplateID string
	Pos        int
	Reason     string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template %s: syntax error at offset %d: %s", e.TemplateID, e.Pos, e.Reason)
}

// SlotError reports a slot present in the template text that the resolver
// could not supply a value for.
type SlotError struct {
	TemplateID string
	Slot       string
}

func (e *SlotError) Error() string {
	return fmt.Sprintf("template %s: no value for slot %q", e.TemplateID, e.Slot)
}

// Engine fills templates. It holds no state and is safe to share.
type Engine struct{}

// NewEngine creates a template engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Fill substitutes every {slot} in the template text with the value the
// resolver returns for it. The slot name is the exact substring between the
// braces, whitespace and all. Every occurrence of the same slot receives
// the same value. A template with no slots is returned unchanged.
func (e *Engine) Fill(tmpl *models.Template, resolve SlotResolver) (string, error) {
	if tmpl.Text == "" {
		return "", ErrEmptyTemplate
	}

	slots, err := scanSlots(tmpl.ID, tmpl.Text)
	if err != nil {
		return "", err
	}
	if len(slots) == 0 {
		return tmpl.Text, nil
	}

	values := make(map[string]string, len(slots))
	for _, name := range slots {
		if _, done := values[name]; done {
			continue
		}
		v, ok := resolve(name)
		if !ok {
			return "", &SlotError{TemplateID: tmpl.ID, Slot: name}
		}
		values[name] = v
	}

	text := tmpl.Text
	for name, v := range values {
		text = strings.ReplaceAll(text, "{"+name+"}", v)
	}
	return text, nil
}

// FillCard fills the template and wraps the result in a FilledCard carrying
// the template's metadata and the resolved slot assignments.
func (e *Engine) FillCard(tmpl *models.Template, resolve SlotResolver) (models.FilledCard, error) {
	meta := map[string]string{"template": tmpl.Text}
	wrapped := func(name string) (string, bool) {
		v, ok := resolve(name)
		if ok {
			meta["slot:"+name] = v
		}
		return v, ok
	}

	text, err := e.Fill(tmpl, wrapped)
	if err != nil {
		return models.FilledCard{}, err
	}
	return models.FilledCard{
		ID:       tmpl.ID,
		Game:     tmpl.Game,
		Text:     text,
		Family:   tmpl.Family,
		Spice:    tmpl.Spice,
		Metadata: meta,
	}, nil
}

// scanSlots walks the text once and returns slot names in order of first
// appearance. Braces must pair up and may not nest.
func scanSlots(templateID, text string) ([]string, error) {
	var slots []string
	open := -1
	for i, r := range text {
		switch r {
		case '{':
			if open >= 0 {
				return nil, &SyntaxError{TemplateID: templateID, Pos: i, Reason: "nested '{'"}
			}
			open = i
		case '}':
			if open < 0 {
				return nil, &SyntaxError{TemplateID: templateID, Pos: i, Reason: "'}' without matching '{'"}
			}
			slots = append(slots, text[open+1:i])
			open = -1
		}
	}
	if open >= 0 {
		return nil, &SyntaxError{TemplateID: templateID, Pos: open, Reason: "unclosed '{'"}
	}
	return slots, nil
}

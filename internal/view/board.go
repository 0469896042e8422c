// Package view binds logical widget names to widget state. A layout
// declares the widgets it draws, components write to them by name, and
// renderers read immutable snapshots.
package view

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrMissingWidgets = errors.New("missing widgets")

type Widget struct {
	Text    string
	Value   float64
	classes map[string]bool
	style   map[string]string
}

func (w *Widget) SetText(s string) { w.Text = s }

func (w *Widget) SetValue(v float64) { w.Value = v }

func (w *Widget) SetClass(name string, on bool) {
	if on {
		w.classes[name] = true
		return
	}
	delete(w.classes, name)
}

func (w *Widget) HasClass(name string) bool { return w.classes[name] }

func (w *Widget) SetStyle(prop, v string) { w.style[prop] = v }

func (w *Widget) Style(prop string) string { return w.style[prop] }

// WidgetState is a detached copy of a widget.
type WidgetState struct {
	Text    string            `json:"text"`
	Value   float64           `json:"value"`
	Classes []string          `json:"classes,omitempty"`
	Style   map[string]string `json:"style,omitempty"`
}

func (s WidgetState) HasClass(name string) bool {
	for _, c := range s.Classes {
		if c == name {
			return true
		}
	}
	return false
}

type Board struct {
	widgets map[string]*Widget
}

func NewBoard(names ...string) *Board {
	b := &Board{widgets: make(map[string]*Widget, len(names))}
	for _, n := range names {
		b.widgets[n] = &Widget{classes: map[string]bool{}, style: map[string]string{}}
	}
	return b
}

// Require fails if any of names is not bound.
func (b *Board) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := b.widgets[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%w: %s", ErrMissingWidgets, strings.Join(missing, ", "))
	}
	return nil
}

func (b *Board) Widget(name string) (*Widget, bool) {
	w, ok := b.widgets[name]
	return w, ok
}

func (b *Board) Snapshot() map[string]WidgetState {
	out := make(map[string]WidgetState, len(b.widgets))
	for name, w := range b.widgets {
		st := WidgetState{Text: w.Text, Value: w.Value}
		for c := range w.classes {
			st.Classes = append(st.Classes, c)
		}
		sort.Strings(st.Classes)
		if len(w.style) > 0 {
			st.Style = make(map[string]string, len(w.style))
			for k, v := range w.style {
				st.Style[k] = v
			}
		}
		out[name] = st
	}
	return out
}

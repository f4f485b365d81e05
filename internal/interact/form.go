package interact

import (
	"strings"
	"sync"

	"github.com/olivierh59500/physarum-viewport/internal/mirror"
	"github.com/olivierh59500/physarum-viewport/internal/model"
)

// Input is an editable text field. The mirror writes it from request
// goroutines while the game loop edits and draws it.
type Input struct {
	mu   sync.Mutex
	text string
}

func (in *Input) Text() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.text
}

func (in *Input) SetText(s string) {
	in.mu.Lock()
	in.text = s
	in.mu.Unlock()
}

func (in *Input) edit(fn func(string) string) {
	in.mu.Lock()
	in.text = fn(in.text)
	in.mu.Unlock()
}

// maxInputLen caps what a single field accepts from the keyboard.
const maxInputLen = 16

// Form is the parameter panel: one input per parameter, in display order,
// and a selection cursor.
type Form struct {
	inputs   []*Input
	selected int
}

func NewForm() *Form {
	f := &Form{inputs: make([]*Input, len(model.Params))}
	for i := range f.inputs {
		f.inputs[i] = &Input{}
	}
	return f
}

// Bindings exposes the inputs to a mirror.
func (f *Form) Bindings() mirror.Bindings {
	b := make(mirror.Bindings, len(f.inputs))
	for i, p := range model.Params {
		b[p.Name] = f.inputs[i]
	}
	return b
}

func (f *Form) Len() int { return len(f.inputs) }

func (f *Form) Selected() int { return f.selected }

// Row returns the label and current text of row i.
func (f *Form) Row(i int) (label, text string) {
	return model.Params[i].Label, f.inputs[i].Text()
}

// Move shifts the selection by delta, wrapping at both ends.
func (f *Form) Move(delta int) {
	n := len(f.inputs)
	f.selected = ((f.selected+delta)%n + n) % n
}

// Type appends the characters a number can be written with and drops
// everything else.
func (f *Form) Type(chars []rune) {
	var sb strings.Builder
	for _, r := range chars {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-', r == '+', r == 'e', r == 'E':
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return
	}
	f.inputs[f.selected].edit(func(s string) string {
		s += sb.String()
		if len(s) > maxInputLen {
			s = s[:maxInputLen]
		}
		return s
	})
}

// Backspace removes the last character of the selected input.
func (f *Form) Backspace() {
	f.inputs[f.selected].edit(func(s string) string {
		if s == "" {
			return s
		}
		return s[:len(s)-1]
	})
}

// Clear empties the selected input.
func (f *Form) Clear() {
	f.inputs[f.selected].SetText("")
}

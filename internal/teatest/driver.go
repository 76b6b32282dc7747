// Package teatest drives bubbletea models in tests without a tea.Program.
// Update is called directly and every returned Cmd is run to completion on
// the test goroutine, so a model's view can be asserted step by step.
package teatest

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

// maxDepth bounds Cmd chains that keep producing messages.
const maxDepth = 100

// Driver wraps a model under test.
type Driver struct {
	T     *testing.T
	Model tea.Model

	// Quitting is set once a Cmd yields tea.QuitMsg. The runtime normally
	// swallows that message, so the driver records it instead.
	Quitting bool
	// Seen counts delivered messages by type name, for assertions on
	// whether a key caused a reload.
	Seen map[string]int
}

func New(t *testing.T, model tea.Model) *Driver {
	t.Helper()
	return &Driver{T: t, Model: model, Seen: map[string]int{}}
}

// Start runs Init and everything it schedules.
func (d *Driver) Start() *Driver {
	d.T.Helper()
	d.drain(d.Model.Init(), 0)
	return d
}

// Resize delivers a WindowSizeMsg.
func (d *Driver) Resize(w, h int) {
	d.T.Helper()
	d.Send(tea.WindowSizeMsg{Width: w, Height: h})
}

// Send delivers msg and drains the resulting Cmds. Messages after quit are
// dropped.
func (d *Driver) Send(msg tea.Msg) {
	d.T.Helper()
	if d.Quitting {
		return
	}
	updated, cmd := d.Model.Update(msg)
	d.Model = updated
	d.drain(cmd, 0)
}

// Press sends one named key: a single rune, or one of the names below.
func (d *Driver) Press(name string) {
	d.T.Helper()
	if k, ok := namedKeys[name]; ok {
		d.Send(tea.KeyMsg{Type: k})
		return
	}
	d.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)})
}

var namedKeys = map[string]tea.KeyType{
	"enter":     tea.KeyEnter,
	"esc":       tea.KeyEsc,
	"ctrl+c":    tea.KeyCtrlC,
	"tab":       tea.KeyTab,
	"shift+tab": tea.KeyShiftTab,
	"up":        tea.KeyUp,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
}

func (d *Driver) View() string {
	return d.Model.View()
}

func (d *Driver) drain(cmd tea.Cmd, depth int) {
	d.T.Helper()
	if cmd == nil {
		return
	}
	if depth >= maxDepth {
		d.T.Fatalf("teatest: command chain deeper than %d", maxDepth)
		return
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return
	case tea.BatchMsg:
		for _, sub := range msg {
			d.drain(sub, depth+1)
		}
		return
	case tea.QuitMsg:
		d.Quitting = true
		return
	}
	d.Seen[fmt.Sprintf("%T", msg)]++
	updated, next := d.Model.Update(msg)
	d.Model = updated
	d.drain(next, depth+1)
}

package tui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

func TestCanvasDrawsBondsUnderAtoms(t *testing.T) {
	tables := content.MustDefault()
	h, err := tables.Species("H")
	if err != nil {
		t.Fatal(err)
	}
	st := entity.NewStore()
	a := st.Add(h, r3.Vec{X: -25}, r3.Vec{}, "test")
	b := st.Add(h, r3.Vec{X: 25}, r3.Vec{}, "test")
	entity.Link(a, b)

	c := NewCanvas(10, 10)
	c.Draw(st.Atoms(), nil, c.Grid(100, 100))

	if got := c.At(2, 5); got != 'H' {
		t.Errorf("left atom glyph = %q", got)
	}
	if got := c.At(7, 5); got != 'H' {
		t.Errorf("right atom glyph = %q", got)
	}
	for x := 3; x <= 6; x++ {
		if got := c.At(x, 5); got != '·' {
			t.Errorf("bond cell %d = %q", x, got)
		}
	}
}

func TestGlyph(t *testing.T) {
	tables := content.MustDefault()
	tests := []struct {
		species    string
		assembling bool
		want       rune
	}{
		{"O", false, 'O'},
		{"electron", false, 'e'},
		{"C", true, '@'},
	}
	for _, tt := range tests {
		sp, err := tables.Species(tt.species)
		if err != nil {
			t.Fatal(err)
		}
		a := &entity.Atom{Species: sp, Assembling: tt.assembling}
		if got := Glyph(a); got != tt.want {
			t.Errorf("Glyph(%s) = %q, want %q", tt.species, got, tt.want)
		}
	}
}

func TestCanvasClipsOutOfRange(t *testing.T) {
	c := NewCanvas(4, 3)
	c.Set(-1, 0, 'x')
	c.Set(4, 0, 'x')
	c.Line(0, 0, 10, 10, '#')
	if c.At(0, 0) != '#' || c.At(2, 2) != '#' {
		t.Errorf("diagonal not drawn:\n%s", c)
	}
	if c.At(5, 5) != 0 {
		t.Error("out of range read should be zero")
	}
}

func TestLiveRendererWritesFrames(t *testing.T) {
	e, err := sim.New(content.MustDefault(), config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Spawn("O", r3.Vec{}, r3.Vec{}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	r := NewLiveRenderer(&buf, "water", e, 0)
	e.AddObserver(r)

	if _, err := e.Step(sim.Intent{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"water  frame 1", "atoms=1", "O"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m model, keys ...string) model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(model)
	}
	return m
}

func frame(t *testing.T, m model) model {
	t.Helper()
	next, _ := m.Update(tickMsg{})
	return next.(model)
}

func TestAppStartsScenario(t *testing.T) {
	m := NewApp(content.MustDefault(), config.DefaultConfig())
	m = press(t, m, "j", "k", "enter")

	if m.state != stateSim || m.exp == nil {
		t.Fatalf("enter should start a scenario, state=%v", m.state)
	}
	if m.selected != m.names[0] {
		t.Errorf("selected %q, want %q", m.selected, m.names[0])
	}

	m = frame(t, m)
	if m.last.Frame != 1 {
		t.Errorf("frame = %d after one tick", m.last.Frame)
	}

	m = press(t, m, " ")
	m = frame(t, m)
	if m.last.Frame != 1 {
		t.Error("paused app should not step")
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("view should show paused")
	}
}

func TestAppEnergyRelease(t *testing.T) {
	m := NewApp(content.MustDefault(), config.DefaultConfig())
	m = press(t, m, "enter", "e", "e", "x")
	if !m.pending.Energy.Release || m.charge != 0 {
		t.Fatalf("release not queued: %+v", m.pending.Energy)
	}
	m = frame(t, m)
	if len(m.last.Productions) != 1 {
		t.Errorf("expected one production, got %d", len(m.last.Productions))
	}
	if m.pending.Energy.Release {
		t.Error("pending intent should be consumed")
	}
}

func TestAppSpeedAndQuit(t *testing.T) {
	m := NewApp(content.MustDefault(), config.DefaultConfig())
	m = press(t, m, "enter")
	for i := 0; i < 20; i++ {
		m = press(t, m, "+")
	}
	if m.speed != maxSpeed {
		t.Errorf("speed = %d, want %d", m.speed, maxSpeed)
	}
	m = press(t, m, "esc")
	if m.state != stateMenu {
		t.Error("esc should return to the menu")
	}
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should produce tea.QuitMsg")
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]float64{0, 1}, 10); got != "▁█" {
		t.Errorf("sparkline = %q", got)
	}
	if sparkline(nil, 5) != "" {
		t.Error("empty data should render nothing")
	}
}

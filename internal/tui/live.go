package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the world on every frame report, throttled to
// frameRate. It writes plain ANSI and never takes over the terminal.
type LiveRenderer struct {
	out       io.Writer
	title     string
	engine    *sim.Engine
	frameRate int
	lastFrame time.Time
	canvas    *Canvas
	grid      sim.Grid
}

func NewLiveRenderer(out io.Writer, title string, e *sim.Engine, frameRate int) *LiveRenderer {
	c := NewCanvas(width, height)
	b := e.Bounds()
	return &LiveRenderer{
		out:       out,
		title:     title,
		engine:    e,
		frameRate: frameRate,
		canvas:    c,
		grid:      c.Grid(b.Max.X-b.Min.X, b.Max.Y-b.Min.Y),
	}
}

func (r *LiveRenderer) OnFrame(rep sim.Report) {
	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
	}
	r.lastFrame = time.Now()

	r.canvas.Clear()
	st := r.engine.Store()
	r.canvas.Draw(st.Atoms(), st.Particles(), r.grid)
	fmt.Fprint(r.out, r.render(rep))
}

func (r *LiveRenderer) render(rep sim.Report) string {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  frame %d  t=%.2fs\n", r.title, rep.Frame, rep.Time))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas.Rows() {
		b.WriteString("  ")
		b.WriteString(row)
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	c := rep.Counts
	b.WriteString(fmt.Sprintf("  atoms=%d particles=%d molecules=%d assembling=%d phase=%s\n",
		c.Atoms, c.Particles, c.Molecules, c.Assembling, rep.Phase))
	for _, l := range rep.Labels {
		b.WriteString("  " + l.Text + "\n")
	}
	return b.String()
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

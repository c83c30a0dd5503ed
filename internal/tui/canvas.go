package tui

import (
	"math"
	"strings"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

// Canvas is a character grid the world is projected onto.
type Canvas struct {
	w, h  int
	cells [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{w: w, h: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) Clear() {
	for y := range c.cells {
		for x := range c.cells[y] {
			c.cells[y][x] = ' '
		}
	}
}

func (c *Canvas) Set(x, y int, r rune) {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		c.cells[y][x] = r
	}
}

func (c *Canvas) At(x, y int) rune {
	if x >= 0 && x < c.w && y >= 0 && y < c.h {
		return c.cells[y][x]
	}
	return 0
}

func (c *Canvas) Line(x1, y1, x2, y2 int, r rune) {
	dx := intAbs(x2 - x1)
	dy := intAbs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x1, y1, r)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

func (c *Canvas) Rows() []string {
	out := make([]string, len(c.cells))
	for i, row := range c.cells {
		out[i] = string(row)
	}
	return out
}

func (c *Canvas) String() string { return strings.Join(c.Rows(), "\n") }

// Grid is the viewport matching this canvas for a world of the given size.
func (c *Canvas) Grid(width, height float64) sim.Grid {
	return sim.Grid{Cols: c.w, Rows: c.h, Width: width, Height: height}
}

// Draw projects bonds, effect particles and atoms, in that order, so atom
// glyphs stay on top.
func (c *Canvas) Draw(atoms []*entity.Atom, particles []*entity.Particle, vp sim.Viewport) {
	cell := func(a *entity.Atom) (int, int) {
		x, y := vp.ToScreen(a.Pos)
		return int(math.Floor(x)), int(math.Floor(y))
	}

	byID := make(map[entity.ID]*entity.Atom, len(atoms))
	for _, a := range atoms {
		if a.Alive() {
			byID[a.ID] = a
		}
	}
	for _, a := range atoms {
		if !a.Alive() {
			continue
		}
		ax, ay := cell(a)
		for _, nb := range a.Neighbors() {
			if nb < a.ID {
				continue
			}
			b, ok := byID[nb]
			if !ok {
				continue
			}
			bx, by := cell(b)
			mark := '·'
			if a.BondOrder(nb) > 1 {
				mark = ':'
			}
			c.Line(ax, ay, bx, by, mark)
		}
	}

	for _, p := range particles {
		if p.Life <= 0 {
			continue
		}
		x, y := vp.ToScreen(p.Pos)
		c.Set(int(math.Floor(x)), int(math.Floor(y)), '*')
	}

	for _, a := range atoms {
		if !a.Alive() {
			continue
		}
		x, y := cell(a)
		c.Set(x, y, Glyph(a))
	}
}

// Glyph is the single rune an atom is drawn with.
func Glyph(a *entity.Atom) rune {
	if a.Assembling {
		return '@'
	}
	for _, r := range a.Species.Symbol() {
		return r
	}
	return '?'
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

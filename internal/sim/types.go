package sim

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/assembly"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/physics"
	"github.com/mistergarrison/simchem3d-sub001/internal/reactions"
)

// Intent is what the input layer wants done this frame. It is passed by
// value; the engine never keeps a reference to it.
type Intent struct {
	// Version increases with every change the input layer makes. An
	// intent older than the last one applied is ignored.
	Version  uint64
	Drag     Drag
	Energy   Energy
	Spawns   []SpawnRequest
	Assemble *AssembleRequest
}

// Drag pulls a group of atoms so that Leader follows Target.
type Drag struct {
	Active bool
	IDs    []entity.ID
	Leader entity.ID
	Target r3.Vec
}

// Energy is the energy tool. Value accumulates on the input side and is
// converted into matter on the frame Release is set.
type Energy struct {
	Value   float64
	Release bool
	At      r3.Vec
}

type SpawnRequest struct {
	Species string
	Pos     r3.Vec
	Vel     r3.Vec
}

// AssembleRequest builds Molecule either from the selected atoms or, with
// no selection, from fresh atoms spawned at At.
type AssembleRequest struct {
	Molecule string
	IDs      []entity.ID
	At       r3.Vec
}

// Label is a short-lived floating caption.
type Label struct {
	Text string
	Pos  r3.Vec
	Life float64
}

// Discovery lists things seen for the first time in this run.
type Discovery struct {
	Frame     int
	Elements  []int
	Particles []string
	Molecules []string
}

func (d Discovery) Empty() bool {
	return len(d.Elements) == 0 && len(d.Particles) == 0 && len(d.Molecules) == 0
}

type Counts struct {
	Atoms      int // nuclei
	Particles  int // leptons, quarks, bosons and hadrons
	Molecules  int // bonded groups of two or more
	Effects    int // live visual particles
	Assembling int
}

// Report is everything that changed during one frame.
type Report struct {
	Frame       int
	Time        float64
	Version     uint64
	Events      []entity.Event
	Effects     []entity.Effect
	Breaks      []physics.Break
	Decays      []reactions.Transmutation
	Hadrons     []entity.ID
	Productions []reactions.Production
	Assembled   []*assembly.Result
	Discovery   *Discovery
	Recovered   int
	Escaped     int
	Annealed    int
	Counts      Counts
	Labels      []Label
	Phase       assembly.Phase
}

// Observer receives every frame report.
type Observer interface {
	OnFrame(r Report)
}

type ObserverFunc func(Report)

func (f ObserverFunc) OnFrame(r Report) { f(r) }

// Viewport maps between screen cells and world coordinates.
type Viewport interface {
	WorldSize() (w, h float64)
	ToWorld(x, y float64) r3.Vec
	ToScreen(p r3.Vec) (x, y float64)
}

// Grid is a Viewport that maps a cols×rows character grid onto the world,
// origin at the center of both.
type Grid struct {
	Cols, Rows    int
	Width, Height float64
}

func (g Grid) WorldSize() (float64, float64) { return g.Width, g.Height }

func (g Grid) ToWorld(x, y float64) r3.Vec {
	return r3.Vec{
		X: (x/float64(g.Cols) - 0.5) * g.Width,
		Y: (0.5 - y/float64(g.Rows)) * g.Height,
	}
}

func (g Grid) ToScreen(p r3.Vec) (float64, float64) {
	return (p.X/g.Width + 0.5) * float64(g.Cols), (0.5 - p.Y/g.Height) * float64(g.Rows)
}

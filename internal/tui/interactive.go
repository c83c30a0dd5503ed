package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/experiment"
	"github.com/mistergarrison/simchem3d-sub001/internal/metrics"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// energyQuantum is what one press of the energy key adds: one electron
// rest mass, so two presses reach the pair threshold.
const energyQuantum = 0.511

const maxSpeed = 8

type state int

const (
	stateMenu state = iota
	stateSim
)

type model struct {
	state    state
	cursor   int
	names    []string
	registry *experiment.Registry
	selected string

	tables *content.Tables
	cfg    *config.Config

	exp     *experiment.Experiment
	pending sim.Intent
	last    sim.Report
	status  string

	running   bool
	paused    bool
	speed     int
	charge    float64
	molecules []string
	molCursor int

	ke        *metrics.Energy
	history   []float64
	lastFrame time.Time
	fps       float64

	width  int
	height int
}

func NewApp(tables *content.Tables, cfg *config.Config) model {
	reg := experiment.NewRegistry()
	var mols []string
	for _, m := range tables.Molecules {
		if m.Structure != nil {
			mols = append(mols, m.ID)
		}
	}
	return model{
		state:     stateMenu,
		names:     reg.List(),
		registry:  reg,
		tables:    tables,
		cfg:       cfg,
		speed:     1,
		molecules: mols,
		ke:        metrics.NewEnergy(),
		history:   make([]float64, 0, 60),
		width:     80,
		height:    24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if m.running && !m.paused && m.exp != nil {
			now := time.Now()
			if !m.lastFrame.IsZero() {
				if dt := now.Sub(m.lastFrame).Seconds(); dt > 0 {
					m.fps = 1.0 / dt
				}
			}
			m.lastFrame = now
			for i := 0; i < m.speed; i++ {
				m.step()
			}
		}
		if m.running {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.names) == 0 {
			return m, nil
		}
		m.selected = m.names[m.cursor]
		if err := m.start(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		return m, tea.Batch(tea.ClearScreen, tick())
	}
	return m, nil
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.running = false
		m.state = stateMenu
		return m, tea.ClearScreen
	case " ":
		m.paused = !m.paused
	case "+", "=":
		if m.speed < maxSpeed {
			m.speed++
		}
	case "-":
		if m.speed > 1 {
			m.speed--
		}
	case "r":
		if err := m.start(); err != nil {
			m.status = err.Error()
		}
		return m, tea.ClearScreen
	case "e":
		m.charge += energyQuantum
	case "x":
		if m.charge > 0 {
			m.pending.Energy = sim.Energy{Value: m.charge, Release: true}
			m.charge = 0
		}
	case "m":
		if len(m.molecules) > 0 {
			m.molCursor = (m.molCursor + 1) % len(m.molecules)
		}
	case "a":
		if len(m.molecules) > 0 {
			m.pending.Assemble = &sim.AssembleRequest{Molecule: m.molecules[m.molCursor]}
		}
	}
	return m, nil
}

func (m *model) start() error {
	sc, err := m.registry.Get(m.selected)
	if err != nil {
		return err
	}
	exp, err := experiment.New(m.tables, m.cfg, sc)
	if err != nil {
		return err
	}
	m.exp = exp
	m.state = stateSim
	m.running = true
	m.paused = false
	m.pending = sim.Intent{}
	m.last = sim.Report{}
	m.status = ""
	m.charge = 0
	m.history = m.history[:0]
	m.lastFrame = time.Time{}
	return nil
}

func (m *model) step() {
	rep, err := m.exp.Step(m.pending)
	m.pending = sim.Intent{}
	m.last = rep
	if err != nil {
		m.status = err.Error()
	}

	m.ke.Observe(m.exp.Engine().Store().Live(), rep.Time)
	m.history = append(m.history, m.ke.Value())
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("s i m c h e m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, name := range m.names {
		sc, _ := m.registry.Get(name)
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-16s", name)) + dim.Render(sc.Description) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-16s", name)) + dimmer.Render(sc.Description) + "\n")
		}
	}

	b.WriteString("\n")
	if m.status != "" {
		b.WriteString("      " + red.Render(m.status) + "\n")
	}
	b.WriteString(dim.Render("      ↑↓ select   enter start   q quit") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	cw := m.width - 6
	ch := m.height - 12
	if cw < 50 {
		cw = 50
	}
	if ch < 12 {
		ch = 12
	}

	canvas := NewCanvas(cw, ch)
	if m.exp != nil {
		e := m.exp.Engine()
		bounds := e.Bounds()
		grid := canvas.Grid(bounds.Max.X-bounds.Min.X, bounds.Max.Y-bounds.Min.Y)
		canvas.Draw(e.Store().Atoms(), e.Store().Particles(), grid)
		for _, l := range m.last.Labels {
			x, y := grid.ToScreen(l.Pos)
			for i, r := range []rune(l.Text) {
				canvas.Set(int(x)+i, int(y)-1, r)
			}
		}
	}

	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	if m.paused {
		statusIcon = yellow.Render("○")
		statusText = yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s  %s\n",
		statusIcon, cyan.Render(m.selected), statusText,
		dim.Render(fmt.Sprintf("frame %d  t=%.2fs  x%d  %.0ffps", m.last.Frame, m.last.Time, m.speed, m.fps))))

	c := m.last.Counts
	b.WriteString(fmt.Sprintf("   %s %d  %s %d  %s %d  %s %s\n\n",
		dim.Render("atoms"), c.Atoms,
		dim.Render("particles"), c.Particles,
		dim.Render("molecules"), c.Molecules,
		dim.Render("assembly"), magenta.Render(m.last.Phase.String())))

	for _, row := range canvas.Rows() {
		b.WriteString("   " + row + "\n")
	}

	b.WriteString("\n")
	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s %s\n", dim.Render("KE"), cyan.Render(sparkline(m.history, 24)),
			white.Render(fmt.Sprintf("%.1f", m.history[len(m.history)-1]))))
	}
	mol := "-"
	if len(m.molecules) > 0 {
		mol = m.molecules[m.molCursor]
	}
	b.WriteString(fmt.Sprintf("   %s %s  %s %s\n",
		dim.Render("energy"), yellow.Render(fmt.Sprintf("%.3f", m.charge)),
		dim.Render("molecule"), white.Render(mol)))
	if m.status != "" {
		b.WriteString("   " + red.Render(m.status) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  e charge  x release  m molecule  a assemble  r reset  esc menu  q quit") + "\n")

	return b.String()
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = min(minVal, v)
		maxVal = max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := max(len(data)/width, 1)
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		sb.WriteRune(chars[max(0, min(idx, 7))])
	}
	return sb.String()
}

func RunInteractive(tables *content.Tables, cfg *config.Config) error {
	p := tea.NewProgram(NewApp(tables, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

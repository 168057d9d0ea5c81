package viz

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/fluidlab/internal/fluid"
	"github.com/san-kum/fluidlab/internal/render"
)

const (
	defaultWidth    = 64
	defaultHeight   = 32
	historyCapacity = 600
	tickRate        = time.Second / 30
	// force per unit of normalized drag distance
	dragForce = 20
)

var zeroSteps = map[string]float64{
	fluid.ParamVelDiss:      0.01,
	fluid.ParamDyeDiss:      0.01,
	fluid.ParamVortStrength: 0.5,
}

type viewMode struct {
	label string
	field string
}

var viewModes = []viewMode{
	{"Dye", "dye"},
	{"Vorticity", "vorticity"},
	{"Divergence", "divergence"},
	{"Velocity", "velocity_mag"},
}

type TickMsg time.Time

type Options struct {
	Seed int64
	// Splats are applied at start and on every reset. Without them the
	// viewer seeds three random splats from Seed.
	Splats   []fluid.Splat
	Emitters []fluid.Splat
	Width    int
	Height   int
	GIFPath  string
	Theme    string
}

// Model drives a simulation from the Bubble Tea event loop.
type Model struct {
	sim           *fluid.Simulation
	opts          Options
	rng           *rand.Rand
	width, height int
	running       bool
	mode          int
	paramKeys     []string
	selected      int
	initialParams fluid.Params
	velHistory    []float64
	err           error
	message       string
	recorder      *render.Recorder
	theme         Theme
	st            styles
	showHelp      bool
	// previous drag position in domain coordinates
	dragging     bool
	lastX, lastY float64
}

func NewModel(sim *fluid.Simulation, opts Options) Model {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "fluid.gif"
	}
	theme := GetTheme(opts.Theme)
	m := Model{
		sim:           sim,
		opts:          opts,
		width:         opts.Width,
		height:        opts.Height,
		running:       true,
		paramKeys:     fluid.ParamNames(),
		initialParams: sim.Params(),
		velHistory:    make([]float64, 0, historyCapacity),
		theme:         theme,
		st:            newStyles(theme),
	}
	m.reseed()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "s":
			if !m.running {
				m.step()
			}
		case "r":
			m.reset()
		case "c":
			m.sim.ClearDye()
		case "1", "2", "3", "4":
			m.setMode(int(msg.String()[0] - '1'))
		case "v":
			m.vortex()
		case "tab":
			m.selected = (m.selected + 1) % len(m.paramKeys)
		case "up", "k":
			m.adjustParam(1.1)
		case "down", "j":
			m.adjustParam(0.9)
		case "g":
			m.toggleRecording()
		case "t":
			m.cycleTheme()
		case "?", "h":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		m.mouse(msg)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

// step applies the emitters and advances one step. An instability pauses
// the viewer and is shown until reset.
func (m *Model) step() {
	if m.err != nil {
		return
	}
	for _, sp := range m.opts.Emitters {
		if err := m.sim.AddSplat(sp); err != nil {
			m.fail(err)
			return
		}
	}
	err := m.sim.Step()

	m.velHistory = append(m.velHistory, m.sim.Stats().MaxVelocity)
	if len(m.velHistory) > historyCapacity {
		m.velHistory = m.velHistory[1:]
	}
	if m.recorder != nil {
		m.recorder.Capture()
	}
	if err != nil {
		m.fail(err)
	}
}

func (m *Model) fail(err error) {
	m.err = err
	m.running = false
}

// reseed applies the configured splats, or three random dye and velocity
// splats drawn from the seed, so a reset reproduces the same start.
func (m *Model) reseed() {
	m.rng = rand.New(rand.NewSource(m.opts.Seed))
	if len(m.opts.Splats) > 0 {
		for _, sp := range m.opts.Splats {
			m.splat(sp)
		}
		return
	}
	for i := 0; i < 3; i++ {
		x, y := m.rng.Float64(), m.rng.Float64()
		angle := m.rng.Float64() * 2 * math.Pi
		m.splat(fluid.Splat{
			X:      x,
			Y:      y,
			Dye:    0.8,
			Fx:     math.Cos(angle) * 0.5,
			Fy:     math.Sin(angle) * 0.5,
			Radius: 0.08,
		})
	}
}

func (m *Model) reset() {
	m.sim.Reset()
	_ = m.sim.SetParams(m.initialParams)
	m.velHistory = m.velHistory[:0]
	m.err = nil
	m.message = ""
	m.reseed()
}

func (m *Model) splat(sp fluid.Splat) {
	if err := m.sim.AddSplat(sp); err != nil {
		m.message = err.Error()
	}
}

func (m *Model) vortex() {
	m.vortexAt(0.2+0.6*m.rng.Float64(), 0.2+0.6*m.rng.Float64())
}

// vortexAt pushes velocity in a random direction around (x, y).
func (m *Model) vortexAt(x, y float64) {
	angle := m.rng.Float64() * 2 * math.Pi
	m.splat(fluid.Splat{
		X:      x,
		Y:      y,
		Fx:     math.Cos(angle) * 0.8,
		Fy:     math.Sin(angle) * 0.8,
		Radius: 0.04,
	})
}

// mouse handles drawing on the field: a left drag injects dye and pushes
// velocity along the drag, a right click adds a vortex.
func (m *Model) mouse(msg tea.MouseMsg) {
	x, y, inside := m.domainAt(msg.X, msg.Y)
	if !inside || msg.Action == tea.MouseActionRelease {
		m.dragging = false
		return
	}

	switch msg.Button {
	case tea.MouseButtonLeft:
		var fx, fy float64
		if m.dragging {
			fx = (x - m.lastX) * dragForce
			fy = (y - m.lastY) * dragForce
		}
		m.splat(fluid.Splat{X: x, Y: y, Dye: 0.5, Fx: fx, Fy: fy, Radius: 0.03})
		m.dragging, m.lastX, m.lastY = true, x, y
	case tea.MouseButtonRight:
		if msg.Action == tea.MouseActionPress {
			m.vortexAt(x, y)
		}
		m.dragging = false
	default:
		m.dragging = false
	}
}

// domainAt maps a terminal cell to normalized field coordinates, using the
// centre of the heatmap character under it.
func (m *Model) domainAt(col, row int) (x, y float64, inside bool) {
	n := m.sim.N()
	w := min(max(m.width, 1), n)
	h := min(max(m.height, 1), (n+1)/2)

	col -= m.st.field.GetPaddingLeft()
	row -= m.st.field.GetPaddingTop()
	if m.showHelp {
		row -= strings.Count(helpText, "\n") + 2
	}
	if col < 0 || col >= w || row < 0 || row >= h {
		return 0, 0, false
	}
	return (float64(col) + 0.5) / float64(w), (float64(row) + 0.5) / float64(h), true
}

func (m *Model) setMode(mode int) {
	if mode < 0 || mode >= len(viewModes) || mode == m.mode {
		return
	}
	m.mode = mode
	if m.recorder != nil {
		m.message = "recording stopped: view changed"
		m.recorder = nil
	}
}

// adjustParam scales the selected parameter. iters moves by at least one
// and a zero parameter is raised by its base step.
func (m *Model) adjustParam(factor float64) {
	key := m.paramKeys[m.selected]
	val := m.sim.GetParams()[key]
	next := val * factor
	if val == 0 && factor > 1 {
		if step, ok := zeroSteps[key]; ok {
			next = step
		}
	}
	if key == fluid.ParamIters {
		next = math.Round(next)
		if next == val {
			next = val + math.Copysign(1, factor-1)
		}
	}
	if err := m.sim.SetParam(key, next); err != nil {
		m.message = err.Error()
		return
	}
	m.message = ""
}

func (m *Model) toggleRecording() {
	if m.recorder == nil {
		rec, err := render.NewRecorder(m.sim, render.RecorderOptions{
			Field:  viewModes[m.mode].field,
			Pixels: 2,
			Delay:  3,
		})
		if err != nil {
			m.message = err.Error()
			return
		}
		m.recorder = rec
		m.message = "recording " + viewModes[m.mode].label
		return
	}
	if err := m.recorder.Save(m.opts.GIFPath); err != nil {
		m.message = err.Error()
	} else {
		m.message = fmt.Sprintf("saved %d frames to %s", m.recorder.Len(), m.opts.GIFPath)
	}
	m.recorder = nil
}

func (m *Model) cycleTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == m.theme.Name {
			m.theme = GetTheme(names[(i+1)%len(names)])
			m.st = newStyles(m.theme)
			return
		}
	}
}

func (m Model) Err() error { return m.err }

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.st.err.Render("UNSTABLE")
	case m.recorder != nil:
		return m.st.warn.Render("RECORDING")
	case m.running:
		return m.st.value.Render("RUNNING")
	default:
		return m.st.warn.Render("PAUSED")
	}
}

// View renders the field next to the stats panel.
func (m Model) View() string {
	mode := viewModes[m.mode]
	field := m.sim.Fields().Named()[mode.field]
	style := render.StyleFor(mode.field)
	cm, _ := render.GetColormap(style.Colormap)
	fieldView := m.st.field.Render(Heatmap(field, cm, style.Scale, m.width, m.height))

	stats := m.sim.Stats()
	var s strings.Builder
	s.WriteString(m.st.header.Render(fmt.Sprintf("FLUID %d×%d · %s", m.sim.N(), m.sim.N(), strings.ToUpper(mode.label))) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(m.row("Step", fmt.Sprintf("%d", stats.Step)))
	s.WriteString(m.row("‖∇·u‖₂", fmt.Sprintf("%.3e", stats.DivergenceL2)))
	s.WriteString(m.row("max |u|", fmt.Sprintf("%.3f", stats.MaxVelocity)))
	s.WriteString(m.row("CFL", fmt.Sprintf("%.3f %s", stats.CFLEstimate, Bar(stats.CFLEstimate, 10))))
	s.WriteString(m.row("max dye", fmt.Sprintf("%.3f", stats.MaxDye)))
	s.WriteString(m.row("max |u| hist", Sparkline(m.velHistory, 24)))

	if hist := m.sim.DivergenceHistory(); len(hist) > 1 {
		chart := asciigraph.Plot(hist, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("divergence L2"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	s.WriteString("\nPARAMETERS\n")
	params := m.sim.GetParams()
	for i, k := range m.paramKeys {
		line := fmt.Sprintf("%-14s %.4g", k, params[k])
		if i == m.selected {
			s.WriteString(m.st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + m.st.label.Render(line) + "\n")
		}
	}

	if m.err != nil {
		var ie *fluid.InstabilityError
		if errors.As(m.err, &ie) {
			s.WriteString("\n" + m.st.err.Render(fmt.Sprintf("unstable at step %d", ie.Step)) + "\n")
		}
		s.WriteString(m.st.err.Render(m.err.Error()) + "\n" + m.st.help.Render("press r to reset") + "\n")
	}
	if m.message != "" {
		s.WriteString("\n" + m.st.warn.Render(m.message) + "\n")
	}

	s.WriteString(m.st.help.Render("SP:Pause S:Step R:Reset C:Clear\n1-4:View V:Vortex G:Record\nTab ↑↓:Tune T:Theme ?:Help Q:Quit\nMouse: drag paints, right-click vortex"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, fieldView, m.st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  S        - Single step (paused)     ║
║  R        - Reset and reseed         ║
║  C        - Clear dye                ║
║  1-4      - Dye/Vort/Div/Velocity    ║
║  V        - Random vortex splat      ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter (10%) ║
║  Down/J   - Decrease parameter (10%) ║
║  G        - Toggle GIF recording     ║
║  L-drag   - Paint dye and push fluid ║
║  R-click  - Vortex at cursor         ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the viewer in the alternate screen and returns the
// simulation error, if any, once the user quits.
func Run(sim *fluid.Simulation, opts Options) error {
	final, err := tea.NewProgram(NewModel(sim, opts), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok {
		return m.Err()
	}
	return nil
}

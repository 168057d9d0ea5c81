package viz

import (
	"errors"
	"math"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/fluidlab/internal/fluid"
	"github.com/san-kum/fluidlab/internal/render"
	"gonum.org/v1/gonum/mat"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	s, err := fluid.New(24, fluid.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(s, Options{Seed: 42, Width: 24, Height: 12, GIFPath: filepath.Join(t.TempDir(), "out.gif")})
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func tickOnce(m Model) Model {
	next, _ := m.Update(TickMsg{})
	return next.(Model)
}

func TestNewModelSeedsDye(t *testing.T) {
	m := newTestModel(t)
	if m.sim.Stats().MaxDye <= 0 {
		t.Error("expected seeded dye")
	}
	if !m.running {
		t.Error("viewer should start running")
	}
}

func TestPauseAndSingleStep(t *testing.T) {
	m := newTestModel(t)

	m = tickOnce(m)
	if m.sim.StepCount() != 1 {
		t.Fatalf("expected 1 step after tick, got %d", m.sim.StepCount())
	}

	m = press(m, " ")
	m = tickOnce(m)
	if m.sim.StepCount() != 1 {
		t.Error("paused viewer should not step on tick")
	}

	m = press(m, "s")
	if m.sim.StepCount() != 2 {
		t.Errorf("single step: expected 2 steps, got %d", m.sim.StepCount())
	}
}

func TestResetReseedsDeterministically(t *testing.T) {
	m := newTestModel(t)
	initial := mat.DenseCopyOf(m.sim.Dye())

	m = tickOnce(m)
	m = tickOnce(m)
	m = press(m, "r")

	if m.sim.StepCount() != 0 {
		t.Errorf("expected step 0 after reset, got %d", m.sim.StepCount())
	}
	if !mat.Equal(m.sim.Dye(), initial) {
		t.Error("reset should reproduce the seeded start")
	}
}

func TestClearDye(t *testing.T) {
	m := press(newTestModel(t), "c")
	if m.sim.Stats().MaxDye != 0 {
		t.Error("expected dye cleared")
	}
}

func TestViewModes(t *testing.T) {
	m := newTestModel(t)
	for key, want := range map[string]int{"2": 1, "3": 2, "4": 3, "1": 0} {
		m = press(m, key)
		if m.mode != want {
			t.Errorf("key %s: expected mode %d, got %d", key, want, m.mode)
		}
	}
}

func TestTuneParams(t *testing.T) {
	m := newTestModel(t)
	key := m.paramKeys[m.selected]
	before := m.sim.GetParams()[key]

	m = press(m, "up")
	if got := m.sim.GetParams()[key]; got <= before {
		t.Errorf("%s: expected increase from %g, got %g", key, before, got)
	}

	for m.paramKeys[m.selected] != fluid.ParamIters {
		m = press(m, "tab")
	}
	iters := m.sim.Params().Iters
	m = press(m, "down")
	if m.sim.Params().Iters >= iters {
		t.Errorf("expected iters below %d, got %d", iters, m.sim.Params().Iters)
	}
}

func TestVortexAddsVelocity(t *testing.T) {
	m := press(newTestModel(t), "c")
	m.sim.Reset()
	m = press(m, "v")
	if m.sim.Stats().MaxVelocity == 0 {
		t.Error("expected vortex splat to add velocity")
	}
}

func TestInstabilityStopsLoop(t *testing.T) {
	m := newTestModel(t)
	m.fail(&fluid.InstabilityError{Step: 3, Pre: 1, Post: 2})

	m = tickOnce(m)
	if m.sim.StepCount() != 0 || m.running {
		t.Error("viewer should stop after instability")
	}
	if !errors.Is(m.Err(), fluid.ErrUnstable) {
		t.Errorf("expected ErrUnstable, got %v", m.Err())
	}
	if !strings.Contains(m.View(), "unstable at step 3") {
		t.Error("view should report the instability")
	}

	m = press(m, "r")
	if m.Err() != nil {
		t.Error("reset should clear the error")
	}
}

func TestRecording(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "g")
	if m.recorder == nil {
		t.Fatal("expected recorder")
	}
	m = tickOnce(m)
	m = tickOnce(m)
	if m.recorder.Len() != 2 {
		t.Errorf("expected 2 frames, got %d", m.recorder.Len())
	}
	m = press(m, "g")
	if m.recorder != nil || !strings.Contains(m.message, "saved 2 frames") {
		t.Errorf("unexpected state after stop: %q", m.message)
	}
}

func TestQuit(t *testing.T) {
	_, cmd := newTestModel(t).Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestHeatmapDimensions(t *testing.T) {
	cm, _ := render.GetColormap("dye")
	f := fluid.NewGrid(16)
	f.Set(3, 3, 1)

	out := Heatmap(f, cm, render.Linear, 10, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if n := strings.Count(line, halfBlock); n != 10 {
			t.Errorf("line %d: expected 10 cells, got %d", i, n)
		}
	}

	small := Heatmap(fluid.NewGrid(4), cm, render.Linear, 40, 40)
	if n := len(strings.Split(small, "\n")); n != 2 {
		t.Errorf("expected heatmap clamped to 2 lines, got %d", n)
	}
}

func TestSparklineAndBar(t *testing.T) {
	if got := Sparkline([]float64{0, 1}, 4); got != "▁█" {
		t.Errorf("unexpected sparkline %q", got)
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
	if got := Sparkline([]float64{5, 0, 1}, 2); got != "▁█" {
		t.Errorf("expected last values only, got %q", got)
	}
	if got := Bar(0.5, 4); got != "[==--]" {
		t.Errorf("unexpected bar %q", got)
	}
	if got := Bar(3, 2); got != "[==]" {
		t.Errorf("unexpected clamped bar %q", got)
	}
}

func TestConfiguredSplats(t *testing.T) {
	s, err := fluid.New(16, fluid.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(s, Options{Splats: []fluid.Splat{{X: 0.5, Y: 0.5, Dye: 2, Radius: 0.1}}})
	if got := m.sim.Stats().MaxVelocity; got != 0 {
		t.Errorf("configured dye splat should add no velocity, got %g", got)
	}
	if m.sim.Stats().MaxDye <= 1 {
		t.Error("expected configured dye")
	}
}

func mouse(m Model, x, y int, button tea.MouseButton, action tea.MouseAction) Model {
	next, _ := m.Update(tea.MouseMsg{X: x, Y: y, Button: button, Action: action})
	return next.(Model)
}

// cellOf returns the grid cell nearest the centre of heatmap character
// (col, row) for a 24×24 grid drawn at 24×12.
func cellOf(col, row int) (i, j int) {
	x := (float64(col) + 0.5) / 24
	y := (float64(row) + 0.5) / 12
	return int(math.Round(y * 23)), int(math.Round(x * 23))
}

func TestMouseDragPaintsAndPushes(t *testing.T) {
	m := press(newTestModel(t), " ")
	m.sim.Reset()

	// heatmap character (10, 5) sits behind the field padding
	px, py := 10+m.st.field.GetPaddingLeft(), 5+m.st.field.GetPaddingTop()
	m = mouse(m, px, py, tea.MouseButtonLeft, tea.MouseActionPress)

	i, j := cellOf(10, 5)
	if m.sim.Dye().At(i, j) < 0.25 {
		t.Errorf("expected dye at (%d,%d), got %g", i, j, m.sim.Dye().At(i, j))
	}
	if m.sim.Stats().MaxVelocity != 0 {
		t.Error("a press without drag should add no velocity")
	}

	m = mouse(m, px+2, py, tea.MouseButtonLeft, tea.MouseActionMotion)
	i, j = cellOf(12, 5)
	if got := m.sim.U().At(i, j); got <= 0 {
		t.Errorf("rightward drag should push u at (%d,%d), got %g", i, j, got)
	}
	if got := m.sim.V().At(i, j); math.Abs(got) > 1e-12 {
		t.Errorf("horizontal drag should leave v alone, got %g", got)
	}

	m = mouse(m, px+2, py, tea.MouseButtonLeft, tea.MouseActionRelease)
	if m.dragging {
		t.Error("release should end the drag")
	}
	if m.sim.StepCount() != 0 {
		t.Error("mouse input must not step the simulation")
	}
}

func TestMouseRightClickVortex(t *testing.T) {
	m := press(newTestModel(t), " ")
	m.sim.Reset()

	px, py := 6+m.st.field.GetPaddingLeft(), 3+m.st.field.GetPaddingTop()
	m = mouse(m, px, py, tea.MouseButtonRight, tea.MouseActionPress)

	i, j := cellOf(6, 3)
	speed := math.Hypot(m.sim.U().At(i, j), m.sim.V().At(i, j))
	if speed < 0.5 {
		t.Errorf("expected vortex at (%d,%d), speed %g", i, j, speed)
	}
	if m.sim.Stats().MaxDye != 0 {
		t.Error("vortex should add no dye")
	}
}

func TestMouseOutsideField(t *testing.T) {
	m := press(newTestModel(t), " ")
	m.sim.Reset()

	for _, pos := range [][2]int{{0, 0}, {200, 5}, {5, 200}} {
		m = mouse(m, pos[0], pos[1], tea.MouseButtonLeft, tea.MouseActionPress)
	}
	if m.sim.Stats().MaxDye != 0 {
		t.Error("clicks outside the heatmap should be ignored")
	}
}

func TestTuneParamFromZero(t *testing.T) {
	s, err := fluid.New(16, fluid.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetVortStrength(0); err != nil {
		t.Fatal(err)
	}
	m := NewModel(s, Options{Seed: 1})
	for m.paramKeys[m.selected] != fluid.ParamVortStrength {
		m = press(m, "tab")
	}

	m = press(m, "up")
	if got := m.sim.Params().VortStrength; got <= 0 {
		t.Errorf("expected confinement switched on, got %g", got)
	}
}

func TestSplatErrorsAreShown(t *testing.T) {
	s, err := fluid.New(16, fluid.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(s, Options{Splats: []fluid.Splat{{X: 0.5, Y: 0.5, Dye: 1, Radius: -1}}})
	if !strings.Contains(m.message, "radius") {
		t.Errorf("expected splat error in message, got %q", m.message)
	}
}

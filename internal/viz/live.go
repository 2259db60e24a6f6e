package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/legkin/internal/control"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/experiment"
	"github.com/san-kum/legkin/internal/robot"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	historyCapacity = 600
	frameRate       = 30
	// PushTorque is the disturbance applied by the left/right keys, in N·m.
	PushTorque = 50.0
	gainStep   = 1.05
)

type TickMsg time.Time

// Snapshot is one recorded frame, kept for replay.
type Snapshot struct {
	State  dynamo.State
	Torque dynamo.Control
	Time   float64
	Error  float64
}

// Model is the live view: it steps an experiment's plant a frame at a time
// and draws the legs, the joint table and the tracking error.
type Model struct {
	name  string
	base  *experiment.Experiment
	exp   *experiment.Experiment
	pd    *control.JointController
	push  *control.Disturbance
	plant dynamo.System
	integ dynamo.Integrator

	state         dynamo.State
	u             dynamo.Control
	steps         int
	dt            float64
	stepsPerFrame int
	diverged      bool

	canvas     *Canvas
	camera     *Camera
	targetFeet []Segment
	theme      Theme
	styles     Styles

	running  bool
	showHelp bool
	frame    int
	selected robot.JointID
	err      error

	errorHistory []float64
	history      []Snapshot
	playHead     int
}

// NewModel builds a live view of exp. name labels the header.
func NewModel(exp *experiment.Experiment, name string) Model {
	cfg := exp.Config()
	factor := cfg.Sim.RealTime
	if factor <= 0 {
		factor = 1
	}
	perFrame := int(math.Round(factor / (frameRate * cfg.Sim.Dt)))
	theme := Themes[0]

	m := Model{
		name:          name,
		base:          exp,
		dt:            cfg.Sim.Dt,
		stepsPerFrame: max(1, perFrame),
		canvas:        NewCanvas(canvasWidth, canvasHeight),
		camera:        NewCamera(),
		targetFeet:    NewSkeleton(exp.Controller().TargetAngles()).FootMarkers(),
		theme:         theme,
		styles:        NewStyles(theme),
		running:       true,
		selected:      robot.LKnee,
		playHead:      -1,
	}
	m.bind(exp)
	m.reset()
	return m
}

// bind switches the view to exp, keeping the live state.
func (m *Model) bind(exp *experiment.Experiment) {
	m.exp = exp
	m.pd = exp.Controller()
	m.push = exp.Disturbance()
	m.plant = exp.Plant()
	m.integ = exp.Integrator()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Time is the simulated time of the live state.
func (m Model) Time() float64 { return float64(m.steps) * m.dt }

// State returns the live plant state.
func (m Model) State() dynamo.State { return m.state }

// Selected is the joint the keys act on.
func (m Model) Selected() robot.JointID { return m.selected }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		m.frame++
		if m.running {
			if m.playHead == -1 {
				m.advance()
			} else {
				m.scrub(1)
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		m.reset()
	case "tab":
		m.selected = robot.JointID((int(m.selected) + 1) % robot.NumJoints)
	case "shift+tab":
		m.selected = robot.JointID((int(m.selected) + robot.NumJoints - 1) % robot.NumJoints)
	case "up", "k":
		m.scaleGain(gainStep)
	case "down", "j":
		m.scaleGain(1 / gainStep)
	case "right", "l":
		m.push.SetTorque(m.selected, PushTorque)
	case "left", "h":
		m.push.SetTorque(m.selected, -PushTorque)
	case "c":
		m.push.Clear()
	case "[":
		m.scrub(-1)
	case "]":
		m.scrub(1)
	case "a":
		m.camera.RotateYaw(-0.1)
	case "d":
		m.camera.RotateYaw(0.1)
	case "w":
		m.camera.RotatePitch(0.1)
	case "s":
		m.camera.RotatePitch(-0.1)
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = NewStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// scaleGain multiplies the selected joint's kp by f; leg changes apply to
// both legs. The view moves to a new experiment built with the new gains
// and carries the held pushes over.
func (m *Model) scaleGain(f float64) {
	gains := m.exp.Config().Gains
	g := gains.Joint(m.selected)
	g.Kp *= f
	next, err := m.exp.WithGains(gains.WithJoint(m.selected, g))
	if err != nil {
		m.err = err
		return
	}
	for id, v := range m.push.U {
		next.Disturbance().SetTorque(robot.JointID(id), v)
	}
	m.err = nil
	m.bind(next)
}

// advance runs one frame of simulation steps. A diverged state pauses the
// view on the last valid state.
func (m *Model) advance() {
	if m.diverged {
		return
	}
	for i := 0; i < m.stepsPerFrame; i++ {
		t := m.Time()
		u := m.push.Compute(m.state, t)
		next := m.integ.Step(m.plant, m.state, u, t, m.dt)
		if !next.IsValid() {
			m.diverged, m.running = true, false
			return
		}
		m.state, m.u = next, u
		m.steps++
	}
	m.record()
}

func (m *Model) record() {
	e := m.trackingError(m.state)
	m.errorHistory = append(m.errorHistory, e)
	m.history = append(m.history, Snapshot{State: m.state.Clone(), Torque: append(dynamo.Control(nil), m.u...), Time: m.Time(), Error: e})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
		m.errorHistory = m.errorHistory[1:]
	}
}

// trackingError is the RMS joint angle error of x in degrees.
func (m *Model) trackingError(x dynamo.State) float64 {
	want := m.pd.TargetAngles()
	var sum float64
	for _, id := range robot.AllJoints() {
		e := want[id] - x[robot.AngleIndex(id)]
		sum += e * e
	}
	return math.Sqrt(sum/float64(robot.NumJoints)) * 180 / math.Pi
}

func (m *Model) scrub(dir int) {
	if len(m.history) == 0 {
		return
	}
	if m.playHead == -1 {
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial state, the initial gains and clears every push.
func (m *Model) reset() {
	m.state = m.exp.InitialState()
	m.u = make(dynamo.Control, robot.NumJoints)
	m.steps = 0
	m.diverged = false
	m.err = nil
	m.bind(m.base)
	m.exp.ResetController()
	m.errorHistory = m.errorHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.record()
}

// shown returns the snapshot on screen: the replay frame or the live one.
func (m Model) shown() Snapshot {
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead]
	}
	return Snapshot{State: m.state, Torque: m.u, Time: m.Time(), Error: m.trackingError(m.state)}
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return m.styles.Bad.Render("RETUNE FAILED: " + m.err.Error())
	case m.diverged:
		return m.styles.Bad.Render("DIVERGED")
	case m.playHead != -1:
		return m.styles.Warn.Render(fmt.Sprintf("REPLAY %.2fs", m.history[m.playHead].Time))
	case !m.running:
		return m.styles.Warn.Render("PAUSED")
	}
	return m.styles.Good.Render(AnimatedSpinner(m.frame) + " RUNNING")
}

func (m Model) draw(x dynamo.State) string {
	var q [robot.NumJoints]float64
	for _, id := range robot.AllJoints() {
		q[id] = x[robot.AngleIndex(id)]
	}
	m.canvas.Clear()
	segs := append(NewSkeleton(q).Segments(), m.targetFeet...)
	Render(m.canvas, m.camera, segs)
	return m.canvas.String()
}

func (m Model) View() string {
	snap := m.shown()
	st := m.styles

	var b strings.Builder
	b.WriteString(st.Header.Render(strings.ToUpper(m.name)) + "  " + m.status() + "\n\n")
	b.WriteString(st.Label.Render("Time") + st.Value.Render(fmt.Sprintf("%.3fs", snap.Time)) + "\n")
	b.WriteString(st.Label.Render("RMS error") + st.Value.Render(fmt.Sprintf("%.3f°", snap.Error)) + "\n")
	b.WriteString(st.Label.Render("Error") + st.Muted.Render(Sparkline(m.errorHistory, 30)) + "\n\n")

	limit := 100.0
	for _, v := range snap.Torque {
		limit = math.Max(limit, math.Abs(v))
	}
	targets := m.pd.TargetAngles()
	b.WriteString(st.Muted.Render(fmt.Sprintf("  %-4s %8s %8s  %s", "", "target", "actual", "torque")) + "\n")
	for _, id := range robot.AllJoints() {
		line := fmt.Sprintf("%-4s %8.2f %8.2f  %s", id.Short(),
			targets[id]*180/math.Pi, snap.State[robot.AngleIndex(id)]*180/math.Pi,
			SignedBar(snap.Torque[id], limit, 16))
		if id == m.selected {
			b.WriteString(st.Selected.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + st.Value.Render(line) + "\n")
		}
	}

	g := m.pd.Gains()[m.selected]
	b.WriteString("\n" + st.Label.Render(m.selected.Short()+" gains") +
		st.Value.Render(fmt.Sprintf("kp %.0f  kd %.1f  push %+.0f", g.Kp, g.Kd, m.push.U[m.selected])) + "\n")
	b.WriteString(st.Muted.Render("\nSP pause  R reset  Q quit  ? help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, st.Canvas.Render(m.draw(snap.State)), st.Panel.Render(b.String()))
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `
  Space      pause / resume
  R          reset state, gains and pushes
  Tab        select next joint (Shift+Tab previous)
  Up/Down    selected joint kp ±5%, mirrored to the other leg
  Left/Right push the selected joint with -/+50 N·m until C
  C          clear every push
  [ ]        step back / forward through the last frames
  W A S D    orbit the camera, + - zoom
  T          next theme
  Q          quit
`

// RunLive shows exp until the user quits.
func RunLive(exp *experiment.Experiment, name string) error {
	_, err := tea.NewProgram(NewModel(exp, name), tea.WithAltScreen()).Run()
	return err
}

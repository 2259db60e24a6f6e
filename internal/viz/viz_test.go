package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/golang/geo/r3"
	. "github.com/onsi/gomega"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/experiment"
	"github.com/san-kum/legkin/internal/kinematics"
	"github.com/san-kum/legkin/internal/robot"
)

func TestCanvas(t *testing.T) {
	g := NewWithT(t)
	c := NewCanvas(4, 2)

	w, h := c.Dots()
	g.Expect(w).To(Equal(8))
	g.Expect(h).To(Equal(8))

	c.Set(1, 3)
	g.Expect(c.IsSet(1, 3)).To(BeTrue())
	g.Expect(strings.Split(c.String(), "\n")[0]).To(HavePrefix(string(rune(blank | 0x80))))
	c.Unset(1, 3)
	g.Expect(c.IsSet(1, 3)).To(BeFalse())

	c.Set(-1, 0)
	c.Set(100, 100)

	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		g.Expect(c.IsSet(i, i)).To(BeTrue())
	}
	c.Clear()
	g.Expect(c.String()).NotTo(ContainSubstring(string(rune(blank | 0x01))))
}

func TestCameraProjectsCenter(t *testing.T) {
	g := NewWithT(t)
	cam := NewCamera()

	x, y, _, ok := cam.Project(cam.Center, 80, 80)
	g.Expect(ok).To(BeTrue())
	g.Expect(x).To(Equal(40))
	g.Expect(y).To(Equal(40))

	cam.Yaw, cam.Pitch = 0, 0
	_, yHigh, _, _ := cam.Project(r3.Vector{Z: 0.2}, 80, 80)
	g.Expect(yHigh).To(BeNumerically("<", 40))
	xLeft, _, _, _ := cam.Project(cam.Center.Add(r3.Vector{Y: 0.2}), 80, 80)
	g.Expect(xLeft).To(BeNumerically(">", 40))

	_, _, _, ok = cam.Project(r3.Vector{X: 10}, 80, 80)
	g.Expect(ok).To(BeFalse())
}

func TestSkeletonMatchesForwardKinematics(t *testing.T) {
	g := NewWithT(t)

	var q [robot.NumJoints]float64
	q[robot.LKnee] = 0.7
	q[robot.RHipPitch] = -0.3
	s := NewSkeleton(q)

	for _, leg := range []robot.Leg{robot.Left, robot.Right} {
		var jv kinematics.JointVector
		for i, id := range leg.Joints() {
			jv[i] = q[id]
		}
		want := leg.Chain().Position(jv)
		pts := s.Legs[leg]
		g.Expect(pts).To(HaveLen(kinematics.NumJoints + 2))
		g.Expect(pts[len(pts)-1].Sub(want).Norm()).To(BeNumerically("<", 1e-12))
	}
	g.Expect(s.Legs[robot.Left][1].Y).To(BeNumerically("~", 0.105, 1e-12))
	g.Expect(s.Legs[robot.Right][1].Y).To(BeNumerically("~", -0.105, 1e-12))
	g.Expect(s.FootMarkers()).To(HaveLen(2))

	c := NewCanvas(canvasWidth, canvasHeight)
	Render(c, NewCamera(), s.Segments())
	g.Expect(c.String()).NotTo(Equal(NewCanvas(canvasWidth, canvasHeight).String()))
}

func TestBars(t *testing.T) {
	g := NewWithT(t)

	g.Expect(SignedBar(50, 100, 8)).To(Equal("····|██··"))
	g.Expect(SignedBar(-200, 100, 4)).To(Equal("██|··"))
	g.Expect(ProgressBar(0.5, 4)).To(Equal("██░░"))
	g.Expect([]rune(Sparkline([]float64{0, 1, 2, 3}, 2))).To(Equal([]rune{'▁', '█'}))
	g.Expect(Sparkline(nil, 3)).To(Equal("───"))
}

func TestPlot(t *testing.T) {
	g := NewWithT(t)

	g.Expect(Plot(nil, PlotOptions{})).To(BeEmpty())
	out := Plot([]float64{0, 1, 4, 9}, PlotOptions{Height: 5, Caption: "residual"})
	g.Expect(out).To(ContainSubstring("residual"))
	g.Expect(PlotMany([][]float64{{1, 2}, nil, {2, 1}}, PlotOptions{Height: 3})).NotTo(BeEmpty())

	g.Expect(Downsample([]float64{0, 1, 2, 3, 4}, 3)).To(Equal([]float64{0, 2, 4}))
	g.Expect(Downsample([]float64{0, 1}, 3)).To(Equal([]float64{0, 1}))
}

func TestThemes(t *testing.T) {
	g := NewWithT(t)
	g.Expect(GetTheme("retro").Name).To(Equal("retro"))
	g.Expect(GetTheme("nope").Name).To(Equal(Themes[0].Name))
	g.Expect(NextTheme(Themes[len(Themes)-1]).Name).To(Equal(Themes[0].Name))
	g.Expect(ThemeNames()).To(HaveLen(len(Themes)))
}

func newLiveModel(t *testing.T) Model {
	cfg := config.GetPreset("stand")
	exp, err := experiment.New(cfg, experiment.NewRegistry(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(exp, "stand")
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestLiveModelSteps(t *testing.T) {
	g := NewWithT(t)
	m := newLiveModel(t)

	knee := m.State()[robot.AngleIndex(robot.LKnee)]
	for i := 0; i < 30; i++ {
		m = update(m, TickMsg(time.Now()))
	}
	g.Expect(m.Time()).To(BeNumerically("~", 30*float64(m.stepsPerFrame)*m.dt, 1e-9))
	g.Expect(math.Abs(m.State()[robot.AngleIndex(robot.LKnee)])).To(BeNumerically("<", math.Abs(knee)))
	g.Expect(m.View()).To(ContainSubstring("LKN"))

	m = update(m, key(" "))
	before := m.Time()
	m = update(m, TickMsg(time.Now()))
	g.Expect(m.Time()).To(Equal(before))
}

func TestLiveModelKeys(t *testing.T) {
	g := NewWithT(t)
	m := newLiveModel(t)

	g.Expect(m.Selected()).To(Equal(robot.LKnee))
	m = update(m, key("tab"))
	g.Expect(m.Selected()).To(Equal(robot.LAnklePitch))

	first := m.pd
	kp := first.Gains()[robot.LAnklePitch].Kp
	m = update(m, key("up"))
	g.Expect(m.pd).NotTo(BeIdenticalTo(first))
	g.Expect(m.pd.Gains()[robot.LAnklePitch].Kp).To(BeNumerically("~", kp*gainStep, 1e-9))
	g.Expect(m.pd.Gains()[robot.RAnklePitch].Kp).To(BeNumerically("~", kp*gainStep, 1e-9))
	g.Expect(first.Gains()[robot.LAnklePitch].Kp).To(Equal(kp))

	m = update(m, key("right"))
	g.Expect(m.push.U[robot.LAnklePitch]).To(Equal(PushTorque))
	m = update(m, key("up"))
	g.Expect(m.push.U[robot.LAnklePitch]).To(Equal(PushTorque))
	g.Expect(m.pd.Gains()[robot.LAnklePitch].Kp).To(BeNumerically("~", kp*gainStep*gainStep, 1e-9))

	m = update(m, TickMsg(time.Now()))
	m = update(m, key("r"))
	g.Expect(m.Time()).To(BeZero())
	g.Expect(m.push.U[robot.LAnklePitch]).To(BeZero())
	g.Expect(m.pd).To(BeIdenticalTo(first))
	g.Expect(m.pd.Gains()[robot.LAnklePitch].Kp).To(Equal(kp))

	m = update(m, key("?"))
	g.Expect(m.View()).To(ContainSubstring("Space"))
}

func TestLiveModelReplay(t *testing.T) {
	g := NewWithT(t)
	m := newLiveModel(t)
	for i := 0; i < 5; i++ {
		m = update(m, TickMsg(time.Now()))
	}
	live := m.Time()

	m = update(m, key("["))
	g.Expect(m.running).To(BeFalse())
	g.Expect(m.shown().Time).To(BeNumerically("<", live))
	g.Expect(m.View()).To(ContainSubstring("REPLAY"))
}

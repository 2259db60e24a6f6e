package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/robot"
)

func sampleResult() *dynamo.Result {
	x0 := make(dynamo.State, robot.StateDim)
	x1 := make(dynamo.State, robot.StateDim)
	x1[robot.AngleIndex(robot.LKnee)] = 0.125
	x1[robot.VelocityIndex(robot.LKnee)] = -2.5
	u := make(dynamo.Control, robot.NumJoints)
	u[robot.LKnee] = 42

	return &dynamo.Result{
		States:     []dynamo.State{x0, x1},
		Controls:   []dynamo.Control{u},
		Times:      []float64{0, 0.001},
		StepsTaken: 1,
		Metrics:    map[string]float64{"tracking_error": 0.01},
	}
}

func TestHeader(t *testing.T) {
	g := NewWithT(t)
	h := Header()

	g.Expect(h).To(HaveLen(1 + robot.StateDim + robot.NumJoints))
	g.Expect(h[0]).To(Equal("time"))
	g.Expect(h[1+robot.AngleIndex(robot.LKnee)]).To(Equal("LKN_q"))
	g.Expect(h[1+robot.VelocityIndex(robot.RAnkleRoll)]).To(Equal("RAR_dq"))
	g.Expect(h[len(h)-1]).To(Equal("RAR_tau"))
}

func TestStoreSaveLoad(t *testing.T) {
	g := NewWithT(t)
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	st := New(t.TempDir()).WithClock(mock)
	g.Expect(st.Init()).To(Succeed())

	runID, err := st.Save(RunMetadata{Preset: "stand", Dt: 0.001, Duration: 0.001, Integrator: "rk4", Controller: "pd"}, sampleResult())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runID).To(Equal("stand_20240301T120000.000"))

	meta, err := st.Load(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(meta.Preset).To(Equal("stand"))
	g.Expect(meta.Integrator).To(Equal("rk4"))
	g.Expect(meta.Metrics).To(HaveKeyWithValue("tracking_error", 0.01))
	g.Expect(meta.Timestamp.Equal(mock.Now())).To(BeTrue())

	result, err := st.LoadStates(runID)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(result.Times).To(Equal([]float64{0, 0.001}))
	g.Expect(result.States).To(HaveLen(2))
	g.Expect(result.States[1][robot.AngleIndex(robot.LKnee)]).To(Equal(0.125))
	g.Expect(result.States[1][robot.VelocityIndex(robot.LKnee)]).To(Equal(-2.5))
	g.Expect(result.Controls[0][robot.LKnee]).To(Equal(42.0))
	g.Expect(result.Controls[1]).To(HaveEach(0.0))
}

func TestStoreList(t *testing.T) {
	g := NewWithT(t)
	mock := clock.NewMock()
	dir := t.TempDir()
	st := New(dir).WithClock(mock)

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(BeEmpty())

	g.Expect(st.Init()).To(Succeed())
	first, err := st.Save(RunMetadata{Preset: "crouch"}, sampleResult())
	g.Expect(err).NotTo(HaveOccurred())
	mock.Add(time.Second)
	second, err := st.Save(RunMetadata{}, sampleResult())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(os.Mkdir(filepath.Join(dir, "junk"), 0755)).To(Succeed())

	runs, err = st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(2))
	g.Expect(runs[0].ID).To(Equal(first))
	g.Expect(runs[1].ID).To(Equal(second))
	g.Expect(second).To(HavePrefix("run_"))
}

func TestStoreMissingRun(t *testing.T) {
	g := NewWithT(t)
	st := New(t.TempDir())

	_, err := st.Load("nope")
	g.Expect(errors.Is(err, ErrRunNotFound)).To(BeTrue())
	_, err = st.LoadStates("nope")
	g.Expect(errors.Is(err, ErrRunNotFound)).To(BeTrue())
}

func TestColumn(t *testing.T) {
	g := NewWithT(t)
	r := sampleResult()
	g.Expect(Column(r.States, robot.AngleIndex(robot.LKnee))).To(Equal([]float64{0, 0.125}))
	g.Expect(Column(r.States, 999)).To(Equal([]float64{0, 0}))
}

func TestExportJSON(t *testing.T) {
	g := NewWithT(t)
	var buf bytes.Buffer

	g.Expect(ExportJSON(&buf, RunMetadata{ID: "x", Preset: "stand"}, sampleResult())).To(Succeed())

	var decoded ExportData
	g.Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())
	g.Expect(decoded.ID).To(Equal("x"))
	g.Expect(decoded.Steps).To(Equal(1))
	g.Expect(decoded.Columns).To(Equal(Header()))
	g.Expect(decoded.States).To(HaveLen(2))
	g.Expect(decoded.Controls[0][robot.LKnee]).To(Equal(42.0))
}

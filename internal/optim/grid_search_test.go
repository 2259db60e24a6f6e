package optim

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/experiment"
)

func TestGridPoints(t *testing.T) {
	g := NewWithT(t)

	gs, err := NewGridSearch([]string{"kp", "kd"}, [][]float64{{1, 2}, {0.5, 1, 2}})
	g.Expect(err).NotTo(HaveOccurred())

	points := gs.Points()
	g.Expect(points).To(HaveLen(6))
	g.Expect(points[0]).To(Equal(map[string]float64{"kp": 1, "kd": 0.5}))
	g.Expect(points[5]).To(Equal(map[string]float64{"kp": 2, "kd": 2}))

	_, err = NewGridSearch([]string{"kp"}, nil)
	g.Expect(errors.Is(err, ErrGrid)).To(BeTrue())
	_, err = NewGridSearch([]string{"kp"}, [][]float64{{}})
	g.Expect(errors.Is(err, ErrGrid)).To(BeTrue())
}

func TestSearchFindsMinimum(t *testing.T) {
	g := NewWithT(t)

	xs := []float64{-2, -1, 0, 1, 2, 3}
	gs, err := NewGridSearch([]string{"x", "y"}, [][]float64{xs, xs})
	g.Expect(err).NotTo(HaveOccurred())

	var calls atomic.Int32
	out, err := gs.Search(context.Background(), func(ctx context.Context, p map[string]float64) (float64, error) {
		calls.Add(1)
		if p["x"] == 3 {
			return 0, errors.New("out of range")
		}
		if p["x"] == -2 {
			return math.NaN(), nil
		}
		return (p["x"]-1)*(p["x"]-1) + (p["y"]+1)*(p["y"]+1), nil
	})
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(calls.Load()).To(BeEquivalentTo(36))
	g.Expect(out.Best).To(Equal(map[string]float64{"x": 1, "y": -1}))
	g.Expect(out.Value).To(BeZero())
	g.Expect(out.Evaluations).To(HaveLen(36))
}

func TestSearchAllFailed(t *testing.T) {
	g := NewWithT(t)

	gs, _ := NewGridSearch([]string{"x"}, [][]float64{{1, 2}})
	_, err := gs.Search(context.Background(), func(context.Context, map[string]float64) (float64, error) {
		return 0, errors.New("boom")
	})
	g.Expect(errors.Is(err, ErrNoResult)).To(BeTrue())
	g.Expect(err.Error()).To(ContainSubstring("boom"))
}

func TestSearchCanceled(t *testing.T) {
	g := NewWithT(t)

	gs, _ := NewGridSearch([]string{"x"}, [][]float64{{1, 2, 3}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gs.Search(ctx, func(context.Context, map[string]float64) (float64, error) { return 1, nil })
	g.Expect(errors.Is(err, context.Canceled)).To(BeTrue())
}

func TestGainScaleConfig(t *testing.T) {
	g := NewWithT(t)

	base := config.DefaultConfig()
	cfg := GainScaleConfig(base, map[string]float64{"kd": 3})
	g.Expect(cfg.Gains.Knee.Kp).To(Equal(base.Gains.Knee.Kp))
	g.Expect(cfg.Gains.Knee.Kd).To(Equal(3 * base.Gains.Knee.Kd))
	g.Expect(base.Gains.Knee.Kd).To(Equal(4.0))
}

func TestTuneStandPreset(t *testing.T) {
	g := NewWithT(t)

	base := config.GetPreset("stand")
	base.Sim.Duration = 0.3
	reg := experiment.NewRegistry()
	build := func(p map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(GainScaleConfig(base, p), reg, nil)
	}

	gs, err := NewGridSearch([]string{"kp"}, [][]float64{{0.01, 1}})
	g.Expect(err).NotTo(HaveOccurred())
	out, err := gs.Search(context.Background(), ExperimentObjective(build, "tracking_error"))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(out.Best).To(HaveKeyWithValue("kp", 1.0))
}

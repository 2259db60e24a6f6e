package main

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/legkin/internal/analysis"
	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/dynamo"
	"github.com/san-kum/legkin/internal/experiment"
	"github.com/san-kum/legkin/internal/logging"
	"github.com/san-kum/legkin/internal/optim"
	"github.com/san-kum/legkin/internal/robot"
	"github.com/san-kum/legkin/internal/storage"
	"github.com/san-kum/legkin/internal/viz"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate the joint controller and store the run",
		RunE:  runSimulation,
	}
	addSimFlags(cmd)
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	exp, err := experiment.New(cfg, experiment.NewRegistry(), logger)
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := exp.Run(cmd.Context())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	meta := exp.Metadata(presetName())
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}
	logger.Infow("run saved", "id", runID, "elapsed", elapsed)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run: %s\n", runID)
	fmt.Fprintf(w, "robot: %s, %d dof\n", meta.Robot, meta.DoF)
	fmt.Fprintf(w, "steps: %d in %v\n", result.StepsTaken, elapsed.Round(time.Millisecond))
	for _, note := range exp.Plan().Notes {
		fmt.Fprintf(w, "note: %s\n", note)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "error: %v\n", e)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, name := range sortedNames(result.Metrics) {
		fmt.Fprintf(tw, "%s\t%.6g\n", name, result.Metrics[name])
	}
	return tw.Flush()
}

func sortedNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func newLiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "live",
		Short: "interactive view of the biped tracking its targets",
		Long:  "Without --preset or --config a preset picker opens first.",
		RunE:  runLive,
	}
	addSimFlags(cmd)
	return cmd
}

func runLive(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	// the TUI owns the terminal, so library logs are dropped
	quiet := logger
	if !debug {
		quiet = logging.NewNop()
	}

	if preset != "" || configFile != "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		exp, err := experiment.New(cfg, reg, quiet)
		if err != nil {
			return err
		}
		return viz.RunLive(exp, presetName())
	}

	choices := make([]viz.Choice, 0, len(config.Presets))
	for _, name := range config.ListPresets() {
		choices = append(choices, viz.Choice{Name: name, Description: config.Presets[name].Description})
	}
	return viz.RunPicker(choices, func(name string) (*experiment.Experiment, error) {
		return experiment.New(config.GetPreset(name), reg, quiet)
	})
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := storage.New(dataDir).List()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(w, "no runs found")
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPRESET\tTIME\tDURATION\tDT\tINTEG\tCTRL\tFINAL ERR")
			for _, run := range runs {
				final := "-"
				if v, ok := run.Metrics["final_error"]; ok {
					final = fmt.Sprintf("%.4g", v)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%s\n",
					run.ID,
					run.Preset,
					run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Duration,
					run.Dt,
					run.Integrator,
					run.Controller,
					final,
				)
			}
			return tw.Flush()
		},
	}
}

// loadRun reads the metadata and trajectory of a stored run.
func loadRun(runID string) (*storage.RunMetadata, *dynamo.Result, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	result, err := st.LoadStates(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(result.States) == 0 {
		return nil, nil, errors.Errorf("run %s has no samples", runID)
	}
	return meta, result, nil
}

// parseJoints resolves joint names; an empty list selects the left leg.
func parseJoints(names []string) ([]robot.JointID, error) {
	if len(names) == 0 {
		ids := robot.Left.Joints()
		return ids[:], nil
	}
	ids := make([]robot.JointID, 0, len(names))
	for _, n := range names {
		id, err := robot.ParseJointID(strings.ToUpper(n))
		if err != nil {
			if id, err = robot.ParseJointID(n); err != nil {
				return nil, err
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func angleDegrees(states []dynamo.State, id robot.JointID) []float64 {
	col := storage.Column(states, robot.AngleIndex(id))
	for i := range col {
		col[i] *= 180 / math.Pi
	}
	return col
}

var plotJoints []string

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot <run_id>",
		Short: "plot joint angles of a stored run against their targets",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	cmd.Flags().StringSliceVar(&plotJoints, "joint", nil, "joints to plot (default: left leg)")
	return cmd
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	ids, err := parseJoints(plotJoints)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run: %s\n", meta.ID)
	fmt.Fprintf(w, "preset: %s\n", meta.Preset)
	fmt.Fprintf(w, "samples: %d\n\n", len(result.States))

	for _, id := range ids {
		actual := viz.Downsample(angleDegrees(result.States, id), 80)
		series := [][]float64{actual}
		caption := fmt.Sprintf("%s angle (deg)", id.Short())
		if target, ok := meta.Targets[id.Short()]; ok {
			line := make([]float64, len(actual))
			for i := range line {
				line[i] = target
			}
			series = append(series, line)
			caption += fmt.Sprintf(" vs target %.2f", target)
		}
		fmt.Fprintln(w, viz.PlotMany(series, viz.PlotOptions{Height: 10, Width: 80, Caption: caption}))
		fmt.Fprintln(w)
	}
	return nil
}

var analyzeBand float64

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <run_id>",
		Short: "step response and frequency analysis of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	cmd.Flags().StringSliceVar(&plotJoints, "joint", nil, "joints to analyze (default: left leg)")
	cmd.Flags().Float64Var(&analyzeBand, "band", analysis.DefaultSettlingBand, "settling band as a fraction of the step")
	return cmd
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	ids, err := parseJoints(plotJoints)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "step response: %s (%s)\n\n", meta.ID, meta.Preset)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "JOINT\tFROM\tTO\tRISE\tOVERSHOOT\tSETTLING\tSS ERR\tOSC")

	var worst []float64
	worstErr := -1.0
	for _, id := range ids {
		deg := angleDegrees(result.States, id)
		target, ok := meta.Targets[id.Short()]
		if !ok {
			fmt.Fprintf(tw, "%s\t%.2f\t-\t-\t-\t-\t-\t-\n", id.Short(), deg[0])
			continue
		}
		m := analysis.AnalyzeStep(result.Times, deg, deg[0], target, analyzeBand)

		errSeries := make([]float64, len(deg))
		peak := 0.0
		for i, v := range deg {
			errSeries[i] = target - v
			peak = math.Max(peak, math.Abs(errSeries[i]))
		}
		freq := analysis.DominantFrequency(errSeries, meta.Dt)
		if peak > worstErr {
			worstErr, worst = peak, errSeries
		}

		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%s\t%.1f%%\t%s\t%.3g\t%.2f hz\n",
			id.Short(), deg[0], target,
			seconds(m.RiseTime), m.Overshoot*100, seconds(m.SettlingTime),
			m.SteadyStateError, freq)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if worst == nil {
		return nil
	}
	freqs, amp := analysis.Spectrum(worst, meta.Dt)
	if len(amp) < 2 {
		return nil
	}
	// the controlled joints live well below 25 hz
	limit := len(freqs)
	for i, f := range freqs {
		if f > 25 {
			limit = i
			break
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, viz.Plot(viz.Downsample(amp[:limit], 80), viz.PlotOptions{
		Height: 12, Width: 80, Caption: fmt.Sprintf("tracking error spectrum, 0..%.1f hz", freqs[limit-1]),
	}))
	return nil
}

func seconds(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%.3fs", v)
}

var phaseJoint string

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase <run_id>",
		Short: "angle/velocity phase portrait of one joint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args[0])
			if err != nil {
				return err
			}
			id, err := robot.ParseJointID(strings.ToUpper(phaseJoint))
			if err != nil {
				return err
			}
			p := analysis.JointPortrait(result.States, id)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "phase portrait: %s (%s)\n", meta.ID, meta.Preset)
			fmt.Fprintf(w, "x: %s\ny: %s\n\n", p.XLabel, p.YLabel)
			fmt.Fprint(w, analysis.PhasePortraitToASCII(p, 70, 24))
			return nil
		},
	}
	cmd.Flags().StringVar(&phaseJoint, "joint", robot.LKnee.Short(), "joint to plot")
	return cmd
}

func newExportJSONCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export-json <run_id>",
		Short: "write a stored run with its trajectory as json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, result, err := loadRun(args[0])
			if err != nil {
				return err
			}
			result.Metrics = meta.Metrics
			return storage.ExportJSON(cmd.OutOrStdout(), *meta, result)
		},
	}
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [integrator...]",
		Short: "run one configuration under several integrators",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := experiment.NewRegistry()
			if len(args) == 0 {
				args = reg.ListIntegrators()
			}
			base, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "comparing integrators for %s (dt=%.4f, duration=%.1fs)\n\n", presetName(), base.Sim.Dt, base.Sim.Duration)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INTEGRATOR\tFINAL ERR\tENERGY\tTIME")
			for _, name := range args {
				cfg := base.Clone()
				cfg.Sim.Integrator = name
				exp, err := experiment.New(cfg, reg, logger)
				if err != nil {
					fmt.Fprintf(tw, "%s\terror: %v\t\t\n", name, err)
					continue
				}
				start := time.Now()
				result, err := exp.Run(cmd.Context())
				elapsed := time.Since(start)
				if err != nil {
					fmt.Fprintf(tw, "%s\terror: %v\t\t\n", name, err)
					continue
				}
				fmt.Fprintf(tw, "%s\t%.4g\t%.4g\t%v\n", name,
					result.Metrics["final_error"], result.Metrics["energy"], elapsed.Round(time.Microsecond))
			}
			return tw.Flush()
		},
	}
	addSimFlags(cmd)
	return cmd
}

var tuneFlags struct {
	metric string
	kp, kd []float64
}

func newTuneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search over gain scale factors",
		RunE:  runTune,
	}
	addSimFlags(cmd)
	cmd.Flags().StringVar(&tuneFlags.metric, "metric", "tracking_error", "metric to minimize")
	cmd.Flags().Float64SliceVar(&tuneFlags.kp, "kp", []float64{0.5, 1, 2}, "kp scale factors")
	cmd.Flags().Float64SliceVar(&tuneFlags.kd, "kd", []float64{0.5, 1, 2}, "kd scale factors")
	return cmd
}

func runTune(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !containsString(base.Metrics, tuneFlags.metric) {
		base.Metrics = append(base.Metrics, tuneFlags.metric)
	}

	grid, err := optim.NewGridSearch([]string{"kp", "kd"}, [][]float64{tuneFlags.kp, tuneFlags.kd})
	if err != nil {
		return err
	}
	reg := experiment.NewRegistry()
	quiet := logging.NewNop()
	obj := optim.ExperimentObjective(func(params map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(optim.GainScaleConfig(base, params), reg, quiet)
	}, tuneFlags.metric)

	logger.Infow("tuning", "points", len(grid.Points()), "metric", tuneFlags.metric)
	out, err := grid.Search(cmd.Context(), obj)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "KP\tKD\t%s\n", strings.ToUpper(tuneFlags.metric))
	for _, e := range out.Evaluations {
		value := fmt.Sprintf("%.6g", e.Value)
		if e.Err != nil {
			value = "failed: " + e.Err.Error()
		}
		fmt.Fprintf(tw, "%.3g\t%.3g\t%s\n", e.Params["kp"], e.Params["kd"], value)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nbest: kp x%.3g, kd x%.3g (%s = %.6g)\n", out.Best["kp"], out.Best["kd"], tuneFlags.metric, out.Value)
	return nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(tw, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return tw.Flush()
		},
	}
}

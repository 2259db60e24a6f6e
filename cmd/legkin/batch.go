package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/legkin/internal/analysis"
	"github.com/san-kum/legkin/internal/automation"
	"github.com/san-kum/legkin/internal/experiment"
	"github.com/san-kum/legkin/internal/export"
	"github.com/san-kum/legkin/internal/robot"
	"github.com/san-kum/legkin/internal/storage"
	"github.com/san-kum/legkin/internal/viz"
)

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario <file.yaml>",
		Short: "run a scripted sequence of experiments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := automation.LoadScenario(args[0])
			if err != nil {
				return err
			}
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			results, err := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), st, logger)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "scenario: %s\n", sc.Name)
			if sc.Description != "" {
				fmt.Fprintf(w, "%s\n", sc.Description)
			}
			fmt.Fprintln(w)
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "STEP\tRUN\tSTEPS\tFINAL ERR")
			for _, r := range results {
				id := r.RunID
				if id == "" {
					id = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%.4g\n", r.Step, id, r.Result.StepsTaken, r.Result.Metrics["final_error"])
			}
			if ferr := tw.Flush(); ferr != nil {
				return ferr
			}
			return err
		},
	}
}

var mcFlags struct {
	trials  int
	perturb float64
	seed    uint64
	tol     float64
}

func newMonteCarloCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "check settling from randomly perturbed starting stances",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			mc := automation.MonteCarloConfig{
				Base:       cfg,
				Trials:     mcFlags.trials,
				PerturbDeg: mcFlags.perturb,
				Seed:       mcFlags.seed,
				Tolerance:  mcFlags.tol,
			}
			trials, err := automation.RunMonteCarlo(cmd.Context(), mc, experiment.NewRegistry(), logger)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TRIAL\tFINAL ERR\tRESULT")
			for _, t := range trials {
				res := "settled"
				switch {
				case t.Err != nil:
					res = "failed: " + t.Err.Error()
				case !t.Stable:
					res = "unsettled"
				}
				fmt.Fprintf(tw, "%d\t%.4g\t%s\n", t.ID, t.FinalError, res)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			s := automation.Summarize(trials)
			fmt.Fprintf(w, "\nsettled %d/%d, unsettled %d, failed %d\n", s.Stable, len(trials), s.Unstable, s.Failed)
			fmt.Fprintf(w, "final error: mean %.4g rad, worst %.4g rad\n", s.MeanFinalError, s.WorstFinalError)
			return nil
		},
	}
	addSimFlags(cmd)
	cmd.Flags().IntVar(&mcFlags.trials, "trials", 20, "number of trials")
	cmd.Flags().Float64Var(&mcFlags.perturb, "perturb", 5, "initial angle perturbation (deg)")
	cmd.Flags().Uint64Var(&mcFlags.seed, "seed", 1, "random seed")
	cmd.Flags().Float64Var(&mcFlags.tol, "tol", automation.DefaultSettleTolerance, "final joint error counted as settled (rad)")
	return cmd
}

var svgFlags struct {
	kind  string
	joint string
	out   string
	at    float64
	theme string
}

func newExportSVGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-svg <run_id>",
		Short: "render a stored run's pose or phase portrait as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	f := cmd.Flags()
	f.StringVar(&svgFlags.kind, "kind", "pose", "what to draw (pose, phase)")
	f.StringVar(&svgFlags.joint, "joint", robot.LKnee.Short(), "joint for the phase portrait")
	f.StringVarP(&svgFlags.out, "out", "o", "", "output file; empty writes to stdout")
	f.Float64Var(&svgFlags.at, "at", -1, "time of the pose in seconds; negative uses the final state")
	f.StringVar(&svgFlags.theme, "theme", viz.Themes[0].Name, "color theme")
	return cmd
}

func exportSVG(cmd *cobra.Command, args []string) error {
	_, result, err := loadRun(args[0])
	if err != nil {
		return err
	}
	theme := viz.GetTheme(svgFlags.theme)

	var svg string
	switch svgFlags.kind {
	case "pose":
		x := result.States[len(result.States)-1]
		if svgFlags.at >= 0 {
			i := sort.SearchFloat64s(result.Times, svgFlags.at)
			x = result.States[min(i, len(result.States)-1)]
		}
		var q [robot.NumJoints]float64
		for _, id := range robot.AllJoints() {
			q[id] = x[robot.AngleIndex(id)]
		}
		svg = export.PoseToSVG(q, viz.NewCamera(), 480, 480, theme)
	case "phase":
		id, err := robot.ParseJointID(strings.ToUpper(svgFlags.joint))
		if err != nil {
			return err
		}
		svg = export.PhaseToSVG(analysis.JointPortrait(result.States, id), 640, 480, string(theme.Primary))
	default:
		return errors.Errorf("unknown svg kind %q (pose, phase)", svgFlags.kind)
	}

	if svgFlags.out == "" {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), svg)
		return err
	}
	if err := os.WriteFile(svgFlags.out, []byte(svg), 0644); err != nil {
		return errors.Wrap(err, "write svg")
	}
	logger.Infow("svg written", "path", svgFlags.out, "kind", svgFlags.kind)
	return nil
}

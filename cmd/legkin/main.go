package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/san-kum/legkin/internal/config"
	"github.com/san-kum/legkin/internal/logging"
)

var (
	dataDir    string
	debug      bool
	configFile string
	preset     string

	dt         float64
	duration   float64
	integrator string
	controller string
	realTime   float64

	logger logging.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "legkin",
		Short:        "biped leg kinematics and joint control lab",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewLogger("legkin", debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".legkin", "data directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	rootCmd.AddCommand(
		newFKCmd(),
		newJacobianCmd(),
		newIKCmd(),
		newPracticeCmd(),
		newRunCmd(),
		newLiveCmd(),
		newListCmd(),
		newPlotCmd(),
		newAnalyzeCmd(),
		newPhaseCmd(),
		newExportJSONCmd(),
		newExportSVGCmd(),
		newCompareCmd(),
		newTuneCmd(),
		newScenarioCmd(),
		newMonteCarloCmd(),
		newPresetsCmd(),
	)
	return rootCmd
}

// addSimFlags registers the flags that select and override a configuration.
func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (euler, rk4, rk45, verlet)")
	cmd.Flags().StringVar(&controller, "controller", config.DefaultController, "controller (pd, pid, none)")
	cmd.Flags().Float64Var(&realTime, "realtime", 0, "pace against the wall clock at this rate; 0 runs unpaced")
}

// loadConfig resolves the preset, then the config file, then any flag the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return nil, errors.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, errors.Wrap(err, "failed to load config")
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Sim.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Sim.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if flags.Changed("controller") {
		cfg.Sim.Controller = controller
	}
	if flags.Changed("realtime") {
		cfg.Sim.RealTime = realTime
	}
	return cfg, cfg.Validate()
}

func presetName() string {
	if preset != "" {
		return preset
	}
	return "custom"
}

// Command lorenz renders an ensemble of points advected through the Lorenz system.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-lorenz/config"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	pointCount  int
	hostSim     bool
	startPaused bool
	logLevel    string
	metricsAddr string
)

func init() {
	// GLFW must be driven from the main OS thread.
	runtime.LockOSThread()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lorenz",
		Short:         "GPU Lorenz attractor ensemble visualizer",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			return run(cfg)
		},
	}

	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().IntVarP(&pointCount, "count", "n", config.DefaultPointCount, "number of points")
	rootCmd.Flags().BoolVar(&hostSim, "host-sim", false, "step the simulation on the CPU instead of the GPU")
	rootCmd.Flags().BoolVar(&startPaused, "paused", true, "start with the simulation paused")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "lorenz.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return err
			}
			fmt.Printf("wrote default config to %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(configCmd)
	return rootCmd
}

// resolveConfig loads the config file, if any, then applies the flags the user set explicitly.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Points.Count = pointCount
	}
	if flags.Changed("host-sim") {
		cfg.Simulation.HostStepping = hostSim
	}
	if flags.Changed("paused") {
		cfg.StartPaused = startPaused
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = metricsAddr != ""
		cfg.Metrics.Addr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

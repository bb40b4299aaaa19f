// Package cmd provides the root command and CLI setup for ubsynth.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mouse-blink/ubsynth/internal/adapter"
	"github.com/mouse-blink/ubsynth/internal/config"
	"github.com/mouse-blink/ubsynth/internal/controller"
	"github.com/mouse-blink/ubsynth/internal/domain"
	"github.com/mouse-blink/ubsynth/internal/logging"
)

// workflow overrides the workflow built from the loaded configuration.
// Tests set it to a mock.
var workflow domain.Workflow

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ubsynth",
		Short: "Undefined behavior program synthesizer",
		Long: `ubsynth turns well-defined C programs into programs that exhibit one
chosen kind of undefined behavior at a known location.

Seeds are instrumented, executed to record the values and memory layout at
every candidate site, and then mutated with a single perturbation that is
guaranteed to trigger the target behavior on the recorded execution.

Supported categories:
  buffer-overflow, out-of-bound, use-after-free, use-after-scope,
  double-free, memory-leak, null-pointer-dereference, use-of-uninit,
  division-by-zero, integer-overflow`,
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file (yaml, toml or json)")
	flags.String("ub", "", "target undefined behavior category")
	flags.Int("heap-prob", 0, "probability in percent of moving stack buffers to the heap")
	flags.Uint64("seed", 0, "random seed; 0 draws a fresh seed per run")
	flags.String("tools-dir", "", "directory holding the source rewriting tools")
	flags.String("cc", "clang", "C compiler")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text or json)")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the configuration of the executing command from its
// flags, the environment and the optional config file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	v := viper.New()

	if err := config.Bind(v, cmd.Flags()); err != nil {
		return config.Config{}, err
	}

	return config.Load(v)
}

// resolveWorkflow returns the injected workflow or wires a new one for cfg.
func resolveWorkflow(cmd *cobra.Command, cfg config.Config) (domain.Workflow, error) {
	if workflow != nil {
		return workflow, nil
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: logging.Format(cfg.LogFormat),
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"category": cfg.Category,
		"parallel": cfg.Parallel,
		"cc":       cfg.Tools.Compiler,
	}).Debug("configuration loaded")

	toolchain := adapter.NewLocalToolchain(adapter.ToolchainOptions{
		Paths: adapter.ToolPaths{
			AddBraces:     cfg.Tools.AddBraces,
			AddInteger:    cfg.Tools.AddInteger,
			AddArrayIndex: cfg.Tools.AddArrayIndex,
			Instrumenter:  cfg.Tools.Instrumenter,
			StackToHeap:   cfg.Tools.StackToHeap,
			Compiler:      cfg.Tools.Compiler,
			Csmith:        cfg.Tools.Csmith,
		},
		CompileArgs:     cfg.CompileArgs,
		CsmithArgs:      cfg.CsmithArgs,
		CompileTimeout:  cfg.Timeouts.Compile,
		RunTimeout:      cfg.Timeouts.Run,
		GenerateTimeout: cfg.Timeouts.Generate,
	})

	ui := controller.NewUI(cmd, controller.IsTTY(cmd.OutOrStdout()))

	return domain.NewWorkflow(
		domain.WorkflowOptions{
			Category: cfg.Category,
			HeapProb: cfg.HeapProb,
			RNGSeed:  cfg.RNGSeed,
			Verify:   cfg.Verify,
			Generate: domain.GenerateOptions{
				MinProgramSize: cfg.Generate.MinProgramSize,
				MaxAttempts:    cfg.Generate.MaxAttempts,
				CheckArgs:      cfg.Generate.CheckArgs,
			},
		},
		adapter.NewLocalSourceFSAdapter(),
		toolchain,
		adapter.NewLocalReportStore(),
		ui,
		logger,
	), nil
}

// parseShard parses INDEX/TOTAL. An empty value selects every seed.
func parseShard(shard string) (int, int, error) {
	if shard == "" {
		return 0, 1, nil
	}

	var index, total int

	_, err := fmt.Sscanf(shard, "%d/%d", &index, &total)
	if err != nil || total <= 0 || index < 0 || index >= total {
		return 0, 0, fmt.Errorf("invalid shard %q: want INDEX/TOTAL with 0 <= INDEX < TOTAL", shard)
	}

	return index, total, nil
}

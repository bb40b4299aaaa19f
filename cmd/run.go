package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/ubsynth/internal/domain"
)

const runLongDescription = `Synthesize undefined behavior mutants from seed programs.

Seeds are .c files or directories; "dir/..." scans recursively. Without
seeds, csmith programs are generated until one yields mutants.

Every mutant is written to the output directory as mutated_<n>_<seed>.c and
described by a YAML manifest under <out>/.ubsynth-reports (or --reports).

Examples:
  ubsynth run --ub division-by-zero --out out seeds/...
  ubsynth run --ub use-after-free --out out --verify --parallel 4
  ubsynth run --ub buffer-overflow --out out --shard 1/3 seeds/...`

// runCmd represents the run command.
var runCmd = newRunCmd()

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [seeds...]",
		Short: "Synthesize undefined behavior mutants",
		Long:  runLongDescription,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err := cfg.RequireCategory(); err != nil {
				return err
			}

			shardIndex, totalShards, err := parseShard(cfg.Shard)
			if err != nil {
				return err
			}

			wf, err := resolveWorkflow(cmd, cfg)
			if err != nil {
				return err
			}

			return wf.Run(cmd.Context(), domain.RunArgs{
				EstimateArgs: domain.EstimateArgs{
					Paths:           parsePaths(args),
					Exclude:         cfg.Exclude,
					Threads:         cfg.Parallel,
					ShardIndex:      shardIndex,
					TotalShardCount: totalShards,
				},
				Out:         cfg.Out,
				Reports:     cfg.Reports,
				Incremental: cfg.Incremental,
			})
		},
	}

	flags := cmd.Flags()
	flags.StringP("out", "o", "", "output directory for mutants")
	flags.String("reports", "", "reports directory (default <out>/.ubsynth-reports)")
	flags.IntP("parallel", "p", 1, "number of seeds processed in parallel")
	flags.Bool("incremental", false, "skip seeds already synthesized for this category")
	flags.Bool("verify", false, "confirm every mutant with a sanitizer build")
	flags.StringSliceP("exclude", "x", nil, "exclude seeds matching regex (can be repeated)")
	flags.StringP("shard", "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	return cmd
}

func init() {
	rootCmd.AddCommand(runCmd)
}

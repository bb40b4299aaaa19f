package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/ubsynth/internal/domain"
)

const listLongDescription = `Instrument and trace seed programs and count the candidates each one
offers for the target category, without writing any mutant.

Examples:
  ubsynth list --ub integer-overflow seeds/...
  ubsynth list --ub double-free --exclude 'big_.*\.c$' seeds/`

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [seeds...]",
		Short: "List seeds and candidate counts",
		Long:  listLongDescription,
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

			return wf.Estimate(cmd.Context(), domain.EstimateArgs{
				Paths:           parsePaths(args),
				Exclude:         cfg.Exclude,
				Threads:         cfg.Parallel,
				ShardIndex:      shardIndex,
				TotalShardCount: totalShards,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntP("parallel", "p", 1, "number of seeds instrumented in parallel")
	flags.StringSliceP("exclude", "x", nil, "exclude seeds matching regex (can be repeated)")
	flags.StringP("shard", "s", "", "shard index and total shard count in the format INDEX/TOTAL (e.g., 0/3)")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}

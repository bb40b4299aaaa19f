package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mouse-blink/ubsynth/internal/domain"
	m "github.com/mouse-blink/ubsynth/internal/model"
)

// viewCmd represents the view command.
var viewCmd = newViewCmd()

func newViewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "View stored mutant manifests",
		Long:  "View the mutant manifests stored in a reports directory.",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			reports := cfg.Reports
			if reports == "" {
				reports = m.Path(domain.ReportsDirName)
			}

			wf, err := resolveWorkflow(cmd, cfg)
			if err != nil {
				return err
			}

			return wf.View(domain.ViewArgs{Reports: reports})
		},
	}

	flags := cmd.Flags()
	flags.StringP("out", "o", "", "output directory of a previous run")
	flags.String("reports", "", "reports directory (default <out>/.ubsynth-reports)")

	return cmd
}

func init() {
	rootCmd.AddCommand(viewCmd)
}

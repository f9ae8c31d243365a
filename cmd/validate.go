package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/gsml3/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and environment overrides, and
check every section without starting anything.

Examples:
  gsml3 validate -c gsml3.yaml
  GSML3_PIPELINE_WORKERS=8 gsml3 validate -c gsml3.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(configFile, cmd.OutOrStdout())
	},
}

func runValidate(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(w, "INVALID: %v\n", err)
		return err
	}
	lai, _ := cfg.Network.LAI()
	fmt.Fprintf(w, "VALID: %s, source %s, %d worker(s), %d reporter(s)\n",
		lai, cfg.Source.Type, cfg.Pipeline.Workers, len(cfg.Reporters))
	return nil
}

// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/log"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gsml3",
	Short: "gsml3 - GSM layer 3 mobility management codec and monitor",
	Long: `gsml3 encodes and decodes GSM 04.08 mobility management messages and
monitors MM signalling carried in GSMTAP, either live over UDP or replayed
from pcap traces.

Decoded messages are reported to the console or to Kafka.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (defaults apply when empty)")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig loads the configuration selected by --config and installs its
// logger.
func loadConfig() (*config.GlobalConfig, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if err := log.Init(cfg.Log); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, nil
}

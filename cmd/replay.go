package cmd

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/pipeline"
	"firestige.xyz/gsml3/internal/reporter"
	"firestige.xyz/gsml3/internal/source"
	"firestige.xyz/gsml3/internal/source/pcap"
)

var (
	replayFile    string
	replayPort    int
	replayTimeout time.Duration
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run a pcap trace through the pipeline",
	Long: `Replay a pcap or pcapng trace holding GSMTAP over UDP and report every
mobility management message found on dedicated channels.

Examples:
  gsml3 replay -f um.pcap
  gsml3 replay -f um.pcapng -c gsml3.yaml --port 4729`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Source.Port = replayPort
		}
		reps, err := reporter.NewAll(cfg.Reporters)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runReplay(ctx, cfg, replayFile, reps, replayTimeout, cmd.OutOrStdout())
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayFile, "file", "f", "", "pcap or pcapng trace (required)")
	replayCmd.Flags().IntVarP(&replayPort, "port", "p", 4729, "GSMTAP UDP port")
	replayCmd.Flags().DurationVarP(&replayTimeout, "timeout", "t", 30*time.Second, "time allowed to drain the pipeline")
	replayCmd.MarkFlagRequired("file")
}

// runReplay feeds the trace to a pipeline delivering to reps and prints a
// summary when the trace is exhausted.
func runReplay(ctx context.Context, cfg *config.GlobalConfig, file string, reps []reporter.Reporter, drainTimeout time.Duration, w io.Writer) error {
	src, err := pcap.NewSource(file, cfg.Source.Port)
	if err != nil {
		return err
	}
	p := pipeline.NewBuilder().FromConfig(cfg.Pipeline).WithReporters(reps...).Build()
	if err := p.Start(); err != nil {
		return err
	}
	if err := src.Start(ctx); err != nil {
		p.Stop(context.Background())
		return err
	}
	defer src.Stop()

	n, pumpErr := source.Pump(ctx, src, p.Submit)

	stopCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	stopErr := p.Stop(stopCtx)

	s := p.Stats()
	fmt.Fprintf(w, "frames: %d, decoded: %d, malformed: %d, unsupported: %d, skipped: %d, reported: %d\n",
		n, s.Decoded, s.Malformed, s.Unsupported, s.Skipped, s.Reported)

	if pumpErr != nil {
		return pumpErr
	}
	return stopErr
}

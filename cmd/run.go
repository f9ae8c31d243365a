package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/log"
	"firestige.xyz/gsml3/internal/metrics"
	"firestige.xyz/gsml3/internal/pipeline"
	"firestige.xyz/gsml3/internal/reporter"
	"firestige.xyz/gsml3/internal/source"
)

var runTimeout time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Monitor live GSMTAP traffic",
	Long: `Receive GSMTAP from the configured source, decode mobility management
messages and deliver reports until interrupted.

Examples:
  gsml3 run -c gsml3.yaml
  gsml3 run -c gsml3.yaml -t 10s    # allow 10s to drain on shutdown`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runLive(ctx, cfg, runTimeout)
	},
}

func init() {
	runCmd.Flags().DurationVarP(&runTimeout, "timeout", "t", 5*time.Second, "shutdown drain timeout")
}

// runLive runs the configured source, pipeline, reporters and metrics
// server until ctx is done.
func runLive(ctx context.Context, cfg *config.GlobalConfig, drainTimeout time.Duration) error {
	logger := log.GetLogger()

	reps, err := reporter.NewAll(cfg.Reporters)
	if err != nil {
		return err
	}
	src, err := source.New(cfg.Source)
	if err != nil {
		return err
	}

	var srv *metrics.Server
	if cfg.Metrics.Enabled {
		srv = metrics.NewServer(cfg.Metrics.Listen, cfg.Metrics.Path)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
	}

	p := pipeline.NewBuilder().FromConfig(cfg.Pipeline).WithReporters(reps...).Build()
	if err := p.Start(); err != nil {
		return err
	}
	if err := src.Start(ctx); err != nil {
		p.Stop(context.Background())
		return err
	}

	pumped := make(chan error, 1)
	go func() {
		_, err := source.Pump(ctx, src, p.Submit)
		pumped <- err
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case runErr = <-pumped:
		if runErr != nil {
			logger.WithError(runErr).Error("source failed")
		}
	}
	src.Stop()

	stopCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		logger.WithError(err).Warn("pipeline stop")
	}
	if srv != nil {
		if err := srv.Stop(stopCtx); err != nil {
			logger.WithError(err).Warn("metrics server stop")
		}
	}
	return runErr
}

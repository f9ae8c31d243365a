package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/log"
)

// ConsoleOptions configures the console reporter.
type ConsoleOptions struct {
	Format string `mapstructure:"format"` // log | json, default log
}

// Console writes one line per report: a structured log entry, or a JSON
// document on stdout.
type Console struct {
	format   string
	logger   log.Logger
	mu       sync.Mutex
	out      io.Writer
	reported atomic.Uint64
}

func NewConsole(options map[string]any) (*Console, error) {
	opts := ConsoleOptions{Format: "log"}
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	switch opts.Format {
	case "log", "json":
	default:
		return nil, fmt.Errorf("%w: console format %q, must be log or json", core.ErrConfigInvalid, opts.Format)
	}
	return newConsoleTo(opts.Format, log.GetLogger(), os.Stdout), nil
}

// newConsoleTo creates a console reporter writing to out.
func newConsoleTo(format string, logger log.Logger, out io.Writer) *Console {
	return &Console{format: format, logger: logger, out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Report(ctx context.Context, r *core.Report) error {
	if r == nil {
		return fmt.Errorf("nil report")
	}
	c.reported.Add(1)

	if c.format == "json" {
		data, err := json.Marshal(Fields(r))
		if err != nil {
			return fmt.Errorf("json marshal failed: %w", err)
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err = fmt.Fprintln(c.out, string(data))
		return err
	}

	entry := c.logger.WithFields(map[string]interface{}{
		"seq":     r.Sequence,
		"channel": r.Channel.String(),
		"uplink":  r.Uplink,
		"fn":      r.FrameNumber,
	})
	if r.Identity != "" {
		entry = entry.WithField("identity", r.Identity)
	}
	if r.Error != "" {
		entry.WithField("raw", fmt.Sprintf("%x", r.RawPayload)).Warnf("undecodable frame: %s", r.Error)
		return nil
	}
	entry.Info(r.Summary)
	return nil
}

func (c *Console) Close() error {
	c.logger.Infof("console reporter closed, %d reports", c.reported.Load())
	return nil
}

// Package reporter delivers pipeline reports to external systems.
package reporter

import (
	"context"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/core"
)

// Reporter sends reports to one destination.
type Reporter interface {
	Name() string
	Report(ctx context.Context, r *core.Report) error
	// Close flushes buffered reports.
	Close() error
}

// New creates the reporter described by cfg.
func New(cfg config.ReporterConfig) (Reporter, error) {
	var (
		r   Reporter
		err error
	)
	switch cfg.Type {
	case "console":
		r, err = NewConsole(cfg.Options)
	case "kafka":
		r, err = NewKafka(cfg.Options)
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrReporterNotFound, cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// NewAll creates every configured reporter. Already created reporters are
// closed when a later one fails.
func NewAll(cfgs []config.ReporterConfig) ([]Reporter, error) {
	out := make([]Reporter, 0, len(cfgs))
	for i, cfg := range cfgs {
		r, err := New(cfg)
		if err != nil {
			for _, created := range out {
				created.Close()
			}
			return nil, fmt.Errorf("reporters[%d]: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// decodeOptions fills out from a reporter's free-form options. Durations
// may be given as strings and numbers as strings.
func decodeOptions(options map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(options); err != nil {
		return fmt.Errorf("%w: %v", core.ErrConfigInvalid, err)
	}
	return nil
}

// Fields flattens a report into JSON compatible values.
func Fields(r *core.Report) map[string]any {
	out := map[string]any{
		"sequence":     r.Sequence,
		"priority":     r.Priority,
		"timestamp":    r.Timestamp.Format(time.RFC3339Nano),
		"channel":      r.Channel.String(),
		"arfcn":        uint32(r.Channel.ARFCN),
		"timeslot":     uint32(r.Channel.Timeslot),
		"uplink":       r.Uplink,
		"frame_number": r.FrameNumber,
	}
	if r.MessageType != "" {
		out["type"] = r.MessageType
	}
	if r.Identity != "" {
		out["identity"] = r.Identity
	}
	if r.Summary != "" {
		out["summary"] = r.Summary
	}
	if len(r.Labels) > 0 {
		labels := make(map[string]any, len(r.Labels))
		for k, v := range r.Labels {
			labels[k] = v
		}
		out["labels"] = labels
	}
	if r.Error != "" {
		out["error"] = r.Error
		out["raw"] = fmt.Sprintf("%x", r.RawPayload)
	}
	return out
}

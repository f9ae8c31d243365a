// Package source implements the inputs that deliver GSMTAP carried layer 3
// frames to the pipeline.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/log"
	"firestige.xyz/gsml3/internal/source/pcap"
	"firestige.xyz/gsml3/internal/source/udp"
)

// Source delivers layer 3 packets.
type Source interface {
	Name() string
	Start(ctx context.Context) error
	// Next returns the next packet, or io.EOF once the input is exhausted or
	// the source is stopped.
	Next() (core.Packet, error)
	Stop() error
}

// New creates the source selected by cfg.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case "pcap":
		src, err := pcap.NewSource(cfg.File, cfg.Port)
		if err != nil {
			return nil, err
		}
		return src, nil
	case "udp":
		src, err := udp.NewSource(cfg.Listen, cfg.ReadBuffer)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrSourceNotFound, cfg.Type)
	}
}

// Pump feeds every packet of src to submit until the input ends or ctx is
// done. It returns the number of submitted packets.
func Pump(ctx context.Context, src Source, submit func(core.Packet) error) (int, error) {
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, nil
		}
		pkt, err := src.Next()
		if errors.Is(err, io.EOF) {
			log.GetLogger().WithFields(map[string]interface{}{"source": src.Name(), "packets": n}).Info("source exhausted")
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("source %s: %w", src.Name(), err)
		}
		if err := submit(pkt); err != nil {
			return n, err
		}
		n++
	}
}

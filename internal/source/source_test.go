package source

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/core"
)

type sliceSource struct {
	packets []core.Packet
	err     error
}

func (s *sliceSource) Name() string                    { return "slice" }
func (s *sliceSource) Start(ctx context.Context) error { return nil }
func (s *sliceSource) Stop() error                     { return nil }

func (s *sliceSource) Next() (core.Packet, error) {
	if len(s.packets) == 0 {
		if s.err != nil {
			return core.Packet{}, s.err
		}
		return core.Packet{}, io.EOF
	}
	p := s.packets[0]
	s.packets = s.packets[1:]
	return p, nil
}

func TestNew(t *testing.T) {
	src, err := New(config.SourceConfig{Type: "udp", Listen: "127.0.0.1:0"})
	require.NoError(t, err)
	assert.Equal(t, "udp", src.Name())

	src, err = New(config.SourceConfig{Type: "pcap", File: "trace.pcap", Port: 4729})
	require.NoError(t, err)
	assert.Equal(t, "pcap", src.Name())

	_, err = New(config.SourceConfig{Type: "afpacket"})
	assert.ErrorIs(t, err, core.ErrSourceNotFound)
}

func TestPump(t *testing.T) {
	src := &sliceSource{packets: []core.Packet{{FrameNumber: 1}, {FrameNumber: 2}}}
	var got []uint32
	n, err := Pump(context.Background(), src, func(p core.Packet) error {
		got = append(got, p.FrameNumber)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint32{1, 2}, got)
}

func TestPumpErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &sliceSource{packets: []core.Packet{{}}, err: boom}
	n, err := Pump(context.Background(), src, func(core.Packet) error { return nil })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)

	src = &sliceSource{packets: []core.Packet{{}, {}}}
	n, err = Pump(context.Background(), src, func(core.Packet) error { return core.ErrPipelineStopped })
	assert.ErrorIs(t, err, core.ErrPipelineStopped)
	assert.Equal(t, 0, n)
}

func TestPumpStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &sliceSource{packets: []core.Packet{{}}}
	n, err := Pump(ctx, src, func(core.Packet) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

// Package udp receives live GSMTAP datagrams.
package udp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/gsmtap"
	"firestige.xyz/gsml3/internal/log"
	"firestige.xyz/gsml3/internal/metrics"
	"github.com/google/gopacket"
)

const (
	sourceName = "udp"
	// maxDatagram covers a GSMTAP header plus the largest Um burst payload
	maxDatagram = 2048
)

// Source listens on a UDP socket, one GSMTAP frame per datagram.
type Source struct {
	listen     string
	readBuffer int

	mu   sync.Mutex
	conn *net.UDPConn
	buf  []byte
	tap  gsmtap.GSMTAP
}

func NewSource(listen string, readBuffer int) (*Source, error) {
	if listen == "" {
		return nil, fmt.Errorf("%w: udp source requires a listen address", core.ErrConfigInvalid)
	}
	return &Source{listen: listen, readBuffer: readBuffer, buf: make([]byte, maxDatagram)}, nil
}

func (s *Source) Name() string { return sourceName }

// Addr returns the bound address, nil before Start.
func (s *Source) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Start binds the socket. Cancelling ctx stops the source.
func (s *Source) Start(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", s.listen)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", s.listen, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.listen, err)
	}
	if s.readBuffer > 0 {
		if err := conn.SetReadBuffer(s.readBuffer); err != nil {
			log.GetLogger().WithError(err).Warn("failed to set socket read buffer")
		}
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	log.GetLogger().WithField("listen", conn.LocalAddr().String()).Info("udp source started")
	return nil
}

// Next blocks for the next datagram carrying a dedicated channel frame.
func (s *Source) Next() (core.Packet, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return core.Packet{}, io.EOF
	}

	for {
		n, _, err := conn.ReadFromUDP(s.buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return core.Packet{}, io.EOF
			}
			return core.Packet{}, err
		}
		if err := s.tap.DecodeFromBytes(s.buf[:n], gopacket.NilDecodeFeedback); err != nil {
			metrics.SourcePacketsTotal.WithLabelValues(sourceName, "invalid").Inc()
			log.GetLogger().WithError(err).Debug("skip datagram")
			continue
		}
		// ExtractL3 copies, so the buffer is free for the next read
		pkt, err := s.tap.ToPacket(time.Now())
		if err != nil {
			metrics.SourcePacketsTotal.WithLabelValues(sourceName, "filtered").Inc()
			continue
		}
		metrics.SourcePacketsTotal.WithLabelValues(sourceName, "accepted").Inc()
		return pkt, nil
	}
}

// Stop closes the socket and unblocks Next.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

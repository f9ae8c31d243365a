// Package pcap replays GSMTAP traffic from pcap and pcapng trace files.
package pcap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/gsmtap"
	"firestige.xyz/gsml3/internal/log"
	"firestige.xyz/gsml3/internal/metrics"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"golang.org/x/net/bpf"
)

const sourceName = "pcap"

type packetReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// Source reads a capture file and yields the layer 3 frames of every GSMTAP
// packet addressed to or from the configured port.
type Source struct {
	path string
	port uint16

	mu       sync.Mutex
	ctx      context.Context
	file     *os.File
	reader   packetReader
	linkType layers.LinkType
	vm       *bpf.VM
	stopped  bool

	parser  *gopacket.DecodingLayerParser
	decoded []gopacket.LayerType
	eth     layers.Ethernet
	sll     layers.LinuxSLL
	ip4     layers.IPv4
	ip6     layers.IPv6
	udp     layers.UDP
	tap     gsmtap.GSMTAP
	payload gopacket.Payload
}

// NewSource creates a file source. The file is opened by Start.
func NewSource(path string, port int) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: pcap source requires a file", core.ErrConfigInvalid)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", core.ErrConfigInvalid, port)
	}
	return &Source{path: path, port: uint16(port)}, nil
}

func (s *Source) Name() string { return sourceName }

// LinkType returns the link type of the opened capture.
func (s *Source) LinkType() layers.LinkType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkType
}

// Start opens the capture file, trying classic pcap first and pcapng second.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	reader, err := openReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("read %s: %w", s.path, err)
	}

	first, err := firstLayer(reader.LinkType())
	if err != nil {
		f.Close()
		return err
	}
	if reader.LinkType() == layers.LinkTypeEthernet {
		program, err := udpPortFilter(s.port)
		if err != nil {
			f.Close()
			return fmt.Errorf("assemble filter: %w", err)
		}
		vm, err := bpf.NewVM(program)
		if err != nil {
			f.Close()
			return fmt.Errorf("load filter: %w", err)
		}
		s.vm = vm
	}

	s.parser = gopacket.NewDecodingLayerParser(first,
		&s.eth, &s.sll, &s.ip4, &s.ip6, &s.udp, &s.tap, &s.payload)
	s.parser.IgnoreUnsupported = true
	s.file = f
	s.reader = reader
	s.linkType = reader.LinkType()
	s.ctx = ctx

	log.GetLogger().WithFields(map[string]interface{}{
		"file":     s.path,
		"linkType": s.linkType.String(),
		"port":     s.port,
	}).Info("pcap source started")
	return nil
}

func openReader(f *os.File) (packetReader, error) {
	r, err := pcapgo.NewReader(f)
	if err == nil {
		return r, nil
	}
	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}
	ng, ngErr := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if ngErr != nil {
		return nil, errors.Join(err, ngErr)
	}
	return ng, nil
}

func firstLayer(lt layers.LinkType) (gopacket.LayerType, error) {
	switch lt {
	case layers.LinkTypeEthernet:
		return layers.LayerTypeEthernet, nil
	case layers.LinkTypeLinuxSLL:
		return layers.LayerTypeLinuxSLL, nil
	case layers.LinkTypeRaw, layers.LinkTypeIPv4:
		return layers.LayerTypeIPv4, nil
	case layers.LinkTypeIPv6:
		return layers.LayerTypeIPv6, nil
	default:
		return 0, fmt.Errorf("%w: unsupported link type %s", core.ErrNotGSMTAP, lt)
	}
}

// Next returns the next layer 3 frame. Packets that are filtered out or do
// not carry a dedicated channel frame are counted and skipped.
func (s *Source) Next() (core.Packet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader == nil || s.stopped {
		return core.Packet{}, io.EOF
	}

	for {
		if s.ctx != nil && s.ctx.Err() != nil {
			return core.Packet{}, io.EOF
		}
		data, ci, err := s.reader.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return core.Packet{}, io.EOF
			}
			return core.Packet{}, err
		}

		if s.vm != nil {
			keep, err := s.vm.Run(data)
			if err != nil || keep == 0 {
				metrics.SourcePacketsTotal.WithLabelValues(sourceName, "filtered").Inc()
				continue
			}
		}

		pkt, err := s.decode(data, ci)
		if err != nil {
			result := "invalid"
			if errors.Is(err, core.ErrNotGSMTAP) {
				result = "filtered"
			}
			metrics.SourcePacketsTotal.WithLabelValues(sourceName, result).Inc()
			log.GetLogger().WithError(err).Debug("skip packet")
			continue
		}
		metrics.SourcePacketsTotal.WithLabelValues(sourceName, "accepted").Inc()
		return pkt, nil
	}
}

func (s *Source) decode(data []byte, ci gopacket.CaptureInfo) (core.Packet, error) {
	s.decoded = s.decoded[:0]
	// unsupported trailing layers are ignored; a decode error on a known
	// layer still leaves the earlier layers usable
	_ = s.parser.DecodeLayers(data, &s.decoded)

	var haveUDP, haveTap bool
	for _, lt := range s.decoded {
		switch lt {
		case layers.LayerTypeUDP:
			haveUDP = true
		case gsmtap.LayerTypeGSMTAP:
			haveTap = true
		}
	}
	if !haveUDP {
		return core.Packet{}, fmt.Errorf("%w: no UDP layer", core.ErrNotGSMTAP)
	}
	if uint16(s.udp.SrcPort) != s.port && uint16(s.udp.DstPort) != s.port {
		return core.Packet{}, fmt.Errorf("%w: port %d->%d", core.ErrNotGSMTAP, s.udp.SrcPort, s.udp.DstPort)
	}
	if !haveTap {
		// the UDP layer only hands over to GSMTAP on the well known port
		if err := s.tap.DecodeFromBytes(s.udp.Payload, gopacket.NilDecodeFeedback); err != nil {
			return core.Packet{}, err
		}
	}
	return s.tap.ToPacket(ci.Timestamp)
}

// Stop closes the capture file. Next returns io.EOF afterwards.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	if s.file == nil {
		return nil
	}
	return s.file.Close()
}

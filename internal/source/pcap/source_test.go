package pcap

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/bpf"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/gsmtap"
)

var (
	luReject   = []byte{0x05, 0x04, 0x11}
	imsiDetach = []byte{0x05, 0x01, 0x33, 0x08, 0x09, 0x10, 0x10, 0x10, 0x32, 0x54, 0x76, 0x98}
)

func udpPacket(t *testing.T, withEthernet bool, src, dst layers.UDPPort, payload ...gopacket.SerializableLayer) []byte {
	t.Helper()
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IPv4(10, 0, 0, 1),
		DstIP:    net.IPv4(10, 0, 0, 2),
	}
	udp := &layers.UDP{SrcPort: src, DstPort: dst}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	var ls []gopacket.SerializableLayer
	if withEthernet {
		ls = append(ls, &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
			DstMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 6},
			EthernetType: layers.EthernetTypeIPv4,
		})
	}
	ls = append(ls, ip, udp)
	ls = append(ls, payload...)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func tapLayers(subType uint8, arfcn uint16, l3 []byte) []gopacket.SerializableLayer {
	return []gopacket.SerializableLayer{
		&gsmtap.GSMTAP{Type: gsmtap.TypeUm, Timeslot: 2, ARFCN: arfcn, FrameNumber: 42, SubType: subType},
		gopacket.Payload(gsmtap.UIFrame(l3)),
	}
}

func writePcap(t *testing.T, lt layers.LinkType, packets ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, lt))
	for i, data := range packets {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000+int64(i), 0),
			CaptureLength: len(data),
			Length:        len(data),
		}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return path
}

func drain(t *testing.T, s *Source) []core.Packet {
	t.Helper()
	var out []core.Packet
	for {
		pkt, err := s.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		out = append(out, pkt)
	}
}

func TestNewSourceValidation(t *testing.T) {
	_, err := NewSource("", gsmtap.Port)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
	_, err = NewSource("x.pcap", 0)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
	_, err = NewSource("x.pcap", 70000)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestReadEthernetTrace(t *testing.T) {
	path := writePcap(t, layers.LinkTypeEthernet,
		udpPacket(t, true, 40000, gsmtap.Port, tapLayers(gsmtap.ChannelSDCCH8, 871|gsmtap.ARFCNUplink, imsiDetach)...),
		udpPacket(t, true, 40000, gsmtap.Port, tapLayers(gsmtap.ChannelBCCH, 871, luReject)...),
		udpPacket(t, true, 40000, 53, gopacket.Payload([]byte{1, 2, 3})),
		udpPacket(t, true, 40000, gsmtap.Port, tapLayers(gsmtap.ChannelSDCCH4, 10, luReject)...),
	)

	s, err := NewSource(path, gsmtap.Port)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Equal(t, layers.LinkTypeEthernet, s.LinkType())

	got := drain(t, s)
	require.Len(t, got, 2)

	assert.Equal(t, imsiDetach, got[0].Payload)
	assert.True(t, got[0].Uplink)
	assert.Equal(t, core.ChannelKey{ARFCN: 871, Timeslot: 2, SubType: gsmtap.ChannelSDCCH8}, got[0].Channel)
	assert.Equal(t, uint32(42), got[0].FrameNumber)
	assert.True(t, got[0].Timestamp.Equal(time.Unix(1700000000, 0)))

	assert.Equal(t, luReject, got[1].Payload)
	assert.False(t, got[1].Uplink)
	assert.Equal(t, uint16(10), got[1].Channel.ARFCN)
}

func TestCustomPortFallsBackToPayload(t *testing.T) {
	path := writePcap(t, layers.LinkTypeEthernet,
		udpPacket(t, true, 5000, 6000, tapLayers(gsmtap.ChannelSDCCH, 20, luReject)...),
		udpPacket(t, true, 7000, 6000, tapLayers(gsmtap.ChannelSDCCH, 20, luReject)...),
	)

	s, err := NewSource(path, 5000)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	got := drain(t, s)
	require.Len(t, got, 1)
	assert.Equal(t, luReject, got[0].Payload)
}

func TestRawIPTrace(t *testing.T) {
	path := writePcap(t, layers.LinkTypeRaw,
		udpPacket(t, false, gsmtap.Port, gsmtap.Port, tapLayers(gsmtap.ChannelSDCCH|gsmtap.ChannelACCH, 1, nil)...),
		udpPacket(t, false, 40000, gsmtap.Port, tapLayers(gsmtap.ChannelTCHF, 1, luReject)...),
	)

	s, err := NewSource(path, gsmtap.Port)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	got := drain(t, s)
	require.Len(t, got, 1)
	assert.Equal(t, core.ChannelKey{ARFCN: 1, Timeslot: 2, SubType: gsmtap.ChannelTCHF}, got[0].Channel)
}

func TestReadPcapNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.pcapng")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	require.NoError(t, err)
	data := udpPacket(t, true, 40000, gsmtap.Port, tapLayers(gsmtap.ChannelSDCCH, 5, luReject)...)
	require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
		Timestamp:      time.Unix(1700000000, 0),
		CaptureLength:  len(data),
		Length:         len(data),
		InterfaceIndex: 0,
	}, data))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	s, err := NewSource(path, gsmtap.Port)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	got := drain(t, s)
	require.Len(t, got, 1)
	assert.Equal(t, luReject, got[0].Payload)
}

func TestStartErrors(t *testing.T) {
	s, err := NewSource(filepath.Join(t.TempDir(), "missing.pcap"), gsmtap.Port)
	require.NoError(t, err)
	assert.Error(t, s.Start(context.Background()))

	garbage := filepath.Join(t.TempDir(), "garbage.pcap")
	require.NoError(t, os.WriteFile(garbage, []byte("not a capture file at all"), 0o644))
	s, err = NewSource(garbage, gsmtap.Port)
	require.NoError(t, err)
	assert.Error(t, s.Start(context.Background()))
}

func TestStopEndsInput(t *testing.T) {
	path := writePcap(t, layers.LinkTypeEthernet,
		udpPacket(t, true, 40000, gsmtap.Port, tapLayers(gsmtap.ChannelSDCCH, 5, luReject)...),
	)
	s, err := NewSource(path, gsmtap.Port)
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestCancelledContextEndsInput(t *testing.T) {
	path := writePcap(t, layers.LinkTypeEthernet,
		udpPacket(t, true, 40000, gsmtap.Port, tapLayers(gsmtap.ChannelSDCCH, 5, luReject)...),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewSource(path, gsmtap.Port)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	defer s.Stop()
	cancel()

	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestUDPPortFilter(t *testing.T) {
	program, err := udpPortFilter(gsmtap.Port)
	require.NoError(t, err)
	vm, err := bpf.NewVM(program)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		keep bool
	}{
		{"destination port", udpPacket(t, true, 40000, gsmtap.Port, gopacket.Payload{1}), true},
		{"source port", udpPacket(t, true, gsmtap.Port, 40000, gopacket.Payload{1}), true},
		{"other port", udpPacket(t, true, 40000, 53, gopacket.Payload{1}), false},
		{"not IPv4", []byte{0, 1, 2, 3, 4, 5, 0, 1, 2, 3, 4, 6, 0x86, 0xdd, 0x60}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := vm.Run(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.keep, n > 0)
		})
	}
}

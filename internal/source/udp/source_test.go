package udp

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/gsmtap"
)

var luReject = []byte{0x05, 0x04, 0x11}

func datagram(t *testing.T, subType uint8, l3 []byte) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true},
		&gsmtap.GSMTAP{Type: gsmtap.TypeUm, Timeslot: 3, ARFCN: 100 | gsmtap.ARFCNUplink, SubType: subType, FrameNumber: 9},
		gopacket.Payload(gsmtap.UIFrame(l3)),
	))
	return buf.Bytes()
}

func startSource(t *testing.T, ctx context.Context) (*Source, *net.UDPConn) {
	t.Helper()
	s, err := NewSource("127.0.0.1:0", 1<<16)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { s.Stop() })

	conn, err := net.DialUDP("udp", nil, s.Addr().(*net.UDPAddr))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return s, conn
}

func TestNewSourceRequiresAddress(t *testing.T) {
	_, err := NewSource("", 0)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
}

func TestReceive(t *testing.T) {
	s, conn := startSource(t, context.Background())

	_, err := conn.Write([]byte{0xff, 0x00})
	require.NoError(t, err)
	_, err = conn.Write(datagram(t, gsmtap.ChannelBCCH, luReject))
	require.NoError(t, err)
	_, err = conn.Write(datagram(t, gsmtap.ChannelSDCCH8, luReject))
	require.NoError(t, err)

	pkt, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, luReject, pkt.Payload)
	assert.True(t, pkt.Uplink)
	assert.Equal(t, core.ChannelKey{ARFCN: 100, Timeslot: 3, SubType: gsmtap.ChannelSDCCH8}, pkt.Channel)
	assert.Equal(t, uint32(9), pkt.FrameNumber)
	assert.WithinDuration(t, time.Now(), pkt.Timestamp, 5*time.Second)
}

func TestStopUnblocksNext(t *testing.T) {
	s, _ := startSource(t, context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := s.Next()
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.Equal(t, io.EOF, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Stop")
	}
}

func TestContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s, _ := startSource(t, ctx)
	cancel()

	assert.Eventually(t, func() bool {
		_, err := s.Next()
		return err == io.EOF
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNextBeforeStart(t *testing.T) {
	s, err := NewSource("127.0.0.1:0", 0)
	require.NoError(t, err)
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
	assert.Nil(t, s.Addr())
}

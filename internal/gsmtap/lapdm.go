package gsmtap

import (
	"fmt"
	"time"

	"firestige.xyz/gsml3/internal/core"
)

// sacchL1Header is the power control and timing advance header of SACCH blocks.
const sacchL1Header = 2

// LAPDm control field patterns, P/F bit masked.
const (
	controlUI   = 0x03
	controlSABM = 0x2f
	pfBit       = 0x10
)

// ExtractL3 returns the layer 3 octets carried by a Um frame.
func (g *GSMTAP) ExtractL3() ([]byte, error) {
	if g.Type != TypeUm {
		return nil, fmt.Errorf("%w: payload type %d", core.ErrNoLayer3, g.Type)
	}
	frame := g.Payload
	switch g.SubType &^ ChannelACCH {
	case ChannelSDCCH, ChannelSDCCH4, ChannelSDCCH8, ChannelTCHF, ChannelTCHH:
	default:
		// common control channels carry RR only
		return nil, fmt.Errorf("%w: channel type 0x%02x", core.ErrNoLayer3, g.SubType)
	}
	if g.SubType&ChannelACCH != 0 {
		if len(frame) < sacchL1Header {
			return nil, fmt.Errorf("%w: SACCH block of %d octets", core.ErrFrameTooShort, len(frame))
		}
		frame = frame[sacchL1Header:]
	}
	return LAPDmInfo(frame)
}

// LAPDmInfo returns the information field of an unsegmented I, UI or SABM
// frame.
func LAPDmInfo(frame []byte) ([]byte, error) {
	if len(frame) < 3 {
		return nil, fmt.Errorf("%w: LAPDm frame of %d octets", core.ErrFrameTooShort, len(frame))
	}
	control, length := frame[1], frame[2]
	isI := control&0x01 == 0
	masked := control &^ pfBit
	if !isI && masked != controlUI && masked != controlSABM {
		return nil, fmt.Errorf("%w: LAPDm control 0x%02x", core.ErrNoLayer3, control)
	}
	if length&0x02 != 0 {
		return nil, core.ErrSegmentedFrame
	}
	n := int(length >> 2)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty information field", core.ErrNoLayer3)
	}
	if 3+n > len(frame) {
		return nil, fmt.Errorf("%w: information field of %d octets in %d", core.ErrFrameTooShort, n, len(frame)-3)
	}
	out := make([]byte, n)
	copy(out, frame[3:3+n])
	return out, nil
}

// LAPDmFrame builds a 23 octet LAPDm frame for SAPI 0 carrying info, padded
// with 0x2b. control is sent as given.
func LAPDmFrame(control byte, commandResponse bool, info []byte) []byte {
	frame := make([]byte, 23)
	frame[0] = 0x01 // EA, SAPI 0
	if commandResponse {
		frame[0] |= 0x02
	}
	frame[1] = control
	frame[2] = byte(len(info))<<2 | 0x01 // EL
	copy(frame[3:], info)
	for i := 3 + len(info); i < len(frame); i++ {
		frame[i] = 0x2b
	}
	return frame
}

// UIFrame builds an unnumbered information frame.
func UIFrame(info []byte) []byte {
	return LAPDmFrame(controlUI, false, info)
}

// ToPacket extracts the layer 3 octets and the channel identity of a frame.
func (g *GSMTAP) ToPacket(ts time.Time) (core.Packet, error) {
	l3, err := g.ExtractL3()
	if err != nil {
		return core.Packet{}, err
	}
	return core.Packet{
		Timestamp:   ts,
		Channel:     g.Channel(),
		Uplink:      g.Uplink(),
		FrameNumber: g.FrameNumber,
		Payload:     l3,
	}, nil
}

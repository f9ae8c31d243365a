// Package gsmtap implements the GSMTAP pseudo header as a gopacket layer and
// the LAPDm unwrapping that exposes the layer 3 octets of Um frames.
package gsmtap

import (
	"encoding/binary"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"firestige.xyz/gsml3/internal/core"
)

// Port is the registered GSMTAP UDP port.
const Port = 4729

const (
	Version      = 2
	HeaderLength = 16 // octets, version 2 without options
)

// Payload types.
const (
	TypeUm      uint8 = 0x01
	TypeAbis    uint8 = 0x02
	TypeUmBurst uint8 = 0x03
)

// ARFCN flags.
const (
	ARFCNPCS    uint16 = 0x8000
	ARFCNUplink uint16 = 0x4000
	ARFCNMask   uint16 = 0x3fff
)

// Um channel sub types.
const (
	ChannelUnknown uint8 = 0x00
	ChannelBCCH    uint8 = 0x01
	ChannelCCCH    uint8 = 0x02
	ChannelRACH    uint8 = 0x03
	ChannelAGCH    uint8 = 0x04
	ChannelPCH     uint8 = 0x05
	ChannelSDCCH   uint8 = 0x06
	ChannelSDCCH4  uint8 = 0x07
	ChannelSDCCH8  uint8 = 0x08
	ChannelTCHF    uint8 = 0x09
	ChannelTCHH    uint8 = 0x0a
	ChannelACCH    uint8 = 0x80 // flag: associated control channel
)

// LayerTypeGSMTAP is registered for UDP port 4729.
var LayerTypeGSMTAP = gopacket.RegisterLayerType(1729, gopacket.LayerTypeMetadata{
	Name:    "GSMTAP",
	Decoder: gopacket.DecodeFunc(decodeGSMTAP),
})

func init() {
	layers.RegisterUDPPortLayerType(layers.UDPPort(Port), LayerTypeGSMTAP)
}

// GSMTAP is the version 2 pseudo header.
type GSMTAP struct {
	layers.BaseLayer
	Version     uint8
	HeaderWords uint8 // header length in 32 bit words
	Type        uint8
	Timeslot    uint8
	ARFCN       uint16 // including the PCS and uplink flags
	SignalDBm   int8
	SNR         int8
	FrameNumber uint32
	SubType     uint8
	Antenna     uint8
	SubSlot     uint8
}

func (g *GSMTAP) LayerType() gopacket.LayerType { return LayerTypeGSMTAP }

func (g *GSMTAP) CanDecode() gopacket.LayerClass { return LayerTypeGSMTAP }

func (g *GSMTAP) NextLayerType() gopacket.LayerType { return gopacket.LayerTypePayload }

// Uplink reports whether the frame was sent by the mobile station.
func (g *GSMTAP) Uplink() bool { return g.ARFCN&ARFCNUplink != 0 }

// Channel returns the key identifying the logical channel the frame was seen on.
func (g *GSMTAP) Channel() core.ChannelKey {
	return core.ChannelKey{
		ARFCN:    g.ARFCN & ARFCNMask,
		Timeslot: g.Timeslot,
		SubType:  g.SubType,
		SubSlot:  g.SubSlot,
	}
}

func (g *GSMTAP) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < HeaderLength {
		df.SetTruncated()
		return fmt.Errorf("%w: %d octets, header needs %d", core.ErrNotGSMTAP, len(data), HeaderLength)
	}
	if data[0] != Version {
		return fmt.Errorf("%w: version %d", core.ErrNotGSMTAP, data[0])
	}
	hdrLen := int(data[1]) * 4
	if hdrLen < HeaderLength || hdrLen > len(data) {
		df.SetTruncated()
		return fmt.Errorf("%w: header length %d octets in %d", core.ErrNotGSMTAP, hdrLen, len(data))
	}
	g.Version = data[0]
	g.HeaderWords = data[1]
	g.Type = data[2]
	g.Timeslot = data[3]
	g.ARFCN = binary.BigEndian.Uint16(data[4:6])
	g.SignalDBm = int8(data[6])
	g.SNR = int8(data[7])
	g.FrameNumber = binary.BigEndian.Uint32(data[8:12])
	g.SubType = data[12]
	g.Antenna = data[13]
	g.SubSlot = data[14]
	g.BaseLayer = layers.BaseLayer{Contents: data[:hdrLen], Payload: data[hdrLen:]}
	return nil
}

// SerializeTo writes a version 2 header without options in front of the
// payload already in b.
func (g *GSMTAP) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	bytes, err := b.PrependBytes(HeaderLength)
	if err != nil {
		return err
	}
	version, words := g.Version, g.HeaderWords
	if version == 0 {
		version = Version
	}
	if words == 0 || opts.FixLengths {
		words = HeaderLength / 4
	}
	bytes[0] = version
	bytes[1] = words
	bytes[2] = g.Type
	bytes[3] = g.Timeslot
	binary.BigEndian.PutUint16(bytes[4:6], g.ARFCN)
	bytes[6] = byte(g.SignalDBm)
	bytes[7] = byte(g.SNR)
	binary.BigEndian.PutUint32(bytes[8:12], g.FrameNumber)
	bytes[12] = g.SubType
	bytes[13] = g.Antenna
	bytes[14] = g.SubSlot
	bytes[15] = 0
	return nil
}

func decodeGSMTAP(data []byte, p gopacket.PacketBuilder) error {
	g := &GSMTAP{}
	if err := g.DecodeFromBytes(data, p); err != nil {
		return err
	}
	p.AddLayer(g)
	return p.NextDecoder(g.NextLayerType())
}

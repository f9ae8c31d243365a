// Package l3 implements the GSM 04.08 layer 3 bit buffer and the information
// element codecs shared by the message packages.
package l3

import (
	"encoding/hex"
	"fmt"
	"strings"

	"firestige.xyz/gsml3/internal/core"
)

// Frame is an ordered sequence of bits addressed MSB first. Codecs never keep a
// cursor inside the frame: every read and write takes an explicit bit offset and
// every element codec returns the advanced offset.
type Frame struct {
	buf []byte
}

// NewFrame allocates a zeroed frame of the given number of octets.
func NewFrame(octets int) *Frame {
	if octets < 0 {
		octets = 0
	}
	return &Frame{buf: make([]byte, octets)}
}

// FrameFromBytes wraps a copy of b.
func FrameFromBytes(b []byte) *Frame {
	buf := make([]byte, len(b))
	copy(buf, b)
	return &Frame{buf: buf}
}

// ParseHex builds a frame from a hex string. Spaces, colons and a leading 0x
// are ignored.
func ParseHex(s string) (*Frame, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	s = strings.NewReplacer(" ", "", ":", "", "\t", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex frame: %w", err)
	}
	return &Frame{buf: b}, nil
}

// Len returns the frame length in bits.
func (f *Frame) Len() int {
	return len(f.buf) * 8
}

// Octets returns the frame length in octets.
func (f *Frame) Octets() int {
	return len(f.buf)
}

// Bytes returns the underlying octets.
func (f *Frame) Bytes() []byte {
	return f.buf
}

// Hex returns the frame as a lower-case hex string.
func (f *Frame) Hex() string {
	return hex.EncodeToString(f.buf)
}

// String returns the frame as space separated hex octets.
func (f *Frame) String() string {
	var sb strings.Builder
	for i, b := range f.buf {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02x", b)
	}
	return sb.String()
}

// Remaining returns the number of bits after pos, never negative.
func (f *Frame) Remaining(pos int) int {
	r := f.Len() - pos
	if r < 0 {
		return 0
	}
	return r
}

// ReadField reads width bits (at most 64) starting at bit offset pos.
func (f *Frame) ReadField(pos, width int) (uint64, error) {
	if width < 0 || width > 64 || pos < 0 {
		return 0, fmt.Errorf("%w: field of %d bits at offset %d", core.ErrInvalidElement, width, pos)
	}
	if pos+width > f.Len() {
		return 0, fmt.Errorf("%w: need %d bits at offset %d, frame has %d", core.ErrFrameTooShort, width, pos, f.Len())
	}
	var v uint64
	for i := 0; i < width; i++ {
		bit := pos + i
		v <<= 1
		if f.buf[bit>>3]&(0x80>>(bit&7)) != 0 {
			v |= 1
		}
	}
	return v, nil
}

// WriteField writes the low width bits of v starting at bit offset pos.
func (f *Frame) WriteField(pos int, v uint64, width int) error {
	if width < 0 || width > 64 || pos < 0 {
		return fmt.Errorf("%w: field of %d bits at offset %d", core.ErrInvalidElement, width, pos)
	}
	if pos+width > f.Len() {
		return fmt.Errorf("%w: %d bits at offset %d, frame has %d", core.ErrFrameOverflow, width, pos, f.Len())
	}
	for i := 0; i < width; i++ {
		bit := pos + i
		mask := byte(0x80 >> (bit & 7))
		if v&(1<<(width-1-i)) != 0 {
			f.buf[bit>>3] |= mask
		} else {
			f.buf[bit>>3] &^= mask
		}
	}
	return nil
}

// ReadOctets copies n octets starting at bit offset pos.
func (f *Frame) ReadOctets(pos, n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative octet count %d", core.ErrInvalidElement, n)
	}
	if pos+8*n > f.Len() {
		return nil, fmt.Errorf("%w: need %d octets at offset %d, frame has %d bits", core.ErrFrameTooShort, n, pos, f.Len())
	}
	out := make([]byte, n)
	if pos&7 == 0 {
		copy(out, f.buf[pos>>3:])
		return out, nil
	}
	for i := range out {
		v, err := f.ReadField(pos+8*i, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// WriteOctets writes b starting at bit offset pos.
func (f *Frame) WriteOctets(pos int, b []byte) error {
	if pos+8*len(b) > f.Len() {
		return fmt.Errorf("%w: %d octets at offset %d, frame has %d bits", core.ErrFrameOverflow, len(b), pos, f.Len())
	}
	if pos&7 == 0 {
		copy(f.buf[pos>>3:], b)
		return nil
	}
	for i, v := range b {
		if err := f.WriteField(pos+8*i, uint64(v), 8); err != nil {
			return err
		}
	}
	return nil
}

// PD returns the protocol discriminator from bits 4-1 of the first octet.
func (f *Frame) PD() (ProtocolDiscriminator, error) {
	v, err := f.ReadField(4, 4)
	if err != nil {
		return 0, err
	}
	return ProtocolDiscriminator(v), nil
}

// MTI returns the raw message type octet.
func (f *Frame) MTI() (uint8, error) {
	v, err := f.ReadField(8, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

package l3

import (
	"fmt"

	"firestige.xyz/gsml3/internal/core"
)

// LAI is the location area identification (10.5.1.3), a five octet V element.
type LAI struct {
	MCC string
	MNC string
	LAC uint16
}

// LAILength is the width of the value part in octets.
const LAILength = 5

// NewLAI validates a three digit MCC and a two or three digit MNC.
func NewLAI(mcc, mnc string, lac uint16) (LAI, error) {
	if len(mcc) != 3 || !isDigits(mcc) {
		return LAI{}, fmt.Errorf("%w: MCC %q must be three digits", core.ErrInvalidElement, mcc)
	}
	if (len(mnc) != 2 && len(mnc) != 3) || !isDigits(mnc) {
		return LAI{}, fmt.Errorf("%w: MNC %q must be two or three digits", core.ErrInvalidElement, mnc)
	}
	return LAI{MCC: mcc, MNC: mnc, LAC: lac}, nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func (l LAI) Encode(f *Frame, pos int) (int, error) {
	if _, err := NewLAI(l.MCC, l.MNC, l.LAC); err != nil {
		return pos, err
	}
	mcc := []uint64{uint64(l.MCC[0] - '0'), uint64(l.MCC[1] - '0'), uint64(l.MCC[2] - '0')}
	mnc3 := uint64(0x0f)
	if len(l.MNC) == 3 {
		mnc3 = uint64(l.MNC[2] - '0')
	}
	octets := []uint64{
		mcc[1]<<4 | mcc[0],
		mnc3<<4 | mcc[2],
		uint64(l.MNC[1]-'0')<<4 | uint64(l.MNC[0]-'0'),
	}
	for i, v := range octets {
		if err := f.WriteField(pos+8*i, v, 8); err != nil {
			return pos, err
		}
	}
	if err := f.WriteField(pos+24, uint64(l.LAC), 16); err != nil {
		return pos, err
	}
	return pos + 8*LAILength, nil
}

func (l *LAI) Decode(f *Frame, pos int) (int, error) {
	v, err := f.ReadField(pos, 8*LAILength)
	if err != nil {
		return pos, err
	}
	nib := func(shift uint) uint64 { return (v >> shift) & 0x0f }
	// octets 1-3 occupy bits 39-16
	mcc := []uint64{nib(32), nib(36), nib(24)}
	mnc := []uint64{nib(16), nib(20)}
	if m3 := nib(28); m3 != 0x0f {
		mnc = append(mnc, m3)
	}
	digits := func(ds []uint64) (string, error) {
		b := make([]byte, len(ds))
		for i, d := range ds {
			if d > 9 {
				return "", fmt.Errorf("%w: LAI digit 0x%x", core.ErrInvalidElement, d)
			}
			b[i] = byte('0' + d)
		}
		return string(b), nil
	}
	if l.MCC, err = digits(mcc); err != nil {
		return pos, err
	}
	if l.MNC, err = digits(mnc); err != nil {
		return pos, err
	}
	l.LAC = uint16(v & 0xffff)
	return pos + 8*LAILength, nil
}

// EncodeTV writes the element preceded by its identifier.
func (l LAI) EncodeTV(f *Frame, pos int, iei uint8) (int, error) {
	if err := f.WriteField(pos, uint64(iei), 8); err != nil {
		return pos, err
	}
	return l.Encode(f, pos+8)
}

// DecodeTV skips the identifier octet at pos.
func (l *LAI) DecodeTV(f *Frame, pos int) (int, error) {
	return l.Decode(f, pos+8)
}

func (l LAI) String() string {
	return fmt.Sprintf("MCC=%s MNC=%s LAC=0x%04x", l.MCC, l.MNC, l.LAC)
}

package l3

import (
	"fmt"
	"unicode/utf16"

	"firestige.xyz/gsml3/internal/core"
)

// NameCoding is the coding scheme of a network name.
type NameCoding uint8

const (
	CodingGSM7 NameCoding = 0
	CodingUCS2 NameCoding = 1
)

func (c NameCoding) String() string {
	switch c {
	case CodingGSM7:
		return "gsm7"
	case CodingUCS2:
		return "ucs2"
	default:
		return fmt.Sprintf("coding(%d)", uint8(c))
	}
}

func (c NameCoding) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// NetworkName is the full or short network name (10.5.3.5a), a TLV element.
type NetworkName struct {
	Name               string
	Coding             NameCoding
	AddCountryInitials bool
}

// NewNetworkName returns a GSM 7 bit coded name when every character is in
// the supported alphabet and falls back to UCS2 otherwise.
func NewNetworkName(name string) NetworkName {
	if _, err := gsm7Septets(name); err == nil {
		return NetworkName{Name: name, Coding: CodingGSM7}
	}
	return NetworkName{Name: name, Coding: CodingUCS2}
}

func (n NetworkName) text() ([]byte, uint8, error) {
	switch n.Coding {
	case CodingGSM7:
		septets, err := gsm7Septets(n.Name)
		if err != nil {
			return nil, 0, err
		}
		packed := packGSM7(septets)
		return packed, uint8(8*len(packed) - 7*len(septets)), nil
	case CodingUCS2:
		units := utf16.Encode([]rune(n.Name))
		out := make([]byte, 0, 2*len(units))
		for _, u := range units {
			out = append(out, byte(u>>8), byte(u))
		}
		return out, 0, nil
	default:
		return nil, 0, fmt.Errorf("%w: network name coding %d", core.ErrInvalidElement, uint8(n.Coding))
	}
}

func (n NetworkName) LengthV() int {
	b, _, err := n.text()
	if err != nil {
		return 1
	}
	return 1 + len(b)
}

func (n NetworkName) LengthTLV() int {
	return 2 + n.LengthV()
}

func (n NetworkName) EncodeTLV(f *Frame, pos int, iei uint8) (int, error) {
	return encodeTLV(f, pos, iei, n)
}

func (n *NetworkName) DecodeTLV(f *Frame, pos int) (int, error) {
	return decodeTLV(f, pos, n)
}

func (n NetworkName) encodeValue(f *Frame, pos int) (int, error) {
	b, spare, err := n.text()
	if err != nil {
		return pos, err
	}
	oct3 := uint64(0x80) | uint64(n.Coding&0x07)<<4 | uint64(spare&0x07)
	if n.AddCountryInitials {
		oct3 |= 0x08
	}
	if err := f.WriteField(pos, oct3, 8); err != nil {
		return pos, err
	}
	if err := f.WriteOctets(pos+8, b); err != nil {
		return pos, err
	}
	return pos + 8 + 8*len(b), nil
}

func (n *NetworkName) decodeValue(f *Frame, pos, octets int) (int, error) {
	if octets < 1 {
		return pos, fmt.Errorf("%w: empty network name", core.ErrInvalidElement)
	}
	oct3, err := f.ReadField(pos, 8)
	if err != nil {
		return pos, err
	}
	b, err := f.ReadOctets(pos+8, octets-1)
	if err != nil {
		return pos, err
	}
	n.Coding = NameCoding((oct3 >> 4) & 0x07)
	n.AddCountryInitials = oct3&0x08 != 0
	switch n.Coding {
	case CodingGSM7:
		count := (8*len(b) - int(oct3&0x07)) / 7
		n.Name = gsm7String(unpackGSM7(b, count))
	case CodingUCS2:
		if len(b)%2 != 0 {
			return pos, fmt.Errorf("%w: UCS2 name of odd length", core.ErrInvalidElement)
		}
		units := make([]uint16, len(b)/2)
		for i := range units {
			units[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
		}
		n.Name = string(utf16.Decode(units))
	default:
		return pos, fmt.Errorf("%w: network name coding %d", core.ErrInvalidElement, uint8(n.Coding))
	}
	return pos + 8*octets, nil
}

func (n NetworkName) String() string {
	return fmt.Sprintf("%q (%s)", n.Name, n.Coding)
}

// gsm7Septets maps the part of the GSM default alphabet that is shared with
// ASCII, plus '@', '$' and '_'.
func gsm7Septets(s string) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		switch {
		case r == '@':
			out = append(out, 0x00)
		case r == '$':
			out = append(out, 0x02)
		case r == '_':
			out = append(out, 0x11)
		case r == '\n' || r == '\r':
			out = append(out, byte(r))
		case r >= ' ' && r <= 'Z' && r != '$' && r != '@',
			r >= 'a' && r <= 'z':
			out = append(out, byte(r))
		default:
			return nil, fmt.Errorf("%w: %q is not in the GSM 7 bit alphabet", core.ErrInvalidElement, r)
		}
	}
	return out, nil
}

func gsm7String(septets []byte) string {
	out := make([]byte, len(septets))
	for i, s := range septets {
		switch {
		case s == 0x00:
			out[i] = '@'
		case s == 0x02:
			out[i] = '$'
		case s == 0x11:
			out[i] = '_'
		case s == '\n' || s == '\r',
			s >= ' ' && s <= 'Z' && s != 0x24 && s != 0x40,
			s >= 'a' && s <= 'z':
			out[i] = s
		default:
			out[i] = '?'
		}
	}
	return string(out)
}

// packGSM7 packs septets LSB first: septet i starts at bit 7*i.
func packGSM7(septets []byte) []byte {
	out := make([]byte, (7*len(septets)+7)/8)
	for i, s := range septets {
		bit := 7 * i
		idx, shift := bit/8, uint(bit%8)
		out[idx] |= (s & 0x7f) << shift
		if shift > 1 {
			out[idx+1] |= (s & 0x7f) >> (8 - shift)
		}
	}
	return out
}

func unpackGSM7(b []byte, count int) []byte {
	out := make([]byte, 0, count)
	for i := 0; i < count; i++ {
		bit := 7 * i
		idx, shift := bit/8, uint(bit%8)
		if idx >= len(b) {
			break
		}
		v := b[idx] >> shift
		if shift > 1 && idx+1 < len(b) {
			v |= b[idx+1] << (8 - shift)
		}
		out = append(out, v&0x7f)
	}
	return out
}

package l3

import (
	"fmt"
	"strings"

	"firestige.xyz/gsml3/internal/core"
)

// MobileIDType is the type of identity field of a mobile identity (10.5.1.4).
type MobileIDType uint8

const (
	IdentityNone   MobileIDType = 0
	IdentityIMSI   MobileIDType = 1
	IdentityIMEI   MobileIDType = 2
	IdentityIMEISV MobileIDType = 3
	IdentityTMSI   MobileIDType = 4
)

func (t MobileIDType) String() string {
	switch t {
	case IdentityNone:
		return "none"
	case IdentityIMSI:
		return "IMSI"
	case IdentityIMEI:
		return "IMEI"
	case IdentityIMEISV:
		return "IMEISV"
	case IdentityTMSI:
		return "TMSI"
	default:
		return fmt.Sprintf("identity(%d)", uint8(t))
	}
}

func (t MobileIDType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// MobileIdentity carries an IMSI, IMEI or IMEISV as decimal digits, or a TMSI.
type MobileIdentity struct {
	Type   MobileIDType
	Digits string
	TMSI   uint32
}

const maxIdentityDigits = 16

// NewIMSI validates digits and returns an IMSI identity.
func NewIMSI(digits string) (MobileIdentity, error) {
	return newDigitIdentity(IdentityIMSI, digits)
}

// NewIMEI validates digits and returns an IMEI identity.
func NewIMEI(digits string) (MobileIdentity, error) {
	return newDigitIdentity(IdentityIMEI, digits)
}

// NewIMEISV validates digits and returns an IMEISV identity.
func NewIMEISV(digits string) (MobileIdentity, error) {
	return newDigitIdentity(IdentityIMEISV, digits)
}

// NewTMSI returns a TMSI identity.
func NewTMSI(tmsi uint32) MobileIdentity {
	return MobileIdentity{Type: IdentityTMSI, TMSI: tmsi}
}

func newDigitIdentity(t MobileIDType, digits string) (MobileIdentity, error) {
	if len(digits) == 0 || len(digits) > maxIdentityDigits {
		return MobileIdentity{}, fmt.Errorf("%w: %s needs 1 to %d digits, got %d", core.ErrInvalidElement, t, maxIdentityDigits, len(digits))
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return MobileIdentity{}, fmt.Errorf("%w: %s digit %q", core.ErrInvalidElement, t, c)
		}
	}
	return MobileIdentity{Type: t, Digits: digits}, nil
}

// LengthV returns the length of the value part in octets.
func (m MobileIdentity) LengthV() int {
	switch m.Type {
	case IdentityTMSI:
		return 5
	case IdentityNone:
		return 1
	default:
		// first digit shares octet 3 with the type, the rest are packed two per octet
		return 1 + len(m.Digits)/2
	}
}

// LengthLV returns the length including the length octet.
func (m MobileIdentity) LengthLV() int {
	return 1 + m.LengthV()
}

// LengthTLV returns the length including identifier and length octets.
func (m MobileIdentity) LengthTLV() int {
	return 2 + m.LengthV()
}

func (m MobileIdentity) EncodeLV(f *Frame, pos int) (int, error) {
	return encodeLV(f, pos, m)
}

func (m *MobileIdentity) DecodeLV(f *Frame, pos int) (int, error) {
	return decodeLV(f, pos, m)
}

func (m MobileIdentity) EncodeTLV(f *Frame, pos int, iei uint8) (int, error) {
	return encodeTLV(f, pos, iei, m)
}

// DecodeTLV skips the identifier octet at pos, which the caller has matched.
func (m *MobileIdentity) DecodeTLV(f *Frame, pos int) (int, error) {
	return decodeTLV(f, pos, m)
}

func (m MobileIdentity) encodeValue(f *Frame, pos int) (int, error) {
	switch m.Type {
	case IdentityNone:
		if err := f.WriteField(pos, 0xf0, 8); err != nil {
			return pos, err
		}
		return pos + 8, nil
	case IdentityTMSI:
		if err := f.WriteField(pos, 0xf0|uint64(IdentityTMSI), 8); err != nil {
			return pos, err
		}
		if err := f.WriteField(pos+8, uint64(m.TMSI), 32); err != nil {
			return pos, err
		}
		return pos + 40, nil
	case IdentityIMSI, IdentityIMEI, IdentityIMEISV:
	default:
		return pos, fmt.Errorf("%w: cannot encode %s", core.ErrInvalidElement, m.Type)
	}

	if len(m.Digits) == 0 {
		return pos, fmt.Errorf("%w: %s without digits", core.ErrInvalidElement, m.Type)
	}
	nibbles := make([]uint8, len(m.Digits))
	for i, c := range m.Digits {
		if c < '0' || c > '9' {
			return pos, fmt.Errorf("%w: %s digit %q", core.ErrInvalidElement, m.Type, c)
		}
		nibbles[i] = uint8(c - '0')
	}
	odd := uint64(len(nibbles) & 1)
	if err := f.WriteField(pos, uint64(nibbles[0])<<4|odd<<3|uint64(m.Type), 8); err != nil {
		return pos, err
	}
	pos += 8
	for i := 1; i < len(nibbles); i += 2 {
		hi := uint8(0x0f)
		if i+1 < len(nibbles) {
			hi = nibbles[i+1]
		}
		if err := f.WriteField(pos, uint64(hi)<<4|uint64(nibbles[i]), 8); err != nil {
			return pos, err
		}
		pos += 8
	}
	return pos, nil
}

func (m *MobileIdentity) decodeValue(f *Frame, pos, octets int) (int, error) {
	if octets < 1 {
		return pos, fmt.Errorf("%w: empty mobile identity", core.ErrInvalidElement)
	}
	oct3, err := f.ReadField(pos, 8)
	if err != nil {
		return pos, err
	}
	t := MobileIDType(oct3 & 0x07)
	odd := oct3&0x08 != 0
	*m = MobileIdentity{Type: t}

	switch t {
	case IdentityNone:
		if octets != 1 {
			return pos, fmt.Errorf("%w: no identity of %d octets", core.ErrInvalidElement, octets)
		}
		return pos + 8, nil
	case IdentityTMSI:
		if octets != 5 {
			return pos, fmt.Errorf("%w: TMSI identity of %d octets", core.ErrInvalidElement, octets)
		}
		v, err := f.ReadField(pos+8, 32)
		if err != nil {
			return pos, err
		}
		m.TMSI = uint32(v)
		return pos + 40, nil
	case IdentityIMSI, IdentityIMEI, IdentityIMEISV:
	default:
		return pos, fmt.Errorf("%w: mobile identity type %d", core.ErrInvalidElement, uint8(t))
	}

	var sb strings.Builder
	push := func(d uint64) error {
		if d > 9 {
			return fmt.Errorf("%w: %s digit 0x%x", core.ErrInvalidElement, t, d)
		}
		sb.WriteByte(byte('0' + d))
		return nil
	}
	if err := push(oct3 >> 4); err != nil {
		return pos, err
	}
	for i := 1; i < octets; i++ {
		v, err := f.ReadField(pos+8*i, 8)
		if err != nil {
			return pos, err
		}
		if err := push(v & 0x0f); err != nil {
			return pos, err
		}
		hi := v >> 4
		if i == octets-1 && !odd {
			if hi != 0x0f {
				return pos, fmt.Errorf("%w: %s even length without filler", core.ErrInvalidElement, t)
			}
			continue
		}
		if err := push(hi); err != nil {
			return pos, err
		}
	}
	m.Digits = sb.String()
	return pos + 8*octets, nil
}

func (m MobileIdentity) String() string {
	switch m.Type {
	case IdentityNone:
		return "no identity"
	case IdentityTMSI:
		return fmt.Sprintf("TMSI 0x%08x", m.TMSI)
	default:
		return m.Type.String() + " " + m.Digits
	}
}

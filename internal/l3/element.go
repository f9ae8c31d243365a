package l3

import (
	"fmt"

	"firestige.xyz/gsml3/internal/core"
)

// valueEncoder and valueDecoder are implemented by elements with a variable
// length value part.
type valueEncoder interface {
	LengthV() int
	encodeValue(f *Frame, pos int) (int, error)
}

type valueDecoder interface {
	decodeValue(f *Frame, pos, octets int) (int, error)
}

func encodeLV(f *Frame, pos int, e valueEncoder) (int, error) {
	n := e.LengthV()
	if n > 0xff {
		return pos, fmt.Errorf("%w: value of %d octets does not fit a length octet", core.ErrInvalidElement, n)
	}
	if err := f.WriteField(pos, uint64(n), 8); err != nil {
		return pos, err
	}
	end, err := e.encodeValue(f, pos+8)
	if err != nil {
		return pos, err
	}
	if end != pos+8+8*n {
		return pos, fmt.Errorf("%w: value wrote %d bits, length octet says %d", core.ErrLengthMismatch, end-pos-8, 8*n)
	}
	return end, nil
}

func decodeLV(f *Frame, pos int, e valueDecoder) (int, error) {
	n, err := f.ReadField(pos, 8)
	if err != nil {
		return pos, err
	}
	pos += 8
	if f.Remaining(pos) < int(n)*8 {
		return pos, fmt.Errorf("%w: length octet says %d octets, %d bits remain", core.ErrFrameTooShort, n, f.Remaining(pos))
	}
	end, err := e.decodeValue(f, pos, int(n))
	if err != nil {
		return pos, err
	}
	if end > pos+int(n)*8 {
		return pos, fmt.Errorf("%w: value overruns its length octet", core.ErrInvalidElement)
	}
	// The declared length wins over what the value codec consumed.
	return pos + int(n)*8, nil
}

func encodeTLV(f *Frame, pos int, iei uint8, e valueEncoder) (int, error) {
	if err := f.WriteField(pos, uint64(iei), 8); err != nil {
		return pos, err
	}
	return encodeLV(f, pos+8, e)
}

func decodeTLV(f *Frame, pos int, e valueDecoder) (int, error) {
	if _, err := f.ReadField(pos, 8); err != nil {
		return pos, err
	}
	return decodeLV(f, pos+8, e)
}

// PeekIEI returns the information element identifier at pos without consuming it.
// ok is false when less than one whole octet remains.
func PeekIEI(f *Frame, pos int) (iei uint8, ok bool) {
	if f.Remaining(pos) < 8 {
		return 0, false
	}
	v, err := f.ReadField(pos, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

// SkipIE skips an unknown optional element starting at pos. An identifier with
// bit 8 set is a single octet element, anything else is taken as TLV.
func SkipIE(f *Frame, pos int) (int, error) {
	iei, ok := PeekIEI(f, pos)
	if !ok {
		return pos, fmt.Errorf("%w: no element identifier at offset %d", core.ErrFrameTooShort, pos)
	}
	if iei&0x80 != 0 {
		return pos + 8, nil
	}
	n, err := f.ReadField(pos+8, 8)
	if err != nil {
		return pos, err
	}
	end := pos + 16 + int(n)*8
	if end > f.Len() {
		return pos, fmt.Errorf("%w: element 0x%02x declares %d octets past the frame end", core.ErrFrameTooShort, iei, n)
	}
	return end, nil
}

// WriteHalfOctets writes two half octet V elements sharing one octet. first
// goes to bits 4-1, second to bits 8-5.
func WriteHalfOctets(f *Frame, pos int, first, second uint8) (int, error) {
	if err := f.WriteField(pos, uint64(second&0x0f), 4); err != nil {
		return pos, err
	}
	if err := f.WriteField(pos+4, uint64(first&0x0f), 4); err != nil {
		return pos, err
	}
	return pos + 8, nil
}

// ReadHalfOctets reads an octet holding two half octet V elements, returning
// the bits 4-1 element first.
func ReadHalfOctets(f *Frame, pos int) (first, second uint8, next int, err error) {
	v, err := f.ReadField(pos, 8)
	if err != nil {
		return 0, 0, pos, err
	}
	return uint8(v & 0x0f), uint8(v >> 4), pos + 8, nil
}

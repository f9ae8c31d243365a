package l3

import (
	"encoding/hex"
	"fmt"

	"firestige.xyz/gsml3/internal/core"
)

// Classmark1 is the mobile station classmark 1 (10.5.1.5), a one octet V element.
type Classmark1 struct {
	Revision     uint8 // bits 7-6
	EarlySending bool  // bit 5
	A51Absent    bool  // bit 4, set when A5/1 is not available
	RFPowerClass uint8 // bits 3-1
}

func (c Classmark1) Encode(f *Frame, pos int) (int, error) {
	v := uint64(c.Revision&0x03)<<5 | uint64(c.RFPowerClass&0x07)
	if c.EarlySending {
		v |= 0x10
	}
	if c.A51Absent {
		v |= 0x08
	}
	if err := f.WriteField(pos, v, 8); err != nil {
		return pos, err
	}
	return pos + 8, nil
}

func (c *Classmark1) Decode(f *Frame, pos int) (int, error) {
	v, err := f.ReadField(pos, 8)
	if err != nil {
		return pos, err
	}
	*c = Classmark1{
		Revision:     uint8(v>>5) & 0x03,
		EarlySending: v&0x10 != 0,
		A51Absent:    v&0x08 != 0,
		RFPowerClass: uint8(v) & 0x07,
	}
	return pos + 8, nil
}

func (c Classmark1) String() string {
	return fmt.Sprintf("rev=%d es=%t a5/1=%t power=%d", c.Revision, c.EarlySending, !c.A51Absent, c.RFPowerClass+1)
}

// Classmark2 is the mobile station classmark 2 (10.5.1.6), an LV element kept
// as raw value octets.
type Classmark2 struct {
	Value []byte
}

func (c Classmark2) LengthV() int {
	return len(c.Value)
}

func (c Classmark2) LengthLV() int {
	return 1 + len(c.Value)
}

func (c Classmark2) EncodeLV(f *Frame, pos int) (int, error) {
	return encodeLV(f, pos, c)
}

func (c *Classmark2) DecodeLV(f *Frame, pos int) (int, error) {
	return decodeLV(f, pos, c)
}

func (c Classmark2) encodeValue(f *Frame, pos int) (int, error) {
	if err := f.WriteOctets(pos, c.Value); err != nil {
		return pos, err
	}
	return pos + 8*len(c.Value), nil
}

func (c *Classmark2) decodeValue(f *Frame, pos, octets int) (int, error) {
	if octets == 0 {
		return pos, fmt.Errorf("%w: empty classmark 2", core.ErrInvalidElement)
	}
	b, err := f.ReadOctets(pos, octets)
	if err != nil {
		return pos, err
	}
	c.Value = b
	return pos + 8*octets, nil
}

// Revision returns the revision level from the first value octet.
func (c Classmark2) Revision() uint8 {
	if len(c.Value) == 0 {
		return 0
	}
	return (c.Value[0] >> 5) & 0x03
}

func (c Classmark2) String() string {
	return "classmark2 " + hex.EncodeToString(c.Value)
}

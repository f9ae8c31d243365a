package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/l3"
)

// TMSIReallocationCommand is sent by the network (9.2.17).
type TMSIReallocationCommand struct {
	LAI      l3.LAI
	Identity l3.MobileIdentity
}

func (*TMSIReallocationCommand) mmMessage() {}

func (*TMSIReallocationCommand) MessageType() MessageType { return TypeTMSIReallocationCommand }

func (m *TMSIReallocationCommand) BodyLength() int {
	return l3.LAILength + m.Identity.LengthLV()
}

func (m *TMSIReallocationCommand) EncodeBody(f *l3.Frame, pos int) (int, error) {
	pos, err := m.LAI.Encode(f, pos)
	if err != nil {
		return pos, err
	}
	return m.Identity.EncodeLV(f, pos)
}

func (m *TMSIReallocationCommand) DecodeBody(f *l3.Frame, pos int) (int, error) {
	pos, err := m.LAI.Decode(f, pos)
	if err != nil {
		return pos, err
	}
	return m.Identity.DecodeLV(f, pos)
}

func (m *TMSIReallocationCommand) String() string {
	return fmt.Sprintf("%s lai=(%s) id=%s", m.MessageType(), m.LAI, m.Identity)
}

// TMSIReallocationComplete is sent by the mobile station (9.2.18). It has no body.
type TMSIReallocationComplete struct{}

func (*TMSIReallocationComplete) mmMessage() {}

func (*TMSIReallocationComplete) MessageType() MessageType { return TypeTMSIReallocationComplete }

func (*TMSIReallocationComplete) BodyLength() int { return 0 }

func (m *TMSIReallocationComplete) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, unsupported(m.MessageType(), "encode")
}

func (*TMSIReallocationComplete) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, nil
}

func (m *TMSIReallocationComplete) String() string {
	return m.MessageType().String()
}

package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/l3"
)

// IMSIDetachIndication is sent by the mobile station (9.2.12).
type IMSIDetachIndication struct {
	Classmark1 l3.Classmark1
	Identity   l3.MobileIdentity
}

func (*IMSIDetachIndication) mmMessage() {}

func (*IMSIDetachIndication) MessageType() MessageType { return TypeIMSIDetachIndication }

func (m *IMSIDetachIndication) BodyLength() int {
	return 1 + m.Identity.LengthLV()
}

func (m *IMSIDetachIndication) EncodeBody(f *l3.Frame, pos int) (int, error) {
	pos, err := m.Classmark1.Encode(f, pos)
	if err != nil {
		return pos, err
	}
	return m.Identity.EncodeLV(f, pos)
}

func (m *IMSIDetachIndication) DecodeBody(f *l3.Frame, pos int) (int, error) {
	pos, err := m.Classmark1.Decode(f, pos)
	if err != nil {
		return pos, err
	}
	return m.Identity.DecodeLV(f, pos)
}

func (m *IMSIDetachIndication) String() string {
	return fmt.Sprintf("%s classmark1=(%s) id=%s", m.MessageType(), m.Classmark1, m.Identity)
}

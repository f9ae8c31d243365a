package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/l3"
)

const ieiLAI = 0x13

// CMReestablishmentRequest is sent by the mobile station (9.2.4).
type CMReestablishmentRequest struct {
	CKSN       l3.CKSN
	Classmark2 l3.Classmark2
	Identity   l3.MobileIdentity
	HasLAI     bool
	LAI        l3.LAI
}

func (*CMReestablishmentRequest) mmMessage() {}

func (*CMReestablishmentRequest) MessageType() MessageType { return TypeCMReestablishmentRequest }

func (m *CMReestablishmentRequest) BodyLength() int {
	n := 1 + m.Classmark2.LengthLV() + m.Identity.LengthLV()
	if m.HasLAI {
		n += 1 + l3.LAILength
	}
	return n
}

func (m *CMReestablishmentRequest) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, unsupported(m.MessageType(), "encode")
}

func (m *CMReestablishmentRequest) DecodeBody(f *l3.Frame, pos int) (int, error) {
	cksn, _, pos, err := l3.ReadHalfOctets(f, pos)
	if err != nil {
		return pos, err
	}
	m.CKSN = l3.CKSN(cksn & 0x07)
	if pos, err = m.Classmark2.DecodeLV(f, pos); err != nil {
		return pos, err
	}
	if pos, err = m.Identity.DecodeLV(f, pos); err != nil {
		return pos, err
	}
	return decodeOptionals(f, pos,
		optionalIE{iei: ieiLAI, decode: func(f *l3.Frame, pos int) (int, error) {
			m.HasLAI = true
			return m.LAI.DecodeTV(f, pos)
		}},
	)
}

func (m *CMReestablishmentRequest) String() string {
	s := fmt.Sprintf("%s cksn=%s %s id=%s", m.MessageType(), m.CKSN, m.Classmark2, m.Identity)
	if m.HasLAI {
		s += fmt.Sprintf(" lai=(%s)", m.LAI)
	}
	return s
}

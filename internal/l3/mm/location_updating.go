package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/l3"
)

const (
	ieiMobileIdentity  = 0x17
	ieiFollowOnProceed = 0xa1
)

// LocationUpdatingRequest is sent by the mobile station (9.2.15).
type LocationUpdatingRequest struct {
	UpdatingType l3.LocationUpdatingType
	CKSN         l3.CKSN
	LAI          l3.LAI
	Classmark1   l3.Classmark1
	Identity     l3.MobileIdentity
}

func (*LocationUpdatingRequest) mmMessage() {}

func (*LocationUpdatingRequest) MessageType() MessageType { return TypeLocationUpdatingRequest }

func (m *LocationUpdatingRequest) BodyLength() int {
	return 1 + l3.LAILength + 1 + m.Identity.LengthLV()
}

func (m *LocationUpdatingRequest) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, unsupported(m.MessageType(), "encode")
}

func (m *LocationUpdatingRequest) DecodeBody(f *l3.Frame, pos int) (int, error) {
	lut, cksn, pos, err := l3.ReadHalfOctets(f, pos)
	if err != nil {
		return pos, err
	}
	m.UpdatingType = l3.LocationUpdatingTypeFromNibble(lut)
	m.CKSN = l3.CKSN(cksn & 0x07)
	if pos, err = m.LAI.Decode(f, pos); err != nil {
		return pos, err
	}
	if pos, err = m.Classmark1.Decode(f, pos); err != nil {
		return pos, err
	}
	return m.Identity.DecodeLV(f, pos)
}

func (m *LocationUpdatingRequest) String() string {
	return fmt.Sprintf("%s type=%s cksn=%s lai=(%s) classmark1=(%s) id=%s",
		m.MessageType(), m.UpdatingType, m.CKSN, m.LAI, m.Classmark1, m.Identity)
}

// LocationUpdatingAccept is sent by the network (9.2.13).
type LocationUpdatingAccept struct {
	LAI             l3.LAI
	HasIdentity     bool
	Identity        l3.MobileIdentity
	FollowOnProceed bool
}

func (*LocationUpdatingAccept) mmMessage() {}

func (*LocationUpdatingAccept) MessageType() MessageType { return TypeLocationUpdatingAccept }

func (m *LocationUpdatingAccept) BodyLength() int {
	n := l3.LAILength
	if m.HasIdentity {
		n += m.Identity.LengthTLV()
	}
	if m.FollowOnProceed {
		n++
	}
	return n
}

func (m *LocationUpdatingAccept) EncodeBody(f *l3.Frame, pos int) (int, error) {
	pos, err := m.LAI.Encode(f, pos)
	if err != nil {
		return pos, err
	}
	if m.HasIdentity {
		if pos, err = m.Identity.EncodeTLV(f, pos, ieiMobileIdentity); err != nil {
			return pos, err
		}
	}
	if m.FollowOnProceed {
		if pos, err = writeIEI(f, pos, ieiFollowOnProceed); err != nil {
			return pos, err
		}
	}
	return pos, nil
}

func (m *LocationUpdatingAccept) DecodeBody(f *l3.Frame, pos int) (int, error) {
	pos, err := m.LAI.Decode(f, pos)
	if err != nil {
		return pos, err
	}
	return decodeOptionals(f, pos,
		optionalIE{iei: ieiMobileIdentity, decode: func(f *l3.Frame, pos int) (int, error) {
			m.HasIdentity = true
			return m.Identity.DecodeTLV(f, pos)
		}},
		optionalIE{iei: ieiFollowOnProceed, decode: func(f *l3.Frame, pos int) (int, error) {
			m.FollowOnProceed = true
			return pos + 8, nil
		}},
	)
}

func (m *LocationUpdatingAccept) String() string {
	s := fmt.Sprintf("%s lai=(%s)", m.MessageType(), m.LAI)
	if m.HasIdentity {
		s += " id=" + m.Identity.String()
	}
	if m.FollowOnProceed {
		s += " follow-on-proceed"
	}
	return s
}

// LocationUpdatingReject is sent by the network (9.2.14).
type LocationUpdatingReject struct {
	Cause l3.RejectCause
}

func (*LocationUpdatingReject) mmMessage() {}

func (*LocationUpdatingReject) MessageType() MessageType { return TypeLocationUpdatingReject }

func (m *LocationUpdatingReject) BodyLength() int { return 1 }

func (m *LocationUpdatingReject) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return m.Cause.Encode(f, pos)
}

func (m *LocationUpdatingReject) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return m.Cause.Decode(f, pos)
}

func (m *LocationUpdatingReject) String() string {
	return fmt.Sprintf("%s cause=%s", m.MessageType(), m.Cause)
}

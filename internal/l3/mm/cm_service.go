package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/l3"
)

// CMServiceRequest is sent by the mobile station (9.2.9).
type CMServiceRequest struct {
	ServiceType l3.CMServiceType
	CKSN        l3.CKSN
	Classmark2  l3.Classmark2
	Identity    l3.MobileIdentity
}

func (*CMServiceRequest) mmMessage() {}

func (*CMServiceRequest) MessageType() MessageType { return TypeCMServiceRequest }

func (m *CMServiceRequest) BodyLength() int {
	return 1 + m.Classmark2.LengthLV() + m.Identity.LengthLV()
}

func (m *CMServiceRequest) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, unsupported(m.MessageType(), "encode")
}

func (m *CMServiceRequest) DecodeBody(f *l3.Frame, pos int) (int, error) {
	service, cksn, pos, err := l3.ReadHalfOctets(f, pos)
	if err != nil {
		return pos, err
	}
	m.ServiceType = l3.CMServiceType(service)
	m.CKSN = l3.CKSN(cksn & 0x07)
	if pos, err = m.Classmark2.DecodeLV(f, pos); err != nil {
		return pos, err
	}
	if pos, err = m.Identity.DecodeLV(f, pos); err != nil {
		return pos, err
	}
	// priority level and later additions are skipped
	return decodeOptionals(f, pos)
}

func (m *CMServiceRequest) String() string {
	return fmt.Sprintf("%s service=%s cksn=%s %s id=%s",
		m.MessageType(), m.ServiceType, m.CKSN, m.Classmark2, m.Identity)
}

// CMServiceAccept is sent by the network (9.2.5). It has no body.
type CMServiceAccept struct{}

func (*CMServiceAccept) mmMessage() {}

func (*CMServiceAccept) MessageType() MessageType { return TypeCMServiceAccept }

func (*CMServiceAccept) BodyLength() int { return 0 }

func (*CMServiceAccept) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, nil
}

func (*CMServiceAccept) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, nil
}

func (m *CMServiceAccept) String() string {
	return m.MessageType().String()
}

// CMServiceReject is sent by the network (9.2.6).
type CMServiceReject struct {
	Cause l3.RejectCause
}

func (*CMServiceReject) mmMessage() {}

func (*CMServiceReject) MessageType() MessageType { return TypeCMServiceReject }

func (*CMServiceReject) BodyLength() int { return 1 }

func (m *CMServiceReject) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return m.Cause.Encode(f, pos)
}

func (m *CMServiceReject) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return m.Cause.Decode(f, pos)
}

func (m *CMServiceReject) String() string {
	return fmt.Sprintf("%s cause=%s", m.MessageType(), m.Cause)
}

// CMServiceAbort is sent by the mobile station (9.2.7). It has no body.
type CMServiceAbort struct{}

func (*CMServiceAbort) mmMessage() {}

func (*CMServiceAbort) MessageType() MessageType { return TypeCMServiceAbort }

func (*CMServiceAbort) BodyLength() int { return 0 }

func (*CMServiceAbort) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, nil
}

func (*CMServiceAbort) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, nil
}

func (m *CMServiceAbort) String() string {
	return m.MessageType().String()
}

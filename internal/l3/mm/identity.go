package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/l3"
)

// IdentityRequest is sent by the network (9.2.10).
type IdentityRequest struct {
	IdentityType l3.MobileIDType
}

func (*IdentityRequest) mmMessage() {}

func (*IdentityRequest) MessageType() MessageType { return TypeIdentityRequest }

func (*IdentityRequest) BodyLength() int { return 1 }

func (m *IdentityRequest) EncodeBody(f *l3.Frame, pos int) (int, error) {
	switch m.IdentityType {
	case l3.IdentityIMSI, l3.IdentityIMEI, l3.IdentityIMEISV, l3.IdentityTMSI:
	default:
		return pos, fmt.Errorf("identity request for %s: %w", m.IdentityType, core.ErrInvalidElement)
	}
	return l3.WriteHalfOctets(f, pos, uint8(m.IdentityType), 0)
}

func (m *IdentityRequest) DecodeBody(f *l3.Frame, pos int) (int, error) {
	idType, _, next, err := l3.ReadHalfOctets(f, pos)
	if err != nil {
		return pos, err
	}
	m.IdentityType = l3.MobileIDType(idType & 0x07)
	return next, nil
}

func (m *IdentityRequest) String() string {
	return fmt.Sprintf("%s type=%s", m.MessageType(), m.IdentityType)
}

// IdentityResponse is sent by the mobile station (9.2.11).
type IdentityResponse struct {
	Identity l3.MobileIdentity
}

func (*IdentityResponse) mmMessage() {}

func (*IdentityResponse) MessageType() MessageType { return TypeIdentityResponse }

func (m *IdentityResponse) BodyLength() int {
	return m.Identity.LengthLV()
}

func (m *IdentityResponse) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return pos, unsupported(m.MessageType(), "encode")
}

func (m *IdentityResponse) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return m.Identity.DecodeLV(f, pos)
}

func (m *IdentityResponse) String() string {
	return fmt.Sprintf("%s id=%s", m.MessageType(), m.Identity)
}

package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/l3"
)

// NewEmpty returns a zero value variant for t.
func NewEmpty(t MessageType) (Message, error) {
	switch t {
	case TypeIMSIDetachIndication:
		return &IMSIDetachIndication{}, nil
	case TypeLocationUpdatingAccept:
		return &LocationUpdatingAccept{}, nil
	case TypeLocationUpdatingReject:
		return &LocationUpdatingReject{}, nil
	case TypeLocationUpdatingRequest:
		return &LocationUpdatingRequest{}, nil
	case TypeIdentityRequest:
		return &IdentityRequest{}, nil
	case TypeIdentityResponse:
		return &IdentityResponse{}, nil
	case TypeTMSIReallocationCommand:
		return &TMSIReallocationCommand{}, nil
	case TypeTMSIReallocationComplete:
		return &TMSIReallocationComplete{}, nil
	case TypeCMServiceAccept:
		return &CMServiceAccept{}, nil
	case TypeCMServiceReject:
		return &CMServiceReject{}, nil
	case TypeCMServiceAbort:
		return &CMServiceAbort{}, nil
	case TypeCMServiceRequest:
		return &CMServiceRequest{}, nil
	case TypeCMReestablishmentRequest:
		return &CMReestablishmentRequest{}, nil
	case TypeMMStatus:
		return &MMStatus{}, nil
	case TypeMMInformation:
		return &MMInformation{}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", core.ErrUnknownMessageType, uint8(t))
	}
}

// Parse decodes a complete MM frame. Octets after the last known element are
// tolerated.
func Parse(f *l3.Frame) (Message, error) {
	if f.Len() < 8*HeaderLength {
		return nil, &DecodeError{Offset: 0, Err: fmt.Errorf("%w: %d bits, header needs %d", core.ErrFrameTooShort, f.Len(), 8*HeaderLength)}
	}
	pd, err := f.PD()
	if err != nil {
		return nil, &DecodeError{Offset: 4, Err: err}
	}
	if pd != l3.PDMobilityManagement {
		return nil, &DecodeError{Offset: 4, Err: fmt.Errorf("%w: %s", core.ErrWrongProtocol, pd)}
	}
	mti, err := f.MTI()
	if err != nil {
		return nil, &DecodeError{Offset: 8, Err: err}
	}
	t := MessageType(mti &^ sequenceBit)
	msg, err := NewEmpty(t)
	if err != nil {
		return nil, &DecodeError{Offset: 8, Err: err}
	}
	pos, err := msg.DecodeBody(f, 8*HeaderLength)
	if err != nil {
		return nil, &DecodeError{Type: t, Offset: pos, Err: err}
	}
	return msg, nil
}

// ParseBytes decodes a complete MM frame held in b.
func ParseBytes(b []byte) (Message, error) {
	return Parse(l3.FrameFromBytes(b))
}

// Encode serializes msg into a new frame holding the header and the body.
func Encode(msg Message) (*l3.Frame, error) {
	n := msg.BodyLength()
	f := l3.NewFrame(HeaderLength + n)
	// skip indicator 0000, PD 0101
	if err := f.WriteField(0, uint64(l3.PDMobilityManagement), 8); err != nil {
		return nil, err
	}
	if err := f.WriteField(8, uint64(msg.MessageType())&^sequenceBit, 8); err != nil {
		return nil, err
	}
	pos, err := msg.EncodeBody(f, 8*HeaderLength)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.MessageType(), err)
	}
	if pos != f.Len() {
		return nil, fmt.Errorf("encode %s: %w: body wrote %d bits, expected %d", msg.MessageType(), core.ErrLengthMismatch, pos-8*HeaderLength, 8*n)
	}
	return f, nil
}

func unsupported(t MessageType, op string) error {
	return fmt.Errorf("%s %s: %w", op, t, core.ErrUnsupportedDirection)
}

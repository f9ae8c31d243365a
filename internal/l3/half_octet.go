package l3

import "fmt"

// CMServiceType is the CM service type (10.5.3.3), a half octet V element.
type CMServiceType uint8

const (
	ServiceMOCall        CMServiceType = 1
	ServiceEmergencyCall CMServiceType = 2
	ServiceSMS           CMServiceType = 4
	ServiceSS            CMServiceType = 8
	ServiceVGCS          CMServiceType = 9
	ServiceVBS           CMServiceType = 10
	ServiceLCS           CMServiceType = 11
)

func (t CMServiceType) String() string {
	switch t {
	case ServiceMOCall:
		return "MO call"
	case ServiceEmergencyCall:
		return "emergency call"
	case ServiceSMS:
		return "SMS"
	case ServiceSS:
		return "supplementary service"
	case ServiceVGCS:
		return "voice group call"
	case ServiceVBS:
		return "voice broadcast call"
	case ServiceLCS:
		return "location service"
	default:
		return fmt.Sprintf("service(%d)", uint8(t))
	}
}

func (t CMServiceType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// CKSN is the ciphering key sequence number (10.5.1.2), a half octet V element.
type CKSN uint8

// CKSNNoKey means no key is available.
const CKSNNoKey CKSN = 7

func (k CKSN) String() string {
	if k&0x07 == CKSNNoKey {
		return "no key"
	}
	return fmt.Sprintf("%d", uint8(k&0x07))
}

// LocationUpdatingType is the half octet V element of 10.5.3.5.
type LocationUpdatingType struct {
	FollowOnRequest bool
	Kind            LocationUpdatingKind
}

// LocationUpdatingKind is the updating type in bits 2-1.
type LocationUpdatingKind uint8

const (
	UpdatingNormal     LocationUpdatingKind = 0
	UpdatingPeriodic   LocationUpdatingKind = 1
	UpdatingIMSIAttach LocationUpdatingKind = 2
)

func (k LocationUpdatingKind) String() string {
	switch k {
	case UpdatingNormal:
		return "normal"
	case UpdatingPeriodic:
		return "periodic"
	case UpdatingIMSIAttach:
		return "IMSI attach"
	default:
		return "reserved"
	}
}

func (k LocationUpdatingKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Nibble returns the four bit wire value.
func (t LocationUpdatingType) Nibble() uint8 {
	v := uint8(t.Kind) & 0x03
	if t.FollowOnRequest {
		v |= 0x08
	}
	return v
}

// LocationUpdatingTypeFromNibble decodes the four bit wire value.
func LocationUpdatingTypeFromNibble(v uint8) LocationUpdatingType {
	return LocationUpdatingType{
		FollowOnRequest: v&0x08 != 0,
		Kind:            LocationUpdatingKind(v & 0x03),
	}
}

func (t LocationUpdatingType) String() string {
	if t.FollowOnRequest {
		return t.Kind.String() + " (follow-on request pending)"
	}
	return t.Kind.String()
}

// Package mm implements the GSM 04.08 mobility management messages: the
// message taxonomy, one variant per procedure and the factory that parses and
// encodes complete layer 3 frames.
package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/l3"
)

// MessageType is the MM message type octet (04.08 table 10.2) with the N(SD)
// bit cleared.
type MessageType uint8

const (
	TypeIMSIDetachIndication     MessageType = 0x01
	TypeLocationUpdatingAccept   MessageType = 0x02
	TypeLocationUpdatingReject   MessageType = 0x04
	TypeLocationUpdatingRequest  MessageType = 0x08
	TypeIdentityRequest          MessageType = 0x18
	TypeIdentityResponse         MessageType = 0x19
	TypeTMSIReallocationCommand  MessageType = 0x1a
	TypeTMSIReallocationComplete MessageType = 0x1b
	TypeCMServiceAccept          MessageType = 0x21
	TypeCMServiceReject          MessageType = 0x22
	TypeCMServiceAbort           MessageType = 0x23
	TypeCMServiceRequest         MessageType = 0x24
	TypeCMReestablishmentRequest MessageType = 0x28
	TypeMMStatus                 MessageType = 0x31
	TypeMMInformation            MessageType = 0x32
)

// sequenceBit is the send sequence number bit of the type octet, ignored on
// decode and written as zero on encode.
const sequenceBit = 0x40

var messageTypeNames = map[MessageType]string{
	TypeIMSIDetachIndication:     "IMSI Detach Indication",
	TypeLocationUpdatingAccept:   "Location Updating Accept",
	TypeLocationUpdatingReject:   "Location Updating Reject",
	TypeLocationUpdatingRequest:  "Location Updating Request",
	TypeIdentityRequest:          "Identity Request",
	TypeIdentityResponse:         "Identity Response",
	TypeTMSIReallocationCommand:  "TMSI Reallocation Command",
	TypeTMSIReallocationComplete: "TMSI Reallocation Complete",
	TypeCMServiceAccept:          "CM Service Accept",
	TypeCMServiceReject:          "CM Service Reject",
	TypeCMServiceAbort:           "CM Service Abort",
	TypeCMServiceRequest:         "CM Service Request",
	TypeCMReestablishmentRequest: "CM Re-establishment Request",
	TypeMMStatus:                 "MM Status",
	TypeMMInformation:            "MM Information",
}

func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("MM(0x%02x)", uint8(t))
}

func (t MessageType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Message is one MM message variant. The set of variants is closed; NewEmpty
// returns every one of them.
type Message interface {
	MessageType() MessageType
	// BodyLength is the number of octets EncodeBody writes after the two
	// header octets.
	BodyLength() int
	EncodeBody(f *l3.Frame, pos int) (int, error)
	DecodeBody(f *l3.Frame, pos int) (int, error)
	String() string

	mmMessage()
}

// HeaderLength is the skip indicator/PD octet plus the type octet.
const HeaderLength = 2

// DecodeError reports where and why a frame failed to parse.
type DecodeError struct {
	Type   MessageType
	Offset int // bit offset
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Type == 0 {
		return fmt.Sprintf("decode MM frame at bit %d: %v", e.Offset, e.Err)
	}
	return fmt.Sprintf("decode %s at bit %d: %v", e.Type, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

package l3

import (
	"fmt"
	"strconv"
)

// RejectCause is the MM reject cause (10.5.3.6), a one octet V element.
type RejectCause uint8

const (
	CauseIMSIUnknownInHLR              RejectCause = 0x02
	CauseIllegalMS                     RejectCause = 0x03
	CauseIMSIUnknownInVLR              RejectCause = 0x04
	CauseIMEINotAccepted               RejectCause = 0x05
	CauseIllegalME                     RejectCause = 0x06
	CausePLMNNotAllowed                RejectCause = 0x0b
	CauseLocationAreaNotAllowed        RejectCause = 0x0c
	CauseRoamingNotAllowed             RejectCause = 0x0d
	CauseNoSuitableCells               RejectCause = 0x0f
	CauseNetworkFailure                RejectCause = 0x11
	CauseCongestion                    RejectCause = 0x16
	CauseServiceOptionNotSupported     RejectCause = 0x20
	CauseServiceOptionNotSubscribed    RejectCause = 0x21
	CauseServiceOptionOutOfOrder       RejectCause = 0x22
	CauseCallCannotBeIdentified        RejectCause = 0x26
	CauseSemanticallyIncorrect         RejectCause = 0x5f
	CauseInvalidMandatoryInformation   RejectCause = 0x60
	CauseMessageTypeNonExistent        RejectCause = 0x61
	CauseMessageTypeNotCompatible      RejectCause = 0x62
	CauseIENonExistent                 RejectCause = 0x63
	CauseConditionalIEError            RejectCause = 0x64
	CauseMessageNotCompatibleWithState RejectCause = 0x65
	CauseProtocolErrorUnspecified      RejectCause = 0x6f
)

var causeNames = map[RejectCause]string{
	CauseIMSIUnknownInHLR:              "IMSI unknown in HLR",
	CauseIllegalMS:                     "illegal MS",
	CauseIMSIUnknownInVLR:              "IMSI unknown in VLR",
	CauseIMEINotAccepted:               "IMEI not accepted",
	CauseIllegalME:                     "illegal ME",
	CausePLMNNotAllowed:                "PLMN not allowed",
	CauseLocationAreaNotAllowed:        "location area not allowed",
	CauseRoamingNotAllowed:             "roaming not allowed in this location area",
	CauseNoSuitableCells:               "no suitable cells in location area",
	CauseNetworkFailure:                "network failure",
	CauseCongestion:                    "congestion",
	CauseServiceOptionNotSupported:     "service option not supported",
	CauseServiceOptionNotSubscribed:    "requested service option not subscribed",
	CauseServiceOptionOutOfOrder:       "service option temporarily out of order",
	CauseCallCannotBeIdentified:        "call cannot be identified",
	CauseSemanticallyIncorrect:         "semantically incorrect message",
	CauseInvalidMandatoryInformation:   "invalid mandatory information",
	CauseMessageTypeNonExistent:        "message type non-existent or not implemented",
	CauseMessageTypeNotCompatible:      "message type not compatible with protocol state",
	CauseIENonExistent:                 "information element non-existent or not implemented",
	CauseConditionalIEError:            "conditional IE error",
	CauseMessageNotCompatibleWithState: "message not compatible with protocol state",
	CauseProtocolErrorUnspecified:      "protocol error, unspecified",
}

func (c RejectCause) String() string {
	if name, ok := causeNames[c]; ok {
		return fmt.Sprintf("0x%02x (%s)", uint8(c), name)
	}
	return fmt.Sprintf("0x%02x", uint8(c))
}

func (c RejectCause) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c RejectCause) Encode(f *Frame, pos int) (int, error) {
	if err := f.WriteField(pos, uint64(c), 8); err != nil {
		return pos, err
	}
	return pos + 8, nil
}

func (c *RejectCause) Decode(f *Frame, pos int) (int, error) {
	v, err := f.ReadField(pos, 8)
	if err != nil {
		return pos, err
	}
	*c = RejectCause(v)
	return pos + 8, nil
}

// ParseRejectCause accepts a numeric cause (decimal or 0x hex).
func ParseRejectCause(s string) (RejectCause, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid reject cause %q: %w", s, err)
	}
	return RejectCause(v), nil
}

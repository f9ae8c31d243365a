// Package core defines core types with zero external dependencies.
package core

import (
	"fmt"
	"time"
)

// ChannelKey identifies one dedicated radio channel a layer 3 conversation runs on.
type ChannelKey struct {
	ARFCN    uint16
	Timeslot uint8
	SubType  uint8 // GSMTAP channel type, ACCH flag stripped
	SubSlot  uint8
}

// String renders the key as arfcn/timeslot/subtype/subslot, which is also the
// sharding and correlation key.
func (k ChannelKey) String() string {
	return fmt.Sprintf("%d/%d/%d/%d", k.ARFCN, k.Timeslot, k.SubType, k.SubSlot)
}

// Packet is one layer 3 frame lifted out of a capture or live feed.
type Packet struct {
	Timestamp   time.Time
	Channel     ChannelKey
	Uplink      bool
	FrameNumber uint32
	Payload     []byte // L3 octets, starting at the skip indicator / PD octet
}

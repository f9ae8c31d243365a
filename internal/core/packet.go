// Package core defines core data structures with zero external dependencies.
package core

import "time"

// Report priorities. Higher values are delivered first.
const (
	PriorityNormal = 0
	PriorityHigh   = 1
)

// Report is the final output sent to reporters.
type Report struct {
	// Envelope
	Sequence    uint64
	Priority    int
	Timestamp   time.Time
	Channel     ChannelKey
	Uplink      bool
	FrameNumber uint32

	// Decoded message
	MessageType string
	Identity    string // Mobile identity carried by the message, or the last one seen on the channel
	Summary     string
	Labels      Labels
	Message     any // Concrete mm.Message, nil when decoding failed

	Error      string
	RawPayload []byte
}

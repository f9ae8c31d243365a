// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors shared by the codec, the containers and the pipeline.
var (
	// Frame and message decoding errors
	ErrFrameTooShort      = errors.New("gsml3: frame too short")
	ErrFrameOverflow      = errors.New("gsml3: write past end of frame")
	ErrWrongProtocol      = errors.New("gsml3: unexpected protocol discriminator")
	ErrUnknownMessageType = errors.New("gsml3: unknown message type")
	ErrInvalidElement     = errors.New("gsml3: invalid information element")

	// Programming errors: the variant has no codec for the requested direction
	ErrUnsupportedDirection = errors.New("gsml3: operation not supported for this message direction")
	ErrLengthMismatch       = errors.New("gsml3: encoded length differs from body length")

	// GSMTAP / LAPDm errors
	ErrNotGSMTAP      = errors.New("gsml3: not a GSMTAP packet")
	ErrNoLayer3       = errors.New("gsml3: frame carries no layer 3 information")
	ErrSegmentedFrame = errors.New("gsml3: segmented LAPDm frame")

	// Pipeline errors
	ErrPipelineStopped = errors.New("gsml3: pipeline stopped")

	// Configuration errors
	ErrConfigInvalid    = errors.New("gsml3: invalid configuration")
	ErrReporterNotFound = errors.New("gsml3: reporter type not found")
	ErrSourceNotFound   = errors.New("gsml3: source type not found")
)

// Package core defines core types.
package core

// Labels represents key-value metadata attached by the pipeline.
type Labels map[string]string

// Label naming constants following {protocol}.{field} convention.
const (
	LabelMMType        = "mm.type"
	LabelMMCause       = "mm.cause"
	LabelMMIdentity    = "mm.identity"
	LabelMMServiceType = "mm.service_type"
	LabelMMLAI         = "mm.lai"
	LabelMMSequence    = "mm.nsd" // Send sequence number bit of the type octet

	LabelGSMTAPARFCN    = "gsmtap.arfcn"
	LabelGSMTAPTimeslot = "gsmtap.timeslot"
	LabelGSMTAPChannel  = "gsmtap.channel"
	LabelGSMTAPFrame    = "gsmtap.fn"

	LabelDecodeError = "decode.error"
)

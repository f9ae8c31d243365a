package mm

import (
	"fmt"

	"firestige.xyz/gsml3/internal/l3"
)

// MMStatus reports a protocol error in either direction (9.2.16).
type MMStatus struct {
	Cause l3.RejectCause
}

func (*MMStatus) mmMessage() {}

func (*MMStatus) MessageType() MessageType { return TypeMMStatus }

func (*MMStatus) BodyLength() int { return 1 }

func (m *MMStatus) EncodeBody(f *l3.Frame, pos int) (int, error) {
	return m.Cause.Encode(f, pos)
}

func (m *MMStatus) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return m.Cause.Decode(f, pos)
}

func (m *MMStatus) String() string {
	return fmt.Sprintf("%s cause=%s", m.MessageType(), m.Cause)
}

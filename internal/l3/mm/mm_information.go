package mm

import (
	"fmt"
	"strings"

	"firestige.xyz/gsml3/internal/l3"
)

const (
	ieiFullName       = 0x43
	ieiShortName      = 0x45
	ieiLocalTimeZone  = 0x46
	ieiUniversalTime  = 0x47
	ieiDaylightSaving = 0x49
)

// MMInformation is sent by the network (9.2.15a). Every element is optional.
type MMInformation struct {
	HasFullName      bool
	FullName         l3.NetworkName
	HasShortName     bool
	ShortName        l3.NetworkName
	HasTimeZone      bool
	TimeZone         l3.TimeZone
	HasUniversalTime bool
	UniversalTime    l3.UniversalTime
	HasDST           bool
	DST              l3.DaylightSaving
}

func (*MMInformation) mmMessage() {}

func (*MMInformation) MessageType() MessageType { return TypeMMInformation }

func (m *MMInformation) BodyLength() int {
	n := 0
	if m.HasFullName {
		n += m.FullName.LengthTLV()
	}
	if m.HasShortName {
		n += m.ShortName.LengthTLV()
	}
	if m.HasTimeZone {
		n += 2
	}
	if m.HasUniversalTime {
		n += 8
	}
	if m.HasDST {
		n += m.DST.LengthTLV()
	}
	return n
}

func (m *MMInformation) EncodeBody(f *l3.Frame, pos int) (int, error) {
	var err error
	if m.HasFullName {
		if pos, err = m.FullName.EncodeTLV(f, pos, ieiFullName); err != nil {
			return pos, err
		}
	}
	if m.HasShortName {
		if pos, err = m.ShortName.EncodeTLV(f, pos, ieiShortName); err != nil {
			return pos, err
		}
	}
	if m.HasTimeZone {
		if pos, err = m.TimeZone.EncodeTV(f, pos, ieiLocalTimeZone); err != nil {
			return pos, err
		}
	}
	if m.HasUniversalTime {
		if pos, err = m.UniversalTime.EncodeTV(f, pos, ieiUniversalTime); err != nil {
			return pos, err
		}
	}
	if m.HasDST {
		if pos, err = m.DST.EncodeTLV(f, pos, ieiDaylightSaving); err != nil {
			return pos, err
		}
	}
	return pos, nil
}

func (m *MMInformation) DecodeBody(f *l3.Frame, pos int) (int, error) {
	return decodeOptionals(f, pos,
		optionalIE{iei: ieiFullName, decode: func(f *l3.Frame, pos int) (int, error) {
			m.HasFullName = true
			return m.FullName.DecodeTLV(f, pos)
		}},
		optionalIE{iei: ieiShortName, decode: func(f *l3.Frame, pos int) (int, error) {
			m.HasShortName = true
			return m.ShortName.DecodeTLV(f, pos)
		}},
		optionalIE{iei: ieiLocalTimeZone, decode: func(f *l3.Frame, pos int) (int, error) {
			m.HasTimeZone = true
			return m.TimeZone.DecodeTV(f, pos)
		}},
		optionalIE{iei: ieiUniversalTime, decode: func(f *l3.Frame, pos int) (int, error) {
			m.HasUniversalTime = true
			return m.UniversalTime.DecodeTV(f, pos)
		}},
		optionalIE{iei: ieiDaylightSaving, decode: func(f *l3.Frame, pos int) (int, error) {
			m.HasDST = true
			return m.DST.DecodeTLV(f, pos)
		}},
	)
}

func (m *MMInformation) String() string {
	parts := []string{m.MessageType().String()}
	if m.HasFullName {
		parts = append(parts, "full="+m.FullName.String())
	}
	if m.HasShortName {
		parts = append(parts, "short="+m.ShortName.String())
	}
	if m.HasTimeZone {
		parts = append(parts, "tz="+m.TimeZone.String())
	}
	if m.HasUniversalTime {
		parts = append(parts, fmt.Sprintf("time=(%s)", m.UniversalTime))
	}
	if m.HasDST {
		parts = append(parts, "dst="+m.DST.String())
	}
	return strings.Join(parts, " ")
}

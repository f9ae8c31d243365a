package l3

import (
	"fmt"
	"time"

	"firestige.xyz/gsml3/internal/core"
)

// TimeZone is the offset from GMT in quarter hours (10.5.3.8).
type TimeZone int8

// TimeZoneFromOffset rounds an offset to quarter hours.
func TimeZoneFromOffset(d time.Duration) (TimeZone, error) {
	q := d / (15 * time.Minute)
	if q < -79 || q > 79 {
		return 0, fmt.Errorf("%w: time zone offset %s out of range", core.ErrInvalidElement, d)
	}
	return TimeZone(q), nil
}

// Offset returns the zone offset as a duration.
func (z TimeZone) Offset() time.Duration {
	return time.Duration(z) * 15 * time.Minute
}

// octet encodes the zone as swapped BCD with the sign in bit 4.
func (z TimeZone) octet() uint8 {
	q, sign := int(z), uint8(0)
	if q < 0 {
		q, sign = -q, 0x08
	}
	return uint8(q%10)<<4 | sign | uint8(q/10)&0x07
}

func timeZoneFromOctet(v uint8) (TimeZone, error) {
	units, tens := v>>4, v&0x07
	if units > 9 {
		return 0, fmt.Errorf("%w: time zone digit 0x%x", core.ErrInvalidElement, units)
	}
	q := int(tens)*10 + int(units)
	if v&0x08 != 0 {
		q = -q
	}
	return TimeZone(q), nil
}

func (z TimeZone) EncodeTV(f *Frame, pos int, iei uint8) (int, error) {
	if err := f.WriteField(pos, uint64(iei)<<8|uint64(z.octet()), 16); err != nil {
		return pos, err
	}
	return pos + 16, nil
}

// DecodeTV skips the identifier octet at pos.
func (z *TimeZone) DecodeTV(f *Frame, pos int) (int, error) {
	v, err := f.ReadField(pos+8, 8)
	if err != nil {
		return pos, err
	}
	if *z, err = timeZoneFromOctet(uint8(v)); err != nil {
		return pos, err
	}
	return pos + 16, nil
}

func (z TimeZone) String() string {
	off := z.Offset()
	sign := '+'
	if off < 0 {
		sign, off = '-', -off
	}
	return fmt.Sprintf("GMT%c%02d:%02d", sign, int(off.Hours()), int(off.Minutes())%60)
}

// UniversalTime is the universal time and local time zone element
// (10.5.3.9), a seven octet value of swapped BCD fields.
type UniversalTime struct {
	Time time.Time
	Zone TimeZone
}

const universalTimeLength = 7

func swappedBCD(v int) uint64 {
	return uint64(v%10)<<4 | uint64(v/10%10)
}

func fromSwappedBCD(v uint64) (int, error) {
	lo, hi := v&0x0f, v>>4
	if lo > 9 || hi > 9 {
		return 0, fmt.Errorf("%w: BCD octet 0x%02x", core.ErrInvalidElement, v)
	}
	return int(lo)*10 + int(hi), nil
}

func (u UniversalTime) EncodeTV(f *Frame, pos int, iei uint8) (int, error) {
	t := u.Time.UTC()
	octets := []uint64{
		uint64(iei),
		swappedBCD(t.Year() % 100),
		swappedBCD(int(t.Month())),
		swappedBCD(t.Day()),
		swappedBCD(t.Hour()),
		swappedBCD(t.Minute()),
		swappedBCD(t.Second()),
		uint64(u.Zone.octet()),
	}
	for i, v := range octets {
		if err := f.WriteField(pos+8*i, v, 8); err != nil {
			return pos, err
		}
	}
	return pos + 8*len(octets), nil
}

// DecodeTV skips the identifier octet at pos.
func (u *UniversalTime) DecodeTV(f *Frame, pos int) (int, error) {
	b, err := f.ReadOctets(pos+8, universalTimeLength)
	if err != nil {
		return pos, err
	}
	fields := make([]int, 6)
	for i := range fields {
		if fields[i], err = fromSwappedBCD(uint64(b[i])); err != nil {
			return pos, err
		}
	}
	zone, err := timeZoneFromOctet(b[6])
	if err != nil {
		return pos, err
	}
	u.Time = time.Date(2000+fields[0], time.Month(fields[1]), fields[2], fields[3], fields[4], fields[5], 0, time.UTC)
	u.Zone = zone
	return pos + 8 + 8*universalTimeLength, nil
}

func (u UniversalTime) String() string {
	return u.Time.UTC().Format("2006-01-02 15:04:05") + " UTC " + u.Zone.String()
}

// DaylightSaving is the network daylight saving time adjustment (10.5.3.12).
type DaylightSaving uint8

const (
	DSTNone    DaylightSaving = 0
	DSTPlusOne DaylightSaving = 1
	DSTPlusTwo DaylightSaving = 2
)

func (d DaylightSaving) String() string {
	switch d & 0x03 {
	case DSTNone:
		return "no adjustment"
	case DSTPlusOne:
		return "+1 hour"
	case DSTPlusTwo:
		return "+2 hours"
	default:
		return "reserved"
	}
}

func (d DaylightSaving) LengthTLV() int {
	return 3
}

func (d DaylightSaving) EncodeTLV(f *Frame, pos int, iei uint8) (int, error) {
	if err := f.WriteField(pos, uint64(iei)<<16|1<<8|uint64(d&0x03), 24); err != nil {
		return pos, err
	}
	return pos + 24, nil
}

// DecodeTLV skips the identifier octet at pos.
func (d *DaylightSaving) DecodeTLV(f *Frame, pos int) (int, error) {
	n, err := f.ReadField(pos+8, 8)
	if err != nil {
		return pos, err
	}
	if n < 1 {
		return pos, fmt.Errorf("%w: empty daylight saving time", core.ErrInvalidElement)
	}
	v, err := f.ReadField(pos+16, 8)
	if err != nil {
		return pos, err
	}
	if f.Remaining(pos+16) < int(n)*8 {
		return pos, fmt.Errorf("%w: daylight saving time declares %d octets", core.ErrFrameTooShort, n)
	}
	*d = DaylightSaving(v & 0x03)
	return pos + 16 + int(n)*8, nil
}

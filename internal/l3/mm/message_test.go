package mm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/l3"
)

func mustHex(t *testing.T, s string) *l3.Frame {
	t.Helper()
	f, err := l3.ParseHex(s)
	require.NoError(t, err)
	return f
}

func testLAI(t *testing.T) l3.LAI {
	t.Helper()
	lai, err := l3.NewLAI("001", "01", 1)
	require.NoError(t, err)
	return lai
}

func roundTrip(t *testing.T, msg Message) Message {
	t.Helper()
	f, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, 8*(HeaderLength+msg.BodyLength()), f.Len())

	got, err := Parse(f)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
	return got
}

func TestIMSIDetachEncode(t *testing.T) {
	imsi, err := l3.NewIMSI("001010123456789")
	require.NoError(t, err)
	msg := &IMSIDetachIndication{
		Classmark1: l3.Classmark1{Revision: 1, EarlySending: true, RFPowerClass: 3},
		Identity:   imsi,
	}
	assert.Equal(t, 1+msg.Identity.LengthLV(), msg.BodyLength())

	f, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, "0501330809101010"+"32547698", f.Hex())

	roundTrip(t, msg)
}

func TestLocationUpdatingReject(t *testing.T) {
	msg, err := Parse(mustHex(t, "050411"))
	require.NoError(t, err)

	rej, ok := msg.(*LocationUpdatingReject)
	require.True(t, ok)
	assert.Equal(t, l3.CauseNetworkFailure, rej.Cause)
	assert.Equal(t, 1, rej.BodyLength())
	assert.Equal(t, "Location Updating Reject cause=0x11 (network failure)", rej.String())

	f, err := Encode(&LocationUpdatingReject{Cause: l3.CauseLocationAreaNotAllowed})
	require.NoError(t, err)
	assert.Equal(t, "05040c", f.Hex())
}

func TestLocationUpdatingAccept(t *testing.T) {
	plain := &LocationUpdatingAccept{LAI: testLAI(t)}
	f, err := Encode(plain)
	require.NoError(t, err)
	assert.Equal(t, "050200f1100001", f.Hex())
	roundTrip(t, plain)

	full := &LocationUpdatingAccept{
		LAI:             testLAI(t),
		HasIdentity:     true,
		Identity:        l3.NewTMSI(0x12345678),
		FollowOnProceed: true,
	}
	f, err = Encode(full)
	require.NoError(t, err)
	assert.Equal(t, "050200f1100001"+"1705f412345678"+"a1", f.Hex())
	got := roundTrip(t, full)

	id, ok := IdentityOf(got)
	assert.True(t, ok)
	assert.Equal(t, uint32(0x12345678), id.TMSI)
}

func TestLocationUpdatingAcceptSkipsUnknownIE(t *testing.T) {
	// 0x7f is unknown and skipped as TLV, the trailing 0xff octet is a lone
	// type 1 element
	msg, err := Parse(mustHex(t, "050200f1100001"+"7f020000"+"a1"+"ff"))
	require.NoError(t, err)
	acc := msg.(*LocationUpdatingAccept)
	assert.True(t, acc.FollowOnProceed)
	assert.False(t, acc.HasIdentity)
}

func TestBidirectionalRoundTrips(t *testing.T) {
	roundTrip(t, &CMServiceAbort{})
	roundTrip(t, &MMStatus{Cause: l3.CauseMessageTypeNonExistent})
	roundTrip(t, &LocationUpdatingReject{Cause: l3.CauseRoamingNotAllowed})

	f, err := Encode(&MMStatus{Cause: l3.CauseMessageTypeNonExistent})
	require.NoError(t, err)
	assert.Equal(t, "053161", f.Hex())
}

func TestLocationUpdatingRequestDecode(t *testing.T) {
	msg, err := Parse(mustHex(t, "0508"+"72"+"00f1100001"+"33"+"080910101032547698"))
	require.NoError(t, err)

	req := msg.(*LocationUpdatingRequest)
	assert.Equal(t, l3.UpdatingIMSIAttach, req.UpdatingType.Kind)
	assert.False(t, req.UpdatingType.FollowOnRequest)
	assert.Equal(t, l3.CKSNNoKey, req.CKSN)
	assert.Equal(t, testLAI(t), req.LAI)
	assert.Equal(t, uint8(3), req.Classmark1.RFPowerClass)
	assert.Equal(t, "001010123456789", req.Identity.Digits)
	assert.Equal(t, 1+5+1+9, req.BodyLength())

	_, err = Encode(req)
	assert.ErrorIs(t, err, core.ErrUnsupportedDirection)
}

func TestCMServiceRequestDecode(t *testing.T) {
	msg, err := Parse(mustHex(t, "0524"+"71"+"033319a2"+"05f412345678"+"81"))
	require.NoError(t, err)

	req := msg.(*CMServiceRequest)
	assert.Equal(t, l3.ServiceMOCall, req.ServiceType)
	assert.Equal(t, l3.CKSNNoKey, req.CKSN)
	assert.Equal(t, []byte{0x33, 0x19, 0xa2}, req.Classmark2.Value)
	assert.Equal(t, l3.NewTMSI(0x12345678), req.Identity)
}

func TestCMReestablishmentDecode(t *testing.T) {
	msg, err := Parse(mustHex(t, "0528"+"03"+"033319a2"+"05f412345678"+"1300f1100001"))
	require.NoError(t, err)

	req := msg.(*CMReestablishmentRequest)
	assert.Equal(t, l3.CKSN(3), req.CKSN)
	assert.True(t, req.HasLAI)
	assert.Equal(t, testLAI(t), req.LAI)

	lai, ok := LAIOf(req)
	assert.True(t, ok)
	assert.Equal(t, uint16(1), lai.LAC)
}

func TestIdentityProcedure(t *testing.T) {
	f, err := Encode(&IdentityRequest{IdentityType: l3.IdentityIMSI})
	require.NoError(t, err)
	assert.Equal(t, "051801", f.Hex())

	_, err = Encode(&IdentityRequest{})
	assert.ErrorIs(t, err, core.ErrInvalidElement)

	msg, err := Parse(mustHex(t, "051905f412345678"))
	require.NoError(t, err)
	assert.Equal(t, l3.NewTMSI(0x12345678), msg.(*IdentityResponse).Identity)

	roundTrip(t, &IdentityRequest{IdentityType: l3.IdentityIMEISV})
}

func TestCMServiceResponses(t *testing.T) {
	msg, err := Parse(mustHex(t, "0521"))
	require.NoError(t, err)
	assert.Equal(t, &CMServiceAccept{}, msg)

	roundTrip(t, &CMServiceAccept{})
	got := roundTrip(t, &CMServiceReject{Cause: l3.CauseCongestion})
	cause, ok := CauseOf(got)
	assert.True(t, ok)
	assert.Equal(t, l3.CauseCongestion, cause)
}

func TestMMInformationEncode(t *testing.T) {
	msg := &MMInformation{
		HasShortName: true,
		ShortName:    l3.NewNetworkName("gsml3"),
		HasTimeZone:  true,
		TimeZone:     8,
	}
	f, err := Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, "0532"+"450685e7799b3d03"+"4680", f.Hex())

	msg = &MMInformation{
		HasUniversalTime: true,
		UniversalTime:    l3.UniversalTime{Time: time.Date(2024, 3, 15, 12, 34, 56, 0, time.UTC)},
		HasDST:           true,
		DST:              l3.DSTPlusOne,
	}
	f, err = Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, "0532"+"4742305121436500"+"490101", f.Hex())
	assert.Contains(t, msg.String(), "dst=+1 hour")
}

func TestMMInformationDecode(t *testing.T) {
	msg, err := Parse(mustHex(t, "0532"+"450685e7799b3d03"+"4680"))
	require.NoError(t, err)
	info := msg.(*MMInformation)
	assert.True(t, info.HasShortName)
	assert.Equal(t, "gsml3", info.ShortName.Name)
	assert.True(t, info.HasTimeZone)
	assert.Equal(t, 2*time.Hour, info.TimeZone.Offset())
	assert.False(t, info.HasFullName)

	roundTrip(t, &MMInformation{
		HasFullName:      true,
		FullName:         l3.NewNetworkName("Test Network"),
		HasShortName:     true,
		ShortName:        l3.NewNetworkName("gsml3"),
		HasUniversalTime: true,
		UniversalTime:    l3.UniversalTime{Time: time.Date(2024, 3, 15, 12, 34, 56, 0, time.UTC), Zone: -4},
		HasDST:           true,
		DST:              l3.DSTPlusTwo,
	})

	// unknown elements between known ones are skipped
	msg, err = Parse(mustHex(t, "0532"+"7f0100"+"4680"))
	require.NoError(t, err)
	assert.True(t, msg.(*MMInformation).HasTimeZone)
}

func TestTMSIReallocation(t *testing.T) {
	f, err := Encode(&TMSIReallocationCommand{LAI: testLAI(t), Identity: l3.NewTMSI(0xcafe0001)})
	require.NoError(t, err)
	assert.Equal(t, "051a00f110000105f4cafe0001", f.Hex())

	cmd, err := Parse(f)
	require.NoError(t, err)
	id, ok := IdentityOf(cmd)
	assert.True(t, ok)
	assert.Equal(t, l3.NewTMSI(0xcafe0001), id)
	roundTrip(t, &TMSIReallocationCommand{LAI: testLAI(t), Identity: l3.NewTMSI(0xcafe0001)})

	msg, err := Parse(mustHex(t, "051b"))
	require.NoError(t, err)
	assert.Equal(t, TypeTMSIReallocationComplete, msg.MessageType())
}

func TestParseMasksSequenceBit(t *testing.T) {
	msg, err := Parse(mustHex(t, "054411"))
	require.NoError(t, err)
	assert.Equal(t, TypeLocationUpdatingReject, msg.MessageType())

	// bit 8 is not masked
	_, err = Parse(mustHex(t, "058411"))
	assert.ErrorIs(t, err, core.ErrUnknownMessageType)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		hex  string
		want error
	}{
		{"unknown type", "0505", core.ErrUnknownMessageType},
		{"header only one octet", "05", core.ErrFrameTooShort},
		{"missing cause", "0504", core.ErrFrameTooShort},
		{"truncated identity", "05013308091010", core.ErrFrameTooShort},
		{"radio resource", "063f00", core.ErrWrongProtocol},
		{"bad identity digit", "051901a9", core.ErrInvalidElement},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(mustHex(t, c.hex))
			require.Error(t, err)
			assert.ErrorIs(t, err, c.want)

			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestDecodeErrorCarriesType(t *testing.T) {
	_, err := Parse(mustHex(t, "0504"))
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, TypeLocationUpdatingReject, de.Type)
	assert.Equal(t, 16, de.Offset)
	assert.Contains(t, de.Error(), "Location Updating Reject")
}

func TestParseToleratesTrailingOctets(t *testing.T) {
	msg, err := Parse(mustHex(t, "05041100ff"))
	require.NoError(t, err)
	assert.Equal(t, l3.CauseNetworkFailure, msg.(*LocationUpdatingReject).Cause)
}

type lyingAbort struct {
	CMServiceAbort
}

func (*lyingAbort) BodyLength() int { return 1 }

func TestEncodeLengthMismatch(t *testing.T) {
	_, err := Encode(&lyingAbort{})
	assert.ErrorIs(t, err, core.ErrLengthMismatch)
}

func TestNewEmptyIsExhaustive(t *testing.T) {
	for mt := range messageTypeNames {
		msg, err := NewEmpty(mt)
		require.NoError(t, err, mt.String())
		assert.Equal(t, mt, msg.MessageType())
		assert.NotEmpty(t, msg.String())
	}
	_, err := NewEmpty(0x3f)
	assert.ErrorIs(t, err, core.ErrUnknownMessageType)
}

func TestCauseOf(t *testing.T) {
	c, ok := CauseOf(&MMStatus{Cause: l3.CauseCongestion})
	assert.True(t, ok)
	assert.Equal(t, l3.CauseCongestion, c)

	_, ok = CauseOf(&CMServiceAbort{})
	assert.False(t, ok)
}

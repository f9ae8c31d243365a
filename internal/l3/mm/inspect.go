package mm

import "firestige.xyz/gsml3/internal/l3"

// IdentityOf returns the mobile identity carried by msg, if any.
func IdentityOf(msg Message) (l3.MobileIdentity, bool) {
	switch m := msg.(type) {
	case *LocationUpdatingRequest:
		return m.Identity, true
	case *LocationUpdatingAccept:
		return m.Identity, m.HasIdentity
	case *IMSIDetachIndication:
		return m.Identity, true
	case *CMServiceRequest:
		return m.Identity, true
	case *CMReestablishmentRequest:
		return m.Identity, true
	case *IdentityResponse:
		return m.Identity, true
	case *TMSIReallocationCommand:
		return m.Identity, true
	default:
		return l3.MobileIdentity{}, false
	}
}

// CauseOf returns the reject or status cause carried by msg, if any.
func CauseOf(msg Message) (l3.RejectCause, bool) {
	switch m := msg.(type) {
	case *LocationUpdatingReject:
		return m.Cause, true
	case *CMServiceReject:
		return m.Cause, true
	case *MMStatus:
		return m.Cause, true
	default:
		return 0, false
	}
}

// LAIOf returns the location area carried by msg, if any.
func LAIOf(msg Message) (l3.LAI, bool) {
	switch m := msg.(type) {
	case *LocationUpdatingRequest:
		return m.LAI, true
	case *LocationUpdatingAccept:
		return m.LAI, true
	case *CMReestablishmentRequest:
		return m.LAI, m.HasLAI
	case *TMSIReallocationCommand:
		return m.LAI, true
	default:
		return l3.LAI{}, false
	}
}

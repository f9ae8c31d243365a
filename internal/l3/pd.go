package l3

import "fmt"

// ProtocolDiscriminator is the bits 4-1 value of the first layer 3 octet.
type ProtocolDiscriminator uint8

const (
	PDGroupCallControl     ProtocolDiscriminator = 0x0
	PDBroadcastCallControl ProtocolDiscriminator = 0x1
	PDCallControl          ProtocolDiscriminator = 0x3
	PDGroupTransparent     ProtocolDiscriminator = 0x4
	PDMobilityManagement   ProtocolDiscriminator = 0x5
	PDRadioResource        ProtocolDiscriminator = 0x6
	PDGPRSMobility         ProtocolDiscriminator = 0x8
	PDSMS                  ProtocolDiscriminator = 0x9
	PDGPRSSession          ProtocolDiscriminator = 0xa
	PDNonCallSS            ProtocolDiscriminator = 0xb
	PDLocationServices     ProtocolDiscriminator = 0xc
)

var pdNames = map[ProtocolDiscriminator]string{
	PDGroupCallControl:     "GCC",
	PDBroadcastCallControl: "BCC",
	PDCallControl:          "CC",
	PDGroupTransparent:     "GTTP",
	PDMobilityManagement:   "MM",
	PDRadioResource:        "RR",
	PDGPRSMobility:         "GMM",
	PDSMS:                  "SMS",
	PDGPRSSession:          "SM",
	PDNonCallSS:            "SS",
	PDLocationServices:     "LCS",
}

func (pd ProtocolDiscriminator) String() string {
	if name, ok := pdNames[pd]; ok {
		return name
	}
	return fmt.Sprintf("PD(0x%x)", uint8(pd))
}

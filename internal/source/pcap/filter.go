package pcap

import (
	"golang.org/x/net/bpf"
)

// acceptSnap is the snapshot length returned for accepted packets.
const acceptSnap = 0x40000

// udpPortFilter is the "udp port <port>" program for Ethernet framed IPv4.
// Fragments after the first are dropped.
func udpPortFilter(port uint16) ([]bpf.Instruction, error) {
	instructions := []bpf.Instruction{
		// ethertype
		bpf.LoadAbsolute{Off: 12, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x0800, SkipFalse: 10},
		// IP protocol
		bpf.LoadAbsolute{Off: 23, Size: 1},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 17, SkipFalse: 8},
		// fragment offset
		bpf.LoadAbsolute{Off: 20, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpBitsSet, Val: 0x1fff, SkipTrue: 6},
		// X = IP header length
		bpf.LoadMemShift{Off: 14},
		bpf.LoadIndirect{Off: 14, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipTrue: 2},
		bpf.LoadIndirect{Off: 16, Size: 2},
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipFalse: 1},
		bpf.RetConstant{Val: acceptSnap},
		bpf.RetConstant{Val: 0},
	}
	// reject programs the kernel would refuse
	if _, err := bpf.Assemble(instructions); err != nil {
		return nil, err
	}
	return instructions, nil
}

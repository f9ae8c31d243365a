package core

import (
	"errors"
	"fmt"
	"testing"
)

// Test zero values of core structs
func TestStructZeroValues(t *testing.T) {
	t.Run("Packet", func(t *testing.T) {
		var pkt Packet
		if pkt.Payload != nil {
			t.Errorf("expected Payload=nil, got %v", pkt.Payload)
		}
		if !pkt.Timestamp.IsZero() {
			t.Errorf("expected zero Timestamp, got %v", pkt.Timestamp)
		}
		if pkt.Uplink {
			t.Errorf("expected Uplink=false, got true")
		}
	})

	t.Run("Report", func(t *testing.T) {
		var rep Report
		if rep.Priority != PriorityNormal {
			t.Errorf("expected normal priority, got %d", rep.Priority)
		}
		if rep.Labels != nil {
			t.Errorf("expected Labels=nil, got %v", rep.Labels)
		}
		if rep.Message != nil {
			t.Errorf("expected Message=nil, got %v", rep.Message)
		}
	})
}

func TestChannelKeyString(t *testing.T) {
	k := ChannelKey{ARFCN: 871, Timeslot: 1, SubType: 8, SubSlot: 3}
	if got := k.String(); got != "871/1/8/3" {
		t.Errorf("expected 871/1/8/3, got %s", got)
	}

	// Keys are comparable and usable as map keys
	m := map[ChannelKey]int{k: 1}
	if m[ChannelKey{ARFCN: 871, Timeslot: 1, SubType: 8, SubSlot: 3}] != 1 {
		t.Error("expected equal keys to address the same map slot")
	}
}

// Test Labels operations
func TestLabels(t *testing.T) {
	labels := make(Labels)
	labels[LabelMMType] = "LocationUpdatingRequest"
	labels[LabelMMIdentity] = "IMSI=001010123456789"

	if labels[LabelMMType] != "LocationUpdatingRequest" {
		t.Errorf("expected LocationUpdatingRequest, got %s", labels[LabelMMType])
	}
	if len(labels) != 2 {
		t.Errorf("expected 2 labels, got %d", len(labels))
	}
	if _, ok := labels[LabelMMCause]; ok {
		t.Error("expected no cause label")
	}
}

func TestSentinelErrorsWrap(t *testing.T) {
	wrapped := fmt.Errorf("decode LocationUpdatingRequest: %w", ErrFrameTooShort)
	if !errors.Is(wrapped, ErrFrameTooShort) {
		t.Error("expected wrapped error to match ErrFrameTooShort")
	}
	if errors.Is(wrapped, ErrUnknownMessageType) {
		t.Error("did not expect wrapped error to match ErrUnknownMessageType")
	}
}

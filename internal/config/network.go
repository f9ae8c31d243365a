package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"firestige.xyz/gsml3/internal/core"
	"firestige.xyz/gsml3/internal/l3"
	"firestige.xyz/gsml3/internal/l3/mm"
)

// NetworkConfig describes the serving network announced in downlink messages.
type NetworkConfig struct {
	MCC      string `mapstructure:"mcc"`
	MNC      string `mapstructure:"mnc"`
	LAC      int    `mapstructure:"lac"`
	Short    string `mapstructure:"short_name"`
	Full     string `mapstructure:"full_name"`
	TimeZone string `mapstructure:"timezone"` // "+02:00", "-03:30", "UTC" or empty
	DST      int    `mapstructure:"dst"`      // 0, 1 or 2 hours
}

// Validate checks every value object the network section produces.
func (n *NetworkConfig) Validate() error {
	if n.LAC < 0 || n.LAC > 0xffff {
		return fmt.Errorf("%w: network.lac %d out of range", core.ErrConfigInvalid, n.LAC)
	}
	if _, err := n.LAI(); err != nil {
		return fmt.Errorf("%w: network: %v", core.ErrConfigInvalid, err)
	}
	if _, _, err := n.Zone(); err != nil {
		return fmt.Errorf("%w: network.timezone: %v", core.ErrConfigInvalid, err)
	}
	if n.DST < 0 || n.DST > 2 {
		return fmt.Errorf("%w: network.dst must be 0, 1 or 2, got %d", core.ErrConfigInvalid, n.DST)
	}
	return nil
}

// LAI returns the configured location area identification.
func (n *NetworkConfig) LAI() (l3.LAI, error) {
	return l3.NewLAI(n.MCC, n.MNC, uint16(n.LAC))
}

// ShortName returns the short network name element. ok is false when unset.
func (n *NetworkConfig) ShortName() (l3.NetworkName, bool) {
	if n.Short == "" {
		return l3.NetworkName{}, false
	}
	return l3.NewNetworkName(n.Short), true
}

// FullName returns the full network name element. ok is false when unset.
func (n *NetworkConfig) FullName() (l3.NetworkName, bool) {
	if n.Full == "" {
		return l3.NetworkName{}, false
	}
	return l3.NewNetworkName(n.Full), true
}

// Zone parses the configured time zone. ok is false when unset.
func (n *NetworkConfig) Zone() (zone l3.TimeZone, ok bool, err error) {
	s := strings.TrimSpace(n.TimeZone)
	switch strings.ToUpper(s) {
	case "":
		return 0, false, nil
	case "UTC", "GMT", "Z":
		return 0, true, nil
	}
	if s[0] != '+' && s[0] != '-' {
		return 0, false, fmt.Errorf("offset %q must start with + or -", s)
	}
	hours, minutes, found := strings.Cut(s[1:], ":")
	if !found {
		minutes = "0"
	}
	h, err := strconv.Atoi(hours)
	if err != nil {
		return 0, false, fmt.Errorf("offset %q: %w", s, err)
	}
	m, err := strconv.Atoi(minutes)
	if err != nil {
		return 0, false, fmt.Errorf("offset %q: %w", s, err)
	}
	if m < 0 || m >= 60 {
		return 0, false, fmt.Errorf("offset %q: minutes out of range", s)
	}
	d := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
	if s[0] == '-' {
		d = -d
	}
	zone, err = l3.TimeZoneFromOffset(d)
	if err != nil {
		return 0, false, err
	}
	return zone, true, nil
}

// Information builds the MM Information message announcing the network at now.
func (n *NetworkConfig) Information(now time.Time) (*mm.MMInformation, error) {
	msg := &mm.MMInformation{}
	msg.FullName, msg.HasFullName = n.FullName()
	msg.ShortName, msg.HasShortName = n.ShortName()

	zone, ok, err := n.Zone()
	if err != nil {
		return nil, err
	}
	if ok {
		msg.HasTimeZone, msg.TimeZone = true, zone
		msg.HasUniversalTime = true
		msg.UniversalTime = l3.UniversalTime{Time: now.UTC(), Zone: zone}
	}
	if n.DST > 0 {
		msg.HasDST, msg.DST = true, l3.DaylightSaving(n.DST)
	}
	return msg, nil
}

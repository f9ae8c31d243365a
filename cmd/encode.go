package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/gsml3/internal/config"
	"firestige.xyz/gsml3/internal/l3"
	"firestige.xyz/gsml3/internal/l3/mm"
)

// encodeOptions carries the flags of the encode command.
type encodeOptions struct {
	Cause        string
	Identity     string
	IdentityType string
	FollowOn     bool
	Time         string
	Spaced       bool
}

var encodeOpts encodeOptions

var encodeCmd = &cobra.Command{
	Use:   "encode <message>",
	Short: "Encode a downlink mobility management message",
	Long: `Encode a network to mobile MM message and print it as hex. The location
area, network names and time zone come from the network section of the
configuration.

Messages: ` + strings.Join(encodableNames(), ", ") + `

Examples:
  gsml3 encode lu-reject --cause 0x0c
  gsml3 encode lu-accept --identity tmsi:0x12345678 --follow-on
  gsml3 encode identity-request --id-type imei
  gsml3 encode mm-information -c gsml3.yaml --time 2024-03-01T12:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		return runEncode(args[0], encodeOpts, cfg.Network, cmd.OutOrStdout())
	},
}

func init() {
	f := encodeCmd.Flags()
	f.StringVar(&encodeOpts.Cause, "cause", "0x11", "reject or status cause, decimal or 0x hex")
	f.StringVar(&encodeOpts.Identity, "identity", "", "mobile identity: imsi:<digits>, imei:<digits>, imeisv:<digits> or tmsi:<hex>")
	f.StringVar(&encodeOpts.IdentityType, "id-type", "imsi", "identity type requested by identity-request: imsi|imei|imeisv|tmsi")
	f.BoolVar(&encodeOpts.FollowOn, "follow-on", false, "set follow-on proceed in lu-accept")
	f.StringVar(&encodeOpts.Time, "time", "", "RFC 3339 time for mm-information, now when empty")
	f.BoolVar(&encodeOpts.Spaced, "spaced", false, "separate octets with spaces")
}

type messageBuilder func(opts encodeOptions, network config.NetworkConfig) (mm.Message, error)

var builders = map[string]messageBuilder{
	"lu-accept": func(opts encodeOptions, network config.NetworkConfig) (mm.Message, error) {
		lai, err := network.LAI()
		if err != nil {
			return nil, err
		}
		msg := &mm.LocationUpdatingAccept{LAI: lai, FollowOnProceed: opts.FollowOn}
		if opts.Identity != "" {
			id, err := parseIdentity(opts.Identity)
			if err != nil {
				return nil, err
			}
			msg.Identity, msg.HasIdentity = id, true
		}
		return msg, nil
	},
	"lu-reject": func(opts encodeOptions, _ config.NetworkConfig) (mm.Message, error) {
		cause, err := l3.ParseRejectCause(opts.Cause)
		return &mm.LocationUpdatingReject{Cause: cause}, err
	},
	"cm-service-accept": func(encodeOptions, config.NetworkConfig) (mm.Message, error) {
		return &mm.CMServiceAccept{}, nil
	},
	"cm-service-reject": func(opts encodeOptions, _ config.NetworkConfig) (mm.Message, error) {
		cause, err := l3.ParseRejectCause(opts.Cause)
		return &mm.CMServiceReject{Cause: cause}, err
	},
	"cm-service-abort": func(encodeOptions, config.NetworkConfig) (mm.Message, error) {
		return &mm.CMServiceAbort{}, nil
	},
	"identity-request": func(opts encodeOptions, _ config.NetworkConfig) (mm.Message, error) {
		t, err := parseIdentityType(opts.IdentityType)
		return &mm.IdentityRequest{IdentityType: t}, err
	},
	"mm-information": func(opts encodeOptions, network config.NetworkConfig) (mm.Message, error) {
		now := time.Now()
		if opts.Time != "" {
			t, err := time.Parse(time.RFC3339, opts.Time)
			if err != nil {
				return nil, fmt.Errorf("--time: %w", err)
			}
			now = t
		}
		return network.Information(now)
	},
	"mm-status": func(opts encodeOptions, _ config.NetworkConfig) (mm.Message, error) {
		cause, err := l3.ParseRejectCause(opts.Cause)
		return &mm.MMStatus{Cause: cause}, err
	},
	"tmsi-realloc": func(opts encodeOptions, network config.NetworkConfig) (mm.Message, error) {
		lai, err := network.LAI()
		if err != nil {
			return nil, err
		}
		if opts.Identity == "" {
			return nil, fmt.Errorf("tmsi-realloc requires --identity")
		}
		id, err := parseIdentity(opts.Identity)
		if err != nil {
			return nil, err
		}
		return &mm.TMSIReallocationCommand{LAI: lai, Identity: id}, nil
	},
}

func encodableNames() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// runEncode builds the named message and prints its hex form.
func runEncode(name string, opts encodeOptions, network config.NetworkConfig, w io.Writer) error {
	build, ok := builders[name]
	if !ok {
		return fmt.Errorf("unknown message %q, expected one of %s", name, strings.Join(encodableNames(), ", "))
	}
	msg, err := build(opts, network)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	f, err := mm.Encode(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if opts.Spaced {
		_, err = fmt.Fprintln(w, f.String())
	} else {
		_, err = fmt.Fprintln(w, f.Hex())
	}
	return err
}

// parseIdentity reads "<type>:<value>".
func parseIdentity(s string) (l3.MobileIdentity, error) {
	kind, value, ok := strings.Cut(s, ":")
	if !ok {
		return l3.MobileIdentity{}, fmt.Errorf("identity %q: expected <type>:<value>", s)
	}
	switch strings.ToLower(kind) {
	case "imsi":
		return l3.NewIMSI(value)
	case "imei":
		return l3.NewIMEI(value)
	case "imeisv":
		return l3.NewIMEISV(value)
	case "tmsi":
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(value), "0x"), 16, 32)
		if err != nil {
			return l3.MobileIdentity{}, fmt.Errorf("tmsi %q: %w", value, err)
		}
		return l3.NewTMSI(uint32(v)), nil
	default:
		return l3.MobileIdentity{}, fmt.Errorf("identity type %q: expected imsi, imei, imeisv or tmsi", kind)
	}
}

func parseIdentityType(s string) (l3.MobileIDType, error) {
	switch strings.ToLower(s) {
	case "imsi":
		return l3.IdentityIMSI, nil
	case "imei":
		return l3.IdentityIMEI, nil
	case "imeisv":
		return l3.IdentityIMEISV, nil
	case "tmsi":
		return l3.IdentityTMSI, nil
	default:
		return 0, fmt.Errorf("identity type %q: expected imsi, imei, imeisv or tmsi", s)
	}
}

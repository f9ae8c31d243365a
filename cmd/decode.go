package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/gsml3/internal/l3"
	"firestige.xyz/gsml3/internal/l3/mm"
)

var decodeFormat string

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode mobility management frames",
	Long: `Decode one or more MM frames given as hex strings. Spaces, colons and a
0x prefix are ignored.

Examples:
  gsml3 decode 050411
  gsml3 decode -o yaml "05 08 70 00 f1 10 00 01 33 05 f4 12 34 56 78"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(args, decodeFormat, cmd.OutOrStdout())
	},
}

func init() {
	decodeCmd.Flags().StringVarP(&decodeFormat, "output", "o", "text", "output format: text|json|yaml|toml")
}

// decoded is one frame in structured output.
type decoded struct {
	Frame   string         `json:"frame" yaml:"frame" toml:"frame"`
	Type    string         `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Summary string         `json:"summary,omitempty" yaml:"summary,omitempty" toml:"summary,omitempty"`
	Body    map[string]any `json:"body,omitempty" yaml:"body,omitempty" toml:"body,omitempty"`
	Error   string         `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty"`
}

var errDecodeFailed = errors.New("one or more frames failed to decode")

// runDecode prints every frame in the requested format. Failed frames are
// printed too; the returned error reports that at least one failed.
func runDecode(args []string, format string, w io.Writer) error {
	out := make([]decoded, 0, len(args))
	failed := false
	for _, arg := range args {
		d := decodeOne(arg)
		if d.Error != "" {
			failed = true
		}
		out = append(out, d)
	}

	var err error
	switch format {
	case "text":
		for _, d := range out {
			if d.Error != "" {
				fmt.Fprintf(w, "%s: error: %s\n", d.Frame, d.Error)
				continue
			}
			fmt.Fprintf(w, "%s: %s\n", d.Frame, d.Summary)
		}
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(out)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(out)
		if err == nil {
			err = enc.Close()
		}
	case "toml":
		err = toml.NewEncoder(w).Encode(map[string]any{"frames": out})
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
	if err != nil {
		return err
	}
	if failed {
		return errDecodeFailed
	}
	return nil
}

func decodeOne(arg string) decoded {
	f, err := l3.ParseHex(arg)
	if err != nil {
		return decoded{Frame: arg, Error: err.Error()}
	}
	d := decoded{Frame: f.Hex()}
	msg, err := mm.Parse(f)
	if err != nil {
		d.Error = err.Error()
		return d
	}
	d.Type = msg.MessageType().String()
	d.Summary = msg.String()
	body, err := messageBody(msg)
	if err != nil {
		d.Error = err.Error()
		return d
	}
	d.Body = body
	return d
}

// messageBody converts msg into plain maps with integer numbers, the common
// ground of JSON, YAML and TOML.
func messageBody(msg mm.Message) (map[string]any, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	if body == nil {
		return map[string]any{}, nil
	}
	return normalize(body).(map[string]any), nil
}

// normalize drops nulls and turns json.Number into int64 or float64.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, e := range x {
			if e == nil {
				delete(x, k)
				continue
			}
			x[k] = normalize(e)
		}
		return x
	case []any:
		for i, e := range x {
			x[i] = normalize(e)
		}
		return x
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		f, _ := x.Float64()
		return f
	default:
		return v
	}
}

package component

import (
	"encoding/json"
	"fmt"
	"time"

	"jasper-mate-utils/src/fxt/point"
)

// Type GUIDs for the catalog, used as the JSON "type" discriminator in a
// component Spec.
const (
	TypeWire      = "fxt.component.wire"
	TypeAnd       = "fxt.component.and"
	TypeByteMux   = "fxt.component.byte_mux"
	TypeByteDemux = "fxt.component.byte_demux"
	TypeNBitMux   = "fxt.component.nbit_mux"
	TypeNBitDemux = "fxt.component.nbit_demux"
	TypeOnOff     = "fxt.component.onoff"
)

// bitChannelSpec is one entry of a byte/N-bit mux or demux's channel
// list: the boolean point plus the bit offset it occupies in the packed
// word and an optional negate flag.
type bitChannelSpec struct {
	Point  uint32 `json:"point"`
	Bit    uint   `json:"bit"`
	Negate bool   `json:"negate,omitempty"`
}

// Spec is the JSON configuration shape for one component: a type GUID
// plus the point ids it references, resolved against the node's point
// database at construction time (resolve_references).
type Spec struct {
	ID         uint32          `json:"id"`
	Type       string          `json:"type"`
	In         []uint32        `json:"in,omitempty"`
	Out        []uint32        `json:"out,omitempty"`
	Negate     []bool          `json:"negate,omitempty"`     // and: per-output negate
	Reset      uint32          `json:"reset,omitempty"`      // onoff; 0 means "not wired"
	Complement uint32          `json:"complement,omitempty"` // onoff /Q point; 0 means "not wired"
	Channels   []bitChannelSpec `json:"channels,omitempty"`  // byte/nbit mux and demux
	Config     json.RawMessage `json:"config,omitempty"`
}

type onOffConfig struct {
	HysteresisOn  float64 `json:"hysteresisOn"`
	HysteresisOff float64 `json:"hysteresisOff"`
	MinOnSeconds  float64 `json:"minOnSeconds"`
	MinOffSeconds float64 `json:"minOffSeconds"`
}

// Build resolves spec's point references against db and constructs the
// matching catalog Component.
func Build(spec Spec, db *point.Database) (Component, error) {
	resolve := func(id uint32) (*point.Point, error) {
		p := db.LookupByID(id)
		if p == nil {
			return nil, fmt.Errorf("component %d: point %d not found", spec.ID, id)
		}
		return p, nil
	}
	resolveAll := func(ids []uint32) ([]*point.Point, error) {
		pts := make([]*point.Point, len(ids))
		for i, id := range ids {
			p, err := resolve(id)
			if err != nil {
				return nil, err
			}
			pts[i] = p
		}
		return pts, nil
	}
	resolveChannels := func(specs []bitChannelSpec) ([]BitChannel, error) {
		channels := make([]BitChannel, len(specs))
		for i, cs := range specs {
			p, err := resolve(cs.Point)
			if err != nil {
				return nil, err
			}
			channels[i] = BitChannel{Point: p, Bit: cs.Bit, Negate: cs.Negate}
		}
		return channels, nil
	}

	switch spec.Type {
	case TypeWire:
		in, err := resolveAll(spec.In)
		if err != nil {
			return nil, err
		}
		out, err := resolveAll(spec.Out)
		if err != nil {
			return nil, err
		}
		if len(in) != len(out) {
			return nil, fmt.Errorf("component %d: wire requires equal input/output counts, got %d/%d", spec.ID, len(in), len(out))
		}
		return NewWire(spec.ID, in, out), nil

	case TypeAnd:
		in, err := resolveAll(spec.In)
		if err != nil {
			return nil, err
		}
		if len(spec.Out) < 1 || len(spec.Out) > 2 {
			return nil, fmt.Errorf("component %d: and requires one or two outputs", spec.ID)
		}
		out, err := resolveAll(spec.Out)
		if err != nil {
			return nil, err
		}
		negate := spec.Negate
		if negate == nil {
			negate = make([]bool, len(out))
		}
		if len(negate) != len(out) {
			return nil, fmt.Errorf("component %d: and negate count %d must match output count %d", spec.ID, len(negate), len(out))
		}
		return NewAnd(spec.ID, in, out, negate), nil

	case TypeByteMux, TypeNBitMux:
		if len(spec.Out) != 1 {
			return nil, fmt.Errorf("component %d: mux requires exactly one output", spec.ID)
		}
		out, err := resolve(spec.Out[0])
		if err != nil {
			return nil, err
		}
		if err := checkMuxArity(spec, out, spec.Type == TypeByteMux); err != nil {
			return nil, err
		}
		channels, err := resolveChannels(spec.Channels)
		if err != nil {
			return nil, err
		}
		if spec.Type == TypeByteMux {
			return NewByteMux(spec.ID, channels, out), nil
		}
		return NewNBitMux(spec.ID, channels, out), nil

	case TypeByteDemux, TypeNBitDemux:
		if len(spec.In) != 1 {
			return nil, fmt.Errorf("component %d: demux requires exactly one input", spec.ID)
		}
		in, err := resolve(spec.In[0])
		if err != nil {
			return nil, err
		}
		if err := checkMuxArity(spec, in, spec.Type == TypeByteDemux); err != nil {
			return nil, err
		}
		channels, err := resolveChannels(spec.Channels)
		if err != nil {
			return nil, err
		}
		if spec.Type == TypeByteDemux {
			return NewByteDemux(spec.ID, in, channels), nil
		}
		return NewNBitDemux(spec.ID, in, channels), nil

	case TypeOnOff:
		if len(spec.In) != 2 {
			return nil, fmt.Errorf("component %d: onoff requires [measured, setpoint] inputs", spec.ID)
		}
		measured, err := resolve(spec.In[0])
		if err != nil {
			return nil, err
		}
		setpoint, err := resolve(spec.In[1])
		if err != nil {
			return nil, err
		}
		var reset *point.Point
		if spec.Reset != 0 {
			reset, err = resolve(spec.Reset)
			if err != nil {
				return nil, err
			}
		}
		var output *point.Point
		if len(spec.Out) > 0 {
			output, err = resolve(spec.Out[0])
			if err != nil {
				return nil, err
			}
		}
		var complement *point.Point
		if spec.Complement != 0 {
			complement, err = resolve(spec.Complement)
			if err != nil {
				return nil, err
			}
		}
		if output == nil && complement == nil {
			return nil, fmt.Errorf("component %d: onoff requires an output or a complement output", spec.ID)
		}
		var cfg onOffConfig
		if spec.Config != nil {
			if err := json.Unmarshal(spec.Config, &cfg); err != nil {
				return nil, fmt.Errorf("component %d: %w", spec.ID, err)
			}
		}
		minOn := time.Duration(cfg.MinOnSeconds * float64(time.Second))
		minOff := time.Duration(cfg.MinOffSeconds * float64(time.Second))
		return NewOnOff(spec.ID, measured, setpoint, reset, output, complement, cfg.HysteresisOn, cfg.HysteresisOff, minOn, minOff), nil

	default:
		return nil, fmt.Errorf("component %d: unknown type %q", spec.ID, spec.Type)
	}
}

// checkMuxArity enforces the spec's channel-count bounds: a byte mux/
// demux never exceeds 8 channels (one byte), an N-bit mux/demux never
// exceeds the bit width of its actual integer point.
func checkMuxArity(spec Spec, wordPoint *point.Point, byteWidth bool) error {
	maxBits := point.FixedSize(wordPoint.Kind()) * 8
	if byteWidth && maxBits > 8 {
		maxBits = 8
	}
	if len(spec.Channels) > maxBits {
		return fmt.Errorf("component %d: %d channels exceed %d-bit word", spec.ID, len(spec.Channels), maxBits)
	}
	return nil
}

package node

import (
	"encoding/json"
	"fmt"
	"time"

	"jasper-mate-utils/src/fxt/arena"
	"jasper-mate-utils/src/fxt/card"
	"jasper-mate-utils/src/fxt/chassis"
	"jasper-mate-utils/src/fxt/component"
	"jasper-mate-utils/src/fxt/logicchain"
	"jasper-mate-utils/src/fxt/point"
)

// Document is the top-level JSON configuration schema: the node factory
// walks it in the fixed order below (points, then cards, then
// components, then chains, then chassis) since each stage resolves
// references into the one before it.
type Document struct {
	Arenas     ArenaSizes      `json:"arenas"`
	Points     []point.Spec    `json:"points"`
	Cards      []CardSpec      `json:"cards"`
	Components []component.Spec `json:"components"`
	Chains     []ChainSpec     `json:"chains"`
	Chassis    []ChassisSpec   `json:"chassis"`
}

// ArenaSizes sizes the node's three bump allocators, in bytes. Zero
// fields fall back to a modest default so a minimal test document
// doesn't need to size memory by hand.
type ArenaSizes struct {
	General      int `json:"general"`
	CardStateful int `json:"cardStateful"`
	HAStateful   int `json:"haStateful"`
}

const defaultArenaBytes = 64 * 1024

func (a ArenaSizes) orDefaults() ArenaSizes {
	if a.General == 0 {
		a.General = defaultArenaBytes
	}
	if a.CardStateful == 0 {
		a.CardStateful = defaultArenaBytes
	}
	if a.HAStateful == 0 {
		a.HAStateful = defaultArenaBytes
	}
	return a
}

// ChannelSpec is one card channel in configuration.
type ChannelSpec struct {
	Name         string `json:"name"`
	IORegisterID uint32 `json:"ioRegisterId"`
	VirtualID    uint32 `json:"virtualId"`
	Direction    string `json:"direction"` // "input" or "output"
}

// CardSpec configures one card. Kind selects the concrete builder
// (currently "mock"; additional kinds such as "modbus" are registered by
// the server layer via RegisterCardKind so the core package doesn't need
// to import every driver).
type CardSpec struct {
	ID       uint32          `json:"id"`
	Kind     string          `json:"kind"`
	TypeName string          `json:"typeName,omitempty"`
	TypeGUID string          `json:"typeGuid,omitempty"`
	Slot     int             `json:"slot,omitempty"`
	Channels []ChannelSpec   `json:"channels"`
	Setters  []SetterSpec    `json:"setters,omitempty"`
	Config   json.RawMessage `json:"config,omitempty"`
}

// SetterSpec seeds one point via an internal Setter: reapplied every
// cycle when attached to a chain, or reapplied on every card Start when
// attached to a card's IO Register.
type SetterSpec struct {
	TargetID uint32      `json:"targetId"`
	Setter   point.Spec  `json:"setter"`
}

// ChainSpec configures one logic chain: an ordered list of component ids
// (execution order) plus the setters reapplied each cycle.
type ChainSpec struct {
	ID         uint32       `json:"id"`
	Components []uint32     `json:"components"`
	Setters    []SetterSpec `json:"setters,omitempty"`
}

// ScannerSpec/ExecutionSetSpec/ChassisSpec configure one chassis.
type ScannerSpec struct {
	Name    string   `json:"name"`
	CardIDs []uint32 `json:"cardIds"`
	Divider uint64   `json:"divider,omitempty"`
}

type ExecutionSetSpec struct {
	Name     string   `json:"name"`
	ChainIDs []uint32 `json:"chainIds"`
	Divider  uint64   `json:"divider,omitempty"`
}

type ChassisSpec struct {
	Name             string             `json:"name"`
	BaseIntervalMS   int64              `json:"baseIntervalMs"`
	Scanners         []ScannerSpec      `json:"scanners"`
	ExecutionSets    []ExecutionSetSpec `json:"executionSets"`
}

// CardBuilder constructs a card.Card from a CardSpec's channels (already
// resolved into a card.Base) and its opaque config blob. Drivers that
// need dependencies the core doesn't import (Modbus, GPIO) register
// themselves under a kind name via RegisterCardKind.
type CardBuilder func(base *card.Base, config json.RawMessage) (card.Card, error)

var cardBuilders = map[string]CardBuilder{
	"mock": func(base *card.Base, _ json.RawMessage) (card.Card, error) {
		return card.NewMockCard(base), nil
	},
}

// RegisterCardKind adds a CardBuilder under name, so the server layer
// can wire in driver packages (e.g. modbusio) without the core node
// package importing them. Intended to be called from an init() in the
// driver package's consumer, before any Load call.
func RegisterCardKind(name string, builder CardBuilder) {
	cardBuilders[name] = builder
}

// Load parses and builds a complete Node from a configuration document,
// in the fixed points -> cards -> components -> chains -> chassis order.
// On any error the node's point database (and everything built so far)
// is torn down and the first error is returned.
func Load(raw []byte) (*Node, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("node: bad configuration JSON: %w", err)
	}

	sizes := doc.Arenas.orDefaults()
	arenas := arena.NewSet(sizes.General, sizes.CardStateful, sizes.HAStateful)
	db := point.NewDatabase()
	pf := point.NewFactoryDatabase(arenas, db)

	n := &Node{
		Arenas:     arenas,
		DB:         db,
		Cards:      map[uint32]card.Card{},
		Components: map[uint32]component.Component{},
		Chains:     map[uint32]*logicchain.Chain{},
		Chassis:    map[string]*chassis.Chassis{},
	}

	fail := func(err error) (*Node, error) {
		db.CleanupAfterNodeCreateFailure()
		return nil, err
	}

	for _, spec := range doc.Points {
		if _, err := pf.Create(spec); err != nil {
			return fail(fmt.Errorf("node: point %d: %w", spec.ID, err))
		}
	}

	for _, cs := range doc.Cards {
		channels := make([]card.ChannelPair, len(cs.Channels))
		directions := make(map[uint32]card.Direction, len(cs.Channels))
		for i, ch := range cs.Channels {
			channels[i] = card.ChannelPair{Name: ch.Name, IORegisterID: ch.IORegisterID, VirtualID: ch.VirtualID}
			if ch.Direction == "output" {
				directions[ch.IORegisterID] = card.DirectionOutput
			} else {
				directions[ch.IORegisterID] = card.DirectionInput
			}
		}
		base, err := card.NewBase(cs.ID, channels, directions, db)
		if err != nil {
			return fail(fmt.Errorf("node: card %d: %w", cs.ID, err))
		}
		base.SetIdentity(cs.TypeName, cs.TypeGUID, cs.Slot)
		for _, ss := range cs.Setters {
			target := db.LookupByID(ss.TargetID)
			if target == nil {
				return fail(fmt.Errorf("node: card %d: setter target %d not found", cs.ID, ss.TargetID))
			}
			setter, err := pf.CreateSetter(ss.Setter, target)
			if err != nil {
				return fail(fmt.Errorf("node: card %d: setter: %w", cs.ID, err))
			}
			base.AddSetter(setter, target)
		}
		builder, ok := cardBuilders[cs.Kind]
		if !ok {
			return fail(fmt.Errorf("node: card %d: unknown kind %q", cs.ID, cs.Kind))
		}
		c, err := builder(base, cs.Config)
		if err != nil {
			return fail(fmt.Errorf("node: card %d: %w", cs.ID, err))
		}
		n.Cards[cs.ID] = c
	}

	for _, spec := range doc.Components {
		c, err := component.Build(spec, db)
		if err != nil {
			return fail(fmt.Errorf("node: %w", err))
		}
		n.Components[spec.ID] = c
	}

	for _, cs := range doc.Chains {
		chain := logicchain.New(cs.ID)
		for _, compID := range cs.Components {
			c, ok := n.Components[compID]
			if !ok {
				return fail(fmt.Errorf("node: chain %d: component %d not found", cs.ID, compID))
			}
			chain.AddComponent(c)
		}
		for _, ss := range cs.Setters {
			target := db.LookupByID(ss.TargetID)
			if target == nil {
				return fail(fmt.Errorf("node: chain %d: setter target %d not found", cs.ID, ss.TargetID))
			}
			setter, err := pf.CreateSetter(ss.Setter, target)
			if err != nil {
				return fail(fmt.Errorf("node: chain %d: setter: %w", cs.ID, err))
			}
			chain.AddSetter(setter, target)
		}
		n.Chains[cs.ID] = chain
	}

	for _, chs := range doc.Chassis {
		interval := time.Duration(chs.BaseIntervalMS) * time.Millisecond
		if interval <= 0 {
			interval = 10 * time.Millisecond
		}
		ch := chassis.New(chs.Name, interval)
		for _, ss := range chs.Scanners {
			cards := make([]card.Card, 0, len(ss.CardIDs))
			for _, id := range ss.CardIDs {
				c, ok := n.Cards[id]
				if !ok {
					return fail(fmt.Errorf("node: chassis %s: scanner %s: card %d not found", chs.Name, ss.Name, id))
				}
				cards = append(cards, c)
			}
			ch.AddScanner(&chassis.Scanner{Name: ss.Name, Cards: cards, Divider: ss.Divider})
		}
		for _, es := range chs.ExecutionSets {
			chains := make([]*logicchain.Chain, 0, len(es.ChainIDs))
			for _, id := range es.ChainIDs {
				c, ok := n.Chains[id]
				if !ok {
					return fail(fmt.Errorf("node: chassis %s: execution set %s: chain %d not found", chs.Name, es.Name, id))
				}
				chains = append(chains, c)
			}
			ch.AddExecutionSet(&chassis.ExecutionSet{Name: es.Name, Chains: chains, Divider: es.Divider})
		}
		n.Chassis[chs.Name] = ch
	}

	return n, nil
}

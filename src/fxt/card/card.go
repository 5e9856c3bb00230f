// Package card implements the Card contract: the boundary between the
// Point system and physical or simulated IO. A card owns one or more
// channels, each pairing an IO Register point (card-side, written/read by
// the card itself) with a Virtual Point (chassis-side, read/written by
// components); scan_inputs copies IO Register -> Virtual Point, and
// flush_outputs copies Virtual Point -> IO Register, once per scan cycle.
package card

import (
	"sync"

	"jasper-mate-utils/src/fxt/point"
	"jasper-mate-utils/src/fxt/xerr"
)

// ChannelPair names the two points backing one physical channel: the
// card-local IO Register and the chassis-visible Virtual Point.
type ChannelPair struct {
	Name        string
	IORegisterID uint32
	VirtualID    uint32
}

// Card is the contract every card subtype (sync, async, mock, Modbus
// remote-IO) satisfies. start/stop bracket the card's lifetime; within
// that bracket the chassis's Scanner calls ScanInputs once per scan
// cycle and FlushOutputs once per flush phase, always in that chassis's
// single mailbox thread — a Card's methods are never called concurrently
// with each other for the same instance.
type Card interface {
	// ID returns the card's unique identifier within its node.
	ID() uint32
	// Channels returns the card's channel list, fixed at construction.
	Channels() []ChannelPair
	// Start brings the card's backing IO online (opens a device, starts a
	// driver thread, etc). Idempotent start is not required.
	Start() error
	// Stop takes the card's backing IO offline and releases any resources
	// acquired by Start.
	Stop() error
	// ScanInputs copies the card's current input state into its Virtual
	// Points. Called once per scan cycle while started.
	ScanInputs() error
	// FlushOutputs copies each output Virtual Point's current value to
	// the card's IO Registers / physical outputs. Called once per flush
	// phase while started.
	FlushOutputs() error
	// OutputVirtualPoints returns the chassis-visible Virtual Points
	// backing this card's output channels, for the command surface's
	// safe-state-on-disconnect path.
	OutputVirtualPoints() []*point.Point
	// TypeGUID identifies the concrete card kind (e.g. "fxt.card.modbus"),
	// fixed at construction.
	TypeGUID() string
	// TypeName is a human-readable label for TypeGUID, for diagnostics.
	TypeName() string
	// SlotNumber is the card's position in its chassis/rack, as configured.
	SlotNumber() int
	// IsStarted reports whether Start has succeeded and Stop has not yet
	// been called.
	IsStarted() bool
	// ErrorCode returns the most recent runtime IO error latched by
	// ScanInputs/FlushOutputs, or xerr.Success if none is outstanding.
	// ClearError resets it.
	ErrorCode() xerr.Code
}

// Direction distinguishes an input channel (IO Register -> Virtual) from
// an output channel (Virtual -> IO Register).
type Direction uint8

const (
	DirectionInput Direction = iota
	DirectionOutput
)

// Base provides the point bookkeeping shared by every concrete card: a
// channel list plus, for each channel, its direction and a resolved
// pointer pair once the node factory has created the backing points.
// Concrete cards embed Base and implement Start/Stop/ScanInputs/
// FlushOutputs against its resolved channels.
type Base struct {
	id        uint32
	channels  []ChannelPair
	direction map[uint32]Direction // keyed by IORegisterID
	ioRegs    map[uint32]*point.Point
	virtuals  map[uint32]*point.Point

	typeName string
	typeGUID string
	slot     int

	setters []setterBinding

	errMu   sync.Mutex
	lastErr xerr.Code
}

// setterBinding pairs a card-owned Setter with the IO Register point it
// seeds, applied on every Start so a restarted card's registers come
// back up at their configured initial values rather than staying
// invalid.
type setterBinding struct {
	setter *point.Setter
	target *point.Point
}

// NewBase constructs a Base from a channel list and direction map (keyed
// by ChannelPair.IORegisterID), resolving each channel's points from db.
// db must already contain every point named by channels (the node
// factory constructs card points before constructing the card itself).
func NewBase(id uint32, channels []ChannelPair, directions map[uint32]Direction, db *point.Database) (*Base, error) {
	b := &Base{
		id:        id,
		channels:  channels,
		direction: directions,
		ioRegs:    make(map[uint32]*point.Point, len(channels)),
		virtuals:  make(map[uint32]*point.Point, len(channels)),
	}
	for _, ch := range channels {
		ioReg := db.LookupByID(ch.IORegisterID)
		if ioReg == nil {
			return nil, notFoundError(ch.IORegisterID)
		}
		virt := db.LookupByID(ch.VirtualID)
		if virt == nil {
			return nil, notFoundError(ch.VirtualID)
		}
		b.ioRegs[ch.IORegisterID] = ioReg
		b.virtuals[ch.VirtualID] = virt
	}
	return b, nil
}

func (b *Base) ID() uint32 { return b.id }

func (b *Base) Channels() []ChannelPair { return b.channels }

// SetIdentity records the card's type GUID/name and slot number, called
// by the node factory right after construction. It does not change
// NewBase's signature so existing call sites are unaffected.
func (b *Base) SetIdentity(typeName, typeGUID string, slot int) {
	b.typeName = typeName
	b.typeGUID = typeGUID
	b.slot = slot
}

func (b *Base) TypeGUID() string { return b.typeGUID }

func (b *Base) TypeName() string { return b.typeName }

func (b *Base) SlotNumber() int { return b.slot }

// SetError latches code into the card's error cell, replacing whatever
// was there before — only the most recent runtime IO failure is kept.
func (b *Base) SetError(code xerr.Code) {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	b.lastErr = code
}

// ErrorCode returns the most recently latched runtime IO error, or
// xerr.Success if none is outstanding.
func (b *Base) ErrorCode() xerr.Code {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.lastErr
}

// ClearError resets the card's error cell to success.
func (b *Base) ClearError() {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	b.lastErr = xerr.Success
}

// AddSetter registers a Setter to be applied to target every time
// ApplySetters runs (on every Start), seeding the IO Register back to
// its configured value/validity on restart.
func (b *Base) AddSetter(setter *point.Setter, target *point.Point) {
	b.setters = append(b.setters, setterBinding{setter: setter, target: target})
}

// ApplySetters applies every registered setter to its target IO
// Register. Called from each concrete card's Start so a restarted card
// always comes back up with its configured initial register state.
// ScanInputs/FlushOutputs apply no setters; at the logic-chain layer,
// Chain.Execute reapplies its own setters every cycle.
func (b *Base) ApplySetters() {
	for _, s := range b.setters {
		s.setter.ApplyTo(s.target)
	}
}

// CopyInputs copies every input-direction channel's IO Register into its
// Virtual Point (value and validity both), the common half of
// ScanInputs shared by every card subtype.
func (b *Base) CopyInputs() {
	for _, ch := range b.channels {
		if b.direction[ch.IORegisterID] != DirectionInput {
			continue
		}
		ioReg := b.ioRegs[ch.IORegisterID]
		virt := b.virtuals[ch.VirtualID]
		copyPoint(virt, ioReg)
	}
}

// CopyOutputs copies every output-direction channel's Virtual Point into
// its IO Register, the common half of FlushOutputs shared by every card
// subtype.
func (b *Base) CopyOutputs() {
	for _, ch := range b.channels {
		if b.direction[ch.IORegisterID] != DirectionOutput {
			continue
		}
		ioReg := b.ioRegs[ch.IORegisterID]
		virt := b.virtuals[ch.VirtualID]
		copyPoint(ioReg, virt)
	}
}

// OutputVirtualPoints returns the Virtual Points backing this card's
// output-direction channels, in channel order.
func (b *Base) OutputVirtualPoints() []*point.Point {
	var outs []*point.Point
	for _, ch := range b.channels {
		if b.direction[ch.IORegisterID] == DirectionOutput {
			outs = append(outs, b.virtuals[ch.VirtualID])
		}
	}
	return outs
}

// copyPoint copies src's value/validity onto dst with point.CopyValue (a
// raw value copy, no JSON round trip), keeping Base oblivious to
// concrete Kind — point.CopyValue ignores identity, only matching Kind.
func copyPoint(dst, src *point.Point) {
	point.CopyValue(dst, src, point.NoRequest)
}


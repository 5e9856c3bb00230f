package card

import "jasper-mate-utils/src/fxt/point"

// MockCard is a test-harness card: it implements Card against an
// in-memory map of channel values, with no real IO, so component and
// chassis tests can drive card state directly without a GPIO or Modbus
// dependency.
type MockCard struct {
	*Base
	started bool
	// FaultChannels marks IO Register ids as faulted: while an id maps to
	// true, every ScanInputs call invalidates that register and latches
	// ErrIOFault in the error cell (ScanInputs itself still returns nil).
	FaultChannels map[uint32]bool
}

// NewMockCard wraps a Base with no backing hardware at all: ScanInputs
// simply republishes whatever the test has already written into the IO
// Register points, and FlushOutputs is a straight copy to IO Registers,
// exactly mirroring SyncCard's copy semantics without any device calls.
func NewMockCard(base *Base) *MockCard {
	return &MockCard{Base: base, FaultChannels: map[uint32]bool{}}
}

func (c *MockCard) Start() error {
	c.started = true
	c.ApplySetters()
	return nil
}

func (c *MockCard) Stop() error {
	c.started = false
	return nil
}

func (c *MockCard) IsStarted() bool { return c.started }

func (c *MockCard) ScanInputs() error {
	if !c.started {
		return nil
	}
	for id, fault := range c.FaultChannels {
		if !fault {
			continue
		}
		if ioReg, ok := c.ioRegs[id]; ok {
			ioReg.SetInvalid(point.NoRequest)
			c.SetError(ErrIOFault)
		}
	}
	c.CopyInputs()
	return nil
}

func (c *MockCard) FlushOutputs() error {
	if !c.started {
		return nil
	}
	c.CopyOutputs()
	return nil
}

// SetInputRaw lets a test directly set an IO Register's value by id,
// bypassing any simulated device — the equivalent of wiggling a pin in
// hardware.
func (c *MockCard) SetInputRaw(ioRegisterID uint32, raw []byte) error {
	p, ok := c.ioRegs[ioRegisterID]
	if !ok {
		return notFoundError(ioRegisterID)
	}
	return p.FromJSON(raw, point.NoRequest)
}

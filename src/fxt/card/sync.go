package card

import "jasper-mate-utils/src/fxt/point"

// GPIOReader/GPIOWriter abstract the actual kernel GPIO interface a real
// sync card talks to, so the card logic is testable without real pins.
// A production implementation backs these with memory-mapped registers
// or a sysfs/gpiod client; the tests back them with plain in-memory
// state (fakeGPIO in sync_test.go).
type GPIOReader interface {
	ReadBit(channel int) (bool, error)
}

type GPIOWriter interface {
	WriteBit(channel int, v bool) error
}

// SyncCard is a synchronous GPIO card: ScanInputs and FlushOutputs talk
// to the GPIO device directly on the calling (chassis) thread, with no
// driver thread and no ITC — appropriate for IO fast enough not to stall
// the scan cycle, such as memory-mapped GPIO.
type SyncCard struct {
	*Base
	channelIndex map[uint32]int // IORegisterID -> GPIO channel number
	reader       GPIOReader
	writer       GPIOWriter
	started      bool
}

// NewSyncCard wraps a Base with a GPIO reader/writer pair and the
// IORegisterID -> GPIO-channel-number mapping.
func NewSyncCard(base *Base, channelIndex map[uint32]int, reader GPIOReader, writer GPIOWriter) *SyncCard {
	return &SyncCard{Base: base, channelIndex: channelIndex, reader: reader, writer: writer}
}

func (c *SyncCard) Start() error {
	c.started = true
	c.ApplySetters()
	return nil
}

func (c *SyncCard) Stop() error {
	c.started = false
	return nil
}

func (c *SyncCard) IsStarted() bool { return c.started }

func (c *SyncCard) ScanInputs() error {
	if !c.started {
		return nil
	}
	for _, ch := range c.Channels() {
		if c.direction[ch.IORegisterID] != DirectionInput {
			continue
		}
		ioReg := c.ioRegs[ch.IORegisterID]
		gpioCh, ok := c.channelIndex[ch.IORegisterID]
		if !ok {
			continue
		}
		v, err := c.reader.ReadBit(gpioCh)
		if err != nil {
			ioReg.SetInvalid(point.NoRequest)
			c.SetError(ErrIOFault)
			continue
		}
		ioReg.WriteBool(v, point.NoRequest)
	}
	c.CopyInputs()
	return nil
}

func (c *SyncCard) FlushOutputs() error {
	if !c.started {
		return nil
	}
	c.CopyOutputs()
	for _, ch := range c.Channels() {
		if c.direction[ch.IORegisterID] != DirectionOutput {
			continue
		}
		ioReg := c.ioRegs[ch.IORegisterID]
		gpioCh, ok := c.channelIndex[ch.IORegisterID]
		if !ok {
			continue
		}
		v, valid := ioReg.ReadBool()
		if !valid {
			continue
		}
		if err := c.writer.WriteBit(gpioCh, v); err != nil {
			c.SetError(ErrIOFault)
		}
	}
	return nil
}

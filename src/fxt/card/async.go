package card

import (
	"fmt"
	"sync/atomic"

	"jasper-mate-utils/src/fxt/point"
)

// Driver is the device-specific half of an AsyncCard, run on its own
// goroutine: it receives coalesced scan/flush requests from the mailbox
// and reads/writes the real device, publishing results through a
// DoubleBuffer so the chassis thread never blocks on device latency.
type Driver interface {
	// Open starts the underlying device session (opens a serial port,
	// connects to a sensor bus, etc).
	Open() error
	// Close releases the device session.
	Close() error
	// ReadInto fills dst with the device's current input snapshot.
	ReadInto(dst []byte) error
	// WriteFrom pushes src (the current output snapshot) to the device.
	WriteFrom(src []byte) error
}

// AsyncCard is a driver-thread-backed card: scan_inputs and
// flush_outputs never touch the device directly. Instead a single
// background goroutine drains a coalescing Mailbox of Scan/Flush
// requests against Driver, publishing input snapshots through a
// DoubleBuffer that ScanInputs reads from without blocking. Start and
// Stop call the driver's Open/Close directly on the caller's goroutine.
type AsyncCard struct {
	*Base
	driver    Driver
	mailbox   *Mailbox
	inputs    *DoubleBuffer
	outputs   *DoubleBuffer
	seq       uint64
	ackSeq    uint64 // highest Seq the driver has completed
	running   bool
	done      chan struct{}
}

// NewAsyncCard wires a Base to a Driver with input/output snapshot
// buffers sized in bytes.
func NewAsyncCard(base *Base, driver Driver, inputBytes, outputBytes int) *AsyncCard {
	return &AsyncCard{
		Base:    base,
		driver:  driver,
		mailbox: NewMailbox(),
		inputs:  NewDoubleBuffer(inputBytes),
		outputs: NewDoubleBuffer(outputBytes),
	}
}

func (c *AsyncCard) Start() error {
	if c.running {
		return nil
	}
	if err := c.driver.Open(); err != nil {
		return err
	}
	c.running = true
	c.done = make(chan struct{})
	go c.driverLoop()
	c.ApplySetters()
	return nil
}

func (c *AsyncCard) Stop() error {
	if !c.running {
		return nil
	}
	c.running = false
	c.mailbox.Close()
	<-c.done
	return c.driver.Close()
}

func (c *AsyncCard) IsStarted() bool { return c.running }

// driverLoop runs on its own goroutine for the card's whole started
// lifetime, processing only the newest pending request at each wakeup —
// older coalesced requests are simply dropped, since every request here
// carries a full snapshot rather than a delta.
func (c *AsyncCard) driverLoop() {
	defer close(c.done)
	for {
		req, ok := c.mailbox.Take()
		if !ok {
			return
		}
		switch req.Kind {
		case RequestScan:
			buf := c.inputs.Back()
			if err := c.driver.ReadInto(buf); err == nil {
				c.inputs.Swap()
			} else {
				c.SetError(ErrIOTimeout)
			}
		case RequestFlush:
			buf := c.outputs.Back()
			c.outputs.Front(buf)
			if err := c.driver.WriteFrom(buf); err != nil {
				c.SetError(ErrIOFault)
			}
		}
		atomic.StoreUint64(&c.ackSeq, req.Seq)
	}
}

// ScanInputs posts a scan request to the driver thread (coalescing with
// any request still pending) and republishes the driver's last completed
// snapshot into the card's input Virtual Points. It never blocks on the
// driver: a cycle that outruns the device simply sees last cycle's data
// again, which is why every input Virtual Point carries a validity bit.
func (c *AsyncCard) ScanInputs() error {
	if !c.running {
		return nil
	}
	c.mailbox.Post(Request{Kind: RequestScan, Seq: atomic.AddUint64(&c.seq, 1)})
	if !c.inputs.Sampled() {
		c.invalidateInputs()
		return nil
	}
	buf := make([]byte, c.inputs.Len())
	c.inputs.Front(buf)
	return c.unpackInputs(buf)
}

// invalidateInputs marks every input IO Register (and, through
// CopyInputs, its Virtual Point) invalid, used before the driver thread
// has ever produced a real sample so a scan never reports a zero value
// as if it were genuine device data.
func (c *AsyncCard) invalidateInputs() {
	for _, ch := range c.Channels() {
		if c.direction[ch.IORegisterID] != DirectionInput {
			continue
		}
		c.ioRegs[ch.IORegisterID].SetInvalid(point.NoRequest)
	}
	c.CopyInputs()
}

// FlushOutputs copies the card's output Virtual Points into the
// published output snapshot and posts a flush request to the driver
// thread; it does not wait for the device write to complete.
func (c *AsyncCard) FlushOutputs() error {
	if !c.running {
		return nil
	}
	c.CopyOutputs()
	buf := c.packOutputs()
	dst := c.outputs.Back()
	copy(dst, buf)
	c.outputs.Swap()
	c.mailbox.Post(Request{Kind: RequestFlush, Seq: atomic.AddUint64(&c.seq, 1)})
	return nil
}

// Reboot forwards to the driver's own Reboot if it implements one (e.g.
// modbusio.Driver's vendor-specific reboot register write). It runs on
// the caller's goroutine, not the driver's own loop, since Reboot's
// underlying client call is already synchronized by the driver itself.
func (c *AsyncCard) Reboot() error {
	r, ok := c.driver.(interface{ Reboot() error })
	if !ok {
		return fmt.Errorf("card: driver %T does not support reboot", c.driver)
	}
	return r.Reboot()
}

// SetBaudRate forwards to the driver's own SetBaudRate if it implements
// one, same calling convention as Reboot.
func (c *AsyncCard) SetBaudRate(baud int) error {
	r, ok := c.driver.(interface{ SetBaudRate(int) error })
	if !ok {
		return fmt.Errorf("card: driver %T does not support baud rate changes", c.driver)
	}
	return r.SetBaudRate(baud)
}

// unpackInputs and packOutputs translate between the card's byte-level
// snapshot buffers and its IO Register points. They treat every
// input/output channel as one byte in channel order, whatever driver is
// attached; AsyncCard has no hook for a different layout.
func (c *AsyncCard) unpackInputs(buf []byte) error {
	i := 0
	for _, ch := range c.Channels() {
		if c.direction[ch.IORegisterID] != DirectionInput {
			continue
		}
		if i >= len(buf) {
			break
		}
		ioReg := c.ioRegs[ch.IORegisterID]
		ioReg.WriteInt64(int64(buf[i]), point.NoRequest)
		i++
	}
	c.CopyInputs()
	return nil
}

func (c *AsyncCard) packOutputs() []byte {
	outChannels := 0
	for _, ch := range c.Channels() {
		if c.direction[ch.IORegisterID] == DirectionOutput {
			outChannels++
		}
	}
	buf := make([]byte, outChannels)
	i := 0
	for _, ch := range c.Channels() {
		if c.direction[ch.IORegisterID] != DirectionOutput {
			continue
		}
		ioReg := c.ioRegs[ch.IORegisterID]
		v, valid := ioReg.ReadInt64()
		if valid {
			buf[i] = byte(v)
		}
		i++
	}
	return buf
}

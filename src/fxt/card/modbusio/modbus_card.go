// Package modbusio wires a Modbus-RTU remote-IO slave into the fxt Card
// contract, adapting the teacher's batched read/write idiom to Card's
// scan_inputs/flush_outputs lifecycle instead of an HTTP poll loop.
package modbusio

import (
	"fmt"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"

	"jasper-mate-utils/src/fxt/card"
)

// Config describes one Modbus-RTU remote-IO slave: the serial transport
// and the discrete-input/coil/holding-register counts exposed by the
// slave device, mirroring the teacher's ModelSpec table.
type Config struct {
	PortName       string
	BaudRate       int
	DataBits       int
	Parity         string
	StopBits       int
	SlaveID        byte
	Timeout        time.Duration
	OperationDelay time.Duration // inter-request delay for RS-485 half-duplex turnaround
	DiscreteCount  int
	CoilCount      int
	HoldingCount   int // 16-bit holding registers, read/written as AO channels
}

// Driver implements card.Driver against a live Modbus-RTU connection. A
// card.AsyncCard's driver goroutine is the only caller of ReadInto/
// WriteFrom, but Reboot/SetBaudRate come from the HTTP admin surface on
// a different goroutine, so every client and handler call (Open, Close,
// ReadInto, WriteFrom, Reboot, SetBaudRate) holds the mutex.
type Driver struct {
	cfg     Config
	handler *modbus.RTUClientHandler
	client  modbus.Client
	mu      sync.Mutex
}

// NewDriver builds a Modbus-RTU driver from cfg without opening the port
// (card.AsyncCard.Start calls Open).
func NewDriver(cfg Config) *Driver {
	handler := modbus.NewRTUClientHandler(cfg.PortName)
	handler.BaudRate = cfg.BaudRate
	handler.DataBits = cfg.DataBits
	handler.Parity = cfg.Parity
	handler.StopBits = cfg.StopBits
	handler.SlaveId = cfg.SlaveID
	handler.Timeout = cfg.Timeout
	return &Driver{cfg: cfg, handler: handler, client: modbus.NewClient(handler)}
}

func (d *Driver) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handler.Connect()
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.handler.Close()
}

// snapshot layout: first the bits, one byte each (simplicity over
// density, matching async.go's codec) — [0:DiscreteCount] discrete
// inputs in the input snapshot, [0:CoilCount] coils in the output
// snapshot — then HoldingCount*2 bytes of holding registers as raw
// big-endian uint16 pairs, mirroring the teacher's readCard decode.
func (d *Driver) inputLen() int  { return d.cfg.DiscreteCount + d.cfg.HoldingCount*2 }
func (d *Driver) outputLen() int { return d.cfg.CoilCount + d.cfg.HoldingCount*2 }

// ReadInto reads discrete inputs and holding registers from the slave
// and packs them into dst per the snapshot layout above.
func (d *Driver) ReadInto(dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	off := 0
	if d.cfg.DiscreteCount > 0 {
		bits, err := d.client.ReadDiscreteInputs(0x0000, uint16(d.cfg.DiscreteCount))
		if err != nil {
			return err
		}
		unpackBits(bits, dst[off:off+d.cfg.DiscreteCount])
		off += d.cfg.DiscreteCount
		d.delay()
	}
	if d.cfg.HoldingCount > 0 {
		regs, err := d.client.ReadHoldingRegisters(0x0000, uint16(d.cfg.HoldingCount))
		if err != nil {
			return err
		}
		copy(dst[off:off+len(regs)], regs)
		d.delay()
	}
	return nil
}

// WriteFrom writes coils and holding registers to the slave from src per
// the snapshot layout above, batching each kind into a single
// write-multiple request the way Manager.processBatchDO/AO do.
func (d *Driver) WriteFrom(src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	off := 0
	if d.cfg.CoilCount > 0 {
		packed := packBits(src[off : off+d.cfg.CoilCount])
		if _, err := d.client.WriteMultipleCoils(0x0000, uint16(d.cfg.CoilCount), packed); err != nil {
			return err
		}
		off += d.cfg.CoilCount
		d.delay()
	}
	if d.cfg.HoldingCount > 0 {
		if _, err := d.client.WriteMultipleRegisters(0x0000, uint16(d.cfg.HoldingCount), src[off:off+d.cfg.HoldingCount*2]); err != nil {
			return err
		}
		d.delay()
	}
	return nil
}

func (d *Driver) delay() {
	if d.cfg.OperationDelay > 0 {
		time.Sleep(d.cfg.OperationDelay)
	}
}

// Reboot power-cycles the slave via its vendor-specific reboot holding
// register, grounded directly in the teacher's Manager.RebootCard /
// cmd/update-baud admin tooling. It is an operational action on the
// physical slave, not a reconfiguration of the logical node, so it does
// not pass through the Card contract.
func (d *Driver) Reboot() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, err := d.client.WriteSingleRegister(0x00FF, 0x0001)
	return err
}

// SetBaudRate reconfigures the slave's serial baud rate register and
// then reopens the local handler at the new rate, mirroring
// cmd/update-baud/main.go.
func (d *Driver) SetBaudRate(baud int) error {
	d.mu.Lock()
	code, ok := baudCode(baud)
	if !ok {
		d.mu.Unlock()
		return fmt.Errorf("modbusio: unsupported baud rate %d", baud)
	}
	_, err := d.client.WriteSingleRegister(0x00F0, code)
	d.mu.Unlock()
	if err != nil {
		return err
	}
	if err := d.Close(); err != nil {
		return err
	}
	d.cfg.BaudRate = baud
	d.handler.BaudRate = baud
	return d.Open()
}

func baudCode(baud int) (uint16, bool) {
	switch baud {
	case 9600:
		return 0, true
	case 19200:
		return 1, true
	case 38400:
		return 2, true
	case 57600:
		return 3, true
	case 115200:
		return 4, true
	default:
		return 0, false
	}
}

func unpackBits(packed []byte, dst []byte) {
	for i := range dst {
		byteIdx, bitIdx := i/8, uint(i%8)
		if byteIdx < len(packed) && packed[byteIdx]&(1<<bitIdx) != 0 {
			dst[i] = 1
		} else {
			dst[i] = 0
		}
	}
}

func packBits(bits []byte) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

// NewCard builds a fully wired card.AsyncCard backed by this package's
// Modbus driver, given a resolved card.Base (points already looked up
// from the node's point database by the node factory).
func NewCard(base *card.Base, cfg Config) *card.AsyncCard {
	d := NewDriver(cfg)
	return card.NewAsyncCard(base, d, d.inputLen(), d.outputLen())
}

// RTUSerialConfig renders cfg as a goburrow/serial.Config, available for
// callers that want to share the transport with a non-Modbus admin tool.
func RTUSerialConfig(cfg Config) serial.Config {
	return serial.Config{
		Address:  cfg.PortName,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
		Timeout:  cfg.Timeout,
	}
}

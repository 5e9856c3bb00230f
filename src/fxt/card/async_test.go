package card

import (
	"sync"
	"testing"
	"time"

	"jasper-mate-utils/src/fxt/point"
)

type fakeDriver struct {
	mu      sync.Mutex
	opened  bool
	input   []byte
	written []byte
}

func (d *fakeDriver) Open() error { d.opened = true; return nil }
func (d *fakeDriver) Close() error {
	d.opened = false
	return nil
}
func (d *fakeDriver) ReadInto(dst []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(dst, d.input)
	return nil
}
func (d *fakeDriver) WriteFrom(src []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.written = append([]byte(nil), src...)
	return nil
}

func TestAsyncCardScanPublishesSnapshot(t *testing.T) {
	b, db := newTestBase(t)
	drv := &fakeDriver{input: []byte{1, 0}}
	c := NewAsyncCard(b, drv, 2, 1)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	defer c.Stop()

	// give the driver goroutine a chance to process the scan request
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if err := c.ScanInputs(); err != nil {
			t.Fatal(err)
		}
		if v, valid := db.LookupByID(2).ReadBool(); valid && v {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for async scan to publish input snapshot")
}

// blockingDriver's ReadInto never returns until release is closed, so a
// test can observe state strictly before the driver thread's first
// successful sample.
type blockingDriver struct {
	fakeDriver
	release chan struct{}
}

func (d *blockingDriver) ReadInto(dst []byte) error {
	<-d.release
	return d.fakeDriver.ReadInto(dst)
}

func TestAsyncCardInvalidBeforeFirstSample(t *testing.T) {
	b, db := newTestBase(t)
	drv := &blockingDriver{release: make(chan struct{})}
	c := NewAsyncCard(b, drv, 2, 1)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		close(drv.release)
		c.Stop()
	}()

	if err := c.ScanInputs(); err != nil {
		t.Fatal(err)
	}
	if db.LookupByID(2).IsValid() {
		t.Fatal("expected virtual input to stay invalid before the driver's first sample")
	}
}

func TestAsyncCardRebootRequiresDriverSupport(t *testing.T) {
	b, _ := newTestBase(t)
	c := NewAsyncCard(b, &fakeDriver{}, 2, 1)
	if err := c.Reboot(); err == nil {
		t.Fatal("expected Reboot to fail against a driver without reboot support")
	}
	if err := c.SetBaudRate(19200); err == nil {
		t.Fatal("expected SetBaudRate to fail against a driver without baud support")
	}
}

type rebootingDriver struct {
	fakeDriver
	rebooted bool
	baud     int
}

func (d *rebootingDriver) Reboot() error {
	d.rebooted = true
	return nil
}

func (d *rebootingDriver) SetBaudRate(baud int) error {
	d.baud = baud
	return nil
}

func TestAsyncCardForwardsRebootAndBaudRate(t *testing.T) {
	b, _ := newTestBase(t)
	drv := &rebootingDriver{}
	c := NewAsyncCard(b, drv, 2, 1)

	if err := c.Reboot(); err != nil {
		t.Fatalf("Reboot: %v", err)
	}
	if !drv.rebooted {
		t.Error("expected Reboot to reach the driver")
	}

	if err := c.SetBaudRate(57600); err != nil {
		t.Fatalf("SetBaudRate: %v", err)
	}
	if drv.baud != 57600 {
		t.Errorf("expected driver baud 57600, got %d", drv.baud)
	}
}

func TestAsyncCardFlushWritesSnapshot(t *testing.T) {
	b, db := newTestBase(t)
	drv := &fakeDriver{}
	c := NewAsyncCard(b, drv, 2, 1)
	require := func(err error) {
		if err != nil {
			t.Fatal(err)
		}
	}
	require(c.Start())
	defer c.Stop()

	db.LookupByID(4).WriteBool(true, point.NoRequest)
	require(c.FlushOutputs())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		drv.mu.Lock()
		n := len(drv.written)
		drv.mu.Unlock()
		if n > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("timed out waiting for driver write")
}

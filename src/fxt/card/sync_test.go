package card

import (
	"testing"

	"jasper-mate-utils/src/fxt/point"
)

type fakeGPIO struct {
	bits map[int]bool
	err  error
}

func (g *fakeGPIO) ReadBit(ch int) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.bits[ch], nil
}

func (g *fakeGPIO) WriteBit(ch int, v bool) error {
	if g.err != nil {
		return g.err
	}
	g.bits[ch] = v
	return nil
}

func TestSyncCardScanAndFlush(t *testing.T) {
	b, db := newTestBase(t)
	gpio := &fakeGPIO{bits: map[int]bool{0: true}}
	c := NewSyncCard(b, map[uint32]int{1: 0, 3: 0}, gpio, gpio)
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	if err := c.ScanInputs(); err != nil {
		t.Fatal(err)
	}
	v, valid := db.LookupByID(2).ReadBool()
	if !valid || !v {
		t.Fatalf("expected virtual input true, got %v/%v", v, valid)
	}

	db.LookupByID(4).WriteBool(true, point.NoRequest)
	if err := c.FlushOutputs(); err != nil {
		t.Fatal(err)
	}
	if !gpio.bits[0] {
		t.Fatal("expected GPIO write to reflect virtual output")
	}
}

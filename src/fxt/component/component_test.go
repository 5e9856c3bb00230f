package component

import (
	"testing"

	"jasper-mate-utils/src/fxt/arena"
	"jasper-mate-utils/src/fxt/point"
)

func newPoint(t *testing.T, db *point.Database, f *point.FactoryDatabase, id uint32, kind string) *point.Point {
	t.Helper()
	p, err := f.Create(point.Spec{ID: id, Type: kind, Name: "p"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newEnv(t *testing.T) (*point.Database, *point.FactoryDatabase) {
	arenas := arena.NewSet(1024, 1024, 1024)
	db := point.NewDatabase()
	return db, point.NewFactoryDatabase(arenas, db)
}

func TestWirePropagatesValueAndValidityPerIndex(t *testing.T) {
	db, f := newEnv(t)
	in0 := newPoint(t, db, f, 1, point.GUIDBool)
	in1 := newPoint(t, db, f, 2, point.GUIDBool)
	out0 := newPoint(t, db, f, 3, point.GUIDBool)
	out1 := newPoint(t, db, f, 4, point.GUIDBool)

	in0.WriteBool(true, point.NoRequest)
	in1.WriteBool(true, point.NoRequest)
	w := NewWire(100, []*point.Point{in0, in1}, []*point.Point{out0, out1})
	if err := w.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, o := range []*point.Point{out0, out1} {
		v, valid := o.ReadBool()
		if !valid || !v {
			t.Fatalf("expected true/valid, got %v/%v", v, valid)
		}
	}

	// Invalidating only in1 must invalidate only out1.
	in1.SetInvalid(point.NoRequest)
	if err := w.Execute(); err != nil {
		t.Fatal(err)
	}
	if !out0.IsValid() {
		t.Fatal("expected out0 to stay valid when only in1 is invalid")
	}
	if out1.IsValid() {
		t.Fatal("expected out1 to go invalid when in1 is invalid")
	}
}

func TestAndGate(t *testing.T) {
	db, f := newEnv(t)
	a := newPoint(t, db, f, 1, point.GUIDBool)
	b := newPoint(t, db, f, 2, point.GUIDBool)
	out := newPoint(t, db, f, 3, point.GUIDBool)
	a.WriteBool(true, point.NoRequest)
	b.WriteBool(true, point.NoRequest)

	g := NewAnd(100, []*point.Point{a, b}, []*point.Point{out}, []bool{false})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}
	v, valid := out.ReadBool()
	if !valid || !v {
		t.Fatalf("expected true, got %v/%v", v, valid)
	}

	b.WriteBool(false, point.NoRequest)
	g.Execute()
	v, _ = out.ReadBool()
	if v {
		t.Fatal("expected false when one input is false")
	}
}

func TestAndGateNegatedOutput(t *testing.T) {
	db, f := newEnv(t)
	a := newPoint(t, db, f, 1, point.GUIDBool)
	q := newPoint(t, db, f, 2, point.GUIDBool)
	notQ := newPoint(t, db, f, 3, point.GUIDBool)
	a.WriteBool(true, point.NoRequest)

	g := NewAnd(100, []*point.Point{a}, []*point.Point{q, notQ}, []bool{false, true})
	if err := g.Execute(); err != nil {
		t.Fatal(err)
	}
	v, _ := q.ReadBool()
	nv, _ := notQ.ReadBool()
	if !v || nv {
		t.Fatalf("expected Q=true /Q=false, got Q=%v /Q=%v", v, nv)
	}
}

func TestByteMuxPacksBitsWithNegate(t *testing.T) {
	db, f := newEnv(t)
	in0 := newPoint(t, db, f, 1, point.GUIDBool)
	in1 := newPoint(t, db, f, 2, point.GUIDBool)
	out := newPoint(t, db, f, 3, point.GUIDUint8)
	in0.WriteBool(true, point.NoRequest)  // bit 0, not negated -> 1
	in1.WriteBool(false, point.NoRequest) // bit 2, negated -> 1

	m := NewByteMux(100, []BitChannel{
		{Point: in0, Bit: 0},
		{Point: in1, Bit: 2, Negate: true},
	}, out)
	if err := m.Execute(); err != nil {
		t.Fatal(err)
	}
	v, valid := out.ReadInt64()
	if !valid || v != 0b0101 {
		t.Fatalf("expected 0b0101, got %v/%v", v, valid)
	}

	in0.SetInvalid(point.NoRequest)
	m.Execute()
	if out.IsValid() {
		t.Fatal("expected invalid output when any channel is invalid")
	}
}

func TestByteMuxDemuxRoundTrip(t *testing.T) {
	db, f := newEnv(t)
	in0 := newPoint(t, db, f, 1, point.GUIDBool)
	in1 := newPoint(t, db, f, 2, point.GUIDBool)
	word := newPoint(t, db, f, 3, point.GUIDUint8)
	out0 := newPoint(t, db, f, 4, point.GUIDBool)
	out1 := newPoint(t, db, f, 5, point.GUIDBool)

	for val := 0; val < 256; val++ {
		b0 := val&1 != 0
		b1 := val&2 != 0
		in0.WriteBool(b0, point.NoRequest)
		in1.WriteBool(b1, point.NoRequest)

		mux := NewByteMux(100, []BitChannel{{Point: in0, Bit: 0}, {Point: in1, Bit: 1}}, word)
		if err := mux.Execute(); err != nil {
			t.Fatal(err)
		}

		demux := NewByteDemux(101, word, []BitChannel{{Point: out0, Bit: 0}, {Point: out1, Bit: 1}})
		if err := demux.Execute(); err != nil {
			t.Fatal(err)
		}

		v0, _ := out0.ReadBool()
		v1, _ := out1.ReadBool()
		if v0 != b0 || v1 != b1 {
			t.Fatalf("round trip mismatch for bits [%v,%v]: got [%v,%v]", b0, b1, v0, v1)
		}
	}
}

func TestNBitMuxDemuxRoundTrip(t *testing.T) {
	db, f := newEnv(t)
	b0 := newPoint(t, db, f, 1, point.GUIDBool)
	b1 := newPoint(t, db, f, 2, point.GUIDBool)
	word := newPoint(t, db, f, 3, point.GUIDUint8)
	b0.WriteBool(true, point.NoRequest)
	b1.WriteBool(false, point.NoRequest)

	mux := NewNBitMux(100, []BitChannel{{Point: b0, Bit: 0}, {Point: b1, Bit: 1}}, word)
	if err := mux.Execute(); err != nil {
		t.Fatal(err)
	}
	v, _ := word.ReadInt64()
	if v != 1 {
		t.Fatalf("expected bit0 set (1), got %d", v)
	}

	out0 := newPoint(t, db, f, 4, point.GUIDBool)
	out1 := newPoint(t, db, f, 5, point.GUIDBool)
	demux := NewNBitDemux(101, word, []BitChannel{{Point: out0, Bit: 0}, {Point: out1, Bit: 1}})
	if err := demux.Execute(); err != nil {
		t.Fatal(err)
	}
	v0, _ := out0.ReadBool()
	v1, _ := out1.ReadBool()
	if !v0 || v1 {
		t.Fatalf("expected [true,false], got [%v,%v]", v0, v1)
	}
}

func TestOnOffHysteresisBand(t *testing.T) {
	db, f := newEnv(t)
	measured := newPoint(t, db, f, 1, point.GUIDFloat64)
	setpoint := newPoint(t, db, f, 2, point.GUIDFloat64)
	out := newPoint(t, db, f, 3, point.GUIDBool)
	setpoint.WriteFloat64(70, point.NoRequest)

	c := NewOnOff(100, measured, setpoint, nil, out, nil, 2.0, 2.0, 0, 0)
	c.Start()

	measured.WriteFloat64(73, point.NoRequest) // PV >= SP+HON -> on
	c.Execute()
	v, _ := out.ReadBool()
	if !v {
		t.Fatal("expected output on at or above setpoint+HysteresisOn")
	}

	measured.WriteFloat64(69, point.NoRequest) // inside band -> no change
	c.Execute()
	v, _ = out.ReadBool()
	if !v {
		t.Fatal("expected output to stay on inside the hysteresis band")
	}

	measured.WriteFloat64(67, point.NoRequest) // PV <= SP-HOFF -> off
	c.Execute()
	v, _ = out.ReadBool()
	if v {
		t.Fatal("expected output off at or below setpoint-HysteresisOff")
	}
}

func TestOnOffPVGreaterEqualSP(t *testing.T) {
	db, f := newEnv(t)
	measured := newPoint(t, db, f, 1, point.GUIDFloat64)
	setpoint := newPoint(t, db, f, 2, point.GUIDFloat64)
	out := newPoint(t, db, f, 3, point.GUIDBool)

	c := NewOnOff(100, measured, setpoint, nil, out, nil, 0, 0, 0, 0)
	c.Start()

	setpoint.WriteFloat64(5, point.NoRequest)
	measured.WriteFloat64(3, point.NoRequest)
	c.Execute()
	v, _ := out.ReadBool()
	if v {
		t.Fatal("expected output false when PV < SP")
	}

	measured.WriteFloat64(5, point.NoRequest)
	c.Execute()
	v, _ = out.ReadBool()
	if !v {
		t.Fatal("expected output true when PV >= SP")
	}
}

func TestOnOffInvalidInputPropagates(t *testing.T) {
	db, f := newEnv(t)
	measured := newPoint(t, db, f, 1, point.GUIDFloat64)
	setpoint := newPoint(t, db, f, 2, point.GUIDFloat64)
	out := newPoint(t, db, f, 3, point.GUIDBool)
	out.WriteBool(true, point.NoRequest)

	c := NewOnOff(100, measured, setpoint, nil, out, nil, 1.0, 1.0, 0, 0)
	c.Start()
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	if out.IsValid() {
		t.Fatal("expected invalid output when measured/setpoint are invalid")
	}
}

func TestOnOffResetOnlyOnRisingEdge(t *testing.T) {
	db, f := newEnv(t)
	measured := newPoint(t, db, f, 1, point.GUIDFloat64)
	setpoint := newPoint(t, db, f, 2, point.GUIDFloat64)
	reset := newPoint(t, db, f, 3, point.GUIDBool)
	out := newPoint(t, db, f, 4, point.GUIDBool)
	setpoint.WriteFloat64(70, point.NoRequest)
	measured.WriteFloat64(80, point.NoRequest)
	reset.WriteBool(false, point.NoRequest)

	c := NewOnOff(100, measured, setpoint, reset, out, nil, 1.0, 1.0, 0, 0)
	c.Start()
	c.Execute()
	v, _ := out.ReadBool()
	if !v {
		t.Fatal("expected on before reset")
	}

	reset.WriteBool(true, point.NoRequest)
	c.Execute()
	v, _ = out.ReadBool()
	if v {
		t.Fatal("expected rising edge of reset to force output off")
	}

	// Measured still demands "on", but holding Reset true must not force
	// the output off again every cycle -- only the rising edge does.
	c.Execute()
	v, _ = out.ReadBool()
	if !v {
		t.Fatal("expected output to resume tracking measured once reset is held, not forced off every cycle")
	}
}

func TestOnOffComplementOutput(t *testing.T) {
	db, f := newEnv(t)
	measured := newPoint(t, db, f, 1, point.GUIDFloat64)
	setpoint := newPoint(t, db, f, 2, point.GUIDFloat64)
	notOut := newPoint(t, db, f, 3, point.GUIDBool)
	setpoint.WriteFloat64(70, point.NoRequest)
	measured.WriteFloat64(80, point.NoRequest)

	c := NewOnOff(100, measured, setpoint, nil, nil, notOut, 0, 0, 0, 0)
	c.Start()
	if err := c.Execute(); err != nil {
		t.Fatal(err)
	}
	v, valid := notOut.ReadBool()
	if !valid || v {
		t.Fatalf("expected /Q false while controller is on, got %v/%v", v, valid)
	}
}

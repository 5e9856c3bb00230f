package component

import (
	"time"

	"jasper-mate-utils/src/fxt/point"
)

// OnOff is the two-threshold hysteresis on/off controller: it drives a
// boolean output on when the measured value reaches or exceeds
// Setpoint+HysteresisOn, and off when it falls to or below
// Setpoint-HysteresisOff, honoring minimum on/off durations so the
// controlled equipment is never cycled faster than it can tolerate. An
// optional Reset input forces the output off on its rising edge only —
// holding Reset true does not re-force it every cycle, only the
// false-to-true transition does.
type OnOff struct {
	Base

	Measured         *point.Point // numeric
	Setpoint         *point.Point // numeric
	Reset            *point.Point // bool, optional; rising edge forces Output off and clears timers
	Output           *point.Point // Q, optional if ComplementOutput is wired instead
	ComplementOutput *point.Point // /Q, optional; always the logical negation of Output

	HysteresisOn   float64 // PV >= SP+HysteresisOn turns the output on
	HysteresisOff  float64 // PV <= SP-HysteresisOff turns the output off
	MinOnDuration  time.Duration
	MinOffDuration time.Duration

	on             bool
	lastTransition time.Time
	haveTransition bool
	prevReset      bool
}

// NewOnOff constructs an OnOff controller. reset and one of
// output/complementOutput may be nil; at least one of output/
// complementOutput must be non-nil for the controller to be useful, but
// that is a configuration-time concern for the caller, not Execute's.
func NewOnOff(id uint32, measured, setpoint, reset, output, complementOutput *point.Point, hysteresisOn, hysteresisOff float64, minOn, minOff time.Duration) *OnOff {
	return &OnOff{
		Base:             NewBase(id),
		Measured:         measured,
		Setpoint:         setpoint,
		Reset:            reset,
		Output:           output,
		ComplementOutput: complementOutput,
		HysteresisOn:     hysteresisOn,
		HysteresisOff:    hysteresisOff,
		MinOnDuration:    minOn,
		MinOffDuration:   minOff,
	}
}

// Start resets the controller to its de-energized power-up state, as if
// it had just been off for longer than any configured minimum duration,
// and with no prior Reset edge recorded.
func (c *OnOff) Start() error {
	c.on = false
	c.haveTransition = false
	c.prevReset = false
	return nil
}

func (c *OnOff) inputs() []*point.Point {
	ins := []*point.Point{c.Measured, c.Setpoint}
	if c.Reset != nil {
		ins = append(ins, c.Reset)
	}
	return ins
}

func (c *OnOff) outputs() []*point.Point {
	var outs []*point.Point
	if c.Output != nil {
		outs = append(outs, c.Output)
	}
	if c.ComplementOutput != nil {
		outs = append(outs, c.ComplementOutput)
	}
	return outs
}

func (c *OnOff) publish() {
	if c.Output != nil {
		c.Output.WriteBool(c.on, point.NoRequest)
	}
	if c.ComplementOutput != nil {
		c.ComplementOutput.WriteBool(!c.on, point.NoRequest)
	}
}

func (c *OnOff) Execute() error {
	if anyInvalid(c.inputs()...) {
		invalidateAll(c.outputs()...)
		return nil
	}

	now := time.Now()

	risingEdge := false
	if c.Reset != nil {
		reset, _ := c.Reset.ReadBool()
		risingEdge = reset && !c.prevReset
		c.prevReset = reset
	}

	if risingEdge {
		c.on = false
		c.lastTransition = now
		c.haveTransition = true
		c.publish()
		return nil
	}

	measured, _ := c.Measured.ReadFloat64()
	setpoint, _ := c.Setpoint.ReadFloat64()

	wantOn := c.on
	switch {
	case measured >= setpoint+c.HysteresisOn:
		wantOn = true
	case measured <= setpoint-c.HysteresisOff:
		wantOn = false
	}

	if wantOn != c.on && c.transitionAllowed(wantOn, now) {
		c.on = wantOn
		c.lastTransition = now
		c.haveTransition = true
	}

	c.publish()
	return nil
}

// transitionAllowed enforces MinOnDuration/MinOffDuration: a transition
// into the new state is allowed if the controller has never transitioned
// before, or enough time has elapsed in the CURRENT state (the one
// transitionAllowed is being asked to leave).
func (c *OnOff) transitionAllowed(wantOn bool, now time.Time) bool {
	if !c.haveTransition {
		return true
	}
	elapsed := now.Sub(c.lastTransition)
	if c.on {
		return elapsed >= c.MinOnDuration
	}
	return elapsed >= c.MinOffDuration
}

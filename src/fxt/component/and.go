package component

import "jasper-mate-utils/src/fxt/point"

// And is the N-input AND gate: its result is true only if every input is
// true, false if any input is false and all are valid, and invalid if
// any input is invalid. It drives 1-2 boolean outputs, each with its own
// independent negate flag, so the same gate can publish both Q and /Q.
type And struct {
	Base
	In     []*point.Point
	Out    []*point.Point // 1 or 2 outputs
	Negate []bool         // per-output negate, same length as Out
}

// NewAnd constructs an AND gate. negate must be the same length as out;
// negate[i] true publishes !result on out[i] instead of result.
func NewAnd(id uint32, in []*point.Point, out []*point.Point, negate []bool) *And {
	return &And{Base: NewBase(id), In: in, Out: out, Negate: negate}
}

func (a *And) Start() error { return nil }

func (a *And) Execute() error {
	if anyInvalid(a.In...) {
		invalidateAll(a.Out...)
		return nil
	}
	result := true
	for _, p := range a.In {
		v, _ := p.ReadBool()
		result = result && v
	}
	for i, o := range a.Out {
		v := result
		if a.Negate[i] {
			v = !v
		}
		o.WriteBool(v, point.NoRequest)
	}
	return nil
}

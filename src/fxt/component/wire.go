package component

import (
	"fmt"

	"jasper-mate-utils/src/fxt/point"
)

// Wire is the N-way wire component: a parallel array copy,
// In[i] -> Out[i] for every index, value and validity together. In and
// Out must be the same length; an invalid In[j] invalidates only Out[j],
// every other index copies independently.
type Wire struct {
	Base
	In  []*point.Point
	Out []*point.Point
}

// NewWire constructs a wire copying in[i] to out[i] for every index. in
// and out must already be the same length; callers (the node factory)
// validate this at construction.
func NewWire(id uint32, in, out []*point.Point) *Wire {
	return &Wire{Base: NewBase(id), In: in, Out: out}
}

func (w *Wire) Start() error { return nil }

func (w *Wire) Execute() error {
	if len(w.In) != len(w.Out) {
		return fmt.Errorf("wire %d: %d inputs but %d outputs", w.id, len(w.In), len(w.Out))
	}
	for i, in := range w.In {
		if in.IsNotValid() {
			invalidateAll(w.Out[i])
			continue
		}
		point.CopyValue(w.Out[i], in, point.NoRequest)
	}
	return nil
}

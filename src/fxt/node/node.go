// Package node implements the Node and Node Factory: the JSON
// configuration loader that turns one configuration document into a
// fully wired, ready-to-start Node — arenas, points, cards, components,
// logic chains, and chassis — or fails atomically with the first error
// encountered, tearing down whatever was partially built.
package node

import (
	"jasper-mate-utils/src/fxt/arena"
	"jasper-mate-utils/src/fxt/card"
	"jasper-mate-utils/src/fxt/chassis"
	"jasper-mate-utils/src/fxt/component"
	"jasper-mate-utils/src/fxt/logicchain"
	"jasper-mate-utils/src/fxt/point"
)

// Node is a fully constructed runtime: the arenas and point database
// backing every object below it, plus every card/component/chain/chassis
// the configuration document named. A Node has no behavior of its own
// beyond StartAll/StopAll and WriteOutputsToSafeState — all of the
// actual work happens inside its
// Chassis instances, each on its own goroutine.
type Node struct {
	Arenas     *arena.Set
	DB         *point.Database
	Cards      map[uint32]card.Card
	Components map[uint32]component.Component
	Chains     map[uint32]*logicchain.Chain
	Chassis    map[string]*chassis.Chassis
}

// StartAll starts the chassis named in order, in that order. If
// any chassis fails to start, the ones already started are stopped
// before returning — a node is either fully running or fully stopped,
// never partially so.
func (n *Node) StartAll(order []string) error {
	started := make([]*chassis.Chassis, 0, len(order))
	for _, name := range order {
		c := n.Chassis[name]
		if err := c.Start(); err != nil {
			for _, s := range started {
				_ = s.Stop()
			}
			return err
		}
		started = append(started, c)
	}
	return nil
}

// WriteOutputsToSafeState invalidates every output Virtual Point on
// every card in the node, posted onto each point's owning chassis so it
// doesn't race that chassis's scan/execute/flush loop. Used when a
// command-surface client that was actively driving outputs disconnects,
// mirroring the teacher's write-all-outputs-to-safe-state behavior on
// TCP client loss.
func (n *Node) WriteOutputsToSafeState() {
	for _, ch := range n.Chassis {
		ch.Post(func() {
			for _, c := range n.Cards {
				for _, p := range c.OutputVirtualPoints() {
					p.SetInvalid(point.NoRequest)
				}
			}
		})
	}
}

// StopAll stops every chassis in the node, in reverse of the given
// start order, continuing past individual errors so a stuck chassis
// doesn't block the others from shutting down.
func (n *Node) StopAll(order []string) error {
	var firstErr error
	for i := len(order) - 1; i >= 0; i-- {
		if err := n.Chassis[order[i]].Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

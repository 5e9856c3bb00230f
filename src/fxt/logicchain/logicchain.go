// Package logicchain implements the Logic Chain: an ordered list of
// components plus the setters that seed its connection and auto-points
// at the start of every cycle, before any component executes.
package logicchain

import (
	"fmt"

	"jasper-mate-utils/src/fxt/component"
	"jasper-mate-utils/src/fxt/point"
)

// setterBinding pairs a Setter with the point it seeds, since Setter
// itself is target-agnostic (see point.Setter.ApplyTo).
type setterBinding struct {
	setter *point.Setter
	target *point.Point
}

// Chain is one logic chain: a fixed execution order of components, plus
// the setters applied once at the top of every Execute call. Components
// within a chain always run in the order they were added — the order
// the node factory read them from configuration — since later
// components may depend on earlier ones' outputs within the same cycle.
type Chain struct {
	id         uint32
	components []component.Component
	setters    []setterBinding
}

// New constructs an empty logic chain; AddComponent/AddSetter populate it
// during node construction.
func New(id uint32) *Chain {
	return &Chain{id: id}
}

func (c *Chain) ID() uint32 { return c.id }

// AddComponent appends a component to the chain's execution order.
func (c *Chain) AddComponent(comp component.Component) {
	c.components = append(c.components, comp)
}

// AddSetter registers a setter to be reapplied to target at the start of
// every cycle.
func (c *Chain) AddSetter(setter *point.Setter, target *point.Point) {
	c.setters = append(c.setters, setterBinding{setter: setter, target: target})
}

// Start runs each component's Start, in chain order, stopping at the
// first error.
func (c *Chain) Start() error {
	for _, comp := range c.components {
		if err := comp.Start(); err != nil {
			return fmt.Errorf("logic chain %d: component %d start: %w", c.id, comp.ID(), err)
		}
	}
	return nil
}

// Execute reapplies every setter, then runs every component once,
// in chain order. A component error aborts the rest of the chain for
// this cycle (matching the chassis scheduler, which treats a chain
// execute error as fatal to that cycle, not to the node).
func (c *Chain) Execute() error {
	for _, sb := range c.setters {
		sb.setter.ApplyTo(sb.target)
	}
	for _, comp := range c.components {
		if err := comp.Execute(); err != nil {
			return fmt.Errorf("logic chain %d: component %d execute: %w", c.id, comp.ID(), err)
		}
	}
	return nil
}

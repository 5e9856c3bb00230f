// Package xerr implements the core's hierarchical error taxonomy: a 32-bit
// composite of four one-byte levels (category, subsystem, sub-subsystem,
// leaf), plus a registry so each level can be formatted by name instead of
// by number. Subsystem packages (currently point and card) register their
// own names in an init() function and build Codes with New.
package xerr

import (
	"fmt"
	"sync"
)

// Top-level categories (byte 0). SUCCESS is always the zero value so a
// zero Code reads as "no error" without any registry lookup.
const (
	CatSuccess uint8 = iota
	CatPoint
	CatCard
	CatComponent
	CatLogicChain
	CatChassis
	CatNode
)

var topNames = map[uint8]string{
	CatSuccess:    "SUCCESS",
	CatPoint:      "POINT",
	CatCard:       "CARD",
	CatComponent:  "COMPONENT",
	CatLogicChain: "LOGIC_CHAIN",
	CatChassis:    "CHASSIS",
	CatNode:       "NODE",
}

// Code is the 32-bit hierarchical error composite: byte0:byte1:byte2:byte3.
type Code uint32

// Success is the zero Code: no error at any level.
const Success Code = 0

// New composes a Code from its four levels. A zero value at a given level
// means "no error at this level" per spec.
func New(top, sub, subsub, leaf uint8) Code {
	return Code(uint32(top)<<24 | uint32(sub)<<16 | uint32(subsub)<<8 | uint32(leaf))
}

// Bytes decomposes a Code back into its four levels.
func (c Code) Bytes() (top, sub, subsub, leaf uint8) {
	return uint8(c >> 24), uint8(c >> 16), uint8(c >> 8), uint8(c)
}

// IsSuccess reports whether the Code is the zero/success value.
func (c Code) IsSuccess() bool { return c == Success }

// MaxNameLen is the limit each registered level name must respect per spec
// ("names < 32 chars").
const MaxNameLen = 32

// regKey disambiguates a name registered for one level by the full path
// that leads to it: a leaf named "NOT_FOUND" under the DATABASE subsystem
// of POINT is a different registration than a leaf named "NOT_FOUND"
// nested anywhere else.
type regKey struct {
	level uint8
	path  Code
}

var (
	regMu sync.RWMutex
	names = map[regKey]string{}
)

func pathFor(level, top, sub, subsub, leaf uint8) Code {
	switch level {
	case 1:
		return New(top, sub, 0, 0)
	case 2:
		return New(top, sub, subsub, 0)
	case 3:
		return New(top, sub, subsub, leaf)
	default:
		return New(top, 0, 0, 0)
	}
}

// Register records the human-readable name for one level of one category.
// level is 1 (subsystem), 2 (sub-subsystem) or 3 (leaf); top/sub/subsub/leaf
// give the full path down to the level being named (trailing levels below
// the one being named are ignored). Panics on an over-long name or an
// out-of-range level — this only ever runs from package init().
func Register(level uint8, top, sub, subsub, leaf uint8, name string) {
	if level < 1 || level > 3 {
		panic(fmt.Sprintf("xerr: invalid level %d for %q", level, name))
	}
	if len(name) >= MaxNameLen {
		panic(fmt.Sprintf("xerr: error name %q is >= %d chars", name, MaxNameLen))
	}
	regMu.Lock()
	defer regMu.Unlock()
	names[regKey{level: level, path: pathFor(level, top, sub, subsub, leaf)}] = name
}

func levelName(level uint8, top, sub, subsub, leaf uint8) string {
	var value uint8
	switch level {
	case 1:
		value = sub
	case 2:
		value = subsub
	case 3:
		value = leaf
	}
	if value == 0 {
		return "NONE"
	}
	regMu.RLock()
	defer regMu.RUnlock()
	if n, ok := names[regKey{level: level, path: pathFor(level, top, sub, subsub, leaf)}]; ok {
		return n
	}
	return "<unknown>"
}

// ToText formats the Code as "L0:L1:L2:L3", degrading any level that can't
// be decoded (an unregistered value, or a category with no registry) to
// "<unknown>".
func (c Code) ToText() string {
	top, sub, subsub, leaf := c.Bytes()
	topName, ok := topNames[top]
	if !ok {
		topName = "<unknown>"
	}
	return fmt.Sprintf("%s:%s:%s:%s",
		topName,
		levelName(1, top, sub, subsub, leaf),
		levelName(2, top, sub, subsub, leaf),
		levelName(3, top, sub, subsub, leaf))
}

func (c Code) String() string { return c.ToText() }

// Error pairs a Code with an optional free-form message. It is the error
// type returned by construction-time and runtime failures across the core.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return Success.ToText()
	}
	if e.Msg == "" {
		return e.Code.ToText()
	}
	return fmt.Sprintf("%s: %s", e.Code.ToText(), e.Msg)
}

// Wrap builds an *Error from a Code and a contextual message.
func Wrap(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Of builds a bare *Error with no message.
func Of(code Code) *Error {
	return &Error{Code: code}
}

// IsSuccess reports whether err is nil or a Success-coded *Error — both
// mean "no error" to callers that receive `error` rather than `Code`.
func IsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if e, ok := err.(*Error); ok {
		return e.Code.IsSuccess()
	}
	return false
}

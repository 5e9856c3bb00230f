package component

import "jasper-mate-utils/src/fxt/point"

// BitChannel pairs a boolean point with the bit offset it occupies in a
// packed integer word and an optional negate flag, the per-channel
// configuration every byte/N-bit mux and demux channel carries.
type BitChannel struct {
	Point  *point.Point
	Bit    uint
	Negate bool
}

func (c BitChannel) read() bool {
	v, _ := c.Point.ReadBool()
	if c.Negate {
		return !v
	}
	return v
}

func (c BitChannel) write(bit bool) {
	if c.Negate {
		bit = !bit
	}
	c.Point.WriteBool(bit, point.NoRequest)
}

// ByteMux packs up to 8 boolean channels into a single byte-sized output
// word: out = OR over channels of ((in XOR negate) << bit).
type ByteMux struct {
	Base
	Channels []BitChannel
	Out      *point.Point
}

func NewByteMux(id uint32, channels []BitChannel, out *point.Point) *ByteMux {
	return &ByteMux{Base: NewBase(id), Channels: channels, Out: out}
}

func (m *ByteMux) Start() error { return nil }

func (m *ByteMux) Execute() error { return execMux(m.Channels, m.Out) }

// ByteDemux is ByteMux's inverse: it unpacks a byte-sized input word into
// up to 8 boolean channels, each at its own configured bit offset with an
// optional negate.
type ByteDemux struct {
	Base
	In       *point.Point
	Channels []BitChannel
}

func NewByteDemux(id uint32, in *point.Point, channels []BitChannel) *ByteDemux {
	return &ByteDemux{Base: NewBase(id), In: in, Channels: channels}
}

func (m *ByteDemux) Start() error { return nil }

func (m *ByteDemux) Execute() error { return execDemux(m.In, m.Channels) }

// NBitMux is ByteMux generalized to any integer output width: the same
// per-channel bit-offset+negate OR-pack, with the channel count checked
// against the output kind's bit width rather than a fixed 8.
type NBitMux struct {
	Base
	Channels []BitChannel
	Out      *point.Point
}

func NewNBitMux(id uint32, channels []BitChannel, out *point.Point) *NBitMux {
	return &NBitMux{Base: NewBase(id), Channels: channels, Out: out}
}

func (m *NBitMux) Start() error { return nil }

func (m *NBitMux) Execute() error { return execMux(m.Channels, m.Out) }

// NBitDemux is NBitMux's inverse, generalized to any integer input width.
type NBitDemux struct {
	Base
	In       *point.Point
	Channels []BitChannel
}

func NewNBitDemux(id uint32, in *point.Point, channels []BitChannel) *NBitDemux {
	return &NBitDemux{Base: NewBase(id), In: in, Channels: channels}
}

func (m *NBitDemux) Start() error { return nil }

func (m *NBitDemux) Execute() error { return execDemux(m.In, m.Channels) }

// execMux and execDemux are the shared OR-pack/unpack bodies behind the
// byte- and N-bit-width mux/demux pairs: any invalid channel invalidates
// every output, with no partial result.
func execMux(channels []BitChannel, out *point.Point) error {
	for _, ch := range channels {
		if ch.Point.IsNotValid() {
			invalidateAll(out)
			return nil
		}
	}
	var word uint64
	for _, ch := range channels {
		if ch.read() {
			word |= 1 << ch.Bit
		}
	}
	out.WriteUint64(word, point.NoRequest)
	return nil
}

func execDemux(in *point.Point, channels []BitChannel) error {
	if in.IsNotValid() {
		for _, ch := range channels {
			ch.Point.SetInvalid(point.NoRequest)
		}
		return nil
	}
	word, _ := in.ReadUint64()
	for _, ch := range channels {
		ch.write(word&(1<<ch.Bit) != 0)
	}
	return nil
}

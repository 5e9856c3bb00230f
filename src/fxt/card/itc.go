package card

import "sync"

// Request is the inter-thread-communication envelope an async card's
// chassis-side half posts to its driver thread. Kind identifies the
// operation; Seq is a monotonically increasing sequence number used to
// coalesce: if the driver thread is still processing request N when
// requests N+1..N+k arrive, only the newest is kept, since every field
// in a scan/flush request is a full snapshot, not a delta.
type Request struct {
	Kind RequestKind
	Seq  uint64
	Data []byte // opaque to the generic ITC layer; the driver decodes it
}

// RequestKind enumerates the operations a driver thread accepts.
type RequestKind uint8

const (
	RequestStart RequestKind = iota
	RequestStop
	RequestScan
	RequestFlush
)

// Response is the driver thread's reply to a Request, correlated by Seq.
type Response struct {
	Seq  uint64
	Err  error
	Data []byte
}

// Mailbox is a single-slot, coalescing request channel: Post overwrites
// any request the driver thread hasn't yet picked up, so the chassis
// thread is never blocked waiting for a slow driver and the driver
// always acts on the freshest snapshot. This mirrors the chassis's own
// mailbox/ITC model (see chassis.Chassis.Post) one level down, at the
// card/driver boundary.
type Mailbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending *Request
	closed  bool
}

// NewMailbox returns an empty, open Mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Post replaces the pending request (if any) with req and wakes the
// driver thread.
func (m *Mailbox) Post(req Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	r := req
	m.pending = &r
	m.cond.Signal()
}

// Take blocks until a request is pending or the mailbox is closed.
// ok is false only on close with no pending request.
func (m *Mailbox) Take() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.pending == nil && !m.closed {
		m.cond.Wait()
	}
	if m.pending == nil {
		return Request{}, false
	}
	req := *m.pending
	m.pending = nil
	return req, true
}

// Close wakes any blocked Take and causes future Take calls to return
// immediately once drained.
func (m *Mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.cond.Broadcast()
}

// DoubleBuffer holds two snapshots of driver-owned state — the copy the
// driver thread is actively updating, and the last complete copy the
// chassis thread is allowed to read — so scan_inputs never blocks on the
// driver thread and the driver thread never blocks on scan_inputs.
type DoubleBuffer struct {
	mu      sync.Mutex
	front   []byte // visible to the chassis thread
	back    []byte // owned by the driver thread
	sampled bool   // true once Swap has published a real driver snapshot
}

// NewDoubleBuffer allocates a DoubleBuffer with both sides sized n.
func NewDoubleBuffer(n int) *DoubleBuffer {
	return &DoubleBuffer{front: make([]byte, n), back: make([]byte, n)}
}

// Back returns the driver-owned scratch buffer for in-place updates.
func (d *DoubleBuffer) Back() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.back
}

// Swap publishes the current back buffer as front, atomically; the old
// front becomes the back buffer that the next Back call returns.
func (d *DoubleBuffer) Swap() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.front, d.back = d.back, d.front
	d.sampled = true
}

// Sampled reports whether Swap has ever published a driver-produced
// snapshot. False before the driver thread completes its first
// successful read, so a reader can distinguish "no data yet" from a
// genuine zero-valued sample.
func (d *DoubleBuffer) Sampled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampled
}

// Front copies the currently published snapshot into dst.
func (d *DoubleBuffer) Front(dst []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	copy(dst, d.front)
}

// Len returns the snapshot size in bytes.
func (d *DoubleBuffer) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.front)
}

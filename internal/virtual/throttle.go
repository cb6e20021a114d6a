package virtual

// Throttle coalesces calls to at most one handler run per frame.
//
// Call stores the latest value and asks for a frame only when none is pending; Frame
// runs the handler once with whatever value arrived last. Intermediate values are
// dropped. Not safe for concurrent use: it lives on the UI loop.
type Throttle[T any] struct {
	request func()
	handle  func(T)

	latest  T
	pending bool
}

// NewThrottle returns a throttle that calls request whenever it needs a frame
// (request may be nil when the owner polls Pending).
func NewThrottle[T any](request func(), handle func(T)) *Throttle[T] {
	return &Throttle[T]{request: request, handle: handle}
}

// Call records v. It reports whether a new frame was requested.
func (t *Throttle[T]) Call(v T) bool {
	t.latest = v
	if t.pending {
		return false
	}
	t.pending = true
	if t.request != nil {
		t.request()
	}
	return true
}

func (t *Throttle[T]) Pending() bool { return t.pending }

// Latest returns the last value passed to Call.
func (t *Throttle[T]) Latest() (T, bool) { return t.latest, t.pending }

// Frame runs the handler with the latest value if a call is pending.
func (t *Throttle[T]) Frame() bool {
	if !t.pending {
		return false
	}
	t.pending = false
	v := t.latest
	if t.handle != nil {
		t.handle(v)
	}
	return true
}

// Cancel drops a pending call without running the handler.
func (t *Throttle[T]) Cancel() {
	var zero T
	t.pending = false
	t.latest = zero
}

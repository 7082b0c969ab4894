package serialio

import "time"

// AsyncHandle adapts any blocking Handle so its operations run on a
// dedicated worker goroutine instead of the caller's goroutine,
// guaranteeing a blocking Read on the underlying variant never stalls
// whatever scheduler the caller is part of. Per §9's design notes, the
// contract is identical to the wrapped Handle; only the execution
// context changes.
type AsyncHandle struct {
	inner Handle
	cmds  chan func()
	done  chan struct{}
}

// NewAsyncHandle starts a worker goroutine that serializes all calls
// against inner, and returns a Handle with the same observable
// semantics.
func NewAsyncHandle(inner Handle) *AsyncHandle {
	h := &AsyncHandle{
		inner: inner,
		cmds:  make(chan func(), 8),
		done:  make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *AsyncHandle) run() {
	for cmd := range h.cmds {
		cmd()
	}
	close(h.done)
}

func (h *AsyncHandle) call(f func()) {
	result := make(chan struct{})
	h.cmds <- func() {
		f()
		close(result)
	}
	<-result
}

func (h *AsyncHandle) Write(data []byte) (n int, err error) {
	h.call(func() { n, err = h.inner.Write(data) })
	return
}

func (h *AsyncHandle) Read(buf []byte) (n int, err error) {
	h.call(func() { n, err = h.inner.Read(buf) })
	return
}

func (h *AsyncHandle) SetTimeout(d time.Duration) {
	h.call(func() { h.inner.SetTimeout(d) })
}

func (h *AsyncHandle) ClearInputBuffer() (err error) {
	h.call(func() { err = h.inner.ClearInputBuffer() })
	return
}

func (h *AsyncHandle) ClearOutputBuffer() (err error) {
	h.call(func() { err = h.inner.ClearOutputBuffer() })
	return
}

func (h *AsyncHandle) BytesAvailable() (n uint32, err error) {
	h.call(func() { n, err = h.inner.BytesAvailable() })
	return
}

// Close stops accepting new work and closes the wrapped handle. It
// blocks until the worker goroutine has drained any in-flight call.
func (h *AsyncHandle) Close() (err error) {
	h.call(func() { err = h.inner.Close() })
	close(h.cmds)
	<-h.done
	return
}

var _ Handle = (*AsyncHandle)(nil)

package live

import "sync"

// mailbox is an unbounded FIFO drained into out by its own goroutine, so a
// slow reader never blocks the goroutine that pushes.
type mailbox[T any] struct {
	mu     sync.Mutex
	queue  []T
	closed bool

	signal  chan struct{}
	out     chan T
	done    chan struct{}
	stopped chan struct{}
}

func newMailbox[T any]() *mailbox[T] {
	m := &mailbox[T]{
		signal:  make(chan struct{}, 1),
		out:     make(chan T),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go m.pump()
	return m
}

// push enqueues v. It never blocks and is a no-op after close.
func (m *mailbox[T]) push(v T) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.queue = append(m.queue, v)
	m.mu.Unlock()

	select {
	case m.signal <- struct{}{}:
	default:
	}
}

func (m *mailbox[T]) pump() {
	defer close(m.stopped)
	defer close(m.out)

	var zero T
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.mu.Unlock()
			select {
			case <-m.signal:
				continue
			case <-m.done:
				return
			}
		}
		v := m.queue[0]
		m.queue[0] = zero
		m.queue = m.queue[1:]
		m.mu.Unlock()

		select {
		case m.out <- v:
		case <-m.done:
			return
		}
	}
}

// close stops the pump and waits until out is closed. Undelivered values are
// dropped. Must be called once.
func (m *mailbox[T]) close() {
	m.mu.Lock()
	m.closed = true
	m.queue = nil
	m.mu.Unlock()

	close(m.done)
	<-m.stopped
}

// pending reports how many values are queued but not yet received.
func (m *mailbox[T]) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

package notify

import (
	"sync"

	"github.com/Iron-Ham/transferwindow/internal/event"
)

type kind int

const (
	kindLine kind = iota
	kindStatus
)

type item struct {
	kind kind
	seq  uint64
	text string
}

// Queue is a Notifier backed by an unbounded FIFO drained by a single
// goroutine, which publishes each item to a Bus as an event.LineEvent or
// event.StatusEvent. Enqueueing never blocks on subscribers, so the arbiter
// can emit from inside its critical section. Items receive sequence numbers
// in enqueue order and are published in that order.
type Queue struct {
	bus *event.Bus

	mu        sync.Mutex
	cond      *sync.Cond
	items     []item
	seq       uint64
	delivered uint64
	closed    bool

	done chan struct{}
}

// NewQueue creates a Queue publishing to bus and starts its consumer.
func NewQueue(bus *event.Bus) *Queue {
	q := &Queue{
		bus:  bus,
		done: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.run()
	return q
}

// Emit enqueues a progress line. It is dropped after Close.
func (q *Queue) Emit(line string) {
	q.push(kindLine, line)
}

// SetStatusDisplay enqueues a status display update. It is dropped after Close.
func (q *Queue) SetStatusDisplay(text string) {
	q.push(kindStatus, text)
}

func (q *Queue) push(k kind, text string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.seq++
	q.items = append(q.items, item{kind: k, seq: q.seq, text: text})
	q.cond.Broadcast()
}

// Flush blocks until every item enqueued before the call has been published.
func (q *Queue) Flush() {
	q.mu.Lock()
	defer q.mu.Unlock()

	target := q.seq
	for q.delivered < target {
		q.cond.Wait()
	}
}

// Close stops accepting items, publishes those already queued, and waits
// for the consumer to exit. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		batch := q.items
		q.items = nil
		q.mu.Unlock()

		for _, it := range batch {
			switch it.kind {
			case kindLine:
				q.bus.Publish(event.NewLineEvent(it.seq, it.text))
			case kindStatus:
				q.bus.Publish(event.NewStatusEvent(it.seq, it.text))
			}
		}

		q.mu.Lock()
		q.delivered = batch[len(batch)-1].seq
		q.cond.Broadcast()
		q.mu.Unlock()
	}
}

package transport

import "sync"

// observerQueue hands observer frames to Inbound in arrival order on its own
// goroutine. The read loop never waits on it, so an observer callback may
// block on a request whose callback frame is still unread.
type observerQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frames []*Frame
	closed bool
}

func newObserverQueue() *observerQueue {
	q := &observerQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *observerQueue) push(f *Frame) {
	q.mu.Lock()
	if !q.closed {
		q.frames = append(q.frames, f)
	}
	q.mu.Unlock()
	q.cond.Signal()
}

// close stops the queue once the frames already pushed are delivered.
func (q *observerQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *observerQueue) run(in Inbound) {
	for {
		q.mu.Lock()
		for len(q.frames) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.frames) == 0 {
			q.mu.Unlock()
			return
		}
		f := q.frames[0]
		q.frames[0] = nil
		q.frames = q.frames[1:]
		q.mu.Unlock()

		in.DeliverObserverData(f.ObserverID, f.Data)
	}
}

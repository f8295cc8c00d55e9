package linestore

import "sync"

// Queue admits operations one at a time in FIFO order.
//
// Each admitted operation gets a done marker and becomes the tail of the
// queue. An operation that waits starts only after the previous tail is
// done. An operation that doesn't wait starts right away, but it still
// becomes the tail and its marker is done only after both its own work
// and the previous tail finished. Later waiting operations therefore
// wait for it and for everything admitted before it.
//
// The marker is resolved in a defer so a failed (or panicking) operation
// never blocks the ones queued after it.
//
// The zero value is ready to use.
type Queue struct {
	mu      sync.Mutex
	tail    chan struct{}
	pending int
}

// Do runs fn after all previously admitted operations finished (if wait is true)
// or immediately (if wait is false) and returns its error.
func (q *Queue) Do(wait bool, fn func() error) error {
	done := make(chan struct{})
	q.mu.Lock()
	prev := q.tail
	q.tail = done
	q.pending++
	q.mu.Unlock()

	if !wait {
		defer func() {
			if prev == nil {
				q.settle(done)
				return
			}
			go func() {
				<-prev
				q.settle(done)
			}()
		}()
		return fn()
	}

	if prev != nil {
		<-prev
	}
	defer q.settle(done)
	return fn()
}

func (q *Queue) settle(done chan struct{}) {
	q.mu.Lock()
	q.pending--
	if q.tail == done {
		q.tail = nil
	}
	q.mu.Unlock()
	close(done)
}

// Pending returns number of operations admitted and not yet finished
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// do is Queue.Do for operations that return a value
func do[R any](q *Queue, wait bool, fn func() (R, error)) (R, error) {
	var res R
	err := q.Do(wait, func() error {
		var err error
		res, err = fn()
		return err
	})
	return res, err
}

// Package async provides cooperative tracking of asynchronous HTTP requests.
//
// The Pool runs submitted requests concurrently, up to a slot limit, and hands
// finished responses back one by one, in completion order. Requests do not
// start on their own: queued work makes progress only when the Pool is poked,
// either directly by the Poke method, or indirectly by the counting and
// waiting methods. The Tracker builds on the Pool and pairs each finished
// response with the resource it belongs to.
package async

import (
	"context"
	"sync"
)

// DefaultSlotsCount is the default limit of concurrently running requests in the Pool.
const DefaultSlotsCount = 20

// RequestID identifies a request submitted to the Pool.
// IDs are assigned sequentially, starting from 1.
type RequestID uint64

// SendFunc sends one request and returns the raw response body.
type SendFunc func(ctx context.Context) ([]byte, error)

// Result is a finished request handed back by the Pool.
type Result struct {
	ID  RequestID
	Out []byte
	Err error
}

type task struct {
	id RequestID
	fn SendFunc
}

// Pool runs submitted requests concurrently, up to a slot limit.
//
// The Pool is a shared resource: it is passed by reference to each Tracker
// created on top of it, and it is safe for concurrent use.
type Pool struct {
	ctx   context.Context
	slots int

	mu     sync.Mutex
	notify chan struct{} // closed and replaced on each completion, see run
	nextID RequestID
	queue  []task
	active int
	ready  []Result
}

// PoolOption modifies the Pool configuration.
type PoolOption func(*Pool)

// WithSlotsCount sets the limit of concurrently running requests.
func WithSlotsCount(v int) PoolOption {
	return func(p *Pool) {
		if v > 0 {
			p.slots = v
		}
	}
}

// NewPool creates a new Pool.
// The context is used for all requests submitted to the Pool.
func NewPool(ctx context.Context, opts ...PoolOption) *Pool {
	p := &Pool{
		ctx:    ctx,
		slots:  DefaultSlotsCount,
		notify: make(chan struct{}),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit adds the request to the queue and returns its ID.
// The request is not started, call Poke or WaitForNext to make progress.
func (p *Pool) Submit(fn SendFunc) RequestID {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.queue = append(p.queue, task{id: p.nextID, fn: fn})
	return p.nextID
}

// Poke starts queued requests until all slots are occupied. It never blocks.
func (p *Pool) Poke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.active < p.slots && len(p.queue) > 0 {
		t := p.queue[0]
		p.queue = p.queue[1:]
		p.active++
		go p.run(t)
	}
}

// ToReturnCount returns the number of finished responses waiting to be consumed.
func (p *Pool) ToReturnCount() int {
	p.Poke()
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ready)
}

// TotalCount returns the number of submitted requests that have not been consumed yet,
// whether queued, running, or finished.
func (p *Pool) TotalCount() int {
	p.Poke()
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue) + p.active + len(p.ready)
}

// WaitForNext blocks until some request finishes and returns its Result,
// in completion order.
//
// If no request is outstanding, it returns (nil, nil) immediately.
// If the context is cancelled while waiting, it returns the context error.
func (p *Pool) WaitForNext(ctx context.Context) (*Result, error) {
	p.Poke()
	for {
		p.mu.Lock()
		if len(p.ready) > 0 {
			out := p.ready[0]
			p.ready = p.ready[1:]
			p.mu.Unlock()
			return &out, nil
		}
		if len(p.queue) == 0 && p.active == 0 {
			p.mu.Unlock()
			return nil, nil
		}
		wakeup := p.notify
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wakeup:
			// re-check
		}
	}
}

func (p *Pool) run(t task) {
	out, err := t.fn(p.ctx)

	p.mu.Lock()
	p.active--
	p.ready = append(p.ready, Result{ID: t.id, Out: out, Err: err})
	// Wake up all waiters, each re-checks the state in a loop.
	// The close happens under the lock, a completion cannot be missed
	// between the state check and the select in WaitForNext.
	close(p.notify)
	p.notify = make(chan struct{})
	p.mu.Unlock()

	// A slot is free, start next queued request, if any.
	p.Poke()
}

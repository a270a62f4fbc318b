package async

import (
	"context"

	"github.com/spf13/cast"

	"github.com/parsem/go-client/pkg/request"
)

// DecodeFunc maps a raw response body to the result value.
type DecodeFunc[R any] func(data []byte) (R, error)

// Completed is a consumed response paired with the resource it belongs to.
type Completed[R any] struct {
	// RequestID is the ID assigned by the Pool on submit.
	RequestID RequestID
	// ResourceID is the resource registered on submit,
	// or the RequestID formatted as a string, if no resource was registered.
	ResourceID string
	// Result is the decoded response body.
	Result R
}

// Tracker pairs finished responses from a Pool with the resources they belong to.
//
// Requests are submitted together with an optional resource ID.
// The Await method consumes the next finished response, decodes its body
// and returns it with the matching resource ID. Each pairing is forgotten
// as soon as it is consumed, so the Tracker does not grow with traffic.
//
// Multiple Trackers may share one Pool, but each Result is handed back
// only once, so all requests tracked by one Tracker must be consumed
// through that Tracker.
//
// The Tracker is not safe for concurrent use.
type Tracker[R any] struct {
	pool          *Pool
	decode        DecodeFunc[R]
	resources     map[RequestID]string
	lastCompleted string
}

// NewTracker creates a Tracker on top of the shared Pool.
// The decode function maps each raw response body to the result value.
func NewTracker[R any](pool *Pool, decode DecodeFunc[R]) *Tracker[R] {
	return &Tracker[R]{
		pool:      pool,
		decode:    decode,
		resources: make(map[RequestID]string),
	}
}

// Submit queues the request in the Pool and registers the resource ID for it.
// If the resourceID is empty, the Pool request ID is used as a fallback on Await.
// The request result definition is replaced, the raw body is always captured.
func (t *Tracker[R]) Submit(reqDef request.HTTPRequest, resourceID string) RequestID {
	id := t.pool.Submit(func(ctx context.Context) ([]byte, error) {
		out := new([]byte)
		if _, _, err := reqDef.WithResult(out).Send(ctx); err != nil {
			return nil, err
		}
		return *out, nil
	})
	if resourceID != "" {
		t.resources[id] = resourceID
	}
	return id
}

// SubmitFunc queues a custom send function, see Submit.
func (t *Tracker[R]) SubmitFunc(fn SendFunc, resourceID string) RequestID {
	id := t.pool.Submit(fn)
	if resourceID != "" {
		t.resources[id] = resourceID
	}
	return id
}

// Poke starts queued requests until all Pool slots are occupied. It never blocks.
func (t *Tracker[R]) Poke() {
	t.pool.Poke()
}

// HasResponse returns true if at least one finished response is waiting to be consumed.
func (t *Tracker[R]) HasResponse() bool {
	return t.pool.ToReturnCount() > 0
}

// IsComplete returns true if no submitted request remains to be consumed.
func (t *Tracker[R]) IsComplete() bool {
	return t.pool.TotalCount() == 0
}

// LastCompleted returns the resource ID of the most recently consumed response,
// or an empty string if nothing has been consumed yet. The value is updated
// only by Await, it goes stale while requests finish unconsumed.
func (t *Tracker[R]) LastCompleted() string {
	return t.lastCompleted
}

// Await blocks until some request finishes, consumes it, and returns
// the decoded result together with the matching resource ID.
//
// If no request is outstanding, it returns (nil, nil) immediately.
// Transport and decode errors are returned unchanged.
// The response is consumed even on error: the pairing is evicted
// and LastCompleted is updated.
func (t *Tracker[R]) Await(ctx context.Context) (*Completed[R], error) {
	res, err := t.pool.WaitForNext(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}

	resourceID, found := t.resources[res.ID]
	if !found {
		resourceID = cast.ToString(uint64(res.ID))
	}
	delete(t.resources, res.ID)
	t.lastCompleted = resourceID

	if res.Err != nil {
		return nil, res.Err
	}

	result, err := t.decode(res.Out)
	if err != nil {
		return nil, err
	}

	return &Completed[R]{RequestID: res.ID, ResourceID: resourceID, Result: result}, nil
}

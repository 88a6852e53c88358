package async

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// ResolvedCacheSize is the number of the latest resolved request tokens
// remembered to detect repeated deliveries. Older tokens are forgotten and
// reported as unknown.
const ResolvedCacheSize = 64 * 1024

var (
	// ErrUnknownRequest is returned on delivery of result for a request
	// token which has never been issued.
	ErrUnknownRequest = errors.New("unknown request")
	// ErrAlreadyResolved is returned on repeated delivery of result.
	ErrAlreadyResolved = errors.New("request is already resolved")
)

// join groups calls awaited by a single callback.
type join struct {
	signer  util.Uint160
	origin  util.Uint160
	then    *Call
	results []Result
	left    int
}

type request struct {
	join  *join
	index int
}

// Scheduler keeps queue of tasks and callbacks waiting for results.
// Scheduler is not safe for concurrent use.
type Scheduler struct {
	queue    []Task
	requests map[uuid.UUID]request
	resolved *simplelru.LRU[uuid.UUID, struct{}]
}

// NewScheduler returns empty Scheduler.
func NewScheduler() *Scheduler {
	return newScheduler(ResolvedCacheSize)
}

func newScheduler(size int) *Scheduler {
	resolved, err := simplelru.NewLRU[uuid.UUID, struct{}](size, nil)
	if err != nil {
		panic("BUG: failed to create resolved requests cache: " + err.Error())
	}
	return &Scheduler{
		requests: make(map[uuid.UUID]request),
		resolved: resolved,
	}
}

// Schedule queues calls issued by origin within a transaction of the
// signer and returns their request tokens. If then is not nil, it is queued
// as a call of origin after all calls are resolved.
func (s *Scheduler) Schedule(signer, origin util.Uint160, then *Call, calls ...Call) []uuid.UUID {
	j := &join{signer: signer, origin: origin, then: then, results: make([]Result, len(calls)), left: len(calls)}
	ids := make([]uuid.UUID, len(calls))
	for i := range calls {
		ids[i] = uuid.New()
		s.requests[ids[i]] = request{join: j, index: i}
		s.queue = append(s.queue, Task{ID: ids[i], Origin: origin, Signer: signer, Call: calls[i]})
	}
	if len(calls) == 0 && then != nil {
		s.enqueueCallback(j)
	}
	return ids
}

// Next pops the next task from the queue.
func (s *Scheduler) Next() (Task, bool) {
	if len(s.queue) == 0 {
		return Task{}, false
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	return t, true
}

// Resolve delivers result of the request identified by id. The awaiting
// callback is queued once its last call is resolved.
func (s *Scheduler) Resolve(id uuid.UUID, res Result) error {
	if s.resolved.Contains(id) {
		return fmt.Errorf("%w: %s", ErrAlreadyResolved, id)
	}
	r, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}
	delete(s.requests, id)
	s.resolved.Add(id, struct{}{})

	r.join.results[r.index] = res
	r.join.left--
	if r.join.left == 0 && r.join.then != nil {
		s.enqueueCallback(r.join)
	}
	return nil
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int {
	return len(s.queue)
}

// Awaiting returns the number of issued requests without delivered results.
func (s *Scheduler) Awaiting() int {
	return len(s.requests)
}

func (s *Scheduler) enqueueCallback(j *join) {
	id := uuid.New()
	s.requests[id] = request{join: &join{signer: j.signer, origin: j.origin, left: 1, results: make([]Result, 1)}}
	s.queue = append(s.queue, Task{
		ID:      id,
		Origin:  j.origin,
		Signer:  j.signer,
		Call:    *j.then,
		Results: j.results,
	})
}

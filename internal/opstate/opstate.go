// ABOUTME: Loading state and per-operation-instance tracking for state machines
// ABOUTME: Each started operation gets its own id so concurrent settles never clobber each other

package opstate

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the phase of an asynchronous operation.
type Status string

const (
	Idle      Status = "idle"
	Loading   Status = "loading"
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
)

// LoadingState is the scalar view presentation code reads: the status and
// name of the most recent relevant operation, and its error message.
type LoadingState struct {
	Status    Status `json:"status"`
	Operation string `json:"operation"`
	Error     string `json:"error,omitempty"`
}

// Is reports whether the state is status for operation op.
func (ls LoadingState) Is(status Status, op string) bool {
	return ls.Status == status && ls.Operation == op
}

// Op is one in-flight operation instance.
type Op struct {
	ID        string
	Name      string
	StartedAt time.Time
}

// Result is the settled outcome of the latest instance of an operation name.
type Result struct {
	ID      string
	Status  Status
	Error   string
	Settled time.Time

	seq uint64
}

// Tracker records operation instances. The zero value is not usable; call New.
type Tracker struct {
	mu       sync.Mutex
	seq      uint64
	scalar   LoadingState
	scalarAt uint64 // seq of the instance that last wrote scalar
	inflight map[string]inflightOp
	last     map[string]Result
	now      func() time.Time
}

type inflightOp struct {
	Op
	seq uint64
}

// New returns a tracker in the idle state.
func New() *Tracker {
	return &Tracker{
		scalar:   LoadingState{Status: Idle},
		inflight: map[string]inflightOp{},
		last:     map[string]Result{},
		now:      time.Now,
	}
}

// Handle settles one operation instance. Settling twice is a no-op.
type Handle struct {
	t    *Tracker
	id   string
	name string
	seq  uint64
}

// ID returns the instance id.
func (h Handle) ID() string { return h.id }

// Begin records a new in-flight instance of name and makes it the scalar state.
func (t *Tracker) Begin(name string) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	op := inflightOp{
		Op:  Op{ID: uuid.NewString(), Name: name, StartedAt: t.now()},
		seq: t.seq,
	}
	t.inflight[op.ID] = op
	t.scalar = LoadingState{Status: Loading, Operation: name}
	t.scalarAt = op.seq
	return Handle{t: t, id: op.ID, name: name, seq: op.seq}
}

// Succeed settles the instance as succeeded.
func (h Handle) Succeed() {
	h.t.settle(h, Succeeded, "")
}

// Fail settles the instance as failed with message.
func (h Handle) Fail(message string) {
	h.t.settle(h, Failed, message)
}

func (t *Tracker) settle(h Handle, status Status, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.inflight[h.id]; !ok {
		return
	}
	delete(t.inflight, h.id)

	if prev, ok := t.last[h.name]; !ok || prev.seq < h.seq {
		t.last[h.name] = Result{ID: h.id, Status: status, Error: message, Settled: t.now(), seq: h.seq}
	}

	// Only write the scalar if no newer instance has begun since this one.
	if h.seq >= t.scalarAt {
		t.scalar = LoadingState{Status: status, Operation: h.name, Error: message}
		t.scalarAt = h.seq
	}
}

// State returns the scalar loading state.
func (t *Tracker) State() LoadingState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scalar
}

// ClearError drops the error message from the scalar state, keeping status.
func (t *Tracker) ClearError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scalar.Error = ""
}

// Reset returns the scalar state to idle. In-flight instances keep running
// but will not overwrite the reset state when they settle.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	t.scalar = LoadingState{Status: Idle}
	t.scalarAt = t.seq
}

// InFlight returns running instances, oldest first.
func (t *Tracker) InFlight() []Op {
	t.mu.Lock()
	defer t.mu.Unlock()

	ops := make([]inflightOp, 0, len(t.inflight))
	for _, op := range t.inflight {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].seq < ops[j].seq })

	out := make([]Op, len(ops))
	for i, op := range ops {
		out[i] = op.Op
	}
	return out
}

// IsRunning reports whether any instance of name is in flight.
func (t *Tracker) IsRunning(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, op := range t.inflight {
		if op.Name == name {
			return true
		}
	}
	return false
}

// Last returns the settled result of the most recently begun instance of
// name that has settled, and false if none has.
func (t *Tracker) Last(name string) (Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.last[name]
	return r, ok
}

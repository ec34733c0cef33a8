package fragment

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reassembler tracks pending partial messages and reassembles them
// once every fragment has arrived.
type Reassembler struct {
	mu             sync.Mutex
	pending        map[uuid.UUID]*pendingMessage
	timeoutSeconds int64
	now            func() time.Time
}

type pendingMessage struct {
	fragments [][]byte
	received  uint16
	total     uint16
	createdAt time.Time
}

// NewReassembler creates a Reassembler whose partial state for a
// message expires timeoutSeconds after its first fragment arrives.
func NewReassembler(timeoutSeconds int64) *Reassembler {
	return &Reassembler{
		pending:        make(map[uuid.UUID]*pendingMessage),
		timeoutSeconds: timeoutSeconds,
		now:            time.Now,
	}
}

// Add ingests one fragment. It returns the reassembled bytes once the
// last fragment for its message id arrives, or nil while more are
// still expected.
func (r *Reassembler) Add(f Fragment) ([]byte, error) {
	if f.TotalFragments == 0 {
		return nil, ErrFragment
	}
	if f.FragmentIndex >= f.TotalFragments {
		return nil, ErrFragment
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	pm, ok := r.pending[f.MessageID]
	if !ok {
		pm = &pendingMessage{
			fragments: make([][]byte, f.TotalFragments),
			total:     f.TotalFragments,
			createdAt: r.now(),
		}
		r.pending[f.MessageID] = pm
	}

	if pm.total != f.TotalFragments {
		return nil, ErrFragment
	}

	if pm.fragments[f.FragmentIndex] == nil {
		pm.received++
	}
	pm.fragments[f.FragmentIndex] = f.Data

	if pm.received < pm.total {
		return nil, nil
	}

	delete(r.pending, f.MessageID)

	total := 0
	for _, chunk := range pm.fragments {
		total += len(chunk)
	}
	out := make([]byte, 0, total)
	for _, chunk := range pm.fragments {
		out = append(out, chunk...)
	}
	return out, nil
}

// CleanupExpired discards pending messages whose first fragment
// arrived more than the configured timeout ago.
func (r *Reassembler) CleanupExpired() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, pm := range r.pending {
		if now.Sub(pm.createdAt) > time.Duration(r.timeoutSeconds)*time.Second {
			delete(r.pending, id)
		}
	}
}

// Pending returns the number of messages currently awaiting more
// fragments. Exposed for tests and diagnostics.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

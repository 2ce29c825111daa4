package client

import (
	"sort"
	"sync"
)

// pendingOps is the correlation table from engine message id to the search
// iterator awaiting its result. A nil iterator marks a pending non-search
// operation. A message id maps to at most one pending operation and is
// never reused while pending; entries leave the table on terminal result,
// abandon or close.
type pendingOps struct {
	mu  sync.Mutex
	ops map[int]*SearchIter
}

func newPendingOps() *pendingOps {
	return &pendingOps{ops: make(map[int]*SearchIter)}
}

// register inserts a pending operation. A duplicate message id is
// corrupted bookkeeping and fails with a fatal ProtocolError.
func (p *pendingOps) register(msgid int, it *SearchIter) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.ops[msgid]; exists {
		return newProtocolError("E_DUPLICATE_MSGID",
			"message id already registered for a pending operation",
			map[string]interface{}{"msgid": msgid})
	}
	p.ops[msgid] = it
	return nil
}

// takeIter removes and returns the iterator registered for msgid. found is
// false when the id is unknown; hasIter is false when the id belongs to a
// non-search operation.
func (p *pendingOps) takeIter(msgid int) (it *SearchIter, hasIter, found bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, found = p.ops[msgid]
	if !found {
		return nil, false, false
	}
	delete(p.ops, msgid)
	return it, it != nil, true
}

// contains reports whether msgid has a pending operation.
func (p *pendingOps) contains(msgid int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, found := p.ops[msgid]
	return found
}

// remove deletes the entry for msgid, reporting whether it was present.
func (p *pendingOps) remove(msgid int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, found := p.ops[msgid]; !found {
		return false
	}
	delete(p.ops, msgid)
	return true
}

// msgids returns the pending message ids in ascending order.
func (p *pendingOps) msgids() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]int, 0, len(p.ops))
	for id := range p.ops {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// size returns the number of pending operations.
func (p *pendingOps) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ops)
}

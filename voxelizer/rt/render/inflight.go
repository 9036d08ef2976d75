package render

import "sync/atomic"

type frame struct {
	serial   uint64
	uniforms Resource
	done     atomic.Bool
}

type retired struct {
	after uint64
	res   Resource
}

// retireQueue holds resources replaced while frames that use them may still
// be running. An entry is released once every frame up to and including
// its serial has completed.
type retireQueue struct {
	items []retired
}

func (q *retireQueue) push(after uint64, res Resource) {
	q.items = append(q.items, retired{after: after, res: res})
}

func (q *retireQueue) release(completed uint64) int {
	n := 0
	keep := q.items[:0]
	for _, it := range q.items {
		if it.after <= completed {
			it.res.Release()
			n++
			continue
		}
		keep = append(keep, it)
	}
	clear(q.items[len(keep):])
	q.items = keep
	return n
}

func (q *retireQueue) drain() {
	for _, it := range q.items {
		it.res.Release()
	}
	q.items = nil
}

func (q *retireQueue) len() int { return len(q.items) }

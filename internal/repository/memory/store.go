package memory

import (
	"sort"
	"sync"
	"time"

	"booking-settlement-be/internal/entity"

	"github.com/google/uuid"
)

// Store is a process-local database for development and tests. Every
// repository call is atomic; transactions are undo logs, so concurrent
// readers may observe uncommitted writes.
type Store struct {
	mu  sync.Mutex
	seq int64
	now func() time.Time

	bookings       table[entity.Booking]
	payments       table[entity.Payment]
	refunds        table[entity.Refund]
	requests       table[entity.RefundRequest]
	commissions    table[entity.CommissionEntry]
	reconciliation table[entity.ReconciliationItem]
}

func NewStore() *Store {
	return &Store{
		now:            time.Now,
		bookings:       table[entity.Booking]{},
		payments:       table[entity.Payment]{},
		refunds:        table[entity.Refund]{},
		requests:       table[entity.RefundRequest]{},
		commissions:    table[entity.CommissionEntry]{},
		reconciliation: table[entity.ReconciliationItem]{},
	}
}

func (s *Store) nextSeq() int64 {
	s.seq++
	return s.seq
}

type record[V any] struct {
	value V
	seq   int64
}

type table[V any] map[uuid.UUID]record[V]

// put writes a row and, inside a transaction, logs how to restore the
// previous one.
func (t table[V]) put(j *journal, id uuid.UUID, value V, seq int64) {
	prev, existed := t[id]
	if existed {
		seq = prev.seq
	}
	t[id] = record[V]{value: value, seq: seq}
	if j == nil {
		return
	}
	j.add(func() {
		if existed {
			t[id] = prev
		} else {
			delete(t, id)
		}
	})
}

// sorted returns rows matching keep, newest first unless asc is set.
func (t table[V]) sorted(asc bool, keep func(V) bool) []V {
	recs := make([]record[V], 0, len(t))
	for _, r := range t {
		if keep == nil || keep(r.value) {
			recs = append(recs, r)
		}
	}
	sort.Slice(recs, func(i, k int) bool {
		if asc {
			return recs[i].seq < recs[k].seq
		}
		return recs[i].seq > recs[k].seq
	})

	out := make([]V, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.value)
	}
	return out
}

func paginate[V any](rows []V, limit, offset int) []V {
	if offset >= len(rows) {
		return rows[:0]
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

type journal struct {
	undo []func()
}

func (j *journal) add(fn func()) {
	j.undo = append(j.undo, fn)
}

func (j *journal) revert() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

package fiber

import (
	"container/heap"
	"time"
)

// timerEntry is a pending wake-up: the fiber becomes ready once due has
// passed. seq breaks ties FIFO among entries sharing a due time.
type timerEntry struct {
	due   time.Time
	seq   uint64
	fiber FiberID
}

// timerQueue orders pending wake-ups by due time, then insertion order.
type timerQueue []timerEntry

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].seq < q[j].seq
	}
	return q[i].due.Before(q[j].due)
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(timerEntry)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

func (q timerQueue) peek() timerEntry { return q[0] }

func (q *timerQueue) push(e timerEntry) { heap.Push(q, e) }

func (q *timerQueue) pop() timerEntry { return heap.Pop(q).(timerEntry) }

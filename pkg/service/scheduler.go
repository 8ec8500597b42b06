package service

import "github.com/fabriziosalmi/nexus-taskqueue/pkg/models"

// queueItem is one scheduling entry. Entries are not removed when a task
// leaves the pending state; dispatch discards stale entries as they surface.
type queueItem struct {
	id       string
	priority models.TaskPriority
	seq      uint64 // FIFO order within the same priority
}

// taskHeap implements heap.Interface: highest priority first, oldest
// sequence number first within the same priority.
type taskHeap []queueItem

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(queueItem))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

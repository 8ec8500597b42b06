package service

import (
	"container/heap"
	"testing"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestTaskHeapOrdering(t *testing.T) {
	h := &taskHeap{}
	heap.Init(h)
	push := func(id string, priority models.TaskPriority, seq uint64) {
		heap.Push(h, queueItem{id: id, priority: priority, seq: seq})
	}

	t.Run("HighestPriorityFirst", func(t *testing.T) {
		push("low", models.LowTaskPriority, 1)
		push("urgent", models.UrgentTaskPriority, 2)
		push("normal", models.NormalTaskPriority, 3)
		push("high", models.HighTaskPriority, 4)

		var got []string
		for h.Len() > 0 {
			got = append(got, heap.Pop(h).(queueItem).id)
		}
		assert.Equal(t, []string{"urgent", "high", "normal", "low"}, got)
	})

	t.Run("FIFOWithinSamePriority", func(t *testing.T) {
		push("first", models.NormalTaskPriority, 10)
		push("second", models.NormalTaskPriority, 11)
		push("third", models.NormalTaskPriority, 12)
		push("jumper", models.HighTaskPriority, 13)

		var got []string
		for h.Len() > 0 {
			got = append(got, heap.Pop(h).(queueItem).id)
		}
		assert.Equal(t, []string{"jumper", "first", "second", "third"}, got)
	})
}

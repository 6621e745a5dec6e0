package container_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/trafficrl-oss/utils/container"
)

func TestPriorityQueue(t *testing.T) {
	pq := container.NewPriorityQueue[string]()
	pq.Push("c", 3)
	pq.Push("a", 1)
	pq.Push("d", 4)
	pq.Push("b", 2)
	assert.Equal(t, 4, pq.Len())

	pq.Heapify()
	for _, want := range []string{"a", "b", "c", "d"} {
		v, _ := pq.HeapPop()
		assert.Equal(t, want, v)
	}
	assert.Equal(t, 0, pq.Len())
}

func TestPriorityQueueNegativePriority(t *testing.T) {
	// 以负压力入堆时，压力最大的元素最先弹出
	pq := container.NewPriorityQueue[int]()
	pq.Push(0, -1.5)
	pq.Push(1, -9.0)
	pq.Push(2, -4.0)
	pq.Heapify()

	v, p := pq.HeapPop()
	assert.Equal(t, 1, v)
	assert.Equal(t, -9.0, p)
	v, _ = pq.HeapPop()
	assert.Equal(t, 2, v)
}

package container

import "container/heap"

// item 优先队列中单个元素
type item[T any] struct {
	Value    T       // 元素的值
	Priority float64 // 优先级（越小越优先）
	index    int     // 堆内索引，由heap.Interface维护
}

// priorityQueue 实现heap.Interface的内部堆
type priorityQueue[T any] []*item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

func (pq priorityQueue[T]) Less(i, j int) bool {
	// Pop返回最低优先级的项（小顶堆）
	return pq[i].Priority < pq[j].Priority
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	n := len(*pq)
	item := x.(*item[T])
	item.index = n
	*pq = append(*pq, item)
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // 避免内存泄漏
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// PriorityQueue 优先队列
// 功能：基于标准库heap的泛型小顶堆，支持先批量Push再Heapify的用法
type PriorityQueue[T any] struct {
	queue priorityQueue[T]
}

// NewPriorityQueue 创建优先队列
func NewPriorityQueue[T any]() *PriorityQueue[T] {
	return &PriorityQueue[T]{queue: make(priorityQueue[T], 0)}
}

// Len 队列长度
func (pq *PriorityQueue[T]) Len() int {
	return pq.queue.Len()
}

// Push 添加元素（不维护堆序，需配合Heapify使用）
// 参数：value-元素值，priority-优先级（越小越优先）
func (pq *PriorityQueue[T]) Push(value T, priority float64) {
	pq.queue = append(pq.queue, &item[T]{Value: value, Priority: priority, index: pq.queue.Len()})
}

// Heapify 重建堆序
// 说明：批量Push后调用一次，整体代价O(n)
func (pq *PriorityQueue[T]) Heapify() {
	heap.Init(&pq.queue)
}

// HeapPop 弹出最低优先级的元素
// 返回：元素值与其优先级
func (pq *PriorityQueue[T]) HeapPop() (T, float64) {
	item := heap.Pop(&pq.queue).(*item[T])
	return item.Value, item.Priority
}

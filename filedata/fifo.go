package filedata

import "container/list"

// fifoStrategy evicts in pure insertion order. No FIFO-cache library
// appears anywhere in the example pack (hashicorp/golang-lru only ships
// LRU/2Q/ARC eviction); hand-rolled here and justified in DESIGN.md.
type fifoStrategy struct {
	order *list.List
	elems map[string]*list.Element
	sizes map[string]int64
}

type fifoEntry struct {
	key  string
	size int64
}

func newFIFOStrategy() *fifoStrategy {
	return &fifoStrategy{
		order: list.New(),
		elems: make(map[string]*list.Element),
		sizes: make(map[string]int64),
	}
}

func (s *fifoStrategy) insert(key string, size int64) {
	if _, ok := s.elems[key]; ok {
		s.sizes[key] = size
		return
	}
	el := s.order.PushBack(fifoEntry{key: key, size: size})
	s.elems[key] = el
	s.sizes[key] = size
}

// touch is a no-op: FIFO order never changes on access.
func (s *fifoStrategy) touch(string) {}

func (s *fifoStrategy) remove(key string) {
	el, ok := s.elems[key]
	if !ok {
		return
	}
	s.order.Remove(el)
	delete(s.elems, key)
	delete(s.sizes, key)
}

func (s *fifoStrategy) contains(key string) bool {
	_, ok := s.elems[key]
	return ok
}

func (s *fifoStrategy) len() int { return s.order.Len() }

func (s *fifoStrategy) evictOne() (key string, size int64, ok bool) {
	front := s.order.Front()
	if front == nil {
		return "", 0, false
	}
	e := front.Value.(fifoEntry)
	s.order.Remove(front)
	delete(s.elems, e.key)
	delete(s.sizes, e.key)
	return e.key, e.size, true
}

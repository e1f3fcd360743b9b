package list

import "sync"

// Element is a node in the doubly linked list that holds a value of type T.
type Element[T any] struct {
	next, prev *Element[T]
	list       *List[T]
	Value      T
}

// Next returns the next element in the list or nil if it's the end or unlinked.
func (e *Element[T]) Next() *Element[T] {
	if p := e.next; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// Prev returns the previous element in the list or nil if it's the beginning or unlinked.
func (e *Element[T]) Prev() *Element[T] {
	if p := e.prev; e.list != nil && p != &e.list.root {
		return p
	}
	return nil
}

// List is a generic doubly linked list with optional thread-safety.
// Callers that already serialize access (e.g. under their own mutex) should pass false.
type List[T any] struct {
	isGuarded bool
	mu        sync.Mutex
	root      Element[T]
	len       int
}

// New creates a new List instance. If isMustBeListAThreadSafe is true, it uses a mutex for concurrency safety.
func New[T any](isMustBeListAThreadSafe bool) *List[T] {
	l := &List[T]{isGuarded: isMustBeListAThreadSafe}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

func (l *List[T]) lock() func() {
	if !l.isGuarded {
		return func() {}
	}
	l.mu.Lock()
	return l.mu.Unlock
}

// Init drops every element.
func (l *List[T]) Init() *List[T] {
	defer l.lock()()
	l.root.next = &l.root
	l.root.prev = &l.root
	l.len = 0
	return l
}

// Len returns the number of linked elements.
func (l *List[T]) Len() int {
	defer l.lock()()
	return l.len
}

// Front returns the first element in the list.
func (l *List[T]) Front() *Element[T] {
	defer l.lock()()
	if l.len == 0 {
		return nil
	}
	return l.root.next
}

// Back returns the last element in the list.
func (l *List[T]) Back() *Element[T] {
	defer l.lock()()
	if l.len == 0 {
		return nil
	}
	return l.root.prev
}

// insert adds an element e after the element at.
func (l *List[T]) insert(e, at *Element[T]) *Element[T] {
	e.prev = at
	e.next = at.next
	at.next.prev = e
	at.next = e
	e.list = l
	l.len++
	return e
}

// move relocates element e after element at within the list.
func (l *List[T]) move(e, at *Element[T]) {
	if e == at {
		return
	}

	e.prev.next = e.next
	e.next.prev = e.prev

	e.prev = at
	e.next = at.next
	at.next.prev = e
	at.next = e
}

// Remove deletes the element from the list and returns its value.
func (l *List[T]) Remove(e *Element[T]) (v T) {
	defer l.lock()()
	if e == nil || e.list != l {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next = nil
	e.prev = nil
	e.list = nil
	l.len--
	return e.Value
}

// PushFront inserts a value at the front of the list.
func (l *List[T]) PushFront(v T) *Element[T] {
	defer l.lock()()
	return l.insert(&Element[T]{Value: v}, &l.root)
}

// PushBack inserts a value at the end of the list.
func (l *List[T]) PushBack(v T) *Element[T] {
	defer l.lock()()
	return l.insert(&Element[T]{Value: v}, l.root.prev)
}

// MoveToFront moves the specified element to the front of the list.
func (l *List[T]) MoveToFront(e *Element[T]) {
	defer l.lock()()
	if e == nil || e.list != l || l.root.next == e {
		return
	}
	l.move(e, &l.root)
}

// MoveToBack moves the specified element to the end of the list.
func (l *List[T]) MoveToBack(e *Element[T]) {
	defer l.lock()()
	if e == nil || e.list != l || l.root.prev == e {
		return
	}
	l.move(e, l.root.prev)
}

// Walk calls fn from front to back until fn returns false.
func (l *List[T]) Walk(fn func(e *Element[T]) bool) {
	defer l.lock()()
	for e := l.root.next; e != &l.root; {
		next := e.next
		if !fn(e) {
			return
		}
		e = next
	}
}

// Package pool holds fixed-capacity collections of drawable primitives that
// are created once at startup and reused every frame.
package pool

// Hideable is a primitive the redraw driver can hide between frames.
type Hideable interface {
	Hide()
	Visible() bool
}

// Pool is a fixed-capacity slice of primitives. Its length never changes
// after New.
type Pool[T Hideable] struct {
	items []T
}

// New builds a pool of n primitives using factory. Negative sizes yield an
// empty pool.
func New[T Hideable](n int, factory func(i int) T) *Pool[T] {
	if n < 0 {
		n = 0
	}
	items := make([]T, n)
	for i := range items {
		items[i] = factory(i)
	}
	return &Pool[T]{items: items}
}

// Len returns the pool capacity.
func (p *Pool[T]) Len() int { return len(p.items) }

// At returns the i-th primitive.
func (p *Pool[T]) At(i int) T { return p.items[i] }

// Items returns the primitives in order. The slice must not be modified.
func (p *Pool[T]) Items() []T { return p.items }

// HideAll hides every primitive.
func (p *Pool[T]) HideAll() {
	for _, it := range p.items {
		it.Hide()
	}
}

// Fill calls fn for the first min(n, Len()) primitives and returns how many
// were filled. Items beyond the capacity are dropped.
func (p *Pool[T]) Fill(n int, fn func(i int, item T)) int {
	n = min(n, len(p.items))
	for i := 0; i < n; i++ {
		fn(i, p.items[i])
	}
	return max(n, 0)
}

// VisibleCount returns the number of visible primitives.
func (p *Pool[T]) VisibleCount() int {
	n := 0
	for _, it := range p.items {
		if it.Visible() {
			n++
		}
	}
	return n
}

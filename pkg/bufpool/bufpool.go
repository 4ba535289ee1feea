// Package bufpool recycles session read buffers.
//
// Buffers are grouped into size classes. A request is served from the
// smallest class that fits; requests above the largest class are allocated
// directly and dropped on Put so a single oversized session cannot pin a
// large buffer forever.
//
//	buf := bufpool.Get(size)
//	defer bufpool.Put(buf)
package bufpool

import (
	"slices"
	"sync"
)

// Default size classes cover the common read buffer settings.
var DefaultClasses = []int{4 << 10, 8 << 10, 64 << 10, 1 << 20}

type class struct {
	size int
	pool sync.Pool
}

// Pool is a set of sync.Pools keyed by buffer capacity. It is safe for
// concurrent use.
type Pool struct {
	classes []*class
}

// New creates a pool with the given size classes. Non-positive and duplicate
// sizes are ignored; no sizes means DefaultClasses.
func New(sizes ...int) *Pool {
	if len(sizes) == 0 {
		sizes = DefaultClasses
	}

	sorted := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if s > 0 {
			sorted = append(sorted, s)
		}
	}
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	p := &Pool{classes: make([]*class, 0, len(sorted))}
	for _, size := range sorted {
		c := &class{size: size}
		c.pool.New = func() any {
			buf := make([]byte, c.size)
			return &buf
		}
		p.classes = append(p.classes, c)
	}
	return p
}

func (p *Pool) classFor(size int) *class {
	for _, c := range p.classes {
		if size <= c.size {
			return c
		}
	}
	return nil
}

// Get returns a slice of length size. Its capacity is the size of the class
// that served it.
func (p *Pool) Get(size int) []byte {
	if size < 0 {
		size = 0
	}
	c := p.classFor(size)
	if c == nil {
		return make([]byte, size)
	}
	buf := *c.pool.Get().(*[]byte)
	return buf[:size]
}

// Put returns buf to its class. Buffers whose capacity matches no class are
// left to the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}
	capacity := cap(buf)
	for _, c := range p.classes {
		if c.size == capacity {
			full := buf[:capacity]
			c.pool.Put(&full)
			return
		}
		if c.size > capacity {
			return
		}
	}
}

// Classes returns the configured class sizes in ascending order.
func (p *Pool) Classes() []int {
	sizes := make([]int, len(p.classes))
	for i, c := range p.classes {
		sizes[i] = c.size
	}
	return sizes
}

var defaultPool = New()

// Get takes a buffer from the package-level pool.
func Get(size int) []byte { return defaultPool.Get(size) }

// Put returns a buffer to the package-level pool.
func Put(buf []byte) { defaultPool.Put(buf) }

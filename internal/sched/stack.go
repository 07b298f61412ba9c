package sched

import (
	"fmt"

	"github.com/emirpasic/gods/stacks/arraystack"
)

// StackAllocator hands out fixed-size stack regions for task contexts.
type StackAllocator interface {
	Allocate(size int) (*StackBuffer, error)
}

// StackBuffer is a backing region owned by exactly one task context until
// it is released.
type StackBuffer struct {
	mem      []byte
	released bool
	pool     *StackPool
}

// Len returns the size of the region in bytes.
func (b *StackBuffer) Len() int { return len(b.mem) }

// Released reports whether Release has already been called.
func (b *StackBuffer) Released() bool { return b.released }

// Release gives the region back to its pool. A second call fails with
// ErrDoubleRelease and has no effect.
func (b *StackBuffer) Release() error {
	if b.released {
		return ErrDoubleRelease
	}
	b.released = true
	if b.pool != nil {
		b.pool.put(b.mem)
	}
	b.mem = nil
	return nil
}

// StackPool is the default allocator. Limit caps the number of bytes that
// may be handed out at once (0 = unlimited). Released regions are kept on a
// free list and reused for requests of the same size.
type StackPool struct {
	Limit int64

	inUse int64
	free  *arraystack.Stack // of []byte
}

// NewStackPool returns a pool that refuses allocations once limit bytes are
// outstanding.
func NewStackPool(limit int64) *StackPool {
	return &StackPool{
		Limit: limit,
		free:  arraystack.New(),
	}
}

// Allocate implements StackAllocator.
func (p *StackPool) Allocate(size int) (*StackBuffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: invalid stack size %d", ErrAllocationFailure, size)
	}
	if p.Limit > 0 && p.inUse+int64(size) > p.Limit {
		return nil, fmt.Errorf("%w: %d bytes in use, limit %d", ErrAllocationFailure, p.inUse, p.Limit)
	}

	var mem []byte
	if v, ok := p.free.Peek(); ok && len(v.([]byte)) == size {
		p.free.Pop()
		mem = v.([]byte)
		clear(mem)
	} else {
		mem = make([]byte, size)
	}
	p.inUse += int64(size)
	return &StackBuffer{mem: mem, pool: p}, nil
}

// InUse returns the number of bytes currently handed out.
func (p *StackPool) InUse() int64 { return p.inUse }

// Free returns the number of regions waiting on the free list.
func (p *StackPool) Free() int { return p.free.Size() }

func (p *StackPool) put(mem []byte) {
	p.inUse -= int64(len(mem))
	p.free.Push(mem)
}

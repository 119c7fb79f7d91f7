package core

import "fmt"

// IdentifierPool hands out small integer ids, reusing released slots first.
// Every slot carries a generation that is bumped on release so stale ids can
// be told apart from a newer owner of the same slot.
type IdentifierPool struct {
	owners      []interface{}
	generations []uint32
}

func NewIdentifierPool(capacity int) *IdentifierPool {
	return &IdentifierPool{
		owners:      make([]interface{}, 0, capacity),
		generations: make([]uint32, 0, capacity),
	}
}

// Acquire returns a free id for owner along with the slot generation.
func (p *IdentifierPool) Acquire(owner interface{}) (uint32, uint32) {
	length := uint32(len(p.owners))
	for i := uint32(0); i < length; i++ {
		// Existing free spot. Take it.
		if p.owners[i] == nil {
			p.owners[i] = owner
			return i, p.generations[i]
		}
	}

	// If here, no existing free slots. Need a new id, so push one.
	p.owners = append(p.owners, owner)
	p.generations = append(p.generations, 0)
	return length, 0
}

func (p *IdentifierPool) Release(id uint32) error {
	length := uint32(len(p.owners))
	if id >= length {
		return fmt.Errorf("identifier release: id '%d' out of range (max=%d). Nothing was done", id, length)
	}
	if p.owners[id] == nil {
		return fmt.Errorf("identifier release: id '%d' is not acquired. Nothing was done", id)
	}

	// Zero out the entry, making it available for use.
	p.owners[id] = nil
	p.generations[id]++
	return nil
}

// Owner returns the owner of id if generation still matches.
func (p *IdentifierPool) Owner(id, generation uint32) (interface{}, bool) {
	if id >= uint32(len(p.owners)) {
		return nil, false
	}
	if p.owners[id] == nil || p.generations[id] != generation {
		return nil, false
	}
	return p.owners[id], true
}

func (p *IdentifierPool) Len() int {
	n := 0
	for _, o := range p.owners {
		if o != nil {
			n++
		}
	}
	return n
}

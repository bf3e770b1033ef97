package zmachine

// ---------------------------------------------------------------------------
// Cache: decoded-instruction memoization by address
// ---------------------------------------------------------------------------

// Cache memoizes decoded instructions by start address. Writes to dynamic
// memory never invalidate it: instructions only live in static and high
// memory, which the story cannot modify. Size is unbounded; a story's code
// region bounds it in practice.
type Cache struct {
	instructions map[uint32]*Instruction
	hits         uint64
	misses       uint64
}

// NewCache creates an empty instruction cache.
func NewCache() *Cache {
	return &Cache{instructions: make(map[uint32]*Instruction)}
}

// Get returns the cached instruction decoded at addr, or nil.
func (c *Cache) Get(addr uint32) *Instruction {
	in, ok := c.instructions[addr]
	if ok {
		c.hits++
		return in
	}
	c.misses++
	return nil
}

// Put installs a freshly decoded instruction.
func (c *Cache) Put(in *Instruction) {
	c.instructions[in.Address] = in
}

// Len returns the number of cached instructions.
func (c *Cache) Len() int {
	return len(c.instructions)
}

// Stats returns hit and miss counts since creation.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits, c.misses
}

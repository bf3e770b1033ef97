package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// ObjectTable: narrow accessors over the story's object tree
// ---------------------------------------------------------------------------

// ObjectTable reads and mutates the object tree in place. Two layouts exist:
// through v3 an entry is 9 bytes with byte-wide links and 32 attributes;
// from v4 it is 14 bytes with word-wide links and 48 attributes.
type ObjectTable struct {
	mem *Memory
}

// NewObjectTable wraps the story's object table.
func NewObjectTable(mem *Memory) *ObjectTable {
	return &ObjectTable{mem: mem}
}

func (t *ObjectTable) small() bool {
	return t.mem.Version() <= 3
}

// entryAddr returns the address of object obj's entry. Objects are numbered
// from 1; 0 is the null object.
func (t *ObjectTable) entryAddr(obj Word) (uint32, error) {
	if obj == 0 {
		return 0, fmt.Errorf("%w: object 0", ErrIllegalState)
	}
	base := uint32(t.mem.ObjectTableAddr())
	if t.small() {
		return base + 31*2 + 9*(uint32(obj)-1), nil
	}
	return base + 63*2 + 14*(uint32(obj)-1), nil
}

// ---------------------------------------------------------------------------
// Attributes
// ---------------------------------------------------------------------------

func (t *ObjectTable) attrLocation(obj, attr Word) (addr uint32, mask byte, err error) {
	limit := Word(48)
	if t.small() {
		limit = 32
	}
	if attr >= limit {
		return 0, 0, fmt.Errorf("%w: attribute %d", ErrIllegalState, attr)
	}
	entry, err := t.entryAddr(obj)
	if err != nil {
		return 0, 0, err
	}
	return entry + uint32(attr)/8, 0x80 >> (attr % 8), nil
}

// TestAttr reports whether the attribute is set.
func (t *ObjectTable) TestAttr(obj, attr Word) (bool, error) {
	addr, mask, err := t.attrLocation(obj, attr)
	if err != nil {
		return false, err
	}
	b, err := t.mem.Byte(addr)
	if err != nil {
		return false, err
	}
	return b&mask != 0, nil
}

// SetAttr sets the attribute.
func (t *ObjectTable) SetAttr(obj, attr Word) error {
	addr, mask, err := t.attrLocation(obj, attr)
	if err != nil {
		return err
	}
	b, err := t.mem.Byte(addr)
	if err != nil {
		return err
	}
	return t.mem.WriteByte(addr, b|mask)
}

// ClearAttr clears the attribute.
func (t *ObjectTable) ClearAttr(obj, attr Word) error {
	addr, mask, err := t.attrLocation(obj, attr)
	if err != nil {
		return err
	}
	b, err := t.mem.Byte(addr)
	if err != nil {
		return err
	}
	return t.mem.WriteByte(addr, b&^mask)
}

// ---------------------------------------------------------------------------
// Tree links
// ---------------------------------------------------------------------------

// Link offsets within an entry, after the attribute flags.
func (t *ObjectTable) linkAddr(obj Word, slot int) (uint32, error) {
	entry, err := t.entryAddr(obj)
	if err != nil {
		return 0, err
	}
	if t.small() {
		return entry + 4 + uint32(slot), nil
	}
	return entry + 6 + 2*uint32(slot), nil
}

func (t *ObjectTable) readLink(obj Word, slot int) (Word, error) {
	addr, err := t.linkAddr(obj, slot)
	if err != nil {
		return 0, err
	}
	if t.small() {
		b, err := t.mem.Byte(addr)
		return Word(b), err
	}
	return t.mem.Word(addr)
}

func (t *ObjectTable) writeLink(obj Word, slot int, target Word) error {
	addr, err := t.linkAddr(obj, slot)
	if err != nil {
		return err
	}
	if t.small() {
		return t.mem.WriteByte(addr, byte(target))
	}
	return t.mem.WriteWord(addr, target)
}

// Parent returns the object's parent, 0 for none.
func (t *ObjectTable) Parent(obj Word) (Word, error) {
	return t.readLink(obj, 0)
}

// Sibling returns the object's next sibling, 0 for none.
func (t *ObjectTable) Sibling(obj Word) (Word, error) {
	return t.readLink(obj, 1)
}

// Child returns the object's first child, 0 for none.
func (t *ObjectTable) Child(obj Word) (Word, error) {
	return t.readLink(obj, 2)
}

// Remove unlinks obj from its parent's child list.
func (t *ObjectTable) Remove(obj Word) error {
	parent, err := t.Parent(obj)
	if err != nil {
		return err
	}
	if parent == 0 {
		return nil
	}
	sibling, err := t.Sibling(obj)
	if err != nil {
		return err
	}

	first, err := t.Child(parent)
	if err != nil {
		return err
	}
	if first == obj {
		if err := t.writeLink(parent, 2, sibling); err != nil {
			return err
		}
	} else {
		// Walk the sibling chain to the predecessor.
		for cur := first; cur != 0; {
			next, err := t.Sibling(cur)
			if err != nil {
				return err
			}
			if next == obj {
				if err := t.writeLink(cur, 1, sibling); err != nil {
					return err
				}
				break
			}
			cur = next
		}
	}

	if err := t.writeLink(obj, 0, 0); err != nil {
		return err
	}
	return t.writeLink(obj, 1, 0)
}

// Insert makes obj the first child of dest, unlinking it first.
func (t *ObjectTable) Insert(obj, dest Word) error {
	if err := t.Remove(obj); err != nil {
		return err
	}
	oldChild, err := t.Child(dest)
	if err != nil {
		return err
	}
	if err := t.writeLink(obj, 0, dest); err != nil {
		return err
	}
	if err := t.writeLink(obj, 1, oldChild); err != nil {
		return err
	}
	return t.writeLink(dest, 2, obj)
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// propTableAddr returns the address of obj's property table.
func (t *ObjectTable) propTableAddr(obj Word) (uint32, error) {
	entry, err := t.entryAddr(obj)
	if err != nil {
		return 0, err
	}
	var off uint32 = 7
	if !t.small() {
		off = 12
	}
	w, err := t.mem.Word(entry + off)
	return uint32(w), err
}

// Name decodes the object's short name.
func (t *ObjectTable) Name(obj Word) (string, error) {
	props, err := t.propTableAddr(obj)
	if err != nil {
		return "", err
	}
	textLen, err := t.mem.Byte(props)
	if err != nil {
		return "", err
	}
	if textLen == 0 {
		return "", nil
	}
	return DecodeZTextAt(t.mem, props+1)
}

// firstPropAddr returns the address of the first property's size byte.
func (t *ObjectTable) firstPropAddr(obj Word) (uint32, error) {
	props, err := t.propTableAddr(obj)
	if err != nil {
		return 0, err
	}
	textLen, err := t.mem.Byte(props)
	if err != nil {
		return 0, err
	}
	return props + 1 + 2*uint32(textLen), nil
}

// propInfo describes one property entry: its number, the address and length
// of its data, and the address of the next entry's size byte.
type propInfo struct {
	number   Word
	dataAddr uint32
	length   uint32
	next     uint32
}

func (t *ObjectTable) readPropInfo(addr uint32) (propInfo, error) {
	size, err := t.mem.Byte(addr)
	if err != nil {
		return propInfo{}, err
	}
	var info propInfo
	if t.small() {
		info.number = Word(size & 0x1f)
		info.length = uint32(size>>5) + 1
		info.dataAddr = addr + 1
	} else {
		info.number = Word(size & 0x3f)
		if size&0x80 != 0 {
			second, err := t.mem.Byte(addr + 1)
			if err != nil {
				return propInfo{}, err
			}
			info.length = uint32(second & 0x3f)
			if info.length == 0 {
				info.length = 64
			}
			info.dataAddr = addr + 2
		} else {
			info.length = 1
			if size&0x40 != 0 {
				info.length = 2
			}
			info.dataAddr = addr + 1
		}
	}
	info.next = info.dataAddr + info.length
	return info, nil
}

func (t *ObjectTable) findProp(obj, prop Word) (propInfo, bool, error) {
	addr, err := t.firstPropAddr(obj)
	if err != nil {
		return propInfo{}, false, err
	}
	for {
		info, err := t.readPropInfo(addr)
		if err != nil {
			return propInfo{}, false, err
		}
		if info.number == 0 || info.number < prop {
			// Properties are stored in descending number order.
			return propInfo{}, false, nil
		}
		if info.number == prop {
			return info, true, nil
		}
		addr = info.next
	}
}

// propDefault reads the default value for a property number.
func (t *ObjectTable) propDefault(prop Word) (Word, error) {
	if prop == 0 {
		return 0, fmt.Errorf("%w: property 0", ErrIllegalState)
	}
	return t.mem.Word(uint32(t.mem.ObjectTableAddr()) + 2*(uint32(prop)-1))
}

// GetProp reads a property value, falling back to the defaults table. One-
// and two-byte properties read as a byte or word; longer properties are a
// story bug and read their first word.
func (t *ObjectTable) GetProp(obj, prop Word) (Word, error) {
	info, found, err := t.findProp(obj, prop)
	if err != nil {
		return 0, err
	}
	if !found {
		return t.propDefault(prop)
	}
	if info.length == 1 {
		b, err := t.mem.Byte(info.dataAddr)
		return Word(b), err
	}
	return t.mem.Word(info.dataAddr)
}

// PutProp writes a property value. The property must exist on the object;
// a one-byte property stores the value's low byte.
func (t *ObjectTable) PutProp(obj, prop, value Word) error {
	info, found, err := t.findProp(obj, prop)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%w: put_prop %d on object %d", ErrIllegalState, prop, obj)
	}
	if info.length == 1 {
		return t.mem.WriteByte(info.dataAddr, byte(value))
	}
	return t.mem.WriteWord(info.dataAddr, value)
}

// GetPropAddr returns the address of a property's data, or 0 if absent.
func (t *ObjectTable) GetPropAddr(obj, prop Word) (Word, error) {
	info, found, err := t.findProp(obj, prop)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return Word(info.dataAddr), nil
}

// GetPropLen returns the data length for a property data address, as left
// by get_prop_addr. Address 0 yields 0.
func (t *ObjectTable) GetPropLen(dataAddr Word) (Word, error) {
	if dataAddr == 0 {
		return 0, nil
	}
	// The size byte immediately precedes the data.
	size, err := t.mem.Byte(uint32(dataAddr) - 1)
	if err != nil {
		return 0, err
	}
	if t.small() {
		return Word(size>>5) + 1, nil
	}
	if size&0x80 != 0 {
		length := Word(size & 0x3f)
		if length == 0 {
			length = 64
		}
		return length, nil
	}
	if size&0x40 != 0 {
		return 2, nil
	}
	return 1, nil
}

// NextProp returns the number of the property after prop, or the first
// property if prop is 0, or 0 at the end of the list.
func (t *ObjectTable) NextProp(obj, prop Word) (Word, error) {
	if prop == 0 {
		addr, err := t.firstPropAddr(obj)
		if err != nil {
			return 0, err
		}
		info, err := t.readPropInfo(addr)
		if err != nil {
			return 0, err
		}
		return info.number, nil
	}
	info, found, err := t.findProp(obj, prop)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: get_next_prop %d on object %d", ErrIllegalState, prop, obj)
	}
	next, err := t.readPropInfo(info.next)
	if err != nil {
		return 0, err
	}
	return next.number, nil
}

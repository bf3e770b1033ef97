package zmachine

import (
	"errors"
	"fmt"
)

// Header field offsets per the Z-Machine Standards Document v1.1.
const (
	hdrVersion          = 0x00
	hdrRelease          = 0x02
	hdrHighMemoryBase   = 0x04
	hdrInitialPC        = 0x06
	hdrDictionary       = 0x08
	hdrObjectTable      = 0x0a
	hdrGlobalTable      = 0x0c
	hdrStaticMemoryBase = 0x0e
	hdrSerial           = 0x12
	hdrAbbreviations    = 0x18
	hdrFileLength       = 0x1a
	hdrChecksum         = 0x1c
	hdrRoutineOffset    = 0x28
	hdrStringOffset     = 0x2a
	hdrTerminatingChars = 0x2e
	hdrAlphabetTable    = 0x34
	hdrExtensionTable   = 0x36
	hdrInformVersion    = 0x3c

	headerSize = 0x40
)

var (
	ErrStoryTooShort = errors.New("story file shorter than header")
	ErrBadVersion    = errors.New("unsupported story file version")
)

// ---------------------------------------------------------------------------
// Memory: byte-addressed view of a loaded story file
// ---------------------------------------------------------------------------

// Memory is the byte-addressed RAM view of a story file. All multi-byte reads
// are big-endian. Writes are only legal below the static memory base.
type Memory struct {
	buf []byte

	// Pristine copy of dynamic memory, kept for restart.
	dynamic []byte
}

// NewMemory wraps story file bytes. The slice is owned by the Memory from
// here on.
func NewMemory(data []byte) (*Memory, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrStoryTooShort, len(data))
	}
	m := &Memory{buf: data}
	v := m.Version()
	if v < 1 || v > 8 {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, v)
	}
	static := uint32(m.StaticMemoryBase())
	if static > uint32(len(data)) {
		static = uint32(len(data))
	}
	m.dynamic = make([]byte, static)
	copy(m.dynamic, data[:static])
	return m, nil
}

// Size returns the story file length in bytes.
func (m *Memory) Size() uint32 {
	return uint32(len(m.buf))
}

// Reset restores dynamic memory to its load-time contents (restart opcode).
func (m *Memory) Reset() {
	copy(m.buf, m.dynamic)
}

// ---------------------------------------------------------------------------
// Raw access
// ---------------------------------------------------------------------------

// Byte reads the byte at addr.
func (m *Memory) Byte(addr uint32) (byte, error) {
	if addr >= uint32(len(m.buf)) {
		return 0, fmt.Errorf("%w: read byte at %#x", ErrMemoryViolation, addr)
	}
	return m.buf[addr], nil
}

// Word reads the big-endian word at addr.
func (m *Memory) Word(addr uint32) (Word, error) {
	if addr+1 >= uint32(len(m.buf)) {
		return 0, fmt.Errorf("%w: read word at %#x", ErrMemoryViolation, addr)
	}
	return Word(m.buf[addr])<<8 | Word(m.buf[addr+1]), nil
}

// WriteByte stores a byte at addr. Only dynamic memory is writable.
func (m *Memory) WriteByte(addr uint32, b byte) error {
	if err := m.checkWrite(addr); err != nil {
		return err
	}
	m.buf[addr] = b
	return nil
}

// WriteWord stores a big-endian word at addr. Only dynamic memory is writable.
func (m *Memory) WriteWord(addr uint32, w Word) error {
	if err := m.checkWrite(addr + 1); err != nil {
		return err
	}
	m.buf[addr] = byte(w >> 8)
	m.buf[addr+1] = byte(w)
	return nil
}

func (m *Memory) checkWrite(addr uint32) error {
	if addr >= uint32(len(m.buf)) {
		return fmt.Errorf("%w: write at %#x", ErrMemoryViolation, addr)
	}
	if addr >= uint32(m.StaticMemoryBase()) {
		return fmt.Errorf("%w: write at %#x (static base %#x)",
			ErrMemoryViolation, addr, m.StaticMemoryBase())
	}
	return nil
}

// mustWord reads a word from the header region, which NewMemory has already
// bounds-checked.
func (m *Memory) mustWord(addr uint32) Word {
	return Word(m.buf[addr])<<8 | Word(m.buf[addr+1])
}

// ---------------------------------------------------------------------------
// Header accessors
// ---------------------------------------------------------------------------

// Version returns the story file version (1..8).
func (m *Memory) Version() byte {
	return m.buf[hdrVersion]
}

// Release returns the release number.
func (m *Memory) Release() Word {
	return m.mustWord(hdrRelease)
}

// Serial returns the six-character ASCII serial code.
func (m *Memory) Serial() string {
	return string(m.buf[hdrSerial : hdrSerial+6])
}

// HighMemoryBase returns the byte address where high memory begins.
func (m *Memory) HighMemoryBase() Word {
	return m.mustWord(hdrHighMemoryBase)
}

// InitialPC returns the program counter for the bottom frame. For v6 the
// header holds a packed routine address; the PC is the first instruction past
// its local count.
func (m *Memory) InitialPC() uint32 {
	raw := uint32(m.mustWord(hdrInitialPC))
	if m.Version() == 6 {
		return m.UnpackRoutine(Word(raw)) + 1
	}
	return raw
}

// Dictionary returns the dictionary table address.
func (m *Memory) Dictionary() Word {
	return m.mustWord(hdrDictionary)
}

// ObjectTableAddr returns the object table address.
func (m *Memory) ObjectTableAddr() Word {
	return m.mustWord(hdrObjectTable)
}

// GlobalTable returns the global variables table address.
func (m *Memory) GlobalTable() Word {
	return m.mustWord(hdrGlobalTable)
}

// StaticMemoryBase returns the first address of static memory. Everything
// below it is writable.
func (m *Memory) StaticMemoryBase() Word {
	return m.mustWord(hdrStaticMemoryBase)
}

// Abbreviations returns the abbreviations table address.
func (m *Memory) Abbreviations() Word {
	return m.mustWord(hdrAbbreviations)
}

// TerminatingChars returns the terminating characters table address (v5+).
func (m *Memory) TerminatingChars() Word {
	return m.mustWord(hdrTerminatingChars)
}

// AlphabetTable returns the custom alphabet table address, or 0 for the
// default alphabets (v5+).
func (m *Memory) AlphabetTable() Word {
	return m.mustWord(hdrAlphabetTable)
}

// HeaderExtension returns the header extension table address (v5+).
func (m *Memory) HeaderExtension() Word {
	return m.mustWord(hdrExtensionTable)
}

// InformVersion returns the four-character Inform compiler version, or ""
// for stories not built by Inform.
func (m *Memory) InformVersion() string {
	v := m.buf[hdrInformVersion : hdrInformVersion+4]
	for _, b := range v {
		if b < 0x20 || b > 0x7e {
			return ""
		}
	}
	return string(v)
}

// FileLength returns the story length in bytes, scaling the header word by
// the version's length unit.
func (m *Memory) FileLength() uint32 {
	raw := uint32(m.mustWord(hdrFileLength))
	switch {
	case m.Version() <= 3:
		return raw * 2
	case m.Version() <= 5:
		return raw * 4
	default:
		return raw * 8
	}
}

// Checksum returns the header checksum word.
func (m *Memory) Checksum() Word {
	return m.mustWord(hdrChecksum)
}

// VerifyChecksum sums the bytes from 0x40 to the header file length and
// compares against the header checksum.
func (m *Memory) VerifyChecksum() bool {
	end := m.FileLength()
	if end > uint32(len(m.buf)) {
		end = uint32(len(m.buf))
	}
	var sum Word
	for _, b := range m.buf[headerSize:end] {
		sum += Word(b)
	}
	return sum == m.Checksum()
}

// ---------------------------------------------------------------------------
// Packed addresses
// ---------------------------------------------------------------------------

// UnpackRoutine converts a packed routine address to a byte address.
func (m *Memory) UnpackRoutine(packed Word) uint32 {
	switch m.Version() {
	case 1, 2, 3:
		return uint32(packed) * 2
	case 4, 5:
		return uint32(packed) * 4
	case 6, 7:
		return uint32(packed)*4 + 8*uint32(m.mustWord(hdrRoutineOffset))
	default:
		return uint32(packed) * 8
	}
}

// UnpackString converts a packed string address to a byte address.
func (m *Memory) UnpackString(packed Word) uint32 {
	switch m.Version() {
	case 1, 2, 3:
		return uint32(packed) * 2
	case 4, 5:
		return uint32(packed) * 4
	case 6, 7:
		return uint32(packed)*4 + 8*uint32(m.mustWord(hdrStringOffset))
	default:
		return uint32(packed) * 8
	}
}

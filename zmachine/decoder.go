package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Decoder: reads one Instruction at the cursor's current address
// ---------------------------------------------------------------------------

// Decoder reads instructions from story memory through a Reader, memoizing
// results in a Cache. Code memory is immutable by contract, so a cached
// instruction never goes stale.
type Decoder struct {
	reader  *Reader
	version byte
	cache   *Cache
}

// NewDecoder creates a decoder over mem backed by cache.
func NewDecoder(mem *Memory, cache *Cache) *Decoder {
	return &Decoder{
		reader:  NewReader(mem, 0),
		version: mem.Version(),
		cache:   cache,
	}
}

// Reader exposes the decoder's cursor so callers can position it.
func (d *Decoder) Reader() *Reader {
	return d.reader
}

// NextInstruction decodes the instruction at the cursor's current address and
// advances the cursor past it. Cache hits skip the decode entirely.
func (d *Decoder) NextInstruction() (*Instruction, error) {
	start := d.reader.Addr()
	if in := d.cache.Get(start); in != nil {
		d.reader.Seek(in.Next())
		return in, nil
	}

	in, err := d.decode(start)
	if err != nil {
		return nil, err
	}
	d.cache.Put(in)
	return in, nil
}

func (d *Decoder) decode(start uint32) (*Instruction, error) {
	b, err := d.reader.NextByte()
	if err != nil {
		return nil, err
	}

	var (
		kind   OpKind
		number uint8
		kinds  [8]OperandKind
		nKinds int
	)

	switch {
	case b < 0x80:
		// Long form: bits 6 and 5 pick small-constant vs variable per operand.
		kind = TwoOp
		number = b & 0x1f
		kinds[0] = longOperandKind(b & 0x40)
		kinds[1] = longOperandKind(b & 0x20)
		nKinds = 2

	case b < 0xb0:
		// Short form, 1OP: bits 5-4 give the single operand kind.
		kind = OneOp
		number = b & 0x0f
		kinds[0] = OperandKind((b >> 4) & 0x03)
		nKinds = 1

	case b == 0xbe:
		// Extended: opcode number in the next byte, then a kinds byte.
		kind = Ext
		n, err := d.reader.NextByte()
		if err != nil {
			return nil, err
		}
		number = n

	case b < 0xc0:
		// Short form, 0OP.
		kind = ZeroOp
		number = b & 0x0f

	case b < 0xe0:
		// Variable form encoding a 2OP.
		kind = TwoOp
		number = b & 0x1f

	default:
		kind = VarOp
		number = b & 0x1f
	}

	op, err := LookupOpcode(d.version, kind, number)
	if err != nil {
		return nil, fmt.Errorf("%w at %#x: %v", ErrDecode, start, err)
	}

	// Forms without fixed operand kinds read one kinds byte, or two for the
	// double-variable calls.
	if kind == Ext || b >= 0xc0 {
		nBytes := 1
		if op.DoubleVariable {
			nBytes = 2
		}
		nKinds, err = d.readKindBytes(&kinds, nBytes)
		if err != nil {
			return nil, err
		}
	}

	in := &Instruction{Address: start, Opcode: op}
	for i := 0; i < nKinds; i++ {
		operand, err := d.readOperand(kinds[i])
		if err != nil {
			return nil, err
		}
		in.Operands[i] = operand
	}
	in.NumOperands = nKinds

	if op.HasStore {
		in.Store, err = d.reader.NextVariable()
		if err != nil {
			return nil, err
		}
	}
	if op.HasBranch {
		in.Branch, err = d.reader.NextBranch()
		if err != nil {
			return nil, err
		}
	}
	if op.HasZText {
		in.ZText, err = d.reader.NextZWords()
		if err != nil {
			return nil, err
		}
	}

	in.Length = d.reader.Addr() - start
	return in, nil
}

// longOperandKind maps a long-form kind bit: clear means small constant, set
// means variable.
func longOperandKind(bit byte) OperandKind {
	if bit != 0 {
		return OperandVariable
	}
	return OperandSmall
}

// readKindBytes decodes one or two operand-kind bytes into kinds, four 2-bit
// fields per byte, high to low, halting at the first Omitted.
func (d *Decoder) readKindBytes(kinds *[8]OperandKind, nBytes int) (int, error) {
	n := 0
	for i := 0; i < nBytes; i++ {
		kb, err := d.reader.NextByte()
		if err != nil {
			return 0, err
		}
		for shift := 6; shift >= 0; shift -= 2 {
			k := OperandKind((kb >> shift) & 0x03)
			if k == OperandOmitted {
				return n, nil
			}
			kinds[n] = k
			n++
		}
	}
	return n, nil
}

func (d *Decoder) readOperand(kind OperandKind) (Operand, error) {
	switch kind {
	case OperandLarge:
		w, err := d.reader.NextWord()
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: OperandLarge, Raw: w}, nil
	default:
		b, err := d.reader.NextByte()
		if err != nil {
			return Operand{}, err
		}
		return Operand{Kind: kind, Raw: Word(b)}, nil
	}
}

package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Variable: stack / local / global reference
// ---------------------------------------------------------------------------

// VariableKind discriminates the three variable namespaces.
type VariableKind uint8

const (
	VarStack  VariableKind = iota // top of the current frame's eval stack
	VarLocal                      // locals 0..14 (wire 0x01..0x0f)
	VarGlobal                     // globals 0..239 (wire 0x10..0xff)
)

// Variable identifies a stack slot, local, or global. Index is meaningless
// for VarStack; for locals and globals it is the zero-based index, not the
// wire encoding.
type Variable struct {
	Kind  VariableKind
	Index uint8
}

// DecodeVariable maps the on-wire variable byte to a Variable.
func DecodeVariable(b byte) Variable {
	switch {
	case b == 0x00:
		return Variable{Kind: VarStack}
	case b < 0x10:
		return Variable{Kind: VarLocal, Index: b - 1}
	default:
		return Variable{Kind: VarGlobal, Index: b - 0x10}
	}
}

// Wire returns the on-wire encoding of the variable.
func (v Variable) Wire() byte {
	switch v.Kind {
	case VarStack:
		return 0x00
	case VarLocal:
		return v.Index + 1
	default:
		return v.Index + 0x10
	}
}

func (v Variable) String() string {
	switch v.Kind {
	case VarStack:
		return "sp"
	case VarLocal:
		return fmt.Sprintf("local%d", v.Index)
	default:
		return fmt.Sprintf("g%d", v.Index)
	}
}

// ---------------------------------------------------------------------------
// Operand
// ---------------------------------------------------------------------------

// OperandKind is the 2-bit operand kind field from the instruction stream.
type OperandKind uint8

const (
	OperandLarge    OperandKind = 0 // 16-bit word
	OperandSmall    OperandKind = 1 // 8-bit byte, zero-extended
	OperandVariable OperandKind = 2 // byte holding a variable wire encoding
	OperandOmitted  OperandKind = 3 // terminates the operand list
)

// Operand is a decoded instruction operand: its kind plus the raw bits read
// from the instruction stream. Variable operands are resolved at execution
// time against the current frame.
type Operand struct {
	Kind OperandKind
	Raw  Word
}

// Variable decodes the operand's raw byte as a variable reference. Only
// meaningful for OperandVariable operands.
func (o Operand) Variable() Variable {
	return DecodeVariable(byte(o.Raw))
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandLarge:
		return fmt.Sprintf("%#04x", uint16(o.Raw))
	case OperandSmall:
		return fmt.Sprintf("%#02x", uint16(o.Raw))
	case OperandVariable:
		return o.Variable().String()
	default:
		return "omitted"
	}
}

// ---------------------------------------------------------------------------
// Branch
// ---------------------------------------------------------------------------

// BranchKind discriminates a branch target.
type BranchKind uint8

const (
	BranchAddress     BranchKind = iota // jump by Offset
	BranchReturnTrue                    // on-wire offset 1
	BranchReturnFalse                   // on-wire offset 0
)

// Branch is a decoded branch field. The branch is taken iff the opcode's
// predicate evaluates equal to Condition. Address targets use
// pc + Offset - 2, where pc is the address after the instruction.
type Branch struct {
	Condition bool
	Kind      BranchKind
	Offset    int16
}

func (b Branch) String() string {
	cond := "~"
	if b.Condition {
		cond = ""
	}
	switch b.Kind {
	case BranchReturnTrue:
		return cond + "rtrue"
	case BranchReturnFalse:
		return cond + "rfalse"
	default:
		return fmt.Sprintf("%s%+d", cond, b.Offset)
	}
}

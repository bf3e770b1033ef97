package zmachine

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Instruction: one decoded Z-machine instruction
// ---------------------------------------------------------------------------

// Instruction is the immutable result of decoding at one address. Length is
// the exact byte count from Address through the last field (operands, store
// variable, branch, and inline Z-text inclusive). Operands live in a fixed
// inline array of 8, the maximum a double-variable opcode can carry.
type Instruction struct {
	Address uint32
	Length  uint32
	Opcode  *Opcode

	NumOperands int
	Operands    [8]Operand

	Store  Variable // valid iff Opcode.HasStore
	Branch Branch   // valid iff Opcode.HasBranch
	ZText  []Word   // non-nil iff Opcode.HasZText
}

// Operand returns the i'th decoded operand.
func (in *Instruction) Operand(i int) Operand {
	return in.Operands[i]
}

// Next returns the address of the instruction following this one.
func (in *Instruction) Next() uint32 {
	return in.Address + in.Length
}

func (in *Instruction) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%06x: %s", in.Address, in.Opcode.Name)
	for i := 0; i < in.NumOperands; i++ {
		sb.WriteByte(' ')
		sb.WriteString(in.Operands[i].String())
	}
	if in.Opcode.HasStore {
		fmt.Fprintf(&sb, " -> %s", in.Store)
	}
	if in.Opcode.HasBranch {
		fmt.Fprintf(&sb, " ?%s", in.Branch)
	}
	return sb.String()
}

package zmachine

// ---------------------------------------------------------------------------
// Branch, call, return, and data-movement opcodes
// ---------------------------------------------------------------------------

// opJe branches iff the first operand equals any later one. All operands
// evaluate, left to right; short-circuiting would skip stack pops.
func opJe(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	result := false
	for _, v := range vals[1:] {
		if v == vals[0] {
			result = true
		}
	}
	return ctx.TakeBranch(in.Branch, result)
}

func opJl(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, vals[0].Signed() < vals[1].Signed())
}

func opJg(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, vals[0].Signed() > vals[1].Signed())
}

func opJz(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, vals[0] == 0)
}

// opTest branches iff all bits of the second operand are set in the first.
func opTest(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, vals[0]&vals[1] == vals[1])
}

func opJump(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	ctx.Jump(vals[0].Signed())
	return nil
}

// opCall serves every call_* opcode; the metadata decides store presence
// and operand width.
func opCall(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	var store *Variable
	if in.Opcode.HasStore {
		s := in.Store
		store = &s
	}
	return ctx.Call(vals[0], vals[1:], store)
}

func opRet(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Return(vals[0])
}

func opRTrue(ctx ExecutionContext, _ *Instruction) error {
	return ctx.Return(One)
}

func opRFalse(ctx ExecutionContext, _ *Instruction) error {
	return ctx.Return(Zero)
}

func opRetPopped(ctx ExecutionContext, _ *Instruction) error {
	v, err := ctx.ReadVariable(Variable{Kind: VarStack})
	if err != nil {
		return err
	}
	return ctx.Return(v)
}

func opCheckArgCount(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, int(vals[0]) <= ctx.ArgumentCount())
}

// ---------------------------------------------------------------------------
// Stack and variable movement
// ---------------------------------------------------------------------------

func opPush(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.WriteVariable(Variable{Kind: VarStack}, vals[0])
}

// opPull pops the stack into a variable named by reference (v6 stores the
// value instead).
func opPull(ctx ExecutionContext, in *Instruction) error {
	v, err := ctx.ReadVariable(Variable{Kind: VarStack})
	if err != nil {
		return err
	}
	if in.Opcode.HasStore {
		return storeResult(ctx, in, v)
	}
	if err := needOperands(in, 1); err != nil {
		return err
	}
	target, err := ctx.OperandValue(in.Operands[0])
	if err != nil {
		return err
	}
	return ctx.WriteVariableIndirect(DecodeVariable(byte(target)), v)
}

func opPop(ctx ExecutionContext, _ *Instruction) error {
	_, err := ctx.ReadVariable(Variable{Kind: VarStack})
	return err
}

// opStore writes a value to a variable named by reference.
func opStore(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.WriteVariableIndirect(DecodeVariable(byte(vals[0])), vals[1])
}

// opLoad reads a variable named by reference, without popping the stack.
func opLoad(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	v, err := ctx.ReadVariableIndirect(DecodeVariable(byte(vals[0])))
	if err != nil {
		return err
	}
	return storeResult(ctx, in, v)
}

// ---------------------------------------------------------------------------
// Memory loads and stores
// ---------------------------------------------------------------------------

func opLoadW(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	w, err := ctx.ReadWord(uint32(vals[0]) + 2*uint32(vals[1]))
	if err != nil {
		return err
	}
	return storeResult(ctx, in, w)
}

func opLoadB(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	b, err := ctx.ReadByte(uint32(vals[0]) + uint32(vals[1]))
	if err != nil {
		return err
	}
	return storeResult(ctx, in, Word(b))
}

func opStoreW(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 3); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.WriteWord(uint32(vals[0])+2*uint32(vals[1]), vals[2])
}

func opStoreB(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 3); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.WriteByte(uint32(vals[0])+uint32(vals[1]), byte(vals[2]))
}

// ---------------------------------------------------------------------------
// Table operations
// ---------------------------------------------------------------------------

// opScanTable searches a table for a value, storing the match address and
// branching on success. The optional form byte selects word or byte entries
// and the entry stride.
func opScanTable(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 3); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	form := byte(0x82)
	if in.NumOperands >= 4 {
		form = byte(vals[3])
	}
	words := form&0x80 != 0
	stride := uint32(form & 0x7f)
	if stride == 0 {
		stride = 1
	}

	addr := uint32(vals[1])
	target := vals[0]
	for i := Word(0); i < vals[2]; i++ {
		var got Word
		if words {
			w, err := ctx.ReadWord(addr)
			if err != nil {
				return err
			}
			got = w
		} else {
			b, err := ctx.ReadByte(addr)
			if err != nil {
				return err
			}
			got = Word(b)
		}
		if got == target {
			if err := storeResult(ctx, in, Word(addr)); err != nil {
				return err
			}
			return ctx.TakeBranch(in.Branch, true)
		}
		addr += stride
	}
	if err := storeResult(ctx, in, Zero); err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, false)
}

// opCopyTable copies or zeroes a range. A zero destination zeroes the
// source; a negative size forces a forward copy even when ranges overlap.
func opCopyTable(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 3); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	first := uint32(vals[0])
	second := uint32(vals[1])
	size := int(vals[2].Signed())

	n := size
	if n < 0 {
		n = -n
	}

	if second == 0 {
		for i := 0; i < n; i++ {
			if err := ctx.WriteByte(first+uint32(i), 0); err != nil {
				return err
			}
		}
		return nil
	}

	backward := size > 0 && second > first && second < first+uint32(n)
	if backward {
		for i := n - 1; i >= 0; i-- {
			b, err := ctx.ReadByte(first + uint32(i))
			if err != nil {
				return err
			}
			if err := ctx.WriteByte(second+uint32(i), b); err != nil {
				return err
			}
		}
		return nil
	}
	for i := 0; i < n; i++ {
		b, err := ctx.ReadByte(first + uint32(i))
		if err != nil {
			return err
		}
		if err := ctx.WriteByte(second+uint32(i), b); err != nil {
			return err
		}
	}
	return nil
}

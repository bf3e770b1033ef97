package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Arithmetic, bitwise, and shift opcodes
// ---------------------------------------------------------------------------

// binaryOp evaluates both operands and stores f's signed result, truncated
// to 16 bits.
func binaryOp(ctx ExecutionContext, in *Instruction, f func(a, b int16) (int, error)) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	result, err := f(vals[0].Signed(), vals[1].Signed())
	if err != nil {
		return err
	}
	return storeResult(ctx, in, FromSigned(result))
}

func opAdd(ctx ExecutionContext, in *Instruction) error {
	return binaryOp(ctx, in, func(a, b int16) (int, error) { return int(a) + int(b), nil })
}

func opSub(ctx ExecutionContext, in *Instruction) error {
	return binaryOp(ctx, in, func(a, b int16) (int, error) { return int(a) - int(b), nil })
}

func opMul(ctx ExecutionContext, in *Instruction) error {
	return binaryOp(ctx, in, func(a, b int16) (int, error) { return int(a) * int(b), nil })
}

// Division and remainder truncate toward zero, which is Go's native
// behavior for signed integers.
func opDiv(ctx ExecutionContext, in *Instruction) error {
	return binaryOp(ctx, in, func(a, b int16) (int, error) {
		if b == 0 {
			return 0, fmt.Errorf("%w: div", ErrDivisionByZero)
		}
		return int(a) / int(b), nil
	})
}

func opMod(ctx ExecutionContext, in *Instruction) error {
	return binaryOp(ctx, in, func(a, b int16) (int, error) {
		if b == 0 {
			return 0, fmt.Errorf("%w: mod", ErrDivisionByZero)
		}
		return int(a) % int(b), nil
	})
}

func opOr(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return storeResult(ctx, in, vals[0]|vals[1])
}

func opAnd(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return storeResult(ctx, in, vals[0]&vals[1])
}

func opNot(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return storeResult(ctx, in, ^vals[0])
}

// opLogShift shifts left for positive places, logically right for negative.
func opLogShift(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	places := vals[1].Signed()
	switch {
	case places >= 0:
		return storeResult(ctx, in, vals[0]<<uint(places))
	default:
		return storeResult(ctx, in, vals[0]>>uint(-places))
	}
}

// opArtShift is the arithmetic variant: right shifts extend the sign.
func opArtShift(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	places := vals[1].Signed()
	switch {
	case places >= 0:
		return storeResult(ctx, in, FromSigned(int(vals[0].Signed())<<uint(places)))
	default:
		return storeResult(ctx, in, FromSigned(int(vals[0].Signed())>>uint(-places)))
	}
}

// ---------------------------------------------------------------------------
// Increment/decrement family: the operand names a variable by reference
// ---------------------------------------------------------------------------

// addToVariable adjusts a variable named by reference. Indirect access
// rules apply: a stack reference peeks and overwrites the top.
func addToVariable(ctx ExecutionContext, v Variable, delta int) (Word, error) {
	old, err := ctx.ReadVariableIndirect(v)
	if err != nil {
		return 0, err
	}
	updated := FromSigned(int(old.Signed()) + delta)
	return updated, ctx.WriteVariableIndirect(v, updated)
}

func opInc(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	_, err = addToVariable(ctx, DecodeVariable(byte(vals[0])), 1)
	return err
}

func opDec(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	_, err = addToVariable(ctx, DecodeVariable(byte(vals[0])), -1)
	return err
}

// opIncChk increments the referenced variable, branching if it exceeds the
// comparison value.
func opIncChk(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	updated, err := addToVariable(ctx, DecodeVariable(byte(vals[0])), 1)
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, updated.Signed() > vals[1].Signed())
}

func opDecChk(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	updated, err := addToVariable(ctx, DecodeVariable(byte(vals[0])), -1)
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, updated.Signed() < vals[1].Signed())
}

package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Handler plumbing and miscellaneous opcodes
// ---------------------------------------------------------------------------

// operandValues resolves every operand left to right. Stack reads pop, so
// the order is part of the machine's observable behavior.
func operandValues(ctx ExecutionContext, in *Instruction) ([]Word, error) {
	vals := make([]Word, in.NumOperands)
	for i := 0; i < in.NumOperands; i++ {
		v, err := ctx.OperandValue(in.Operands[i])
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

// storeResult delivers a result to the instruction's store variable, when
// the opcode has one.
func storeResult(ctx ExecutionContext, in *Instruction, w Word) error {
	if !in.Opcode.HasStore {
		return nil
	}
	return ctx.WriteVariable(in.Store, w)
}

// needOperands rejects instructions whose story encoded too few operands.
func needOperands(in *Instruction, n int) error {
	if in.NumOperands < n {
		return fmt.Errorf("%w: %s needs %d operands, has %d",
			ErrDecode, in.Opcode.Name, n, in.NumOperands)
	}
	return nil
}

func opNop(ExecutionContext, *Instruction) error {
	return nil
}

func opQuit(ctx ExecutionContext, _ *Instruction) error {
	ctx.Quit()
	return nil
}

func opRestart(ctx ExecutionContext, _ *Instruction) error {
	return ctx.Restart()
}

func opVerify(ctx ExecutionContext, in *Instruction) error {
	return ctx.TakeBranch(in.Branch, ctx.VerifyChecksum())
}

// opPiracy branches on "genuine", which this interpreter always is.
func opPiracy(ctx ExecutionContext, in *Instruction) error {
	return ctx.TakeBranch(in.Branch, true)
}

// opSave and opRestore cover every version's encoding (branch through v3,
// store from v4, EXT forms in v5+). Persistence is out of scope, so both
// report failure in the version's idiom.
func opSave(ctx ExecutionContext, in *Instruction) error {
	if in.Opcode.HasBranch {
		return ctx.TakeBranch(in.Branch, false)
	}
	return storeResult(ctx, in, Zero)
}

func opRestore(ctx ExecutionContext, in *Instruction) error {
	if in.Opcode.HasBranch {
		return ctx.TakeBranch(in.Branch, false)
	}
	return storeResult(ctx, in, Zero)
}

// opSaveUndo stores -1: the interpreter does not provide undo.
func opSaveUndo(ctx ExecutionContext, in *Instruction) error {
	return storeResult(ctx, in, FromSigned(-1))
}

func opRestoreUndo(ctx ExecutionContext, in *Instruction) error {
	return storeResult(ctx, in, Zero)
}

func opRandom(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	r := vals[0].Signed()
	if r > 0 {
		return storeResult(ctx, in, ctx.NextRandom(r))
	}
	// Non-positive ranges reseed: negative deterministically, zero from
	// entropy. The result is always 0.
	ctx.Randomize(-int64(r))
	return storeResult(ctx, in, Zero)
}

func opCatch(ctx ExecutionContext, in *Instruction) error {
	return storeResult(ctx, in, Word(ctx.CallDepth()))
}

func opThrow(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.ThrowTo(vals[1], vals[0])
}

package zmachine

// ---------------------------------------------------------------------------
// Object tree and property opcodes
// ---------------------------------------------------------------------------

func opJin(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	// jin with object 0 compares against the null object's absent parent.
	if vals[0] == 0 {
		return ctx.TakeBranch(in.Branch, vals[1] == 0)
	}
	parent, err := ctx.Objects().Parent(vals[0])
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, parent == vals[1])
}

func opTestAttr(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	set, err := ctx.Objects().TestAttr(vals[0], vals[1])
	if err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, set)
}

func opSetAttr(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Objects().SetAttr(vals[0], vals[1])
}

func opClearAttr(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Objects().ClearAttr(vals[0], vals[1])
}

func opInsertObj(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Objects().Insert(vals[0], vals[1])
}

func opRemoveObj(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Objects().Remove(vals[0])
}

func opGetParent(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	parent, err := ctx.Objects().Parent(vals[0])
	if err != nil {
		return err
	}
	return storeResult(ctx, in, parent)
}

// opGetSibling and opGetChild store the link, then branch on it being a
// real object.
func opGetSibling(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	sibling, err := ctx.Objects().Sibling(vals[0])
	if err != nil {
		return err
	}
	if err := storeResult(ctx, in, sibling); err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, sibling != 0)
}

func opGetChild(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	child, err := ctx.Objects().Child(vals[0])
	if err != nil {
		return err
	}
	if err := storeResult(ctx, in, child); err != nil {
		return err
	}
	return ctx.TakeBranch(in.Branch, child != 0)
}

func opGetProp(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	value, err := ctx.Objects().GetProp(vals[0], vals[1])
	if err != nil {
		return err
	}
	return storeResult(ctx, in, value)
}

func opPutProp(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 3); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	return ctx.Objects().PutProp(vals[0], vals[1], vals[2])
}

func opGetPropAddr(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	addr, err := ctx.Objects().GetPropAddr(vals[0], vals[1])
	if err != nil {
		return err
	}
	return storeResult(ctx, in, addr)
}

func opGetPropLen(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	length, err := ctx.Objects().GetPropLen(vals[0])
	if err != nil {
		return err
	}
	return storeResult(ctx, in, length)
}

func opGetNextProp(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	next, err := ctx.Objects().NextProp(vals[0], vals[1])
	if err != nil {
		return err
	}
	return storeResult(ctx, in, next)
}

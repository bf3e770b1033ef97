package zmachine

// ---------------------------------------------------------------------------
// Screen and output-control opcodes
// ---------------------------------------------------------------------------

func opSplitWindow(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	if s := ctx.Screen(); s != nil {
		if vals[0] == 0 {
			s.Unsplit()
		} else {
			s.Split(int(vals[0]))
		}
	}
	return nil
}

func opSetWindow(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	if s := ctx.Screen(); s != nil {
		s.SetWindow(int(vals[0]))
	}
	return nil
}

// opEraseWindow clears a window; -1 clears the whole screen and unsplits,
// -2 clears without unsplitting.
func opEraseWindow(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	s := ctx.Screen()
	if s == nil {
		return nil
	}
	switch vals[0].Signed() {
	case -1:
		s.ClearAll(true)
	case -2:
		s.ClearAll(false)
	default:
		s.Clear(int(vals[0]))
	}
	return nil
}

// opEraseLine needs cursor introspection the Screen capability does not
// expose; stories tolerate it doing nothing.
func opEraseLine(ctx ExecutionContext, in *Instruction) error {
	_, err := operandValues(ctx, in)
	return err
}

func opSetCursor(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	if s := ctx.Screen(); s != nil {
		s.SetCursor(int(vals[0]), int(vals[1]))
	}
	return nil
}

// opGetCursor writes the cursor position into a word array. The capability
// cannot be queried, so the home position is reported.
func opGetCursor(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	if err := ctx.WriteWord(uint32(vals[0]), One); err != nil {
		return err
	}
	return ctx.WriteWord(uint32(vals[0])+2, One)
}

func opSetTextStyle(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	if s := ctx.Screen(); s != nil {
		s.SetTextStyle(int(vals[0]))
	}
	return nil
}

func opSetColour(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	if s := ctx.Screen(); s != nil && s.SupportsColors() {
		s.SetForegroundColor(int(vals[0]))
		s.SetBackgroundColor(int(vals[1]))
	}
	return nil
}

// opSetFont reports font 1 as the previous font and accepts any request;
// font rendering belongs to the host.
func opSetFont(ctx ExecutionContext, in *Instruction) error {
	if _, err := operandValues(ctx, in); err != nil {
		return err
	}
	return storeResult(ctx, in, One)
}

func opBufferMode(ctx ExecutionContext, in *Instruction) error {
	_, err := operandValues(ctx, in)
	return err
}

func opOutputStream(ctx ExecutionContext, in *Instruction) error {
	// Output streams 2-4 (transcript, memory, commands) are out of scope;
	// stream 1 is always selected.
	_, err := operandValues(ctx, in)
	return err
}

func opInputStream(ctx ExecutionContext, in *Instruction) error {
	_, err := operandValues(ctx, in)
	return err
}

func opSoundEffect(ctx ExecutionContext, in *Instruction) error {
	_, err := operandValues(ctx, in)
	return err
}

// opShowStatus redraws the status line from the location, score, and turn
// globals.
func opShowStatus(ctx ExecutionContext, _ *Instruction) error {
	return showStatus(ctx)
}

func showStatus(ctx ExecutionContext) error {
	s := ctx.Screen()
	if s == nil {
		return nil
	}
	location, err := ctx.ReadVariable(Variable{Kind: VarGlobal, Index: 0})
	if err != nil {
		return err
	}
	var name string
	if location != 0 {
		if name, err = ctx.Objects().Name(location); err != nil {
			return err
		}
	}
	score, err := ctx.ReadVariable(Variable{Kind: VarGlobal, Index: 1})
	if err != nil {
		return err
	}
	turns, err := ctx.ReadVariable(Variable{Kind: VarGlobal, Index: 2})
	if err != nil {
		return err
	}
	s.ShowStatus(name, int(score.Signed()), int(turns.Signed()))
	return nil
}

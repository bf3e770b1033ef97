package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Frame: per-call activation record
// ---------------------------------------------------------------------------

// Frame holds one routine call's locals, argument count, return address,
// store target, and evaluation stack. The bottom frame represents main and
// has no return address or store target.
type Frame struct {
	RoutineAddress uint32
	Arguments      []Word
	Locals         []Word

	ReturnAddress uint32
	HasReturn     bool

	StoreVariable Variable
	HasStore      bool

	stack []Word
}

// NewFrame creates a frame with the given initial locals.
func NewFrame(routine uint32, args []Word, locals []Word) *Frame {
	return &Frame{
		RoutineAddress: routine,
		Arguments:      args,
		Locals:         locals,
	}
}

// ArgumentCount returns the number of arguments the routine was called with.
func (f *Frame) ArgumentCount() int {
	return len(f.Arguments)
}

// Local reads local i.
func (f *Frame) Local(i int) (Word, error) {
	if i < 0 || i >= len(f.Locals) {
		return 0, fmt.Errorf("%w: local %d of %d", ErrLocalOutOfRange, i, len(f.Locals))
	}
	return f.Locals[i], nil
}

// SetLocal assigns local i.
func (f *Frame) SetLocal(i int, w Word) error {
	if i < 0 || i >= len(f.Locals) {
		return fmt.Errorf("%w: local %d of %d", ErrLocalOutOfRange, i, len(f.Locals))
	}
	f.Locals[i] = w
	return nil
}

// Push appends to the frame's evaluation stack.
func (f *Frame) Push(w Word) {
	f.stack = append(f.stack, w)
}

// Pop removes and returns the top of the evaluation stack.
func (f *Frame) Pop() (Word, error) {
	if len(f.stack) == 0 {
		return 0, fmt.Errorf("%w: eval stack empty", ErrStackUnderflow)
	}
	w := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return w, nil
}

// Peek returns the top of the evaluation stack without popping.
func (f *Frame) Peek() (Word, error) {
	if len(f.stack) == 0 {
		return 0, fmt.Errorf("%w: eval stack empty", ErrStackUnderflow)
	}
	return f.stack[len(f.stack)-1], nil
}

// StackDepth returns the evaluation stack depth.
func (f *Frame) StackDepth() int {
	return len(f.stack)
}

// EvalStack returns a copy of the evaluation stack, bottom first. Debugger
// and trace consumers use this; the live slice stays private.
func (f *Frame) EvalStack() []Word {
	out := make([]Word, len(f.stack))
	copy(out, f.stack)
	return out
}

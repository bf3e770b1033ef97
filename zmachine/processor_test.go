package zmachine

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Execution scenarios
// ---------------------------------------------------------------------------

func TestAddWrapsSignedOverflow(t *testing.T) {
	// add -32768, -1 -> local0
	code := []byte{0xd4, 0x0f, 0x80, 0x00, 0xff, 0xff, 0x01}
	p := testProcessor(t, 5, code, 1)

	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	local, err := p.CurrentFrame().Local(0)
	if err != nil {
		t.Fatal(err)
	}
	if local != 0x7fff {
		t.Errorf("local0 = %#x, want 0x7fff", uint16(local))
	}
	if p.PC() != testCode+7 {
		t.Errorf("PC = %#x, want %#x", p.PC(), testCode+7)
	}
}

func TestJePopsOnceAndBranches(t *testing.T) {
	// je sp, 1, 2, 3 with branch-on-true offset 5
	code := []byte{0xc1, 0x95, 0x00, 0x01, 0x02, 0x03, 0xc5}
	p := testProcessor(t, 5, code, 0)
	p.CurrentFrame().Push(2)

	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if depth := p.CurrentFrame().StackDepth(); depth != 0 {
		t.Errorf("stack depth = %d, want 0 (one pop)", depth)
	}
	want := uint32(testCode + 7 + 5 - 2)
	if p.PC() != want {
		t.Errorf("PC = %#x, want %#x", p.PC(), want)
	}
}

func TestJeBranchNotTaken(t *testing.T) {
	code := []byte{0xc1, 0x95, 0x00, 0x01, 0x05, 0x03, 0xc5}
	p := testProcessor(t, 5, code, 0)
	p.CurrentFrame().Push(2)

	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if p.PC() != testCode+7 {
		t.Errorf("PC = %#x, want fall-through %#x", p.PC(), testCode+7)
	}
}

func TestCallAddressZeroStoresZero(t *testing.T) {
	// call_vs 0 -> sp
	code := []byte{0xe0, 0x3f, 0x00, 0x00, 0x00}
	p := testProcessor(t, 5, code, 0)

	if err := p.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if p.CallDepth() != 1 {
		t.Errorf("CallDepth = %d, want 1 (no frame pushed)", p.CallDepth())
	}
	top, err := p.CurrentFrame().Peek()
	if err != nil {
		t.Fatal(err)
	}
	if top != Zero {
		t.Errorf("stack top = %d, want 0", top)
	}
	if p.PC() != testCode+5 {
		t.Errorf("PC = %#x, want %#x", p.PC(), testCode+5)
	}
}

func TestNestedCallAndRetPopped(t *testing.T) {
	code := make([]byte, 0x110)
	// call_vs 0x140 (= byte address 0x500), 7, 8 -> g0
	copy(code, []byte{0xe0, 0x17, 0x01, 0x40, 0x07, 0x08, 0x10})
	// Routine at 0x500: two locals, then: add local0, local1 -> sp; ret_popped
	copy(code[0x100:], []byte{0x02, 0x74, 0x01, 0x02, 0x00, 0xb8})
	p := testProcessor(t, 5, code, 0)

	if err := p.Step(); err != nil {
		t.Fatalf("call step: %v", err)
	}
	if p.CallDepth() != 2 {
		t.Fatalf("CallDepth after call = %d, want 2", p.CallDepth())
	}
	if p.PC() != 0x501 {
		t.Fatalf("PC after call = %#x, want 0x501", p.PC())
	}
	frame := p.CurrentFrame()
	if frame.ArgumentCount() != 2 {
		t.Errorf("ArgumentCount = %d, want 2", frame.ArgumentCount())
	}
	if frame.Locals[0] != 7 || frame.Locals[1] != 8 {
		t.Errorf("locals = %v, want [7 8]", frame.Locals)
	}

	if err := p.Step(); err != nil {
		t.Fatalf("add step: %v", err)
	}
	if err := p.Step(); err != nil {
		t.Fatalf("ret_popped step: %v", err)
	}

	if p.CallDepth() != 1 {
		t.Errorf("CallDepth after return = %d, want 1", p.CallDepth())
	}
	if got := global(t, p.Memory(), 0); got != 15 {
		t.Errorf("g0 = %d, want 15", got)
	}
	if p.PC() != testCode+7 {
		t.Errorf("PC = %#x, want instruction after call %#x", p.PC(), testCode+7)
	}
}

func TestBranchReturnTrue(t *testing.T) {
	code := make([]byte, 0x110)
	// call_vs 0x140 -> g1
	copy(code, []byte{0xe0, 0x3f, 0x01, 0x40, 0x11})
	// Routine: no locals; jz 0 with on-wire branch offset 1 (return true)
	copy(code[0x100:], []byte{0x00, 0x80, 0x00, 0x00, 0xc1})
	p := testProcessor(t, 5, code, 0)

	if err := p.Step(); err != nil {
		t.Fatalf("call step: %v", err)
	}
	if err := p.Step(); err != nil {
		t.Fatalf("jz step: %v", err)
	}
	if p.CallDepth() != 1 {
		t.Errorf("CallDepth = %d, want 1", p.CallDepth())
	}
	if got := global(t, p.Memory(), 1); got != 1 {
		t.Errorf("g1 = %d, want 1", got)
	}
	if p.PC() != testCode+5 {
		t.Errorf("PC = %#x, want %#x", p.PC(), testCode+5)
	}
}

func TestExtraArgumentsAreDiscarded(t *testing.T) {
	code := make([]byte, 0x110)
	// call_vs 0x140, 7, 8 -> g0 onto a routine with one local
	copy(code, []byte{0xe0, 0x17, 0x01, 0x40, 0x07, 0x08, 0x10})
	copy(code[0x100:], []byte{0x01, 0xb0}) // one local; rtrue
	p := testProcessor(t, 5, code, 0)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	frame := p.CurrentFrame()
	if len(frame.Locals) != 1 || frame.Locals[0] != 7 {
		t.Errorf("locals = %v, want [7]", frame.Locals)
	}
	// But the argument count still reports what the caller passed.
	if frame.ArgumentCount() != 2 {
		t.Errorf("ArgumentCount = %d, want 2", frame.ArgumentCount())
	}
}

func TestCallV3ReadsInitialLocals(t *testing.T) {
	code := make([]byte, 0x110)
	// v3: call 0x280 (packed = byte/2 -> 0x500), one argument -> sp
	copy(code, []byte{0xe0, 0x1f, 0x02, 0x80, 0x2a, 0x00})
	// Routine: 2 locals with initial values 0x1111, 0x2222; then rtrue.
	copy(code[0x100:], []byte{0x02, 0x11, 0x11, 0x22, 0x22, 0xb0})
	p := testProcessor(t, 3, code, 0)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	frame := p.CurrentFrame()
	if frame.Locals[0] != 0x2a {
		t.Errorf("local0 = %#x, want argument 0x2a", uint16(frame.Locals[0]))
	}
	if frame.Locals[1] != 0x2222 {
		t.Errorf("local1 = %#x, want initial value 0x2222", uint16(frame.Locals[1]))
	}
	if p.PC() != 0x505 {
		t.Errorf("PC = %#x, want past the local initializers 0x505", p.PC())
	}
}

// ---------------------------------------------------------------------------
// Variable semantics
// ---------------------------------------------------------------------------

func TestStackReadsAreDestructive(t *testing.T) {
	// or sp, sp -> g0: both operands pop.
	code := []byte{0xc8, 0xaf, 0x00, 0x00, 0x10}
	p := testProcessor(t, 5, code, 0)
	p.CurrentFrame().Push(0x00f0)
	p.CurrentFrame().Push(0x000f)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	if depth := p.CurrentFrame().StackDepth(); depth != 0 {
		t.Errorf("stack depth = %d, want 0 (two pops)", depth)
	}
	if got := global(t, p.Memory(), 0); got != 0x00ff {
		t.Errorf("g0 = %#x, want 0x00ff", uint16(got))
	}
}

func TestLoadPeeksWithoutPopping(t *testing.T) {
	// load sp -> g0: indirect reference leaves the stack alone.
	code := []byte{0x9e, 0x00, 0x10}
	p := testProcessor(t, 5, code, 0)
	p.CurrentFrame().Push(0x1234)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	if depth := p.CurrentFrame().StackDepth(); depth != 1 {
		t.Errorf("stack depth = %d, want 1 (peek)", depth)
	}
	if got := global(t, p.Memory(), 0); got != 0x1234 {
		t.Errorf("g0 = %#x, want 0x1234", uint16(got))
	}
}

func TestStoreOverwritesStackTop(t *testing.T) {
	// store sp, 0x42: indirect write replaces the top.
	code := []byte{0x0d, 0x00, 0x42}
	p := testProcessor(t, 5, code, 0)
	p.CurrentFrame().Push(0x1111)
	p.CurrentFrame().Push(0x2222)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	if depth := p.CurrentFrame().StackDepth(); depth != 2 {
		t.Errorf("stack depth = %d, want 2", depth)
	}
	top, _ := p.CurrentFrame().Peek()
	if top != 0x42 {
		t.Errorf("top = %#x, want 0x42", uint16(top))
	}
}

func TestStackUnderflow(t *testing.T) {
	// jz sp with empty stack.
	code := []byte{0xa0, 0x00, 0xc1}
	p := testProcessor(t, 5, code, 0)

	err := p.Step()
	if !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("err = %v, want ErrStackUnderflow", err)
	}
	// The PC stays at the faulting instruction.
	if p.PC() != testCode {
		t.Errorf("PC = %#x, want %#x", p.PC(), testCode)
	}
	// A retry hits the same fault.
	if err := p.Step(); !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("retry err = %v, want ErrStackUnderflow", err)
	}
}

func TestLocalOutOfRange(t *testing.T) {
	// add local3, 1 -> sp in a frame with one local.
	code := []byte{0x54, 0x04, 0x01, 0x00}
	p := testProcessor(t, 5, code, 1)

	if err := p.Step(); !errors.Is(err, ErrLocalOutOfRange) {
		t.Errorf("err = %v, want ErrLocalOutOfRange", err)
	}
}

func TestDivisionByZero(t *testing.T) {
	code := []byte{0x17, 0x08, 0x00, 0x00} // div 8, 0 -> sp
	p := testProcessor(t, 5, code, 0)

	if err := p.Step(); !errors.Is(err, ErrDivisionByZero) {
		t.Errorf("err = %v, want ErrDivisionByZero", err)
	}
}

func TestReturnFromBottomFrame(t *testing.T) {
	code := []byte{0xb0} // rtrue in main
	p := testProcessor(t, 5, code, 0)

	if err := p.Step(); !errors.Is(err, ErrIllegalState) {
		t.Errorf("err = %v, want ErrIllegalState", err)
	}
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

type recordingListener struct {
	BaseListener
	events []string
}

func (r *recordingListener) Stepping(oldPC uint32) {
	r.events = append(r.events, "stepping")
}

func (r *recordingListener) Stepped(oldPC, newPC uint32) {
	if newPC == oldPC {
		r.events = append(r.events, "stepped-stuck")
		return
	}
	r.events = append(r.events, "stepped")
}

func (r *recordingListener) EnterFrame(old, new *Frame) {
	r.events = append(r.events, "enter")
}

func (r *recordingListener) ExitFrame(old, new *Frame) {
	r.events = append(r.events, "exit")
}

func (r *recordingListener) LocalChanged(index int, old, new Word) {
	r.events = append(r.events, "local")
}

func (r *recordingListener) Quit() {
	r.events = append(r.events, "quit")
}

func TestStepEvents(t *testing.T) {
	code := make([]byte, 0x110)
	copy(code, []byte{0xe0, 0x3f, 0x01, 0x40, 0x01}) // call_vs 0x140 -> local0
	copy(code[0x100:], []byte{0x00, 0xb0})           // rtrue
	p := testProcessor(t, 5, code, 1)
	rec := &recordingListener{}
	p.AddListener(rec)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	if err := p.Step(); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"stepping", "enter", "stepped",
		"stepping", "exit", "local", "stepped",
	}
	if len(rec.events) != len(want) {
		t.Fatalf("events = %v, want %v", rec.events, want)
	}
	for i := range want {
		if rec.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", rec.events, want)
		}
	}
}

func TestQuitEventAndHaltedState(t *testing.T) {
	code := []byte{0xba} // quit
	p := testProcessor(t, 5, code, 0)
	rec := &recordingListener{}
	p.AddListener(rec)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	if !p.Quitted() {
		t.Error("Quitted() = false after quit")
	}
	found := false
	for _, e := range rec.events {
		if e == "quit" {
			found = true
		}
	}
	if !found {
		t.Errorf("events = %v, want a quit event", rec.events)
	}
	if err := p.Step(); !errors.Is(err, ErrIllegalState) {
		t.Errorf("Step after quit: err = %v, want ErrIllegalState", err)
	}
}

// Every successful step moves the PC.
func TestStepsAdvancePC(t *testing.T) {
	code := make([]byte, 0x110)
	copy(code, []byte{
		0xd4, 0x0f, 0x00, 0x01, 0x00, 0x02, 0x00, // add 1,2 -> sp
		0xe0, 0x3f, 0x01, 0x40, 0x00, // call_vs 0x140 -> sp
	})
	copy(code[0x100:], []byte{0x00, 0xb1}) // rfalse
	p := testProcessor(t, 5, code, 0)

	for i := 0; i < 3; i++ {
		before := p.PC()
		if err := p.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if p.PC() == before {
			t.Fatalf("step %d did not advance the PC from %#x", i, before)
		}
	}
}

// ---------------------------------------------------------------------------
// Misc opcode semantics through the processor
// ---------------------------------------------------------------------------

func TestIncChkBranch(t *testing.T) {
	// inc_chk local0, 0 with branch-on-true offset 4; local0 starts at 0.
	code := []byte{0x05, 0x01, 0x00, 0xc4}
	p := testProcessor(t, 5, code, 1)

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	local, _ := p.CurrentFrame().Local(0)
	if local != 1 {
		t.Errorf("local0 = %d, want 1", local)
	}
	want := uint32(testCode + 4 + 4 - 2)
	if p.PC() != want {
		t.Errorf("PC = %#x, want branch target %#x", p.PC(), want)
	}
}

func TestJumpSignedOffset(t *testing.T) {
	// Put a jump at +0x10 so a negative offset stays in bounds.
	code := make([]byte, 0x20)
	// jump -8 (0xfff8)
	copy(code[0x10:], []byte{0x8c, 0xff, 0xf8})
	p := testProcessor(t, 5, code, 0)
	p.decoder.Reader().Seek(testCode + 0x10)
	p.pc = testCode + 0x10

	if err := p.Step(); err != nil {
		t.Fatal(err)
	}
	want := uint32(testCode + 0x10 + 3 - 8 - 2)
	if p.PC() != want {
		t.Errorf("PC = %#x, want %#x", p.PC(), want)
	}
}

func TestRandomDeterministicWhenSeeded(t *testing.T) {
	p := testProcessor(t, 5, []byte{0xb0}, 0)
	p.Randomize(1234)
	var first []Word
	for i := 0; i < 16; i++ {
		v := p.NextRandom(100)
		if v < 1 || v > 100 {
			t.Fatalf("NextRandom(100) = %d out of range", v)
		}
		first = append(first, v)
	}
	p.Randomize(1234)
	for i := 0; i < 16; i++ {
		if v := p.NextRandom(100); v != first[i] {
			t.Fatalf("reseeded sequence diverged at %d: %d != %d", i, v, first[i])
		}
	}
}

func TestThrowUnwindsToCatchFrame(t *testing.T) {
	code := make([]byte, 0x210)
	// main: call_vs 0x140 -> g0
	copy(code, []byte{0xe0, 0x3f, 0x01, 0x40, 0x10})
	// routine A at 0x500: catch -> local0 ; call_vs2... keep it simple:
	// catch -> local0; call_vn 0x180; rtrue
	copy(code[0x100:], []byte{
		0x01,             // one local
		0xb9, 0x01,       // catch -> local0
		0xf9, 0x3f, 0x01, 0x80, // call_vn 0x180
		0xb0, // rtrue (skipped by the throw)
	})
	// routine B at 0x600: throw 99, local0... B has no access to A's local;
	// use the stack: A pushes the catch token? Simpler: B throws to frame 2.
	copy(code[0x200:], []byte{
		0x00,             // no locals
		0x1c, 0x63, 0x02, // throw 99, 2 (long form 2OP:28, small,small)
	})
	p := testProcessor(t, 5, code, 0)

	for i := 0; i < 3; i++ { // call, catch, call_vn
		if err := p.Step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if p.CallDepth() != 3 {
		t.Fatalf("CallDepth = %d, want 3", p.CallDepth())
	}
	if err := p.Step(); err != nil { // throw
		t.Fatalf("throw: %v", err)
	}
	if p.CallDepth() != 1 {
		t.Errorf("CallDepth after throw = %d, want 1", p.CallDepth())
	}
	if got := global(t, p.Memory(), 0); got != 99 {
		t.Errorf("g0 = %d, want thrown value 99", got)
	}
}

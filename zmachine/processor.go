package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Processor: fetch-decode-execute over story memory
// ---------------------------------------------------------------------------

// Processor owns the program counter, call stack, instruction cache, and
// random generator for one story session. It is strictly single-threaded:
// Step runs to completion on the caller's goroutine, and all events fire on
// that control path.
type Processor struct {
	mem     *Memory
	objects *ObjectTable
	screen  Screen
	cache   *Cache
	decoder *Decoder
	rng     *Random

	pc      uint32
	frames  []*Frame
	current *Instruction

	listeners []Listener

	quitted bool

	// Input suspension. awaiting is set while a read opcode waits for the
	// screen's continuation; inStep distinguishes a synchronous continuation
	// (delivered inside Step) from an asynchronous resume.
	awaiting  bool
	inStep    bool
	stepOldPC uint32
	inputErr  error
}

// NewProcessor creates a processor for a loaded story, with the bottom frame
// at the header's initial PC.
func NewProcessor(mem *Memory) (*Processor, error) {
	p := &Processor{
		mem:     mem,
		objects: NewObjectTable(mem),
		cache:   NewCache(),
		rng:     NewRandom(),
	}
	p.decoder = NewDecoder(mem, p.cache)
	if err := p.reset(); err != nil {
		return nil, err
	}
	return p, nil
}

// reset installs the bottom frame and initial PC (used at creation and by
// restart).
func (p *Processor) reset() error {
	p.pc = p.mem.InitialPC()
	var locals []Word
	if p.mem.Version() == 6 {
		// The initial PC points past a routine header; the bottom frame
		// carries that routine's locals.
		count, err := p.mem.Byte(p.pc - 1)
		if err != nil {
			return err
		}
		if count > 15 {
			return fmt.Errorf("%w: main routine declares %d locals", ErrIllegalState, count)
		}
		locals = make([]Word, count)
	}
	p.frames = []*Frame{NewFrame(p.pc, nil, locals)}
	p.quitted = false
	p.awaiting = false
	p.inputErr = nil
	return nil
}

// RegisterScreen installs the output sink and input source.
func (p *Processor) RegisterScreen(s Screen) {
	p.screen = s
}

// AddListener registers an observer. Callbacks fire in registration order.
func (p *Processor) AddListener(l Listener) {
	p.listeners = append(p.listeners, l)
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// PC returns the current program counter.
func (p *Processor) PC() uint32 {
	return p.pc
}

// CurrentFrame returns the top (mutable) frame.
func (p *Processor) CurrentFrame() *Frame {
	return p.frames[len(p.frames)-1]
}

// CallStack returns the frames bottom first. The slice is a copy; the
// frames are live.
func (p *Processor) CallStack() []*Frame {
	out := make([]*Frame, len(p.frames))
	copy(out, p.frames)
	return out
}

// ExecutingInstruction returns the instruction the last Step decoded, or nil
// before the first step.
func (p *Processor) ExecutingInstruction() *Instruction {
	return p.current
}

// Awaiting reports whether a read opcode is waiting for screen input.
func (p *Processor) Awaiting() bool {
	return p.awaiting
}

// Quitted reports whether the quit opcode has executed.
func (p *Processor) Quitted() bool {
	return p.quitted
}

// Cache exposes the instruction cache for inspection.
func (p *Processor) Cache() *Cache {
	return p.cache
}

// ---------------------------------------------------------------------------
// Stepping
// ---------------------------------------------------------------------------

// Step executes exactly one instruction. On failure the PC is left at the
// faulting instruction's start address; a later Step re-attempts it.
func (p *Processor) Step() error {
	if p.quitted {
		return fmt.Errorf("%w: story has quit", ErrIllegalState)
	}
	if p.awaiting {
		return ErrAwaitingInput
	}
	if err := p.inputErr; err != nil {
		p.inputErr = nil
		return err
	}

	old := p.pc
	p.stepOldPC = old
	for _, l := range p.listeners {
		l.Stepping(old)
	}

	p.decoder.Reader().Seek(p.pc)
	in, err := p.decoder.NextInstruction()
	if err != nil {
		return err
	}
	p.current = in
	p.pc = in.Next()

	p.inStep = true
	err = in.Opcode.handler(p, in)
	p.inStep = false
	if err != nil {
		p.pc = old
		return err
	}
	if p.awaiting {
		// Stepped fires when the input continuation completes the opcode.
		return nil
	}
	if err := p.inputErr; err != nil {
		// A synchronous continuation failed inside the handler.
		p.inputErr = nil
		p.pc = old
		return err
	}

	p.emitStepped(old)
	return nil
}

// Run steps until the story quits, input is pending, or a step fails.
func (p *Processor) Run() error {
	for !p.quitted {
		if err := p.Step(); err != nil {
			return err
		}
		if p.awaiting {
			return ErrAwaitingInput
		}
	}
	return nil
}

func (p *Processor) emitStepped(old uint32) {
	for _, l := range p.listeners {
		l.Stepped(old, p.pc)
	}
}

// ---------------------------------------------------------------------------
// ExecutionContext: basics
// ---------------------------------------------------------------------------

// Version returns the story version.
func (p *Processor) Version() byte { return p.mem.Version() }

// Memory returns the story memory.
func (p *Processor) Memory() *Memory { return p.mem }

// Screen returns the registered screen, or nil.
func (p *Processor) Screen() Screen { return p.screen }

// Objects returns the object table accessors.
func (p *Processor) Objects() *ObjectTable { return p.objects }

// ReadByte reads a byte from story memory.
func (p *Processor) ReadByte(addr uint32) (byte, error) { return p.mem.Byte(addr) }

// WriteByte writes a byte to dynamic memory.
func (p *Processor) WriteByte(addr uint32, b byte) error { return p.mem.WriteByte(addr, b) }

// ReadWord reads a word from story memory.
func (p *Processor) ReadWord(addr uint32) (Word, error) { return p.mem.Word(addr) }

// WriteWord writes a word to dynamic memory.
func (p *Processor) WriteWord(addr uint32, w Word) error { return p.mem.WriteWord(addr, w) }

// UnpackRoutine converts a packed routine address to a byte address.
func (p *Processor) UnpackRoutine(packed Word) uint32 { return p.mem.UnpackRoutine(packed) }

// UnpackString converts a packed string address to a byte address.
func (p *Processor) UnpackString(packed Word) uint32 { return p.mem.UnpackString(packed) }

// DecodeZWords decodes terminator-delimited Z-text words.
func (p *Processor) DecodeZWords(words []Word) (string, error) {
	return DecodeZText(p.mem, words)
}

// DecodeZTextAt decodes the Z-string at a byte address.
func (p *Processor) DecodeZTextAt(addr uint32) (string, error) {
	return DecodeZTextAt(p.mem, addr)
}

// Tokenize runs lexical analysis for read and tokenise.
func (p *Processor) Tokenize(textAddr, parseAddr uint32, dict Word, skipUnknown bool) error {
	return Tokenize(p.mem, textAddr, parseAddr, dict, skipUnknown)
}

// VerifyChecksum recomputes and checks the header checksum.
func (p *Processor) VerifyChecksum() bool { return p.mem.VerifyChecksum() }

// ArgumentCount returns the current routine's argument count.
func (p *Processor) ArgumentCount() int { return p.CurrentFrame().ArgumentCount() }

// Print sends text to the screen, if one is registered.
func (p *Processor) Print(text string) {
	if p.screen != nil {
		p.screen.Print(text)
	}
}

// Randomize reseeds the generator; seed 0 selects a non-deterministic seed.
func (p *Processor) Randomize(seed int64) {
	if seed == 0 {
		p.rng.SeedTime()
	} else {
		p.rng.Seed(seed)
	}
}

// NextRandom returns a uniform value in [1, rangeVal].
func (p *Processor) NextRandom(rangeVal int16) Word {
	return p.rng.Next(rangeVal)
}

// Quit halts the machine and fires the Quit event.
func (p *Processor) Quit() {
	p.quitted = true
	for _, l := range p.listeners {
		l.Quit()
	}
}

// Restart restores dynamic memory and the initial frame. The instruction
// cache survives: code memory is immutable.
func (p *Processor) Restart() error {
	p.mem.Reset()
	return p.reset()
}

// ---------------------------------------------------------------------------
// ExecutionContext: variables and operands
// ---------------------------------------------------------------------------

// OperandValue resolves one operand, popping the eval stack for stack
// variables. Callers resolve operands left to right; the order is
// observable.
func (p *Processor) OperandValue(op Operand) (Word, error) {
	switch op.Kind {
	case OperandLarge, OperandSmall:
		return op.Raw, nil
	case OperandVariable:
		return p.ReadVariable(op.Variable())
	default:
		return 0, fmt.Errorf("%w: omitted operand evaluated", ErrIllegalState)
	}
}

// ReadVariable reads a variable; stack reads pop.
func (p *Processor) ReadVariable(v Variable) (Word, error) {
	switch v.Kind {
	case VarStack:
		return p.CurrentFrame().Pop()
	case VarLocal:
		return p.CurrentFrame().Local(int(v.Index))
	default:
		return p.mem.Word(p.globalAddr(v.Index))
	}
}

// WriteVariable writes a variable; stack writes push.
func (p *Processor) WriteVariable(v Variable, w Word) error {
	switch v.Kind {
	case VarStack:
		p.CurrentFrame().Push(w)
		return nil
	case VarLocal:
		frame := p.CurrentFrame()
		old, err := frame.Local(int(v.Index))
		if err != nil {
			return err
		}
		for _, l := range p.listeners {
			l.LocalChanged(int(v.Index), old, w)
		}
		return frame.SetLocal(int(v.Index), w)
	default:
		return p.mem.WriteWord(p.globalAddr(v.Index), w)
	}
}

// ReadVariableIndirect reads a variable; stack reads peek without popping.
func (p *Processor) ReadVariableIndirect(v Variable) (Word, error) {
	if v.Kind == VarStack {
		return p.CurrentFrame().Peek()
	}
	return p.ReadVariable(v)
}

// WriteVariableIndirect writes a variable; stack writes replace the top.
func (p *Processor) WriteVariableIndirect(v Variable, w Word) error {
	if v.Kind == VarStack {
		if _, err := p.CurrentFrame().Pop(); err != nil {
			return err
		}
		p.CurrentFrame().Push(w)
		return nil
	}
	return p.WriteVariable(v, w)
}

func (p *Processor) globalAddr(index uint8) uint32 {
	return uint32(p.mem.GlobalTable()) + 2*uint32(index)
}

// ---------------------------------------------------------------------------
// ExecutionContext: control transfer
// ---------------------------------------------------------------------------

// Call runs the call protocol. Operand values must already be evaluated, in
// order. A packed address of 0 stores zero (when a store target exists) and
// pushes no frame.
func (p *Processor) Call(packed Word, args []Word, store *Variable) error {
	if packed == 0 {
		if store != nil {
			return p.WriteVariable(*store, Zero)
		}
		return nil
	}

	addr := p.UnpackRoutine(packed)
	count, err := p.mem.Byte(addr)
	if err != nil {
		return err
	}
	if count > 15 {
		return fmt.Errorf("%w: routine at %#x declares %d locals", ErrIllegalState, addr, count)
	}

	locals := make([]Word, count)
	start := addr + 1
	if p.mem.Version() <= 4 {
		for i := range locals {
			if locals[i], err = p.mem.Word(addr + 1 + 2*uint32(i)); err != nil {
				return err
			}
		}
		start += 2 * uint32(count)
	}
	// Arguments overwrite initial locals; extras are discarded.
	copy(locals, args)

	frame := NewFrame(addr, args, locals)
	frame.ReturnAddress = p.pc
	frame.HasReturn = true
	if store != nil {
		frame.HasStore = true
		frame.StoreVariable = *store
	}

	old := p.CurrentFrame()
	p.frames = append(p.frames, frame)
	p.pc = start
	for _, l := range p.listeners {
		l.EnterFrame(old, frame)
	}
	return nil
}

// Return pops the current frame, restores the caller's PC, and delivers the
// value to the popped frame's store target in the caller's context.
func (p *Processor) Return(value Word) error {
	if len(p.frames) <= 1 {
		return fmt.Errorf("%w: return would empty the call stack", ErrIllegalState)
	}
	popped := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]
	p.pc = popped.ReturnAddress

	for _, l := range p.listeners {
		l.ExitFrame(popped, p.CurrentFrame())
	}
	if popped.HasStore {
		return p.WriteVariable(popped.StoreVariable, value)
	}
	return nil
}

// Jump moves the PC by a signed offset with the standard -2 bias.
func (p *Processor) Jump(offset int16) {
	p.pc = uint32(int64(p.pc) + int64(offset) - 2)
}

// TakeBranch applies a branch field: taken iff result matches the decoded
// condition. Address branches jump; the return kinds return 1 or 0.
func (p *Processor) TakeBranch(b Branch, result bool) error {
	if result != b.Condition {
		return nil
	}
	switch b.Kind {
	case BranchReturnTrue:
		return p.Return(One)
	case BranchReturnFalse:
		return p.Return(Zero)
	default:
		p.Jump(b.Offset)
		return nil
	}
}

// CallDepth returns the call stack depth (catch opcode).
func (p *Processor) CallDepth() int {
	return len(p.frames)
}

// ThrowTo unwinds to the catch frame depth, then returns value from it.
func (p *Processor) ThrowTo(depth Word, value Word) error {
	if depth == 0 || int(depth) > len(p.frames) {
		return fmt.Errorf("%w: throw to frame %d of %d", ErrIllegalState, depth, len(p.frames))
	}
	for len(p.frames) > int(depth) {
		popped := p.frames[len(p.frames)-1]
		p.frames = p.frames[:len(p.frames)-1]
		for _, l := range p.listeners {
			l.ExitFrame(popped, p.CurrentFrame())
		}
	}
	return p.Return(value)
}

// ---------------------------------------------------------------------------
// ExecutionContext: input suspension
// ---------------------------------------------------------------------------

// RequestChar suspends the step until the screen delivers a character, then
// runs complete on the processor's control path.
func (p *Processor) RequestChar(complete func(r rune) error) {
	if p.screen == nil {
		p.failInput(fmt.Errorf("%w: read_char with no screen", ErrIllegalState))
		return
	}
	p.awaiting = true
	p.screen.ReadChar(func(r rune) {
		p.resumeInput(func() error { return complete(r) })
	})
}

// RequestLine suspends the step until the screen delivers a line.
func (p *Processor) RequestLine(maxLen int, complete func(line string) error) {
	if p.screen == nil {
		p.failInput(fmt.Errorf("%w: read with no screen", ErrIllegalState))
		return
	}
	p.awaiting = true
	p.screen.ReadLine(maxLen, func(line string) {
		p.resumeInput(func() error { return complete(line) })
	})
}

func (p *Processor) resumeInput(complete func() error) {
	wasAsync := !p.inStep
	p.awaiting = false
	if err := complete(); err != nil {
		p.failInput(err)
		return
	}
	if wasAsync {
		p.emitStepped(p.stepOldPC)
	}
}

// failInput records a failure from an input continuation. The PC reverts to
// the faulting instruction; the error surfaces from the enclosing Step, or
// from the next Step when the continuation ran asynchronously.
func (p *Processor) failInput(err error) {
	p.awaiting = false
	p.inputErr = err
	if p.current != nil {
		p.pc = p.current.Address
	}
}

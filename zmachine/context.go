package zmachine

// ---------------------------------------------------------------------------
// ExecutionContext: the capability opcode handlers run against
// ---------------------------------------------------------------------------

// ExecutionContext is the capability surface opcode handlers execute against.
// The Processor implements it; tests may substitute a fake for handler-level
// checks.
type ExecutionContext interface {
	Version() byte
	Memory() *Memory
	Screen() Screen
	Objects() *ObjectTable

	// OperandValue resolves one operand. Reads of the stack variable pop;
	// evaluation order is observable and must be left-to-right.
	OperandValue(op Operand) (Word, error)

	ReadByte(addr uint32) (byte, error)
	WriteByte(addr uint32, b byte) error
	ReadWord(addr uint32) (Word, error)
	WriteWord(addr uint32, w Word) error

	ReadVariable(v Variable) (Word, error)
	WriteVariable(v Variable, w Word) error
	// Indirect reads peek the stack instead of popping; indirect writes
	// replace the top instead of pushing.
	ReadVariableIndirect(v Variable) (Word, error)
	WriteVariableIndirect(v Variable, w Word) error

	// Call runs the call protocol. A nil store means a *_n call variant.
	Call(packed Word, args []Word, store *Variable) error
	Return(value Word) error
	Jump(offset int16)
	// TakeBranch applies a decoded branch field given the predicate result.
	TakeBranch(b Branch, result bool) error
	CallDepth() int
	ThrowTo(depth Word, value Word) error
	ArgumentCount() int

	UnpackRoutine(packed Word) uint32
	UnpackString(packed Word) uint32

	DecodeZWords(words []Word) (string, error)
	DecodeZTextAt(addr uint32) (string, error)
	Tokenize(textAddr, parseAddr uint32, dict Word, skipUnknown bool) error

	Print(text string)
	Randomize(seed int64)
	NextRandom(rangeVal int16) Word
	Restart() error
	Quit()
	VerifyChecksum() bool

	// RequestChar and RequestLine suspend the current step until the screen
	// delivers input, then run the completion on the processor's control
	// path.
	RequestChar(complete func(r rune) error)
	RequestLine(maxLen int, complete func(line string) error)
}

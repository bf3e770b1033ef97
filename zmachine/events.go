package zmachine

// ---------------------------------------------------------------------------
// Listener: synchronous step and frame events
// ---------------------------------------------------------------------------

// Listener observes processor execution. All callbacks fire synchronously on
// the control path of Step, in registration order. Listeners must not call
// Step reentrantly.
type Listener interface {
	// Stepping fires before the instruction at oldPC executes.
	Stepping(oldPC uint32)
	// Stepped fires after execution, with the PC the next step will fetch at.
	Stepped(oldPC, newPC uint32)
	// EnterFrame fires after a call pushes newFrame.
	EnterFrame(old, new *Frame)
	// ExitFrame fires after a return pops old, making new current.
	ExitFrame(old, new *Frame)
	// LocalChanged fires before local index is overwritten.
	LocalChanged(index int, old, new Word)
	// Quit fires when the quit opcode executes.
	Quit()
}

// BaseListener is a no-op Listener for embedding, so observers implement
// only the callbacks they care about.
type BaseListener struct{}

func (BaseListener) Stepping(uint32)                {}
func (BaseListener) Stepped(uint32, uint32)         {}
func (BaseListener) EnterFrame(*Frame, *Frame)      {}
func (BaseListener) ExitFrame(*Frame, *Frame)       {}
func (BaseListener) LocalChanged(int, Word, Word)   {}
func (BaseListener) Quit()                          {}

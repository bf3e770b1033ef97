package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Debugger: breakpoints and stepping over a Processor
// ---------------------------------------------------------------------------

// StepMode indicates the current stepping mode.
type StepMode int

const (
	StepNone StepMode = iota
	StepInto
	StepOver
	StepOut
)

// Debugger drives a processor under breakpoint and step control. It runs on
// the caller's goroutine: Continue and the Step* methods block until the
// processor pauses, halts, or needs input.
type Debugger struct {
	proc        *Processor
	breakpoints map[uint32]bool

	// Last pause state for the front-end.
	paused      bool
	pauseReason string
}

// NewDebugger attaches a debugger to a processor.
func NewDebugger(proc *Processor) *Debugger {
	return &Debugger{
		proc:        proc,
		breakpoints: make(map[uint32]bool),
	}
}

// Processor returns the controlled processor for read-only inspection.
func (d *Debugger) Processor() *Processor {
	return d.proc
}

// ---------------------------------------------------------------------------
// Breakpoint management
// ---------------------------------------------------------------------------

// SetBreakpoint arms a breakpoint at an instruction address.
func (d *Debugger) SetBreakpoint(addr uint32) {
	d.breakpoints[addr] = true
}

// RemoveBreakpoint deletes the breakpoint at addr.
func (d *Debugger) RemoveBreakpoint(addr uint32) error {
	if _, exists := d.breakpoints[addr]; !exists {
		return fmt.Errorf("no breakpoint at %#x", addr)
	}
	delete(d.breakpoints, addr)
	return nil
}

// EnableBreakpoint re-arms a disabled breakpoint.
func (d *Debugger) EnableBreakpoint(addr uint32) error {
	if _, exists := d.breakpoints[addr]; !exists {
		return fmt.Errorf("no breakpoint at %#x", addr)
	}
	d.breakpoints[addr] = true
	return nil
}

// DisableBreakpoint keeps the breakpoint but stops it from firing.
func (d *Debugger) DisableBreakpoint(addr uint32) error {
	if _, exists := d.breakpoints[addr]; !exists {
		return fmt.Errorf("no breakpoint at %#x", addr)
	}
	d.breakpoints[addr] = false
	return nil
}

// ClearBreakpoints removes every breakpoint.
func (d *Debugger) ClearBreakpoints() {
	d.breakpoints = make(map[uint32]bool)
}

// Breakpoints returns the armed and disabled breakpoint addresses.
func (d *Debugger) Breakpoints() map[uint32]bool {
	out := make(map[uint32]bool, len(d.breakpoints))
	for addr, active := range d.breakpoints {
		out[addr] = active
	}
	return out
}

// ---------------------------------------------------------------------------
// Execution control
// ---------------------------------------------------------------------------

// IsPaused reports whether the last control operation left execution paused
// (as opposed to quit or awaiting input).
func (d *Debugger) IsPaused() bool {
	return d.paused
}

// PauseReason describes why execution last paused.
func (d *Debugger) PauseReason() string {
	return d.pauseReason
}

// StepInstruction executes exactly one instruction.
func (d *Debugger) StepInstruction() error {
	d.pause("step")
	return d.proc.Step()
}

// Continue runs until a breakpoint, quit, pending input, or error.
func (d *Debugger) Continue() error {
	return d.run(func() bool { return false })
}

// StepOverCall steps one instruction; when it is a call, execution continues
// until the call returns to the current depth.
func (d *Debugger) StepOverCall() error {
	depth := d.proc.CallDepth()
	if err := d.StepInstruction(); err != nil {
		return err
	}
	if d.proc.CallDepth() <= depth {
		return nil
	}
	return d.run(func() bool { return d.proc.CallDepth() <= depth })
}

// StepOutOfRoutine continues until the current routine returns.
func (d *Debugger) StepOutOfRoutine() error {
	depth := d.proc.CallDepth()
	if depth <= 1 {
		return d.Continue()
	}
	return d.run(func() bool { return d.proc.CallDepth() < depth })
}

// run steps until done reports true, a breakpoint fires, or the processor
// stops on its own.
func (d *Debugger) run(done func() bool) error {
	for {
		if d.proc.Quitted() {
			d.pause("quit")
			return nil
		}
		if err := d.proc.Step(); err != nil {
			d.pause(fmt.Sprintf("error: %v", err))
			return err
		}
		if d.proc.Awaiting() {
			d.pause("awaiting input")
			return nil
		}
		if done() {
			d.pause("step")
			return nil
		}
		if active, exists := d.breakpoints[d.proc.PC()]; exists && active {
			d.pause("breakpoint")
			return nil
		}
	}
}

func (d *Debugger) pause(reason string) {
	d.paused = reason != "quit" && reason != "awaiting input"
	d.pauseReason = reason
}

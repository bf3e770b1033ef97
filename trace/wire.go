// Package trace records processor execution for debugger front-ends: CBOR
// wire records per step, and an optional sqlite-backed store to query them.
package trace

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/grue/zmachine"
)

// cborEncMode uses canonical mode so identical records encode to identical
// bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// StepRecord is one executed instruction: the PC it ran at, the PC that
// followed, and the call depth at completion.
type StepRecord struct {
	Seq    uint64 `cbor:"1,keyasint"`
	PC     uint32 `cbor:"2,keyasint"`
	NextPC uint32 `cbor:"3,keyasint"`
	Opcode string `cbor:"4,keyasint"`
	Depth  int    `cbor:"5,keyasint"`
}

// FrameRecord is a serialized call frame for snapshots.
type FrameRecord struct {
	Routine   uint32   `cbor:"1,keyasint"`
	ReturnPC  uint32   `cbor:"2,keyasint"`
	Locals    []uint16 `cbor:"3,keyasint"`
	EvalStack []uint16 `cbor:"4,keyasint"`
}

// Snapshot captures processor state between steps for a debugger pane.
type Snapshot struct {
	PC      uint32        `cbor:"1,keyasint"`
	Version byte          `cbor:"2,keyasint"`
	Frames  []FrameRecord `cbor:"3,keyasint"`
}

// MarshalStep serializes a StepRecord to CBOR bytes.
func MarshalStep(r *StepRecord) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// UnmarshalStep deserializes a StepRecord from CBOR bytes.
func UnmarshalStep(data []byte) (*StepRecord, error) {
	var r StepRecord
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("trace: unmarshal step: %w", err)
	}
	return &r, nil
}

// MarshalSnapshot serializes a Snapshot to CBOR bytes.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// UnmarshalSnapshot deserializes a Snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("trace: unmarshal snapshot: %w", err)
	}
	return &s, nil
}

// TakeSnapshot captures the processor's current state.
func TakeSnapshot(p *zmachine.Processor) *Snapshot {
	frames := p.CallStack()
	s := &Snapshot{
		PC:      p.PC(),
		Version: p.Version(),
		Frames:  make([]FrameRecord, len(frames)),
	}
	for i, f := range frames {
		s.Frames[i] = FrameRecord{
			Routine:   f.RoutineAddress,
			ReturnPC:  f.ReturnAddress,
			Locals:    words16(f.Locals),
			EvalStack: words16(f.EvalStack()),
		}
	}
	return s
}

func words16(ws []zmachine.Word) []uint16 {
	out := make([]uint16, len(ws))
	for i, w := range ws {
		out[i] = uint16(w)
	}
	return out
}

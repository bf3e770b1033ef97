package trace

import (
	"path/filepath"
	"testing"

	"github.com/chazu/grue/zmachine"
)

// storyWithQuit builds a minimal v5 image whose program is add followed by
// quit.
func storyWithQuit(t *testing.T) *zmachine.Processor {
	t.Helper()
	buf := make([]byte, 0x500)
	buf[0x00] = 5 // version
	put16 := func(off int, v uint16) {
		buf[off] = byte(v >> 8)
		buf[off+1] = byte(v)
	}
	put16(0x04, 0x0440) // high memory base
	put16(0x06, 0x0440) // initial PC
	put16(0x0c, 0x0100) // globals
	put16(0x0e, 0x0440) // static memory base
	copy(buf[0x0440:], []byte{
		0xd4, 0x0f, 0x00, 0x01, 0x00, 0x02, 0x00, // add 1,2 -> sp
		0xba, // quit
	})

	mem, err := zmachine.NewMemory(buf)
	if err != nil {
		t.Fatalf("NewMemory: %v", err)
	}
	p, err := zmachine.NewProcessor(mem)
	if err != nil {
		t.Fatalf("NewProcessor: %v", err)
	}
	return p
}

func TestRecorderCapturesSteps(t *testing.T) {
	p := storyWithQuit(t)
	store, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	rec := NewRecorder(p, store)
	p.AddListener(rec)

	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := rec.Err(); err != nil {
		t.Fatalf("recorder: %v", err)
	}

	recs, err := store.StepsBetween(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("recorded %d steps, want 2", len(recs))
	}
	if recs[0].Opcode != "add" || recs[0].PC != 0x0440 || recs[0].NextPC != 0x0447 {
		t.Errorf("step 0 = %+v", recs[0])
	}
	if recs[1].Opcode != "quit" {
		t.Errorf("step 1 = %+v", recs[1])
	}

	snap := TakeSnapshot(p)
	if snap.Version != 5 || len(snap.Frames) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Frames[0].EvalStack[0] != 3 {
		t.Errorf("eval stack = %v, want [3]", snap.Frames[0].EvalStack)
	}
}

package trace

import (
	"reflect"
	"testing"
)

func TestStepRecordRoundTrip(t *testing.T) {
	rec := &StepRecord{
		Seq:    42,
		PC:     0x07dd,
		NextPC: 0x07e4,
		Opcode: "call_vs",
		Depth:  2,
	}
	data, err := MarshalStep(rec)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalStep(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, rec) {
		t.Errorf("round trip = %+v, want %+v", got, rec)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := &Snapshot{
		PC:      0x0501,
		Version: 5,
		Frames: []FrameRecord{
			{Routine: 0x0400},
			{Routine: 0x0500, ReturnPC: 0x0407, Locals: []uint16{7, 8}, EvalStack: []uint16{15}},
		},
	}
	data, err := MarshalSnapshot(snap)
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("round trip = %+v, want %+v", got, snap)
	}
}

func TestCanonicalEncodingIsDeterministic(t *testing.T) {
	rec := &StepRecord{Seq: 1, PC: 2, NextPC: 3, Opcode: "add", Depth: 1}
	a, err := MarshalStep(rec)
	if err != nil {
		t.Fatal(err)
	}
	b, err := MarshalStep(rec)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("identical records encoded differently")
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	if _, err := UnmarshalStep([]byte{0xff, 0x00}); err == nil {
		t.Error("UnmarshalStep accepted garbage")
	}
}

package trace

import (
	"path/filepath"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "trace.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func fill(t *testing.T, s *Store, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		rec := &StepRecord{
			Seq:    uint64(i),
			PC:     0x0400 + uint32(i%4),
			NextPC: 0x0400 + uint32(i%4) + 3,
			Opcode: "add",
			Depth:  1,
		}
		if err := s.Append(rec); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}
}

func TestStoreAppendAndQuery(t *testing.T) {
	s := testStore(t)
	fill(t, s, 10)

	recs, err := s.StepsBetween(2, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 || recs[0].Seq != 2 || recs[2].Seq != 4 {
		t.Errorf("StepsBetween(2,5) = %d records starting at %d", len(recs), recs[0].Seq)
	}

	recs, err = s.LastN(4)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 4 || recs[0].Seq != 6 || recs[3].Seq != 9 {
		t.Errorf("LastN(4) seqs = %v", seqs(recs))
	}

	recs, err = s.StepsAt(0x0401)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range recs {
		if r.PC != 0x0401 {
			t.Errorf("StepsAt returned pc %#x", r.PC)
		}
	}
	if len(recs) == 0 {
		t.Error("StepsAt(0x0401) returned nothing")
	}
}

func TestStoreDuplicateSeqFails(t *testing.T) {
	s := testStore(t)
	rec := &StepRecord{Seq: 1, Opcode: "add"}
	if err := s.Append(rec); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(rec); err == nil {
		t.Error("duplicate seq accepted")
	}
}

func seqs(recs []*StepRecord) []uint64 {
	out := make([]uint64, len(recs))
	for i, r := range recs {
		out[i] = r.Seq
	}
	return out
}

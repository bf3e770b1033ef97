package trace

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/chazu/grue/zmachine"
)

// ---------------------------------------------------------------------------
// Store: sqlite-backed step trace
// ---------------------------------------------------------------------------

const schema = `
CREATE TABLE IF NOT EXISTS steps (
	seq     INTEGER PRIMARY KEY,
	pc      INTEGER NOT NULL,
	next_pc INTEGER NOT NULL,
	opcode  TEXT NOT NULL,
	depth   INTEGER NOT NULL,
	record  BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS steps_pc ON steps (pc);
`

// Store persists step records in a sqlite database so a debugger front-end
// can query execution history after the fact.
type Store struct {
	db *sql.DB
}

// Open creates or opens a trace database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append inserts one step record.
func (s *Store) Append(r *StepRecord) error {
	blob, err := MarshalStep(r)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO steps (seq, pc, next_pc, opcode, depth, record) VALUES (?, ?, ?, ?, ?, ?)`,
		r.Seq, r.PC, r.NextPC, r.Opcode, r.Depth, blob)
	if err != nil {
		return fmt.Errorf("trace: append step %d: %w", r.Seq, err)
	}
	return nil
}

// StepsBetween returns records with lo <= seq < hi, in order.
func (s *Store) StepsBetween(lo, hi uint64) ([]*StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT record FROM steps WHERE seq >= ? AND seq < ? ORDER BY seq`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("trace: query steps: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// LastN returns the most recent n records, oldest first.
func (s *Store) LastN(n int) ([]*StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT record FROM (
			SELECT seq, record FROM steps ORDER BY seq DESC LIMIT ?
		) ORDER BY seq`, n)
	if err != nil {
		return nil, fmt.Errorf("trace: query steps: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// StepsAt returns every record executed at pc, in order.
func (s *Store) StepsAt(pc uint32) ([]*StepRecord, error) {
	rows, err := s.db.Query(
		`SELECT record FROM steps WHERE pc = ? ORDER BY seq`, pc)
	if err != nil {
		return nil, fmt.Errorf("trace: query steps: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]*StepRecord, error) {
	var out []*StepRecord
	for rows.Next() {
		var blob []byte
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		r, err := UnmarshalStep(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Recorder: a processor listener that appends step records
// ---------------------------------------------------------------------------

// Recorder observes a processor and appends one record per completed step.
// Append failures are retained and surfaced from Err; the processor is
// never interrupted by a trace problem.
type Recorder struct {
	zmachine.BaseListener

	proc  *zmachine.Processor
	store *Store
	seq   uint64
	err   error
}

// NewRecorder creates a recorder writing to store. Register it on the
// processor with AddListener.
func NewRecorder(proc *zmachine.Processor, store *Store) *Recorder {
	return &Recorder{proc: proc, store: store}
}

// Stepped implements zmachine.Listener.
func (r *Recorder) Stepped(oldPC, newPC uint32) {
	if r.err != nil {
		return
	}
	rec := &StepRecord{
		Seq:    r.seq,
		PC:     oldPC,
		NextPC: newPC,
		Depth:  r.proc.CallDepth(),
	}
	if in := r.proc.ExecutingInstruction(); in != nil {
		rec.Opcode = in.Opcode.Name
	}
	r.seq++
	r.err = r.store.Append(rec)
}

// Err returns the first append failure, if any.
func (r *Recorder) Err() error {
	return r.err
}

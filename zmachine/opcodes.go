package zmachine

import "fmt"

// ---------------------------------------------------------------------------
// Opcode metadata and the per-version lookup tables
// ---------------------------------------------------------------------------

// OpKind is the operand-count family an opcode number is looked up in.
type OpKind uint8

const (
	TwoOp OpKind = iota
	OneOp
	ZeroOp
	VarOp
	Ext
)

func (k OpKind) String() string {
	switch k {
	case TwoOp:
		return "2OP"
	case OneOp:
		return "1OP"
	case ZeroOp:
		return "0OP"
	case VarOp:
		return "VAR"
	case Ext:
		return "EXT"
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// HandlerFunc executes one decoded instruction against an execution context.
type HandlerFunc func(ctx ExecutionContext, in *Instruction) error

// Opcode carries the static metadata for one opcode in one version's table.
type Opcode struct {
	Kind   OpKind
	Number uint8
	Name   string

	HasStore       bool // a store variable byte follows the operands
	HasBranch      bool // a branch field follows
	HasZText       bool // inline Z-text follows
	DoubleVariable bool // two operand-kind bytes (call_vs2 / call_vn2)
	IsCall         bool
	IsJump         bool

	handler HandlerFunc
}

func (o *Opcode) String() string {
	return fmt.Sprintf("%s:%d %s", o.Kind, o.Number, o.Name)
}

// ---------------------------------------------------------------------------
// Table construction
// ---------------------------------------------------------------------------

type opKey struct {
	kind   OpKind
	number uint8
}

// opcodeDef declares one opcode over a version range. Opcodes whose flags
// change between versions (save, not, pull, read) appear as multiple defs
// with disjoint ranges.
type opcodeDef struct {
	minV, maxV byte
	op         Opcode
}

func def(kind OpKind, number uint8, minV, maxV byte, name string, h HandlerFunc) opcodeDef {
	return opcodeDef{minV: minV, maxV: maxV, op: Opcode{
		Kind: kind, Number: number, Name: name, handler: h,
	}}
}

func (d opcodeDef) store() opcodeDef          { d.op.HasStore = true; return d }
func (d opcodeDef) branch() opcodeDef         { d.op.HasBranch = true; return d }
func (d opcodeDef) ztext() opcodeDef          { d.op.HasZText = true; return d }
func (d opcodeDef) call() opcodeDef           { d.op.IsCall = true; return d }
func (d opcodeDef) jump() opcodeDef           { d.op.IsJump = true; return d }
func (d opcodeDef) doubleVariable() opcodeDef { d.op.DoubleVariable = true; return d }

var opcodeDefs = []opcodeDef{
	// --- 2OP ---
	def(TwoOp, 1, 1, 8, "je", opJe).branch(),
	def(TwoOp, 2, 1, 8, "jl", opJl).branch(),
	def(TwoOp, 3, 1, 8, "jg", opJg).branch(),
	def(TwoOp, 4, 1, 8, "dec_chk", opDecChk).branch(),
	def(TwoOp, 5, 1, 8, "inc_chk", opIncChk).branch(),
	def(TwoOp, 6, 1, 8, "jin", opJin).branch(),
	def(TwoOp, 7, 1, 8, "test", opTest).branch(),
	def(TwoOp, 8, 1, 8, "or", opOr).store(),
	def(TwoOp, 9, 1, 8, "and", opAnd).store(),
	def(TwoOp, 10, 1, 8, "test_attr", opTestAttr).branch(),
	def(TwoOp, 11, 1, 8, "set_attr", opSetAttr),
	def(TwoOp, 12, 1, 8, "clear_attr", opClearAttr),
	def(TwoOp, 13, 1, 8, "store", opStore),
	def(TwoOp, 14, 1, 8, "insert_obj", opInsertObj),
	def(TwoOp, 15, 1, 8, "loadw", opLoadW).store(),
	def(TwoOp, 16, 1, 8, "loadb", opLoadB).store(),
	def(TwoOp, 17, 1, 8, "get_prop", opGetProp).store(),
	def(TwoOp, 18, 1, 8, "get_prop_addr", opGetPropAddr).store(),
	def(TwoOp, 19, 1, 8, "get_next_prop", opGetNextProp).store(),
	def(TwoOp, 20, 1, 8, "add", opAdd).store(),
	def(TwoOp, 21, 1, 8, "sub", opSub).store(),
	def(TwoOp, 22, 1, 8, "mul", opMul).store(),
	def(TwoOp, 23, 1, 8, "div", opDiv).store(),
	def(TwoOp, 24, 1, 8, "mod", opMod).store(),
	def(TwoOp, 25, 4, 8, "call_2s", opCall).store().call(),
	def(TwoOp, 26, 5, 8, "call_2n", opCall).call(),
	def(TwoOp, 27, 5, 8, "set_colour", opSetColour),
	def(TwoOp, 28, 5, 8, "throw", opThrow),

	// --- 1OP ---
	def(OneOp, 0, 1, 8, "jz", opJz).branch(),
	def(OneOp, 1, 1, 8, "get_sibling", opGetSibling).store().branch(),
	def(OneOp, 2, 1, 8, "get_child", opGetChild).store().branch(),
	def(OneOp, 3, 1, 8, "get_parent", opGetParent).store(),
	def(OneOp, 4, 1, 8, "get_prop_len", opGetPropLen).store(),
	def(OneOp, 5, 1, 8, "inc", opInc),
	def(OneOp, 6, 1, 8, "dec", opDec),
	def(OneOp, 7, 1, 8, "print_addr", opPrintAddr),
	def(OneOp, 8, 4, 8, "call_1s", opCall).store().call(),
	def(OneOp, 9, 1, 8, "remove_obj", opRemoveObj),
	def(OneOp, 10, 1, 8, "print_obj", opPrintObj),
	def(OneOp, 11, 1, 8, "ret", opRet),
	def(OneOp, 12, 1, 8, "jump", opJump).jump(),
	def(OneOp, 13, 1, 8, "print_paddr", opPrintPAddr),
	def(OneOp, 14, 1, 8, "load", opLoad).store(),
	def(OneOp, 15, 1, 4, "not", opNot).store(),
	def(OneOp, 15, 5, 8, "call_1n", opCall).call(),

	// --- 0OP ---
	def(ZeroOp, 0, 1, 8, "rtrue", opRTrue),
	def(ZeroOp, 1, 1, 8, "rfalse", opRFalse),
	def(ZeroOp, 2, 1, 8, "print", opPrint).ztext(),
	def(ZeroOp, 3, 1, 8, "print_ret", opPrintRet).ztext(),
	def(ZeroOp, 4, 1, 8, "nop", opNop),
	def(ZeroOp, 5, 1, 3, "save", opSave).branch(),
	def(ZeroOp, 5, 4, 4, "save", opSave).store(),
	def(ZeroOp, 6, 1, 3, "restore", opRestore).branch(),
	def(ZeroOp, 6, 4, 4, "restore", opRestore).store(),
	def(ZeroOp, 7, 1, 8, "restart", opRestart),
	def(ZeroOp, 8, 1, 8, "ret_popped", opRetPopped),
	def(ZeroOp, 9, 1, 4, "pop", opPop),
	def(ZeroOp, 9, 5, 8, "catch", opCatch).store(),
	def(ZeroOp, 10, 1, 8, "quit", opQuit),
	def(ZeroOp, 11, 1, 8, "new_line", opNewLine),
	def(ZeroOp, 12, 3, 3, "show_status", opShowStatus),
	def(ZeroOp, 13, 3, 8, "verify", opVerify).branch(),
	def(ZeroOp, 15, 5, 8, "piracy", opPiracy).branch(),

	// --- VAR ---
	def(VarOp, 0, 1, 3, "call", opCall).store().call(),
	def(VarOp, 0, 4, 8, "call_vs", opCall).store().call(),
	def(VarOp, 1, 1, 8, "storew", opStoreW),
	def(VarOp, 2, 1, 8, "storeb", opStoreB),
	def(VarOp, 3, 1, 8, "put_prop", opPutProp),
	def(VarOp, 4, 1, 4, "sread", opRead),
	def(VarOp, 4, 5, 8, "aread", opRead).store(),
	def(VarOp, 5, 1, 8, "print_char", opPrintChar),
	def(VarOp, 6, 1, 8, "print_num", opPrintNum),
	def(VarOp, 7, 1, 8, "random", opRandom).store(),
	def(VarOp, 8, 1, 8, "push", opPush),
	def(VarOp, 9, 1, 5, "pull", opPull),
	def(VarOp, 9, 6, 8, "pull", opPull).store(),
	def(VarOp, 10, 3, 8, "split_window", opSplitWindow),
	def(VarOp, 11, 3, 8, "set_window", opSetWindow),
	def(VarOp, 12, 4, 8, "call_vs2", opCall).store().call().doubleVariable(),
	def(VarOp, 13, 4, 8, "erase_window", opEraseWindow),
	def(VarOp, 14, 4, 8, "erase_line", opEraseLine),
	def(VarOp, 15, 4, 8, "set_cursor", opSetCursor),
	def(VarOp, 16, 4, 8, "get_cursor", opGetCursor),
	def(VarOp, 17, 4, 8, "set_text_style", opSetTextStyle),
	def(VarOp, 18, 4, 8, "buffer_mode", opBufferMode),
	def(VarOp, 19, 3, 8, "output_stream", opOutputStream),
	def(VarOp, 20, 3, 8, "input_stream", opInputStream),
	def(VarOp, 21, 3, 8, "sound_effect", opSoundEffect),
	def(VarOp, 22, 4, 8, "read_char", opReadChar).store(),
	def(VarOp, 23, 4, 8, "scan_table", opScanTable).store().branch(),
	def(VarOp, 24, 5, 8, "not", opNot).store(),
	def(VarOp, 25, 5, 8, "call_vn", opCall).call(),
	def(VarOp, 26, 5, 8, "call_vn2", opCall).call().doubleVariable(),
	def(VarOp, 27, 5, 8, "tokenise", opTokenise),
	def(VarOp, 28, 5, 8, "encode_text", opEncodeText),
	def(VarOp, 29, 5, 8, "copy_table", opCopyTable),
	def(VarOp, 30, 5, 8, "print_table", opPrintTable),
	def(VarOp, 31, 5, 8, "check_arg_count", opCheckArgCount).branch(),

	// --- EXT ---
	def(Ext, 0, 5, 8, "save", opSave).store(),
	def(Ext, 1, 5, 8, "restore", opRestore).store(),
	def(Ext, 2, 5, 8, "log_shift", opLogShift).store(),
	def(Ext, 3, 5, 8, "art_shift", opArtShift).store(),
	def(Ext, 4, 5, 8, "set_font", opSetFont).store(),
	def(Ext, 9, 5, 8, "save_undo", opSaveUndo).store(),
	def(Ext, 10, 5, 8, "restore_undo", opRestoreUndo).store(),
	def(Ext, 11, 5, 8, "print_unicode", opPrintUnicode),
	def(Ext, 12, 5, 8, "check_unicode", opCheckUnicode).store(),
}

// versionTables[v] maps (kind, number) to opcode metadata for version v.
var versionTables [9]map[opKey]*Opcode

func init() {
	for v := byte(1); v <= 8; v++ {
		table := make(map[opKey]*Opcode)
		for i := range opcodeDefs {
			d := &opcodeDefs[i]
			if v < d.minV || v > d.maxV {
				continue
			}
			op := d.op // copy; each version table owns its entry
			table[opKey{op.Kind, op.Number}] = &op
		}
		versionTables[v] = table
	}
}

// LookupOpcode returns the opcode metadata for (version, kind, number).
// A missing entry is a decode error.
func LookupOpcode(version byte, kind OpKind, number uint8) (*Opcode, error) {
	if version < 1 || version > 8 {
		return nil, fmt.Errorf("%w: version %d", ErrUnknownOpcode, version)
	}
	op, ok := versionTables[version][opKey{kind, number}]
	if !ok {
		return nil, fmt.Errorf("%w: %s:%d in v%d", ErrUnknownOpcode, kind, number, version)
	}
	return op, nil
}

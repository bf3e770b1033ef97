package zmachine

import "strconv"

// ---------------------------------------------------------------------------
// Printing and input opcodes
// ---------------------------------------------------------------------------

func opPrint(ctx ExecutionContext, in *Instruction) error {
	text, err := ctx.DecodeZWords(in.ZText)
	if err != nil {
		return err
	}
	ctx.Print(text)
	return nil
}

func opPrintRet(ctx ExecutionContext, in *Instruction) error {
	text, err := ctx.DecodeZWords(in.ZText)
	if err != nil {
		return err
	}
	ctx.Print(text + "\n")
	return ctx.Return(One)
}

func opPrintAddr(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	text, err := ctx.DecodeZTextAt(uint32(vals[0]))
	if err != nil {
		return err
	}
	ctx.Print(text)
	return nil
}

func opPrintPAddr(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	text, err := ctx.DecodeZTextAt(ctx.UnpackString(vals[0]))
	if err != nil {
		return err
	}
	ctx.Print(text)
	return nil
}

func opPrintObj(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	name, err := ctx.Objects().Name(vals[0])
	if err != nil {
		return err
	}
	ctx.Print(name)
	return nil
}

func opPrintChar(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	ctx.Print(zsciiString(vals[0]))
	return nil
}

func opPrintNum(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	ctx.Print(strconv.Itoa(int(vals[0].Signed())))
	return nil
}

func opNewLine(ctx ExecutionContext, _ *Instruction) error {
	ctx.Print("\n")
	return nil
}

// opPrintTable prints a rectangle of ZSCII text: height rows of width
// characters, skipping skip bytes between rows.
func opPrintTable(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	addr := uint32(vals[0])
	width := uint32(vals[1])
	height := uint32(1)
	if in.NumOperands >= 3 {
		height = uint32(vals[2])
	}
	skip := uint32(0)
	if in.NumOperands >= 4 {
		skip = uint32(vals[3])
	}

	for row := uint32(0); row < height; row++ {
		if row > 0 {
			ctx.Print("\n")
		}
		for col := uint32(0); col < width; col++ {
			b, err := ctx.ReadByte(addr)
			if err != nil {
				return err
			}
			addr++
			ctx.Print(zsciiString(Word(b)))
		}
		addr += skip
	}
	return nil
}

// opPrintUnicode prints the character when it falls in the ZSCII-safe
// range; translation tables beyond that are not carried.
func opPrintUnicode(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	ctx.Print(zsciiString(vals[0]))
	return nil
}

func opCheckUnicode(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	// 3 = can print and read; only the ASCII range qualifies here.
	if vals[0] >= 32 && vals[0] <= 126 {
		return storeResult(ctx, in, 3)
	}
	return storeResult(ctx, in, Zero)
}

// zsciiString converts one ZSCII output code to printable text.
func zsciiString(code Word) string {
	switch {
	case code == 13:
		return "\n"
	case code >= 32 && code <= 126:
		return string(rune(code))
	default:
		return ""
	}
}

// zsciiFromRune converts host input to a ZSCII code for read_char and the
// read terminator.
func zsciiFromRune(r rune) Word {
	switch r {
	case '\n', '\r':
		return 13
	case 0x7f, 0x08:
		return 8
	case 0x1b:
		return 27
	default:
		if r >= 32 && r <= 126 {
			return Word(r)
		}
		return 0
	}
}

// ---------------------------------------------------------------------------
// Input
// ---------------------------------------------------------------------------

func opReadChar(ctx ExecutionContext, in *Instruction) error {
	// Operand 0, when present, is the keyboard device (always 1); timed
	// input routines are not supported and are ignored.
	if _, err := operandValues(ctx, in); err != nil {
		return err
	}
	ctx.RequestChar(func(r rune) error {
		return storeResult(ctx, in, zsciiFromRune(r))
	})
	return nil
}

// opRead is sread/aread: fill the text buffer from the keyboard, then run
// lexical analysis into the parse buffer. Through v3 the status line
// redraws first; from v5 the terminator stores.
func opRead(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 1); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	textAddr := uint32(vals[0])
	var parseAddr uint32
	if in.NumOperands >= 2 {
		parseAddr = uint32(vals[1])
	}

	if ctx.Version() <= 3 {
		if err := showStatus(ctx); err != nil {
			return err
		}
	}

	maxLen, err := ctx.ReadByte(textAddr)
	if err != nil {
		return err
	}

	ctx.RequestLine(int(maxLen), func(line string) error {
		if err := WriteTextBuffer(ctx.Memory(), textAddr, line); err != nil {
			return err
		}
		if parseAddr != 0 {
			if err := ctx.Tokenize(textAddr, parseAddr, 0, false); err != nil {
				return err
			}
		}
		// The only supported terminator is newline.
		return storeResult(ctx, in, 13)
	})
	return nil
}

func opTokenise(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 2); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	var dict Word
	if in.NumOperands >= 3 {
		dict = vals[2]
	}
	skipUnknown := in.NumOperands >= 4 && vals[3] != 0
	return ctx.Tokenize(uint32(vals[0]), uint32(vals[1]), dict, skipUnknown)
}

// opEncodeText encodes length bytes of ZSCII at text+from into dictionary
// form at the coded address.
func opEncodeText(ctx ExecutionContext, in *Instruction) error {
	if err := needOperands(in, 4); err != nil {
		return err
	}
	vals, err := operandValues(ctx, in)
	if err != nil {
		return err
	}
	text := make([]byte, vals[1])
	for i := range text {
		if text[i], err = ctx.ReadByte(uint32(vals[0]) + uint32(vals[2]) + uint32(i)); err != nil {
			return err
		}
	}
	words := EncodeZText(ctx.Version(), string(text))
	for i, w := range words {
		if err := ctx.WriteWord(uint32(vals[3])+2*uint32(i), w); err != nil {
			return err
		}
	}
	return nil
}

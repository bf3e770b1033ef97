package zmachine

// ---------------------------------------------------------------------------
// Dictionary: encoded-word lookup and lexical analysis for read/tokenise
// ---------------------------------------------------------------------------

// Dictionary wraps one dictionary table: the story's main dictionary from
// the header, or a user dictionary passed to tokenise.
type Dictionary struct {
	mem  *Memory
	addr uint32

	separators []byte
	entryLen   uint32
	count      int
	entries    uint32 // address of the first entry
}

// NewDictionary parses the dictionary header at addr. addr 0 selects the
// story's main dictionary.
func NewDictionary(mem *Memory, addr Word) (*Dictionary, error) {
	if addr == 0 {
		addr = mem.Dictionary()
	}
	d := &Dictionary{mem: mem, addr: uint32(addr)}

	r := NewReader(mem, d.addr)
	nSep, err := r.NextByte()
	if err != nil {
		return nil, err
	}
	d.separators = make([]byte, nSep)
	for i := range d.separators {
		if d.separators[i], err = r.NextByte(); err != nil {
			return nil, err
		}
	}
	entryLen, err := r.NextByte()
	if err != nil {
		return nil, err
	}
	d.entryLen = uint32(entryLen)
	count, err := r.NextWord()
	if err != nil {
		return nil, err
	}
	// A negative count marks an unsorted user dictionary; lookup scans
	// linearly either way.
	d.count = int(count.Signed())
	if d.count < 0 {
		d.count = -d.count
	}
	d.entries = r.Addr()
	return d, nil
}

// IsSeparator reports whether c is one of the dictionary's word separators.
func (d *Dictionary) IsSeparator(c byte) bool {
	for _, s := range d.separators {
		if s == c {
			return true
		}
	}
	return false
}

// Lookup encodes word to dictionary resolution and returns the address of
// its entry, or 0 when absent.
func (d *Dictionary) Lookup(word string) (Word, error) {
	encoded := EncodeZText(d.mem.Version(), word)
	for i := 0; i < d.count; i++ {
		addr := d.entries + uint32(i)*d.entryLen
		match := true
		for j, w := range encoded {
			got, err := d.mem.Word(addr + uint32(j)*2)
			if err != nil {
				return 0, err
			}
			if got != w {
				match = false
				break
			}
		}
		if match {
			return Word(addr), nil
		}
	}
	return 0, nil
}

// ---------------------------------------------------------------------------
// Lexical analysis
// ---------------------------------------------------------------------------

// token is one word of player input: its text plus its byte position in the
// text buffer.
type token struct {
	text     string
	position int
}

// splitInput breaks a line into tokens at spaces and separators; separators
// are tokens of their own.
func (d *Dictionary) splitInput(line string) []token {
	var tokens []token
	start := -1
	flush := func(end int) {
		if start >= 0 {
			tokens = append(tokens, token{text: line[start:end], position: start})
			start = -1
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == ' ':
			flush(i)
		case d.IsSeparator(c):
			flush(i)
			tokens = append(tokens, token{text: string(c), position: i})
		default:
			if start < 0 {
				start = i
			}
		}
	}
	flush(len(line))
	return tokens
}

// Tokenize performs lexical analysis of the text buffer into the parse
// buffer. With skipUnknown set (tokenise opcode flag), entries for words not
// in the dictionary are left untouched instead of zeroed.
func Tokenize(mem *Memory, textAddr, parseAddr uint32, dictAddr Word, skipUnknown bool) error {
	d, err := NewDictionary(mem, dictAddr)
	if err != nil {
		return err
	}

	line, charBase, err := readTextBuffer(mem, textAddr)
	if err != nil {
		return err
	}
	tokens := d.splitInput(line)

	maxTokens, err := mem.Byte(parseAddr)
	if err != nil {
		return err
	}
	if len(tokens) > int(maxTokens) {
		tokens = tokens[:maxTokens]
	}
	if err := mem.WriteByte(parseAddr+1, byte(len(tokens))); err != nil {
		return err
	}

	for i, tok := range tokens {
		entry := parseAddr + 2 + 4*uint32(i)
		addr, err := d.Lookup(tok.text)
		if err != nil {
			return err
		}
		if addr == 0 && skipUnknown {
			continue
		}
		if err := mem.WriteWord(entry, addr); err != nil {
			return err
		}
		if err := mem.WriteByte(entry+2, byte(len(tok.text))); err != nil {
			return err
		}
		if err := mem.WriteByte(entry+3, byte(charBase+tok.position)); err != nil {
			return err
		}
	}
	return nil
}

// readTextBuffer extracts the typed line from a text buffer, returning the
// line and the buffer offset of its first character (for token positions).
// Through v4 the text is zero-terminated from byte 1; from v5 byte 1 holds
// the length and text starts at byte 2.
func readTextBuffer(mem *Memory, textAddr uint32) (string, int, error) {
	if mem.Version() >= 5 {
		n, err := mem.Byte(textAddr + 1)
		if err != nil {
			return "", 0, err
		}
		buf := make([]byte, n)
		for i := range buf {
			if buf[i], err = mem.Byte(textAddr + 2 + uint32(i)); err != nil {
				return "", 0, err
			}
		}
		return string(buf), 2, nil
	}

	var buf []byte
	for i := uint32(1); ; i++ {
		b, err := mem.Byte(textAddr + i)
		if err != nil {
			return "", 0, err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf), 1, nil
}

// WriteTextBuffer stores a typed line into a text buffer in the version's
// layout, lowercased and truncated to the buffer's capacity.
func WriteTextBuffer(mem *Memory, textAddr uint32, line string) error {
	maxLen, err := mem.Byte(textAddr)
	if err != nil {
		return err
	}
	line = lowerASCII(line)

	if mem.Version() >= 5 {
		if len(line) > int(maxLen) {
			line = line[:maxLen]
		}
		if err := mem.WriteByte(textAddr+1, byte(len(line))); err != nil {
			return err
		}
		for i := 0; i < len(line); i++ {
			if err := mem.WriteByte(textAddr+2+uint32(i), line[i]); err != nil {
				return err
			}
		}
		return nil
	}

	// v1-4: capacity is max-1 with a zero terminator.
	if maxLen > 0 && len(line) > int(maxLen)-1 {
		line = line[:maxLen-1]
	}
	for i := 0; i < len(line); i++ {
		if err := mem.WriteByte(textAddr+1+uint32(i), line[i]); err != nil {
			return err
		}
	}
	return mem.WriteByte(textAddr+1+uint32(len(line)), 0)
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 0x20
		}
	}
	return string(b)
}

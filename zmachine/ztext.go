package zmachine

import "strings"

// ---------------------------------------------------------------------------
// Z-text: 5-bit packed text decoding and dictionary encoding
// ---------------------------------------------------------------------------

// Each Z-text word packs three 5-bit Z-characters; bit 15 marks the final
// word. Z-chars 6..31 index one of three alphabets; low Z-chars are version
// dependent (newline/shift in v1-2, abbreviations in v3+).

const (
	alphabetLower  = 0
	alphabetUpper  = 1
	alphabetPunct  = 2
)

var defaultAlphabets = [3]string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	// Index 0 is the 10-bit ZSCII escape, index 1 the newline (v2+).
	"\x00\n0123456789.,!?_#'\"/\\-:()",
}

var v1Alphabets = [3]string{
	"abcdefghijklmnopqrstuvwxyz",
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"\x000123456789.,!?_#'\"/\\<-:()",
}

// splitZChars unpacks the three 5-bit characters of each word, stopping
// after the word with the terminator bit.
func splitZChars(words []Word) []byte {
	chars := make([]byte, 0, len(words)*3)
	for _, w := range words {
		chars = append(chars, byte(w>>10)&0x1f, byte(w>>5)&0x1f, byte(w)&0x1f)
		if w&0x8000 != 0 {
			break
		}
	}
	return chars
}

// alphabetsFor returns the three alphabet rows for the story, honoring a
// custom alphabet table in v5+.
func alphabetsFor(mem *Memory) [3]string {
	if mem.Version() == 1 {
		return v1Alphabets
	}
	if mem.Version() >= 5 {
		if table := mem.AlphabetTable(); table != 0 {
			var custom [3]string
			for row := 0; row < 3; row++ {
				var sb strings.Builder
				for i := 0; i < 26; i++ {
					b, err := mem.Byte(uint32(table) + uint32(row*26+i))
					if err != nil {
						return defaultAlphabets
					}
					sb.WriteByte(b)
				}
				custom[row] = sb.String()
			}
			// A2 positions 0 and 1 stay escape and newline regardless.
			custom[2] = "\x00\n" + custom[2][2:]
			return custom
		}
	}
	return defaultAlphabets
}

// DecodeZText decodes terminator-delimited Z-text words into a string,
// expanding abbreviations.
func DecodeZText(mem *Memory, words []Word) (string, error) {
	return decodeZChars(mem, splitZChars(words), true)
}

// DecodeZTextAt decodes the Z-string starting at addr.
func DecodeZTextAt(mem *Memory, addr uint32) (string, error) {
	words, err := NewReader(mem, addr).NextZWords()
	if err != nil {
		return "", err
	}
	return DecodeZText(mem, words)
}

func decodeZChars(mem *Memory, chars []byte, allowAbbrev bool) (string, error) {
	alphabets := alphabetsFor(mem)
	version := mem.Version()

	var sb strings.Builder
	current := alphabetLower // active alphabet for the next char
	locked := alphabetLower  // shift-lock base (v1-2 only)

	for i := 0; i < len(chars); i++ {
		z := chars[i]
		alpha := current
		current = locked

		switch {
		case z == 0:
			sb.WriteByte(' ')

		case z == 1 && version == 1:
			sb.WriteByte('\n')

		case z >= 1 && z <= 3 && abbreviationSet(version, z):
			if i+1 >= len(chars) {
				return sb.String(), nil // truncated abbreviation; emit what we have
			}
			i++
			if allowAbbrev {
				text, err := expandAbbreviation(mem, z, chars[i])
				if err != nil {
					return "", err
				}
				sb.WriteString(text)
			}

		case z == 2 || z == 3:
			// v1-2 shift: next char only.
			current = shiftAlphabet(locked, z)

		case z == 4 || z == 5:
			if version <= 2 {
				// Shift lock.
				locked = shiftAlphabet(locked, z-2)
				current = locked
			} else {
				// Single shift to A1 or A2.
				current = int(z) - 3
			}

		case z == 6 && alpha == alphabetPunct:
			// 10-bit ZSCII escape from the next two z-chars.
			if i+2 >= len(chars) {
				return sb.String(), nil
			}
			code := int(chars[i+1])<<5 | int(chars[i+2])
			i += 2
			writeZSCII(&sb, code)

		default:
			row := alphabets[alpha]
			if idx := int(z) - 6; idx < len(row) {
				if c := row[idx]; c != 0 {
					sb.WriteByte(c)
				}
			}
		}
	}
	return sb.String(), nil
}

// abbreviationSet reports whether z-char z introduces an abbreviation in
// this version: z=1 from v2, z=2 and 3 from v3.
func abbreviationSet(version, z byte) bool {
	if z == 1 {
		return version >= 2
	}
	return version >= 3
}

func shiftAlphabet(from int, z byte) int {
	if z == 2 {
		return (from + 1) % 3
	}
	return (from + 2) % 3
}

func expandAbbreviation(mem *Memory, set, index byte) (string, error) {
	entry := uint32(mem.Abbreviations()) + 2*(32*uint32(set-1)+uint32(index))
	wordAddr, err := mem.Word(entry)
	if err != nil {
		return "", err
	}
	words, err := NewReader(mem, uint32(wordAddr)*2).NextZWords()
	if err != nil {
		return "", err
	}
	// Abbreviations cannot nest.
	return decodeZChars(mem, splitZChars(words), false)
}

func writeZSCII(sb *strings.Builder, code int) {
	switch {
	case code == 13:
		sb.WriteByte('\n')
	case code >= 32 && code <= 126:
		sb.WriteByte(byte(code))
	}
	// Other ZSCII codes belong to the translation layer, which is out of
	// scope; they are dropped.
}

// ---------------------------------------------------------------------------
// Encoding (dictionary form)
// ---------------------------------------------------------------------------

// EncodeZText encodes text to the fixed dictionary resolution: 6 z-chars
// (two words) through v3, 9 z-chars (three words) from v4. Input beyond the
// resolution is truncated; short input pads with z-char 5.
func EncodeZText(version byte, text string) []Word {
	resolution := 6
	if version >= 4 {
		resolution = 9
	}

	alphabets := defaultAlphabets
	if version == 1 {
		alphabets = v1Alphabets
	}

	text = strings.ToLower(text)
	zchars := make([]byte, 0, resolution)
	for i := 0; i < len(text) && len(zchars) < resolution; i++ {
		c := text[i]
		switch {
		case c == ' ':
			zchars = append(zchars, 0)
		case c >= 'a' && c <= 'z':
			zchars = append(zchars, c-'a'+6)
		default:
			if idx := strings.IndexByte(alphabets[alphabetPunct][2:], c); idx >= 0 {
				zchars = append(zchars, 5, byte(idx)+8)
			} else {
				// ZSCII escape: shift, escape marker, then two 5-bit halves.
				zchars = append(zchars, 5, 6, c>>5, c&0x1f)
			}
		}
	}
	for len(zchars) < resolution {
		zchars = append(zchars, 5)
	}
	zchars = zchars[:resolution]

	words := make([]Word, resolution/3)
	for i := range words {
		words[i] = Word(zchars[i*3])<<10 | Word(zchars[i*3+1])<<5 | Word(zchars[i*3+2])
	}
	words[len(words)-1] |= 0x8000
	return words
}

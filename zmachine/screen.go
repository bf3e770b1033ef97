package zmachine

// ---------------------------------------------------------------------------
// Screen: host-provided presentation capability
// ---------------------------------------------------------------------------

// Text styles, combinable as a bit mask. SetTextStyle(StyleRoman) clears all.
const (
	StyleRoman     = 0
	StyleReverse   = 1
	StyleBold      = 2
	StyleItalic    = 4
	StyleFixedFont = 8
)

// Window numbers for the standard two-window model.
const (
	WindowLower = 0
	WindowUpper = 1
)

// Screen is the presentation capability the processor prints and reads
// through. Implementations live with the host; the core never renders.
//
// ReadChar and ReadLine are callback-style: the screen invokes the
// continuation once input is available, possibly synchronously. Between the
// request and the continuation the processor reports itself as awaiting
// input.
type Screen interface {
	Print(text string)
	PrintRune(r rune)

	ReadChar(k func(r rune))
	ReadLine(maxLen int, k func(line string))

	Clear(window int)
	ClearAll(unsplit bool)
	Split(lines int)
	Unsplit()
	SetWindow(window int)
	SetCursor(line, column int)
	SetTextStyle(style int)
	SetForegroundColor(color int)
	SetBackgroundColor(color int)
	ShowStatus(location string, score, turns int)

	Width() int
	Height() int

	SupportsColors() bool
	SupportsBold() bool
	SupportsItalic() bool
	SupportsFixedFont() bool
}

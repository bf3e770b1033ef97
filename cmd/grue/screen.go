package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/chazu/grue/zmachine"
)

// terminalScreen is a plain-terminal Screen: output goes to stdout, line
// input comes through liner, and window operations degrade gracefully to a
// single scrolling window.
type terminalScreen struct {
	width  int
	height int
	line   *liner.State
}

func newTerminalScreen(width, height int) *terminalScreen {
	return &terminalScreen{
		width:  width,
		height: height,
		line:   liner.NewLiner(),
	}
}

// Close restores the terminal state liner changed.
func (t *terminalScreen) Close() {
	t.line.Close()
}

func (t *terminalScreen) Print(text string) {
	fmt.Print(text)
}

func (t *terminalScreen) PrintRune(r rune) {
	fmt.Print(string(r))
}

// ReadLine delivers the typed line synchronously; the processor's
// continuation runs before ReadLine returns.
func (t *terminalScreen) ReadLine(maxLen int, k func(line string)) {
	input, err := t.line.Prompt("")
	if err != nil {
		// EOF or interrupt reads as an empty command.
		k("")
		return
	}
	if maxLen > 0 && len(input) > maxLen {
		input = input[:maxLen]
	}
	if strings.TrimSpace(input) != "" {
		t.line.AppendHistory(input)
	}
	k(input)
}

// ReadChar reads a line and delivers its first character; a bare return
// delivers newline.
func (t *terminalScreen) ReadChar(k func(r rune)) {
	input, err := t.line.Prompt("")
	if err != nil || input == "" {
		k('\n')
		return
	}
	k(rune(input[0]))
}

func (t *terminalScreen) Clear(window int)       {}
func (t *terminalScreen) ClearAll(unsplit bool)  { fmt.Print("\033[2J\033[H") }
func (t *terminalScreen) Split(lines int)        {}
func (t *terminalScreen) Unsplit()               {}
func (t *terminalScreen) SetWindow(window int)   {}
func (t *terminalScreen) SetCursor(line, col int) {}

func (t *terminalScreen) SetTextStyle(style int) {
	switch {
	case style == zmachine.StyleRoman:
		fmt.Print("\033[0m")
	case style&zmachine.StyleBold != 0:
		fmt.Print("\033[1m")
	case style&zmachine.StyleItalic != 0:
		fmt.Print("\033[3m")
	case style&zmachine.StyleReverse != 0:
		fmt.Print("\033[7m")
	}
}

func (t *terminalScreen) SetForegroundColor(color int) {}
func (t *terminalScreen) SetBackgroundColor(color int) {}

func (t *terminalScreen) ShowStatus(location string, score, turns int) {
	fmt.Fprintf(os.Stderr, "[%s  score: %d  turns: %d]\n", location, score, turns)
}

func (t *terminalScreen) Width() int  { return t.width }
func (t *terminalScreen) Height() int { return t.height }

func (t *terminalScreen) SupportsColors() bool    { return false }
func (t *terminalScreen) SupportsBold() bool      { return true }
func (t *terminalScreen) SupportsItalic() bool    { return true }
func (t *terminalScreen) SupportsFixedFont() bool { return true }

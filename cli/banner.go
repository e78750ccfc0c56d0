// Package cli renders boxed text for terminal output.
package cli

import (
	"strings"
	"unicode"
)

const (
	boxTopLeft     = "╒"
	boxBottomLeft  = "└"
	boxTopRight    = "╕"
	boxBottomRight = "┘"
	boxSide        = "│"
	boxTop         = "═"
	boxBottom      = "─"
	dividerLeft    = "┠"
	dividerMiddle  = "─"
	dividerRight   = "┨"
	ellipsis       = "…"

	// bannerPadding is the width taken by the two box sides.
	bannerPadding = 2
)

// Alignment of text inside a banner.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// DefaultWidth is the banner width used by the playersim summary.
const DefaultWidth = 80

// Divider returns a horizontal rule of the given width, newline terminated.
func Divider(width int) string {
	if width < bannerPadding {
		return "\n"
	}

	return dividerLeft + strings.Repeat(dividerMiddle, width-bannerPadding) + dividerRight + "\n"
}

// Banner draws s inside a box of the given total width. Lines longer than the
// box are truncated with an ellipsis. It returns "" for a non-positive width or
// an unknown alignment.
func Banner(s string, width int, alignment Alignment) string {
	if width <= bannerPadding {
		return ""
	}

	inner := width - bannerPadding

	var b strings.Builder

	b.WriteString(boxTopLeft + strings.Repeat(boxTop, inner) + boxTopRight + "\n")

	for _, line := range lines(s) {
		padded, ok := pad(line, inner, alignment)
		if !ok {
			return ""
		}

		b.WriteString(boxSide + padded + boxSide + "\n")
	}

	b.WriteString(boxBottomLeft + strings.Repeat(boxBottom, inner) + boxBottomRight)

	return b.String()
}

func lines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")

	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// countGraphic returns the number of printable runes in s.
func countGraphic(s string) int {
	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			count++
		}
	}

	return count
}

// truncate keeps the first n printable runes of s.
func truncate(s string, n int) string {
	var b strings.Builder

	count := 0

	for _, r := range s {
		if unicode.IsGraphic(r) {
			if count == n {
				break
			}

			count++
		}

		b.WriteRune(r)
	}

	return b.String()
}

func pad(text string, width int, alignment Alignment) (string, bool) {
	length := countGraphic(text)
	if length > width {
		text = truncate(text, width-1) + ellipsis
		length = width
	}

	diff := width - length

	switch alignment {
	case AlignLeft:
		return text + strings.Repeat(" ", diff), true
	case AlignRight:
		return strings.Repeat(" ", diff) + text, true
	case AlignCenter:
		left := diff / 2 //nolint:mnd

		return strings.Repeat(" ", left) + text + strings.Repeat(" ", diff-left), true
	default:
		return "", false
	}
}

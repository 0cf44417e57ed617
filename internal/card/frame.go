// Package card renders strategies as framed ASCII cards and animates their
// reveal through message edits.
package card

import (
	"math/rand/v2"
	"strings"
	"time"
)

const (
	// MaxLines caps the wrapped card body.
	MaxLines = 10
	// MinWidth and MaxWidth bound the inner card width.
	MinWidth = 24
	MaxWidth = 48

	targetHeightRatio = 0.20
	maxExtraRows      = 10
)

// Style describes one card frame: corner and edge glyphs plus an ornament
// centered in the header and mirrored in the footer.
type Style struct {
	TL, TR, BL, BR string
	H, V           string
	Ornament       string
}

var styles = []Style{
	{TL: "╭", TR: "╮", BL: "╰", BR: "╯", H: "─", V: "│", Ornament: "☽☾"},
	{TL: "┏", TR: "┓", BL: "┗", BR: "┛", H: "━", V: "┃", Ornament: "✦✦"},
	{TL: "┌", TR: "┐", BL: "└", BR: "┘", H: "─", V: "│", Ornament: "❖"},
	{TL: "╔", TR: "╗", BL: "╚", BR: "╝", H: "═", V: "║", Ornament: "✶✶"},
}

// RandomStyle picks one of the frame styles uniformly.
func RandomStyle() Style {
	return styles[rand.IntN(len(styles))]
}

// Flipped returns the style with its ornament reversed, used for the end-of-reveal flicker.
func (s Style) Flipped() Style {
	flipped := s
	flipped.Ornament = reverseRunes(s.Ornament)
	return flipped
}

// InnerWidth computes the card's inner width for the given text: wide enough
// for the longest word plus breathing room, clamped to [MinWidth, MaxWidth].
func InnerWidth(text string) int {
	longest := 6
	for _, word := range strings.Fields(text) {
		if n := len([]rune(word)); n > longest {
			longest = n
		}
	}

	width := longest + 8
	if width < MinWidth {
		width = MinWidth
	}
	if width > MaxWidth {
		width = MaxWidth
	}
	return width
}

// WrapText wraps text into centered card lines of at most width runes without
// breaking words, capped at MaxLines.
func WrapText(text string, width int) []string {
	if width < 8 {
		width = 8
	}

	var lines []string
	var current []string
	currentLen := 0

	for _, word := range strings.Fields(text) {
		wordLen := len([]rune(word))

		switch {
		case currentLen == 0:
			current = []string{word}
			currentLen = wordLen
		case currentLen+1+wordLen <= width:
			current = append(current, word)
			currentLen += 1 + wordLen
		default:
			lines = append(lines, strings.Join(current, " "))
			current = []string{word}
			currentLen = wordLen
		}
	}

	if currentLen > 0 {
		lines = append(lines, strings.Join(current, " "))
	}

	if len(lines) > MaxLines {
		lines = lines[:MaxLines]
	}
	return lines
}

// SquarePadding returns top and bottom blank rows that bring the card close
// to a square-ish aspect for the given width and body line count.
func SquarePadding(width, lineCount int) (top, bottom int) {
	target := int(float64(width) * targetHeightRatio)
	if target < lineCount+2 {
		target = lineCount + 2
	}
	if max := lineCount + maxExtraRows; target > max {
		target = max
	}

	extra := target - lineCount
	if extra < 0 {
		extra = 0
	}

	top = extra / 2
	bottom = extra - top
	return top, bottom
}

// PadBody surrounds the body lines with the computed blank padding rows.
func PadBody(lines []string, padTop, padBottom int) []string {
	out := make([]string, 0, padTop+len(lines)+padBottom)
	for i := 0; i < padTop; i++ {
		out = append(out, "")
	}
	out = append(out, lines...)
	for i := 0; i < padBottom; i++ {
		out = append(out, "")
	}
	return out
}

// Build renders the framed card with the provided body lines, each centered
// to the inner width.
func Build(lines []string, style Style, width int) string {
	head := padCenter(style.Ornament, width)
	foot := padCenter(reverseRunes(style.Ornament), width)

	top := style.TL + strings.Repeat(style.H, width+2) + style.TR
	bottom := style.BL + strings.Repeat(style.H, width+2) + style.BR
	blank := style.V + " " + strings.Repeat(" ", width) + " " + style.V

	var b strings.Builder
	b.WriteString(top)
	b.WriteString("\n" + style.V + " " + head + " " + style.V)
	b.WriteString("\n" + blank)
	for _, line := range lines {
		b.WriteString("\n" + style.V + " " + padCenter(line, width) + " " + style.V)
	}
	b.WriteString("\n" + blank)
	b.WriteString("\n" + style.V + " " + foot + " " + style.V)
	b.WriteString("\n" + bottom)
	return b.String()
}

// Fence wraps the rendered card in an HTML <pre> block so Telegram clients
// keep the alignment.
func Fence(s string) string {
	return "<pre>" + htmlEscaper.Replace(s) + "</pre>"
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func padCenter(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return string(runes[:width])
	}

	left := (width - len(runes)) / 2
	right := width - len(runes) - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

func reverseRunes(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// Pacing controls reveal animation timing and the rare-event probability.
type Pacing struct {
	LineRevealMin   time.Duration `mapstructure:"line_reveal_min"`
	LineRevealMax   time.Duration `mapstructure:"line_reveal_max"`
	GlitchMin       time.Duration `mapstructure:"glitch_min"`
	GlitchMax       time.Duration `mapstructure:"glitch_max"`
	DripStep        time.Duration `mapstructure:"drip_step"`
	SettlePause     time.Duration `mapstructure:"settle_pause"`
	FlickerPause    time.Duration `mapstructure:"flicker_pause"`
	RareEventChance float64       `mapstructure:"rare_event_chance"`
}

// DefaultPacing mirrors the tuned production timings.
func DefaultPacing() Pacing {
	return Pacing{
		LineRevealMin:   280 * time.Millisecond,
		LineRevealMax:   650 * time.Millisecond,
		GlitchMin:       80 * time.Millisecond,
		GlitchMax:       180 * time.Millisecond,
		DripStep:        60 * time.Millisecond,
		SettlePause:     220 * time.Millisecond,
		FlickerPause:    160 * time.Millisecond,
		RareEventChance: 0.012,
	}
}

func (p Pacing) withDefaults() Pacing {
	def := DefaultPacing()
	if p.LineRevealMin <= 0 {
		p.LineRevealMin = def.LineRevealMin
	}
	if p.LineRevealMax < p.LineRevealMin {
		p.LineRevealMax = p.LineRevealMin
	}
	if p.GlitchMin <= 0 {
		p.GlitchMin = def.GlitchMin
	}
	if p.GlitchMax < p.GlitchMin {
		p.GlitchMax = p.GlitchMin
	}
	if p.DripStep <= 0 {
		p.DripStep = def.DripStep
	}
	if p.SettlePause <= 0 {
		p.SettlePause = def.SettlePause
	}
	if p.FlickerPause <= 0 {
		p.FlickerPause = def.FlickerPause
	}
	if p.RareEventChance <= 0 || p.RareEventChance >= 1 {
		p.RareEventChance = def.RareEventChance
	}
	return p
}

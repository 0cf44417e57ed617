package card

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInnerWidth(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want int
	}{
		{name: "short text clamps to minimum", text: "hi", want: MinWidth},
		{name: "long word widens the card", text: strings.Repeat("x", 30), want: 38},
		{name: "very long word clamps to maximum", text: strings.Repeat("x", 100), want: MaxWidth},
		{name: "empty text uses the floor", text: "", want: MinWidth},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, InnerWidth(tc.text))
		})
	}
}

func TestWrapText_NeverBreaksWords(t *testing.T) {
	text := "honor thy error as a hidden intention and abandon normal instruments"
	lines := WrapText(text, 24)

	for _, line := range lines {
		assert.LessOrEqual(t, len([]rune(line)), 24)
	}

	assert.Equal(t, strings.Fields(text), strings.Fields(strings.Join(lines, " ")))
}

func TestWrapText_CapsLineCount(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 200))
	lines := WrapText(text, 8)

	assert.Len(t, lines, MaxLines)
}

func TestSquarePadding(t *testing.T) {
	top, bottom := SquarePadding(40, 2)

	// target height is width*0.20 = 8, so 6 extra rows split 3/3
	assert.Equal(t, 3, top)
	assert.Equal(t, 3, bottom)

	top, bottom = SquarePadding(24, 20)
	assert.Equal(t, 1, top)
	assert.Equal(t, 1, bottom, "padding never drops below lines+2")
}

func TestBuild_RowsAreUniform(t *testing.T) {
	for _, style := range styles {
		rendered := Build([]string{"alpha", "beta"}, style, 30)
		rows := strings.Split(rendered, "\n")

		require.GreaterOrEqual(t, len(rows), 6)
		want := len([]rune(rows[0]))
		for i, row := range rows {
			assert.Equal(t, want, len([]rune(row)), "row %d has different width", i)
		}
	}
}

func TestBuild_CentersBody(t *testing.T) {
	rendered := Build([]string{"core"}, styles[0], 24)
	assert.Contains(t, rendered, padCenter("core", 24))
}

func TestFence_EscapesHTML(t *testing.T) {
	fenced := Fence("a < b & c > d")

	assert.True(t, strings.HasPrefix(fenced, "<pre>"))
	assert.True(t, strings.HasSuffix(fenced, "</pre>"))
	assert.Contains(t, fenced, "a &lt; b &amp; c &gt; d")
}

func TestPadCenter(t *testing.T) {
	assert.Equal(t, "  ab  ", padCenter("ab", 6))
	assert.Equal(t, " abc  ", padCenter("abc", 6))
	assert.Equal(t, "abcdef", padCenter("abcdefgh", 6), "overflow is truncated")
}

func TestStyleFlipped(t *testing.T) {
	style := Style{Ornament: "☽☾"}
	assert.Equal(t, "☾☽", style.Flipped().Ornament)
}

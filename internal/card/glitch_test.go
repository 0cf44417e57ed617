package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlitch_PreservesSpacesAndLength(t *testing.T) {
	line := "some card text"
	glitched := Glitch(line, 1.0)

	assert.Equal(t, len([]rune(line)), len([]rune(glitched)))
	for i, r := range []rune(glitched) {
		if []rune(line)[i] == ' ' {
			assert.Equal(t, ' ', r, "space at %d must survive glitching", i)
		}
	}
}

func TestGlitch_ZeroIntensityIsIdentity(t *testing.T) {
	line := "untouched"
	assert.Equal(t, line, Glitch(line, 0))
}

func TestCorrupt_ReplacesEveryGlyph(t *testing.T) {
	line := "ab cd"
	corrupted := []rune(Corrupt(line))

	assert.Equal(t, ' ', corrupted[2])
	for _, i := range []int{0, 1, 3, 4} {
		assert.NotEqual(t, []rune(line)[i], corrupted[i])
	}
}

func TestApplyMask(t *testing.T) {
	lines := []string{"abc"}
	revealed := [][]bool{{true, false, true}}

	assert.Equal(t, []string{"a c"}, ApplyMask(lines, revealed))
}

func TestApplyMask_MissingMaskHidesAll(t *testing.T) {
	assert.Equal(t, []string{"   "}, ApplyMask([]string{"abc"}, nil))
}

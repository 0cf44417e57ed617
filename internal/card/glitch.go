package card

import "math/rand/v2"

var glitchGlyphs = []rune("▒▓░◼◻◾◽▞▚▣▤▥▦▧▨▩◆◇◈✧✦✴✹✺✵✷✸✢✣✤✥※¤•·")

func randomGlyph() rune {
	return glitchGlyphs[rand.IntN(len(glitchGlyphs))]
}

// Glitch replaces non-space runes with random glyphs at the given intensity.
func Glitch(line string, intensity float64) string {
	runes := []rune(line)
	for i, r := range runes {
		if r != ' ' && rand.Float64() < intensity {
			runes[i] = randomGlyph()
		}
	}
	return string(runes)
}

// GlitchAll applies Glitch to every line.
func GlitchAll(lines []string, intensity float64) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = Glitch(line, intensity)
	}
	return out
}

// Corrupt replaces every non-space rune with a glitch glyph.
func Corrupt(line string) string {
	runes := []rune(line)
	for i, r := range runes {
		if r != ' ' {
			runes[i] = randomGlyph()
		}
	}
	return string(runes)
}

// ApplyMask shows only the runes whose mask entry is true, spaces elsewhere.
func ApplyMask(lines []string, revealed [][]bool) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		runes := []rune(line)
		masked := make([]rune, len(runes))
		for j := range runes {
			if i < len(revealed) && j < len(revealed[i]) && revealed[i][j] {
				masked[j] = runes[j]
			} else {
				masked[j] = ' '
			}
		}
		out[i] = string(masked)
	}
	return out
}

package components

// flapGlyphs are the characters a split-flap cell cycles through before it
// lands on its target.
const flapGlyphs = "0123456789.M$#%"

// FlapLag is how many steps the first character flaps before settling.
const FlapLag = 3

// Flap renders target as a split-flap display at the given step. Characters
// settle left to right, one per step after FlapLag; unsettled characters
// show a deterministic flap glyph. Spaces never flap.
func Flap(target string, step int) string {
	runes := []rune(target)
	out := make([]rune, len(runes))
	glyphs := []rune(flapGlyphs)

	for i, r := range runes {
		switch {
		case r == ' ' || step >= i+FlapLag:
			out[i] = r
		default:
			idx := (step*7 + i*3) % len(glyphs)
			if idx < 0 {
				idx += len(glyphs)
			}
			out[i] = glyphs[idx]
		}
	}
	return string(out)
}

// FlapSteps returns the step at which Flap(target, step) equals target.
func FlapSteps(target string) int {
	n := len([]rune(target))
	if n == 0 {
		return 0
	}
	return n - 1 + FlapLag
}

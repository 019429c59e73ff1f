package export

import "strings"

// Measurer reports the rendered width of s in the device's current
// font. It is the one capability the wrapper needs from the underlying
// document writer.
type Measurer func(s string) (float64, error)

// MeasurePlaceholder replaces a token whose width cannot be measured.
// Wrapping continues with the placeholder; if the placeholder itself
// cannot be measured the token is dropped. Either way the export
// finishes instead of crashing.
const MeasurePlaceholder = "[?]"

// Wrap breaks text into lines whose measured width stays within
// maxWidth. Breaks happen only at whitespace: a single token wider than
// maxWidth is placed alone on its line and never split. Re-joining the
// returned lines with single spaces reproduces the input's
// whitespace-delimited token sequence.
func Wrap(text string, maxWidth float64, measure Measurer) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}

	var lines []string
	var line string

	for _, tok := range tokens {
		if _, err := measure(tok); err != nil {
			tok = MeasurePlaceholder
			if _, err := measure(tok); err != nil {
				continue
			}
		}

		if line == "" {
			line = tok
			continue
		}

		joined := line + " " + tok
		w, err := measure(joined)
		if err != nil || w > maxWidth {
			lines = append(lines, line)
			line = tok
			continue
		}
		line = joined
	}

	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

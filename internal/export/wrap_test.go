package export

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// runeWidth measures one point per rune, which keeps expected widths
// readable in tests.
func runeWidth(s string) (float64, error) {
	return float64(len([]rune(s))), nil
}

// TestWrap tests line breaking at whitespace boundaries.
func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		want     []string
	}{
		{
			name:     "empty",
			text:     "",
			maxWidth: 10,
			want:     nil,
		},
		{
			name:     "whitespace only",
			text:     " \t\n  ",
			maxWidth: 10,
			want:     nil,
		},
		{
			name:     "single short token",
			text:     "hola",
			maxWidth: 10,
			want:     []string{"hola"},
		},
		{
			name:     "greedy fill",
			text:     "hola mundo cruel",
			maxWidth: 10,
			want:     []string{"hola mundo", "cruel"},
		},
		{
			name:     "exact fit",
			text:     "abcd efghi",
			maxWidth: 10,
			want:     []string{"abcd efghi"},
		},
		{
			name:     "one over",
			text:     "abcde fghij",
			maxWidth: 10,
			want:     []string{"abcde", "fghij"},
		},
		{
			name:     "oversized token alone",
			text:     "extraordinarisimo",
			maxWidth: 10,
			want:     []string{"extraordinarisimo"},
		},
		{
			name:     "oversized token between short ones",
			text:     "a extraordinarisimo b",
			maxWidth: 10,
			want:     []string{"a", "extraordinarisimo", "b"},
		},
		{
			name:     "mixed whitespace collapses",
			text:     "hola\n\t mundo  ",
			maxWidth: 20,
			want:     []string{"hola mundo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.maxWidth, runeWidth)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Wrap() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestWrapWidthBoundAndLosslessness tests the two wrapping properties:
// no line (of in-budget tokens) measures wider than maxWidth, and
// re-joining the lines with single spaces preserves the token sequence.
func TestWrapWidthBoundAndLosslessness(t *testing.T) {
	texts := []string{
		"Isabel I de Castilla, llamada la Católica, fue reina de Castilla desde 1474 hasta 1504.",
		"uno dos tres cuatro cinco seis siete ocho nueve diez",
		"palabra",
		"  espacios   repetidos   por   todas   partes  ",
	}

	for _, text := range texts {
		for _, maxWidth := range []float64{8, 15, 30, 72} {
			lines := Wrap(text, maxWidth, runeWidth)

			for _, ln := range lines {
				w, _ := runeWidth(ln)
				if tokens := strings.Fields(ln); len(tokens) > 1 && w > maxWidth {
					t.Errorf("Wrap(%.0f): line %q measures %.0f", maxWidth, ln, w)
				}
			}

			got := strings.Fields(strings.Join(lines, " "))
			want := strings.Fields(text)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Wrap(%.0f): token sequence changed: got %q, want %q", maxWidth, got, want)
			}
		}
	}
}

// TestWrapMeasureFailure tests the documented failure policy: an
// unmeasurable token is replaced by the placeholder, and dropped when
// even the placeholder cannot be measured.
func TestWrapMeasureFailure(t *testing.T) {
	errNoGlyphs := errors.New("no glyphs")

	t.Run("placeholder substituted", func(t *testing.T) {
		measure := func(s string) (float64, error) {
			if s == "xX" {
				return 0, errNoGlyphs
			}
			return runeWidth(s)
		}

		lines := Wrap("hola xX mundo", 100, measure)
		joined := strings.Join(lines, " ")
		if joined != "hola "+MeasurePlaceholder+" mundo" {
			t.Errorf("joined = %q", joined)
		}
	})

	t.Run("token dropped when placeholder unmeasurable", func(t *testing.T) {
		measure := func(s string) (float64, error) {
			if s == "xX" || s == MeasurePlaceholder {
				return 0, errNoGlyphs
			}
			return runeWidth(s)
		}

		lines := Wrap("hola xX mundo", 100, measure)
		joined := strings.Join(lines, " ")
		if joined != "hola mundo" {
			t.Errorf("joined = %q", joined)
		}
	})

	t.Run("everything unmeasurable yields no lines", func(t *testing.T) {
		measure := func(string) (float64, error) { return 0, errNoGlyphs }
		if lines := Wrap("hola mundo", 100, measure); lines != nil {
			t.Errorf("Wrap() = %q, want nil", lines)
		}
	})
}

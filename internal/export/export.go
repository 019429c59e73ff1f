// Package export builds the PDF transcript of a chat session: a cover
// page, the role-labeled conversation, and the citation list for the
// current answer. Pagination is manual, on top of the PDF writer's
// measurement and drawing primitives: lines are wrapped against the
// column width, a vertical cursor tracks the page, and the page breaks
// before a line would overflow the bottom margin.
package export

import (
	"fmt"
	"time"
)

// Product is the fixed identifier prefixed to exported filenames.
const Product = "isabel-chat"

// DefaultTitle is the cover title used when none is configured.
const DefaultTitle = "Conversación con Isabel"

// A4 portrait, in points.
var defaultGeometry = Geometry{Width: 595.28, Height: 841.89, Margin: 54}

// Vertical rhythm of the transcript pages.
const (
	bodyLineHeight = 16.0
	blockGap       = 10.0
	bulletIndent   = 12.0
)

var (
	titleFont   = FontStyle{Size: 22, Bold: true}
	coverFont   = FontStyle{Size: 12}
	stampFont   = FontStyle{Size: 10, Italic: true}
	headingFont = FontStyle{Size: 12, Bold: true}
	bodyFont    = FontStyle{Size: 11}
)

// Transcript section strings. The product speaks Spanish.
const (
	userLabel      = "Estudiante"
	assistantLabel = "Isabel"
	sourcesHeading = "Fuentes"
)

// Filename returns the artifact name for an export performed at now:
// the product identifier plus the date.
func Filename(now time.Time) string {
	return fmt.Sprintf("%s_%s.pdf", Product, now.Format("2006-01-02"))
}

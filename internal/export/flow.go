package export

// Geometry fixes the page frame for a whole document, in points.
type Geometry struct {
	Width  float64
	Height float64
	Margin float64
}

// limit is the lowest y a baseline may reach.
func (g Geometry) limit() float64 {
	return g.Height - g.Margin
}

// column is the writable width between the margins.
func (g Geometry) column() float64 {
	return g.Width - 2*g.Margin
}

// FontStyle selects the face the canvas measures and draws with.
type FontStyle struct {
	Size   float64
	Bold   bool
	Italic bool
}

// Canvas is the drawing surface a Flow writes to. The PDF writer
// implements it; tests use a recording fake.
type Canvas interface {
	// StartPage opens a fresh page; subsequent draws land on it.
	StartPage()
	// SetFont selects the font used by Measure and DrawText.
	SetFont(f FontStyle)
	// Measure reports the rendered width of s in the current font.
	Measure(s string) (float64, error)
	// DrawText draws one line of text with its baseline at y.
	DrawText(x, y float64, s string)
}

// flowState tracks the paginator between writes.
type flowState int

const (
	// writingPage means the cursor points at usable space.
	writingPage flowState = iota
	// pageBreakPending means the next write must open a new page
	// first. The flow never returns to the caller in this state.
	pageBreakPending
)

// String returns the state name.
func (s flowState) String() string {
	switch s {
	case writingPage:
		return "WritingPage"
	case pageBreakPending:
		return "PageBreakPending"
	default:
		return "Unknown"
	}
}

// Flow lays text blocks onto pages: it wraps them to the column width,
// tracks a vertical cursor, and breaks the page before any line that
// would cross the bottom margin. Creating a Flow opens its first page.
type Flow struct {
	canvas     Canvas
	geom       Geometry
	lineHeight float64
	gap        float64
	y          float64
	state      flowState
}

// NewFlow starts a page flow on a fresh page with the cursor at the top
// margin.
func NewFlow(c Canvas, g Geometry, lineHeight, gap float64) *Flow {
	c.StartPage()
	return &Flow{
		canvas:     c,
		geom:       g,
		lineHeight: lineHeight,
		gap:        gap,
		y:          g.Margin,
		state:      writingPage,
	}
}

// ensure opens a new page when h more points would cross the bottom
// margin. The break is atomic: callers never observe the pending state.
func (f *Flow) ensure(h float64) {
	if f.y+h > f.geom.limit() {
		f.state = pageBreakPending
		f.canvas.StartPage()
		f.y = f.geom.Margin
		f.state = writingPage
	}
}

// line advances the cursor and draws s at x.
func (f *Flow) line(x float64, s string) {
	f.ensure(f.lineHeight)
	f.y += f.lineHeight
	f.canvas.DrawText(x, f.y, s)
}

// WriteHeading writes a single heading line, kept on the same page as
// at least one following body line: if the heading plus one line do not
// fit, the page breaks first.
func (f *Flow) WriteHeading(text string, font FontStyle) {
	f.ensure(2 * f.lineHeight)
	f.canvas.SetFont(font)
	f.y += f.lineHeight
	f.canvas.DrawText(f.geom.Margin, f.y, text)
}

// WriteBlock wraps text to the column width and writes it line by
// line, breaking pages as needed.
func (f *Flow) WriteBlock(text string, font FontStyle) {
	f.canvas.SetFont(font)
	for _, ln := range Wrap(text, f.geom.column(), f.canvas.Measure) {
		f.line(f.geom.Margin, ln)
	}
}

// WriteBullet writes text as one bulleted block with a hanging indent:
// continuation lines align under the first line's text, not the bullet.
func (f *Flow) WriteBullet(text string, font FontStyle) {
	f.canvas.SetFont(font)
	lines := Wrap(text, f.geom.column()-bulletIndent, f.canvas.Measure)
	for i, ln := range lines {
		f.ensure(f.lineHeight)
		f.y += f.lineHeight
		if i == 0 {
			f.canvas.DrawText(f.geom.Margin, f.y, "•")
		}
		f.canvas.DrawText(f.geom.Margin+bulletIndent, f.y, ln)
	}
}

// Gap advances the cursor by the inter-block gap. When the gap alone
// would cross the bottom margin it is clamped there instead: the break
// happens with the next line, so a trailing gap never produces an
// empty page.
func (f *Flow) Gap() {
	f.y += f.gap
	if lim := f.geom.limit(); f.y > lim {
		f.y = lim
	}
}

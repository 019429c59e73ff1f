package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-pdf/fpdf"

	"github.com/trastamara/isabel-chat/internal/transcript"
)

// Options configure the cover page. All fields are resolved by the
// caller at construction; the exporter reads no ambient configuration.
type Options struct {
	// Title is the cover title; DefaultTitle when empty.
	Title string
	// Institution is an optional line under the title.
	Institution string
	// Student is an optional line under the institution.
	Student string
	// LogoPath is an optional cover image. When it cannot be loaded
	// the cover renders without it.
	LogoPath string
}

// Exporter renders a conversation and its current citation set into a
// complete PDF document.
type Exporter struct {
	opts Options
	geom Geometry
}

// New returns an Exporter for the given cover options.
func New(opts Options) *Exporter {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	return &Exporter{opts: opts, geom: defaultGeometry}
}

// WriteTo renders the document into w and returns the page count. The
// document always contains the cover and the conversation flow; the
// citations section is present only when citations is non-empty.
func (e *Exporter) WriteTo(w io.Writer, turns []transcript.Turn, citations []transcript.Citation) (int, error) {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetTitle(e.opts.Title, true)
	doc.SetAutoPageBreak(false, 0)
	canvas := newPDFCanvas(doc)

	e.cover(doc, canvas)

	flow := NewFlow(canvas, e.geom, bodyLineHeight, blockGap)
	for _, t := range turns {
		flow.WriteHeading(roleLabel(t.Role), headingFont)
		flow.WriteBlock(t.Text, bodyFont)
		flow.Gap()
	}

	if len(citations) > 0 {
		cites := NewFlow(canvas, e.geom, bodyLineHeight, blockGap)
		cites.WriteHeading(sourcesHeading, headingFont)
		cites.Gap()
		for _, c := range citations {
			cites.WriteBullet(citationText(c), bodyFont)
			cites.Gap()
		}
	}

	if doc.Err() {
		return 0, fmt.Errorf("export: rendering: %w", doc.Error())
	}
	if err := doc.Output(w); err != nil {
		return 0, fmt.Errorf("export: writing document: %w", err)
	}
	return doc.PageCount(), nil
}

const (
	coverLogoWidth = 120.0
	coverLineStep  = 26.0
)

// cover draws the title page: optional logo, title, optional
// institution and student lines, timestamp. A logo that fails to load
// is skipped without failing the export.
func (e *Exporter) cover(doc *fpdf.Fpdf, c *pdfCanvas) {
	c.StartPage()

	titleY := e.geom.Height * 0.35
	if e.opts.LogoPath != "" {
		if info, err := e.loadLogo(doc); err != nil {
			log.Debug("cover image skipped", "path", e.opts.LogoPath, "err", err)
		} else {
			h := coverLogoWidth * info.Height() / info.Width()
			drawImage(doc, e.opts.LogoPath, (e.geom.Width-coverLogoWidth)/2, titleY-h-40, coverLogoWidth)
		}
	}

	y := e.coverLines(c, titleY, e.opts.Title, titleFont)
	y += 14
	if e.opts.Institution != "" {
		y = e.coverLines(c, y, e.opts.Institution, coverFont)
	}
	if e.opts.Student != "" {
		y = e.coverLines(c, y, e.opts.Student, coverFont)
	}
	y += 14
	e.coverLines(c, y, time.Now().Format("02/01/2006 15:04"), stampFont)
}

// coverLines writes s centered, wrapped to the column, and returns the
// y below the last line.
func (e *Exporter) coverLines(c *pdfCanvas, y float64, s string, f FontStyle) float64 {
	c.SetFont(f)
	for _, ln := range Wrap(s, e.geom.column(), c.Measure) {
		x := e.geom.Margin
		if w, err := c.Measure(ln); err == nil && w < e.geom.Width {
			x = (e.geom.Width - w) / 2
		}
		c.DrawText(x, y, ln)
		y += coverLineStep
	}
	return y
}

func (e *Exporter) loadLogo(doc *fpdf.Fpdf) (*fpdf.ImageInfoType, error) {
	data, err := os.ReadFile(e.opts.LogoPath)
	if err != nil {
		return nil, err
	}
	return registerImage(doc, e.opts.LogoPath, data)
}

// roleLabel returns the transcript heading for a turn's author.
func roleLabel(r transcript.Role) string {
	if r == transcript.RoleUser {
		return userLabel
	}
	return assistantLabel
}

// citationText renders one citation as "filename — pág. N — snippet",
// omitting the page when the source carried none.
func citationText(c transcript.Citation) string {
	parts := []string{c.Filename}
	if c.Page > 0 {
		parts = append(parts, fmt.Sprintf("pág. %d", c.Page))
	}
	if c.Snippet != "" {
		parts = append(parts, c.Snippet)
	}
	return strings.Join(parts, " — ")
}

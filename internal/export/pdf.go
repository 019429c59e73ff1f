package export

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
)

const pdfFontFamily = "Helvetica"

// pdfCanvas adapts an fpdf document to the Canvas interface. Text is
// routed through a cp1252 translator so Spanish accents render with
// the core fonts.
type pdfCanvas struct {
	doc *fpdf.Fpdf
	tr  func(string) string
}

func newPDFCanvas(doc *fpdf.Fpdf) *pdfCanvas {
	return &pdfCanvas{doc: doc, tr: doc.UnicodeTranslatorFromDescriptor("")}
}

func (c *pdfCanvas) StartPage() {
	c.doc.AddPage()
}

func (c *pdfCanvas) SetFont(f FontStyle) {
	style := ""
	if f.Bold {
		style += "B"
	}
	if f.Italic {
		style += "I"
	}
	c.doc.SetFont(pdfFontFamily, style, f.Size)
}

func (c *pdfCanvas) Measure(s string) (float64, error) {
	w := c.doc.GetStringWidth(c.tr(s))
	if c.doc.Err() {
		return 0, c.doc.Error()
	}
	return w, nil
}

func (c *pdfCanvas) DrawText(x, y float64, s string) {
	c.doc.Text(x, y, c.tr(s))
}

// registerImage decodes name's type from its extension and registers
// the bytes under name. It validates the image against a scratch
// document first: a broken image must not poison the real document's
// error state, it is simply reported.
func registerImage(doc *fpdf.Fpdf, name string, data []byte) (*fpdf.ImageInfoType, error) {
	opts := fpdf.ImageOptions{
		ImageType: strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
		ReadDpi:   true,
	}

	probe := fpdf.New("P", "pt", "A4", "")
	probe.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if probe.Err() {
		return nil, probe.Error()
	}

	info := doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if doc.Err() {
		return nil, doc.Error()
	}
	return info, nil
}

// drawImage places a registered image at (x, y) scaled to width w,
// keeping its aspect ratio.
func drawImage(doc *fpdf.Fpdf, name string, x, y, w float64) {
	opts := fpdf.ImageOptions{
		ImageType: strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."),
	}
	doc.ImageOptions(name, x, y, w, 0, false, opts, 0, "")
}

// Package pdfexport turns a composed report into a PDF file. The primary
// backend drives headless Chrome; a from-scratch text-only writer keeps
// export working on machines without a Chrome binary.
package pdfexport

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cyrildacostabolant/Cahier-test/record"
	"github.com/cyrildacostabolant/Cahier-test/report"
)

// Fallback page geometry: A4 portrait, millimetres.
const (
	pageWidthMM  = 210.0
	pageHeightMM = 297.0
	marginMM     = 20.0
	bodySize     = 11.0
	headingSize  = 14.0
	coverSize    = 22.0
	lineHeightMM = 5.5
	blockGapMM   = 4.0
	mmToPt       = 2.83465
)

// FallbackExporter renders a record as a text-only PDF without any
// external rasterizer. Rich-text markup is flattened to plain lines.
type FallbackExporter struct{}

// NewFallbackExporter creates a fallback exporter instance.
func NewFallbackExporter() *FallbackExporter {
	return &FallbackExporter{}
}

// Export writes doc to filePath as a paginated text rendition: cover
// page, tracking query, environment, every step in order, conclusion.
// A block that would straddle a page boundary starts on a fresh page
// when it fits on one.
func (e *FallbackExporter) Export(doc record.Document, filePath string) error {
	pdf := newPDFDocument()
	l := &layout{doc: pdf}

	l.cover(doc)
	l.newPage()

	block := []blockLine{{text: "Suivi", size: headingSize}}
	block = append(block, wrapLines(report.TrackingQuery(doc.JiraNumber), bodySize, 0)...)
	l.block(block)

	l.block([]blockLine{{text: "Environnement : " + doc.Environment.Label(), size: bodySize}})
	if doc.AttachedImage != "" {
		l.block([]blockLine{{text: "[capture jointe, non rendue en mode texte]", size: bodySize}})
	}

	for _, step := range doc.Steps {
		lines := []blockLine{{text: step.Title, size: headingSize}}
		for _, raw := range flattenMarkup(step.Content) {
			lines = append(lines, wrapLines(raw, bodySize, 4)...)
		}
		l.block(lines)
	}

	l.block([]blockLine{{text: "Conclusion : " + doc.Conclusion.Label(), size: headingSize}})

	return pdf.write(filePath)
}

type blockLine struct {
	text   string
	size   float64
	indent float64
}

func wrapLines(text string, size, indentMM float64) []blockLine {
	var out []blockLine
	for _, line := range wrapText(text, pageWidthMM-2*marginMM-indentMM, size) {
		out = append(out, blockLine{text: line, size: size, indent: indentMM})
	}
	return out
}

type layout struct {
	doc  *pdfDocument
	page *pdfPage
	y    float64 // mm from the page top
}

func (l *layout) newPage() {
	l.page = l.doc.addPage()
	l.y = marginMM
}

func (l *layout) remaining() float64 {
	return pageHeightMM - marginMM - l.y
}

func lineHeight(size float64) float64 {
	return lineHeightMM * size / bodySize
}

func blockHeight(lines []blockLine) float64 {
	h := 0.0
	for _, ln := range lines {
		h += lineHeight(ln.size)
	}
	return h
}

// block writes lines as one unit. A unit taller than a full page falls
// back to plain line flow.
func (l *layout) block(lines []blockLine) {
	if len(lines) == 0 {
		return
	}
	h := blockHeight(lines)
	if l.page == nil || (h > l.remaining() && h <= pageHeightMM-2*marginMM) {
		l.newPage()
	}
	for _, ln := range lines {
		l.line(ln)
	}
	l.y += blockGapMM
}

func (l *layout) line(ln blockLine) {
	if l.page == nil || l.remaining() < lineHeight(ln.size) {
		l.newPage()
	}
	x := (marginMM + ln.indent) * mmToPt
	y := (pageHeightMM - l.y - lineHeight(ln.size)) * mmToPt
	l.page.addText(ln.text, x, y, ln.size)
	l.y += lineHeight(ln.size)
}

// cover lays the header block out around the upper third of its own page.
func (l *layout) cover(doc record.Document) {
	l.newPage()
	l.y = pageHeightMM / 3

	center := func(text string, size float64) {
		if text == "" {
			return
		}
		indent := (pageWidthMM - 2*marginMM - approxWidthMM(text, size)) / 2
		if indent < 0 {
			indent = 0
		}
		l.line(blockLine{text: text, size: size, indent: indent})
	}

	center(doc.RecordType.Label(), coverSize)
	l.y += blockGapMM
	center(doc.JiraNumber, headingSize)
	center(doc.JiraName, bodySize)
	l.y += blockGapMM
	center(doc.Date.Display(), bodySize)
}

// flattenMarkup reduces a rich-text fragment to plain text lines. Block
// boundaries become line breaks, inline styling is dropped, entities are
// decoded.
func flattenMarkup(fragment string) []string {
	var text strings.Builder
	var tag strings.Builder
	inTag := false
	for _, r := range fragment {
		switch {
		case inTag:
			if r == '>' {
				if blockBoundary(tag.String()) {
					text.WriteByte('\n')
				}
				tag.Reset()
				inTag = false
			} else {
				tag.WriteRune(r)
			}
		case r == '<':
			inTag = true
		default:
			text.WriteRune(r)
		}
	}

	var lines []string
	for _, line := range strings.Split(html.UnescapeString(text.String()), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func blockBoundary(tag string) bool {
	name := strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSuffix(name, "/")
	if name == "br" {
		return true
	}
	if !strings.HasPrefix(name, "/") {
		return false
	}
	switch strings.TrimPrefix(name, "/") {
	case "p", "li", "ul", "ol", "div", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

func approxWidthMM(text string, size float64) float64 {
	return float64(utf8.RuneCountInString(text)) * 0.5 * size / bodySize
}

// wrapText wraps text into lines that fit within maxWidthMM, using the
// average character width of the built-in font as the measure.
func wrapText(text string, maxWidthMM, fontSize float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	charWidth := 0.5 * fontSize / bodySize
	maxChars := int(maxWidthMM / charWidth)

	var lines []string
	var current strings.Builder
	chars := 0
	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		needed := wordLen
		if current.Len() > 0 {
			needed++
		}
		if chars+needed > maxChars && current.Len() > 0 {
			lines = append(lines, current.String())
			current.Reset()
			current.WriteString(word)
			chars = wordLen
			continue
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
			chars++
		}
		current.WriteString(word)
		chars += wordLen
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Minimal PDF writer: one Helvetica font, WinAnsi text, one content
// stream per page.
type pdfDocument struct {
	pages []*pdfPage
}

type pdfPage struct {
	texts []pdfText
}

type pdfText struct {
	text     string
	x, y     float64 // PDF points
	fontSize float64
}

func newPDFDocument() *pdfDocument {
	return &pdfDocument{}
}

func (d *pdfDocument) addPage() *pdfPage {
	page := &pdfPage{}
	d.pages = append(d.pages, page)
	return page
}

func (p *pdfPage) addText(text string, x, y, fontSize float64) {
	p.texts = append(p.texts, pdfText{text: text, x: x, y: y, fontSize: fontSize})
}

func (d *pdfDocument) write(filePath string) error {
	var buf bytes.Buffer

	var offsets []int
	objectNum := 0
	writeObject := func(content string) {
		offsets = append(offsets, buf.Len())
		objectNum++
		buf.WriteString(strconv.Itoa(objectNum) + " 0 obj\n")
		buf.WriteString(content)
		buf.WriteString("endobj\n")
	}

	buf.WriteString("%PDF-1.4\n")
	buf.WriteString("%âãÏÓ\n")

	writeObject("<<\n/Type /Catalog\n/Pages 2 0 R\n>>\n")

	pagesKids := make([]string, len(d.pages))
	for i := range d.pages {
		pagesKids[i] = fmt.Sprintf("%d 0 R", 3+i*2)
	}
	writeObject(fmt.Sprintf("<<\n/Type /Pages\n/Kids [%s]\n/Count %d\n>>\n",
		strings.Join(pagesKids, " "), len(d.pages)))

	for i, page := range d.pages {
		contentObjNum := 4 + i*2
		compressed := compressStream(page.buildContentStream())

		writeObject(fmt.Sprintf("<<\n/Type /Page\n/Parent 2 0 R\n"+
			"/MediaBox [0 0 595.28 841.89]\n"+
			"/Contents %d 0 R\n"+
			"/Resources <<\n/Font <<\n/F1 <<\n/Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n/Encoding /WinAnsiEncoding\n>>\n>>\n>>\n>>\n",
			contentObjNum))

		writeObject(fmt.Sprintf("<<\n/Length %d\n/Filter /FlateDecode\n>>\nstream\n%s\nendstream\n",
			len(compressed), compressed))
	}

	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", objectNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}

	buf.WriteString("trailer\n")
	fmt.Fprintf(&buf, "<<\n/Size %d\n/Root 1 0 R\n>>\n", objectNum+1)
	buf.WriteString("startxref\n")
	buf.WriteString(strconv.Itoa(xrefOffset) + "\n")
	buf.WriteString("%%EOF\n")

	return os.WriteFile(filePath, buf.Bytes(), 0644)
}

func (p *pdfPage) buildContentStream() []byte {
	var buf bytes.Buffer
	buf.WriteString("BT\n")

	lastSize := 0.0
	for _, text := range p.texts {
		if text.fontSize != lastSize {
			fmt.Fprintf(&buf, "/F1 %.2f Tf\n", text.fontSize)
			lastSize = text.fontSize
		}
		fmt.Fprintf(&buf, "1 0 0 1 %.2f %.2f Tm\n", text.x, text.y)
		buf.WriteString("(" + escapePDFString(text.text) + ") Tj\n")
	}

	buf.WriteString("ET\n")
	return buf.Bytes()
}

// escapePDFString emits WinAnsi bytes: ASCII and Latin-1 pass through,
// anything else becomes a placeholder.
func escapePDFString(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '\\':
			buf.WriteString(`\\`)
		case '(':
			buf.WriteString(`\(`)
		case ')':
			buf.WriteString(`\)`)
		case '\r', '\n', '\t':
			buf.WriteByte(' ')
		default:
			switch {
			case r >= 32 && r <= 126:
				buf.WriteByte(byte(r))
			case r >= 0xA0 && r <= 0xFF:
				buf.WriteByte(byte(r))
			default:
				buf.WriteByte('?')
			}
		}
	}
	return buf.String()
}

func compressStream(data []byte) []byte {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

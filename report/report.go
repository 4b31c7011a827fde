// Package report projects a test record into its printable rendition.
// Build produces the cover and content sections once; Compose wraps the
// same sections into a full HTML document for either the on-screen
// preview or the print backend, so both paths render identical markup.
package report

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/cyrildacostabolant/Cahier-test/record"
)

// Frame selects the cosmetic container around the rendered sections.
type Frame string

const (
	FramePreview Frame = "preview"
	FrameExport  Frame = "export"
)

// Artifact holds the rendered sections of one document snapshot.
type Artifact struct {
	Title   string
	Cover   string
	Content string
}

var coverTmpl = template.Must(template.New("cover").Parse(`<section class="cover">
<h1 class="cover-type">{{.TypeLabel}}</h1>
<p class="cover-jira">{{.JiraNumber}}</p>
<p class="cover-name">{{.JiraName}}</p>
<p class="cover-date">{{.Date}}</p>
</section>
`))

var contentTmpl = template.Must(template.New("content").Parse(`<section class="content">
<div class="query-block">
<h2>Suivi</h2>
<pre class="query">{{.Query}}</pre>
</div>
{{if .Image}}<div class="capture"><img src="{{.Image}}" alt="Capture jointe"></div>
{{end}}<p class="environment">Environnement : {{.EnvLabel}}</p>
{{range .Steps}}<div class="step">
<h3 class="step-title">{{.Title}}</h3>
<div class="step-body">{{.Content}}</div>
</div>
{{end}}<div class="conclusion {{.ConclusionClass}}">Conclusion : {{.ConclusionLabel}}</div>
</section>
`))

type coverData struct {
	TypeLabel  string
	JiraNumber string
	JiraName   string
	Date       string
}

type stepData struct {
	Title   string
	Content template.HTML
}

type contentData struct {
	Query           string
	Image           template.URL
	EnvLabel        string
	Steps           []stepData
	ConclusionClass string
	ConclusionLabel string
}

// Build renders the two sections from a document snapshot. The output is
// a pure function of the document value.
func Build(doc record.Document) (Artifact, error) {
	var cover strings.Builder
	err := coverTmpl.Execute(&cover, coverData{
		TypeLabel:  doc.RecordType.Label(),
		JiraNumber: doc.JiraNumber,
		JiraName:   doc.JiraName,
		Date:       doc.Date.Display(),
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("render cover: %w", err)
	}

	data := contentData{
		Query:           TrackingQuery(doc.JiraNumber),
		EnvLabel:        doc.Environment.Label(),
		ConclusionClass: "conclusion-" + string(doc.Conclusion),
		ConclusionLabel: doc.Conclusion.Label(),
	}
	if doc.AttachedImage != "" {
		data.Image = template.URL(doc.AttachedImage)
	}
	for _, step := range doc.Steps {
		data.Steps = append(data.Steps, stepData{
			Title: step.Title,
			// Step markup comes from the editing surface or a decoded
			// record, both trusted. It is rendered verbatim.
			Content: template.HTML(step.Content),
		})
	}

	var content strings.Builder
	if err := contentTmpl.Execute(&content, data); err != nil {
		return Artifact{}, fmt.Errorf("render content: %w", err)
	}

	title := doc.RecordType.Label()
	if strings.TrimSpace(doc.JiraNumber) != "" {
		title += " " + strings.TrimSpace(doc.JiraNumber)
	}

	return Artifact{
		Title:   title,
		Cover:   cover.String(),
		Content: content.String(),
	}, nil
}

// Compose wraps the rendered sections into a complete HTML document for
// the requested frame. The sections themselves are embedded untouched.
func Compose(a Artifact, frame Frame) string {
	css := baseCSS
	if frame == FrameExport {
		css += exportCSS
	} else {
		css += previewCSS
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"fr\">\n<head>\n<meta charset=\"utf-8\">\n<title>")
	b.WriteString(template.HTMLEscapeString(a.Title))
	b.WriteString("</title>\n<style>\n")
	b.WriteString(css)
	b.WriteString("</style>\n</head>\n<body class=\"frame-")
	b.WriteString(string(frame))
	b.WriteString("\">\n")
	b.WriteString(a.Cover)
	b.WriteString(a.Content)
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

const baseCSS = `body {
  font-family: "Helvetica Neue", Arial, sans-serif;
  font-size: 12pt;
  color: #1a1a1a;
}
.cover {
  display: flex;
  flex-direction: column;
  align-items: center;
  justify-content: center;
  text-align: center;
  min-height: 90vh;
  break-after: page;
  page-break-after: always;
}
.cover-type { font-size: 28pt; margin-bottom: 1.2em; }
.cover-jira { font-size: 18pt; font-weight: bold; margin: 0.2em 0; }
.cover-name { font-size: 14pt; margin: 0.2em 0; }
.cover-date { font-size: 12pt; color: #555; margin-top: 1.5em; }
.query-block h2 { font-size: 13pt; margin-bottom: 0.3em; }
.query {
  font-family: "Courier New", monospace;
  font-size: 10pt;
  background: #f5f5f5;
  padding: 8px;
  white-space: pre-wrap;
}
.capture img { max-width: 100%; }
.environment { font-weight: bold; }
.step {
  break-inside: avoid;
  page-break-inside: avoid;
  margin: 1em 0;
  border: 1px solid #ddd;
  padding: 8px 12px;
}
.step-title { margin: 0 0 0.4em 0; font-size: 13pt; }
.conclusion {
  break-inside: avoid;
  page-break-inside: avoid;
  margin-top: 1.5em;
  padding: 12px;
  font-size: 14pt;
  font-weight: bold;
  text-align: center;
  border-width: 2px;
  border-style: solid;
}
.conclusion-pass { background: #e6f4ea; color: #1e7e34; border-color: #1e7e34; }
.conclusion-fail { background: #fdecea; color: #c82333; border-color: #c82333; }
`

const exportCSS = `@page { margin: 0; }
body { margin: 0; }
.cover { min-height: 100vh; }
.content { padding: 15mm; }
`

const previewCSS = `body { background: #e8e8e8; margin: 0; }
.cover, .content {
  background: white;
  max-width: 780px;
  margin: 16px auto;
  padding: 40px;
  box-shadow: 0 1px 4px rgba(0, 0, 0, 0.25);
}
`

package report

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cyrildacostabolant/Cahier-test/record"
)

func sampleDoc() record.Document {
	doc := record.New(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC))
	doc.JiraNumber = "ERP-1234"
	doc.JiraName = "Refonte des exports"
	doc.Steps[0].Content = "<p>Lancer le batch de nuit</p>"
	return doc
}

func TestBuildCoverCarriesMetadata(t *testing.T) {
	a, err := Build(sampleDoc())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	for _, want := range []string{"Cahier de test", "ERP-1234", "Refonte des exports", "14/03/2024"} {
		if !strings.Contains(a.Cover, want) {
			t.Errorf("cover lacks %q:\n%s", want, a.Cover)
		}
	}
}

func TestBuildContentSectionOrder(t *testing.T) {
	doc := sampleDoc()
	doc.AttachedImage = "data:image/png;base64,AAAA"
	a, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	markers := []string{
		`class="query-block"`,
		`class="capture"`,
		`class="environment"`,
		`class="step"`,
		`class="conclusion`,
	}
	last := -1
	for _, m := range markers {
		idx := strings.Index(a.Content, m)
		if idx < 0 {
			t.Fatalf("content lacks %s:\n%s", m, a.Content)
		}
		if idx < last {
			t.Fatalf("%s appears out of order", m)
		}
		last = idx
	}
	if !strings.Contains(a.Content, "1234") {
		t.Errorf("content lacks the extracted Jira digits")
	}
	if !strings.Contains(a.Content, "Qualification") {
		t.Errorf("content lacks the environment label")
	}
	if !strings.Contains(a.Content, `src="data:image/png;base64,AAAA"`) {
		t.Errorf("attached image data URI was rewritten:\n%s", a.Content)
	}
}

func TestBuildWithoutImageOmitsCaptureBlock(t *testing.T) {
	a, err := Build(sampleDoc())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Contains(a.Content, `class="capture"`) {
		t.Fatal("capture block rendered without an attached image")
	}
}

func TestBuildStepMarkupIsVerbatim(t *testing.T) {
	doc := sampleDoc()
	doc.Steps[0].Title = "R&D <1>"
	doc.Steps[0].Content = `<ul><li>Vérifier l'écran</li></ul>`
	a, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(a.Content, `<ul><li>Vérifier l'écran</li></ul>`) {
		t.Errorf("step markup was escaped or rewritten:\n%s", a.Content)
	}
	if !strings.Contains(a.Content, "R&amp;D &lt;1&gt;") {
		t.Errorf("step title was not escaped:\n%s", a.Content)
	}
}

func TestBuildEmptyStepsRendersNoStepBlock(t *testing.T) {
	doc := sampleDoc()
	doc.Steps = nil
	a, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Contains(a.Content, `<div class="step">`) {
		t.Fatal("step block rendered for an empty step list")
	}
	if !strings.Contains(a.Content, `class="conclusion`) {
		t.Fatal("conclusion banner missing")
	}
}

func TestConclusionBannerStyling(t *testing.T) {
	doc := sampleDoc()

	doc.Conclusion = record.ConclusionFail
	a, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(a.Content, "conclusion-fail") {
		t.Errorf("fail verdict lacks the negative styling class")
	}
	if !strings.Contains(a.Content, "Conclusion : Fail") {
		t.Errorf("fail verdict lacks its literal label:\n%s", a.Content)
	}

	doc.Conclusion = record.ConclusionPass
	a, err = Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.Contains(a.Content, "conclusion-pass") {
		t.Errorf("pass verdict lacks the affirmative styling class")
	}
	if !strings.Contains(a.Content, "Conclusion : Pass") {
		t.Errorf("pass verdict lacks its literal label")
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	doc := sampleDoc()
	first, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := Build(doc)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two builds of the same document differ")
	}
	if Compose(first, FrameExport) != Compose(second, FrameExport) {
		t.Fatal("composed export documents differ")
	}
}

func TestComposeFramesShareSections(t *testing.T) {
	a, err := Build(sampleDoc())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	preview := Compose(a, FramePreview)
	export := Compose(a, FrameExport)

	if preview == export {
		t.Fatal("frames produced identical documents")
	}
	if !strings.Contains(preview, a.Content) || !strings.Contains(export, a.Content) {
		t.Fatal("a frame rewrote the content section")
	}
	if !strings.Contains(preview, a.Cover) || !strings.Contains(export, a.Cover) {
		t.Fatal("a frame rewrote the cover section")
	}
	if !strings.Contains(export, "@page") {
		t.Error("export frame lacks print page rules")
	}
	if !strings.Contains(preview, `class="frame-preview"`) {
		t.Error("preview frame lacks its body class")
	}
}

func TestComposeCarriesAtomicityHints(t *testing.T) {
	a, err := Build(sampleDoc())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	export := Compose(a, FrameExport)
	if !strings.Contains(export, "break-inside: avoid") {
		t.Error("missing break-inside hint")
	}
	if !strings.Contains(export, "page-break-inside: avoid") {
		t.Error("missing legacy page-break-inside hint")
	}
}

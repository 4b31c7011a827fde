package record

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func testDoc() Document {
	doc := New(time.Date(2024, 3, 14, 15, 9, 0, 0, time.UTC))
	doc.JiraNumber = "ERP-1234"
	doc.JiraName = "Report des écritures"
	return doc
}

func TestNewDocumentDefaults(t *testing.T) {
	doc := New(time.Date(2024, 3, 14, 15, 9, 0, 0, time.UTC))
	if len(doc.Steps) != 1 {
		t.Fatalf("expected one default step, got %d", len(doc.Steps))
	}
	if doc.Steps[0].ID == "" {
		t.Fatal("default step has no id")
	}
	if doc.Steps[0].Title != "Étape 1" {
		t.Fatalf("unexpected default title %q", doc.Steps[0].Title)
	}
	if doc.Steps[0].Content != "" {
		t.Fatalf("default step content should be empty, got %q", doc.Steps[0].Content)
	}
	if doc.Date.String() != "2024-03-14" {
		t.Fatalf("date should default to the creation day, got %s", doc.Date)
	}
}

func TestAddStepTwice(t *testing.T) {
	s := NewStore(testDoc())
	before := s.Document()

	first := s.AddStep()
	second := s.AddStep()

	if first.ID == second.ID {
		t.Fatalf("both steps got id %q", first.ID)
	}
	doc := s.Document()
	if len(doc.Steps) != len(before.Steps)+2 {
		t.Fatalf("expected %d steps, got %d", len(before.Steps)+2, len(doc.Steps))
	}
	// Existing steps stay in place, new ones append in order.
	for i, st := range before.Steps {
		if doc.Steps[i].ID != st.ID {
			t.Fatalf("step %d id changed from %q to %q", i, st.ID, doc.Steps[i].ID)
		}
	}
	if doc.Steps[len(doc.Steps)-2].ID != first.ID || doc.Steps[len(doc.Steps)-1].ID != second.ID {
		t.Fatal("new steps are not in append order")
	}
	if first.Title != "Étape 2" || second.Title != "Étape 3" {
		t.Fatalf("positional titles wrong: %q, %q", first.Title, second.Title)
	}
}

func TestRemoveStepUnknownIDIsNoop(t *testing.T) {
	s := NewStore(testDoc())
	before := s.Document()

	s.RemoveStep("no-such-step")

	if !reflect.DeepEqual(s.Document(), before) {
		t.Fatal("removing an unknown id must leave the document untouched")
	}
}

func TestRemoveStepKeepsTitles(t *testing.T) {
	s := NewStore(testDoc())
	second := s.AddStep()
	third := s.AddStep()

	s.RemoveStep(second.ID)

	doc := s.Document()
	if doc.StepIndex(second.ID) != -1 {
		t.Fatal("removed step still present")
	}
	// The surviving step keeps its positional title from creation time.
	i := doc.StepIndex(third.ID)
	if i < 0 || doc.Steps[i].Title != "Étape 3" {
		t.Fatalf("titles must not be renumbered, got %+v", doc.Steps)
	}
}

func TestUpdateStepUnknownID(t *testing.T) {
	s := NewStore(testDoc())
	before := s.Document()

	title := "renamed"
	err := s.UpdateStep("missing", StepPatch{Title: &title})
	if !errors.Is(err, ErrStepNotFound) {
		t.Fatalf("expected ErrStepNotFound, got %v", err)
	}
	if !reflect.DeepEqual(s.Document(), before) {
		t.Fatal("failed update must leave the document unchanged")
	}
}

func TestUpdateStepMergesPatch(t *testing.T) {
	s := NewStore(testDoc())
	id := s.Document().Steps[0].ID

	content := "<p>ouvrir le module</p>"
	if err := s.UpdateStep(id, StepPatch{Content: &content}); err != nil {
		t.Fatalf("update content: %v", err)
	}
	doc := s.Document()
	if doc.Steps[0].Content != content {
		t.Fatalf("content not applied: %q", doc.Steps[0].Content)
	}
	if doc.Steps[0].Title != "Étape 1" {
		t.Fatalf("title must survive a content-only patch, got %q", doc.Steps[0].Title)
	}

	title := "Connexion"
	if err := s.UpdateStep(id, StepPatch{Title: &title}); err != nil {
		t.Fatalf("update title: %v", err)
	}
	doc = s.Document()
	if doc.Steps[0].Title != title || doc.Steps[0].Content != content {
		t.Fatalf("patch merge lost data: %+v", doc.Steps[0])
	}
}

func TestSetField(t *testing.T) {
	s := NewStore(testDoc())

	if err := s.SetField("conclusion", "fail"); err != nil {
		t.Fatalf("set conclusion: %v", err)
	}
	if got := s.Document().Conclusion; got != ConclusionFail {
		t.Fatalf("conclusion = %q", got)
	}
	if err := s.SetField("date", "2024-05-02"); err != nil {
		t.Fatalf("set date: %v", err)
	}
	if got := s.Document().Date.String(); got != "2024-05-02" {
		t.Fatalf("date = %s", got)
	}
}

func TestSetFieldRejectsUnknownKeyAndValues(t *testing.T) {
	s := NewStore(testDoc())
	before := s.Document()

	cases := [][2]string{
		{"color", "blue"},
		{"recordType", "audit"},
		{"environment", "préprod"},
		{"conclusion", "maybe"},
		{"date", "14/03/2024"},
	}
	for _, c := range cases {
		if err := s.SetField(c[0], c[1]); !errors.Is(err, ErrInvalidField) {
			t.Fatalf("SetField(%q, %q): expected ErrInvalidField, got %v", c[0], c[1], err)
		}
	}
	if !reflect.DeepEqual(s.Document(), before) {
		t.Fatal("rejected SetField calls must not change the document")
	}
}

func TestReplaceAllOrNothing(t *testing.T) {
	s := NewStore(testDoc())
	before := s.Document()

	bad := testDoc()
	bad.Steps = append(bad.Steps, Step{ID: bad.Steps[0].ID, Title: "dup"})
	if err := s.Replace(bad); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if !reflect.DeepEqual(s.Document(), before) {
		t.Fatal("failed replace must retain the prior document")
	}

	good := testDoc()
	good.JiraNumber = "ERP-9999"
	if err := s.Replace(good); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := s.Document().JiraNumber; got != "ERP-9999" {
		t.Fatalf("replace not applied, jiraNumber = %q", got)
	}
}

func TestDocumentSnapshotDoesNotAlias(t *testing.T) {
	s := NewStore(testDoc())
	snap := s.Document()
	snap.Steps[0].Content = "<p>scribbled on the snapshot</p>"
	if got := s.Document().Steps[0].Content; got != "" {
		t.Fatalf("mutating a snapshot leaked into the store: %q", got)
	}
}

func TestWatchDeliversOriginAndOrder(t *testing.T) {
	s := NewStore(testDoc())
	id := s.Document().Steps[0].ID

	var got []Change
	cancel := s.Watch(func(c Change) { got = append(got, c) })
	defer cancel()

	content := "<p>a</p>"
	if err := s.UpdateStep(id, StepPatch{Content: &content, Origin: "adapter-7"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.SetField("jiraName", "Facturation"); err != nil {
		t.Fatalf("set field: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 changes, got %d", len(got))
	}
	if got[0].Kind != ChangeStepUpdated || got[0].StepID != id || got[0].Origin != "adapter-7" {
		t.Fatalf("unexpected first change %+v", got[0])
	}
	if got[1].Kind != ChangeField || got[1].Field != "jiraName" {
		t.Fatalf("unexpected second change %+v", got[1])
	}

	cancel()
	s.AddStep()
	if len(got) != 2 {
		t.Fatal("canceled watcher still received changes")
	}
}

package editor

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/cyrildacostabolant/Cahier-test/record"
)

type fakeSurface struct {
	mountErr error
	mounted  bool
	torn     bool
	buffer   string
	writes   int
	onChange func(string)
}

func (f *fakeSurface) Mount(cfg MountConfig) error {
	if f.mountErr != nil {
		return f.mountErr
	}
	f.mounted = true
	return nil
}

func (f *fakeSurface) Contents() string { return f.buffer }

func (f *fakeSurface) SetContents(content string) error {
	f.buffer = content
	f.writes++
	return nil
}

func (f *fakeSurface) OnChange(fn func(buffer string)) { f.onChange = fn }

func (f *fakeSurface) Teardown() { f.torn = true }

// typeText simulates the user editing inside the widget.
func (f *fakeSurface) typeText(buffer string) {
	f.buffer = buffer
	if f.onChange != nil {
		f.onChange(buffer)
	}
}

func newTestStore(t *testing.T) (*record.Store, record.Step) {
	t.Helper()
	s := record.NewStore(record.New(time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)))
	return s, s.Document().Steps[0]
}

func TestBindSeedsSurfaceFromStep(t *testing.T) {
	s, step := newTestStore(t)
	content := "<p>relancer le batch</p>"
	if err := s.UpdateStep(step.ID, record.StepPatch{Content: &content}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	f := &fakeSurface{}
	a, err := Bind(s, step.ID, f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer a.Teardown()

	if !f.mounted {
		t.Fatal("surface was never mounted")
	}
	if f.buffer != content {
		t.Fatalf("surface buffer = %q, want %q", f.buffer, content)
	}
	if f.writes != 1 {
		t.Fatalf("writes = %d, want 1", f.writes)
	}
}

func TestBindEmptyStepSkipsPlaceholderWrite(t *testing.T) {
	s, step := newTestStore(t)

	// A freshly created widget reports the empty-document placeholder.
	f := &fakeSurface{buffer: "<p><br></p>"}
	a, err := Bind(s, step.ID, f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer a.Teardown()

	if f.writes != 0 {
		t.Fatalf("writes = %d, want 0", f.writes)
	}
	got, _ := s.Step(step.ID)
	if got.Content != "" {
		t.Fatalf("step content = %q, want empty", got.Content)
	}
}

func TestTypingFlowsToStoreWithoutEcho(t *testing.T) {
	s, step := newTestStore(t)
	f := &fakeSurface{}
	a, err := Bind(s, step.ID, f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer a.Teardown()

	before := f.writes
	f.typeText("<p>vider le cache</p>")

	got, _ := s.Step(step.ID)
	if got.Content != "<p>vider le cache</p>" {
		t.Fatalf("step content = %q", got.Content)
	}
	if f.writes != before {
		t.Fatalf("writes = %d, want %d: keystroke echoed back into the widget", f.writes, before)
	}
}

func TestResyncWithIdenticalContentWritesNothing(t *testing.T) {
	s, step := newTestStore(t)
	content := "<p>verdict attendu</p>"
	if err := s.UpdateStep(step.ID, record.StepPatch{Content: &content}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	f := &fakeSurface{}
	a, err := Bind(s, step.ID, f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer a.Teardown()

	before := f.writes
	if err := a.Resync(); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if err := a.Resync(); err != nil {
		t.Fatalf("Resync: %v", err)
	}
	if f.writes != before {
		t.Fatalf("writes = %d, want %d: resync is not idempotent", f.writes, before)
	}
}

func TestReplaceOverwritesSurfaceOnce(t *testing.T) {
	s, step := newTestStore(t)
	f := &fakeSurface{}
	a, err := Bind(s, step.ID, f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer a.Teardown()

	doc := s.Document()
	doc.Steps[0].Content = "<p>contenu restauré</p>"
	if err := s.Replace(doc); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if f.buffer != "<p>contenu restauré</p>" {
		t.Fatalf("surface buffer = %q", f.buffer)
	}
	writes := f.writes

	// The widget reports the content it was just given. That report must
	// not turn into a second store write or another surface write.
	var updated int
	cancel := s.Watch(func(c record.Change) {
		if c.Kind == record.ChangeStepUpdated {
			updated++
		}
	})
	defer cancel()

	f.typeText("<p>contenu restauré</p>")
	if updated != 0 {
		t.Fatalf("store updates after echo = %d, want 0", updated)
	}
	if f.writes != writes {
		t.Fatalf("writes = %d, want %d", f.writes, writes)
	}
}

func TestBindMountFailureLeavesStepUntouched(t *testing.T) {
	s, step := newTestStore(t)
	content := "<p>ne pas perdre</p>"
	if err := s.UpdateStep(step.ID, record.StepPatch{Content: &content}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}

	f := &fakeSurface{mountErr: fmt.Errorf("%w: webview gone", ErrSurfaceUnavailable)}
	a, err := Bind(s, step.ID, f)
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("Bind error = %v, want ErrSurfaceUnavailable", err)
	}
	if a != nil {
		t.Fatal("Bind returned an adapter despite the mount failure")
	}
	got, _ := s.Step(step.ID)
	if got.Content != content {
		t.Fatalf("step content = %q, want %q", got.Content, content)
	}
}

func TestBindWrapsSurfaceErrorOnce(t *testing.T) {
	s, step := newTestStore(t)

	// A surface without a window context refuses the mount with the
	// sentinel already attached; Bind must only add the step context.
	_, err := Bind(s, step.ID, NewWailsSurface(nil, step.ID))
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("Bind error = %v, want ErrSurfaceUnavailable", err)
	}
	if got := strings.Count(err.Error(), ErrSurfaceUnavailable.Error()); got != 1 {
		t.Fatalf("Bind error %q carries the sentinel %d times, want once", err, got)
	}
}

func TestTeardownStopsStoreNotifications(t *testing.T) {
	s, step := newTestStore(t)
	f := &fakeSurface{}
	a, err := Bind(s, step.ID, f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	a.Teardown()
	a.Teardown()
	if !f.torn {
		t.Fatal("surface was not torn down")
	}

	before := f.writes
	content := "<p>après teardown</p>"
	if err := s.UpdateStep(step.ID, record.StepPatch{Content: &content}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	if f.writes != before {
		t.Fatalf("writes = %d, want %d: detached adapter still writing", f.writes, before)
	}
}

func TestOtherStepEditsDoNotTouchSurface(t *testing.T) {
	s, step := newTestStore(t)
	other := s.AddStep()

	f := &fakeSurface{}
	a, err := Bind(s, step.ID, f)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	defer a.Teardown()

	before := f.writes
	content := "<p>autre étape</p>"
	if err := s.UpdateStep(other.ID, record.StepPatch{Content: &content}); err != nil {
		t.Fatalf("UpdateStep: %v", err)
	}
	if f.writes != before {
		t.Fatalf("writes = %d, want %d", f.writes, before)
	}
}

func TestAdaptersCarryDistinctOrigins(t *testing.T) {
	s, _ := newTestStore(t)
	second := s.AddStep()
	first := s.Document().Steps[0]

	a1, err := Bind(s, first.ID, &fakeSurface{})
	if err != nil {
		t.Fatalf("Bind first: %v", err)
	}
	defer a1.Teardown()
	a2, err := Bind(s, second.ID, &fakeSurface{})
	if err != nil {
		t.Fatalf("Bind second: %v", err)
	}
	defer a2.Teardown()

	if a1.Origin() == "" || a1.Origin() == a2.Origin() {
		t.Fatalf("origins %q and %q are not distinct", a1.Origin(), a2.Origin())
	}
}

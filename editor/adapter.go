package editor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cyrildacostabolant/Cahier-test/record"
)

// Adapter keeps exactly one editing surface consistent with one step's
// canonical content.
//
// Direction rules: the surface's change notifications are the only outbound
// path (surface → store); the store's change feed is the only inbound path
// (store → surface), and inbound overwrites are skipped for changes the
// adapter itself emitted (recognized by origin token) and for buffers that
// already match (so a sync never moves the caret needlessly).
type Adapter struct {
	store   *record.Store
	stepID  string
	origin  string
	surface Surface

	mu          sync.Mutex
	lastEmitted string // last canonical value sent to the store
	closed      bool

	cancelWatch func()
}

// Bind mounts the surface, establishes both subscriptions and performs the
// initial inbound sync so content that accumulated before attachment (e.g.
// a restore that ran while the widget was still loading) lands in the
// widget. A mount refusal fails with ErrSurfaceUnavailable and leaves the
// step's content untouched.
func Bind(store *record.Store, stepID string, surface Surface) (*Adapter, error) {
	a := &Adapter{
		store:   store,
		stepID:  stepID,
		origin:  uuid.NewString(),
		surface: surface,
	}
	if err := surface.Mount(DefaultMountConfig()); err != nil {
		return nil, fmt.Errorf("bind step %s: %w", stepID, err)
	}
	if step, ok := store.Step(stepID); ok {
		a.lastEmitted = Canonical(step.Content)
	}
	surface.OnChange(a.surfaceChanged)
	a.cancelWatch = store.Watch(a.storeChanged)
	if err := a.Resync(); err != nil {
		a.Teardown()
		return nil, err
	}
	return a, nil
}

// StepID returns the id of the bound step.
func (a *Adapter) StepID() string { return a.stepID }

// Origin returns the adapter's opaque origin token. Store changes carrying
// it are the adapter's own writes.
func (a *Adapter) Origin() string { return a.origin }

// surfaceChanged is the outbound path: user keystrokes reach the step's
// content here and nowhere else.
func (a *Adapter) surfaceChanged(buffer string) {
	content := Canonical(buffer)

	a.mu.Lock()
	if a.closed || content == a.lastEmitted {
		a.mu.Unlock()
		return
	}
	a.lastEmitted = content
	a.mu.Unlock()

	// A vanishing step means teardown is racing this notification; the
	// write is dropped.
	_ = a.store.UpdateStep(a.stepID, record.StepPatch{Content: &content, Origin: a.origin})
}

// storeChanged is the inbound trigger: only non-self content changes and
// wholesale restores reach the surface.
func (a *Adapter) storeChanged(c record.Change) {
	switch c.Kind {
	case record.ChangeStepUpdated:
		if c.StepID != a.stepID || c.Origin == a.origin {
			return
		}
	case record.ChangeReplaced:
		// fall through to resync
	default:
		return
	}
	_ = a.Resync()
}

// Resync performs the inbound overwrite path once: it compares the
// surface's current buffer against the canonical content and overwrites
// wholesale only when they differ. Matching buffers produce zero surface
// writes.
func (a *Adapter) Resync() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	step, ok := a.store.Step(a.stepID)
	if !ok {
		return nil
	}
	want := Canonical(step.Content)
	if Canonical(a.surface.Contents()) == want {
		return nil
	}

	a.mu.Lock()
	a.lastEmitted = want
	a.mu.Unlock()
	if err := a.surface.SetContents(step.Content); err != nil {
		return fmt.Errorf("sync step %s to surface: %w", a.stepID, err)
	}
	return nil
}

// Teardown releases both subscriptions. No further notifications are
// delivered in either direction; tearing down twice is harmless.
func (a *Adapter) Teardown() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	if a.cancelWatch != nil {
		a.cancelWatch()
	}
	a.surface.Teardown()
}

package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Event names shared with the frontend bridge.
const (
	EventMount   = "editor.mount"
	EventApply   = "editor.apply"
	EventUnmount = "editor.unmount"
)

// MountEventData asks the frontend to instantiate a rich-text widget over
// the DOM node of one step.
type MountEventData struct {
	StepID  string   `json:"stepId"`
	Toolbar []string `json:"toolbar"`
}

// ApplyEventData replaces the widget buffer of one step.
type ApplyEventData struct {
	StepID  string `json:"stepId"`
	Content string `json:"content"`
}

// UnmountEventData tells the frontend to destroy the widget of one step.
type UnmountEventData struct {
	StepID string `json:"stepId"`
}

// WailsSurface drives a rich-text widget living in the Wails webview.
// The Go side never touches the DOM: Mount, SetContents and Teardown are
// emitted as events, while the frontend reports back through the bound
// EditorReady, EditorChanged and EditorFailed methods which App forwards
// to Ready, Changed and Fail.
//
// Between Mount and Ready the widget does not exist yet, so writes are
// parked and flushed once the frontend confirms the mount.
type WailsSurface struct {
	ctx    context.Context
	stepID string

	mu       sync.Mutex
	attached bool
	failed   bool
	buffer   string
	pending  *string
	onChange func(string)
}

// NewWailsSurface returns a surface for one step. ctx must be the Wails
// application context captured at startup.
func NewWailsSurface(ctx context.Context, stepID string) *WailsSurface {
	return &WailsSurface{ctx: ctx, stepID: stepID}
}

// Mount requests a widget from the frontend. The surface stays detached
// until Ready is called.
func (s *WailsSurface) Mount(cfg MountConfig) error {
	if s.ctx == nil {
		return fmt.Errorf("%w: no window context", ErrSurfaceUnavailable)
	}
	runtime.EventsEmit(s.ctx, EventMount, MountEventData{
		StepID:  s.stepID,
		Toolbar: cfg.Toolbar,
	})
	return nil
}

// Ready marks the widget as live and flushes any write parked while the
// frontend was still building it.
func (s *WailsSurface) Ready() {
	s.mu.Lock()
	s.attached = true
	s.failed = false
	var flush *string
	if s.pending != nil {
		flush = s.pending
		s.buffer = *s.pending
		s.pending = nil
	}
	s.mu.Unlock()

	if flush != nil {
		runtime.EventsEmit(s.ctx, EventApply, ApplyEventData{
			StepID:  s.stepID,
			Content: *flush,
		})
	}
}

// Fail marks the widget as unusable. Later writes return
// ErrSurfaceUnavailable.
func (s *WailsSurface) Fail() {
	s.mu.Lock()
	s.failed = true
	s.attached = false
	s.mu.Unlock()
}

// Changed records a new widget buffer reported by the frontend and hands
// it to the change listener.
func (s *WailsSurface) Changed(buffer string) {
	s.mu.Lock()
	if s.failed {
		s.mu.Unlock()
		return
	}
	s.buffer = buffer
	fn := s.onChange
	s.mu.Unlock()

	if fn != nil {
		fn(buffer)
	}
}

// Contents returns the last known widget buffer, or the parked write when
// the widget is not live yet.
func (s *WailsSurface) Contents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return *s.pending
	}
	return s.buffer
}

// SetContents pushes content into the widget, or parks it until Ready.
func (s *WailsSurface) SetContents(content string) error {
	s.mu.Lock()
	if s.failed {
		s.mu.Unlock()
		return fmt.Errorf("%w: step %s", ErrSurfaceUnavailable, s.stepID)
	}
	if !s.attached {
		s.pending = &content
		s.mu.Unlock()
		return nil
	}
	s.buffer = content
	s.mu.Unlock()

	runtime.EventsEmit(s.ctx, EventApply, ApplyEventData{
		StepID:  s.stepID,
		Content: content,
	})
	return nil
}

// OnChange registers the listener invoked for every buffer report.
func (s *WailsSurface) OnChange(fn func(buffer string)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Teardown destroys the frontend widget. Safe to call on a surface that
// never mounted.
func (s *WailsSurface) Teardown() {
	s.mu.Lock()
	wasAttached := s.attached
	s.attached = false
	s.pending = nil
	s.onChange = nil
	s.mu.Unlock()

	if wasAttached && s.ctx != nil {
		runtime.EventsEmit(s.ctx, EventUnmount, UnmountEventData{StepID: s.stepID})
	}
}

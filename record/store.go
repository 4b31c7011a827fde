package record

import (
	"fmt"
	"sync"
)

// ChangeKind identifies what a store mutation touched.
type ChangeKind string

const (
	ChangeField       ChangeKind = "field"
	ChangeStepAdded   ChangeKind = "step.added"
	ChangeStepRemoved ChangeKind = "step.removed"
	ChangeStepUpdated ChangeKind = "step.updated"
	ChangeReplaced    ChangeKind = "replaced"
)

// Change describes one applied mutation. Origin carries the opaque token of
// the editor adapter that emitted the mutation, or "" for programmatic
// changes (restore, image attach, ...). Adapters use it to recognize their
// own writes and skip the inbound overwrite path.
type Change struct {
	Kind   ChangeKind
	Field  string
	StepID string
	Origin string
}

// StepPatch is a partial step update. Nil fields are left untouched.
type StepPatch struct {
	Title   *string
	Content *string
	Origin  string
}

// Store owns the canonical Document for a session. Every mutation builds a
// new value and installs it atomically; a failing operation never changes
// the held document. Watchers are notified synchronously in mutation order,
// which the editor synchronization contract depends on; all mutations are
// expected to come from the single UI-driven goroutine.
type Store struct {
	mu        sync.RWMutex
	doc       Document
	watchers  map[int]func(Change)
	nextWatch int
}

// NewStore creates a store owning the given document.
func NewStore(doc Document) *Store {
	return &Store{
		doc:      doc.Clone(),
		watchers: make(map[int]func(Change)),
	}
}

// Document returns a deep-copied snapshot. Callers can never alias the
// canonical value.
func (s *Store) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Step returns a copy of the step with the given id.
func (s *Store) Step(id string) (Step, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.doc.StepIndex(id); i >= 0 {
		return s.doc.Steps[i], true
	}
	return Step{}, false
}

// Watch registers fn for every applied change and returns its cancel
// function. After cancel returns no further notifications are delivered.
func (s *Store) Watch(fn func(Change)) (cancel func()) {
	s.mu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(c)
	}
}

// SetField replaces one top-level scalar field. The key must be one of the
// known field names and enum/date values must parse; anything else fails
// with ErrInvalidField and the document is unchanged.
func (s *Store) SetField(key, value string) error {
	s.mu.Lock()
	next := s.doc.Clone()
	switch key {
	case "jiraNumber":
		next.JiraNumber = value
	case "jiraName":
		next.JiraName = value
	case "recordType":
		t := RecordType(value)
		if !t.Valid() {
			s.mu.Unlock()
			return fmt.Errorf("%w: recordType %q", ErrInvalidField, value)
		}
		next.RecordType = t
	case "date":
		d, err := ParseDate(value)
		if err != nil {
			s.mu.Unlock()
			return fmt.Errorf("%w: %v", ErrInvalidField, err)
		}
		next.Date = d
	case "environment":
		e := Environment(value)
		if !e.Valid() {
			s.mu.Unlock()
			return fmt.Errorf("%w: environment %q", ErrInvalidField, value)
		}
		next.Environment = e
	case "conclusion":
		c := Conclusion(value)
		if !c.Valid() {
			s.mu.Unlock()
			return fmt.Errorf("%w: conclusion %q", ErrInvalidField, value)
		}
		next.Conclusion = c
	case "attachedImage":
		next.AttachedImage = value
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: unknown key %q", ErrInvalidField, key)
	}
	s.doc = next
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeField, Field: key})
	return nil
}

// AddStep appends a new step with a fresh id and a title derived from its
// 1-based position. Existing steps keep their ids, titles and order.
func (s *Store) AddStep() Step {
	s.mu.Lock()
	next := s.doc.Clone()
	step := NewStep(len(next.Steps) + 1)
	next.Steps = append(next.Steps, step)
	s.doc = next
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeStepAdded, StepID: step.ID})
	return step
}

// RemoveStep removes the step with the given id. Removing an unknown id is
// a no-op, not an error. Remaining titles are user data and are not
// renumbered.
func (s *Store) RemoveStep(id string) {
	s.mu.Lock()
	i := s.doc.StepIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	next := s.doc.Clone()
	next.Steps = append(next.Steps[:i], next.Steps[i+1:]...)
	s.doc = next
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeStepRemoved, StepID: id})
}

// UpdateStep merges the patch into the step with the given id, failing with
// ErrStepNotFound when it is absent.
func (s *Store) UpdateStep(id string, patch StepPatch) error {
	s.mu.Lock()
	i := s.doc.StepIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrStepNotFound, id)
	}
	next := s.doc.Clone()
	if patch.Title != nil {
		next.Steps[i].Title = *patch.Title
	}
	if patch.Content != nil {
		next.Steps[i].Content = *patch.Content
	}
	s.doc = next
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeStepUpdated, StepID: id, Origin: patch.Origin})
	return nil
}

// Replace substitutes the whole document, used by restore. The incoming
// value must satisfy the model invariants or the call fails with
// ErrInvalidDocument and the prior document is retained; restore is
// all-or-nothing.
func (s *Store) Replace(doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.doc = doc.Clone()
	s.mu.Unlock()
	s.notify(Change{Kind: ChangeReplaced})
	return nil
}

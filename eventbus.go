package main

import (
	"sync"
)

// EventHandler is a function that handles events
type EventHandler func(data interface{})

// EventBus provides pub/sub functionality for decoupled communication
// inside the backend. Delivery is synchronous so subscribers observe
// events in publication order.
type EventBus struct {
	handlers map[string]map[int]EventHandler
	next     int
	mu       sync.RWMutex
}

// NewEventBus creates a new EventBus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string]map[int]EventHandler),
	}
}

// Subscribe registers a handler for an event type and returns a function
// that removes it again.
func (eb *EventBus) Subscribe(event string, handler EventHandler) (cancel func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.handlers[event] == nil {
		eb.handlers[event] = make(map[int]EventHandler)
	}
	id := eb.next
	eb.next++
	eb.handlers[event][id] = handler

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		delete(eb.handlers[event], id)
	}
}

// Publish delivers an event to all subscribers of its type.
func (eb *EventBus) Publish(event string, data interface{}) {
	eb.mu.RLock()
	handlers := make([]EventHandler, 0, len(eb.handlers[event]))
	for _, h := range eb.handlers[event] {
		handlers = append(handlers, h)
	}
	eb.mu.RUnlock()

	for _, handler := range handlers {
		handler(data)
	}
}

// Event types
const (
	// Record events
	EventRecordField    = "record.field"
	EventRecordReplaced = "record.replaced"
	EventStepAdded      = "step.added"
	EventStepRemoved    = "step.removed"
	EventStepUpdated    = "step.updated"

	// Editor events
	EventEditorBound  = "editor.bound"
	EventEditorFailed = "editor.failed"

	// Export events
	EventExportDone   = "export.done"
	EventExportFailed = "export.failed"

	// Draft events
	EventDraftSaved = "draft.saved"
)

// EventData structures
type RecordEventData struct {
	Field  string `json:"field,omitempty"`
	StepID string `json:"stepId,omitempty"`
}

type EditorEventData struct {
	StepID string `json:"stepId"`
	Reason string `json:"reason,omitempty"`
}

type ExportEventData struct {
	Path     string `json:"path"`
	Pages    int    `json:"pages,omitempty"`
	Fallback bool   `json:"fallback"`
	Error    string `json:"error,omitempty"`
}

type DraftEventData struct {
	ID         int64  `json:"id"`
	JiraNumber string `json:"jiraNumber"`
}

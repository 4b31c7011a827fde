// Package editor bridges canonical step content to an embedded rich-text
// editing surface. The surface itself (Quill in the webview) is an external
// collaborator: this package only talks to it through the Surface contract
// and enforces the synchronization direction rules.
package editor

import (
	"errors"
	"strings"
)

// ErrSurfaceUnavailable is returned when the host environment refuses to
// mount an editing surface. The step's content is left untouched and no
// synchronization is attempted for that step until a retry.
var ErrSurfaceUnavailable = errors.New("editing surface unavailable")

// Surface is one mounted rich-text editing widget.
//
// Contents and SetContents expose the widget's current buffer; OnChange
// registers the change-notification stream, which is the only path by which
// user keystrokes leave the widget. Mount and SetContents report
// ErrSurfaceUnavailable when the host refuses or loses the widget. After
// Teardown no further notifications may be delivered.
type Surface interface {
	Mount(cfg MountConfig) error
	Contents() string
	SetContents(content string) error
	OnChange(fn func(buffer string))
	Teardown()
}

// MountConfig is passed to the surface on initialization.
type MountConfig struct {
	Toolbar []string `json:"toolbar"`
}

// DefaultMountConfig returns the fixed toolbar capability set every step
// editor is mounted with.
func DefaultMountConfig() MountConfig {
	return MountConfig{
		Toolbar: []string{"header", "bold", "italic", "underline", "list", "link", "image", "blockquote"},
	}
}

// Canonical maps a surface buffer to canonical step content. A widget's
// "default empty document" (Quill emits a lone placeholder paragraph) and
// the empty string are the same untouched state, so both canonicalize to "".
func Canonical(buffer string) string {
	if surfaceEmpty(buffer) {
		return ""
	}
	return buffer
}

func surfaceEmpty(buffer string) bool {
	switch strings.TrimSpace(buffer) {
	case "", "<p><br></p>", "<p></p>", "<div><br></div>":
		return true
	}
	return false
}

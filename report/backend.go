package report

import (
	"context"
	"errors"
)

// ErrRenderBusy is returned when a render is requested while another one
// is still outstanding. Triggers are rejected, never queued.
var ErrRenderBusy = errors.New("render already in progress")

// ErrRenderBackend is returned when the print backend fails. The document
// is left intact so the user may retry.
var ErrRenderBackend = errors.New("render backend failure")

// Backend turns a composed HTML document into PDF bytes.
type Backend interface {
	Render(ctx context.Context, html string, profile Profile) ([]byte, error)
}

package editor

import (
	"errors"
	"testing"
)

func TestWailsSurfaceMountNeedsContext(t *testing.T) {
	s := NewWailsSurface(nil, "step-1")
	err := s.Mount(DefaultMountConfig())
	if !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("Mount error = %v, want ErrSurfaceUnavailable", err)
	}
}

func TestWailsSurfaceParksWritesUntilReady(t *testing.T) {
	s := NewWailsSurface(nil, "step-1")
	if err := s.SetContents("<p>en attente</p>"); err != nil {
		t.Fatalf("SetContents: %v", err)
	}
	if got := s.Contents(); got != "<p>en attente</p>" {
		t.Fatalf("Contents = %q, want the parked write", got)
	}
}

func TestWailsSurfaceFailedRejectsWrites(t *testing.T) {
	s := NewWailsSurface(nil, "step-1")
	s.Fail()
	if err := s.SetContents("<p>x</p>"); !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("SetContents error = %v, want ErrSurfaceUnavailable", err)
	}

	s.Changed("<p>ignoré</p>")
	if got := s.Contents(); got != "" {
		t.Fatalf("Contents = %q, want empty after failure", got)
	}
}

func TestWailsSurfaceForwardsChanges(t *testing.T) {
	s := NewWailsSurface(nil, "step-1")
	var seen string
	s.OnChange(func(buffer string) { seen = buffer })

	s.Changed("<p>saisie</p>")
	if seen != "<p>saisie</p>" {
		t.Fatalf("listener saw %q", seen)
	}
	if s.Contents() != "<p>saisie</p>" {
		t.Fatalf("Contents = %q", s.Contents())
	}
}

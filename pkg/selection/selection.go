// Package selection holds the active paint and texture of a session.
package selection

import (
	"sync"

	"github.com/aretw0/remodel/pkg/catalog"
	"github.com/aretw0/remodel/pkg/domain"
)

// State is the current selection. It survives phase changes and goes back to the
// catalog default on reset. Safe for concurrent use.
type State struct {
	catalog *catalog.Catalog

	mu      sync.RWMutex
	current domain.Selection
}

// New creates a selection at the catalog default.
func New(c *catalog.Catalog) *State {
	return &State{catalog: c, current: c.DefaultSelection()}
}

// Catalog returns the catalog selections are made from.
func (s *State) Catalog() *catalog.Catalog {
	return s.catalog
}

// Current returns a copy of the selection.
func (s *State) Current() domain.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySelection(s.current)
}

// PickColor selects paint i and keeps the texture.
// Out-of-range indices leave the selection unchanged.
func (s *State) PickColor(i int) (domain.Selection, error) {
	p, err := s.catalog.Paint(i)
	if err != nil {
		return s.Current(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.Paint = p
	s.current.ColorIndex = i
	return copySelection(s.current), nil
}

// PickTexture selects texture i. Picking the selected texture again clears it.
func (s *State) PickTexture(i int) (domain.Selection, error) {
	tex, err := s.catalog.Texture(i)
	if err != nil {
		return s.Current(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.Texture != nil && s.current.TextureIndex == i {
		s.current.Texture = nil
		s.current.TextureIndex = -1
	} else {
		s.current.Texture = &tex
		s.current.TextureIndex = i
	}
	return copySelection(s.current), nil
}

// Reset restores the catalog default.
func (s *State) Reset() domain.Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = s.catalog.DefaultSelection()
	return copySelection(s.current)
}

func copySelection(sel domain.Selection) domain.Selection {
	if sel.Texture != nil {
		tex := *sel.Texture
		sel.Texture = &tex
	}
	return sel
}

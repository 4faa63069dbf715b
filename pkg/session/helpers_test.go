package session

import (
	"github.com/aretw0/remodel/pkg/catalog"
	"github.com/aretw0/remodel/pkg/selection"
)

func newSelection() *selection.State {
	s := selection.New(catalog.Default())
	_, _ = s.PickColor(4)
	_, _ = s.PickTexture(1)
	return s
}

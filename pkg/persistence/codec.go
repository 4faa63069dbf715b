// Package persistence encodes session snapshots for storage backends that hold
// raw bytes, optionally sealing them with AES-GCM.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/remodel/pkg/domain"
)

// Codec converts snapshots to and from their stored form.
type Codec interface {
	Marshal(snap *domain.Snapshot) ([]byte, error)
	Unmarshal(data []byte) (*domain.Snapshot, error)
}

// Middleware allows wrapping a Codec to add behavior.
type Middleware func(Codec) Codec

// Chain wraps c with mws. The first middleware is the outermost.
func Chain(c Codec, mws ...Middleware) Codec {
	for i := len(mws) - 1; i >= 0; i-- {
		c = mws[i](c)
	}
	return c
}

// JSON is the plain codec.
type JSON struct{}

func (JSON) Marshal(snap *domain.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func (JSON) Unmarshal(data []byte) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

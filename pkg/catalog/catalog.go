// Package catalog holds the paints and textures a session can pick from.
package catalog

import (
	"fmt"
	"os"

	"github.com/aretw0/remodel/pkg/domain"
	"gopkg.in/yaml.v3"
)

// Catalog is an ordered list of paints and textures. Index 0 of Paints is the
// default selection.
type Catalog struct {
	Paints   []domain.Paint   `yaml:"paints"`
	Textures []domain.Texture `yaml:"textures"`
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{
		Paints: []domain.Paint{
			paint("cream", "Cream", 239, 234, 196),
			paint("linen", "Linen", 230, 224, 200),
			paint("eggshell", "Eggshell", 252, 247, 235),
			paint("white", "White", 255, 255, 251),
			paint("pewter", "Pewter", 204, 204, 200),
			paint("lilac", "Lilac", 220, 195, 235),
			paint("terracotta", "Terracotta", 125, 83, 68),
			paint("fern", "Fern", 73, 95, 75),
			paint("slate", "Slate", 101, 118, 134),
			paint("charcoal", "Charcoal", 58, 59, 61),
			paint("oxblood", "Oxblood", 47, 13, 12),
		},
		Textures: []domain.Texture{
			{Name: "venetianWall"},
			{Name: "plasterWall"},
			{Name: "renaissanceWall"},
			{Name: "brickWall"},
			{Name: "cinderWall"},
			{Name: "pebbleWall"},
			{Name: "stoneWall"},
		},
	}
}

func paint(id, name string, r, g, b uint8) domain.Paint {
	return domain.Paint{ID: id, Name: name, Color: domain.RGBA{R: r, G: g, B: b, A: 255}}
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the catalog has a default paint and no duplicate ids.
func (c *Catalog) Validate() error {
	if len(c.Paints) == 0 {
		return fmt.Errorf("catalog has no paints")
	}
	seen := make(map[string]bool)
	for i, p := range c.Paints {
		if p.ID == "" {
			return fmt.Errorf("paint %d has no id", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate paint id %q", p.ID)
		}
		seen[p.ID] = true
	}
	names := make(map[string]bool)
	for i, t := range c.Textures {
		if t.Name == "" {
			return fmt.Errorf("texture %d has no name", i)
		}
		if names[t.Name] {
			return fmt.Errorf("duplicate texture %q", t.Name)
		}
		names[t.Name] = true
	}
	return nil
}

// Paint returns the paint at index i.
func (c *Catalog) Paint(i int) (domain.Paint, error) {
	if i < 0 || i >= len(c.Paints) {
		return domain.Paint{}, fmt.Errorf("%w: paint %d of %d", domain.ErrOutOfRange, i, len(c.Paints))
	}
	return c.Paints[i], nil
}

// Texture returns the texture at index i.
func (c *Catalog) Texture(i int) (domain.Texture, error) {
	if i < 0 || i >= len(c.Textures) {
		return domain.Texture{}, fmt.Errorf("%w: texture %d of %d", domain.ErrOutOfRange, i, len(c.Textures))
	}
	return c.Textures[i], nil
}

// DefaultSelection is the first paint with no texture.
func (c *Catalog) DefaultSelection() domain.Selection {
	return domain.Selection{Paint: c.Paints[0], TextureIndex: -1}
}

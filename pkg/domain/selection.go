package domain

import "fmt"

// RGBA is an 8-bit per channel color.
type RGBA struct {
	R uint8 `json:"r" yaml:"r" mapstructure:"r"`
	G uint8 `json:"g" yaml:"g" mapstructure:"g"`
	B uint8 `json:"b" yaml:"b" mapstructure:"b"`
	A uint8 `json:"a" yaml:"a" mapstructure:"a"`
}

// Hex formats the color as #rrggbb.
func (c RGBA) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Paint is a catalog color that can be applied to a surface.
type Paint struct {
	ID    string `json:"id" yaml:"id" mapstructure:"id"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty" mapstructure:"name"`
	Color RGBA   `json:"color" yaml:"color" mapstructure:"color"`
}

// Texture is a named surface texture. The engine resolves the name to an image.
type Texture struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
}

// Selection is the active paint and optional texture.
// Indices refer to the catalog the selection was made from; TextureIndex is -1
// when no texture is selected.
type Selection struct {
	Paint        Paint    `json:"paint"`
	Texture      *Texture `json:"texture,omitempty"`
	ColorIndex   int      `json:"color_index"`
	TextureIndex int      `json:"texture_index"`
}

// HasTexture reports whether a texture is selected.
func (s Selection) HasTexture() bool {
	return s.Texture != nil
}

// SetColorCommand builds the engine command that applies the selection.
func (s Selection) SetColorCommand() Command {
	paint := s.Paint
	cmd := Command{Kind: CommandSetColor, Paint: &paint}
	if s.Texture != nil {
		tex := *s.Texture
		cmd.Texture = &tex
	}
	return cmd
}

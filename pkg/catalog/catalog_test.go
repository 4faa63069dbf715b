package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/remodel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Len(t, c.Paints, 11)

	sel := c.DefaultSelection()
	assert.Equal(t, "cream", sel.Paint.ID)
	assert.Equal(t, "#efeac4", sel.Paint.Color.Hex())
	assert.False(t, sel.HasTexture())
	assert.Equal(t, -1, sel.TextureIndex)
}

func TestLookup(t *testing.T) {
	c := Default()

	p, err := c.Paint(3)
	require.NoError(t, err)
	assert.Equal(t, "white", p.ID)

	_, err = c.Paint(11)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
	_, err = c.Texture(-1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
paints:
  - id: sand
    name: Sand
    color: {r: 194, g: 178, b: 128, a: 255}
  - id: night
    color: {r: 10, g: 10, b: 40, a: 255}
textures:
  - name: brickWall
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sand", c.DefaultSelection().Paint.ID)
	assert.Equal(t, uint8(194), c.Paints[0].Color.R)
	assert.Equal(t, []domain.Texture{{Name: "brickWall"}}, c.Textures)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "paints: []", "no paints"},
		{"duplicate", "paints: [{id: a}, {id: a}]", "duplicate paint"},
		{"missing id", "paints: [{name: x}]", "has no id"},
		{"texture", "paints: [{id: a}]\ntextures: [{name: t}, {name: t}]", "duplicate texture"},
		{"syntax", "paints: [", "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

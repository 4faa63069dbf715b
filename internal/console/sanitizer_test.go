package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "tap_surface 0.1 0.2", "tap_surface 0.1 0.2", nil},
		{"tab kept", "switch\tlegacy", "switch\tlegacy", nil},
		{"ansi stripped", "reset\x1b[31m", "reset[31m", nil},
		{"null stripped", "re\x00set", "reset", nil},
		{"invalid utf8", "\xff\xfe", "", ErrInvalidUTF8},
		{"too large", strings.Repeat("a", DefaultMaxInputSize+1), "", ErrInputTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeInput(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInput_EnvLimit(t *testing.T) {
	t.Setenv(EnvMaxInputSize, "4")
	_, err := SanitizeInput("reset")
	assert.ErrorIs(t, err, ErrInputTooLarge)

	t.Setenv(EnvMaxInputSize, "bogus")
	_, err = SanitizeInput("reset")
	assert.NoError(t, err)
}

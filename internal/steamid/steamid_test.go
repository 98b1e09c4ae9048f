package steamid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"steam64", "76561198053978420", 93712692},
		{"steam32 passthrough", "93712692", 93712692},
		{"surrounding space", "  93712692 ", 93712692},
		{"short numeric passes through", "42", 42},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeRejectsNonNumeric(t *testing.T) {
	for _, in := range []string{"", "abc", "7656119x053978420", "12.5"} {
		_, err := Normalize(in)
		assert.ErrorIs(t, err, ErrInvalid, in)
	}
}

func TestRoundTrip(t *testing.T) {
	assert.Equal(t, int64(76561198053978420), To64(93712692))
	assert.Equal(t, int64(93712692), To32(To64(93712692)))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid("93712692"))
	assert.True(t, Valid("76561198053978420"))
	assert.False(t, Valid("123456"))
	assert.False(t, Valid("0000000"))
	assert.False(t, Valid("76561198053978420123"))
	assert.False(t, Valid("player"))
}

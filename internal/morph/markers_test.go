package morph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMarkers(t *testing.T) {
	input := `##x,y,z,radius,shape,name,comment
10.0,20.0,5.0,0.5,0,10,
11.0,21.0,6.0,0.5,0,10,
0.0,0.0,0.0,0.5,0,20,
`
	markers, err := ParseMarkers(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, markers, 3)
	assert.Equal(t, float32(10), markers[0].Pos.X)
	assert.Equal(t, float32(21), markers[1].Pos.Y)
	assert.Equal(t, 10, markers[0].Name)
	assert.Equal(t, 20, markers[2].Name)

	assert.Equal(t, 2, CountByName(markers, MarkerCutDendrite))
	assert.Equal(t, 1, CountByName(markers, MarkerNoReconstruction))
	assert.Equal(t, 0, CountByName(markers, 99))
}

func TestParseMarkersErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short line", "1.0,2.0,3.0,0.5,0\n"},
		{"bad coordinate", "x,2.0,3.0,0.5,0,10\n"},
		{"bad name", "1.0,2.0,3.0,0.5,0,spiny\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMarkers(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParseMarkersEmpty(t *testing.T) {
	markers, err := ParseMarkers(strings.NewReader("## header only\n"))
	require.NoError(t, err)
	assert.Empty(t, markers)
}

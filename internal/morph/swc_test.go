package morph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSWC is a minimal reconstruction: a soma with three stems, one basal
// bifurcation, and an axon.
const testSWC = `# id type x y z radius parent
1 1 0 0 0 5 -1
2 3 10 0 0 1 1
3 3 20 0 0 1 2
4 3 20 10 0 1 2
5 4 0 30 0 1 1
6 2 0 -15 0 1 1
`

func TestParseSWC(t *testing.T) {
	m, err := ParseSWC(strings.NewReader(testSWC))
	require.NoError(t, err)

	assert.Len(t, m.Nodes(), 6)

	soma, ok := m.Soma()
	require.True(t, ok)
	assert.Equal(t, 1, soma.ID)
	assert.Equal(t, float32(5), soma.Radius)

	node, ok := m.Node(4)
	require.True(t, ok)
	assert.Equal(t, TypeBasalDendrite, node.Type)
	assert.Equal(t, float32(20), node.Pos.X)
	assert.Equal(t, float32(10), node.Pos.Y)

	assert.ElementsMatch(t, []int{3, 4}, m.Children(2))
	assert.ElementsMatch(t, []int{2, 5, 6}, m.Children(1))
}

func TestParseSWCErrors(t *testing.T) {
	tests := []struct {
		name string
		swc  string
	}{
		{"empty", "# only comments\n"},
		{"short line", "1 1 0 0 0 5\n"},
		{"duplicate id", "1 1 0 0 0 5 -1\n1 3 1 0 0 1 1\n"},
		{"unknown parent", "1 1 0 0 0 5 -1\n2 3 1 0 0 1 9\n"},
		{"no root", "1 1 0 0 0 5 2\n2 3 1 0 0 1 1\n"},
		{"negative radius", "1 1 0 0 0 -5 -1\n"},
		{"bad coordinate", "1 1 x 0 0 5 -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSWC(strings.NewReader(tt.swc))
			assert.Error(t, err)
		})
	}
}

func TestCompartmentCounts(t *testing.T) {
	m, err := ParseSWC(strings.NewReader(testSWC))
	require.NoError(t, err)

	counts := m.CompartmentCounts()
	assert.Equal(t, 1, counts["soma"])
	assert.Equal(t, 1, counts["axon"])
	assert.Equal(t, 3, counts["basal dendrite"])
	assert.Equal(t, 1, counts["apical dendrite"])
}

func TestSegments(t *testing.T) {
	m, err := ParseSWC(strings.NewReader(testSWC))
	require.NoError(t, err)

	assert.Len(t, m.Segments(), 5)
	assert.Len(t, m.Segments(TypeBasalDendrite), 3)
	assert.Len(t, m.Segments(TypeApicalDendrite), 1)
	assert.Len(t, m.Segments(TypeBasalDendrite, TypeApicalDendrite), 4)

	for _, seg := range m.Segments(TypeApicalDendrite) {
		assert.Equal(t, TypeSoma, seg[0].Type)
		assert.Equal(t, TypeApicalDendrite, seg[1].Type)
	}
}

func TestFeatures(t *testing.T) {
	m, err := ParseSWC(strings.NewReader(testSWC))
	require.NoError(t, err)

	f := m.Features()
	assert.Equal(t, 6, f.NumberNodes)
	assert.Equal(t, 3, f.NumberStems)
	assert.Equal(t, 1, f.NumberBifurcations)
	assert.Equal(t, 4, f.NumberTips)

	// Segment lengths: 10 + 10 + 10 + 30 + 15.
	assert.InDelta(t, 75.0, f.TotalLength, 1e-3)
	assert.InDelta(t, 30.0, f.MaxEuclideanDist, 1e-3)
	assert.InDelta(t, 20.0, f.OverallWidth, 1e-3)
	assert.InDelta(t, 45.0, f.OverallHeight, 1e-3)
	assert.InDelta(t, 0.0, f.OverallDepth, 1e-3)
	assert.InDelta(t, 20.0/6.0, f.AverageDiameter, 1e-3)

	// Soma sphere alone contributes 4*pi*25 of surface.
	assert.InDelta(t, 314.159, f.SomaSurface, 1e-3)
	assert.Greater(t, f.TotalSurface, 314.0)
	assert.Greater(t, f.TotalVolume, 523.0)
}

func TestMaxBranchOrder(t *testing.T) {
	m, err := ParseSWC(strings.NewReader(testSWC))
	require.NoError(t, err)

	// Stems are order 1 and node 2 bifurcates, so its children are order 2.
	assert.Equal(t, 2, m.MaxBranchOrder())
	assert.Equal(t, 2, m.Features().MaxBranchOrder)
}

func TestCenterOnSoma(t *testing.T) {
	swc := "1 1 100 50 25 5 -1\n2 3 110 50 25 1 1\n"
	m, err := ParseSWC(strings.NewReader(swc))
	require.NoError(t, err)

	offset := m.CenterOnSoma()
	assert.Equal(t, float32(100), offset.X)
	assert.Equal(t, float32(50), offset.Y)
	assert.Equal(t, float32(25), offset.Z)

	soma, ok := m.Soma()
	require.True(t, ok)
	assert.Equal(t, float32(0), soma.Pos.X)

	node, ok := m.Node(2)
	require.True(t, ok)
	assert.Equal(t, float32(10), node.Pos.X)
	assert.Equal(t, float32(0), node.Pos.Y)
}

func TestCenterOnSomaWithoutSoma(t *testing.T) {
	swc := "1 3 10 0 0 1 -1\n2 3 30 0 0 1 1\n"
	m, err := ParseSWC(strings.NewReader(swc))
	require.NoError(t, err)

	offset := m.CenterOnSoma()
	assert.Equal(t, float32(20), offset.X)

	node, ok := m.Node(1)
	require.True(t, ok)
	assert.Equal(t, float32(-10), node.Pos.X)
}

func TestBounds(t *testing.T) {
	m, err := ParseSWC(strings.NewReader(testSWC))
	require.NoError(t, err)

	min, max := m.Bounds()
	assert.Equal(t, float32(0), min.X)
	assert.Equal(t, float32(-15), min.Y)
	assert.Equal(t, float32(20), max.X)
	assert.Equal(t, float32(30), max.Y)
}

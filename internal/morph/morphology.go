package morph

import (
	"math"

	"github.com/goki/mat32"

	"github.com/dendralab/dendra/pkg/models"
)

// Morphology is a parsed SWC reconstruction indexed for traversal
type Morphology struct {
	nodes    []Node
	byID     map[int]int
	children map[int][]int
}

// Nodes returns all nodes in file order
func (m *Morphology) Nodes() []Node {
	return m.nodes
}

// Node returns the node with the given SWC ID
func (m *Morphology) Node(id int) (Node, bool) {
	idx, ok := m.byID[id]
	if !ok {
		return Node{}, false
	}
	return m.nodes[idx], true
}

// Children returns the SWC IDs of the node's children
func (m *Morphology) Children(id int) []int {
	return m.children[id]
}

// Soma returns the first soma-typed node. Reconstructions place the soma at
// the root, but that is not required here.
func (m *Morphology) Soma() (Node, bool) {
	for _, n := range m.nodes {
		if n.Type == TypeSoma {
			return n, true
		}
	}
	return Node{}, false
}

// CompartmentCounts returns node counts keyed by compartment label
func (m *Morphology) CompartmentCounts() map[string]int {
	counts := make(map[string]int)
	for _, n := range m.nodes {
		counts[CompartmentLabel(n.Type)]++
	}
	return counts
}

// Segments returns (parent, child) node pairs for rendering. When types are
// given, only segments whose child node has one of those types are returned.
func (m *Morphology) Segments(types ...int) [][2]Node {
	want := make(map[int]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var segs [][2]Node
	for _, n := range m.nodes {
		if n.Parent == -1 {
			continue
		}
		if len(want) > 0 && !want[n.Type] {
			continue
		}
		parent, _ := m.Node(n.Parent)
		segs = append(segs, [2]Node{parent, n})
	}
	return segs
}

// CenterOnSoma translates every node so the soma sits at the origin and
// returns the offset that was removed. Callers overlaying marker files must
// shift them by the same offset. Dendrite-only reconstructions have no soma
// and are centered on their centroid instead.
func (m *Morphology) CenterOnSoma() mat32.Vec3 {
	if len(m.nodes) == 0 {
		return mat32.Vec3{}
	}

	var offset mat32.Vec3
	if soma, ok := m.Soma(); ok {
		offset = soma.Pos
	} else {
		for _, n := range m.nodes {
			offset = offset.Add(n.Pos)
		}
		offset = offset.MulScalar(1 / float32(len(m.nodes)))
	}
	for i := range m.nodes {
		m.nodes[i].Pos = m.nodes[i].Pos.Sub(offset)
	}
	return offset
}

// MaxBranchOrder returns the highest branch order over all nodes. Stems
// leaving the soma have order 1 and the order steps up after each
// bifurcation.
func (m *Morphology) MaxBranchOrder() int {
	order := make(map[int]int, len(m.nodes))
	var queue []int
	for _, n := range m.nodes {
		if n.Parent == -1 {
			order[n.ID] = 0
			queue = append(queue, n.ID)
		}
	}

	maxOrder := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n, _ := m.Node(id)
		kids := m.children[id]
		for _, kid := range kids {
			child, _ := m.Node(kid)
			next := order[id]
			switch {
			case n.Type == TypeSoma && child.Type != TypeSoma:
				next++
			case n.Type != TypeSoma && len(kids) >= 2:
				next++
			}
			order[kid] = next
			if next > maxOrder {
				maxOrder = next
			}
			queue = append(queue, kid)
		}
	}
	return maxOrder
}

// Bounds returns the axis-aligned bounding box over all node positions
func (m *Morphology) Bounds() (min, max mat32.Vec3) {
	min, max = m.nodes[0].Pos, m.nodes[0].Pos
	for _, n := range m.nodes[1:] {
		min.X = mat32.Min(min.X, n.Pos.X)
		min.Y = mat32.Min(min.Y, n.Pos.Y)
		min.Z = mat32.Min(min.Z, n.Pos.Z)
		max.X = mat32.Max(max.X, n.Pos.X)
		max.Y = mat32.Max(max.Y, n.Pos.Y)
		max.Z = mat32.Max(max.Z, n.Pos.Z)
	}
	return min, max
}

// Features computes reconstruction metrics. Lengths are in microns, surfaces
// in square microns, volumes in cubic microns. Neurite segments are treated
// as truncated cones and the soma as a sphere. Marker-derived fields are
// left for the caller.
func (m *Morphology) Features() models.MorphologyFeatures {
	var f models.MorphologyFeatures
	f.NumberNodes = len(m.nodes)

	soma, hasSoma := m.Soma()
	min, max := m.Bounds()
	f.OverallWidth = float64(max.X - min.X)
	f.OverallHeight = float64(max.Y - min.Y)
	f.OverallDepth = float64(max.Z - min.Z)

	var diamSum, maxDist float32
	for _, n := range m.nodes {
		diamSum += 2 * n.Radius
		if hasSoma {
			if d := n.Pos.Sub(soma.Pos).Length(); d > maxDist {
				maxDist = d
			}
		}

		kids := m.children[n.ID]
		if n.Type == TypeSoma {
			for _, kid := range kids {
				if child, ok := m.Node(kid); ok && child.Type != TypeSoma {
					f.NumberStems++
				}
			}
			continue
		}
		switch {
		case len(kids) >= 2:
			f.NumberBifurcations++
		case len(kids) == 0:
			f.NumberTips++
		}
	}
	f.AverageDiameter = float64(diamSum) / float64(len(m.nodes))
	f.MaxEuclideanDist = float64(maxDist)
	f.MaxBranchOrder = m.MaxBranchOrder()

	for _, n := range m.nodes {
		if n.Parent == -1 {
			continue
		}
		parent, _ := m.Node(n.Parent)
		if n.Type == TypeSoma && parent.Type == TypeSoma {
			continue
		}
		length := n.Pos.Sub(parent.Pos).Length()
		dr := n.Radius - parent.Radius
		slant := mat32.Sqrt(length*length + dr*dr)

		f.TotalLength += float64(length)
		f.TotalSurface += math.Pi * float64(n.Radius+parent.Radius) * float64(slant)
		f.TotalVolume += math.Pi / 3 * float64(length) *
			float64(n.Radius*n.Radius+n.Radius*parent.Radius+parent.Radius*parent.Radius)
	}
	if hasSoma {
		r := float64(soma.Radius)
		f.SomaSurface = 4 * math.Pi * r * r
		f.TotalSurface += f.SomaSurface
		f.TotalVolume += 4 * math.Pi / 3 * r * r * r
	}

	return f
}

package morph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goki/mat32"
)

// SWC node types used by upstream reconstructions.
const (
	TypeSoma           = 1
	TypeAxon           = 2
	TypeBasalDendrite  = 3
	TypeApicalDendrite = 4
)

// Node is one SWC sample point. Positions and radii are in microns.
type Node struct {
	ID     int
	Type   int
	Pos    mat32.Vec3
	Radius float32
	Parent int
}

// CompartmentLabel returns the display name for an SWC node type
func CompartmentLabel(nodeType int) string {
	switch nodeType {
	case TypeSoma:
		return "soma"
	case TypeAxon:
		return "axon"
	case TypeBasalDendrite:
		return "basal dendrite"
	case TypeApicalDendrite:
		return "apical dendrite"
	default:
		return fmt.Sprintf("type %d", nodeType)
	}
}

// ParseSWC reads an SWC reconstruction. Lines hold seven whitespace-delimited
// columns (id, type, x, y, z, radius, parent) and # starts a comment. Node
// IDs must be unique and every non-root parent must reference an existing
// node.
func ParseSWC(r io.Reader) (*Morphology, error) {
	m := &Morphology{
		byID:     make(map[int]int),
		children: make(map[int][]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 7 {
			return nil, fmt.Errorf("swc line %d: expected 7 columns, got %d", lineNo, len(fields))
		}

		node, err := parseNode(fields)
		if err != nil {
			return nil, fmt.Errorf("swc line %d: %w", lineNo, err)
		}
		if _, ok := m.byID[node.ID]; ok {
			return nil, fmt.Errorf("swc line %d: duplicate node id %d", lineNo, node.ID)
		}

		m.byID[node.ID] = len(m.nodes)
		m.nodes = append(m.nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read swc: %w", err)
	}
	if len(m.nodes) == 0 {
		return nil, fmt.Errorf("swc contains no nodes")
	}

	// Parents may appear on any line, so link after the full read.
	roots := 0
	for _, n := range m.nodes {
		if n.Parent == -1 {
			roots++
			continue
		}
		if _, ok := m.byID[n.Parent]; !ok {
			return nil, fmt.Errorf("swc node %d: unknown parent %d", n.ID, n.Parent)
		}
		m.children[n.Parent] = append(m.children[n.Parent], n.ID)
	}
	if roots == 0 {
		return nil, fmt.Errorf("swc has no root node")
	}

	return m, nil
}

func parseNode(fields []string) (Node, error) {
	var n Node
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return n, fmt.Errorf("bad id %q", fields[0])
	}
	typ, err := strconv.Atoi(fields[1])
	if err != nil {
		return n, fmt.Errorf("bad type %q", fields[1])
	}
	var coords [3]float32
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(fields[2+i], 32)
		if err != nil {
			return n, fmt.Errorf("bad coordinate %q", fields[2+i])
		}
		coords[i] = float32(v)
	}
	radius, err := strconv.ParseFloat(fields[5], 32)
	if err != nil || radius < 0 {
		return n, fmt.Errorf("bad radius %q", fields[5])
	}
	parent, err := strconv.Atoi(fields[6])
	if err != nil {
		return n, fmt.Errorf("bad parent %q", fields[6])
	}

	n.ID = id
	n.Type = typ
	n.Pos = mat32.Vec3{X: coords[0], Y: coords[1], Z: coords[2]}
	n.Radius = float32(radius)
	n.Parent = parent
	return n, nil
}

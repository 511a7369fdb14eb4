package plot

import (
	"bytes"
	"fmt"

	"git.sr.ht/~sbinet/gg"
	"github.com/goki/mat32"

	"github.com/dendralab/dendra/internal/morph"
)

const morphMargin = 40.0

// Compartment stroke colors (r, g, b in 0..1). The soma is drawn as a
// filled black circle, cut-dendrite markers as navy dots.
var compartmentColors = map[int][3]float64{
	morph.TypeAxon:           {0.55, 0.55, 0.55},
	morph.TypeBasalDendrite:  {0.75, 0.22, 0.17},
	morph.TypeApicalDendrite: {0.90, 0.56, 0.13},
}

// projection maps a 3D position onto the requested plane
func projection(plane string) (func(mat32.Vec3) (float64, float64), error) {
	switch plane {
	case "xy":
		return func(p mat32.Vec3) (float64, float64) { return float64(p.X), float64(p.Y) }, nil
	case "xz":
		return func(p mat32.Vec3) (float64, float64) { return float64(p.X), float64(p.Z) }, nil
	case "zy":
		return func(p mat32.Vec3) (float64, float64) { return float64(p.Z), float64(p.Y) }, nil
	default:
		return nil, fmt.Errorf("unknown projection plane %q", plane)
	}
}

// RenderMorphology draws a reconstruction projected onto one plane, one
// stroke per neurite segment with the vertical axis pointing up
func RenderMorphology(m *morph.Morphology, markers []morph.Marker, plane string) ([]byte, error) {
	proj, err := projection(plane)
	if err != nil {
		return nil, err
	}
	if len(m.Nodes()) == 0 {
		return nil, fmt.Errorf("reconstruction has no nodes")
	}

	minX, minY := proj(m.Nodes()[0].Pos)
	maxX, maxY := minX, minY
	for _, n := range m.Nodes()[1:] {
		x, y := proj(n.Pos)
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}

	drawable := float64(morphSize) - 2*morphMargin
	spanX, spanY := maxX-minX, maxY-minY
	span := spanX
	if spanY > span {
		span = spanY
	}
	scale := 1.0
	if span > 0 {
		scale = drawable / span
	}
	offX := morphMargin + (drawable-spanX*scale)/2
	offY := morphMargin + (drawable-spanY*scale)/2
	toCanvas := func(p mat32.Vec3) (float64, float64) {
		x, y := proj(p)
		return offX + (x-minX)*scale, float64(morphSize) - offY - (y-minY)*scale
	}

	dc := gg.NewContext(morphSize, morphSize)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetLineWidth(1)

	for _, typ := range []int{morph.TypeAxon, morph.TypeBasalDendrite, morph.TypeApicalDendrite} {
		segs := m.Segments(typ)
		if len(segs) == 0 {
			continue
		}
		col := compartmentColors[typ]
		dc.SetRGB(col[0], col[1], col[2])
		for _, seg := range segs {
			x1, y1 := toCanvas(seg[0].Pos)
			x2, y2 := toCanvas(seg[1].Pos)
			dc.DrawLine(x1, y1, x2, y2)
		}
		dc.Stroke()
	}

	if soma, ok := m.Soma(); ok {
		x, y := toCanvas(soma.Pos)
		r := float64(soma.Radius) * scale
		if r < 3 {
			r = 3
		}
		dc.SetRGB(0, 0, 0)
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}

	for _, mk := range markers {
		if mk.Name != morph.MarkerCutDendrite {
			continue
		}
		x, y := toCanvas(mk.Pos)
		dc.SetRGB(0.13, 0.13, 0.55)
		dc.DrawCircle(x, y, 3)
		dc.Fill()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode morphology image: %w", err)
	}
	return buf.Bytes(), nil
}

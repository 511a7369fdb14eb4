package morph

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/goki/mat32"
)

// Marker names used by upstream annotation files.
const (
	MarkerCutDendrite      = 10
	MarkerNoReconstruction = 20
)

// Marker is one annotation point from a reconstruction marker file
type Marker struct {
	Pos    mat32.Vec3
	Radius float32
	Shape  int
	Name   int
}

// ParseMarkers reads a comma-delimited marker file. Lines starting with #
// are comments; data lines carry at least x, y, z, radius, shape, and name
// columns.
func ParseMarkers(r io.Reader) ([]Marker, error) {
	var markers []Marker

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ",")
		if len(fields) < 6 {
			return nil, fmt.Errorf("marker line %d: expected 6 columns, got %d", lineNo, len(fields))
		}

		var vals [4]float64
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(strings.TrimSpace(fields[i]), 32)
			if err != nil {
				return nil, fmt.Errorf("marker line %d: bad value %q", lineNo, fields[i])
			}
			vals[i] = v
		}
		shape, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			return nil, fmt.Errorf("marker line %d: bad shape %q", lineNo, fields[4])
		}
		name, err := strconv.Atoi(strings.TrimSpace(fields[5]))
		if err != nil {
			return nil, fmt.Errorf("marker line %d: bad name %q", lineNo, fields[5])
		}

		markers = append(markers, Marker{
			Pos:    mat32.Vec3{X: float32(vals[0]), Y: float32(vals[1]), Z: float32(vals[2])},
			Radius: float32(vals[3]),
			Shape:  shape,
			Name:   name,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read markers: %w", err)
	}

	return markers, nil
}

// CountByName returns how many markers carry the given name code
func CountByName(markers []Marker, name int) int {
	count := 0
	for _, m := range markers {
		if m.Name == name {
			count++
		}
	}
	return count
}

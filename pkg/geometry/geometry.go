package geometry

import (
	"errors"
	"fmt"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// ErrExpectedSameVertexFormatPerGeometry is returned by Extract when only
// some corners of a geometry carry texture coordinates or normals.
var ErrExpectedSameVertexFormatPerGeometry = errors.New("expected same vertex format per geometry")

// Range is a slice of the shared index buffer belonging to one sub-mesh.
type Range struct {
	Start int // Offset of the first index
	Len   int // Number of indices
}

// End returns the offset one past the last index.
func (r Range) End() int {
	return r.Start + r.Len
}

// Geometry is the ordered list of sub-mesh ranges of one model.
// Ranges are only ever appended.
type Geometry struct {
	ranges []Range
}

// New creates an empty geometry.
func New() *Geometry {
	return &Geometry{}
}

// Append adds r as the last range. Overlap and contiguity are not checked.
func (g *Geometry) Append(r Range) {
	g.ranges = append(g.ranges, r)
}

// Ranges returns the ranges in the order they were appended.
// The returned slice must not be modified.
func (g *Geometry) Ranges() []Range {
	return g.ranges
}

// Len returns the number of ranges.
func (g *Geometry) Len() int {
	return len(g.ranges)
}

// Extract appends one vertex per triangle corner to vertices and the
// matching triangle-list indices to indices, then classifies the vertex
// format of the appended corners. Non-triangle shapes are skipped.
//
// The returned Range is valid even when err is non-nil: appended data is
// never rolled back, so a caller rejecting the geometry must truncate both
// buffers back to their previous lengths itself.
func Extract[T any, PT Sink[T]](shapes []formats.Shape, src *formats.OBJ, vertices *[]T, indices *[]uint32) (Range, VertexFormat, error) {
	start := len(*indices)
	next := uint32(len(*vertices))
	var uvs, normals int

	add := func(c formats.VTNIndex) {
		if c.HasTexture() {
			uvs++
		}
		if c.HasNormal() {
			normals++
		}
		*vertices = append(*vertices, BuildVertex[T, PT](c, src))
		*indices = append(*indices, next)
		next++
	}

	for _, shape := range shapes {
		if tri, ok := shape.(formats.Triangle); ok {
			add(tri.A)
			add(tri.B)
			add(tri.C)
		}
	}

	n := len(*indices) - start
	r := Range{Start: start, Len: n}

	switch {
	case uvs == 0 && normals == 0:
		return r, FormatPosition, nil
	case uvs == n && normals == 0:
		return r, FormatPositionTexture, nil
	case uvs == 0 && normals == n:
		return r, FormatPositionNormal, nil
	case uvs == n && normals == n:
		return r, FormatPositionTextureNormal, nil
	default:
		return r, FormatPosition, fmt.Errorf("%w: %d corners, %d with texture coordinates, %d with normals",
			ErrExpectedSameVertexFormatPerGeometry, n, uvs, normals)
	}
}

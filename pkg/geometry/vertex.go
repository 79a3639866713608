// Package geometry turns OBJ shapes into renderer-ready vertex and index
// buffers and tracks the index ranges of each extracted sub-mesh.
package geometry

import (
	"fmt"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// Position is a vertex position attribute.
type Position [3]float32

// TextureCoords is a vertex texture coordinate attribute.
type TextureCoords [2]float32

// Normal is a vertex normal attribute.
type Normal [3]float32

// Sink is the constraint on vertex types that geometry can be written into.
// T is default-constructed as its zero value and filled through the pointer
// setters; only the attributes a corner carries are set.
type Sink[T any] interface {
	*T
	SetPosition(Position)
	SetTextureCoords(TextureCoords)
	SetNormal(Normal)
}

// VertexFormat describes which optional attributes a geometry carries.
type VertexFormat int

const (
	FormatPosition              VertexFormat = iota // Positions only
	FormatPositionTexture                           // Positions and texture coordinates
	FormatPositionNormal                            // Positions and normals
	FormatPositionTextureNormal                     // All three attributes
)

// String returns a human-readable format name.
func (f VertexFormat) String() string {
	switch f {
	case FormatPosition:
		return "Position"
	case FormatPositionTexture:
		return "PositionTexture"
	case FormatPositionNormal:
		return "PositionNormal"
	case FormatPositionTextureNormal:
		return "PositionTextureNormal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// HasTexture reports whether the format includes texture coordinates.
func (f VertexFormat) HasTexture() bool {
	return f == FormatPositionTexture || f == FormatPositionTextureNormal
}

// HasNormal reports whether the format includes normals.
func (f VertexFormat) HasNormal() bool {
	return f == FormatPositionNormal || f == FormatPositionTextureNormal
}

// BuildVertex creates one vertex from a corner reference. Position is always
// set; texture coordinates and normal only when the corner references them.
// Indices are not checked: src must contain everything c refers to.
func BuildVertex[T any, PT Sink[T]](c formats.VTNIndex, src *formats.OBJ) T {
	var vertex T
	pv := PT(&vertex)

	p := src.Vertices[c.V]
	pv.SetPosition(Position{float32(p[0]), float32(p[1]), float32(p[2])})

	if c.HasTexture() {
		uv := src.TexVertices[c.VT]
		pv.SetTextureCoords(TextureCoords{float32(uv[0]), float32(uv[1])})
	}
	if c.HasNormal() {
		n := src.Normals[c.VN]
		pv.SetNormal(Normal{float32(n[0]), float32(n[1]), float32(n[2])})
	}
	return vertex
}

// Package mesh builds complete models from parsed OBJ data: one shared
// vertex and index buffer plus a range per object geometry.
package mesh

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/pkg/geometry"
)

// Vertex is the default interleaved vertex with position, normal, and
// texture coordinates. Attributes a geometry lacks stay zero.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// VertexStride is the size of Vertex in bytes.
const VertexStride = 8 * 4

// SetPosition implements geometry.Sink.
func (v *Vertex) SetPosition(p geometry.Position) { v.Position = p }

// SetTextureCoords implements geometry.Sink.
func (v *Vertex) SetTextureCoords(uv geometry.TextureCoords) { v.TexCoord = uv }

// SetNormal implements geometry.Sink.
func (v *Vertex) SetNormal(n geometry.Normal) { v.Normal = n }

// Group describes one sub-mesh of the model.
type Group struct {
	Object   string
	Material string
	Format   geometry.VertexFormat
	Range    geometry.Range
}

// Model holds the complete mesh data ready for GPU upload.
// Groups and Geometry.Ranges() are parallel.
type Model[T any] struct {
	ID       uuid.UUID
	Vertices []T
	Indices  []uint32
	Geometry *geometry.Geometry
	Groups   []Group
	Bounds   Bounds

	// Skipped counts geometries dropped for mixing vertex formats.
	Skipped int
}

// Bounds holds the axis-aligned bounding box of the model.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// BuildOptions contains options for model building.
type BuildOptions struct {
	// Strict fails the build on the first geometry that mixes vertex
	// formats instead of dropping it.
	Strict bool
	// Logger receives build diagnostics. Nil disables logging.
	Logger *zap.Logger
}

package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/pkg/formats"
	"github.com/Faultbox/objmesh/pkg/geometry"
)

// Build creates a model from OBJ data. Every object geometry is extracted
// into the shared buffers and recorded as a group; geometries without
// triangles are not recorded.
//
// A geometry mixing vertex formats fails the build when opts.Strict is set.
// Otherwise its vertices and indices are truncated away and it is counted
// in Model.Skipped.
func Build[T any, PT geometry.Sink[T]](obj *formats.OBJ, opts BuildOptions) (*Model[T], error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := &Model[T]{
		ID:       uuid.New(),
		Geometry: geometry.New(),
	}
	log = log.With(zap.Stringer("model", m.ID))

	bounds := Bounds{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}

	for oi := range obj.Objects {
		object := &obj.Objects[oi]

		for gi := range object.Geometries {
			geom := &object.Geometries[gi]
			vertCount, idxCount := len(m.Vertices), len(m.Indices)

			r, format, err := geometry.Extract[T, PT](geom.Shapes, obj, &m.Vertices, &m.Indices)
			if err != nil {
				if opts.Strict {
					return nil, fmt.Errorf("object %q geometry %d (material %q): %w", object.Name, gi, geom.Material, err)
				}
				// Roll the buffers back to before this geometry
				m.Vertices = m.Vertices[:vertCount]
				m.Indices = m.Indices[:idxCount]
				m.Skipped++
				log.Warn("skipping geometry with mixed vertex formats",
					zap.String("object", object.Name),
					zap.Int("geometry", gi),
					zap.String("material", geom.Material),
					zap.Error(err))
				continue
			}
			if r.Len == 0 {
				continue
			}

			m.Geometry.Append(r)
			m.Groups = append(m.Groups, Group{
				Object:   object.Name,
				Material: geom.Material,
				Format:   format,
				Range:    r,
			})
			expandBounds(&bounds, obj, geom.Shapes)

			log.Debug("extracted geometry",
				zap.String("object", object.Name),
				zap.String("material", geom.Material),
				zap.Stringer("format", format),
				zap.Int("start", r.Start),
				zap.Int("count", r.Len))
		}
	}

	if len(m.Groups) > 0 {
		m.Bounds = bounds
	}

	log.Debug("model built",
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("indices", len(m.Indices)),
		zap.Int("groups", len(m.Groups)),
		zap.Int("skipped", m.Skipped))

	return m, nil
}

// GroupIndices returns the index buffer slice of group i.
func (m *Model[T]) GroupIndices(i int) []uint32 {
	r := m.Groups[i].Range
	return m.Indices[r.Start:r.End()]
}

// TriangleCount returns the number of triangles in the model.
func (m *Model[T]) TriangleCount() int {
	return len(m.Indices) / 3
}

// FormatCounts returns how many groups use each vertex format.
func (m *Model[T]) FormatCounts() map[geometry.VertexFormat]int {
	counts := make(map[geometry.VertexFormat]int)
	for _, g := range m.Groups {
		counts[g.Format]++
	}
	return counts
}

// IsMixedFormat reports whether err is a vertex format mismatch.
func IsMixedFormat(err error) bool {
	return errors.Is(err, geometry.ErrExpectedSameVertexFormatPerGeometry)
}

// Center returns the center of the bounding box.
func (b Bounds) Center() [3]float32 {
	return [3]float32{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Size returns the extent of the bounding box along each axis.
func (b Bounds) Size() [3]float32 {
	return [3]float32{
		b.Max[0] - b.Min[0],
		b.Max[1] - b.Min[1],
		b.Max[2] - b.Min[2],
	}
}

// expandBounds grows b by the positions of every triangle corner in shapes.
func expandBounds(b *Bounds, obj *formats.OBJ, shapes []formats.Shape) {
	for _, s := range shapes {
		tri, ok := s.(formats.Triangle)
		if !ok {
			continue
		}
		for _, c := range [3]formats.VTNIndex{tri.A, tri.B, tri.C} {
			v := obj.Vertices[c.V]
			updateBounds(b, [3]float32{float32(v[0]), float32(v[1]), float32(v[2])})
		}
	}
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

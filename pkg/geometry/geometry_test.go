package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/objmesh/pkg/formats"
)

// testVertex records which attributes were set.
type testVertex struct {
	Pos    Position
	UV     TextureCoords
	Norm   Normal
	HasPos bool
	HasUV  bool
	HasN   bool
}

func (v *testVertex) SetPosition(p Position)            { v.Pos, v.HasPos = p, true }
func (v *testVertex) SetTextureCoords(uv TextureCoords) { v.UV, v.HasUV = uv, true }
func (v *testVertex) SetNormal(n Normal)                { v.Norm, v.HasN = n, true }

func corner(v, vt, vn int) formats.VTNIndex {
	return formats.VTNIndex{V: v, VT: vt, VN: vn}
}

const none = formats.NoIndex

func makeSource() *formats.OBJ {
	return &formats.OBJ{
		Vertices: [][3]float64{
			{0, 0, 0},
			{1, 0, 0},
			{0, 1, 0},
			{1, 1, 0},
			{0.5, 0.25, -2},
		},
		TexVertices: [][2]float64{
			{0, 0},
			{1, 0},
			{0, 1},
		},
		Normals: [][3]float64{
			{0, 0, 1},
			{0, 0, -1},
		},
	}
}

func TestBuildVertex(t *testing.T) {
	src := makeSource()

	t.Run("position only", func(t *testing.T) {
		v := BuildVertex[testVertex](corner(4, none, none), src)
		assert.True(t, v.HasPos)
		assert.False(t, v.HasUV)
		assert.False(t, v.HasN)
		assert.Equal(t, Position{0.5, 0.25, -2}, v.Pos)
	})

	t.Run("all attributes", func(t *testing.T) {
		v := BuildVertex[testVertex](corner(1, 2, 1), src)
		assert.True(t, v.HasPos)
		assert.True(t, v.HasUV)
		assert.True(t, v.HasN)
		assert.Equal(t, Position{1, 0, 0}, v.Pos)
		assert.Equal(t, TextureCoords{0, 1}, v.UV)
		assert.Equal(t, Normal{0, 0, -1}, v.Norm)
	})

	t.Run("normal without texture", func(t *testing.T) {
		v := BuildVertex[testVertex](corner(2, none, 0), src)
		assert.False(t, v.HasUV)
		assert.True(t, v.HasN)
		assert.Equal(t, Normal{0, 0, 1}, v.Norm)
	})

	t.Run("narrows to float32", func(t *testing.T) {
		x, y, z := 0.1, 1e-3, 3.141592653589793
		s := &formats.OBJ{Vertices: [][3]float64{{x, y, z}}}
		v := BuildVertex[testVertex](corner(0, none, none), s)
		assert.Equal(t, Position{float32(x), float32(y), float32(z)}, v.Pos)
	})
}

func TestExtract_Example(t *testing.T) {
	src := &formats.OBJ{Vertices: [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}}
	shapes := []formats.Shape{
		formats.Triangle{A: corner(0, none, none), B: corner(1, none, none), C: corner(2, none, none)},
	}

	var vertices []testVertex
	var indices []uint32
	r, format, err := Extract(shapes, src, &vertices, &indices)

	require.NoError(t, err)
	assert.Equal(t, FormatPosition, format)
	assert.Equal(t, Range{Start: 0, Len: 3}, r)
	assert.Equal(t, []uint32{0, 1, 2}, indices)
	require.Len(t, vertices, 3)
	for i, v := range vertices {
		assert.True(t, v.HasPos, "vertex %d position", i)
		assert.False(t, v.HasUV, "vertex %d texcoords", i)
		assert.False(t, v.HasN, "vertex %d normal", i)
		assert.Equal(t, Position{float32(src.Vertices[i][0]), float32(src.Vertices[i][1]), float32(src.Vertices[i][2])}, v.Pos)
	}
}

func TestExtract_Classification(t *testing.T) {
	tests := []struct {
		name    string
		shapes  []formats.Shape
		want    VertexFormat
		wantLen int
		wantErr bool
	}{
		{
			name:    "no shapes",
			shapes:  nil,
			want:    FormatPosition,
			wantLen: 0,
		},
		{
			name: "only points and lines",
			shapes: []formats.Shape{
				formats.Point{A: corner(0, 0, 0)},
				formats.Line{A: corner(0, 0, 0), B: corner(1, 1, 0)},
			},
			want:    FormatPosition,
			wantLen: 0,
		},
		{
			name: "positions",
			shapes: []formats.Shape{
				formats.Triangle{A: corner(0, none, none), B: corner(1, none, none), C: corner(2, none, none)},
			},
			want:    FormatPosition,
			wantLen: 3,
		},
		{
			name: "texture",
			shapes: []formats.Shape{
				formats.Triangle{A: corner(0, 0, none), B: corner(1, 1, none), C: corner(2, 2, none)},
				formats.Triangle{A: corner(1, 1, none), B: corner(3, 2, none), C: corner(2, 0, none)},
			},
			want:    FormatPositionTexture,
			wantLen: 6,
		},
		{
			name: "normal",
			shapes: []formats.Shape{
				formats.Triangle{A: corner(0, none, 0), B: corner(1, none, 0), C: corner(2, none, 1)},
			},
			want:    FormatPositionNormal,
			wantLen: 3,
		},
		{
			name: "texture and normal",
			shapes: []formats.Shape{
				formats.Triangle{A: corner(0, 0, 0), B: corner(1, 1, 0), C: corner(2, 2, 0)},
				formats.Triangle{A: corner(1, 1, 1), B: corner(3, 2, 1), C: corner(2, 0, 1)},
				formats.Triangle{A: corner(4, 0, 1), B: corner(3, 1, 1), C: corner(2, 2, 1)},
			},
			want:    FormatPositionTextureNormal,
			wantLen: 9,
		},
		{
			name: "mixed texture between triangles",
			shapes: []formats.Shape{
				formats.Triangle{A: corner(0, 0, none), B: corner(1, 1, none), C: corner(2, 2, none)},
				formats.Triangle{A: corner(1, none, none), B: corner(3, none, none), C: corner(2, none, none)},
			},
			wantLen: 6,
			wantErr: true,
		},
		{
			name: "mixed normal within a triangle",
			shapes: []formats.Shape{
				formats.Triangle{A: corner(0, none, 0), B: corner(1, none, none), C: corner(2, none, 0)},
			},
			wantLen: 3,
			wantErr: true,
		},
		{
			name: "all texture, some normals",
			shapes: []formats.Shape{
				formats.Triangle{A: corner(0, 0, 0), B: corner(1, 1, 0), C: corner(2, 2, 0)},
				formats.Triangle{A: corner(1, 1, none), B: corner(3, 2, none), C: corner(2, 0, none)},
			},
			wantLen: 6,
			wantErr: true,
		},
		{
			name: "triangles mixed with other shapes",
			shapes: []formats.Shape{
				formats.Point{A: corner(4, none, none)},
				formats.Triangle{A: corner(0, 0, 0), B: corner(1, 1, 0), C: corner(2, 2, 0)},
				formats.Line{A: corner(0, none, none), B: corner(1, none, none)},
			},
			want:    FormatPositionTextureNormal,
			wantLen: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var vertices []testVertex
			var indices []uint32
			r, format, err := Extract(tt.shapes, makeSource(), &vertices, &indices)

			assert.Equal(t, Range{Start: 0, Len: tt.wantLen}, r)
			assert.Len(t, vertices, tt.wantLen)
			assert.Len(t, indices, tt.wantLen)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrExpectedSameVertexFormatPerGeometry))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, format)
		})
	}
}

func TestExtract_AppendsAfterExistingData(t *testing.T) {
	src := makeSource()
	shapes := []formats.Shape{
		formats.Triangle{A: corner(0, none, none), B: corner(1, none, none), C: corner(2, none, none)},
		formats.Triangle{A: corner(3, none, none), B: corner(4, none, none), C: corner(0, none, none)},
	}

	// Vertex and index buffers deliberately have different lengths.
	vertices := make([]testVertex, 7)
	indices := []uint32{9, 9, 9, 9}
	vertsBefore, idxBefore := len(vertices), len(indices)

	r, _, err := Extract(shapes, src, &vertices, &indices)
	require.NoError(t, err)

	assert.Equal(t, idxBefore, r.Start)
	assert.Equal(t, len(indices), r.End())
	assert.Equal(t, 6, r.Len)
	assert.Equal(t, []uint32{9, 9, 9, 9}, indices[:idxBefore], "existing indices untouched")

	for k := 0; k < r.Len; k++ {
		assert.Equal(t, uint32(vertsBefore+k), indices[r.Start+k], "index %d", k)
	}
}

func TestExtract_PreservesCornerOrder(t *testing.T) {
	src := makeSource()
	shapes := []formats.Shape{
		formats.Triangle{A: corner(2, none, none), B: corner(0, none, none), C: corner(4, none, none)},
		formats.Line{A: corner(1, none, none), B: corner(3, none, none)},
		formats.Triangle{A: corner(3, none, none), B: corner(1, none, none), C: corner(2, none, none)},
	}

	var vertices []testVertex
	var indices []uint32
	_, _, err := Extract(shapes, src, &vertices, &indices)
	require.NoError(t, err)

	order := []int{2, 0, 4, 3, 1, 2}
	require.Len(t, vertices, len(order))
	for i, vi := range order {
		p := src.Vertices[vi]
		assert.Equal(t, Position{float32(p[0]), float32(p[1]), float32(p[2])}, vertices[i].Pos, "vertex %d", i)
	}
}

func TestExtract_MismatchKeepsAppendedData(t *testing.T) {
	src := makeSource()
	shapes := []formats.Shape{
		formats.Triangle{A: corner(0, 0, none), B: corner(1, 1, none), C: corner(2, 2, none)},
		formats.Triangle{A: corner(1, none, none), B: corner(3, none, none), C: corner(2, none, none)},
	}

	vertices := make([]testVertex, 3)
	indices := []uint32{0, 1, 2}

	r, _, err := Extract(shapes, src, &vertices, &indices)
	require.ErrorIs(t, err, ErrExpectedSameVertexFormatPerGeometry)
	assert.Equal(t, Range{Start: 3, Len: 6}, r)
	assert.Len(t, vertices, 9)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8}, indices)
}

func TestExtract_Deterministic(t *testing.T) {
	src := makeSource()
	shapes := []formats.Shape{
		formats.Triangle{A: corner(0, 0, 0), B: corner(1, 1, 0), C: corner(2, 2, 1)},
	}

	var v1, v2 []testVertex
	var i1, i2 []uint32
	r1, f1, err1 := Extract(shapes, src, &v1, &i1)
	r2, f2, err2 := Extract(shapes, src, &v2, &i2)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, r1, r2)
	assert.Equal(t, f1, f2)
	assert.Equal(t, v1, v2)
	assert.Equal(t, i1, i2)
}

func TestGeometry_Append(t *testing.T) {
	g := New()
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.Ranges())

	src := makeSource()
	tri := []formats.Shape{
		formats.Triangle{A: corner(0, none, none), B: corner(1, none, none), C: corner(2, none, none)},
	}
	twoTris := append(tri, formats.Triangle{A: corner(1, none, none), B: corner(3, none, none), C: corner(2, none, none)})

	var vertices []testVertex
	var indices []uint32
	r1, _, err := Extract(tri, src, &vertices, &indices)
	require.NoError(t, err)
	g.Append(r1)
	r2, _, err := Extract(twoTris, src, &vertices, &indices)
	require.NoError(t, err)
	g.Append(r2)

	assert.Equal(t, []Range{{Start: 0, Len: 3}, {Start: 3, Len: 6}}, g.Ranges())
	assert.Equal(t, 2, g.Len())
}

func TestGeometry_AppendDoesNotValidate(t *testing.T) {
	g := New()
	g.Append(Range{Start: 10, Len: 3})
	g.Append(Range{Start: 0, Len: 20})
	g.Append(Range{Start: 0, Len: 0})

	assert.Equal(t, []Range{{10, 3}, {0, 20}, {0, 0}}, g.Ranges())
}

func TestVertexFormat_String(t *testing.T) {
	tests := []struct {
		format VertexFormat
		want   string
	}{
		{FormatPosition, "Position"},
		{FormatPositionTexture, "PositionTexture"},
		{FormatPositionNormal, "PositionNormal"},
		{FormatPositionTextureNormal, "PositionTextureNormal"},
		{VertexFormat(42), "Unknown(42)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.String())
		})
	}
}

func TestVertexFormat_Attributes(t *testing.T) {
	assert.False(t, FormatPosition.HasTexture())
	assert.False(t, FormatPosition.HasNormal())
	assert.True(t, FormatPositionTexture.HasTexture())
	assert.False(t, FormatPositionTexture.HasNormal())
	assert.False(t, FormatPositionNormal.HasTexture())
	assert.True(t, FormatPositionNormal.HasNormal())
	assert.True(t, FormatPositionTextureNormal.HasTexture())
	assert.True(t, FormatPositionTextureNormal.HasNormal())
}

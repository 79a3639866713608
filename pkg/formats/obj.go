// Package formats provides parsers for 3D model file formats.
// OBJ (Wavefront) format parser for polygonal models.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrMalformedOBJLine = errors.New("malformed OBJ line")
	ErrInvalidOBJIndex  = errors.New("invalid OBJ index")
)

// NoIndex marks an absent texture coordinate or normal reference.
const NoIndex = -1

// maxOBJLineSize bounds a single (joined) line.
const maxOBJLineSize = 16 << 20

// VTNIndex references one vertex of a shape: a position index plus
// optional texture coordinate and normal indices. All indices are
// zero-based into the OBJ arrays.
type VTNIndex struct {
	V  int // Index into OBJ.Vertices
	VT int // Index into OBJ.TexVertices, or NoIndex
	VN int // Index into OBJ.Normals, or NoIndex
}

// HasTexture reports whether the corner references a texture coordinate.
func (i VTNIndex) HasTexture() bool {
	return i.VT != NoIndex
}

// HasNormal reports whether the corner references a normal.
func (i VTNIndex) HasNormal() bool {
	return i.VN != NoIndex
}

// Shape is one primitive of a geometry: a Point, Line or Triangle.
type Shape interface {
	shape()
}

// Point is a single-vertex shape ("p" statement).
type Point struct {
	A VTNIndex
}

// Line is a segment between two vertices ("l" statement).
type Line struct {
	A, B VTNIndex
}

// Triangle is a face with three corners. Polygons with more corners are
// fan-triangulated around their first corner.
type Triangle struct {
	A, B, C VTNIndex
}

func (Point) shape()    {}
func (Line) shape()     {}
func (Triangle) shape() {}

// Geometry is a run of shapes sharing group, material and smoothing state.
type Geometry struct {
	Group    string  // Last "g" name, empty if none
	Material string  // "usemtl" name, empty if none
	Smooth   bool    // Smoothing enabled ("s" statement)
	Shapes   []Shape // Points, lines and triangles in file order
}

// Object is a named model part ("o" statement).
type Object struct {
	Name       string
	Geometries []Geometry
}

// OBJ represents a parsed Wavefront OBJ file. Vertex data is shared by
// all objects, the way the file format indexes it.
type OBJ struct {
	MaterialLibraries []string     // "mtllib" file names
	Vertices          [][3]float64 // Positions (w is dropped)
	TexVertices       [][2]float64 // Texture coordinates (w is dropped)
	Normals           [][3]float64 // Normals
	Objects           []Object     // Objects in file order
	Warnings          []string     // Unsupported statements that were skipped
}

// ParseOBJ parses OBJ data from a byte slice.
func ParseOBJ(data []byte) (*OBJ, error) {
	p := &objParser{obj: &OBJ{}}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), maxOBJLineSize)

	var pending strings.Builder
	startLine := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		text := scanner.Text()

		// Join backslash continuations into one logical line
		if strings.HasSuffix(text, "\\") {
			if pending.Len() == 0 {
				startLine = lineNum
			}
			pending.WriteString(strings.TrimSuffix(text, "\\"))
			pending.WriteByte(' ')
			continue
		}
		if pending.Len() > 0 {
			pending.WriteString(text)
			text = pending.String()
			pending.Reset()
		} else {
			startLine = lineNum
		}

		p.line = startLine
		if err := p.parseLine(text); err != nil {
			return nil, fmt.Errorf("line %d: %w", startLine, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ data: %w", err)
	}
	if pending.Len() > 0 {
		p.line = startLine
		if err := p.parseLine(pending.String()); err != nil {
			return nil, fmt.Errorf("line %d: %w", startLine, err)
		}
	}

	return p.obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return ParseOBJ(data)
}

type objParser struct {
	obj  *OBJ
	line int

	group    string
	material string
	smooth   bool

	// split forces the next shape into a new Geometry.
	split bool
}

func (p *objParser) parseLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	args := fields[1:]
	switch fields[0] {
	case "v":
		v, err := parseFloats(args, 3, 4)
		if err != nil {
			return err
		}
		p.obj.Vertices = append(p.obj.Vertices, [3]float64{v[0], v[1], v[2]})
	case "vt":
		v, err := parseFloats(args, 1, 3)
		if err != nil {
			return err
		}
		var uv [2]float64
		copy(uv[:], v)
		p.obj.TexVertices = append(p.obj.TexVertices, uv)
	case "vn":
		v, err := parseFloats(args, 3, 3)
		if err != nil {
			return err
		}
		p.obj.Normals = append(p.obj.Normals, [3]float64{v[0], v[1], v[2]})
	case "f":
		return p.parseFace(args)
	case "l":
		return p.parseLineShape(args)
	case "p":
		return p.parsePoints(args)
	case "o":
		p.obj.Objects = append(p.obj.Objects, Object{Name: strings.Join(args, " ")})
		p.split = true
	case "g":
		p.group = strings.Join(args, " ")
		p.split = true
	case "usemtl":
		if len(args) < 1 {
			return fmt.Errorf("%w: usemtl without a name", ErrMalformedOBJLine)
		}
		p.material = strings.Join(args, " ")
		p.split = true
	case "s":
		if len(args) < 1 {
			return fmt.Errorf("%w: s without a value", ErrMalformedOBJLine)
		}
		smooth := args[0] != "off" && args[0] != "0"
		if smooth != p.smooth {
			p.smooth = smooth
			p.split = true
		}
	case "mtllib":
		p.obj.MaterialLibraries = append(p.obj.MaterialLibraries, args...)
	default:
		p.obj.Warnings = append(p.obj.Warnings, fmt.Sprintf("line %d: unsupported statement %q", p.line, fields[0]))
	}
	return nil
}

// parseFace parses "f v1[/vt1][/vn1] v2... v3..." and fan-triangulates it.
func (p *objParser) parseFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: face with %d vertices", ErrMalformedOBJLine, len(args))
	}
	corners, err := p.parseCorners(args)
	if err != nil {
		return err
	}
	geom := p.currentGeometry()
	for i := 1; i+1 < len(corners); i++ {
		geom.Shapes = append(geom.Shapes, Triangle{corners[0], corners[i], corners[i+1]})
	}
	return nil
}

// parseLineShape parses "l v1[/vt1] v2..." into consecutive segments.
func (p *objParser) parseLineShape(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: line with %d vertices", ErrMalformedOBJLine, len(args))
	}
	corners, err := p.parseCorners(args)
	if err != nil {
		return err
	}
	geom := p.currentGeometry()
	for i := 0; i+1 < len(corners); i++ {
		geom.Shapes = append(geom.Shapes, Line{corners[i], corners[i+1]})
	}
	return nil
}

func (p *objParser) parsePoints(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: point without vertices", ErrMalformedOBJLine)
	}
	corners, err := p.parseCorners(args)
	if err != nil {
		return err
	}
	geom := p.currentGeometry()
	for _, c := range corners {
		geom.Shapes = append(geom.Shapes, Point{c})
	}
	return nil
}

func (p *objParser) parseCorners(args []string) ([]VTNIndex, error) {
	corners := make([]VTNIndex, len(args))
	for i, arg := range args {
		c, err := p.parseCorner(arg)
		if err != nil {
			return nil, err
		}
		corners[i] = c
	}
	return corners, nil
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn".
func (p *objParser) parseCorner(s string) (VTNIndex, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 || parts[0] == "" {
		return VTNIndex{}, fmt.Errorf("%w: bad vertex reference %q", ErrMalformedOBJLine, s)
	}

	c := VTNIndex{VT: NoIndex, VN: NoIndex}
	var err error
	if c.V, err = resolveIndex(parts[0], len(p.obj.Vertices)); err != nil {
		return VTNIndex{}, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if c.VT, err = resolveIndex(parts[1], len(p.obj.TexVertices)); err != nil {
			return VTNIndex{}, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if c.VN, err = resolveIndex(parts[2], len(p.obj.Normals)); err != nil {
			return VTNIndex{}, err
		}
	}
	return c, nil
}

// resolveIndex converts a 1-based (or negative, relative) file index into
// a zero-based index into an array of length n.
func resolveIndex(s string, n int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedOBJLine, s)
	}
	switch {
	case i > 0:
		i--
	case i < 0:
		i += n
	default:
		return 0, fmt.Errorf("%w: zero index", ErrInvalidOBJIndex)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %s out of range (%d defined)", ErrInvalidOBJIndex, s, n)
	}
	return i, nil
}

// currentGeometry returns the geometry new shapes go into, creating the
// implicit object or a new geometry as needed.
func (p *objParser) currentGeometry() *Geometry {
	if len(p.obj.Objects) == 0 {
		p.obj.Objects = append(p.obj.Objects, Object{})
	}
	obj := &p.obj.Objects[len(p.obj.Objects)-1]
	if p.split || len(obj.Geometries) == 0 {
		obj.Geometries = append(obj.Geometries, Geometry{
			Group:    p.group,
			Material: p.material,
			Smooth:   p.smooth,
		})
		p.split = false
	}
	return &obj.Geometries[len(obj.Geometries)-1]
}

func parseFloats(args []string, min, max int) ([]float64, error) {
	if len(args) < min || len(args) > max {
		return nil, fmt.Errorf("%w: expected %d to %d values, got %d", ErrMalformedOBJLine, min, max, len(args))
	}
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrMalformedOBJLine, a)
		}
		out[i] = v
	}
	return out, nil
}

// TriangleCount returns the number of triangles across all objects.
func (o *OBJ) TriangleCount() int {
	count := 0
	for i := range o.Objects {
		for _, g := range o.Objects[i].Geometries {
			for _, s := range g.Shapes {
				if _, ok := s.(Triangle); ok {
					count++
				}
			}
		}
	}
	return count
}

// GetObjectByName finds an object by name.
func (o *OBJ) GetObjectByName(name string) *Object {
	for i := range o.Objects {
		if o.Objects[i].Name == name {
			return &o.Objects[i]
		}
	}
	return nil
}

package mesh

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes exported buffers. It is written next to them as YAML.
type Manifest struct {
	ID           string          `yaml:"id"`
	VertexFile   string          `yaml:"vertex_file"`
	IndexFile    string          `yaml:"index_file"`
	VertexCount  int             `yaml:"vertex_count"`
	IndexCount   int             `yaml:"index_count"`
	VertexStride int             `yaml:"vertex_stride"`
	Bounds       ManifestBounds  `yaml:"bounds"`
	Groups       []ManifestGroup `yaml:"groups"`
}

// ManifestBounds is the bounding box entry of a manifest.
type ManifestBounds struct {
	Min [3]float32 `yaml:"min,flow"`
	Max [3]float32 `yaml:"max,flow"`
}

// ManifestGroup is one sub-mesh entry of a manifest.
type ManifestGroup struct {
	Object   string `yaml:"object"`
	Material string `yaml:"material,omitempty"`
	Format   string `yaml:"format"`
	Start    int    `yaml:"start"`
	Count    int    `yaml:"count"`
}

// Export writes the model to dir as name.vbo (interleaved little-endian
// float32 vertices), name.ibo (little-endian uint32 indices) and
// name.yaml (the manifest).
func Export(m *Model[Vertex], dir, name string) (*Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	man := &Manifest{
		ID:           m.ID.String(),
		VertexFile:   name + ".vbo",
		IndexFile:    name + ".ibo",
		VertexCount:  len(m.Vertices),
		IndexCount:   len(m.Indices),
		VertexStride: VertexStride,
		Bounds:       ManifestBounds{Min: m.Bounds.Min, Max: m.Bounds.Max},
	}
	for _, g := range m.Groups {
		man.Groups = append(man.Groups, ManifestGroup{
			Object:   g.Object,
			Material: g.Material,
			Format:   g.Format.String(),
			Start:    g.Range.Start,
			Count:    g.Range.Len,
		})
	}

	if err := writeBinary(filepath.Join(dir, man.VertexFile), m.Vertices); err != nil {
		return nil, fmt.Errorf("writing vertices: %w", err)
	}
	if err := writeBinary(filepath.Join(dir, man.IndexFile), m.Indices); err != nil {
		return nil, fmt.Errorf("writing indices: %w", err)
	}

	data, err := yaml.Marshal(man)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), data, 0644); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	return man, nil
}

// ReadManifest loads a manifest written by Export.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var man Manifest
	if err := yaml.Unmarshal(data, &man); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &man, nil
}

func writeBinary(path string, data any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := binary.Write(w, binary.LittleEndian, data); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

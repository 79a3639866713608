// objtool is a CLI utility for turning Wavefront OBJ models into
// renderer-ready vertex and index buffers.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/objmesh/internal/config"
	"github.com/Faultbox/objmesh/internal/logger"
	"github.com/Faultbox/objmesh/internal/watch"
	"github.com/Faultbox/objmesh/pkg/formats"
	"github.com/Faultbox/objmesh/pkg/geometry"
	"github.com/Faultbox/objmesh/pkg/mesh"
)

var errUsage = errors.New("usage")

func main() {
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "export", "x":
		err = cmdExport(cfg, args)
	case "watch", "w":
		err = cmdWatch(cfg, args)
	case "config":
		err = cmdConfig(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, errUsage) {
			logger.Error("command failed", zap.String("command", command), zap.Error(err))
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`objtool - Wavefront OBJ to vertex/index buffer utility

Usage:
  objtool [flags] <command> [options]

Commands:
  info <file.obj>                 Show objects, groups and vertex formats
  export <file.obj> [output_dir]  Write .vbo/.ibo buffers and a .yaml manifest
  watch <file.obj>                Rebuild and summarize whenever the file changes
  config [path]                   Save the effective config (default: user config dir)

Flags:
  -config <path>    Config file (.yaml or .toml)
  -debug            Enable debug logging
  -strict           Fail on geometries that mix vertex formats
  -log-file <path>  Also write logs to this file

Examples:
  objtool info teapot.obj
  objtool -strict export teapot.obj ./build
  objtool -debug watch teapot.obj`)
}

func usage(line string) error {
	fmt.Fprintln(os.Stderr, "Usage: objtool "+line)
	return errUsage
}

// loadModel parses and builds an OBJ file with the configured options.
func loadModel(cfg *config.Config, path string) (*mesh.Model[mesh.Vertex], *formats.OBJ, error) {
	start := time.Now()

	obj, err := formats.ParseOBJFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, w := range obj.Warnings {
		logger.Debug("obj warning", zap.String("file", path), zap.String("warning", w))
	}

	m, err := mesh.Build[mesh.Vertex](obj, mesh.BuildOptions{
		Strict: cfg.Build.Strict,
		Logger: logger.Named("mesh"),
	})
	if err != nil {
		if mesh.IsMixedFormat(err) {
			logger.Debug("strict build rejected mixed vertex formats", zap.String("file", path))
			return nil, nil, fmt.Errorf("building %s: %w (drop -strict to skip such geometries)", path, err)
		}
		return nil, nil, fmt.Errorf("building %s: %w", path, err)
	}

	logger.Info("model loaded",
		zap.String("file", path),
		zap.Stringer("model", m.ID),
		zap.Int("vertices", len(m.Vertices)),
		zap.Int("groups", len(m.Groups)),
		zap.Duration("took", time.Since(start)))

	return m, obj, nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("info <file.obj>")
	}

	m, obj, err := loadModel(cfg, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("File:      %s\n", args[0])
	fmt.Printf("Model:     %s\n", m.ID)
	fmt.Printf("Objects:   %d\n", len(obj.Objects))
	fmt.Printf("Positions: %d (texcoords %d, normals %d)\n", len(obj.Vertices), len(obj.TexVertices), len(obj.Normals))
	fmt.Printf("Triangles: %d\n", m.TriangleCount())
	fmt.Printf("Vertices:  %d\n", len(m.Vertices))
	if m.Skipped > 0 {
		fmt.Printf("Skipped:   %d geometries (mixed vertex formats)\n", m.Skipped)
	}
	if len(m.Groups) > 0 {
		fmt.Printf("Bounds:    %v .. %v\n", m.Bounds.Min, m.Bounds.Max)
		fmt.Printf("Size:      %v (center %v)\n", m.Bounds.Size(), m.Bounds.Center())
	}
	printGroups(m)
	printFormatSummary(m)
	return nil
}

func printGroups(m *mesh.Model[mesh.Vertex]) {
	if len(m.Groups) == 0 {
		fmt.Println("\nNo triangle geometry found")
		return
	}

	fmt.Println()
	fmt.Printf("  %-4s %-20s %-16s %-22s %8s %8s\n", "#", "OBJECT", "MATERIAL", "FORMAT", "START", "COUNT")
	for i, g := range m.Groups {
		fmt.Printf("  %-4d %-20s %-16s %-22s %8d %8d\n",
			i, orDash(g.Object), orDash(g.Material), g.Format, g.Range.Start, g.Range.Len)
	}
}

func printFormatSummary(m *mesh.Model[mesh.Vertex]) {
	counts := m.FormatCounts()
	if len(counts) == 0 {
		return
	}

	formatsUsed := make([]geometry.VertexFormat, 0, len(counts))
	for f := range counts {
		formatsUsed = append(formatsUsed, f)
	}
	sort.Slice(formatsUsed, func(i, j int) bool {
		return formatsUsed[i] < formatsUsed[j]
	})

	fmt.Println()
	fmt.Println("Groups by format:")
	for _, f := range formatsUsed {
		fmt.Printf("  %-22s %d\n", f, counts[f])
	}
}

func cmdExport(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("export <file.obj> [output_dir]")
	}

	path := args[0]
	outputDir := cfg.Export.Dir
	if len(args) > 1 {
		outputDir = args[1]
	}

	m, _, err := loadModel(cfg, path)
	if err != nil {
		return err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	man, err := mesh.Export(m, outputDir, name)
	if err != nil {
		return fmt.Errorf("exporting %s: %w", path, err)
	}

	fmt.Printf("Exported: %s (%d vertices)\n", filepath.Join(outputDir, man.VertexFile), man.VertexCount)
	fmt.Printf("Exported: %s (%d indices)\n", filepath.Join(outputDir, man.IndexFile), man.IndexCount)
	fmt.Printf("Exported: %s (%d groups)\n", filepath.Join(outputDir, name+".yaml"), len(man.Groups))
	if m.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "\n(%d geometries skipped for mixed vertex formats, use -strict to fail instead)\n", m.Skipped)
	}
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usage("watch <file.obj>")
	}
	path := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	debounce := time.Duration(cfg.Watch.DebounceMs) * time.Millisecond
	err := watch.File(ctx, path, debounce, logger.Named("watch"), func() {
		m, _, err := loadModel(cfg, path)
		if err != nil {
			// Keep watching: the next save may fix it
			fmt.Fprintf(os.Stderr, "[%s] Error: %v\n", time.Now().Format("15:04:05"), err)
			return
		}
		fmt.Printf("[%s] %s: %d groups, %d triangles, %d skipped\n",
			time.Now().Format("15:04:05"), path, len(m.Groups), m.TriangleCount(), m.Skipped)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "\nStopped watching")
	return nil
}

func cmdConfig(cfg *config.Config, args []string) error {
	path := filepath.Join(config.ConfigDir(), "config.yaml")
	if len(args) > 0 {
		path = args[0]
	}
	if err := cfg.SaveTo(path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Saved config to %s\n", path)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

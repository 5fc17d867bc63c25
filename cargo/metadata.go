package cargo

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/tools"
)

// Program is the cargo executable.
var Program = "cargo"

// Package is one entry of the cargo metadata package graph.
type Package struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	ID           string   `json:"id"`
	ManifestPath string   `json:"manifest_path"`
	Targets      []Target `json:"targets"`
}

// Dir returns the directory holding the package manifest.
func (p *Package) Dir() string {
	return filepath.Dir(p.ManifestPath)
}

// BinaryName returns the name of the first bin target, which cargo uses for
// the executable. Packages without targets fall back to the package name.
func (p *Package) BinaryName() string {
	for _, t := range p.Targets {
		for _, k := range t.Kind {
			if k == "bin" {
				return t.Name
			}
		}
	}
	return p.Name
}

// Target is a build target of a package.
type Target struct {
	Name string   `json:"name"`
	Kind []string `json:"kind"`
}

// Metadata is the output of `cargo metadata --format-version 1`.
type Metadata struct {
	Packages        []Package `json:"packages"`
	WorkspaceRoot   string    `json:"workspace_root"`
	TargetDirectory string    `json:"target_directory"`
}

// FindPackage returns the package called name.
func (m *Metadata) FindPackage(name string) (*Package, bool) {
	for i := range m.Packages {
		if m.Packages[i].Name == name {
			return &m.Packages[i], true
		}
	}
	return nil, false
}

// FindPackageByManifest returns the package whose manifest is manifestPath.
func (m *Metadata) FindPackageByManifest(manifestPath string) (*Package, bool) {
	want := filepath.Clean(manifestPath)
	for i := range m.Packages {
		if filepath.Clean(m.Packages[i].ManifestPath) == want {
			return &m.Packages[i], true
		}
	}
	return nil, false
}

// MetadataCommand returns the cargo metadata invocation. An empty
// manifestPath lets cargo search from the working directory.
func MetadataCommand(manifestPath string, deps bool) tools.Command {
	args := []string{"metadata", "--format-version", "1"}
	if !deps {
		args = append(args, "--no-deps")
	}
	if manifestPath != "" {
		args = append(args, "--manifest-path", manifestPath)
	}
	return tools.Command{Name: Program, Args: args, Quiet: true}
}

// ReadMetadata runs cargo metadata and decodes its output.
func ReadMetadata(ctx context.Context, runner tools.Runner, manifestPath string, deps bool) (*Metadata, error) {
	out, err := runner.Output(ctx, MetadataCommand(manifestPath, deps))
	if err != nil {
		return nil, err
	}
	return ParseMetadata(out)
}

// ParseMetadata decodes cargo metadata JSON.
func ParseMetadata(data []byte) (*Metadata, error) {
	m := &Metadata{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, errors.Errorf("cannot parse cargo metadata: %v", err)
	}
	return m, nil
}

// Xargo is the cross-compilation toolchain driver.
var Xargo = "xargo"

// XargoBuildCommand returns `xargo build args...` with RUST_TARGET_PATH set
// to targetPath so custom target specifications are found.
func XargoBuildCommand(targetPath string, args []string) tools.Command {
	return tools.Command{
		Name: Xargo,
		Args: append([]string{"build"}, args...),
		Env:  []string{"RUST_TARGET_PATH=" + targetPath},
	}
}

// FetchCommand returns `cargo fetch` run in dir.
func FetchCommand(dir string) tools.Command {
	return tools.Command{Name: Program, Args: []string{"fetch"}, Dir: dir, Quiet: true}
}

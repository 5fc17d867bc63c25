package bootloader

import (
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/cargo"
	"github.com/nanovms/bootimage/types"
)

// ArtifactResolver describes how the bootloader crate is located. The
// dependency it returns is written into the helper manifest and resolved by
// cargo.
type ArtifactResolver interface {
	Kind() string
	Dependency() cargo.Dependency
}

// RegistryResolver fetches a released crate.
type RegistryResolver struct {
	Name    string
	Version string
}

// Kind returns "registry".
func (r RegistryResolver) Kind() string { return "registry" }

// Dependency returns name + version. An empty version accepts any release.
func (r RegistryResolver) Dependency() cargo.Dependency {
	version := r.Version
	if version == "" {
		version = "*"
	}
	return cargo.Dependency{Name: r.Name, Version: version}
}

// GitResolver fetches from a source-control location.
type GitResolver struct {
	Name    string
	Git     string
	Branch  string
	Version string
}

// Kind returns "git".
func (r GitResolver) Kind() string { return "git" }

// Dependency returns name + git + branch.
func (r GitResolver) Dependency() cargo.Dependency {
	return cargo.Dependency{Name: r.Name, Git: r.Git, Branch: r.Branch, Version: r.Version}
}

// PathResolver uses a local checkout.
type PathResolver struct {
	Name string
	Path string
}

// Kind returns "path".
func (r PathResolver) Kind() string { return "path" }

// Dependency returns name + path.
func (r PathResolver) Dependency() cargo.Dependency {
	return cargo.Dependency{Name: r.Name, Path: r.Path}
}

// NewResolver picks the resolver for cfg. Path takes precedence over the
// registry, git is exclusive with path.
func NewResolver(cfg types.BootloaderConfig) (ArtifactResolver, error) {
	if cfg.Name == "" {
		return nil, errors.New("bootloader name is empty")
	}
	if cfg.Git != "" && cfg.Path != "" {
		return nil, errors.Errorf("bootloader %s: git and path are mutually exclusive", cfg.Name)
	}
	if cfg.Branch != "" && cfg.Git == "" {
		return nil, errors.Errorf("bootloader %s: branch requires git", cfg.Name)
	}

	switch {
	case cfg.Path != "":
		path, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, errors.Wrap(err, 1)
		}
		return PathResolver{Name: cfg.Name, Path: path}, nil
	case cfg.Git != "":
		return GitResolver{Name: cfg.Name, Git: cfg.Git, Branch: cfg.Branch, Version: cfg.Version}, nil
	default:
		return RegistryResolver{Name: cfg.Name, Version: cfg.Version}, nil
	}
}

package kernel

import (
	"context"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/cargo"
	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/tools"
	"github.com/spf13/afero"
)

var (
	// ErrKernelBuildFailed is returned when the kernel build exits non-zero.
	ErrKernelBuildFailed = errors.New("kernel build failed")
	// ErrKernelCrateNotFound is returned when cargo metadata has no package
	// for the kernel manifest.
	ErrKernelCrateNotFound = errors.New("kernel crate not found")
)

// BuildError carries the exit code of the failed kernel build.
type BuildError struct {
	Cause    error
	ExitCode int
}

func (e *BuildError) Error() string {
	return ErrKernelBuildFailed.Error() + ": " + e.Cause.Error()
}

// Unwrap returns the toolchain error.
func (e *BuildError) Unwrap() error { return e.Cause }

// Is matches ErrKernelBuildFailed.
func (e *BuildError) Is(target error) bool { return target == ErrKernelBuildFailed }

// CrateNotFoundError names the manifest no package matched.
type CrateNotFoundError struct {
	ManifestPath string
}

func (e *CrateNotFoundError) Error() string {
	return "could not read crate name from cargo metadata: no package for " + e.ManifestPath
}

// Is matches ErrKernelCrateNotFound.
func (e *CrateNotFoundError) Is(target error) bool { return target == ErrKernelCrateNotFound }

// Artifact is the compiled kernel executable.
type Artifact struct {
	Path string
	Size uint64
}

// Options for a kernel build.
type Options struct {
	// ManifestPath is the Cargo.toml of the kernel crate.
	ManifestPath string
	// Target triple, empty for the host.
	Target string
	Release bool
	// CargoArgs are appended verbatim.
	CargoArgs []string
	// TargetPath is exported as RUST_TARGET_PATH so custom target
	// specifications next to the crate are found.
	TargetPath string
}

// Builder compiles the kernel crate.
type Builder interface {
	Build(ctx context.Context, metadata *cargo.Metadata, opts Options) (*Artifact, error)
}

// XargoBuilder builds the kernel with xargo.
type XargoBuilder struct {
	fs     afero.Fs
	runner tools.Runner
}

// NewXargoBuilder returns a XargoBuilder.
func NewXargoBuilder(fs afero.Fs, runner tools.Runner) *XargoBuilder {
	return &XargoBuilder{fs: fs, runner: runner}
}

// BuildCommand returns the xargo invocation for opts.
func BuildCommand(opts Options) tools.Command {
	var args []string
	if opts.ManifestPath != "" {
		args = append(args, "--manifest-path", opts.ManifestPath)
	}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	if opts.Release {
		args = append(args, "--release")
	}
	args = append(args, opts.CargoArgs...)
	return cargo.XargoBuildCommand(opts.TargetPath, args)
}

// OutDir is the directory cargo writes the kernel executable to.
func OutDir(metadata *cargo.Metadata, target string, release bool) string {
	dir := metadata.TargetDirectory
	if target != "" {
		dir = filepath.Join(dir, targetName(target))
	}
	if release {
		return filepath.Join(dir, "release")
	}
	return filepath.Join(dir, "debug")
}

func targetName(target string) string {
	if filepath.Ext(target) == ".json" {
		return filepath.Base(target[:len(target)-len(".json")])
	}
	return target
}

// Build locates the kernel crate in metadata, compiles it and stats the
// resulting executable.
func (b *XargoBuilder) Build(ctx context.Context, metadata *cargo.Metadata, opts Options) (*Artifact, error) {
	pkg, ok := metadata.FindPackageByManifest(opts.ManifestPath)
	if !ok {
		return nil, &CrateNotFoundError{ManifestPath: opts.ManifestPath}
	}

	log.Step("Building kernel")
	c := BuildCommand(opts)
	log.Debug("running %s", c.String())
	if err := b.runner.Run(ctx, c); err != nil {
		var exitErr *tools.ExitError
		if errors.As(err, &exitErr) {
			return nil, &BuildError{Cause: exitErr, ExitCode: exitErr.ExitCode}
		}
		return nil, errors.Wrap(err, 1)
	}

	path := filepath.Join(OutDir(metadata, opts.Target, opts.Release), pkg.BinaryName())
	fi, err := b.fs.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, 1)
	}
	log.Debug("kernel %s is %d bytes", path, fi.Size())

	return &Artifact{Path: path, Size: uint64(fi.Size())}, nil
}

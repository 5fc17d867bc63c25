package bootloader

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/cargo"
	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/tools"
	"github.com/spf13/afero"
)

const lockFile = "Cargo.lock"

// Stepper runs a unit of work behind a progress indicator.
type Stepper interface {
	Do(work func() error, messages ...interface{}) error
}

type plainStepper struct{}

func (plainStepper) Do(work func() error, messages ...interface{}) error {
	return work()
}

// AcquireOptions tune how the bootloader dependency is resolved.
type AcquireOptions struct {
	// ForceRefresh ignores and discards the saved lock file so the
	// dependency graph is resolved from scratch.
	ForceRefresh bool
	// LockDir keeps Cargo.lock between runs. Empty disables pinning.
	LockDir string
}

// Source is a fetched bootloader crate.
type Source struct {
	Name         string
	Version      string
	ManifestPath string
	Dir          string
}

// Acquirer fetches bootloader sources through cargo.
type Acquirer struct {
	fs      afero.Fs
	runner  tools.Runner
	stepper Stepper
}

// NewAcquirer returns an Acquirer.
func NewAcquirer(fs afero.Fs, runner tools.Runner) *Acquirer {
	return &Acquirer{fs: fs, runner: runner, stepper: plainStepper{}}
}

// SetStepper sets the progress indicator used while fetching.
func (a *Acquirer) SetStepper(s Stepper) {
	a.stepper = s
}

// Acquire writes a helper crate depending on the resolver's dependency to
// dir, fetches it and locates the bootloader crate in the resolved graph.
func (a *Acquirer) Acquire(ctx context.Context, dir string, resolver ArtifactResolver, opts AcquireOptions) (*Source, error) {
	dep := resolver.Dependency()

	manifestPath, err := a.writeHelper(dir, dep)
	if err != nil {
		return nil, err
	}

	if err := a.seedLock(dir, opts); err != nil {
		return nil, err
	}

	log.Debug("fetching %s bootloader %s in %s", resolver.Kind(), dep.Name, dir)
	err = a.stepper.Do(func() error {
		return a.runner.Run(ctx, cargo.FetchCommand(dir))
	}, "Downloading bootloader ", dep.Name)
	if err != nil {
		var exitErr *tools.ExitError
		if errors.As(err, &exitErr) {
			return nil, &FetchError{
				errCustom: errCustom{Msg: "bootloader download failed", Cause: exitErr},
				Output:    exitErr.Output,
			}
		}
		return nil, errors.Wrap(err, 1)
	}

	metadata, err := cargo.ReadMetadata(ctx, a.runner, manifestPath, true)
	if err != nil {
		return nil, err
	}
	pkg, ok := metadata.FindPackage(dep.Name)
	if !ok {
		return nil, notFound(dep.Name)
	}

	if err := a.saveLock(dir, opts); err != nil {
		return nil, err
	}

	return &Source{
		Name:         pkg.Name,
		Version:      pkg.Version,
		ManifestPath: pkg.ManifestPath,
		Dir:          pkg.Dir(),
	}, nil
}

func (a *Acquirer) writeHelper(dir string, dep cargo.Dependency) (string, error) {
	data, err := cargo.HelperManifest(dep)
	if err != nil {
		return "", err
	}

	if err := a.fs.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
		return "", errors.Wrap(err, 1)
	}

	manifestPath := filepath.Join(dir, "Cargo.toml")
	if err := afero.WriteFile(a.fs, manifestPath, data, 0o644); err != nil {
		return "", errors.Wrap(err, 1)
	}
	if err := afero.WriteFile(a.fs, filepath.Join(dir, "src", "lib.rs"), []byte(cargo.HelperLib), 0o644); err != nil {
		return "", errors.Wrap(err, 1)
	}
	return manifestPath, nil
}

func (a *Acquirer) seedLock(dir string, opts AcquireOptions) error {
	if opts.LockDir == "" {
		return nil
	}
	saved := filepath.Join(opts.LockDir, lockFile)

	if opts.ForceRefresh {
		log.Debug("discarding %s", saved)
		if err := a.fs.Remove(saved); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, 1)
		}
		return nil
	}

	data, err := afero.ReadFile(a.fs, saved)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, 1)
	}
	log.Debug("using pinned %s", saved)
	if err := afero.WriteFile(a.fs, filepath.Join(dir, lockFile), data, 0o644); err != nil {
		return errors.Wrap(err, 1)
	}
	return nil
}

func (a *Acquirer) saveLock(dir string, opts AcquireOptions) error {
	if opts.LockDir == "" {
		return nil
	}

	data, err := afero.ReadFile(a.fs, filepath.Join(dir, lockFile))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, 1)
	}

	if err := a.fs.MkdirAll(opts.LockDir, 0o755); err != nil {
		return errors.Wrap(err, 1)
	}
	if err := afero.WriteFile(a.fs, filepath.Join(opts.LockDir, lockFile), data, 0o644); err != nil {
		return errors.Wrap(err, 1)
	}
	return nil
}

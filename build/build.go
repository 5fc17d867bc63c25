package build

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/bootloader"
	"github.com/nanovms/bootimage/cargo"
	"github.com/nanovms/bootimage/config"
	"github.com/nanovms/bootimage/image"
	"github.com/nanovms/bootimage/kernel"
	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/tools"
	"github.com/nanovms/bootimage/types"
	"github.com/nanovms/bootimage/util"
	"github.com/spf13/afero"
)

// LockDirName is the directory below the kernel output directory that
// keeps the bootloader Cargo.lock between builds.
const LockDirName = "bootloader"

// Options wire a build to its configuration and collaborators.
type Options struct {
	Config   *types.Config
	Metadata *cargo.Metadata
	Fs       afero.Fs
	Runner   tools.Runner

	// Kernel defaults to a kernel.XargoBuilder.
	Kernel kernel.Builder
	// Stepper wraps the bootloader download, nil runs it plainly.
	Stepper bootloader.Stepper
	// Progress receives a byte progress bar while the kernel is copied.
	Progress io.Writer
	// WorkDir is exported as RUST_TARGET_PATH for the kernel build.
	// Defaults to the current directory.
	WorkDir string
	// TempDir is the parent of the scoped bootloader download directory.
	// Defaults to the system temp directory.
	TempDir string
}

// Result summarises a finished build.
type Result struct {
	Image      *image.Result
	Kernel     *kernel.Artifact
	Bootloader *bootloader.Source
}

// LoadProject reads cargo metadata for manifestPath, or the workspace when
// it is empty, and overlays the bootimage table of the kernel manifest onto
// c.
func LoadProject(ctx context.Context, fs afero.Fs, runner tools.Runner, manifestPath string, c *types.Config) (*cargo.Metadata, error) {
	metadata, err := cargo.ReadMetadata(ctx, runner, manifestPath, false)
	if err != nil {
		return nil, err
	}

	if manifestPath == "" {
		manifestPath = filepath.Join(metadata.WorkspaceRoot, "Cargo.toml")
	} else if manifestPath, err = filepath.Abs(manifestPath); err != nil {
		return nil, errors.Wrap(err, 1)
	}
	log.Debug("kernel manifest %s", manifestPath)

	if err := config.ReadManifest(fs, manifestPath, c); err != nil {
		return nil, err
	}
	return metadata, nil
}

// KernelOptions derives the kernel build options from c. The command line
// target wins over the configured default target.
func KernelOptions(c *types.Config, workDir string) kernel.Options {
	target := c.BuildConfig.Target
	if target == "" {
		target = c.DefaultTarget
	}
	return kernel.Options{
		ManifestPath: c.ManifestPath,
		Target:       target,
		Release:      c.BuildConfig.Release,
		CargoArgs:    c.BuildConfig.CargoArgs,
		TargetPath:   workDir,
	}
}

// Build compiles the kernel and the bootloader and writes the disk image.
// An oversized kernel panics before any file is written.
func Build(ctx context.Context, opts Options) (*Result, error) {
	c := opts.Config
	if err := config.Validate(c); err != nil {
		return nil, err
	}
	minSize, err := util.ParseSize(string(c.MinimumImageSize))
	if err != nil {
		return nil, err
	}

	workDir := opts.WorkDir
	if workDir == "" {
		if workDir, err = os.Getwd(); err != nil {
			return nil, errors.Wrap(err, 1)
		}
	}

	kb := opts.Kernel
	if kb == nil {
		kb = kernel.NewXargoBuilder(opts.Fs, opts.Runner)
	}
	kopts := KernelOptions(c, workDir)
	artifact, err := kb.Build(ctx, opts.Metadata, kopts)
	if err != nil {
		return nil, err
	}

	info := image.NewKernelInfoBlock(artifact.Size)

	lockDir := filepath.Join(kernel.OutDir(opts.Metadata, kopts.Target, kopts.Release), LockDirName)
	bin, src, err := buildBootloader(ctx, opts, lockDir)
	if err != nil {
		return nil, err
	}
	code, err := bin.Section(c.Bootloader.Section)
	if err != nil {
		return nil, err
	}

	log.Step("Creating disk image at %s", c.Output)

	if c.DiagnosticsEnabled() {
		dir := filepath.Dir(c.Output)
		log.Debug("writing %s and %s to %s", image.KernelCopy, image.BootloaderCopy, dir)
		if err := image.WriteDiagnostics(opts.Fs, dir, artifact.Path, bin.Bytes); err != nil {
			return nil, err
		}
	}

	kernelFile, err := opts.Fs.Open(artifact.Path)
	if err != nil {
		return nil, errors.Wrap(err, 1)
	}
	defer kernelFile.Close()

	a := image.NewAssembler(opts.Fs)
	a.SetOutputPath(c.Output)
	a.SetMinimumSize(minSize)
	if opts.Progress != nil {
		a.SetProgress(util.NewCopyProgress(opts.Progress, int64(artifact.Size), "Writing kernel"))
	}

	res, err := a.Assemble(code, info, kernelFile, artifact.Size)
	if err != nil {
		return nil, err
	}
	log.Info("Bootable image %s (%s)", res.Path, humanize.Bytes(res.Size))

	return &Result{Image: res, Kernel: artifact, Bootloader: src}, nil
}

// buildBootloader fetches and builds the bootloader in a scoped temporary
// directory that is removed on every path.
func buildBootloader(ctx context.Context, opts Options, lockDir string) (*bootloader.Binary, *bootloader.Source, error) {
	c := opts.Config

	resolver, err := bootloader.NewResolver(c.Bootloader)
	if err != nil {
		return nil, nil, err
	}

	dir, err := afero.TempDir(opts.Fs, opts.TempDir, "bootloader")
	if err != nil {
		return nil, nil, errors.Wrap(err, 1)
	}
	defer func() {
		if err := opts.Fs.RemoveAll(dir); err != nil {
			log.Error(errors.WrapPrefix(err, "cannot remove "+dir, 0))
		}
	}()

	acquirer := bootloader.NewAcquirer(opts.Fs, opts.Runner)
	if opts.Stepper != nil {
		acquirer.SetStepper(opts.Stepper)
	}
	src, err := acquirer.Acquire(ctx, dir, resolver, bootloader.AcquireOptions{
		ForceRefresh: c.BuildConfig.UpdateBootloader,
		LockDir:      lockDir,
	})
	if err != nil {
		return nil, nil, err
	}
	log.Debug("bootloader %s %s at %s", src.Name, src.Version, src.Dir)

	bin, err := bootloader.NewBuilder(opts.Fs, opts.Runner).Build(ctx, src, c.Bootloader)
	if err != nil {
		return nil, nil, err
	}
	return bin, src, nil
}

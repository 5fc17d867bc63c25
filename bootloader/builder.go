package bootloader

import (
	"context"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/cargo"
	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/section"
	"github.com/nanovms/bootimage/tools"
	"github.com/nanovms/bootimage/types"
	"github.com/spf13/afero"
)

// BinaryName is the file name of the bootloader executable.
const BinaryName = "bootloader"

// Binary is a located or freshly built bootloader executable.
type Binary struct {
	Path  string
	Bytes []byte
}

// Section returns the raw bytes of the named section of the binary.
func (b *Binary) Section(name string) ([]byte, error) {
	return section.Extract(b.Bytes, name)
}

// Builder produces the bootloader executable from a fetched source tree.
type Builder struct {
	fs     afero.Fs
	runner tools.Runner
}

// NewBuilder returns a Builder.
func NewBuilder(fs afero.Fs, runner tools.Runner) *Builder {
	return &Builder{fs: fs, runner: runner}
}

// BinaryPath is where the bootloader executable of src is expected.
func BinaryPath(src *Source, cfg types.BootloaderConfig) string {
	if cfg.IsPrecompiled() {
		return filepath.Join(src.Dir, BinaryName)
	}
	return filepath.Join(src.Dir, "target", targetName(cfg.Target), "release", BinaryName)
}

// targetName strips the .json of custom target specifications, matching the
// directory cargo creates for them.
func targetName(target string) string {
	if filepath.Ext(target) == ".json" {
		return filepath.Base(target[:len(target)-len(".json")])
	}
	return target
}

// BuildCommand returns the cross compile invocation for src.
func BuildCommand(src *Source, cfg types.BootloaderConfig) tools.Command {
	return cargo.XargoBuildCommand(src.Dir, []string{
		"--manifest-path", src.ManifestPath,
		"--target", cfg.Target,
		"--release",
	})
}

// Build compiles src unless the bootloader is precompiled, then reads the
// resulting executable.
func (b *Builder) Build(ctx context.Context, src *Source, cfg types.BootloaderConfig) (*Binary, error) {
	if !cfg.IsPrecompiled() {
		log.Step("Building bootloader")
		c := BuildCommand(src, cfg)
		log.Debug("running %s", c.String())
		if err := b.runner.Run(ctx, c); err != nil {
			var exitErr *tools.ExitError
			if errors.As(err, &exitErr) {
				return nil, &ToolchainError{
					errCustom: errCustom{Msg: "bootloader build failed", Cause: exitErr},
					ExitCode:  exitErr.ExitCode,
				}
			}
			return nil, errors.Wrap(err, 1)
		}
	}

	path := BinaryPath(src, cfg)
	data, err := afero.ReadFile(b.fs, path)
	if err != nil {
		return nil, &BinaryUnreadableError{
			errCustom: errCustom{Msg: "could not open bootloader at " + path, Cause: err},
			Path:      path,
		}
	}
	log.Debug("read bootloader %s (%d bytes)", path, len(data))

	return &Binary{Path: path, Bytes: data}, nil
}

package image

import (
	"io"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"
)

const (
	// KernelCopy is the diagnostic copy of the kernel executable.
	KernelCopy = "kernel.elf"
	// BootloaderCopy is the diagnostic copy of the bootloader executable.
	BootloaderCopy = "bootloader.elf"
)

// WriteDiagnostics stores verbatim copies of the kernel and bootloader
// executables in dir.
func WriteDiagnostics(fs afero.Fs, dir, kernelPath string, bootloader []byte) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, 1)
	}

	if err := afero.WriteFile(fs, filepath.Join(dir, BootloaderCopy), bootloader, 0o644); err != nil {
		return errors.Wrap(err, 1)
	}

	in, err := fs.Open(kernelPath)
	if err != nil {
		return errors.Wrap(err, 1)
	}
	defer in.Close()

	out, err := fs.Create(filepath.Join(dir, KernelCopy))
	if err != nil {
		return errors.Wrap(err, 1)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(err, 1)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(err, 1)
	}
	return nil
}

package image

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/go-errors/errors"
	"github.com/spf13/afero"
)

const copyBufferSize = 1024

// Result describes a written disk image.
type Result struct {
	Path string
	// Size of the file after the minimum size was applied.
	Size uint64
	// Padding is the number of zero bytes appended after the kernel.
	Padding uint64
}

// Assembler concatenates boot code, kernel info block and kernel into a
// flat disk image.
type Assembler struct {
	fs       afero.Fs
	outPath  string
	minSize  uint64
	progress io.Writer
}

// NewAssembler returns an Assembler writing to fs.
func NewAssembler(fs afero.Fs) *Assembler {
	return &Assembler{fs: fs}
}

// SetOutputPath sets the disk image path
func (a *Assembler) SetOutputPath(path string) {
	a.outPath = path
}

// SetMinimumSize sets the size the image is zero-extended to. Zero disables it.
func (a *Assembler) SetMinimumSize(size uint64) {
	a.minSize = size
}

// SetProgress sets a writer that receives a copy of the kernel bytes.
func (a *Assembler) SetProgress(w io.Writer) {
	a.progress = w
}

// Assemble writes bootloader, info and kernelSize bytes of kernel to the
// output path. A partially written image is removed on failure.
func (a *Assembler) Assemble(bootloader []byte, info KernelInfoBlock, kernel io.Reader, kernelSize uint64) (res *Result, err error) {
	if a.outPath == "" {
		return nil, errors.New("output image file path not set")
	}

	if dir := filepath.Dir(a.outPath); dir != "" {
		if err := a.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, 1)
		}
	}

	out, err := a.fs.OpenFile(a.outPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cannot create output file %s: %w", a.outPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cannot close output file %s: %w", a.outPath, cerr)
		}
		if err != nil {
			a.fs.Remove(a.outPath)
			res = nil
		}
	}()

	if _, err = out.Write(bootloader); err != nil {
		return nil, fmt.Errorf("cannot write bootloader to %s: %w", a.outPath, err)
	}
	if _, err = out.Write(info[:]); err != nil {
		return nil, fmt.Errorf("cannot write kernel info block to %s: %w", a.outPath, err)
	}

	var dst io.Writer = out
	if a.progress != nil {
		dst = io.MultiWriter(out, a.progress)
	}
	written, err := copyKernel(dst, kernel)
	if err != nil {
		return nil, fmt.Errorf("cannot write kernel to %s: %w", a.outPath, err)
	}
	if written != kernelSize {
		err = fmt.Errorf("kernel size changed while writing %s: expected %d bytes, copied %d", a.outPath, kernelSize, written)
		return nil, err
	}

	padding := Padding(kernelSize)
	var zeros [BlockSize]byte
	if _, err = out.Write(zeros[:padding]); err != nil {
		return nil, fmt.Errorf("cannot pad kernel in %s: %w", a.outPath, err)
	}

	size := uint64(len(bootloader)) + BlockSize + kernelSize + padding
	if a.minSize > size {
		if err = out.Truncate(int64(a.minSize)); err != nil {
			return nil, fmt.Errorf("cannot set size of output file %s: %w", a.outPath, err)
		}
		size = a.minSize
	}

	return &Result{Path: a.outPath, Size: size, Padding: padding}, nil
}

// copyKernel copies src to dst. Interrupted reads are retried; bytes of a
// partial read are always written before the error is looked at.
func copyKernel(dst io.Writer, src io.Reader) (uint64, error) {
	buf := make([]byte, copyBufferSize)
	var written uint64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += uint64(n)
		}
		switch {
		case err == nil:
		case err == io.EOF:
			return written, nil
		case errors.Is(err, syscall.EINTR):
		default:
			return written, err
		}
	}
}

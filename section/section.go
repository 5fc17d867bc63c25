// Package section reads the raw bytes of named sections out of ELF
// executables. It is a metadata lookup plus a byte range read; nothing is
// relocated or loaded.
package section

import (
	"bytes"
	"debug/elf"

	"github.com/go-errors/errors"
)

var (
	// ErrSectionNotFound is returned when no section has the requested name.
	ErrSectionNotFound = errors.New("section not found")
	// ErrMalformedExecutable is returned when the buffer is not a sane ELF image.
	ErrMalformedExecutable = errors.New("malformed executable")
)

type errCustom struct {
	Msg   string
	Cause error
}

func (e *errCustom) Error() string {
	if e.Cause == nil {
		return e.Msg
	}
	return e.Msg + ": " + e.Cause.Error()
}

func (e *errCustom) Unwrap() error {
	return e.Cause
}

// NotFoundError names the section that was looked up.
type NotFoundError struct {
	errCustom
	Name string
}

// Is matches ErrSectionNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrSectionNotFound
}

// MalformedError carries the reason an executable was rejected.
type MalformedError struct{ errCustom }

// Is matches ErrMalformedExecutable.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformedExecutable
}

func malformed(msg string, cause error) error {
	return &MalformedError{errCustom{Msg: "malformed executable: " + msg, Cause: cause}}
}

// Info describes one section of an executable.
type Info struct {
	Name   string
	Type   elf.SectionType
	Flags  elf.SectionFlag
	Offset uint64
	Size   uint64
}

// Extract returns the bytes stored for the section called name. The match is
// exact.
func Extract(buf []byte, name string) ([]byte, error) {
	f, err := open(buf)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	for _, s := range f.Sections {
		if s.Name != name {
			continue
		}
		if s.Type == elf.SHT_NOBITS {
			return []byte{}, nil
		}
		// sanityCheck keeps the stored range inside buf. Compressed sections
		// are returned as stored.
		data := make([]byte, s.FileSize)
		copy(data, buf[s.Offset:s.Offset+s.FileSize])
		return data, nil
	}

	return nil, &NotFoundError{
		errCustom: errCustom{Msg: "section " + name + " not found"},
		Name:      name,
	}
}

// List returns every section header of the executable.
func List(buf []byte) ([]Info, error) {
	f, err := open(buf)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	infos := make([]Info, 0, len(f.Sections))
	for _, s := range f.Sections {
		infos = append(infos, Info{
			Name:   s.Name,
			Type:   s.Type,
			Flags:  s.Flags,
			Offset: s.Offset,
			Size:   s.FileSize,
		})
	}
	return infos, nil
}

func open(buf []byte) (*elf.File, error) {
	f, err := elf.NewFile(bytes.NewReader(buf))
	if err != nil {
		return nil, malformed("cannot parse header", err)
	}
	if err := sanityCheck(f, uint64(len(buf))); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

// sanityCheck rejects headers whose section ranges point outside buf.
func sanityCheck(f *elf.File, size uint64) error {
	if f.Type != elf.ET_EXEC && f.Type != elf.ET_DYN && f.Type != elf.ET_REL {
		return malformed("unexpected file type "+f.Type.String(), nil)
	}
	for _, s := range f.Sections {
		if s.Type == elf.SHT_NOBITS || s.Type == elf.SHT_NULL {
			continue
		}
		end := s.Offset + s.FileSize
		if end < s.Offset || end > size {
			return malformed("section "+s.Name+" lies outside the file", nil)
		}
	}
	return nil
}

package bootloader

import (
	"fmt"

	"github.com/go-errors/errors"
)

var (
	// ErrBootloaderFetchFailed is returned when the dependency fetch exits non-zero.
	ErrBootloaderFetchFailed = errors.New("bootloader download failed")
	// ErrBootloaderNotFound is returned when the fetched graph lacks the bootloader crate.
	ErrBootloaderNotFound = errors.New("bootloader crate not found")
	// ErrBootloaderBinaryUnreadable is returned when the built binary cannot be opened.
	ErrBootloaderBinaryUnreadable = errors.New("bootloader binary unreadable")
	// ErrToolchainFailed is returned when the cross compiler exits non-zero.
	ErrToolchainFailed = errors.New("bootloader build failed")
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

// FetchError carries the fetch output.
type FetchError struct {
	errCustom
	Output []byte
}

// Is matches ErrBootloaderFetchFailed.
func (e *FetchError) Is(target error) bool { return target == ErrBootloaderFetchFailed }

// NotFoundError names the crate that was looked for.
type NotFoundError struct {
	errCustom
	Name string
}

// Is matches ErrBootloaderNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrBootloaderNotFound }

// BinaryUnreadableError names the resolved binary path.
type BinaryUnreadableError struct {
	errCustom
	Path string
}

// Is matches ErrBootloaderBinaryUnreadable.
func (e *BinaryUnreadableError) Is(target error) bool { return target == ErrBootloaderBinaryUnreadable }

// ToolchainError reports the failed compile.
type ToolchainError struct {
	errCustom
	ExitCode int
}

// Is matches ErrToolchainFailed.
func (e *ToolchainError) Is(target error) bool { return target == ErrToolchainFailed }

func notFound(name string) error {
	return &NotFoundError{
		errCustom: errCustom{Msg: fmt.Sprintf("could not find crate named %q", name)},
		Name:      name,
	}
}

package util

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// NewCopyProgress returns a byte progress bar for a copy of size bytes
// drawn on out. Writes to the returned writer advance the bar.
func NewCopyProgress(out io.Writer, size int64, description string) io.Writer {
	return progressbar.NewOptions64(size,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)
}

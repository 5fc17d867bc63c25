package image

import (
	"encoding/binary"
	"fmt"
	"math"
)

// BlockSize is the sector size the disk image is aligned to.
const BlockSize = 512

// KernelInfoBlock is the metadata sector between the boot code and the
// kernel. Bytes 0..4 hold the kernel size (little endian), the rest is zero.
type KernelInfoBlock [BlockSize]byte

// NewKernelInfoBlock encodes size into a KernelInfoBlock. The BIOS boot
// protocol stores the size in 32 bits; a bigger kernel panics.
func NewKernelInfoBlock(size uint64) KernelInfoBlock {
	if size > math.MaxUint32 {
		panic(fmt.Sprintf("kernel can't be loaded by BIOS bootloader because it is too big (%d bytes)", size))
	}

	var block KernelInfoBlock
	binary.LittleEndian.PutUint32(block[0:4], uint32(size))
	return block
}

// KernelSize decodes the kernel size.
func (b KernelInfoBlock) KernelSize() uint32 {
	return binary.LittleEndian.Uint32(b[0:4])
}

// Padding returns the number of zero bytes that align a kernel of size bytes
// to BlockSize.
func Padding(size uint64) uint64 {
	return (BlockSize - size%BlockSize) % BlockSize
}

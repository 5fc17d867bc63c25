package testutils

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
)

// Section is a named chunk of bytes placed in a synthetic ELF image.
type Section struct {
	Name string
	Data []byte
	// Flags replaces the default SHF_ALLOC|SHF_EXECINSTR when set.
	Flags elf.SectionFlag
}

// Layout selects the class, byte order and machine of a synthetic image.
type Layout struct {
	Class   elf.Class
	Order   binary.ByteOrder
	Machine elf.Machine
}

// X86_64 is the layout of the kernels bootimage builds.
var X86_64 = Layout{Class: elf.ELFCLASS64, Order: binary.LittleEndian, Machine: elf.EM_X86_64}

// BuildELF returns a little-endian ELF64 x86-64 executable that holds the
// given sections, followed by .shstrtab. Section data is laid out right
// after the header in the given order.
func BuildELF(sections ...Section) []byte {
	return BuildELFWith(X86_64, sections...)
}

// BuildELFWith is BuildELF for an arbitrary layout.
func BuildELFWith(l Layout, sections ...Section) []byte {
	headerSize, entrySize := 0x40, 0x40
	if l.Class == elf.ELFCLASS32 {
		headerSize, entrySize = 0x34, 0x28
	}

	shstrtab := []byte{0}
	nameOffsets := make([]uint32, len(sections))
	for i, s := range sections {
		nameOffsets[i] = uint32(len(shstrtab))
		shstrtab = append(shstrtab, s.Name...)
		shstrtab = append(shstrtab, 0)
	}
	shstrtabName := uint32(len(shstrtab))
	shstrtab = append(shstrtab, ".shstrtab"...)
	shstrtab = append(shstrtab, 0)

	var body bytes.Buffer
	offsets := make([]uint64, len(sections))
	for i, s := range sections {
		offsets[i] = uint64(headerSize + body.Len())
		body.Write(s.Data)
	}
	shstrtabOffset := uint64(headerSize + body.Len())
	body.Write(shstrtab)
	for body.Len()%8 != 0 {
		body.WriteByte(0)
	}
	shoff := uint64(headerSize + body.Len())

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(l.Class)
	ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	if l.Order == binary.BigEndian {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	}
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	type header struct {
		name   uint32
		typ    elf.SectionType
		flags  elf.SectionFlag
		addr   uint64
		offset uint64
		size   uint64
		align  uint32
	}
	headers := []header{{}}
	for i, s := range sections {
		flags := s.Flags
		if flags == 0 {
			flags = elf.SHF_ALLOC | elf.SHF_EXECINSTR
		}
		var addr uint64
		if flags&elf.SHF_ALLOC != 0 {
			addr = 0x7c00 + offsets[i]
		}
		headers = append(headers, header{nameOffsets[i], elf.SHT_PROGBITS, flags, addr, offsets[i], uint64(len(s.Data)), 1})
	}
	headers = append(headers, header{shstrtabName, elf.SHT_STRTAB, 0, 0, shstrtabOffset, uint64(len(shstrtab)), 1})

	var out bytes.Buffer
	if l.Class == elf.ELFCLASS32 {
		_ = binary.Write(&out, l.Order, &elf.Header32{
			Ident:     ident,
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(l.Machine),
			Version:   uint32(elf.EV_CURRENT),
			Entry:     0x400000,
			Shoff:     uint32(shoff),
			Ehsize:    uint16(headerSize),
			Phentsize: 0x20,
			Shentsize: uint16(entrySize),
			Shnum:     uint16(len(headers)),
			Shstrndx:  uint16(len(headers) - 1),
		})
		out.Write(body.Bytes())
		for _, h := range headers {
			_ = binary.Write(&out, l.Order, &elf.Section32{
				Name:      h.name,
				Type:      uint32(h.typ),
				Flags:     uint32(h.flags),
				Addr:      uint32(h.addr),
				Off:       uint32(h.offset),
				Size:      uint32(h.size),
				Addralign: h.align,
			})
		}
		return out.Bytes()
	}

	_ = binary.Write(&out, l.Order, &elf.Header64{
		Ident:     ident,
		Type:      uint16(elf.ET_EXEC),
		Machine:   uint16(l.Machine),
		Version:   uint32(elf.EV_CURRENT),
		Entry:     0x400000,
		Shoff:     shoff,
		Ehsize:    uint16(headerSize),
		Phentsize: 0x38,
		Shentsize: uint16(entrySize),
		Shnum:     uint16(len(headers)),
		Shstrndx:  uint16(len(headers) - 1),
	})
	out.Write(body.Bytes())
	for _, h := range headers {
		_ = binary.Write(&out, l.Order, &elf.Section64{
			Name:      h.name,
			Type:      uint32(h.typ),
			Flags:     uint64(h.flags),
			Addr:      h.addr,
			Off:       h.offset,
			Size:      h.size,
			Addralign: uint64(h.align),
		})
	}
	return out.Bytes()
}

// SectionHeaderOffset returns the e_shoff field of an image built by BuildELF.
func SectionHeaderOffset(image []byte) uint64 {
	return binary.LittleEndian.Uint64(image[0x28:0x30])
}

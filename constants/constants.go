package constants

const (
	// ErrorColor used in error texts
	ErrorColor = "\033[1;31m%s\033[0m"
)

const (
	// DefaultOutput is the disk image written when no output is configured.
	DefaultOutput = "bootimage.bin"

	// DefaultBootloaderName is the crate fetched when no bootloader is configured.
	DefaultBootloaderName = "bootloader_precompiled"

	// DefaultBootloaderTarget is the bootloader target triple.
	DefaultBootloaderTarget = "x86_64-bootloader"

	// DefaultBootloaderSection holds the boot code inside the bootloader ELF.
	DefaultBootloaderSection = ".bootloader"

	// OutputPlaceholder is replaced with the image path in run commands.
	OutputPlaceholder = "{}"
)

// DefaultRunCommand launches the image in qemu.
var DefaultRunCommand = []string{"qemu-system-x86_64", "-drive", "format=raw,file=" + OutputPlaceholder}

// Version is set at link time with -ldflags "-X github.com/nanovms/bootimage/constants.Version=..."
var Version = "0.0.0-dev"

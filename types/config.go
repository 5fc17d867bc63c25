package types

import "github.com/nanovms/bootimage/constants"

// Config for Build
type Config struct {
	// ManifestPath is the Cargo.toml of the kernel crate. Defaults to the
	// workspace root manifest.
	ManifestPath string `json:",omitempty" yaml:"manifest_path,omitempty" toml:"-"`

	// Output is the path of the bootable disk image.
	Output string `json:",omitempty" yaml:"output,omitempty" toml:"output"`

	// MinimumImageSize is an optional lower bound for the size of the disk
	// image. Accepts plain bytes or human sizes such as "4MiB".
	MinimumImageSize Size `json:",omitempty" yaml:"minimum_image_size,omitempty" toml:"minimum-image-size"`

	// DefaultTarget is used as kernel target triple when none is given on
	// the command line.
	DefaultTarget string `json:",omitempty" yaml:"default_target,omitempty" toml:"default-target"`

	// RunCommand is the command template used by run. Every "{}" in a token
	// is replaced with the output path.
	RunCommand []string `json:",omitempty" yaml:"run_command,omitempty" toml:"run-command"`

	// Diagnostics enables the kernel.elf and bootloader.elf copies next to
	// the output image.
	Diagnostics *bool `json:",omitempty" yaml:"diagnostics,omitempty" toml:"diagnostics"`

	// Bootloader
	Bootloader BootloaderConfig `json:",omitempty" yaml:"bootloader,omitempty" toml:"bootloader"`

	// BuildConfig
	BuildConfig BuildConfig `json:",omitempty" yaml:"build,omitempty" toml:"-"`

	// RunConfig
	RunConfig RunConfig `json:",omitempty" yaml:"run,omitempty" toml:"-"`
}

// BootloaderConfig describes where the bootloader comes from and how it is
// built.
type BootloaderConfig struct {
	// Name of the bootloader crate.
	Name string `json:",omitempty" yaml:"name,omitempty" toml:"name"`

	// Version is an optional registry version requirement.
	Version string `json:",omitempty" yaml:"version,omitempty" toml:"version"`

	// Git is an optional source-control location.
	Git string `json:",omitempty" yaml:"git,omitempty" toml:"git"`

	// Branch of Git.
	Branch string `json:",omitempty" yaml:"branch,omitempty" toml:"branch"`

	// Path is an optional local checkout of the bootloader.
	Path string `json:",omitempty" yaml:"path,omitempty" toml:"path"`

	// Target triple of the bootloader build.
	Target string `json:",omitempty" yaml:"target,omitempty" toml:"target"`

	// Precompiled bootloaders ship a ready binary named "bootloader" at the
	// crate root.
	Precompiled *bool `json:",omitempty" yaml:"precompiled,omitempty" toml:"precompiled"`

	// Section is the ELF section copied into the disk image.
	Section string `json:",omitempty" yaml:"section,omitempty" toml:"section"`
}

// IsPrecompiled reports whether the bootloader binary is used as-is.
func (b BootloaderConfig) IsPrecompiled() bool {
	return b.Precompiled != nil && *b.Precompiled
}

// BuildConfig holds the per-invocation kernel build options.
type BuildConfig struct {
	// Target triple passed to the kernel build.
	Target string `json:",omitempty" yaml:"target,omitempty"`

	// Release selects the release profile.
	Release bool `json:",omitempty" yaml:"release,omitempty"`

	// UpdateBootloader discards the saved bootloader lock file so
	// dependencies are resolved again.
	UpdateBootloader bool `json:",omitempty" yaml:"update_bootloader,omitempty"`

	// CargoArgs are passed through to the kernel build verbatim.
	CargoArgs []string `json:",omitempty" yaml:"cargo_args,omitempty"`
}

// RunConfig provides runtime details
type RunConfig struct {
	// Args are appended to the run command.
	Args []string `json:",omitempty" yaml:"args,omitempty"`

	// Verbose
	Verbose bool `json:",omitempty" yaml:"verbose,omitempty"`

	// ShowDebug
	ShowDebug bool `json:",omitempty" yaml:"show_debug,omitempty"`

	// ShowWarnings
	ShowWarnings bool `json:",omitempty" yaml:"show_warnings,omitempty"`

	// ShowErrors
	ShowErrors bool `json:",omitempty" yaml:"show_errors,omitempty"`

	// Progress enables the terminal spinner and progress bar.
	Progress bool `json:",omitempty" yaml:"progress,omitempty"`
}

// NewConfig constructs instance of Config with the default bootloader and
// run command.
func NewConfig() *Config {
	return &Config{
		Output:      constants.DefaultOutput,
		RunCommand:  append([]string{}, constants.DefaultRunCommand...),
		Diagnostics: BoolPtr(true),
		Bootloader: BootloaderConfig{
			Name:        constants.DefaultBootloaderName,
			Target:      constants.DefaultBootloaderTarget,
			Precompiled: BoolPtr(true),
			Section:     constants.DefaultBootloaderSection,
		},
	}
}

// DiagnosticsEnabled reports whether diagnostic copies are written.
func (c *Config) DiagnosticsEnabled() bool {
	return c.Diagnostics == nil || *c.Diagnostics
}

// BoolPtr returns a pointer to a bool
func BoolPtr(x bool) *bool {
	return &x
}

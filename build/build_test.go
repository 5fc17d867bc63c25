package build_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nanovms/bootimage/bootloader"
	"github.com/nanovms/bootimage/build"
	"github.com/nanovms/bootimage/cargo"
	"github.com/nanovms/bootimage/kernel"
	"github.com/nanovms/bootimage/section"
	"github.com/nanovms/bootimage/testutils"
	"github.com/nanovms/bootimage/tools"
	"github.com/nanovms/bootimage/tools/mock_tools"
	"github.com/nanovms/bootimage/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	kernelPath  = "/src/blog_os/target/debug/blog_os"
	outputPath  = "/src/blog_os/target/bootimage.bin"
	registryDir = "/cargo/registry/bootloader_precompiled-0.2.0"
)

var bootCode = []byte{0xfa, 0x31, 0xc0, 0x8e, 0xd8, 0x8e, 0xc0, 0xf4}

type fakeKernel struct {
	fs   afero.Fs
	data []byte
	size uint64
	opts kernel.Options
}

func (k *fakeKernel) Build(ctx context.Context, md *cargo.Metadata, opts kernel.Options) (*kernel.Artifact, error) {
	k.opts = opts
	size := k.size
	if k.data != nil {
		if err := afero.WriteFile(k.fs, kernelPath, k.data, 0o755); err != nil {
			return nil, err
		}
		size = uint64(len(k.data))
	}
	return &kernel.Artifact{Path: kernelPath, Size: size}, nil
}

func projectMetadata() *cargo.Metadata {
	return &cargo.Metadata{
		Packages:        []cargo.Package{{Name: "blog_os", ManifestPath: "/src/blog_os/Cargo.toml"}},
		WorkspaceRoot:   "/src/blog_os",
		TargetDirectory: "/src/blog_os/target",
	}
}

func bootloaderMetadata() []byte {
	return []byte(fmt.Sprintf(`{"packages":[{"name":"bootloader_precompiled","version":"0.2.0","manifest_path":"%s/Cargo.toml"}]}`, registryDir))
}

type fixture struct {
	fs     afero.Fs
	runner *mock_tools.MockRunner
	kernel *fakeKernel
	opts   build.Options
}

func newFixture(t *testing.T, kernelData []byte) *fixture {
	fs := afero.NewMemMapFs()
	require.Nil(t, fs.MkdirAll("/tmp", 0o755))
	require.Nil(t, afero.WriteFile(fs, registryDir+"/bootloader",
		testutils.BuildELF(
			testutils.Section{Name: ".text", Data: []byte{0x90, 0x90}},
			testutils.Section{Name: ".bootloader", Data: bootCode},
		), 0o644))

	runner := mock_tools.NewMockRunner(gomock.NewController(t))
	k := &fakeKernel{fs: fs, data: kernelData}

	c := types.NewConfig()
	c.ManifestPath = "/src/blog_os/Cargo.toml"
	c.Output = outputPath

	return &fixture{
		fs:     fs,
		runner: runner,
		kernel: k,
		opts: build.Options{
			Config:   c,
			Metadata: projectMetadata(),
			Fs:       fs,
			Runner:   runner,
			Kernel:   k,
			WorkDir:  "/src/blog_os",
			TempDir:  "/tmp",
		},
	}
}

func (f *fixture) expectFetch() {
	f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, c tools.Command) error {
			if c.Name != cargo.Program || c.Args[0] != "fetch" {
				return fmt.Errorf("unexpected command %s", c.String())
			}
			return afero.WriteFile(f.fs, c.Dir+"/Cargo.lock", []byte("lock"), 0o644)
		})
	f.runner.EXPECT().Output(gomock.Any(), gomock.Any()).Return(bootloaderMetadata(), nil)
}

func (f *fixture) assertTempDirRemoved(t *testing.T) {
	entries, err := afero.ReadDir(f.fs, "/tmp")
	require.Nil(t, err)
	assert.Empty(t, entries)
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	kernelData := bytes.Repeat([]byte{0xAA}, 300)

	t.Run("disk image layout", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.expectFetch()

		res, err := build.Build(ctx, f.opts)
		require.Nil(t, err)

		data, err := afero.ReadFile(f.fs, outputPath)
		require.Nil(t, err)
		require.Len(t, data, 1032)
		assert.Equal(t, uint64(1032), res.Image.Size)
		assert.Equal(t, bootCode, data[:8])
		assert.Equal(t, []byte{0x2c, 0x01, 0x00, 0x00}, data[8:12])
		assert.Equal(t, make([]byte, 508), data[12:520])
		assert.Equal(t, kernelData, data[520:820])
		assert.Equal(t, make([]byte, 212), data[820:])

		assert.Equal(t, "bootloader_precompiled", res.Bootloader.Name)
		assert.Equal(t, kernelPath, res.Kernel.Path)
		f.assertTempDirRemoved(t)
	})

	t.Run("diagnostic copies", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.expectFetch()

		_, err := build.Build(ctx, f.opts)
		require.Nil(t, err)

		k, err := afero.ReadFile(f.fs, "/src/blog_os/target/kernel.elf")
		require.Nil(t, err)
		assert.Equal(t, kernelData, k)
		exists, _ := afero.Exists(f.fs, "/src/blog_os/target/bootloader.elf")
		assert.True(t, exists)
	})

	t.Run("diagnostics disabled", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.opts.Config.Diagnostics = types.BoolPtr(false)
		f.expectFetch()

		_, err := build.Build(ctx, f.opts)
		require.Nil(t, err)

		exists, _ := afero.Exists(f.fs, "/src/blog_os/target/kernel.elf")
		assert.False(t, exists)
	})

	t.Run("minimum image size", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.opts.Config.MinimumImageSize = "2KiB"
		f.expectFetch()

		res, err := build.Build(ctx, f.opts)
		require.Nil(t, err)

		data, _ := afero.ReadFile(f.fs, outputPath)
		assert.Len(t, data, 2048)
		assert.Equal(t, uint64(2048), res.Image.Size)
		assert.Equal(t, make([]byte, 2048-820), data[820:])
	})

	t.Run("bootloader lock is kept in the kernel output directory", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.expectFetch()

		_, err := build.Build(ctx, f.opts)
		require.Nil(t, err)

		lock, err := afero.ReadFile(f.fs, "/src/blog_os/target/debug/bootloader/Cargo.lock")
		require.Nil(t, err)
		assert.Equal(t, "lock", string(lock))
	})

	t.Run("default target", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.opts.Config.DefaultTarget = "x86_64-blog_os"
		f.expectFetch()

		_, err := build.Build(ctx, f.opts)
		require.Nil(t, err)

		assert.Equal(t, "x86_64-blog_os", f.kernel.opts.Target)
		assert.Equal(t, "/src/blog_os", f.kernel.opts.TargetPath)
		exists, _ := afero.Exists(f.fs, "/src/blog_os/target/x86_64-blog_os/debug/bootloader/Cargo.lock")
		assert.True(t, exists)
	})

	t.Run("oversized kernel panics before anything is written", func(t *testing.T) {
		f := newFixture(t, nil)
		f.kernel.size = 1 << 32

		assert.Panics(t, func() {
			build.Build(ctx, f.opts)
		})

		exists, _ := afero.Exists(f.fs, outputPath)
		assert.False(t, exists)
		f.assertTempDirRemoved(t)
	})

	t.Run("bootloader toolchain failure", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.opts.Config.Bootloader.Precompiled = types.BoolPtr(false)
		f.expectFetch()
		f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&tools.ExitError{ExitCode: 101})

		_, err := build.Build(ctx, f.opts)

		assert.True(t, errors.Is(err, bootloader.ErrToolchainFailed))
		exists, _ := afero.Exists(f.fs, outputPath)
		assert.False(t, exists)
		f.assertTempDirRemoved(t)
	})

	t.Run("failed rebuild leaves previous image", func(t *testing.T) {
		f := newFixture(t, kernelData)
		require.Nil(t, afero.WriteFile(f.fs, outputPath, []byte("previous"), 0o644))
		f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).
			Return(&tools.ExitError{ExitCode: 101, Output: []byte("failed to fetch")})

		_, err := build.Build(ctx, f.opts)

		assert.True(t, errors.Is(err, bootloader.ErrBootloaderFetchFailed))
		data, _ := afero.ReadFile(f.fs, outputPath)
		assert.Equal(t, "previous", string(data))
		f.assertTempDirRemoved(t)
	})

	t.Run("missing bootloader section", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.opts.Config.Bootloader.Section = ".boot"
		f.expectFetch()

		_, err := build.Build(ctx, f.opts)

		assert.True(t, errors.Is(err, section.ErrSectionNotFound))
		assert.Contains(t, err.Error(), ".boot")
		for _, path := range []string{outputPath, "/src/blog_os/target/kernel.elf", "/src/blog_os/target/bootloader.elf"} {
			exists, _ := afero.Exists(f.fs, path)
			assert.False(t, exists, path)
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		f := newFixture(t, kernelData)
		f.opts.Config.Bootloader.Git = "https://example.com/bootloader.git"
		f.opts.Config.Bootloader.Path = "/src/bootloader"

		_, err := build.Build(ctx, f.opts)

		assert.NotNil(t, err)
	})
}

func TestKernelOptions(t *testing.T) {
	c := types.NewConfig()
	c.ManifestPath = "/src/blog_os/Cargo.toml"
	c.DefaultTarget = "x86_64-blog_os"
	c.BuildConfig = types.BuildConfig{Target: "i686-blog_os", Release: true, CargoArgs: []string{"-v"}}

	assert.Equal(t, kernel.Options{
		ManifestPath: "/src/blog_os/Cargo.toml",
		Target:       "i686-blog_os",
		Release:      true,
		CargoArgs:    []string{"-v"},
		TargetPath:   "/work",
	}, build.KernelOptions(c, "/work"))

	c.BuildConfig.Target = ""
	assert.Equal(t, "x86_64-blog_os", build.KernelOptions(c, "/work").Target)
}

func TestLoadProject(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.Nil(t, afero.WriteFile(fs, "/src/blog_os/Cargo.toml",
		[]byte("[package]\nname = \"blog_os\"\n\n[package.metadata.bootimage]\ndefault-target = \"x86_64-blog_os\"\n"), 0o644))

	runner := mock_tools.NewMockRunner(gomock.NewController(t))
	runner.EXPECT().Output(gomock.Any(), cargo.MetadataCommand("", false)).
		Return([]byte(`{"packages":[],"workspace_root":"/src/blog_os","target_directory":"/src/blog_os/target"}`), nil)

	c := types.NewConfig()
	md, err := build.LoadProject(context.Background(), fs, runner, "", c)

	require.Nil(t, err)
	assert.Equal(t, "/src/blog_os/target", md.TargetDirectory)
	assert.Equal(t, "/src/blog_os/Cargo.toml", c.ManifestPath)
	assert.Equal(t, "x86_64-blog_os", c.DefaultTarget)
}

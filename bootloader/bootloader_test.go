package bootloader_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/nanovms/bootimage/bootloader"
	"github.com/nanovms/bootimage/cargo"
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
	workDir     = "/tmp/bootloader42"
	lockDir     = "/project/target/bootloader"
	registryDir = "/cargo/registry/src/bootloader_precompiled-0.2.0"
)

func metadataJSON(packages ...string) []byte {
	return []byte(fmt.Sprintf(`{"packages":[%s],"workspace_root":%q,"target_directory":%q}`,
		strings.Join(packages, ","), workDir, workDir+"/target"))
}

func packageJSON(name, version, manifest string) string {
	return fmt.Sprintf(`{"name":%q,"version":%q,"manifest_path":%q}`, name, version, manifest)
}

func helperPackage() string {
	return packageJSON(cargo.HelperPackage, "0.0.0", workDir+"/Cargo.toml")
}

func precompiledConfig() types.BootloaderConfig {
	return types.NewConfig().Bootloader
}

func expectMetadata(runner *mock_tools.MockRunner, out []byte) *gomock.Call {
	return runner.EXPECT().
		Output(gomock.Any(), cargo.MetadataCommand(workDir+"/Cargo.toml", true)).
		Return(out, nil)
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("registry dependency", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		fs := afero.NewMemMapFs()

		gomock.InOrder(
			runner.EXPECT().Run(gomock.Any(), cargo.FetchCommand(workDir)).
				DoAndReturn(func(_ context.Context, c tools.Command) error {
					return afero.WriteFile(fs, filepath.Join(c.Dir, "Cargo.lock"), []byte("resolved"), 0o644)
				}),
			expectMetadata(runner, metadataJSON(
				helperPackage(),
				packageJSON("bootloader_precompiled", "0.2.0", registryDir+"/Cargo.toml"),
			)),
		)

		resolver, err := bootloader.NewResolver(types.BootloaderConfig{Name: "bootloader_precompiled", Version: "0.2"})
		require.Nil(t, err)

		src, err := bootloader.NewAcquirer(fs, runner).Acquire(ctx, workDir, resolver, bootloader.AcquireOptions{LockDir: lockDir})
		require.Nil(t, err)

		assert.Equal(t, &bootloader.Source{
			Name:         "bootloader_precompiled",
			Version:      "0.2.0",
			ManifestPath: registryDir + "/Cargo.toml",
			Dir:          registryDir,
		}, src)

		manifest, err := afero.ReadFile(fs, workDir+"/Cargo.toml")
		require.Nil(t, err)
		var decoded struct {
			Package struct {
				Name string `toml:"name"`
			} `toml:"package"`
			Dependencies map[string]cargo.Dependency `toml:"dependencies"`
		}
		_, err = toml.Decode(string(manifest), &decoded)
		require.Nil(t, err)
		assert.Equal(t, cargo.HelperPackage, decoded.Package.Name)
		assert.Equal(t, map[string]cargo.Dependency{"bootloader_precompiled": {Version: "0.2"}}, decoded.Dependencies)

		lib, _ := afero.ReadFile(fs, workDir+"/src/lib.rs")
		assert.Equal(t, cargo.HelperLib, string(lib))

		saved, _ := afero.ReadFile(fs, lockDir+"/Cargo.lock")
		assert.Equal(t, "resolved", string(saved))
	})

	t.Run("saved lock pins resolution", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		fs := afero.NewMemMapFs()
		require.Nil(t, afero.WriteFile(fs, lockDir+"/Cargo.lock", []byte("pinned"), 0o644))

		runner.EXPECT().Run(gomock.Any(), cargo.FetchCommand(workDir)).
			DoAndReturn(func(_ context.Context, c tools.Command) error {
				lock, err := afero.ReadFile(fs, filepath.Join(c.Dir, "Cargo.lock"))
				assert.Nil(t, err)
				assert.Equal(t, "pinned", string(lock))
				return nil
			})
		expectMetadata(runner, metadataJSON(helperPackage(), packageJSON("bootloader_precompiled", "0.2.0", registryDir+"/Cargo.toml")))

		resolver, _ := bootloader.NewResolver(precompiledConfig())
		_, err := bootloader.NewAcquirer(fs, runner).Acquire(ctx, workDir, resolver, bootloader.AcquireOptions{LockDir: lockDir})

		assert.Nil(t, err)
	})

	t.Run("force refresh discards saved lock", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		fs := afero.NewMemMapFs()
		require.Nil(t, afero.WriteFile(fs, lockDir+"/Cargo.lock", []byte("stale"), 0o644))

		runner.EXPECT().Run(gomock.Any(), cargo.FetchCommand(workDir)).
			DoAndReturn(func(_ context.Context, c tools.Command) error {
				exists, _ := afero.Exists(fs, filepath.Join(c.Dir, "Cargo.lock"))
				assert.False(t, exists)
				exists, _ = afero.Exists(fs, lockDir+"/Cargo.lock")
				assert.False(t, exists)
				return afero.WriteFile(fs, filepath.Join(c.Dir, "Cargo.lock"), []byte("fresh"), 0o644)
			})
		expectMetadata(runner, metadataJSON(helperPackage(), packageJSON("bootloader_precompiled", "0.2.0", registryDir+"/Cargo.toml")))

		resolver, _ := bootloader.NewResolver(precompiledConfig())
		_, err := bootloader.NewAcquirer(fs, runner).Acquire(ctx, workDir, resolver,
			bootloader.AcquireOptions{LockDir: lockDir, ForceRefresh: true})

		require.Nil(t, err)
		saved, _ := afero.ReadFile(fs, lockDir+"/Cargo.lock")
		assert.Equal(t, "fresh", string(saved))
	})

	t.Run("fetch failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		fs := afero.NewMemMapFs()

		runner.EXPECT().Run(gomock.Any(), gomock.Any()).
			Return(&tools.ExitError{Command: cargo.FetchCommand(workDir), ExitCode: 101, Output: []byte("error: no matching package")})

		resolver, _ := bootloader.NewResolver(precompiledConfig())
		_, err := bootloader.NewAcquirer(fs, runner).Acquire(ctx, workDir, resolver, bootloader.AcquireOptions{})

		assert.True(t, errors.Is(err, bootloader.ErrBootloaderFetchFailed))
		var fetchErr *bootloader.FetchError
		require.True(t, errors.As(err, &fetchErr))
		assert.Equal(t, "error: no matching package", string(fetchErr.Output))
	})

	t.Run("crate missing from dependency graph", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		fs := afero.NewMemMapFs()

		runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil)
		expectMetadata(runner, metadataJSON(helperPackage()))

		resolver, _ := bootloader.NewResolver(precompiledConfig())
		_, err := bootloader.NewAcquirer(fs, runner).Acquire(ctx, workDir, resolver, bootloader.AcquireOptions{})

		assert.True(t, errors.Is(err, bootloader.ErrBootloaderNotFound))
		var notFound *bootloader.NotFoundError
		require.True(t, errors.As(err, &notFound))
		assert.Equal(t, "bootloader_precompiled", notFound.Name)
	})
}

type recordingStepper struct {
	messages []string
}

func (s *recordingStepper) Do(work func() error, messages ...interface{}) error {
	s.messages = append(s.messages, fmt.Sprint(messages...))
	return work()
}

func TestAcquireStepper(t *testing.T) {
	ctrl := gomock.NewController(t)
	runner := mock_tools.NewMockRunner(ctrl)
	fs := afero.NewMemMapFs()

	runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(nil)
	expectMetadata(runner, metadataJSON(packageJSON("bootloader_precompiled", "0.2.0", registryDir+"/Cargo.toml")))

	stepper := &recordingStepper{}
	a := bootloader.NewAcquirer(fs, runner)
	a.SetStepper(stepper)

	resolver, _ := bootloader.NewResolver(precompiledConfig())
	_, err := a.Acquire(context.Background(), workDir, resolver, bootloader.AcquireOptions{})

	require.Nil(t, err)
	assert.Equal(t, []string{"Downloading bootloader bootloader_precompiled"}, stepper.messages)
}

func TestNewResolver(t *testing.T) {
	t.Run("registry", func(t *testing.T) {
		r, err := bootloader.NewResolver(types.BootloaderConfig{Name: "bootloader", Version: "0.3"})
		require.Nil(t, err)
		assert.Equal(t, "registry", r.Kind())
		assert.Equal(t, cargo.Dependency{Name: "bootloader", Version: "0.3"}, r.Dependency())
	})

	t.Run("registry without version", func(t *testing.T) {
		r, err := bootloader.NewResolver(types.BootloaderConfig{Name: "bootloader_precompiled"})
		require.Nil(t, err)
		assert.Equal(t, "*", r.Dependency().Version)
	})

	t.Run("git", func(t *testing.T) {
		r, err := bootloader.NewResolver(types.BootloaderConfig{Name: "bootloader", Git: "https://example.com/bl.git", Branch: "dev"})
		require.Nil(t, err)
		assert.Equal(t, "git", r.Kind())
		assert.Equal(t, cargo.Dependency{Name: "bootloader", Git: "https://example.com/bl.git", Branch: "dev"}, r.Dependency())
	})

	t.Run("path is made absolute", func(t *testing.T) {
		r, err := bootloader.NewResolver(types.BootloaderConfig{Name: "bootloader", Path: "../bootloader"})
		require.Nil(t, err)
		assert.Equal(t, "path", r.Kind())
		assert.True(t, filepath.IsAbs(r.Dependency().Path))
	})

	t.Run("invalid combinations", func(t *testing.T) {
		_, err := bootloader.NewResolver(types.BootloaderConfig{Name: "bootloader", Git: "g", Path: "/p"})
		assert.NotNil(t, err)

		_, err = bootloader.NewResolver(types.BootloaderConfig{Name: "bootloader", Branch: "dev"})
		assert.NotNil(t, err)

		_, err = bootloader.NewResolver(types.BootloaderConfig{})
		assert.NotNil(t, err)
	})
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	elfImage := testutils.BuildELF(testutils.Section{Name: ".bootloader", Data: []byte{0xeb, 0xfe}})
	src := &bootloader.Source{
		Name:         "bootloader",
		Version:      "0.3.0",
		ManifestPath: registryDir + "/Cargo.toml",
		Dir:          registryDir,
	}

	t.Run("precompiled binary is read without compiling", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		fs := afero.NewMemMapFs()
		require.Nil(t, afero.WriteFile(fs, registryDir+"/bootloader", elfImage, 0o644))

		bin, err := bootloader.NewBuilder(fs, runner).Build(ctx, src, precompiledConfig())

		require.Nil(t, err)
		assert.Equal(t, registryDir+"/bootloader", bin.Path)
		assert.Equal(t, elfImage, bin.Bytes)

		code, err := bin.Section(".bootloader")
		require.Nil(t, err)
		assert.Equal(t, []byte{0xeb, 0xfe}, code)
	})

	t.Run("source build cross compiles", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		fs := afero.NewMemMapFs()
		cfg := precompiledConfig()
		cfg.Precompiled = types.BoolPtr(false)

		want := tools.Command{
			Name: "xargo",
			Args: []string{"build", "--manifest-path", registryDir + "/Cargo.toml", "--target", "x86_64-bootloader", "--release"},
			Env:  []string{"RUST_TARGET_PATH=" + registryDir},
		}
		runner.EXPECT().Run(gomock.Any(), want).
			DoAndReturn(func(context.Context, tools.Command) error {
				return afero.WriteFile(fs, registryDir+"/target/x86_64-bootloader/release/bootloader", elfImage, 0o755)
			})

		bin, err := bootloader.NewBuilder(fs, runner).Build(ctx, src, cfg)

		require.Nil(t, err)
		assert.Equal(t, registryDir+"/target/x86_64-bootloader/release/bootloader", bin.Path)
	})

	t.Run("toolchain failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)
		cfg := precompiledConfig()
		cfg.Precompiled = types.BoolPtr(false)

		runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&tools.ExitError{ExitCode: 101})

		_, err := bootloader.NewBuilder(afero.NewMemMapFs(), runner).Build(ctx, src, cfg)

		assert.True(t, errors.Is(err, bootloader.ErrToolchainFailed))
		var tcErr *bootloader.ToolchainError
		require.True(t, errors.As(err, &tcErr))
		assert.Equal(t, 101, tcErr.ExitCode)
	})

	t.Run("missing binary", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		runner := mock_tools.NewMockRunner(ctrl)

		_, err := bootloader.NewBuilder(afero.NewMemMapFs(), runner).Build(ctx, src, precompiledConfig())

		assert.True(t, errors.Is(err, bootloader.ErrBootloaderBinaryUnreadable))
		var unreadable *bootloader.BinaryUnreadableError
		require.True(t, errors.As(err, &unreadable))
		assert.Equal(t, registryDir+"/bootloader", unreadable.Path)
		assert.Contains(t, err.Error(), registryDir+"/bootloader")
	})
}

func TestBinaryPath(t *testing.T) {
	src := &bootloader.Source{Dir: "/bl"}
	cfg := types.BootloaderConfig{Target: "/targets/x86_64-bootloader.json", Precompiled: types.BoolPtr(false)}

	assert.Equal(t, "/bl/target/x86_64-bootloader/release/bootloader", bootloader.BinaryPath(src, cfg))

	cfg.Precompiled = types.BoolPtr(true)
	assert.Equal(t, "/bl/bootloader", bootloader.BinaryPath(src, cfg))
}

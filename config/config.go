package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-errors/errors"
	"github.com/nanovms/bootimage/log"
	"github.com/nanovms/bootimage/types"
	"github.com/nanovms/bootimage/util"
	"github.com/nanovms/bootimage/util/slice"
	"github.com/spf13/afero"
	yaml "gopkg.in/yaml.v2"
)

// MetadataKey is the Cargo.toml table holding the configuration.
const MetadataKey = "package.metadata.bootimage"

type manifest struct {
	Package struct {
		Metadata struct {
			Bootimage *types.Config `toml:"bootimage"`
		} `toml:"metadata"`
	} `toml:"package"`
}

// ReadManifest overlays the [package.metadata.bootimage] table of the
// Cargo.toml at path onto c. A manifest without the table leaves c as is.
// Relative paths are resolved against the manifest directory.
func ReadManifest(fs afero.Fs, path string, c *types.Config) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Errorf("error reading manifest: %v", err)
	}

	m := manifest{}
	m.Package.Metadata.Bootimage = c
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return errors.Errorf("error parsing %s: %v", path, err)
	}

	for _, key := range md.Undecoded() {
		if strings.HasPrefix(key.String(), MetadataKey+".") {
			log.Warn("unknown key %s in %s", key.String()[len(MetadataKey)+1:], path)
		}
	}

	dir := filepath.Dir(path)
	if md.IsDefined("package", "metadata", "bootimage", "output") && !filepath.IsAbs(c.Output) {
		c.Output = filepath.Join(dir, c.Output)
	}
	if c.Bootloader.Path != "" && !filepath.IsAbs(c.Bootloader.Path) {
		c.Bootloader.Path = filepath.Join(dir, c.Bootloader.Path)
	}
	c.ManifestPath = path

	return nil
}

// ReadFile overlays a json or yaml configuration file onto c.
func ReadFile(fs afero.Fs, path string, c *types.Config) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return errors.Errorf("error reading config: %v", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return errors.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return errors.Errorf("error config: %v", err)
	}
	return nil
}

// Validate reports configuration combinations that cannot be built.
func Validate(c *types.Config) error {
	b := c.Bootloader
	if b.Name == "" {
		return errors.New("bootloader name is empty")
	}
	if b.Git != "" && b.Path != "" {
		return errors.Errorf("bootloader %s: git and path are mutually exclusive", b.Name)
	}
	if b.Branch != "" && b.Git == "" {
		return errors.Errorf("bootloader %s: branch requires git", b.Name)
	}
	if b.Section == "" {
		return errors.New("bootloader section is empty")
	}
	if c.Output == "" {
		return errors.New("output path is empty")
	}
	if len(slice.ExcludeWhitespaces(c.RunCommand)) == 0 {
		return errors.New("run command is empty")
	}
	if _, err := util.ParseSize(string(c.MinimumImageSize)); err != nil {
		return err
	}
	return nil
}

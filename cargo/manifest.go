package cargo

import (
	"bytes"

	"github.com/BurntSushi/toml"
	"github.com/go-errors/errors"
)

// HelperPackage is the name of the synthesized crate used to fetch a
// dependency.
const HelperPackage = "bootloader_download_helper"

// Dependency is a single [dependencies.<name>] table.
type Dependency struct {
	Name    string `toml:"-"`
	Version string `toml:"version,omitempty"`
	Git     string `toml:"git,omitempty"`
	Branch  string `toml:"branch,omitempty"`
	Path    string `toml:"path,omitempty"`
}

type manifestPackage struct {
	Name    string   `toml:"name"`
	Version string   `toml:"version"`
	Authors []string `toml:"authors"`
}

type manifest struct {
	Package      manifestPackage       `toml:"package"`
	Dependencies map[string]Dependency `toml:"dependencies"`
}

// HelperManifest returns a Cargo.toml for an empty library crate that
// depends on dep and nothing else.
func HelperManifest(dep Dependency) ([]byte, error) {
	if dep.Name == "" {
		return nil, errors.New("dependency name is empty")
	}

	m := manifest{
		Package: manifestPackage{
			Name:    HelperPackage,
			Version: "0.0.0",
			Authors: []string{"author@example.com"},
		},
		Dependencies: map[string]Dependency{dep.Name: dep},
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, errors.Wrap(err, 1)
	}
	return buf.Bytes(), nil
}

// HelperLib is the source of the helper crate.
const HelperLib = "#![no_std]\n"

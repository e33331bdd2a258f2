package config

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// PackageManifestFile is the npm manifest read next to the project config.
const PackageManifestFile = "package.json"

// PackageManifest is the subset of package.json commoners cares about.
type PackageManifest struct {
	Name            string
	Version         string
	Description     string
	Author          string
	Dependencies    map[string]string
	DevDependencies map[string]string
}

// ReadPackageManifest reads and parses a package.json file.
func ReadPackageManifest(path string) (PackageManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PackageManifest{}, err
	}
	return ParsePackageManifest(data)
}

// ParsePackageManifest extracts the fields used by commoners.
func ParsePackageManifest(data []byte) (PackageManifest, error) {
	if !gjson.ValidBytes(data) {
		return PackageManifest{}, fmt.Errorf("invalid JSON")
	}
	doc := gjson.ParseBytes(data)
	author := doc.Get("author")
	if author.IsObject() {
		author = author.Get("name")
	}
	return PackageManifest{
		Name:            doc.Get("name").String(),
		Version:         doc.Get("version").String(),
		Description:     doc.Get("description").String(),
		Author:          author.String(),
		Dependencies:    stringMap(doc.Get("dependencies")),
		DevDependencies: stringMap(doc.Get("devDependencies")),
	}, nil
}

func stringMap(r gjson.Result) map[string]string {
	if !r.IsObject() {
		return nil
	}
	out := make(map[string]string)
	r.ForEach(func(k, v gjson.Result) bool {
		out[k.String()] = v.String()
		return true
	})
	return out
}

// HasDependency reports whether name is a declared dependency or dev dependency.
func (m PackageManifest) HasDependency(name string) bool {
	if _, ok := m.Dependencies[name]; ok {
		return true
	}
	_, ok := m.DevDependencies[name]
	return ok
}

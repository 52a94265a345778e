package credentials

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// ServiceAccountFile is the logical name of the bundled service-account key.
const ServiceAccountFile = "firebase-service-account.json"

// EmbeddedLabel identifies the compiled-in bundle in logs.
const EmbeddedLabel = "embedded"

// ErrNotFound indicates the requested credential file is not present in the source.
var ErrNotFound = errors.New("credential file not found")

//go:embed bundle
var bundleFS embed.FS

// Bundled returns the credential bundle compiled into the binary.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundleFS, "bundle")
	if err != nil {
		// fs.Sub only fails on an invalid path, and "bundle" is constant.
		panic(fmt.Sprintf("credentials: open embedded bundle: %v", err))
	}
	return sub
}

// Source returns the filesystem credentials are read from along with a label
// describing it. An empty dir selects the embedded bundle.
func Source(dir string) (fs.FS, string) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Bundled(), EmbeddedLabel
	}
	return os.DirFS(dir), dir
}

// Read loads the named file from fsys. A missing file yields an error that
// matches both ErrNotFound and fs.ErrNotExist.
func Read(fsys fs.FS, name string) ([]byte, error) {
	if fsys == nil {
		return nil, fmt.Errorf("%w: %s: no credential source", ErrNotFound, name)
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Join(fmt.Errorf("%w: %s", ErrNotFound, name), err)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

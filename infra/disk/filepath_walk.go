package disk

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
)

type FilepathWalk struct {
	fs ports.FS
}

func NewFilepathWalk(f ports.FS) FilepathWalk {
	return FilepathWalk{f}
}

// Files calls fn for every regular file directly in root, in lexical order.
// Hidden files and subdirectories are skipped.
// The walk stops when fn returns false or an error.
func (f *FilepathWalk) Files(root string, fn func(path string) (bool, error)) error {
	root = filepath.Clean(root)
	err := afero.Walk(f.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if info.IsDir() {
			return fs.SkipDir
		}
		if strings.HasPrefix(info.Name(), ".") || !info.Mode().IsRegular() {
			return nil
		}
		ok, err := fn(path)
		if !ok {
			return fs.SkipAll
		}
		return err
	})
	if err == fs.SkipAll {
		return nil
	}
	return err
}

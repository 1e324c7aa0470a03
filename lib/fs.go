package lib

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/afero"
)

// NoSuchFile return true if file name does not exists
func NoSuchFile(fs afero.Fs, name string) bool {
	if _, err := fs.Stat(name); errors.Is(err, os.ErrNotExist) {
		return true
	}
	return false
}

// FileSize returns size of file or zero
func FileSize(fs afero.Fs, name string) int64 {
	fi, err := fs.Stat(name)
	if err != nil {
		return 0

	}
	return fi.Size()
}

// MoveFile renames file within same fs,
// otherwise copies it to dst and removes from src.
func MoveFile(src afero.Fs, oldname string, dst afero.Fs, newname string) error {
	if src == dst {
		return dst.Rename(oldname, newname)
	}

	in, err := src.Open(oldname)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := dst.OpenFile(newname, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		dst.Remove(newname)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return src.Remove(oldname)
}

// Package archive keeps downloaded bank files
package archive

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
)

// FSArchive stores files to a directory
type FSArchive struct {
	log ports.Logger
	fs  ports.FS
	dir string
}

func NewFSArchive(log ports.Logger, fs ports.FS, dir string) (*FSArchive, error) {
	if !lib.IsAbs(dir) {
		return nil, errors.ErrMustBeAbsPath
	}
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return nil, err
	}
	log = log.With(slog.String("entity", "FSArchive"), slog.String("dir", dir))
	return &FSArchive{log: log, fs: fs, dir: dir}, nil
}

func (a *FSArchive) Store(ctx context.Context, name string, data []byte) error {
	if !lib.IsSecureFileName(name) {
		return &errors.ValidationError{Field: "name", Value: name, Msg: "unsecure file name", Err: errors.ErrUnsecureFileName}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(a.dir, name)
	if err := lib.WriteFileAtomic(a.fs, path, data); err != nil {
		a.log.Error("unable to store", slog.String("name", name), slog.Any("err", err))
		return err
	}
	a.log.Debug("stored", slog.String("name", name), slog.Int("size", len(data)))
	return nil
}

func (a *FSArchive) Exists(ctx context.Context, name string) (bool, error) {
	if !lib.IsSecureFileName(name) {
		return false, &errors.ValidationError{Field: "name", Value: name, Msg: "unsecure file name", Err: errors.ErrUnsecureFileName}
	}
	return afero.Exists(a.fs, filepath.Join(a.dir, name))
}

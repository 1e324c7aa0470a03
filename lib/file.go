package lib

import (
	"os"

	"github.com/spf13/afero"
)

// CreateFile creates file name and writes there content.
// The file must not exists.
func CreateFile(fs afero.Fs, name, content string) error {
	f, err := fs.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// WriteFileAtomic writes data to name.part and renames it to name,
// so directory watchers never see partially written file
func WriteFileAtomic(fs afero.Fs, name string, data []byte) error {
	part := name + ".part"
	if err := afero.WriteFile(fs, part, data, 0o640); err != nil {
		fs.Remove(part)
		return err
	}
	if err := fs.Rename(part, name); err != nil {
		fs.Remove(part)
		return err
	}
	return nil
}

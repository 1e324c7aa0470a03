package disk

import (
	"testing"

	"github.com/cloudcopper/bcx/lib"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestFilepathWalkFiles(t *testing.T) {
	assert := require.New(t)
	fs := afero.NewMemMapFs()
	for _, name := range []string{"/outbox/b.txt", "/outbox/a.xml", "/outbox/.hidden", "/outbox/sent/old.txt", "/outbox/failed/bad.txt"} {
		assert.NoError(lib.CreateFile(fs, name, "x"))
	}

	walk := NewFilepathWalk(fs)
	files := []string{}
	err := walk.Files("/outbox/", func(path string) (bool, error) {
		files = append(files, path)
		return true, nil
	})
	assert.NoError(err)
	assert.Equal([]string{"/outbox/a.xml", "/outbox/b.txt"}, files)

	files = files[:0]
	err = walk.Files("/outbox", func(path string) (bool, error) {
		files = append(files, path)
		return false, nil
	})
	assert.NoError(err)
	assert.Len(files, 1)
}

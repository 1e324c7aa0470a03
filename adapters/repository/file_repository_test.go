package repository

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/infra"
	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func newTestFileRepository(t *testing.T) *FileRepository {
	assert := require.New(t)
	source := infra.SourceSqliteMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	db, closeDb, err := infra.NewDatabase(slog.Default(), infra.DriverSqlite, source)
	assert.NoError(err)
	t.Cleanup(closeDb)
	assert.NoError(db.AutoMigrate(new(models.FileRecord)))
	r, err := NewFileRepository(db, afero.NewMemMapFs())
	assert.NoError(err)
	return r
}

func TestFileRepositorySave(t *testing.T) {
	assert := require.New(t)
	r := newTestFileRepository(t)

	rec := &models.FileRecord{FileName: "a.txt", Hash: "h1", Format: vo.FormatTxtTps, Status: vo.FileIsNew, Transitions: 1}
	assert.NoError(r.Save(rec))

	rec.Status = vo.FileIsTransferred
	rec.BankFileID = "42"
	rec.Transitions = 3
	assert.NoError(r.Save(rec))

	found, err := r.FindByKey(models.FileKey{Name: "a.txt", Hash: "h1"})
	assert.NoError(err)
	assert.Equal(vo.FileIsTransferred, found.Status)
	assert.Equal("42", found.BankFileID)
	assert.Equal(3, found.Transitions)
	assert.NotZero(found.UpdatedAt)

	all, err := r.FindAll()
	assert.NoError(err)
	assert.Len(all, 1)

	_, err = r.FindByKey(models.FileKey{Name: "a.txt", Hash: "other"})
	assert.ErrorIs(err, ports.ErrRecordNotFound)

	assert.Error(r.Save(&models.FileRecord{FileName: "b.txt"}))
}

func TestFileRepositoryQueries(t *testing.T) {
	assert := require.New(t)
	r := newTestFileRepository(t)

	for _, rec := range []*models.FileRecord{
		{FileName: "a.txt", Hash: "h1", Status: vo.FileIsConfirmed},
		{FileName: "b.txt", Hash: "h2", Status: vo.FileIsFailed, Reason: "duplicate"},
		{FileName: "c.txt", Hash: "h3", Status: vo.FileIsConfirmed},
		{FileName: "renamed.txt", Hash: "h1", Status: vo.FileIsNew},
	} {
		assert.NoError(r.Save(rec))
	}

	confirmed, err := r.FindAllByStatus(vo.FileIsConfirmed)
	assert.NoError(err)
	assert.Len(confirmed, 2)

	limited, err := r.FindAllByStatus(vo.FileIsConfirmed, ports.Limit(1))
	assert.NoError(err)
	assert.Len(limited, 1)

	sameContent, err := r.FindByHash("h1")
	assert.NoError(err)
	assert.Len(sameContent, 2)

	names := []string{}
	assert.NoError(r.IterateAll(func(rec *models.FileRecord) (bool, error) {
		names = append(names, rec.FileName)
		return len(names) < 3, nil
	}))
	assert.Len(names, 3)

	recent, err := r.FindAll(ports.Since(0), ports.Limit(10))
	assert.NoError(err)
	assert.Len(recent, 4)
}

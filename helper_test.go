package bcx

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudcopper/bcx/adapters/repository"
	"github.com/cloudcopper/bcx/domain"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/infra"
	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testFakeAppInternals struct {
	log ports.Logger
	bus ports.EventBus
	db  *gorm.DB
	fs  ports.FS
	fr  domain.FileRepository
	js  *JournalService
}

// testFakeApp wires in-memory journal over the eventbus
// and calls callback with the internals
func testFakeApp(t *testing.T, callback func(*testFakeAppInternals)) {
	assert := require.New(t)
	noErr := func(err error) {
		assert.NoError(err)
		if err != nil {
			t.FailNow()
		}
	}

	// Create logger
	log := slog.Default()
	fs := afero.NewMemMapFs()
	// Create eventbus
	var bus ports.EventBus = infra.NewEventBus()
	defer bus.Shutdown()
	// Create database
	driver := infra.DriverSqlite
	source := infra.SourceSqliteMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	db, closeDb, err := infra.NewDatabase(log, driver, source)
	noErr(err)
	defer closeDb()
	noErr(db.AutoMigrate(new(models.FileRecord)))
	// Create file repository
	fileRepository, err := repository.NewFileRepository(db, fs)
	noErr(err)
	// Create journal service
	journalService, err := NewJournalService(log, bus, fileRepository)
	noErr(err)
	defer journalService.Close()

	app := &testFakeAppInternals{
		log: log,
		bus: bus,
		db:  db,
		fs:  fs,
		fr:  fileRepository,
		js:  journalService,
	}

	callback(app)
}

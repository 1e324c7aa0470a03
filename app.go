package bcx

import (
	"context"
	"log/slog"
	"time"

	"github.com/cloudcopper/bcx/adapters/archive"
	"github.com/cloudcopper/bcx/adapters/codec"
	"github.com/cloudcopper/bcx/adapters/control"
	"github.com/cloudcopper/bcx/adapters/data"
	"github.com/cloudcopper/bcx/adapters/repository"
	"github.com/cloudcopper/bcx/domain"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/infra"
	"github.com/cloudcopper/bcx/infra/config"
	"github.com/cloudcopper/bcx/infra/soap"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
)

// App holds the wired application.
// The errors returned by NewApp and Watch carry the process return code.
type App struct {
	log            ports.Logger
	cfg            *config.Config
	fs             ports.FS
	bus            ports.EventBus
	closeDb        func()
	journal        *JournalService
	FileRepository domain.FileRepository
	Registry       *codec.Registry
	Archive        ports.Archive // nil if not configured
	Client         *Client
}

func NewApp(log ports.Logger, cfg *config.Config) (*App, error) {
	var realFS ports.FS = afero.NewOsFs()
	app := &App{
		log: log,
		cfg: cfg,
		fs:  realFS,
	}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	// EventBus
	app.bus = infra.NewEventBus()

	// Open database
	driver := infra.DriverSqlite
	source := infra.SourceSqliteMemory("bcx-journal")
	if cfg.Journal.Path != "" {
		source = infra.SourceSqliteFile(cfg.Journal.Path)
	}
	db, closeDb, err := infra.NewDatabase(log, driver, source)
	if err != nil {
		log.Error("unable to create database", slog.Any("err", err), slog.String("driver", driver), slog.String("source", source))
		return nil, lib.NewErrorCode(err, errors.RetCreateDatabaseError)
	}
	app.closeDb = closeDb
	// Sync database
	if err := db.AutoMigrate(new(models.FileRecord)); err != nil {
		log.Error("unable sync database", slog.Any("err", err), slog.String("driver", driver), slog.String("source", source))
		return nil, lib.NewErrorCode(err, errors.RetMigrateDatabaseError)
	}
	// Create repositories
	app.FileRepository, err = repository.NewFileRepository(db, realFS)
	if err != nil {
		log.Error("unable create file repository", slog.Any("err", err))
		return nil, lib.NewErrorCode(err, errors.RetCreateFileRepositoryError)
	}
	// Create journal service
	// - records every file transition
	app.journal, err = NewJournalService(log, app.bus, app.FileRepository)
	if err != nil {
		log.Error("unable create journal service", slog.Any("err", err))
		return nil, lib.NewErrorCode(err, errors.RetJournalError)
	}

	// Create transports
	minVersion, err := infra.ParseTLSVersion(cfg.TLS.MinVersion)
	if err != nil {
		log.Error("unable parse tls version", slog.Any("err", err))
		return nil, lib.NewErrorCode(err, errors.RetCreateTLSConfigError)
	}
	tlsConfig, err := infra.NewTLSConfig(realFS, infra.TLSOptions{
		CertFile:           cfg.TLS.Cert,
		KeyFile:            cfg.TLS.Key,
		Passphrase:         cfg.TLS.Passphrase,
		CAFile:             cfg.TLS.CA,
		MinVersion:         minVersion,
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
	})
	if err != nil {
		log.Error("unable create tls config", slog.Any("err", err))
		return nil, lib.NewErrorCode(err, errors.RetCreateTLSConfigError)
	}
	if cfg.TLS.InsecureSkipVerify {
		log.Warn("server certificate verification is disabled!!!")
	}
	transport := soap.NewClient(log, infra.NewHTTPClient(tlsConfig, cfg.Control.Timeout.Std()), cfg.Control.URL)
	controlChannel := control.NewClient(log, transport, control.Options{
		ContractNumber: cfg.ContractNumber,
		ClientAppGuid:  cfg.ClientAppGuid,
		Namespace:      cfg.Control.Namespace,
	})
	dataChannel := data.NewClient(log, infra.NewHTTPClient(tlsConfig, cfg.Data.Timeout.Std()), data.Options{
		ValidStatuses:   cfg.Data.ValidStatuses,
		MaxDownloadSize: cfg.Data.MaxDownloadSize,
	})

	// Create codecs
	if err := realFS.MkdirAll(cfg.Generator.TmpDir, 0o750); err != nil {
		log.Error("unable create tmp dir", slog.Any("err", err), slog.String("dir", cfg.Generator.TmpDir))
		return nil, lib.NewErrorCode(err, errors.RetCreateRegistryError)
	}
	app.Registry = codec.NewDefaultRegistry(log, realFS, codec.Options{
		TmpDir:      cfg.Generator.TmpDir,
		Clock:       time.Now,
		SenderBIC:   cfg.Generator.SenderBIC,
		ReceiverBIC: cfg.Generator.ReceiverBIC,
		Originator:  codec.Originator(cfg.Generator.Originator),
	})

	// Create archive of downloaded files
	app.Archive, err = newArchive(log, realFS, cfg.Archive)
	if err != nil {
		log.Error("unable create archive", slog.Any("err", err), slog.String("kind", cfg.Archive.Kind))
		return nil, lib.NewErrorCode(err, errors.RetCreateArchiveError)
	}

	app.Client = NewClient(log, app.bus, controlChannel, dataChannel, app.Registry, ClientOptions{
		Parallelism: cfg.Data.Parallelism,
	})

	ok = true
	return app, nil
}

func newArchive(log ports.Logger, fs ports.FS, cfg config.Archive) (ports.Archive, error) {
	switch {
	case cfg.Kind == "s3":
		return archive.NewS3Archive(log, archive.S3Options{
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			Prefix:    cfg.Prefix,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Secure:    cfg.Secure,
		})
	case cfg.Path != "":
		return archive.NewFSArchive(log, fs, cfg.Path)
	case cfg.Kind == "fs":
		return nil, &errors.ConfigError{Key: "archive.path", Msg: "required for fs archive"}
	}
	return nil, nil
}

// Close stops journal and releases database.
func (a *App) Close() {
	if a.journal != nil {
		a.journal.Close()
		a.journal = nil
	}
	if a.closeDb != nil {
		a.closeDb()
		a.closeDb = nil
	}
	if a.bus != nil {
		a.bus.Shutdown()
		a.bus = nil
	}
}

// Watch uploads files dropped to the outbox until ctx is done
func (a *App) Watch(ctx context.Context) error {
	log, cfg := a.log, a.cfg
	if cfg.Outbox.Dir == "" {
		err := &errors.ConfigError{Key: "outbox.dir", Msg: "required for watch"}
		log.Error("unable to watch outbox", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetCreateOutboxServiceError)
	}

	// Create filesystem watcher for outbox
	outboxWatcher, err := infra.NewWatcherService("outbox", log, a.bus)
	if err != nil {
		log.Error("unable to create new watcher service", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetCreateOutboxWatcherError)
	}
	defer outboxWatcher.Close()

	patterns := []codec.OutboundPattern{}
	for _, p := range cfg.Outbox.Patterns {
		patterns = append(patterns, codec.OutboundPattern{Pattern: p.Pattern, Format: vo.FileFormat(p.Format)})
	}
	// Create outbox service
	// - uploads files present at start
	// - uploads files reported by watcher
	outboxService, err := NewOutboxService(log, a.bus, a.fs, a.Client, a.FileRepository, OutboxOptions{
		Dir:       cfg.Outbox.Dir,
		SentDir:   cfg.Outbox.Sent,
		FailedDir: cfg.Outbox.Failed,
		Patterns:  patterns,
	})
	if err != nil {
		log.Error("unable to create outbox service", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetCreateOutboxServiceError)
	}
	defer outboxService.Close()

	log.Info("press ctrl-c to exit")
	<-ctx.Done()
	return nil
}

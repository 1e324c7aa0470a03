package bcx

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/cloudcopper/bcx/adapters/codec"
	"github.com/cloudcopper/bcx/domain"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/infra/disk"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
)

type OutboxOptions struct {
	Dir       string
	SentDir   string // Dir/sent if empty
	FailedDir string // Dir/failed if empty
	Patterns  []codec.OutboundPattern
}

type Uploader interface {
	Upload(ctx context.Context, files []*models.File) (*models.Confirmation, error)
}

// OutboxService uploads batch files dropped to outbox directory.
// At start it uploads files already present in the outbox,
// then it listening eventbus for outbox-file-modified.
// Every content hash is uploaded once. The file is moved
// to sent directory when confirmed, or to failed directory
// when the bank refused it. On transport errors the file stays in outbox.
type OutboxService struct {
	log                       ports.Logger
	bus                       ports.EventBus
	fs                        ports.FS
	walk                      disk.FilepathWalk
	uploader                  Uploader
	fileRepository            domain.FileRepository
	opts                      OutboxOptions
	seen                      map[string]bool
	ctx                       context.Context
	cancel                    context.CancelFunc
	chTopicOutboxFileModified chan ports.Event
	closeWg                   sync.WaitGroup
}

func NewOutboxService(log ports.Logger, bus ports.EventBus, fs ports.FS, uploader Uploader, fileRepository domain.FileRepository, opts OutboxOptions) (*OutboxService, error) {
	log = log.With(slog.String("entity", "OutboxService"), slog.String("dir", opts.Dir))

	if !lib.IsAbs(opts.Dir) {
		return nil, errors.ErrMustBeAbsPath
	}
	opts.Dir = filepath.Clean(opts.Dir)
	if opts.SentDir == "" {
		opts.SentDir = filepath.Join(opts.Dir, "sent")
	}
	if opts.FailedDir == "" {
		opts.FailedDir = filepath.Join(opts.Dir, "failed")
	}
	if len(opts.Patterns) == 0 {
		opts.Patterns = codec.DefaultOutboundPatterns
	}
	for _, dir := range []string{opts.Dir, opts.SentDir, opts.FailedDir} {
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	if _, err := fileRepository.FindAll(ports.Limit(1)); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &OutboxService{
		log:                       log,
		bus:                       bus,
		fs:                        fs,
		walk:                      disk.NewFilepathWalk(fs),
		uploader:                  uploader,
		fileRepository:            fileRepository,
		opts:                      opts,
		seen:                      map[string]bool{},
		ctx:                       ctx,
		cancel:                    cancel,
		chTopicOutboxFileModified: bus.Sub(ports.TopicOutboxFileModified),
	}
	log.Info("created")

	s.closeWg.Add(1)
	go func() {
		defer s.closeWg.Done()
		log.Info("process started")
		defer log.Warn("process complete")
		s.background()
	}()

	return s, nil
}

func (s *OutboxService) Close() {
	s.log.Info("closing")
	s.cancel()
	s.bus.Unsub(s.chTopicOutboxFileModified)
	s.closeWg.Wait()
}

func (s *OutboxService) background() {
	// Watch outbox before the scan
	s.bus.Pub(ports.TopicOutboxUpdated, ports.Event{s.opts.Dir})
	err := s.walk.Files(s.opts.Dir, func(path string) (bool, error) {
		s.processFile(path)
		return s.ctx.Err() == nil, nil
	})
	if err != nil {
		s.log.Error("unable to scan outbox", slog.Any("err", err))
	}

	for {
		select {
		case event, ok := <-s.chTopicOutboxFileModified:
			if !ok {
				return
			}
			for _, path := range event {
				s.processFile(path)
			}
		}
	}
}

func (s *OutboxService) processFile(path string) {
	log := s.log.With(slog.String("path", path))
	if filepath.Dir(path) != s.opts.Dir {
		log.Debug("not in outbox")
		return
	}
	format, ok := codec.OutboundFormat(s.opts.Patterns, path)
	if !ok {
		log.Warn("unknown outbound format, skipped")
		return
	}

	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug("file gone")
		return
	}
	if err != nil {
		log.Error("unable to read file", slog.Any("err", err))
		return
	}

	hash := models.ContentHash(data)
	log = log.With(slog.String("hash", hash))
	if s.isKnown(hash) {
		log.Warn("content already uploaded")
		s.move(log, path, s.opts.SentDir)
		return
	}

	f := models.NewFileFromContent(filepath.Base(path), format, data)
	f.Separator = codec.Separator(format)
	f.Path = path

	_, err = s.uploader.Upload(s.ctx, []*models.File{f})
	switch {
	case f.Status().IsConfirmed():
		s.seen[hash] = true
		log.Info("file uploaded", slog.String("fileId", f.Upload().FileID))
		s.move(log, path, s.opts.SentDir)
	case f.Status().IsFailed():
		log.Warn("file refused", slog.String("reason", f.Reason()))
		s.move(log, path, s.opts.FailedDir)
	default:
		log.Error("file upload incomplete, left in outbox", slog.String("status", f.Status().String()), slog.Any("err", err))
	}
}

// isKnown returns true for content which was confirmed
// by this or earlier upload
func (s *OutboxService) isKnown(hash string) bool {
	if s.seen[hash] {
		return true
	}
	recs, err := s.fileRepository.FindByHash(hash)
	if err != nil {
		s.log.Error("unable to find file records", slog.String("hash", hash), slog.Any("err", err))
		return false
	}
	for _, rec := range recs {
		if rec.Status.IsConfirmed() {
			return true
		}
	}
	return false
}

func (s *OutboxService) move(log ports.Logger, path, dir string) {
	dst := filepath.Join(dir, filepath.Base(path))
	if err := lib.MoveFile(s.fs, path, s.fs, dst); err != nil {
		log.Error("unable to move file", slog.String("dst", dst), slog.Any("err", err))
		return
	}
	log.Debug("file moved", slog.String("dst", dst))
}

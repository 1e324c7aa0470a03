package infra

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// WatcherService watches directories announced on "<id>-updated" topic
// and publishes "<id>-file-modified" and "<id>-file-removed" events.
// Hidden and partial files (.part, .tmp) are not reported.
type WatcherService struct {
	id             string
	log            ports.Logger
	bus            ports.EventBus
	fs             ports.FS
	chTopicUpdated chan ports.Event
	watcher        *fsnotify.Watcher
	closeWg        sync.WaitGroup
}

func NewWatcherService(id string, log ports.Logger, bus ports.EventBus) (*WatcherService, error) {
	log = log.With(slog.String("entity", "WatcherService"), slog.String("id", id))
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	s := &WatcherService{
		id:             id,
		log:            log,
		bus:            bus,
		fs:             afero.NewOsFs(),
		chTopicUpdated: bus.Sub(fmt.Sprintf("%v-updated", id)),
		watcher:        watcher,
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

func (s *WatcherService) Close() {
	if s == nil {
		return
	}
	if s.watcher == nil {
		return
	}

	s.log.Info("closing")
	s.bus.Unsub(s.chTopicUpdated)
	s.watcher.Close()
	s.closeWg.Wait()
	s.watcher = nil
}

// The addDir watches only the directory itself, not its subdirectories.
// The sent and failed subdirectories of outbox must stay unwatched.
func (s *WatcherService) addDir(path string) error {
	log := s.log
	if !lib.IsAbs(path) {
		log.Error("add dir failed!!!", slog.String("path", path))
		return errors.ErrMustBeAbsPath
	}
	log.Info("add dir", slog.String("path", path))
	err := s.watcher.Add(path)
	if err != nil {
		log.Error("add dir failed!!!", slog.Any("err", err), slog.String("path", path))
	}
	return err
}

func isPartialFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".part") || strings.HasSuffix(base, ".tmp")
}

func (s *WatcherService) background() {
	log, bus, fs := s.log, s.bus, s.fs
	topicFileModified := fmt.Sprintf("%v-file-modified", s.id)
	topicFileRemoved := fmt.Sprintf("%v-file-removed", s.id)
	for {
		select {
		case event, ok := <-s.chTopicUpdated:
			if !ok {
				return
			}
			log.Debug("watch request", slog.Any("event", event))
			for _, path := range event {
				s.addDir(path)
			}
		case err, ok := <-s.watcher.Errors:
			if err != nil {
				log.Error("watcher error", slog.Any("err", err))
			}
			if !ok {
				return
			}
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			log.Debug("watcher event", slog.Any("event", event))

			file := event.Name
			if isPartialFile(file) {
				continue
			}
			if exist, _ := afero.DirExists(fs, file); exist {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				size := lib.FileSize(fs, file)
				log.Debug("file modified", slog.String("file", file), slog.Int64("size", size))
				bus.Pub(topicFileModified, ports.Event{file})
			}
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				log.Debug("file removed", slog.String("file", file))
				bus.Pub(topicFileRemoved, ports.Event{file})
			}
		}
	}
}

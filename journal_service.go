package bcx

import (
	"log/slog"
	"sync"

	"github.com/cloudcopper/bcx/domain"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/ports"
)

// JournalService listening eventbus for file-status-changed
// and keeps last known state of every file in the repository.
type JournalService struct {
	log                      ports.Logger
	bus                      ports.EventBus
	fileRepository           domain.FileRepository
	chTopicFileStatusChanged chan ports.Event
	closeWg                  sync.WaitGroup
}

func NewJournalService(log ports.Logger, bus ports.EventBus, fileRepository domain.FileRepository) (*JournalService, error) {
	log = log.With(slog.String("entity", "JournalService"))

	if _, err := fileRepository.FindAll(ports.Limit(1)); err != nil {
		return nil, err
	}

	s := &JournalService{
		log:                      log,
		bus:                      bus,
		fileRepository:           fileRepository,
		chTopicFileStatusChanged: bus.Sub(ports.TopicFileStatusChanged),
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

func (s *JournalService) Close() {
	s.log.Info("closing")
	s.bus.Unsub(s.chTopicFileStatusChanged)
	s.closeWg.Wait()
}

func (s *JournalService) background() {
	for {
		select {
		case event, ok := <-s.chTopicFileStatusChanged:
			if !ok {
				return
			}
			s.record(event)
		}
	}
}

// record upserts the file record by event
func (s *JournalService) record(event ports.Event) {
	e, ok := ports.ParseFileStatusEvent(event)
	if !ok {
		s.log.Error("malformed event", slog.Any("event", event))
		return
	}
	log := s.log.With(slog.String("fileName", e.FileName), slog.String("hash", e.Hash))
	key := models.FileKey{Name: e.FileName, Hash: e.Hash}

	rec, err := s.fileRepository.FindByKey(key)
	if errors.Is(err, ports.ErrRecordNotFound) {
		rec, err = &models.FileRecord{FileName: key.Name, Hash: key.Hash}, nil
	}
	if err != nil {
		log.Error("unable to find file record", slog.Any("err", err))
		return
	}

	status := vo.FileStatus(e.Status)
	if rec.Status != status {
		rec.Transitions++
	}
	rec.Status = status
	if e.Format != "" {
		rec.Format = vo.FileFormat(e.Format)
	}
	if e.BankFileID != "" {
		rec.BankFileID = e.BankFileID
		rec.BankFileName = e.BankFileName
	}
	rec.Reason = e.Reason

	if err := s.fileRepository.Save(rec); err != nil {
		log.Error("unable to save file record", slog.Any("err", err))
		return
	}
	log.Debug("file recorded", slog.String("status", status.String()), slog.Int("transitions", rec.Transitions))
}

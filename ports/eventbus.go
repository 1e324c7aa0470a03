package ports

type Topic = string
type Event = []string
type EventBus interface {
	Shutdown()
	Pub(Topic, Event)
	Sub(Topic) chan Event
	Unsub(chan Event)
}

const (
	// FileStatusEvent.Event()
	TopicFileStatusChanged Topic = "file-status-changed"
	// Event{dir...}
	TopicOutboxUpdated Topic = "outbox-updated"
	// Event{path}
	TopicOutboxFileModified Topic = "outbox-file-modified"
	// Event{path}
	TopicOutboxFileRemoved Topic = "outbox-file-removed"
)

// FileStatusEvent is payload of TopicFileStatusChanged
type FileStatusEvent struct {
	FileName     string
	Hash         string
	Status       string
	Format       string
	BankFileID   string
	BankFileName string
	Reason       string
}

const fileStatusEventLen = 7

func (e FileStatusEvent) Event() Event {
	return Event{e.FileName, e.Hash, e.Status, e.Format, e.BankFileID, e.BankFileName, e.Reason}
}

// ParseFileStatusEvent returns false for event of other length
func ParseFileStatusEvent(event Event) (FileStatusEvent, bool) {
	if len(event) != fileStatusEventLen {
		return FileStatusEvent{}, false
	}
	return FileStatusEvent{
		FileName:     event[0],
		Hash:         event[1],
		Status:       event[2],
		Format:       event[3],
		BankFileID:   event[4],
		BankFileName: event[5],
		Reason:       event[6],
	}, true
}

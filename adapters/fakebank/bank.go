// Package fakebank is development and test server
// speaking control and data channels of the bank.
package fakebank

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/infra"
	"github.com/cloudcopper/bcx/ports"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const (
	ApiPath      = "/cebbc/api"
	DownloadPath = "/download"
	UploadPath   = "/upload"

	StatusDownloadable = "D"
	StatusConfirmed    = "OK"
	StatusError        = "ERROR"
	StatusRejected     = "REJECTED"
)

type Options struct {
	// BaseURL prefixes download and upload links
	BaseURL string
	// ContractNumber accepted by bank, any if empty
	ContractNumber string
	// Formats accepted for upload, all outbound formats if empty
	Formats []vo.FileFormat
	Clock   ports.Clock
}

type inboundFile struct {
	id       string
	name     string
	fileType string
	content  []byte
	created  time.Time
}

type uploadSlot struct {
	token    string
	name     string
	hash     string
	format   string
	size     int64
	fileID   string
	bankName string
	status   string
	content  []byte
}

// Bank keeps state of the fake bank in memory
type Bank struct {
	log     ports.Logger
	opts    Options
	render  infra.Render
	mu      sync.Mutex
	inbound []*inboundFile
	slots   map[string]*uploadSlot
	byKey   map[models.FileKey]*uploadSlot
}

func NewBank(log ports.Logger, opts Options) *Bank {
	log = log.With(slog.String("entity", "FakeBank"))
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if len(opts.Formats) == 0 {
		opts.Formats = []vo.FileFormat{vo.FormatTxtTps, vo.FormatMt101, vo.FormatSepaXml}
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	return &Bank{
		log:    log,
		opts:   opts,
		render: infra.NewRender(),
		slots:  map[string]*uploadSlot{},
		byKey:  map[models.FileKey]*uploadSlot{},
	}
}

// SetBaseURL changes prefix of links given to clients
func (b *Bank) SetBaseURL(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opts.BaseURL = strings.TrimSuffix(url, "/")
}

// AddInbound publishes file for download and returns its id
func (b *Bank) AddInbound(name, fileType string, content []byte) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addInbound(name, fileType, content)
}

func (b *Bank) addInbound(name, fileType string, content []byte) string {
	f := &inboundFile{
		id:       ulid.Make().String(),
		name:     name,
		fileType: fileType,
		content:  content,
		created:  b.opts.Clock().UTC(),
	}
	b.inbound = append(b.inbound, f)
	b.log.Info("inbound file added", slog.String("fileName", name), slog.String("type", fileType), slog.String("id", f.id))
	return f.id
}

// Confirmed returns names of confirmed uploads in lexical order
func (b *Bank) Confirmed() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := []string{}
	for _, s := range b.byKey {
		if s.status == StatusConfirmed {
			names = append(names, s.name)
		}
	}
	slices.Sort(names)
	return names
}

func (b *Bank) acceptsFormat(format string) bool {
	return slices.Contains(b.opts.Formats, vo.FileFormat(format))
}

func newTicketID() string {
	return uuid.NewString()
}

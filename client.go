package bcx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"golang.org/x/sync/errgroup"
)

type ClientOptions struct {
	// Parallelism limits concurrent transfers, sequential if not positive
	Parallelism int
}

// Client is the single entry point of the bank exchange.
// It drives the upload protocol over the control and data channels:
//   - register NEW files (exactly once per upload)
//   - transfer every registered file and wait for all of them
//   - confirm the transferred files (at most once per upload)
//
// Each file transition is published on the bus as file-status-changed event,
// if the bus is given.
type Client struct {
	log         ports.Logger
	bus         ports.EventBus
	control     ports.ControlChannel
	data        ports.DataChannel
	codecs      ports.CodecRegistry
	parallelism int
}

func NewClient(log ports.Logger, bus ports.EventBus, control ports.ControlChannel, data ports.DataChannel, codecs ports.CodecRegistry, opts ClientOptions) *Client {
	log = log.With(slog.String("entity", "Client"))
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &Client{
		log:         log,
		bus:         bus,
		control:     control,
		data:        data,
		codecs:      codecs,
		parallelism: parallelism,
	}
}

// ListFiles returns files ready for download.
// The since is QueryTimestamp of previous result or empty.
func (c *Client) ListFiles(ctx context.Context, since string, filter *models.Filter) (*models.ListResult, error) {
	res, err := c.control.GetFiles(ctx, since, filter)
	if err != nil {
		c.log.Error("unable to list files", slog.Any("err", err))
		return nil, err
	}
	c.log.Info("files listed", slog.Int("count", len(res.Files)), slog.String("ticketId", res.TicketID))
	return res, nil
}

// Download returns raw content of file at url
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	if !lib.IsURI(url) {
		return nil, &errors.ValidationError{Field: "url", Value: url, Msg: fmt.Sprintf("Given string %q is not valid url", url)}
	}
	return c.data.Download(ctx, url)
}

// Upload runs register, transfer and confirm phases over NEW files.
// Files rejected by the bank end up FAILED with the reason
// and do not fail the call, as long as some file was confirmed.
// A transport or file state error in the transfer phase stops before
// confirm, leaving transferred files for a later Confirm.
func (c *Client) Upload(ctx context.Context, files []*models.File) (*models.Confirmation, error) {
	log := c.log.With(slog.Int("files", len(files)))

	reg, err := c.Register(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, f := range reg.Unanswered {
		log.Warn("file not answered by bank", slog.String("fileName", f.Name()), slog.String("hash", f.Hash()))
	}

	if len(reg.Registered) > 0 {
		err := c.Transfer(ctx, reg.Registered)
		if errors.Is(err, errors.ErrRequest) || errors.Is(err, errors.ErrState) {
			log.Error("transfer interrupted", slog.Any("err", err))
			return nil, err
		}
		if err != nil {
			log.Warn("some files rejected at transfer", slog.Any("err", err))
		}
	}

	transferred := []*models.File{}
	for _, f := range reg.Registered {
		if f.Status().IsTransferred() {
			transferred = append(transferred, f)
		}
	}
	if len(transferred) == 0 {
		log.Error("nothing transferred")
		return nil, errors.ErrNothingToConfirm
	}

	return c.Confirm(ctx, transferred)
}

// Register announces NEW files to the bank.
// Accepted files become UPLOAD_AVAILABLE, rejected ones FAILED.
func (c *Client) Register(ctx context.Context, files []*models.File) (*models.RegisterResult, error) {
	res, err := c.control.StartUpload(ctx, files)
	if err != nil {
		c.log.Error("unable to register files", slog.Any("err", err))
		return nil, err
	}
	for _, f := range res.Registered {
		c.publish(f)
	}
	for _, f := range res.Rejected {
		c.log.Warn("file rejected", slog.String("fileName", f.Name()), slog.String("reason", f.Reason()))
		c.publish(f)
	}
	return res, nil
}

// Transfer uploads UPLOAD_AVAILABLE files and waits for all of them.
// Every file is checked before the first transfer starts.
// A file refused by the bank becomes FAILED.
// The returned error joins errors of all failed transfers.
func (c *Client) Transfer(ctx context.Context, files []*models.File) error {
	if len(files) == 0 {
		return &errors.ValidationError{Field: "files", Msg: "empty list", Err: errors.ErrNoFiles}
	}
	for _, f := range files {
		if !f.Status().IsUploadAvailable() {
			return &errors.StateError{FileName: f.Name(), Status: f.Status(), Want: vo.FileIsUploadAvailable, Msg: "Given file is not supposed to be uploaded."}
		}
		if !lib.IsURI(f.UploadURL()) {
			return &errors.StateError{FileName: f.Name(), Status: f.Status(), Msg: fmt.Sprintf("File must contain valid upload url. %q given", f.UploadURL())}
		}
	}

	errs := make([]error, len(files))
	g := new(errgroup.Group)
	g.SetLimit(c.parallelism)
	for i, f := range files {
		g.Go(func() error {
			errs[i] = c.transfer(ctx, f)
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

func (c *Client) transfer(ctx context.Context, f *models.File) error {
	log := c.log.With(slog.String("fileName", f.Name()), slog.String("hash", f.Hash()))
	err := c.data.Upload(ctx, f)
	if err != nil {
		var re *errors.ResponseError
		if errors.As(err, &re) {
			if err := f.Failed(re.Msg); err != nil {
				log.Error("unable to mark file failed", slog.Any("err", err))
			}
			c.publish(f)
		}
		log.Error("unable to transfer file", slog.Any("err", err))
		return err
	}
	log.Info("file transferred", slog.String("fileId", f.Upload().FileID))
	c.publish(f)
	return nil
}

// Confirm finishes upload of TRANSFERRED files.
// On success they all become CONFIRMED.
func (c *Client) Confirm(ctx context.Context, files []*models.File) (*models.Confirmation, error) {
	if len(files) == 0 {
		return nil, errors.ErrNothingToConfirm
	}
	for _, f := range files {
		if !f.Status().IsTransferred() {
			return nil, &errors.StateError{FileName: f.Name(), Status: f.Status(), Want: vo.FileIsTransferred, Msg: "Cannot run finish upload without transferred file."}
		}
	}

	conf, err := c.control.FinishUpload(ctx, files)
	if err != nil {
		c.log.Error("unable to confirm files", slog.Any("err", err))
		return nil, err
	}
	for _, f := range files {
		if err := f.Confirmed(); err != nil {
			c.log.Error("unable to mark file confirmed", slog.String("fileName", f.Name()), slog.Any("err", err))
			continue
		}
		c.publish(f)
	}
	c.log.Info("files confirmed", slog.Int("count", len(files)), slog.String("ticketId", conf.TicketID))
	return conf, nil
}

// Generate writes payments as outbound batch file of given format
func (c *Client) Generate(format vo.FileFormat, payments models.Payments, name string, rail vo.Rail) (*models.File, error) {
	if c.codecs == nil {
		return nil, &errors.ConfigError{Key: "format", Msg: "no codecs", Err: errors.ErrUnknownFormat}
	}
	g, err := c.codecs.Generator(format)
	if err != nil {
		return nil, err
	}
	f, err := g.Generate(payments, name, rail)
	if err != nil {
		c.log.Error("unable to generate file", slog.String("format", format.String()), slog.Any("err", err))
		return nil, err
	}
	c.log.Info("file generated", slog.String("fileName", f.Name()), slog.String("size", f.Size.String()))
	c.publish(f)
	return f, nil
}

// Read parses inbound bank file of given format
func (c *Client) Read(format vo.FileFormat, data []byte) (models.Document, error) {
	if c.codecs == nil {
		return nil, &errors.ConfigError{Key: "format", Msg: "no codecs", Err: errors.ErrUnknownFormat}
	}
	r, err := c.codecs.Reader(format)
	if err != nil {
		return nil, err
	}
	return r.Read(data)
}

// Fetch lists files and stores every not yet archived one.
// It stops on first failure. The returned result keeps
// QueryTimestamp for the next call.
func (c *Client) Fetch(ctx context.Context, since string, filter *models.Filter, archive ports.Archive) (*models.ListResult, error) {
	res, err := c.ListFiles(ctx, since, filter)
	if err != nil {
		return nil, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for _, f := range res.Files {
		g.Go(func() error {
			log := c.log.With(slog.String("fileName", f.Name()))
			exists, err := archive.Exists(ctx, f.Name())
			if err != nil {
				return err
			}
			if exists {
				log.Debug("already archived")
				return nil
			}
			data, err := c.Download(ctx, f.DownloadURL)
			if err != nil {
				return err
			}
			if err := archive.Store(ctx, f.Name(), data); err != nil {
				return err
			}
			f.Content = data
			log.Info("file archived", slog.Int("size", len(data)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.log.Error("unable to fetch files", slog.Any("err", err))
		return res, err
	}
	return res, nil
}

func (c *Client) publish(f *models.File) {
	if c.bus == nil {
		return
	}
	e := ports.FileStatusEvent{
		FileName: f.Name(),
		Hash:     f.Hash(),
		Status:   f.Status().String(),
		Format:   f.Format.String(),
		Reason:   f.Reason(),
	}
	if u := f.Upload(); u != nil {
		e.BankFileID, e.BankFileName = u.FileID, u.FileName
	}
	c.bus.Pub(ports.TopicFileStatusChanged, e.Event())
}

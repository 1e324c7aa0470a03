// Package control implements the control channel over SOAP transport
package control

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/infra/soap"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/cloudcopper/bcx/ports"
)

// StatusUploadAvailable is the start upload status of accepted file
const StatusUploadAvailable = "UPLOAD_AVAILABLE"

type Options struct {
	ContractNumber string
	ClientAppGuid  string
	Namespace      string
	// Clock stamps listed files without creation time
	Clock          ports.Clock
}

// Client implements ports.ControlChannel
type Client struct {
	log       ports.Logger
	transport ports.ControlTransport
	opts      Options
}

func NewClient(log ports.Logger, transport ports.ControlTransport, opts Options) *Client {
	log = log.With(slog.String("entity", "ControlClient"), slog.String("contract", opts.ContractNumber))
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Client{
		log:       log,
		transport: transport,
		opts:      opts,
	}
}

func (c *Client) GetFiles(ctx context.Context, since string, filter *models.Filter) (*models.ListResult, error) {
	req := &GetDownloadFileListRequest{
		Xmlns:              c.opts.Namespace,
		ContractNumber:     c.opts.ContractNumber,
		PrevQueryTimestamp: since,
		Filter:             DownloadFilter{ClientAppGuid: c.opts.ClientAppGuid},
	}
	if filter != nil {
		req.Filter.FileTypes = filter.FileTypes
		req.Filter.FileName = filter.FileName
		if filter.CreatedBefore != nil {
			req.Filter.CreatedBefore = filter.CreatedBefore.Format(DateFormat)
		}
		if filter.CreatedAfter != nil {
			req.Filter.CreatedAfter = filter.CreatedAfter.Format(DateFormat)
		}
		if filter.ClientAppGuid != "" {
			req.Filter.ClientAppGuid = filter.ClientAppGuid
		}
	}

	resp := &GetDownloadFileListResponse{}
	if err := c.call(ctx, OpGetDownloadFileList, req, resp); err != nil {
		return nil, err
	}
	if resp.QueryTimestamp == nil {
		return nil, c.responseError(OpGetDownloadFileList, `Missing "QueryTimestamp" in response.`)
	}
	if resp.TicketId == nil {
		return nil, c.responseError(OpGetDownloadFileList, `Missing "TicketId" in response.`)
	}

	result := &models.ListResult{
		QueryTimestamp: *resp.QueryTimestamp,
		TicketID:       *resp.TicketId,
		Files:          make([]*models.File, 0, len(resp.Files)),
	}
	for _, d := range resp.Files {
		result.Files = append(result.Files, c.inboundFile(d))
	}
	c.log.Info("files listed", slog.String("ticket", result.TicketID), slog.Int("count", len(result.Files)))
	return result, nil
}

func (c *Client) inboundFile(d FileDetail) *models.File {
	f := models.NewInboundFile(d.Filename, d.UploadFileHash, vo.FileStatus(d.Status))
	f.Size = types.Size(d.Size)
	f.Type = d.Type
	f.Format = vo.FileFormat(d.Type)
	f.DownloadURL = d.Url
	t, err := time.Parse(time.RFC3339, d.CreationDateTime)
	if err != nil {
		c.log.Warn("invalid file creation time, using current time",
			slog.String("fileName", d.Filename),
			slog.String("creationDateTime", d.CreationDateTime))
		t = c.opts.Clock()
	}
	f.Created = t
	return f
}

// StartUpload registers NEW files.
// Files the bank accepted become UPLOAD_AVAILABLE, files it refused become FAILED,
// files missing in reply stay NEW.
func (c *Client) StartUpload(ctx context.Context, files []*models.File) (*models.RegisterResult, error) {
	if len(files) == 0 {
		return nil, &errors.ValidationError{Field: "files", Msg: "Want to upload files, but no files given.", Err: errors.ErrNoFiles}
	}
	req := &StartUploadFileListRequest{
		Xmlns:          c.opts.Namespace,
		ContractNumber: c.opts.ContractNumber,
		ClientAppGuid:  c.opts.ClientAppGuid,
		Files:          make([]ImportFileDetail, 0, len(files)),
	}
	for _, f := range files {
		if !f.Status().IsNew() {
			return nil, &errors.StateError{FileName: f.Name(), Status: f.Status(), Want: vo.FileIsNew, Msg: "only new file can be registered"}
		}
		req.Files = append(req.Files, ImportFileDetail{
			Filename:            f.Name(),
			Hash:                f.Hash(),
			Size:                int64(f.Size),
			Format:              f.Format.String(),
			Mode:                string(f.Mode),
			SkipCheckDuplicates: true,
			Separator:           f.Separator,
		})
	}

	resp := &StartUploadFileListResponse{}
	if err := c.call(ctx, OpStartUploadFileList, req, resp); err != nil {
		return nil, err
	}

	replies := make(map[models.FileKey]FileUploadDetail, len(resp.Files))
	for _, d := range resp.Files {
		replies[models.FileKey{Name: d.Filename, Hash: d.Hash}] = d
	}

	result := &models.RegisterResult{}
	for _, f := range files {
		d, ok := replies[f.Key()]
		switch {
		case !ok:
			result.Unanswered = append(result.Unanswered, f)
		case d.Status == StatusUploadAvailable && lib.IsURI(d.Url):
			if err := f.Registered(d.Url); err != nil {
				return nil, err
			}
			result.Registered = append(result.Registered, f)
		case d.Status == StatusUploadAvailable:
			c.log.Warn("invalid upload url", slog.String("fileName", f.Name()), slog.String("url", d.Url))
			if err := f.Failed(fmt.Sprintf("invalid upload url %q", d.Url)); err != nil {
				return nil, err
			}
			result.Rejected = append(result.Rejected, f)
		default:
			reason := d.StatusMessage
			if reason == "" {
				reason = d.Status
			}
			if err := f.Failed(reason); err != nil {
				return nil, err
			}
			result.Rejected = append(result.Rejected, f)
		}
	}
	c.log.Info("files registered",
		slog.Int("registered", len(result.Registered)),
		slog.Int("rejected", len(result.Rejected)),
		slog.Int("unanswered", len(result.Unanswered)))
	return result, nil
}

// FinishUpload confirms transferred files.
// Every file must carry an Upload, otherwise no call is made.
func (c *Client) FinishUpload(ctx context.Context, files []*models.File) (*models.Confirmation, error) {
	if len(files) == 0 {
		return nil, errors.ErrNothingToConfirm
	}
	req := &FinishUploadFileListRequest{
		Xmlns:          c.opts.Namespace,
		ContractNumber: c.opts.ContractNumber,
		ClientAppGuid:  c.opts.ClientAppGuid,
		Files:          make([]FileID, 0, len(files)),
	}
	for _, f := range files {
		upload := f.Upload()
		if upload == nil {
			return nil, &errors.StateError{
				FileName: f.Name(),
				Status:   f.Status(),
				Want:     vo.FileIsTransferred,
				Msg:      fmt.Sprintf("Cannot run finish upload. File %q does not contain uploaded file id. Was it really uploaded?", f.Name()),
			}
		}
		req.Files = append(req.Files, FileID{Filename: f.Name(), Hash: f.Hash(), NewFileId: upload.FileID})
	}

	resp := &FinishUploadFileListResponse{}
	if err := c.call(ctx, OpFinishUploadFileList, req, resp); err != nil {
		return nil, err
	}

	confirmation := &models.Confirmation{TicketID: resp.TicketId}
	for _, d := range resp.Files {
		confirmation.Files = append(confirmation.Files, models.ConfirmedFile{
			FileName:      d.Filename,
			Hash:          d.Hash,
			FileID:        d.NewFileId,
			Status:        d.Status,
			StatusMessage: d.StatusMessage,
		})
	}
	c.log.Info("upload finished", slog.String("ticket", confirmation.TicketID), slog.Int("count", len(confirmation.Files)))
	return confirmation, nil
}

func (c *Client) call(ctx context.Context, op string, req, resp interface{}) error {
	err := c.transport.Call(ctx, c.opts.Namespace+"/"+op, req, resp)
	if err == nil {
		return nil
	}
	c.log.Error("call failed", slog.String("op", op), slog.Any("err", err))

	lastResponse := c.transport.LastResponse()
	msg := err.Error()
	var fault *soap.Fault
	if errors.As(err, &fault) {
		msg = fmt.Sprintf("SOAP Fault %s. Request: %s", fault.String, lastResponse)
	}
	return &errors.RequestError{
		Channel:      errors.ControlChannel,
		Op:           op,
		Msg:          msg,
		LastRequest:  c.transport.LastRequest(),
		LastResponse: lastResponse,
		Err:          err,
	}
}

func (c *Client) responseError(op, msg string) error {
	return &errors.ResponseError{Channel: errors.ControlChannel, Op: op, Msg: msg}
}

// Package data implements the data channel over https
package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"slices"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/lib/types"
	"github.com/cloudcopper/bcx/ports"
)

const (
	OpDownload = "download"
	OpUpload   = "upload"
)

var DefaultValidStatuses = []int{http.StatusOK, http.StatusCreated}

type Options struct {
	// ValidStatuses are acceptable application status codes of upload reply
	ValidStatuses []int
	// MaxDownloadSize limits downloaded body, 0 means no limit
	MaxDownloadSize types.Size
}

// Client implements ports.DataChannel
type Client struct {
	log  ports.Logger
	http *http.Client
	opts Options
}

func NewClient(log ports.Logger, httpClient *http.Client, opts Options) *Client {
	log = log.With(slog.String("entity", "DataClient"))
	if len(opts.ValidStatuses) == 0 {
		opts.ValidStatuses = DefaultValidStatuses
	}
	return &Client{
		log:  log,
		http: httpClient,
		opts: opts,
	}
}

func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	if !lib.IsURI(url) {
		return nil, &errors.ValidationError{Field: "url", Value: url, Msg: fmt.Sprintf("Given string %q is not valid url", url)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.requestError(OpDownload, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.requestError(OpDownload, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	limit := int64(c.opts.MaxDownloadSize)
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, c.requestError(OpDownload, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		c.log.Error("download too large", slog.String("url", url), slog.String("limit", c.opts.MaxDownloadSize.String()))
		return nil, &errors.ResponseError{
			Channel:    errors.DataChannel,
			Op:         OpDownload,
			StatusCode: resp.StatusCode,
			Msg:        fmt.Sprintf("body exceeds max download size %v", c.opts.MaxDownloadSize),
			Err:        errors.ErrDownloadTooLarge,
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &errors.RequestError{
			Channel:      errors.DataChannel,
			Op:           OpDownload,
			Msg:          fmt.Sprintf("http status %d", resp.StatusCode),
			LastResponse: lib.Truncate(string(data), 1024),
		}
	}

	c.log.Info("downloaded", slog.String("url", url), slog.String("size", types.Size(len(data)).String()))
	return data, nil
}

// Upload transfers UPLOAD_AVAILABLE file.
// On accepted reply the file becomes TRANSFERRED with bank assigned Upload.
func (c *Client) Upload(ctx context.Context, file *models.File) error {
	if !file.Status().IsUploadAvailable() {
		return &errors.StateError{FileName: file.Name(), Status: file.Status(), Want: vo.FileIsUploadAvailable, Msg: "Given file is not supposed to be uploaded."}
	}
	if !lib.IsURI(file.UploadURL()) {
		return &errors.StateError{FileName: file.Name(), Status: file.Status(), Msg: fmt.Sprintf("File must contain valid upload url. %q given", file.UploadURL())}
	}
	log := c.log.With(slog.String("file", file.Name()))

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name()))
	h.Set("Content-Type", "application/octet-stream")
	part, err := w.CreatePart(h)
	if err != nil {
		return c.requestError(OpUpload, err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return c.requestError(OpUpload, err)
	}
	if err := w.Close(); err != nil {
		return c.requestError(OpUpload, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, file.UploadURL(), body)
	if err != nil {
		return c.requestError(OpUpload, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	log.Debug("uploading", slog.Int("size", len(file.Content)))
	resp, err := c.http.Do(req)
	if err != nil {
		return c.requestError(OpUpload, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.requestError(OpUpload, err)
	}

	env := &envelope{}
	if err := json.Unmarshal(data, env); err != nil {
		return &errors.ResponseError{
			Channel:    errors.DataChannel,
			Op:         OpUpload,
			StatusCode: resp.StatusCode,
			Msg:        fmt.Sprintf("Unable to decode contents: %s", lib.Truncate(string(data), 1024)),
		}
	}
	appCode := env.Status.Int()
	if !slices.Contains(c.opts.ValidStatuses, appCode) {
		return &errors.ResponseError{
			Channel:    errors.DataChannel,
			Op:         OpUpload,
			StatusCode: resp.StatusCode,
			AppCode:    appCode,
			Msg: fmt.Sprintf(`Server replied with "%d" statusCode, "%d" applicationCode. Message: "%s"`,
				resp.StatusCode, appCode, env.message()),
		}
	}
	if env.NewFileID == nil || *env.NewFileID == "" {
		return c.responseError(OpUpload, resp.StatusCode, appCode, `Upload response does not contain "NewFileId" field.`)
	}
	if env.NewFileName == nil || *env.NewFileName == "" {
		return c.responseError(OpUpload, resp.StatusCode, appCode, `Upload response does not contain "NewFileName" field.`)
	}

	upload := models.Upload{FileID: string(*env.NewFileID), FileName: string(*env.NewFileName)}
	if err := file.Transferred(upload); err != nil {
		return err
	}
	log.Info("uploaded", slog.String("fileID", upload.FileID), slog.String("bankName", upload.FileName))
	return nil
}

func (c *Client) requestError(op string, err error) error {
	c.log.Error("request failed", slog.String("op", op), slog.Any("err", err))
	return &errors.RequestError{Channel: errors.DataChannel, Op: op, Msg: err.Error(), Err: err}
}

func (c *Client) responseError(op string, status, app int, msg string) error {
	return &errors.ResponseError{Channel: errors.DataChannel, Op: op, StatusCode: status, AppCode: app, Msg: msg}
}

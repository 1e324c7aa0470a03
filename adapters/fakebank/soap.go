package fakebank

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/cloudcopper/bcx/adapters/control"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/infra/soap"
	"github.com/oklog/ulid/v2"
)

// queryTimestampFormat keeps sub-second precision
const queryTimestampFormat = time.RFC3339Nano

// Soap handles control channel operations selected by SOAPAction header
func (b *Bank) Soap(w http.ResponseWriter, r *http.Request) {
	op := path.Base(strings.Trim(r.Header.Get("SOAPAction"), `"`))
	log := b.log.With(slog.String("op", op))

	var resp interface{}
	var err error
	switch op {
	case control.OpGetDownloadFileList:
		req := control.GetDownloadFileListRequest{}
		if err = soap.ReadEnvelope(r.Body, &req); err == nil {
			resp, err = b.getDownloadFileList(&req)
		}
	case control.OpStartUploadFileList:
		req := control.StartUploadFileListRequest{}
		if err = soap.ReadEnvelope(r.Body, &req); err == nil {
			resp, err = b.startUploadFileList(&req)
		}
	case control.OpFinishUploadFileList:
		req := control.FinishUploadFileListRequest{}
		if err = soap.ReadEnvelope(r.Body, &req); err == nil {
			resp, err = b.finishUploadFileList(&req)
		}
	default:
		err = fmt.Errorf("unknown operation %q", op)
	}

	buf := &bytes.Buffer{}
	status := http.StatusOK
	if err != nil {
		log.Warn("fault", slog.Any("err", err))
		status = http.StatusInternalServerError
		soap.WriteFault(buf, "soap:Client", err.Error())
	} else if err := soap.WriteEnvelope(buf, resp); err != nil {
		log.Error("unable to write envelope", slog.Any("err", err))
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Warn("unable to write reply", slog.Any("err", err))
	}
}

func (b *Bank) checkContract(contract string) error {
	if b.opts.ContractNumber != "" && contract != b.opts.ContractNumber {
		return fmt.Errorf("unknown contract %q", contract)
	}
	return nil
}

func (b *Bank) getDownloadFileList(req *control.GetDownloadFileListRequest) (*control.GetDownloadFileListResponse, error) {
	if err := b.checkContract(req.ContractNumber); err != nil {
		return nil, err
	}
	var since, before, after time.Time
	var err error
	if req.PrevQueryTimestamp != "" {
		if since, err = time.Parse(queryTimestampFormat, req.PrevQueryTimestamp); err != nil {
			return nil, fmt.Errorf("invalid PrevQueryTimestamp: %w", err)
		}
	}
	if req.Filter.CreatedBefore != "" {
		if before, err = time.Parse(control.DateFormat, req.Filter.CreatedBefore); err != nil {
			return nil, fmt.Errorf("invalid CreatedBefore: %w", err)
		}
	}
	if req.Filter.CreatedAfter != "" {
		if after, err = time.Parse(control.DateFormat, req.Filter.CreatedAfter); err != nil {
			return nil, fmt.Errorf("invalid CreatedAfter: %w", err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.opts.Clock().UTC().Format(queryTimestampFormat)
	ticket := newTicketID()
	resp := &control.GetDownloadFileListResponse{
		QueryTimestamp: &now,
		TicketId:       &ticket,
	}
	for _, f := range b.inbound {
		switch {
		case !since.IsZero() && !f.created.After(since):
			continue
		case !before.IsZero() && !f.created.Before(before):
			continue
		case !after.IsZero() && !f.created.After(after):
			continue
		case len(req.Filter.FileTypes) > 0 && !slices.Contains(req.Filter.FileTypes, f.fileType):
			continue
		case req.Filter.FileName != "" && !strings.Contains(f.name, req.Filter.FileName):
			continue
		}
		resp.Files = append(resp.Files, control.FileDetail{
			Filename:         f.name,
			UploadFileHash:   models.ContentHash(f.content),
			Size:             int64(len(f.content)),
			CreationDateTime: f.created.Format(time.RFC3339),
			Type:             f.fileType,
			Status:           StatusDownloadable,
			Url:              b.opts.BaseURL + DownloadPath + "/" + f.id,
		})
	}
	b.log.Info("files listed", slog.Int("count", len(resp.Files)), slog.String("ticket", ticket))
	return resp, nil
}

func (b *Bank) startUploadFileList(req *control.StartUploadFileListRequest) (*control.StartUploadFileListResponse, error) {
	if err := b.checkContract(req.ContractNumber); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	resp := &control.StartUploadFileListResponse{}
	for _, d := range req.Files {
		detail := control.FileUploadDetail{Filename: d.Filename, Hash: d.Hash}
		key := models.FileKey{Name: d.Filename, Hash: d.Hash}
		switch {
		case !b.acceptsFormat(d.Format):
			detail.Status, detail.StatusMessage = StatusRejected, fmt.Sprintf("Unsupported format %q", d.Format)
		case b.byKey[key] != nil && b.byKey[key].status == StatusConfirmed && !d.SkipCheckDuplicates:
			detail.Status, detail.StatusMessage = StatusRejected, "Duplicate file"
		default:
			slot := &uploadSlot{
				token:  ulid.Make().String(),
				name:   d.Filename,
				hash:   d.Hash,
				format: d.Format,
				size:   d.Size,
				status: control.StatusUploadAvailable,
			}
			b.slots[slot.token] = slot
			b.byKey[key] = slot
			detail.Status = control.StatusUploadAvailable
			detail.Url = b.opts.BaseURL + UploadPath + "/" + slot.token
		}
		resp.Files = append(resp.Files, detail)
	}
	return resp, nil
}

func (b *Bank) finishUploadFileList(req *control.FinishUploadFileListRequest) (*control.FinishUploadFileListResponse, error) {
	if err := b.checkContract(req.ContractNumber); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	resp := &control.FinishUploadFileListResponse{TicketId: newTicketID()}
	for _, d := range req.Files {
		detail := control.FinishedFileDetail{Filename: d.Filename, Hash: d.Hash, NewFileId: d.NewFileId}
		slot := b.byKey[models.FileKey{Name: d.Filename, Hash: d.Hash}]
		switch {
		case slot == nil:
			detail.Status, detail.StatusMessage = StatusError, "Unknown file"
		case slot.fileID == "" || slot.fileID != d.NewFileId:
			detail.Status, detail.StatusMessage = StatusError, "File was not transferred"
		default:
			slot.status = StatusConfirmed
			delete(b.slots, slot.token)
			detail.Status = StatusConfirmed
		}
		resp.Files = append(resp.Files, detail)
	}

	// import protocol of the confirmed batch
	protocol, err := xml.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, err
	}
	b.addInbound(fmt.Sprintf("IMPROT_%s.xml", resp.TicketId), "IMPROT", append([]byte(xml.Header), protocol...))
	return resp, nil
}

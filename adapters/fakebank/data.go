package fakebank

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cloudcopper/bcx/adapters/control"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
)

const maxUploadSize = 32 << 20

type uploadReply struct {
	Status        int    `json:"status"`
	StatusMessage string `json:"statusMessage,omitempty"`
	NewFileID     string `json:"newFileId,omitempty"`
	NewFileName   string `json:"newFileName,omitempty"`
}

// Download returns content of inbound file
func (b *Bank) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fileID")
	b.mu.Lock()
	var content []byte
	for _, f := range b.inbound {
		if f.id == id {
			content = f.content
			break
		}
	}
	b.mu.Unlock()

	if content == nil {
		b.render.Text(w, http.StatusNotFound, "Not found")
		return
	}
	b.render.Data(w, http.StatusOK, content)
}

// Upload receives single part multipart body of registered file.
// Application errors are reported in json body with http status 200.
func (b *Bank) Upload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	log := b.log.With(slog.String("token", token))

	mr, err := r.MultipartReader()
	if err != nil {
		b.render.JSON(w, http.StatusOK, uploadReply{Status: http.StatusBadRequest, StatusMessage: err.Error()})
		return
	}
	part, err := mr.NextPart()
	if err != nil {
		b.render.JSON(w, http.StatusOK, uploadReply{Status: http.StatusBadRequest, StatusMessage: "No file part"})
		return
	}
	content, err := io.ReadAll(io.LimitReader(part, maxUploadSize))
	if err != nil {
		b.render.JSON(w, http.StatusOK, uploadReply{Status: http.StatusBadRequest, StatusMessage: err.Error()})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	slot := b.slots[token]
	switch {
	case slot == nil:
		b.render.JSON(w, http.StatusNotFound, uploadReply{Status: http.StatusNotFound, StatusMessage: "Unknown upload url"})
		return
	case slot.status != control.StatusUploadAvailable:
		b.render.JSON(w, http.StatusOK, uploadReply{Status: http.StatusConflict, StatusMessage: "File already transferred"})
		return
	case part.FileName() != slot.name:
		b.render.JSON(w, http.StatusOK, uploadReply{Status: http.StatusBadRequest, StatusMessage: fmt.Sprintf("Expected file %q", slot.name)})
		return
	case models.ContentHash(content) != slot.hash:
		b.render.JSON(w, http.StatusOK, uploadReply{Status: http.StatusUnprocessableEntity, StatusMessage: "Hash mismatch"})
		return
	}

	slot.fileID = ulid.Make().String()
	slot.bankName = slot.fileID + "_" + slot.name
	slot.status = "TRANSFERRED"
	slot.content = content
	log.Info("file transferred", slog.String("fileName", slot.name), slog.String("fileId", slot.fileID), slog.Int("size", len(content)))
	b.render.JSON(w, http.StatusOK, uploadReply{Status: http.StatusCreated, NewFileID: slot.fileID, NewFileName: slot.bankName})
}

package codec

import (
	"encoding/xml"
	"io"
	"log/slog"
	"strings"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/ports"
)

type importFileDetail struct {
	Filename        string `xml:"Filename"`
	Hash            string `xml:"Hash"`
	NewFileId       string `xml:"NewFileId"`
	FileId          string `xml:"FileId"`
	Status          string `xml:"Status"`
	StatusMessage   string `xml:"StatusMessage"`
	RecordsTotal    int    `xml:"RecordsTotal"`
	RecordsAccepted int    `xml:"RecordsAccepted"`
	RecordsRejected int    `xml:"RecordsRejected"`
	Errors          []struct {
		Record  int    `xml:"Record"`
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	} `xml:"Errors>Error"`
}

// ImportProtocolReader parses bank acknowledgement of uploaded files.
// FileDetail elements are collected under any root, so a stored protocol
// and a raw finish upload reply both parse.
type ImportProtocolReader struct {
	log ports.Logger
}

func NewImportProtocolReader(log ports.Logger) *ImportProtocolReader {
	log = log.With(slog.String("entity", "ImportProtocolReader"))
	return &ImportProtocolReader{log: log}
}

func (r *ImportProtocolReader) Read(data []byte) (models.Document, error) {
	protocol := &models.ImportProtocol{}
	dec := newXMLDecoder(data)
	found, elements := false, 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return nil, &errors.ParseError{Format: vo.FormatImportProtocol, Line: line, Msg: "invalid xml", Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		elements++
		switch se.Name.Local {
		case "TicketId":
			var s string
			if err := dec.DecodeElement(&s, &se); err != nil {
				return nil, r.elementError(dec, err)
			}
			protocol.TicketID = strings.TrimSpace(s)
			found = true
		case "FileDetail":
			d := importFileDetail{}
			if err := dec.DecodeElement(&d, &se); err != nil {
				return nil, r.elementError(dec, err)
			}
			protocol.Files = append(protocol.Files, importedFile(d))
			found = true
		}
	}
	if elements == 0 {
		return nil, &errors.ParseError{Format: vo.FormatImportProtocol, Msg: "empty document"}
	}
	if !found {
		return nil, &errors.ParseError{Format: vo.FormatImportProtocol, Msg: "neither TicketId nor FileDetail found"}
	}
	r.log.Debug("protocol parsed", slog.String("ticket", protocol.TicketID), slog.Int("files", len(protocol.Files)))
	return protocol, nil
}

func (r *ImportProtocolReader) elementError(dec *xml.Decoder, err error) error {
	line, _ := dec.InputPos()
	return &errors.ParseError{Format: vo.FormatImportProtocol, Line: line, Msg: "invalid element", Err: err}
}

func importedFile(d importFileDetail) models.ImportedFile {
	f := models.ImportedFile{
		FileName:        strings.TrimSpace(d.Filename),
		Hash:            strings.TrimSpace(d.Hash),
		FileID:          strings.TrimSpace(d.NewFileId),
		Status:          strings.TrimSpace(d.Status),
		StatusMessage:   strings.TrimSpace(d.StatusMessage),
		RecordsTotal:    d.RecordsTotal,
		RecordsAccepted: d.RecordsAccepted,
		RecordsRejected: d.RecordsRejected,
	}
	if f.FileID == "" {
		f.FileID = strings.TrimSpace(d.FileId)
	}
	for _, e := range d.Errors {
		f.Errors = append(f.Errors, models.ImportError{Record: e.Record, Code: e.Code, Message: e.Message})
	}
	return f
}

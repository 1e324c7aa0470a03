package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/cloudcopper/bcx"
	"github.com/cloudcopper/bcx/adapters/archive"
	"github.com/cloudcopper/bcx/adapters/codec"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
	"github.com/cloudcopper/bcx/infra/config"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

type FilterArgs struct {
	Since  string    `arg:"--since" help:"query timestamp returned by previous list"`
	Types  []string  `arg:"--type,separate" help:"file type, may repeat"`
	Name   string    `arg:"--name" help:"part of file name"`
	After  time.Time `arg:"--after" help:"created after (RFC3339)"`
	Before time.Time `arg:"--before" help:"created before (RFC3339)"`
}

func (a *FilterArgs) filter() *models.Filter {
	f := &models.Filter{FileTypes: a.Types, FileName: a.Name}
	if !a.After.IsZero() {
		f.CreatedAfter = &a.After
	}
	if !a.Before.IsZero() {
		f.CreatedBefore = &a.Before
	}
	return f
}

type ListCmd struct {
	FilterArgs
}

func (c *ListCmd) Run(ctx context.Context, app *bcx.App) error {
	res, err := app.Client.ListFiles(ctx, c.Since, c.filter())
	if err != nil {
		return lib.NewErrorCode(err, errors.RetListFilesError)
	}
	printFiles(res)
	return nil
}

type DownloadCmd struct {
	FilterArgs
	Dir string `arg:"--dir" help:"archive directory, overrides configured archive"`
}

func (c *DownloadCmd) Run(ctx context.Context, log *slog.Logger, app *bcx.App) error {
	var store ports.Archive = app.Archive
	if c.Dir != "" {
		dir, err := filepath.Abs(c.Dir)
		if err != nil {
			return lib.NewErrorCode(err, errors.RetArgumentsError)
		}
		if store, err = archive.NewFSArchive(log, afero.NewOsFs(), dir); err != nil {
			return lib.NewErrorCode(err, errors.RetCreateArchiveError)
		}
	}
	if store == nil {
		err := &errors.ConfigError{Key: "archive", Msg: "required for download, see --dir"}
		return lib.NewErrorCode(err, errors.RetCreateArchiveError)
	}

	res, err := app.Client.Fetch(ctx, c.Since, c.filter(), store)
	if res != nil {
		printFiles(res)
	}
	if err != nil {
		return lib.NewErrorCode(err, errors.RetDownloadError)
	}
	return nil
}

type UploadCmd struct {
	Format string   `arg:"--format" help:"format of all files, guessed from file name if empty"`
	Files  []string `arg:"positional,required" help:"batch files"`
}

func (c *UploadCmd) Run(ctx context.Context, log *slog.Logger, app *bcx.App, cfg *config.Config) error {
	patterns := codec.DefaultOutboundPatterns
	if len(cfg.Outbox.Patterns) > 0 {
		patterns = nil
		for _, p := range cfg.Outbox.Patterns {
			patterns = append(patterns, codec.OutboundPattern{Pattern: p.Pattern, Format: vo.FileFormat(p.Format)})
		}
	}

	fs := afero.NewOsFs()
	files := make([]*models.File, 0, len(c.Files))
	for _, path := range c.Files {
		format, ok := vo.FileFormat(c.Format), c.Format != ""
		if !ok {
			format, ok = codec.OutboundFormat(patterns, path)
		}
		if !ok {
			err := &errors.ValidationError{Field: "format", Value: path, Msg: "unable to guess format, see --format"}
			return lib.NewErrorCode(err, errors.RetArgumentsError)
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return lib.NewErrorCode(err, errors.RetArgumentsError)
		}
		f := models.NewFileFromContent(filepath.Base(path), format, data)
		f.Separator = codec.Separator(format)
		f.Path = path
		files = append(files, f)
	}

	confirmation, err := app.Client.Upload(ctx, files)
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tSTATUS\tBANK ID\tREASON")
	failed := 0
	for _, f := range files {
		id := ""
		if u := f.Upload(); u != nil {
			id = u.FileID
		}
		if !f.Status().IsConfirmed() {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.Name(), f.Status(), id, f.Reason())
	}
	w.Flush()
	if confirmation != nil {
		log.Info("upload confirmed", slog.String("ticket", confirmation.TicketID))
	}
	if err != nil {
		return lib.NewErrorCode(err, errors.RetUploadError)
	}
	if failed > 0 {
		return lib.NewErrorCode(fmt.Errorf("%d of %d files not confirmed", failed, len(files)), errors.RetUploadError)
	}
	return nil
}

type GenerateCmd struct {
	Format string `arg:"--format" default:"SEPA_XML" help:"TXT_TPS, MT101 or SEPA_XML"`
	Rail   string `arg:"--rail" default:"sepa" help:"default rail of sheet rows: inland, foreign or sepa"`
	Name   string `arg:"--name" help:"base name of generated file"`
	Upload bool   `arg:"--upload" help:"upload generated file"`
	Sheet  string `arg:"positional,required" help:"payment sheet (csv or xlsx)"`
}

func (c *GenerateCmd) Run(ctx context.Context, log *slog.Logger, app *bcx.App) error {
	rail := vo.Rail(c.Rail)
	if !rail.IsValid() {
		err := &errors.ValidationError{Field: "rail", Value: c.Rail, Msg: "unknown rail"}
		return lib.NewErrorCode(err, errors.RetArgumentsError)
	}
	data, err := afero.ReadFile(afero.NewOsFs(), c.Sheet)
	if err != nil {
		return lib.NewErrorCode(err, errors.RetArgumentsError)
	}
	payments, err := codec.DecodePayments(data, rail)
	if err != nil {
		return lib.NewErrorCode(err, errors.RetGenerateError)
	}
	f, err := app.Client.Generate(vo.FileFormat(c.Format), payments, c.Name, rail)
	if err != nil {
		return lib.NewErrorCode(err, errors.RetGenerateError)
	}
	log.Info("generated", slog.String("path", f.Path), slog.Int("payments", len(payments)), slog.String("total", payments.Total().String()))
	fmt.Println(f.Path)
	if !c.Upload {
		return nil
	}

	if _, err := app.Client.Upload(ctx, []*models.File{f}); err != nil {
		return lib.NewErrorCode(err, errors.RetUploadError)
	}
	if !f.Status().IsConfirmed() {
		return lib.NewErrorCode(fmt.Errorf("file %q is %v: %v", f.Name(), f.Status(), f.Reason()), errors.RetUploadError)
	}
	return nil
}

type ReadCmd struct {
	Format string `arg:"--format" help:"MT942, XML_CSOB or IMPROT, guessed from file name if empty"`
	File   string `arg:"positional,required" help:"inbound bank file"`
}

func (c *ReadCmd) Run(log *slog.Logger) error {
	fs := afero.NewOsFs()
	data, err := afero.ReadFile(fs, c.File)
	if err != nil {
		return lib.NewErrorCode(err, errors.RetArgumentsError)
	}
	registry := codec.NewDefaultRegistry(log, fs, codec.Options{TmpDir: config.TmpDir, Clock: time.Now})
	format, ok := vo.FileFormat(c.Format), c.Format != ""
	if !ok {
		format, ok = registry.Detect(c.File)
	}
	if !ok {
		err := &errors.ValidationError{Field: "format", Value: c.File, Msg: "unable to guess format, see --format"}
		return lib.NewErrorCode(err, errors.RetArgumentsError)
	}
	reader, err := registry.Reader(format)
	if err != nil {
		return lib.NewErrorCode(err, errors.RetArgumentsError)
	}
	doc, err := reader.Read(data)
	if err != nil {
		return lib.NewErrorCode(err, errors.RetReadError)
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(doc)
}

type JournalCmd struct {
	Status string `arg:"--status" help:"only files of given status"`
	Limit  int    `arg:"--limit" default:"100"`
}

func (c *JournalCmd) Run(app *bcx.App) error {
	var recs []*models.FileRecord
	var err error
	if c.Status != "" {
		recs, err = app.FileRepository.FindAllByStatus(vo.FileStatus(c.Status), ports.Limit(c.Limit))
	} else {
		recs, err = app.FileRepository.FindAll(ports.Limit(c.Limit))
	}
	if err != nil {
		return lib.NewErrorCode(err, errors.RetJournalError)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tFORMAT\tSTATUS\tBANK ID\tUPDATED\tREASON")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.FileName, r.Format, r.Status, r.BankFileID,
			time.Unix(r.UpdatedAt, 0).Format(time.DateTime), r.Reason)
	}
	return w.Flush()
}

type WatchCmd struct {
	Dir string `arg:"--dir" help:"outbox directory, overrides configured one"`
}

func printFiles(res *models.ListResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tTYPE\tSIZE\tCREATED\tSTATUS")
	for _, f := range res.Files {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.Name(), f.Type, f.Size, f.Created.Format(time.DateTime), f.Status())
	}
	w.Flush()
	slog.Info("files listed", slog.String("queryTimestamp", res.QueryTimestamp), slog.String("ticket", res.TicketID))
}

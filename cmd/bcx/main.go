package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/cloudcopper/bcx"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/infra/config"
	"github.com/cloudcopper/bcx/lib"
	"github.com/spf13/afero"
)

const (
	retNoErrorCode      = 0
	retGenericErrorCode = 1
)

type args struct {
	Config   string       `arg:"-c,--config,env:BCX_CONFIG" help:"config file name"`
	Debug    bool         `arg:"-d,--debug" help:"debug logging"`
	List     *ListCmd     `arg:"subcommand:list" help:"list downloadable files"`
	Download *DownloadCmd `arg:"subcommand:download" help:"download listed files to archive"`
	Upload   *UploadCmd   `arg:"subcommand:upload" help:"upload batch files"`
	Generate *GenerateCmd `arg:"subcommand:generate" help:"generate batch file from payment sheet"`
	Read     *ReadCmd     `arg:"subcommand:read" help:"parse inbound bank file"`
	Watch    *WatchCmd    `arg:"subcommand:watch" help:"upload files dropped to outbox"`
	Journal  *JournalCmd  `arg:"subcommand:journal" help:"show recorded file states"`
}

func (args) Description() string {
	return "bcx exchanges batch files with the bank business connector\n"
}

func main() {
	a := args{Config: config.ConfigFileName}
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}
	if a.Debug {
		setDefaultLogger(slog.LevelDebug)
	}

	//
	// Create logger
	//
	log := slog.Default()
	log.Debug("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, log, &a)
	stop()

	code := retNoErrorCode
	if err != nil {
		code = retGenericErrorCode
		if i, ok := err.(lib.ErrorCode); ok {
			code = i.Code()
		}
		log.Error("exit", slog.Int("code", code), slog.Any("err", err))
	} else {
		log.Debug("exit")
	}

	os.Exit(code)
}

func run(ctx context.Context, log *slog.Logger, a *args) error {
	// Read works without config
	if a.Read != nil {
		return a.Read.Run(log)
	}

	cfg, err := config.LoadConfig(log, afero.NewOsFs(), a.Config)
	if err != nil {
		log.Error("unable to load config", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetLoadConfigError)
	}

	if a.Watch != nil && a.Watch.Dir != "" {
		dir, err := filepath.Abs(a.Watch.Dir)
		if err != nil {
			return lib.NewErrorCode(err, errors.RetArgumentsError)
		}
		cfg.Outbox.Dir = dir
	}

	app, err := bcx.NewApp(log, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	switch {
	case a.List != nil:
		return a.List.Run(ctx, app)
	case a.Download != nil:
		return a.Download.Run(ctx, log, app)
	case a.Upload != nil:
		return a.Upload.Run(ctx, log, app, cfg)
	case a.Generate != nil:
		return a.Generate.Run(ctx, log, app)
	case a.Watch != nil:
		return app.Watch(ctx)
	case a.Journal != nil:
		return a.Journal.Run(app)
	}
	return nil
}

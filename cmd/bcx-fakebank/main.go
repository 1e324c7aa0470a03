package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/cloudcopper/bcx/adapters/fakebank"
	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/infra"
	"github.com/cloudcopper/bcx/infra/config"
	"github.com/cloudcopper/bcx/lib"
)

const (
	retNoErrorCode      = 0
	retGenericErrorCode = 1
)

type args struct {
	Listen   string        `arg:"-l,--listen" help:"web server listen address"`
	BaseURL  string        `arg:"--base-url" help:"prefix of download and upload links, http://<listen> if empty"`
	Contract string        `arg:"--contract" help:"accepted contract number, any if empty"`
	Seed     int           `arg:"--seed" default:"5" help:"random inbound files at start"`
	Every    time.Duration `arg:"--every" help:"add random inbound file periodically"`
	Debug    bool          `arg:"-d,--debug" help:"debug logging"`
}

func (args) Description() string {
	return "bcx-fakebank serves control and data channels of a fake bank\n"
}

func main() {
	a := args{Listen: config.Listen}
	arg.MustParse(&a)
	if a.Debug {
		setDefaultLogger(slog.LevelDebug)
	}

	//
	// Create logger
	//
	log := slog.Default()
	log.Info("starting")

	code := retNoErrorCode
	if err := run(log, &a); err != nil {
		code = retGenericErrorCode
		if i, ok := err.(lib.ErrorCode); ok {
			code = i.Code()
		}
		log.Error("exit", slog.Int("code", code), slog.Any("err", err))
	} else {
		log.Info("exit")
	}

	os.Exit(code)
}

func run(log *slog.Logger, a *args) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bank := fakebank.NewBank(log, fakebank.Options{
		BaseURL:        a.BaseURL,
		ContractNumber: a.Contract,
	})
	web, err := infra.NewWebServer(log, a.Listen, fakebank.NewRouter(log, bank))
	if err != nil {
		log.Error("unable to create web server", slog.Any("err", err))
		return lib.NewErrorCode(err, errors.RetCreateWebServerError)
	}
	defer web.Close()
	if a.BaseURL == "" {
		bank.SetBaseURL("http://" + web.Addr().String())
	}
	bank.Seed(a.Seed)

	var tick <-chan time.Time
	if a.Every > 0 {
		ticker := time.NewTicker(a.Every)
		defer ticker.Stop()
		tick = ticker.C
	}

	log.Info("press ctrl-c to exit", slog.String("api", "http://"+web.Addr().String()+fakebank.ApiPath))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			bank.Seed(1)
		}
	}
}

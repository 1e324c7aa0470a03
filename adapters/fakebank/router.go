package fakebank

import (
	"os"
	"time"

	"github.com/cloudcopper/bcx/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	slogchi "github.com/samber/slog-chi"
)

// NewRouter returns router serving both channels of the bank
func NewRouter(log ports.Logger, bank *Bank) ports.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(slogchi.New(log))
	r.Use(middleware.Recoverer)
	if os.Getenv("GO_ENV") != "development" {
		r.Use(middleware.Timeout(30 * time.Second))
	}

	r.Post(ApiPath, bank.Soap)
	r.Get(DownloadPath+"/{fileID}", bank.Download)
	r.Post(UploadPath+"/{token}", bank.Upload)
	return r
}

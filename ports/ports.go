package ports

import (
	"log/slog"
	"time"

	"github.com/spf13/afero"
)

type Logger = *slog.Logger
type FS = afero.Fs
type File = afero.File

// Clock returns current time. Injected wherever output embeds time.
type Clock func() time.Time

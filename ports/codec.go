package ports

import (
	"github.com/cloudcopper/bcx/domain/models"
	"github.com/cloudcopper/bcx/domain/vo"
)

// Generator turns payments to an outbound batch file
type Generator interface {
	// Generate writes artifact and returns NEW file.
	// Empty name means default artifact name.
	Generate(payments models.Payments, name string, rail vo.Rail) (*models.File, error)
}

// Reader parses an inbound bank file
type Reader interface {
	Read(data []byte) (models.Document, error)
}

// CodecRegistry resolves codecs by format
type CodecRegistry interface {
	Generator(format vo.FileFormat) (Generator, error)
	Reader(format vo.FileFormat) (Reader, error)
}

package ports

import (
	"context"

	"github.com/cloudcopper/bcx/domain/models"
)

// ControlChannel is metadata and coordination transport
type ControlChannel interface {
	// GetFiles lists files ready for download.
	// The since is QueryTimestamp of previous query or empty.
	GetFiles(ctx context.Context, since string, filter *models.Filter) (*models.ListResult, error)
	// StartUpload registers NEW files. Accepted files become UPLOAD_AVAILABLE.
	StartUpload(ctx context.Context, files []*models.File) (*models.RegisterResult, error)
	// FinishUpload confirms transferred files
	FinishUpload(ctx context.Context, files []*models.File) (*models.Confirmation, error)
}

// DataChannel is bulk byte transport
type DataChannel interface {
	Download(ctx context.Context, url string) ([]byte, error)
	// Upload transfers UPLOAD_AVAILABLE file. On success file becomes TRANSFERRED.
	Upload(ctx context.Context, file *models.File) error
}

// ControlTransport performs single remote procedure call.
// The req and resp are xml serializable structures of the call body.
type ControlTransport interface {
	Call(ctx context.Context, action string, req interface{}, resp interface{}) error
	LastRequest() string
	LastResponse() string
}

package ports

import "context"

// Archive keeps downloaded bank files
type Archive interface {
	Store(ctx context.Context, name string, data []byte) error
	Exists(ctx context.Context, name string) (bool, error)
}

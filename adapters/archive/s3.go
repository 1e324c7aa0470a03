package archive

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"path"

	"github.com/cloudcopper/bcx/domain/errors"
	"github.com/cloudcopper/bcx/lib"
	"github.com/cloudcopper/bcx/ports"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Options struct {
	Endpoint  string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	Region    string
	Secure    bool
}

// S3Archive stores files to s3 compatible object storage
type S3Archive struct {
	log    ports.Logger
	client *minio.Client
	bucket string
	prefix string
}

func NewS3Archive(log ports.Logger, opts S3Options) (*S3Archive, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.Secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, &errors.ConfigError{Key: "archive.s3", Msg: err.Error(), Err: err}
	}
	log = log.With(slog.String("entity", "S3Archive"), slog.String("bucket", opts.Bucket))
	return &S3Archive{
		log:    log,
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}, nil
}

func (a *S3Archive) key(name string) string {
	return path.Join(a.prefix, name)
}

func (a *S3Archive) Store(ctx context.Context, name string, data []byte) error {
	if !lib.IsSecureFileName(name) {
		return &errors.ValidationError{Field: "name", Value: name, Msg: "unsecure file name", Err: errors.ErrUnsecureFileName}
	}
	_, err := a.client.PutObject(ctx, a.bucket, a.key(name), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		a.log.Error("unable to store", slog.String("name", name), slog.Any("err", err))
		return err
	}
	a.log.Debug("stored", slog.String("name", name), slog.Int("size", len(data)))
	return nil
}

func (a *S3Archive) Exists(ctx context.Context, name string) (bool, error) {
	if !lib.IsSecureFileName(name) {
		return false, &errors.ValidationError{Field: "name", Value: name, Msg: "unsecure file name", Err: errors.ErrUnsecureFileName}
	}
	_, err := a.client.StatObject(ctx, a.bucket, a.key(name), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, err
}

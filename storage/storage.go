package storage

import (
	"context"
	"errors"
	"io"
)

/*
Storage providers supply log bytes to the decoder. The decoder itself only
ever sees an io.Reader; providers exist so the CLI can pull logs from local
directories or S3-compatible object storage through one interface.
*/

////////////////////////////////////////////////////////////////////////////////

var ErrObjectNotFound = errors.New("object not found")

type Provider interface {
	Put(ctx context.Context, id string, data []byte) error
	Get(ctx context.Context, id string) (io.ReadCloser, error)
	Delete(ctx context.Context, id string) error
}

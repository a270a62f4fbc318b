package parsem

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"gocloud.dev/blob"

	"github.com/parsem/go-client/pkg/parsem/upload/abs"
	"github.com/parsem/go-client/pkg/parsem/upload/gcs"
	"github.com/parsem/go-client/pkg/parsem/upload/s3"
)

type uploadConfig struct {
	transport http.RoundTripper
}

type UploadOption func(c *uploadConfig)

func WithUploadTransport(transport http.RoundTripper) UploadOption {
	return func(c *uploadConfig) {
		c.transport = transport
	}
}

// NewUploadWriter instantiates a Writer to the staging storage given by the cloud provider specified in the File resource.
func NewUploadWriter(ctx context.Context, file *FileUploadCredentials, opts ...UploadOption) (*blob.Writer, error) {
	c := uploadConfig{}
	for _, opt := range opts {
		opt(&c)
	}
	switch file.Provider {
	case abs.Provider:
		return abs.NewUploadWriter(ctx, file.ABSUploadParams, c.transport)
	case gcs.Provider:
		return gcs.NewUploadWriter(ctx, file.GCSUploadParams, c.transport)
	case s3.Provider:
		return s3.NewUploadWriter(ctx, file.S3UploadParams, file.Region, c.transport)
	default:
		return nil, fmt.Errorf(`unsupported provider "%s"`, file.Provider)
	}
}

// Upload writes the content of the reader to the staging storage of the File resource.
func Upload(ctx context.Context, file *FileUploadCredentials, fr io.Reader, opts ...UploadOption) (written int64, err error) {
	bw, err := NewUploadWriter(ctx, file, opts...)
	if err != nil {
		return 0, fmt.Errorf("cannot open bucket writer: %w", err)
	}

	defer func() {
		if closeErr := bw.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("cannot close bucket writer: %w", closeErr)
		}
	}()

	return io.Copy(bw, fr)
}

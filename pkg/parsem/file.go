package parsem

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/relvacode/iso8601"

	"github.com/parsem/go-client/pkg/parsem/upload/abs"
	"github.com/parsem/go-client/pkg/parsem/upload/gcs"
	"github.com/parsem/go-client/pkg/parsem/upload/s3"
	"github.com/parsem/go-client/pkg/request"
)

// FileID is an ID of a file uploaded to the staging storage.
type FileID string

func (v FileID) String() string {
	return string(v)
}

// File is a resume file uploaded to the staging storage, input for a parse job.
type File struct {
	ID          FileID       `json:"id" readonly:"true"`
	Name        string       `json:"name"`
	ContentType string       `json:"contentType,omitempty"`
	SizeBytes   uint64       `json:"sizeBytes,omitempty"`
	Provider    string       `json:"provider" readonly:"true"`
	Region      string       `json:"region" readonly:"true"`
	CreatedAt   iso8601.Time `json:"createdAt" readonly:"true"`
}

// FileUploadCredentials contains the File resource and temporary credentials
// for the staging storage of the cloud provider specified in the File.Provider field.
type FileUploadCredentials struct {
	File
	ABSUploadParams *abs.UploadParams `json:"absUploadParams,omitempty"`
	GCSUploadParams *gcs.UploadParams `json:"gcsUploadParams,omitempty"`
	S3UploadParams  *s3.UploadParams  `json:"s3UploadParams,omitempty"`
}

type createFileConfig struct {
	name        string
	contentType string
	sizeBytes   uint64
}

type CreateFileOption func(c *createFileConfig)

func WithContentType(v string) CreateFileOption {
	return func(c *createFileConfig) {
		c.contentType = v
	}
}

func WithSizeBytes(v uint64) CreateFileOption {
	return func(c *createFileConfig) {
		c.sizeBytes = v
	}
}

// CreateFileRequest https://developers.parsem.com/#operation/createFile
//
// The response contains temporary credentials for the staging storage,
// the file content is uploaded directly to the cloud provider, see Upload.
func (a *API) CreateFileRequest(name string, opts ...CreateFileOption) request.APIRequest[*FileUploadCredentials] {
	c := createFileConfig{name: name}
	for _, opt := range opts {
		opt(&c)
	}

	body := map[string]any{"name": c.name}
	if c.contentType != "" {
		body["contentType"] = c.contentType
	}
	if c.sizeBytes > 0 {
		body["sizeBytes"] = c.sizeBytes
	}

	file := &FileUploadCredentials{}
	req := a.newRequest().
		WithResult(file).
		WithMethod(http.MethodPost).
		WithURL("files/prepare").
		WithJSONBody(body)
	return request.NewAPIRequest(file, req)
}

// UploadFile creates the staging file resource and uploads the content of the reader to it.
// It returns the File, its ID can be used to create a parse job, see CreateParseJobRequest.
func (a *API) UploadFile(ctx context.Context, name string, content io.Reader, opts ...CreateFileOption) (*File, error) {
	credentials, err := a.CreateFileRequest(name, opts...).Send(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := Upload(ctx, credentials, content); err != nil {
		return nil, fmt.Errorf(`cannot upload file "%s": %w`, name, err)
	}
	return &credentials.File, nil
}

package abs

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"github.com/relvacode/iso8601"
	"gocloud.dev/blob"
	"gocloud.dev/blob/azureblob"
)

const Provider = "azure"

//nolint:tagliatelle
type Credentials struct {
	SASConnectionString string       `json:"SASConnectionString"`
	Expiration          iso8601.Time `json:"expiration"`
}

type UploadParams struct {
	BlobName    string      `json:"blobName"`
	AccountName string      `json:"accountName"`
	Container   string      `json:"container"`
	Credentials Credentials `json:"absCredentials"`
}

func NewUploadWriter(ctx context.Context, params *UploadParams, transport http.RoundTripper) (*blob.Writer, error) {
	client, err := newContainerClient(params, transport)
	if err != nil {
		return nil, err
	}

	b, err := azureblob.OpenBucket(ctx, client, nil)
	if err != nil {
		return nil, err
	}

	bw, err := b.NewWriter(ctx, params.BlobName, nil)
	if err != nil {
		return nil, fmt.Errorf(`opening blob "%s" failed: %w`, params.BlobName, err)
	}

	return bw, nil
}

func newContainerClient(params *UploadParams, transport http.RoundTripper) (*container.Client, error) {
	endpoint, sas, err := parseSASConnectionString(params.Credentials.SASConnectionString)
	if err != nil {
		return nil, err
	}

	opts := &container.ClientOptions{}
	if transport != nil {
		opts.ClientOptions = azcore.ClientOptions{
			Transport: &http.Client{Transport: transport},
			Retry:     policy.RetryOptions{},
		}
	}

	containerURL := strings.TrimRight(endpoint, "/") + "/" + params.Container + "?" + sas
	return container.NewClientWithNoCredential(containerURL, opts)
}

// parseSASConnectionString extracts the blob endpoint and the shared access signature
// from the connection string, e.g. "BlobEndpoint=https://...;SharedAccessSignature=...".
func parseSASConnectionString(v string) (endpoint string, sas string, err error) {
	for _, part := range strings.Split(v, ";") {
		key, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch key {
		case "BlobEndpoint":
			endpoint = value
		case "SharedAccessSignature":
			sas = value
		}
	}
	if endpoint == "" || sas == "" {
		return "", "", fmt.Errorf("invalid SAS connection string")
	}
	return endpoint, sas, nil
}

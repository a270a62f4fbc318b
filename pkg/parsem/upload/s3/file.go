package s3

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/relvacode/iso8601"
	"gocloud.dev/blob"
	"gocloud.dev/blob/s3blob"
)

const Provider = "aws"

type Path struct {
	Key    string `json:"key"`
	Bucket string `json:"bucket"`
}

//nolint:tagliatelle
type Credentials struct {
	AccessKeyID     string       `json:"AccessKeyId"`
	SecretAccessKey string       `json:"SecretAccessKey"`
	SessionToken    string       `json:"SessionToken"`
	Expiration      iso8601.Time `json:"Expiration"`
}

//nolint:tagliatelle
type UploadParams struct {
	Path
	Credentials Credentials                  `json:"credentials"`
	ACL         s3types.ObjectCannedACL      `json:"acl"`
	Encryption  s3types.ServerSideEncryption `json:"x-amz-server-side-encryption"`
}

func NewUploadWriter(ctx context.Context, params *UploadParams, region string, transport http.RoundTripper) (*blob.Writer, error) {
	b, err := openBucket(ctx, &params.Credentials, params.Bucket, region, transport)
	if err != nil {
		return nil, err
	}

	opts := &blob.WriterOptions{
		BeforeWrite: func(as func(interface{}) bool) error {
			var req *s3.PutObjectInput
			if as(&req) {
				req.ACL = params.ACL
				req.ServerSideEncryption = params.Encryption
			}
			return nil
		},
		// Smaller buffer size for better progress reporting
		// 5MB is AWS's minimum part size, see https://github.com/aws/aws-sdk-go/blob/8cf662a972fa7fba8f2c1ec57648cf840e2bb401/service/s3/s3manager/upload.go#L26-L30
		BufferSize: int(s3manager.MinUploadPartSize),
	}

	bw, err := b.NewWriter(ctx, params.Key, opts)
	if err != nil {
		return nil, fmt.Errorf(`opening blob "%s" failed: %w`, params.Key, err)
	}

	return bw, nil
}

func openBucket(ctx context.Context, cred *Credentials, bucket, region string, transport http.RoundTripper) (*blob.Bucket, error) {
	provider := config.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(
			cred.AccessKeyID,
			cred.SecretAccessKey,
			cred.SessionToken,
		),
	)

	var cfg aws.Config
	var err error
	if transport != nil {
		cfg, err = config.LoadDefaultConfig(ctx, provider, config.WithRegion(region), config.WithHTTPClient(&http.Client{Transport: transport}))
	} else {
		cfg, err = config.LoadDefaultConfig(ctx, provider, config.WithRegion(region))
	}
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg)
	return s3blob.OpenBucketV2(ctx, client, bucket, nil)
}

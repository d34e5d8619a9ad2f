package sink

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/patientkeeper/internal/common"
	"github.com/dmitrijs2005/patientkeeper/internal/config"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	nowFn = time.Now
)

const defaultPresignExpiry = 15 * time.Minute

// S3Sink uploads artifacts to cfg.S3Bucket and returns a presigned GET URL.
type S3Sink struct {
	config *config.Config
}

var _ Sink = (*S3Sink)(nil)

func NewS3Sink(cfg *config.Config) *S3Sink {
	return &S3Sink{config: cfg}
}

// storageKey returns exports/<yyyy>/<m>/<d>/<uuid>/<name>.
func storageKey(name string) string {
	d := nowFn()
	return fmt.Sprintf("exports/%d/%d/%d/%v/%s", d.Year(), d.Month(), d.Day(), uuid.New(), path.Base(name))
}

func (s *S3Sink) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s.config.S3Region)}
	if s.config.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			// minio and other self-hosted endpoints need path-style addressing
			o.UsePathStyle = true
		}
	}), nil
}

// Deliver uploads data under a fresh key and returns a download URL valid
// for S3PresignExpiry.
func (s *S3Sink) Deliver(ctx context.Context, name string, data []byte) (string, error) {
	client, err := s.client(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: s3 config: %w", common.ErrIO, err)
	}

	bucket := s.config.S3Bucket
	key := storageKey(name)

	in := &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		in.ContentType = aws.String(ct)
	}
	if _, err := putObject(client, ctx, in); err != nil {
		return "", fmt.Errorf("%w: upload %s: %w", common.ErrIO, key, err)
	}

	expiry := s.config.S3PresignExpiry
	if expiry <= 0 {
		expiry = defaultPresignExpiry
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("%w: presign %s: %w", common.ErrIO, key, err)
	}

	return req.URL, nil
}

// Package services hosts application services that sit outside the sync
// engine proper, currently the document upload service backed by
// S3-compatible object storage.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	sc "github.com/famhub/famhub/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// presignExpiry bounds how long an issued upload URL stays usable.
const presignExpiry = 15 * time.Minute

// DocumentService issues presigned upload URLs for family documents. The
// resulting durable file URL is the identity key the sync engine upserts
// documents by.
type DocumentService struct {
	config *sc.Config
}

func NewDocumentService(config *sc.Config) *DocumentService {
	return &DocumentService{config: config}
}

// GetRandomStorageKey returns a dated, collision-free object key.
func GetRandomStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("documents/%d/%d/%d/%v", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *DocumentService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
	})

	return newS3PresignClient(client), nil
}

// GetPresignedPutUrl returns the storage key, a temporary upload URL, and
// the durable file URL the uploaded document will live at.
func (s *DocumentService) GetPresignedPutUrl(ctx context.Context) (string, string, string, error) {
	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", "", err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey()

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", "", err
	}

	return key, req.URL, s.FileURL(key), nil
}

// FileURL renders the durable public URL for a storage key.
func (s *DocumentService) FileURL(key string) string {
	base := strings.TrimSuffix(s.config.FileBaseURL, "/")
	return base + "/" + s.config.S3Bucket + "/" + key
}

// Package snapshot exports the full registry to S3-compatible object
// storage. Exports run only on demand from the admin API; the registry core
// has no background tasks.
package snapshot

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/keydir/internal/netx"
	sc "github.com/dmitrijs2005/keydir/internal/server/config"
	"github.com/dmitrijs2005/keydir/internal/server/repositories/entries"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// presignExpiry bounds how long the returned upload/download URLs stay valid.
const presignExpiry = 15 * time.Minute

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
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	uploadToPresignedURL = netx.UploadToPresignedURL
)

// record is one JSON line in the exported dump.
type record struct {
	Username      string `json:"username"`
	Owner         string `json:"owner"`
	EncryptionKey string `json:"encryption_key"`
}

type Service struct {
	repo   entries.Repository
	config *sc.Config
}

func NewService(repo entries.Repository, config *sc.Config) *Service {
	return &Service{repo: repo, config: config}
}

// storageKey returns a date-partitioned object key for a new dump.
func storageKey() string {
	d := time.Now()
	return fmt.Sprintf("snapshots/%d/%02d/%02d/%v.jsonl", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *Service) getPresignClient() (*s3.PresignClient, error) {
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
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// Export dumps every registry entry to object storage and returns the
// object key plus a presigned download URL.
func (s *Service) Export(ctx context.Context) (string, string, error) {

	all, err := s.repo.List(ctx)
	if err != nil {
		return "", "", fmt.Errorf("list entries: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range all {
		rec := record{
			Username:      e.Username,
			Owner:         hex.EncodeToString(e.Owner[:]),
			EncryptionKey: hex.EncodeToString(e.EncryptionKey[:]),
		}
		if err := enc.Encode(&rec); err != nil {
			return "", "", err
		}
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", "", err
	}

	bucket := s.config.S3Bucket
	key := storageKey()

	put, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	if err := uploadToPresignedURL(ctx, put.URL, buf.Bytes()); err != nil {
		return "", "", err
	}

	get, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", "", err
	}

	return key, get.URL, nil
}

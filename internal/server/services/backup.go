package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vinocave/internal/common"
	sc "github.com/dmitrijs2005/vinocave/internal/server/config"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const backupURLValidity = 15 * time.Minute

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

// BackupService hands out presigned PUT URLs so clients upload cellar
// snapshots straight to object storage.
type BackupService struct {
	config *sc.Config
	now    func() time.Time
}

func NewBackupService(cfg *sc.Config) *BackupService {
	return &BackupService{config: cfg, now: time.Now}
}

// BackupKey builds the object key for a new snapshot of ownerID.
func BackupKey(ownerID string, t time.Time) string {
	return fmt.Sprintf("owners/%s/%d/%02d/%02d/%s.json", ownerID, t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *BackupService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
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

// PresignBackup returns the object key and a presigned PUT URL for it.
func (s *BackupService) PresignBackup(ctx context.Context, ownerID string) (string, string, error) {
	if ownerID == "" {
		return "", "", fmt.Errorf("%w: owner id required", common.ErrorValidation)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := BackupKey(ownerID, s.now())
	contentType := "application/json"

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(backupURLValidity))
	if err != nil {
		return "", "", fmt.Errorf("presign: %w", err)
	}

	return key, req.URL, nil
}

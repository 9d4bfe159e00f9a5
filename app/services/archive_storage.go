package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/amirphl/issue-composer/models"
	"github.com/amirphl/issue-composer/utils"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveConfig points the archive store at an S3 compatible bucket
type ArchiveConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Prefix    string
}

// objectPutter is the part of the S3 client the archive store uses
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3ArchiveStorage uploads the archive html of sent issues
type S3ArchiveStorage struct {
	client   objectPutter
	bucket   string
	prefix   string
	endpoint string
}

// NewS3Client builds a path-style client for the configured endpoint
func NewS3Client(ctx context.Context, cfg ArchiveConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load s3 config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3ArchiveStorage(client *s3.Client, cfg ArchiveConfig) *S3ArchiveStorage {
	return newS3ArchiveStorage(client, cfg)
}

func newS3ArchiveStorage(client objectPutter, cfg ArchiveConfig) *S3ArchiveStorage {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", cfg.Region)
	}
	return &S3ArchiveStorage{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		endpoint: endpoint,
	}
}

// objectKey is {prefix}/{publication}/{issue date}/{issue}.html
func (s *S3ArchiveStorage) objectKey(issue *models.Issue) string {
	key := fmt.Sprintf("%s/%s/%s.html", issue.PublicationID, utils.FormatDate(issue.IssueDate), issue.ID)
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

// Store uploads the html and returns its public URL. Uploading the same issue again overwrites it.
func (s *S3ArchiveStorage) Store(ctx context.Context, issue *models.Issue, html string) (string, error) {
	key := s.objectKey(issue)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         strings.NewReader(html),
		ContentType:  aws.String("text/html; charset=utf-8"),
		CacheControl: aws.String("public, max-age=86400"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key), nil
}

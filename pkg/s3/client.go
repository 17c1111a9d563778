package s3

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"driftp/pkg/backup"
)

const (
	BucketName = "driftp-backups"
)

// Client handles S3 operations against any S3-compatible endpoint
type Client struct {
	s3Client      *s3.Client
	presignClient *s3.PresignClient
	bucket        string
}

// NewClient creates a new S3 client
func NewClient(host, accessKey, secretKey string) (*Client, error) {
	if host == "" || accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("missing S3 configuration")
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")),
		config.WithRegion("us-east-1"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(host)
		o.UsePathStyle = true // MinIO and friends want path-style
	})

	return &Client{
		s3Client:      client,
		presignClient: s3.NewPresignClient(client),
		bucket:        BucketName,
	}, nil
}

// EnsureBucket checks if the bucket exists, creating it if not
func (c *Client) EnsureBucket(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err == nil {
		return nil
	}

	_, err = c.s3Client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		// 409 means the bucket is already there, which is what we wanted
		if strings.Contains(err.Error(), "StatusCode: 409") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}

	return nil
}

// Backup collects the data directory (trust store and settings),
// encrypts it, and uploads it
func (c *Client) Backup(dataDir, password string) error {
	ctx := context.TODO()

	if err := c.EnsureBucket(ctx); err != nil {
		return err
	}

	archive, err := backup.CollectDataDir(dataDir)
	if err != nil {
		return err
	}
	doc, err := backup.CreateBackup(archive, password)
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("backup-%s.enc", time.Now().Format("20060102-150405"))
	presignedReq, err := c.presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(fileName),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return fmt.Errorf("failed to generate presigned PUT: %w", err)
	}

	req, err := http.NewRequest("PUT", presignedReq.URL, strings.NewReader(doc))
	if err != nil {
		return err
	}
	req.ContentLength = int64(len(doc))
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload backup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("upload failed with status: %s", resp.Status)
	}

	return nil
}

// Restore downloads the newest backup, decrypts it, and writes the
// files back into the data directory
func (c *Client) Restore(dataDir, password string) error {
	ctx := context.TODO()

	output, err := c.s3Client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String("backup-"),
	})
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(output.Contents) == 0 {
		return fmt.Errorf("no backups found")
	}

	sort.Slice(output.Contents, func(i, j int) bool {
		return output.Contents[i].LastModified.After(*output.Contents[j].LastModified)
	})
	latestKey := *output.Contents[0].Key

	presignedReq, err := c.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(latestKey),
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return fmt.Errorf("failed to generate presigned GET: %w", err)
	}

	resp, err := http.Get(presignedReq.URL)
	if err != nil {
		return fmt.Errorf("failed to download backup: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status: %s", resp.Status)
	}

	doc, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read backup: %w", err)
	}

	archive, err := backup.RestoreBackup(string(doc), password)
	if err != nil {
		return fmt.Errorf("decryption failed (wrong password?): %w", err)
	}

	return backup.WriteDataDir(dataDir, archive)
}

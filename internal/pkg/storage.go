package pkg

import (
	"context"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	// PublicURL 对外访问前缀；为空时由 Endpoint 或 Region 推出
	PublicURL string
}

// S3Uploader 把对象写入 S3 兼容存储并返回可访问的 URL
type S3Uploader struct {
	client *s3.S3
	bucket string
	base   string
}

func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(cfg.Endpoint != ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}

	base := strings.TrimRight(cfg.PublicURL, "/")
	if base == "" && cfg.Endpoint != "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	if base == "" {
		base = "https://" + cfg.Bucket + ".s3." + cfg.Region + ".amazonaws.com"
	}
	return &S3Uploader{client: s3.New(sess), bucket: cfg.Bucket, base: base}, nil
}

// Upload 上传对象；失败统一返回 StorageError
func (u *S3Uploader) Upload(ctx context.Context, body io.ReadSeeker, key, contentType string) (string, error) {
	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", Storage("failed to store uploaded file", err)
	}
	return u.ObjectURL(key), nil
}

func (u *S3Uploader) ObjectURL(key string) string {
	return u.base + "/" + strings.TrimLeft(key, "/")
}

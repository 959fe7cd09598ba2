package evidence

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
)

type S3Config struct {
	Endpoint       string
	PublicEndpoint string
	Region         string
	AccessKey      string
	SecretKey      string
	Bucket         string
	SSLDisabled    bool
}

// S3Store uploads evidence to an S3 compatible bucket. The reference it
// returns is the public object URL.
type S3Store struct {
	uploader s3manageriface.UploaderAPI
	client   s3iface.S3API
	cfg      S3Config
	maxBytes int64
}

func NewS3Store(cfg S3Config, maxBytes int64) (*S3Store, error) {
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		Endpoint:         aws.String(cfg.Endpoint),
		S3ForcePathStyle: aws.Bool(true),
		DisableSSL:       aws.Bool(cfg.SSLDisabled),
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}
	return newS3Store(s3manager.NewUploader(sess), s3.New(sess), cfg, maxBytes), nil
}

func newS3Store(uploader s3manageriface.UploaderAPI, client s3iface.S3API, cfg S3Config, maxBytes int64) *S3Store {
	return &S3Store{uploader: uploader, client: client, cfg: cfg, maxBytes: maxBytes}
}

func (s *S3Store) Save(ctx context.Context, object *Object) (*Stored, error) {
	if err := validate(object, s.maxBytes); err != nil {
		return nil, err
	}

	key := objectName(object)
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(object.Data),
	}
	if object.Mime != "" {
		input.ContentType = aws.String(object.Mime)
	}
	if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
		return nil, fmt.Errorf("upload failed: %w, bucket %s, key %s", err, s.cfg.Bucket, key)
	}

	return &Stored{
		Ref:         s.publicPrefix() + key,
		Fingerprint: Fingerprint(object.Data),
	}, nil
}

func (s *S3Store) Delete(ctx context.Context, ref string) error {
	key, ok := strings.CutPrefix(ref, s.publicPrefix())
	if !ok || key == "" {
		return ErrBadRef
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w, bucket %s, key %s", err, s.cfg.Bucket, key)
	}
	return nil
}

func (s *S3Store) publicPrefix() string {
	return fmt.Sprintf("%s/%s/", s.cfg.PublicEndpoint, s.cfg.Bucket)
}

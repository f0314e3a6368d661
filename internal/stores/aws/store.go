package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"

	"github.com/example/sketchpad/internal/core"
)

// objectAPI is the subset of the S3 client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// s3Store keeps each drawing as one PNG object whose user metadata carries
// the drawing fields.
type s3Store struct {
	client objectAPI
	bucket string
	prefix string
}

const (
	metaName    = "name"
	metaWidth   = "width"
	metaHeight  = "height"
	metaCreated = "created"
)

// NewStore creates an S3 store using the default AWS configuration chain.
func NewStore(ctx context.Context, bucketName, prefix string) (*s3Store, error) {
	if bucketName == "" {
		return nil, errors.New("s3 storage needs a bucket name")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return newStore(s3.NewFromConfig(cfg), bucketName, prefix), nil
}

func newStore(client objectAPI, bucket, prefix string) *s3Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &s3Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *s3Store) key(id string) string { return s.prefix + id + ".png" }

func (s *s3Store) Save(ctx context.Context, name string, data []byte) (*core.Drawing, error) {
	d, err := core.NewDrawing(name, data)
	if err != nil {
		return nil, err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(d.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
		Metadata: map[string]string{
			metaName:    d.Name,
			metaWidth:   strconv.Itoa(d.Width),
			metaHeight:  strconv.Itoa(d.Height),
			metaCreated: d.CreatedAt.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload drawing: %w", err)
	}
	logrus.WithFields(logrus.Fields{"drawing_id": d.ID, "bucket": s.bucket}).Info("Drawing saved")
	return d.Meta(), nil
}

func (s *s3Store) Get(ctx context.Context, id string) (*core.Drawing, error) {
	if core.CheckID(id) != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get drawing %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read drawing %s: %w", id, err)
	}
	d := fromMetadata(id, resp.Metadata)
	d.Size = len(data)
	d.Data = data
	return d, nil
}

func (s *s3Store) List(ctx context.Context) ([]*core.Drawing, error) {
	out := []*core.Drawing{}
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list drawings: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			id := strings.TrimSuffix(strings.TrimPrefix(key, s.prefix), ".png")
			if core.CheckID(id) != nil {
				continue
			}
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			})
			if err != nil {
				logrus.WithError(err).WithField("key", key).Warn("Skipping unreadable drawing")
				continue
			}
			d := fromMetadata(id, head.Metadata)
			d.Size = int(aws.ToInt64(obj.Size))
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	if core.CheckID(id) != nil {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	key := aws.String(s.key(id))
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return fmt.Errorf("delete drawing %s: %w", id, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: key}); err != nil {
		return fmt.Errorf("delete drawing %s: %w", id, err)
	}
	logrus.WithField("drawing_id", id).Info("Drawing deleted")
	return nil
}

func fromMetadata(id string, md map[string]string) *core.Drawing {
	d := &core.Drawing{ID: id, Name: md[metaName]}
	d.Width, _ = strconv.Atoi(md[metaWidth])
	d.Height, _ = strconv.Atoi(md[metaHeight])
	if t, err := time.Parse(time.RFC3339Nano, md[metaCreated]); err == nil {
		d.CreatedAt = t
	}
	return d
}

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/duynhne/card-service/internal/core/domain"
)

const defaultDatabase = "cards"

// GridFSStore keeps blobs in a MongoDB GridFS bucket, one file per key.
type GridFSStore struct {
	client *mongo.Client
	db     *mongo.Database
	bucket string
}

// NewGridFSStore connects to MongoDB. The database name comes from the URI path.
func NewGridFSStore(ctx context.Context, uri, bucket string) (*GridFSStore, error) {
	parsed, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse MONGODB_URI: %w", err)
	}
	dbName := strings.TrimPrefix(parsed.Path, "/")
	if dbName == "" {
		dbName = defaultDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &GridFSStore{client: client, db: client.Database(dbName), bucket: bucket}, nil
}

// Close disconnects from MongoDB.
func (s *GridFSStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Put uploads the stream as a GridFS file named by key.
func (s *GridFSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	bucket, err := s.openBucket(ctx)
	if err != nil {
		return 0, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return 0, fmt.Errorf("set write deadline: %w", err)
		}
	}

	counter := &countingReader{r: &contextReader{ctx: ctx, r: r}}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	if _, err := bucket.UploadFromStream(key, counter, opts); err != nil {
		return 0, fmt.Errorf("upload %q to gridfs: %w", key, err)
	}
	return counter.n, nil
}

// Open streams the newest GridFS revision stored under key.
func (s *GridFSStore) Open(ctx context.Context, key string) (io.ReadCloser, *domain.StoredObject, error) {
	bucket, err := s.openBucket(ctx)
	if err != nil {
		return nil, nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, nil, fmt.Errorf("set read deadline: %w", err)
		}
	}

	stream, err := bucket.OpenDownloadStreamByName(key)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, nil, fmt.Errorf("open %q: %w", key, domain.ErrBlobNotFound)
		}
		return nil, nil, fmt.Errorf("open %q from gridfs: %w", key, err)
	}

	file := stream.GetFile()
	obj := &domain.StoredObject{Key: key, Size: file.Length}
	if len(file.Metadata) > 0 {
		if ct, ok := file.Metadata.Lookup("contentType").StringValueOK(); ok {
			obj.ContentType = ct
		}
	}
	return stream, obj, nil
}

func (s *GridFSStore) openBucket(ctx context.Context) (*gridfs.Bucket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucket))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %q: %w", s.bucket, err)
	}
	return bucket, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GridFSAssetStore stores image binaries next to the documents that reference them.
type GridFSAssetStore struct {
	db     *mongo.Database
	name   string
	bucket *gridfs.Bucket
}

func NewGridFSAssetStore(db *mongo.Database, bucketName string) (*GridFSAssetStore, error) {
	bucket, err := openBucket(db, bucketName)
	if err != nil {
		return nil, err
	}
	return &GridFSAssetStore{db: db, name: bucketName, bucket: bucket}, nil
}

func openBucket(db *mongo.Database, name string) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(name))
	if err != nil {
		return nil, fmt.Errorf("open gridfs bucket %s: %w", name, err)
	}
	return bucket, nil
}

// bucketFor returns the shared bucket, or a private one when ctx carries a deadline:
// gridfs deadlines are bucket state, and concurrent calls must not overwrite each
// other's.
func (s *GridFSAssetStore) bucketFor(ctx context.Context) (*gridfs.Bucket, time.Time, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return s.bucket, time.Time{}, nil
	}
	b, err := openBucket(s.db, s.name)
	return b, deadline, err
}

func (s *GridFSAssetStore) UploadAsset(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	bucket, deadline, err := s.bucketFor(ctx)
	if err != nil {
		return "", err
	}
	if !deadline.IsZero() {
		if err := bucket.SetWriteDeadline(deadline); err != nil {
			return "", err
		}
	}
	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "content_type", Value: contentType}})
	id, err := bucket.UploadFromStream(filename, r, opts)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	return id.Hex(), nil
}

func (s *GridFSAssetStore) OpenAsset(ctx context.Context, id string) (*Asset, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("asset %q: %w", id, ErrNotFound)
	}
	bucket, deadline, err := s.bucketFor(ctx)
	if err != nil {
		return nil, err
	}
	if !deadline.IsZero() {
		if err := bucket.SetReadDeadline(deadline); err != nil {
			return nil, err
		}
	}
	stream, err := bucket.OpenDownloadStream(oid)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, fmt.Errorf("asset %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open asset %q: %w", id, err)
	}

	file := stream.GetFile()
	contentType := "application/octet-stream"
	if file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("content_type").StringValueOK(); ok && ct != "" {
			contentType = ct
		}
	}
	return &Asset{ReadCloser: stream, ContentType: contentType, Size: file.Length}, nil
}

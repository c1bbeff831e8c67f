// Package objectstore wraps the Cloud Storage collaborator. The core
// needs exactly two capabilities from it: store raw bytes under a key,
// and fetch the most recently modified analysis result under a prefix.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// ErrNoResult means no analysis result exists under the prefix yet.
var ErrNoResult = errors.New("no analysis result found")

type Client struct {
	bucket *storage.BucketHandle
	name   string
}

func New(ctx context.Context, bucketName string, opts ...option.ClientOption) (*Client, error) {
	if strings.TrimSpace(bucketName) == "" {
		return nil, errors.New("missing bucket name")
	}
	cli, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Client{bucket: cli.Bucket(bucketName), name: bucketName}, nil
}

// Put stores raw bytes under the given key, overwriting any existing
// object.
func (c *Client) Put(ctx context.Context, key string, data []byte) error {
	w := c.bucket.Object(key).NewWriter(ctx)
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize object %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Object uploaded", "bucket", c.name, "key", key, "bytes", len(data))
	return nil
}

// LatestJSON returns the contents of the most recently updated .json
// object under prefix, comparing last-modified timestamps. ErrNoResult
// when nothing matches.
func (c *Client) LatestJSON(ctx context.Context, prefix string) ([]byte, error) {
	it := c.bucket.Objects(ctx, &storage.Query{Prefix: prefix})

	var found []objectInfo
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", prefix, err)
		}
		found = append(found, objectInfo{Name: attrs.Name, Updated: attrs.Updated})
	}

	key, ok := latestJSONObject(found)
	if !ok {
		return nil, ErrNoResult
	}

	r, err := c.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Fetched latest analysis result", "bucket", c.name, "key", key, "bytes", len(data))
	return data, nil
}

type objectInfo struct {
	Name    string
	Updated time.Time
}

// latestJSONObject picks the .json object with the newest Updated
// timestamp from a listing.
func latestJSONObject(objects []objectInfo) (string, bool) {
	var best objectInfo
	var ok bool
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Name, ".json") {
			continue
		}
		if !ok || obj.Updated.After(best.Updated) {
			best = obj
			ok = true
		}
	}
	return best.Name, ok
}

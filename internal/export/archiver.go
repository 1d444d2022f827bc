// Package export archives insight snapshots to Cloud Storage.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-insights/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ObjectWriter stores one object in a bucket.
type ObjectWriter interface {
	WriteObject(ctx context.Context, bucket, object, contentType string, data []byte) error
}

// GCSStore reads and writes objects with a Cloud Storage client.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore creates a storage client using Application Default Credentials.
func NewGCSStore(ctx context.Context) (*GCSStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client}, nil
}

// Close closes the storage client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}

// ReadObject downloads one object.
func (g *GCSStore) ReadObject(ctx context.Context, bucket, object string) ([]byte, error) {
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open GCS object reader: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read GCS object: %w", err)
	}
	return data, nil
}

// WriteObject implements ObjectWriter.
func (g *GCSStore) WriteObject(ctx context.Context, bucket, object, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := g.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write GCS object %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close GCS writer for %s: %w", object, err)
	}
	return nil
}

// Snapshot is the archived document.
type Snapshot struct {
	UserID     string           `json:"userId"`
	ExportedAt time.Time        `json:"exportedAt"`
	Count      int              `json:"count"`
	Insights   []domain.Insight `json:"insights"`
}

// Archiver writes insight snapshots under
// gs://<bucket>/<prefix>/<userID>/<YYYY-MM-DD>/<uuid>.json.
type Archiver struct {
	writer ObjectWriter
	bucket string
	prefix string
	log    zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewArchiver creates an Archiver. An empty prefix defaults to "insights".
func NewArchiver(writer ObjectWriter, bucket, prefix string, log zerolog.Logger) *Archiver {
	if prefix == "" {
		prefix = "insights"
	}
	return &Archiver{
		writer: writer,
		bucket: bucket,
		prefix: prefix,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Archive writes one snapshot and returns its gs:// URI.
func (a *Archiver) Archive(ctx context.Context, userID string, list []domain.Insight) (string, error) {
	if a.bucket == "" {
		return "", domain.NewInvalidInputError("bucket", "no export bucket configured")
	}
	if userID == "" {
		return "", domain.NewInvalidInputError("userId", "user ID is required")
	}

	now := a.now().UTC()
	if list == nil {
		list = []domain.Insight{}
	}

	data, err := json.MarshalIndent(Snapshot{
		UserID:     userID,
		ExportedAt: now,
		Count:      len(list),
		Insights:   list,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Archive: encoding snapshot: %w", err)
	}

	object := ObjectName(a.prefix, userID, now, a.newID())
	if err := a.writer.WriteObject(ctx, a.bucket, object, "application/json", data); err != nil {
		return "", fmt.Errorf("Archive: %w", err)
	}

	uri := fmt.Sprintf("gs://%s/%s", a.bucket, object)
	a.log.Info().
		Str("user_id", userID).
		Int("insights", len(list)).
		Str("gcs_uri", uri).
		Msg("Archived insights")
	return uri, nil
}

// ObjectName builds the object path for one snapshot.
func ObjectName(prefix, userID string, at time.Time, id string) string {
	return path.Join(prefix, userID, at.Format("2006-01-02"), id+".json")
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(uri, "gs://")
	if !ok {
		return "", "", domain.NewInvalidInputError("uri", fmt.Sprintf("%q is not a gs:// URI", uri))
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", domain.NewInvalidInputError("uri", fmt.Sprintf("%q has no object path", uri))
	}
	return bucket, object, nil
}

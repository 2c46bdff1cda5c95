package export

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"google.golang.org/api/option"
)

const SinkGCS = "gcs"

// StorageService writes objects to a bucket.
type StorageService interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) error
}

// GCSStorage is the Cloud Storage implementation of StorageService.
type GCSStorage struct {
	client *storage.Client
}

// NewGCSStorage creates a storage client. Use option.WithEndpoint and
// option.WithoutAuthentication to target an emulator.
func NewGCSStorage(ctx context.Context, opts ...option.ClientOption) (*GCSStorage, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStorage{client: client}, nil
}

func (s *GCSStorage) Close() error {
	return s.client.Close()
}

// Upload writes data to bucket/object.
func (s *GCSStorage) Upload(ctx context.Context, bucket, object, contentType string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write object %s/%s: %w", bucket, object, err)
	}
	// Close finalises the upload.
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s/%s: %w", bucket, object, err)
	}
	return nil
}

// GCSSink archives report PDFs.
type GCSSink struct {
	storage StorageService
	bucket  string
	now     func() time.Time
}

func NewGCSSink(storage StorageService, bucket string) *GCSSink {
	return &GCSSink{storage: storage, bucket: bucket, now: time.Now}
}

func (s *GCSSink) Name() string { return SinkGCS }

// Export uploads the PDF under reports/YYYY/MM/DD/<report id>-<file name>,
// dated by export time.
func (s *GCSSink) Export(ctx context.Context, r *report.Report) (Result, error) {
	if len(r.PDF) == 0 {
		return Result{}, fmt.Errorf("gcs export %s: %w", r.ID, ErrNothingToExport)
	}
	object := ObjectName(s.now(), r)
	if err := s.storage.Upload(ctx, s.bucket, object, "application/pdf", r.PDF); err != nil {
		return Result{}, fmt.Errorf("gcs export %s: %w", r.ID, err)
	}
	return Result{Sink: SinkGCS, Location: fmt.Sprintf("gs://%s/%s", s.bucket, object), Items: 1}, nil
}

// ObjectName is the archive path of a report exported at t.
func ObjectName(t time.Time, r *report.Report) string {
	return fmt.Sprintf("reports/%s/%s-%s", t.UTC().Format("2006/01/02"), r.ID, r.FileName())
}

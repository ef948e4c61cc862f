package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/markdave123-py/chatterbox/internal/core"
	objectclient "github.com/markdave123-py/chatterbox/internal/core/object-client"
	"github.com/markdave123-py/chatterbox/internal/metrics"
)

// DefaultMaxUploadBytes is the sales data size ceiling (5 MiB).
const DefaultMaxUploadBytes int64 = 5 << 20

const maxBucketBaseLen = 49 // 63 minus "-" and a 13 digit millisecond timestamp

var allowedContentTypes = map[string]bool{
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/pdf": true,
	"text/plain": true,
}

var allowedExtensions = map[string]bool{
	".doc": true, ".docx": true,
	".xls": true, ".xlsx": true,
	".pdf": true,
	".txt": true,
}

var nonBucketChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileUpload is an uploaded sales data document held in memory.
type FileUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

type FileService struct {
	db       core.DbClient
	storage  core.ObjectClient
	maxBytes int64
	now      func() time.Time
	log      zerolog.Logger
}

func NewFileService(db core.DbClient, storage core.ObjectClient, maxBytes int64, log zerolog.Logger) *FileService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &FileService{
		db:       db,
		storage:  storage,
		maxBytes: maxBytes,
		now:      time.Now,
		log:      log.With().Str("component", "file-service").Logger(),
	}
}

// MaxBytes is the upload ceiling in bytes.
func (s *FileService) MaxBytes() int64 { return s.maxBytes }

// ReplaceCompanyFile stores f as the company's sales data document and returns its location.
// The superseded object, if any, is deleted once the new location is persisted; failure
// to delete it is logged and does not fail the call.
func (s *FileService) ReplaceCompanyFile(ctx context.Context, companyID int64, f FileUpload) (objectclient.Location, error) {
	if companyID <= 0 {
		return objectclient.Location{}, validationError("companyId is required")
	}
	contentType, err := s.Validate(f.Name, f.ContentType, f.Data)
	if err != nil {
		metrics.RecordUpload(f.ContentType, "rejected", int64(len(f.Data)))
		return objectclient.Location{}, err
	}

	log := s.log.With().Int64("company_id", companyID).Str("file", f.Name).Int("size", len(f.Data)).Logger()
	log.Info().Str("content_type", contentType).Msg("upload started")

	company, err := s.db.GetCompanyByID(ctx, companyID)
	if err != nil {
		return objectclient.Location{}, persistence("upload failed", err)
	}
	if company == nil {
		return objectclient.Location{}, notFound("company not found")
	}

	var (
		bucket string
		old    *objectclient.Location
	)
	if company.SalesDataURL != nil && strings.TrimSpace(*company.SalesDataURL) != "" {
		prev, err := objectclient.ParseLocation(*company.SalesDataURL)
		if err != nil {
			log.Warn().Err(err).Msg("stored sales data location is malformed; provisioning a new bucket")
		} else {
			bucket = prev.Bucket
			if prev.HasObject() {
				old = &prev
			}
		}
	}

	if bucket == "" {
		bucket, err = s.provisionBucket(ctx, companyID, company.Name)
		if err != nil {
			metrics.RecordUpload(contentType, "failure", int64(len(f.Data)))
			return objectclient.Location{}, err
		}
		log.Info().Str("bucket", bucket).Msg("bucket provisioned")
	}

	loc := objectclient.Location{
		Bucket: bucket,
		Key:    ObjectKey(s.now(), f.Name),
	}
	if err := s.storage.PutObject(ctx, loc.Bucket, loc.Key, bytes.NewReader(f.Data), contentType); err != nil {
		metrics.RecordUpload(contentType, "failure", int64(len(f.Data)))
		log.Error().Err(err).Msg("upload to object storage failed")
		return objectclient.Location{}, newError(KindUpload, "upload failed", err)
	}

	if err := s.db.UpdateCompanySalesDataURL(ctx, companyID, loc.String()); err != nil {
		metrics.RecordUpload(contentType, "failure", int64(len(f.Data)))
		if delErr := s.storage.DeleteObject(ctx, loc.Bucket, loc.Key); delErr != nil {
			log.Warn().Err(delErr).Str("key", loc.Key).Msg("could not remove orphaned upload")
		}
		if errors.Is(err, core.ErrNotFound) {
			return objectclient.Location{}, notFound("company not found")
		}
		return objectclient.Location{}, persistence("upload failed", err)
	}

	if old != nil && *old != loc {
		if err := s.storage.DeleteObject(ctx, old.Bucket, old.Key); err != nil {
			log.Warn().Err(err).Str("old_key", old.Key).Msg("could not delete previous sales data object")
		} else {
			log.Debug().Str("old_key", old.Key).Msg("previous sales data object deleted")
		}
	}

	metrics.RecordUpload(contentType, "success", int64(len(f.Data)))
	log.Info().Str("location", loc.String()).Msg("upload complete")
	return loc, nil
}

// Validate checks size and type and returns the content type to store the object with.
// A specific declared type must be on the allow-list; a missing or generic one is
// resolved by sniffing the content.
func (s *FileService) Validate(name, declared string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", validationError("file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return "", NewTooLargeError(s.maxBytes)
	}

	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" && !allowedExtensions[ext] {
		return "", newError(KindUnsupportedMediaType, "unsupported file type", nil)
	}

	base := baseMediaType(declared)
	if allowedContentTypes[base] {
		return base, nil
	}
	if base != "" && base != "application/octet-stream" {
		return "", newError(KindUnsupportedMediaType, "unsupported file type", nil)
	}

	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if sniffed := baseMediaType(m.String()); allowedContentTypes[sniffed] {
			return sniffed, nil
		}
	}
	return "", newError(KindUnsupportedMediaType, "unsupported file type", nil)
}

func (s *FileService) provisionBucket(ctx context.Context, companyID int64, companyName string) (string, error) {
	bucket := BucketName(companyName, s.now())
	if err := s.storage.CreateBucket(ctx, bucket); err != nil {
		s.log.Error().Err(err).Str("bucket", bucket).Msg("bucket creation failed")
		return "", newError(KindUpload, "upload failed", err)
	}
	// Record the bucket right away so a failed upload does not leak a fresh bucket per retry.
	if err := s.db.UpdateCompanySalesDataURL(ctx, companyID, objectclient.Location{Bucket: bucket}.String()); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", notFound("company not found")
		}
		return "", persistence("upload failed", err)
	}
	return bucket, nil
}

// BucketName derives a per-company bucket name: the lowercased company name with runs of
// characters outside [a-z0-9] collapsed to '-', suffixed with a millisecond timestamp.
func BucketName(companyName string, at time.Time) string {
	base := nonBucketChars.ReplaceAllString(strings.ToLower(companyName), "-")
	base = strings.Trim(base, "-")
	if len(base) > maxBucketBaseLen {
		base = strings.TrimRight(base[:maxBucketBaseLen], "-")
	}
	if base == "" {
		base = "company"
	}
	return fmt.Sprintf("%s-%d", base, at.UnixMilli())
}

// ObjectKey returns sales/{millis}_{file name}.
func ObjectKey(at time.Time, fileName string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("sales/%d_%s", at.UnixMilli(), name)
}

func baseMediaType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return strings.ToLower(v)
	}
	return mt
}

package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/health-dashboard/backend/internal/metrics"
	"github.com/health-dashboard/backend/internal/storage/models"
	"github.com/health-dashboard/backend/internal/storage/sqlite"
	"github.com/health-dashboard/backend/pkg/logger"
	"github.com/health-dashboard/backend/pkg/utils"
)

var (
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file exceeds the upload size limit")
	ErrDocumentNotFound = sqlite.ErrDocumentNotFound
	ErrFileMissing      = errors.New("stored file is missing")
)

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type Store interface {
	InsertDocument(ctx context.Context, doc *models.MedicalDocument) error
	ListDocuments(ctx context.Context, username string) ([]models.MedicalDocument, error)
	GetDocument(ctx context.Context, username, id string) (*models.MedicalDocument, error)
}

type Service struct {
	store    Store
	dir      string
	maxBytes int64
	allowed  map[string]bool
	now      func() time.Time
}

// NewService stores uploads under dir. allowedExts entries may be given with
// or without the leading dot.
func NewService(store Store, dir string, maxBytes int64, allowedExts []string) (*Service, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	allowed := make(map[string]bool, len(allowedExts))
	for _, e := range allowedExts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}

	return &Service{
		store:    store,
		dir:      dir,
		maxBytes: maxBytes,
		allowed:  allowed,
		now:      time.Now,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFileName reduces an uploaded name to a safe base name. Directory
// components are dropped, so the result can never escape the upload folder.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "-")
	name = strings.Trim(name, ".-_")
	if name == "" {
		name = "file"
	}
	if len(name) > 128 {
		ext := filepath.Ext(name)
		if len(ext) > 16 {
			ext = ""
		}
		name = name[:128-len(ext)] + ext
	}
	return name
}

// Save validates one upload and stores it for username. Every call gets its
// own storage path, so equal names never overwrite each other.
func (s *Service) Save(ctx context.Context, username, fileName string, r io.Reader) (*models.MedicalDocument, error) {
	safe := SanitizeFileName(fileName)
	ext := strings.ToLower(filepath.Ext(safe))
	if !s.allowed[ext] {
		return nil, fmt.Errorf("%w: %q has an unsupported type", ErrInvalidFile, fileName)
	}

	userDir := filepath.Join(s.dir, utils.HashKey(username))
	if err := os.MkdirAll(userDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	id := uuid.NewString()
	finalPath := filepath.Join(userDir, id+"-"+safe)

	tmp, err := os.CreateTemp(userDir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}
	if n > s.maxBytes {
		return nil, fmt.Errorf("%w: %q is larger than %d bytes", ErrFileTooLarge, fileName, s.maxBytes)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidFile, fileName)
	}

	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}

	doc := &models.MedicalDocument{
		ID:        id,
		Username:  username,
		FileName:  safe,
		FileType:  contentTypes[ext],
		FilePath:  finalPath,
		Size:      n,
		CreatedAt: s.now(),
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		_ = os.Remove(finalPath)
		return nil, err
	}

	metrics.DocumentsUploaded.Inc()
	logger.Info("Document stored",
		zap.String("username", username),
		zap.String("id", id),
		zap.String("file_name", safe),
		zap.Int64("size", n),
	)
	return doc, nil
}

func (s *Service) List(ctx context.Context, username string) ([]models.MedicalDocument, error) {
	return s.store.ListDocuments(ctx, username)
}

// Open returns the record and its payload. The caller closes the file.
func (s *Service) Open(ctx context.Context, username, id string) (*models.MedicalDocument, *os.File, error) {
	doc, err := s.store.GetDocument(ctx, username, id)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(doc.FilePath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("Document payload missing",
			zap.String("id", doc.ID),
			zap.String("path", doc.FilePath),
		)
		return doc, nil, fmt.Errorf("%w: %s", ErrFileMissing, doc.FileName)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document: %w", err)
	}
	return doc, f, nil
}

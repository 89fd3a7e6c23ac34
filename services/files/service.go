package files

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/services/logging"
)

var (
	ErrFileNotFound    = errors.New("file not found")
	ErrFileTooLarge    = errors.New("file exceeds the size limit")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidFileName = errors.New("invalid file name")
	ErrTooManyFiles    = errors.New("too many files in one upload")
)

var photoExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var documentExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// Upload carries one incoming file. Size must be the real byte count; the
// reader is not length-checked beyond it.
type Upload struct {
	OriginalName string
	Size         int64
	Reader       io.Reader
}

type Service struct {
	db     *gorm.DB
	config *config.Config
	logger *logging.Service
}

func NewService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return &Service{db: db, config: cfg, logger: logger}
}

// SavePhoto validates and stores a profile photo for the employee.
func (s *Service) SavePhoto(employeeID uint, upload Upload) (*models.EmployeeFile, error) {
	mimeType, err := validateUpload(upload, photoExtensions, s.config.Upload.MaxPhotoSize)
	if err != nil {
		return nil, err
	}
	return s.store(employeeID, models.FileKindPhoto, upload, mimeType)
}

// SaveDocuments validates and stores a batch of documents. The batch is
// rejected as a whole when any file fails validation or the count limit.
func (s *Service) SaveDocuments(employeeID uint, uploads []Upload) ([]models.EmployeeFile, error) {
	if len(uploads) > s.config.Upload.MaxDocuments {
		return nil, ErrTooManyFiles
	}

	mimeTypes := make([]string, len(uploads))
	for i, upload := range uploads {
		mimeType, err := validateUpload(upload, documentExtensions, s.config.Upload.MaxDocumentSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", upload.OriginalName, err)
		}
		mimeTypes[i] = mimeType
	}

	saved := make([]models.EmployeeFile, 0, len(uploads))
	for i, upload := range uploads {
		file, err := s.store(employeeID, models.FileKindDocument, upload, mimeTypes[i])
		if err != nil {
			return saved, err
		}
		saved = append(saved, *file)
	}
	return saved, nil
}

func (s *Service) store(employeeID uint, kind string, upload Upload, mimeType string) (*models.EmployeeFile, error) {
	ext := strings.ToLower(filepath.Ext(upload.OriginalName))
	fileName := uuid.NewString() + ext

	if err := os.MkdirAll(s.config.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(s.config.Upload.Dir, fileName))
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	written, err := io.Copy(dst, upload.Reader)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.config.Upload.Dir, fileName))
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	record := models.EmployeeFile{
		EmployeeID:   employeeID,
		Kind:         kind,
		FileName:     fileName,
		OriginalName: filepath.Base(upload.OriginalName),
		MimeType:     mimeType,
		Size:         written,
	}
	if err := s.db.Create(&record).Error; err != nil {
		_ = os.Remove(filepath.Join(s.config.Upload.Dir, fileName))
		return nil, fmt.Errorf("failed to record file: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("file stored",
			zap.Uint("employee_id", employeeID),
			zap.String("kind", kind),
			zap.String("file", fileName),
			zap.Int64("size", written))
	}
	return &record, nil
}

// Resolve maps a stored file name to its metadata and on-disk path. Names
// containing path separators or traversal segments are rejected before any
// disk access.
func (s *Service) Resolve(fileName string) (*models.EmployeeFile, string, error) {
	if err := checkFileName(fileName); err != nil {
		return nil, "", err
	}

	var record models.EmployeeFile
	if err := s.db.Where("file_name = ?", fileName).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrFileNotFound
		}
		return nil, "", fmt.Errorf("failed to look up file: %w", err)
	}

	path := filepath.Join(s.config.Upload.Dir, record.FileName)
	if _, err := os.Stat(path); err != nil {
		return nil, "", ErrFileNotFound
	}
	return &record, path, nil
}

func (s *Service) Delete(fileName string) error {
	record, path, err := s.Resolve(fileName)
	if err != nil {
		return err
	}

	if err := s.db.Delete(record).Error; err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		if s.logger != nil {
			s.logger.Warn("file record removed but disk cleanup failed",
				zap.String("file", fileName), zap.Error(err))
		}
	}
	return nil
}

func (s *Service) ListForEmployee(employeeID uint) ([]models.EmployeeFile, error) {
	var records []models.EmployeeFile
	err := s.db.
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return records, nil
}

func validateUpload(upload Upload, allowed map[string]string, maxSize int64) (string, error) {
	if err := checkFileName(upload.OriginalName); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(upload.OriginalName))
	mimeType, ok := allowed[ext]
	if !ok {
		return "", ErrUnsupportedType
	}
	if upload.Size > maxSize {
		return "", ErrFileTooLarge
	}
	return mimeType, nil
}

func checkFileName(name string) error {
	if name == "" ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") ||
		name != filepath.Base(name) {
		return ErrInvalidFileName
	}
	return nil
}

package content

import (
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"gorm.io/gorm"
)

// File keys inside the files section
const (
	FileCVFrench  = "cv_fr"
	FileCVEnglish = "cv_en"
	FileCVArabic  = "cv_ar"
	FilePhoto     = "photo"
)

// FileRef points at one stored object.
type FileRef struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// GetFiles returns the file references recorded in the files section.
func GetFiles(dbConn *gorm.DB) (map[string]FileRef, error) {
	raw, err := GetSection(dbConn, SectionFiles)
	if err != nil {
		return nil, err
	}

	files := make(map[string]FileRef)
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("failed to decode files section: %w", err)
	}
	return files, nil
}

// SetFile records a file reference and returns the one it replaced, if any.
func SetFile(dbConn *gorm.DB, logger *slog.Logger, name string, ref FileRef) (*FileRef, error) {
	files, err := GetFiles(dbConn)
	if err != nil {
		return nil, err
	}

	var previous *FileRef
	if old, ok := files[name]; ok {
		previous = &old
	}
	files[name] = ref

	if err := saveFiles(dbConn, logger, files); err != nil {
		return nil, err
	}
	return previous, nil
}

// RemoveFile drops a file reference and returns it. Returns nil when absent.
func RemoveFile(dbConn *gorm.DB, logger *slog.Logger, name string) (*FileRef, error) {
	files, err := GetFiles(dbConn)
	if err != nil {
		return nil, err
	}

	old, ok := files[name]
	if !ok {
		return nil, nil
	}
	delete(files, name)

	if err := saveFiles(dbConn, logger, files); err != nil {
		return nil, err
	}
	return &old, nil
}

func saveFiles(dbConn *gorm.DB, logger *slog.Logger, files map[string]FileRef) error {
	data, err := json.Marshal(files)
	if err != nil {
		return fmt.Errorf("failed to encode files section: %w", err)
	}
	return SaveSection(dbConn, logger, SectionFiles, data)
}

package uploads

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"portfolio/internal/content"
)

var (
	// ErrInvalidKind is returned for upload kinds outside Kinds.
	ErrInvalidKind = errors.New("invalid upload kind")

	// ErrUnsupportedType is returned when the sniffed type is not allowed for the kind.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrTooLarge is returned when an upload exceeds the configured size.
	ErrTooLarge = errors.New("file too large")
)

var pdfTypes = map[string]string{
	"application/pdf": ".pdf",
}

var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Kinds maps each upload kind to its allowed content types and extensions.
// Kind names double as keys in the files content section.
var Kinds = map[string]map[string]string{
	content.FileCVFrench:  pdfTypes,
	content.FileCVEnglish: pdfTypes,
	content.FileCVArabic:  pdfTypes,
	content.FilePhoto:     imageTypes,
}

// IsValidKind reports whether kind can be uploaded.
func IsValidKind(kind string) bool {
	_, ok := Kinds[kind]
	return ok
}

// DetectType sniffs the content type from the first bytes of a file and checks
// it against the kind. Returns the extension to store it with.
func DetectType(kind string, head []byte) (contentType string, ext string, err error) {
	allowed, ok := Kinds[kind]
	if !ok {
		return "", "", ErrInvalidKind
	}
	contentType = http.DetectContentType(head)
	ext, ok = allowed[contentType]
	if !ok {
		return contentType, "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
	return contentType, ext, nil
}

// NewKey builds a unique object key for kind.
func NewKey(kind, ext string) string {
	return kind + "-" + uuid.NewString() + ext
}

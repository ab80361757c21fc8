package upload

import (
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	// Register the decoders used by verifyImage.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
)

type Config struct {
	AllowedExt []string
	MaxSize    int64
	Directory  string
}

type Result struct {
	Path     string
	Filename string
	Size     int64
	MIMEType string
	URL      string
}

type UploadError struct {
	Code    string
	Message string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsUploadError(err error) bool {
	_, ok := err.(*UploadError)
	return ok
}

// SaveImage validates and stores a multipart image upload under a random
// filename. The saved file is decoded afterwards; anything that does not
// parse as an image is removed again.
func SaveImage(r *http.Request, fieldName string, cfg Config) (*Result, error) {
	file, header, err := r.FormFile(fieldName)
	if err != nil {
		return nil, &UploadError{Code: "NO_FILE", Message: "no file provided"}
	}
	defer file.Close()

	if header.Size > cfg.MaxSize {
		return nil, &UploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("file size exceeds maximum limit of %d bytes", cfg.MaxSize),
		}
	}

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &UploadError{
			Code:    "INVALID_TYPE",
			Message: "file must be an image",
		}
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	if !slices.Contains(cfg.AllowedExt, ext) {
		return nil, &UploadError{
			Code:    "INVALID_EXTENSION",
			Message: fmt.Sprintf("only %s images are supported", strings.ToUpper(strings.Join(cfg.AllowedExt, ", "))),
		}
	}

	if err := os.MkdirAll(cfg.Directory, 0755); err != nil {
		return nil, &UploadError{
			Code:    "DIRECTORY_ERROR",
			Message: "failed to create upload directory",
		}
	}

	filename := fmt.Sprintf("%s.%s", uuid.New().String(), ext)
	dstPath := filepath.Join(cfg.Directory, filename)

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, &UploadError{
			Code:    "CREATE_ERROR",
			Message: "failed to create file",
		}
	}

	written, err := io.Copy(dst, file)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dstPath)
		return nil, &UploadError{
			Code:    "WRITE_ERROR",
			Message: "failed to save file",
		}
	}

	if err := verifyImage(dstPath); err != nil {
		os.Remove(dstPath)
		return nil, &UploadError{
			Code:    "CORRUPT_IMAGE",
			Message: "invalid or corrupted image file",
		}
	}

	return &Result{
		Path:     dstPath,
		Filename: filename,
		Size:     written,
		MIMEType: contentType,
		URL:      "/static/" + filename,
	}, nil
}

func verifyImage(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err
}

func DeleteFile(path string) error {
	return os.Remove(path)
}

func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

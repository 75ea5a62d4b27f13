package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

const multipartMemory = 32 << 20

// Uploads stages multipart files on local disk before they are handed to the
// media host, which removes them once uploaded.
type Uploads struct {
	Dir      string
	MaxBytes int64
}

func (u Uploads) parse(w http.ResponseWriter, r *http.Request) error {
	if u.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, u.MaxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			if err := r.ParseForm(); err == nil {
				return nil
			}
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.InvalidArgument("Upload exceeds the allowed size")
		}
		return apperr.InvalidArgument("Invalid multipart form")
	}
	return nil
}

// stage copies the named form file to a temp file and returns its path, or
// "" when the field is absent.
func (u Uploads) stage(r *http.Request, field string) (string, error) {
	src, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", apperr.InvalidArgument("Invalid " + field + " file")
	}
	defer src.Close()

	dst, err := os.CreateTemp(u.Dir, "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", fmt.Errorf("stage %s: %w", field, err)
	}
	return dst.Name(), nil
}

// stageRequired is stage for fields the request cannot do without.
func (u Uploads) stageRequired(r *http.Request, field string) (string, error) {
	path, err := u.stage(r, field)
	if err != nil {
		return "", err
	}
	if path == "" {
		return "", apperr.InvalidArgument(field + " file is required")
	}
	return path, nil
}

// discardLocal removes staged files that never reached the media host.
func discardLocal(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.FromContext(ctx).Warn("remove staged upload", "path", p, "error", err)
		}
	}
}

var uploadLabels = map[string]string{
	"avatar":     "avatar",
	"coverImage": "cover image",
	"videoFile":  "video",
	"thumbnail":  "thumbnail",
}

// upload hands the staged file of the named form field to the media host. A
// rejected upload is a client error; missing storage is not.
func upload(ctx context.Context, storage MediaStorage, field, path string) (models.MediaAsset, error) {
	if storage == nil {
		discardLocal(ctx, path)
		return models.MediaAsset{}, errors.New("media storage is not configured")
	}
	asset, err := storage.Upload(ctx, path)
	if err != nil {
		logging.FromContext(ctx).Warn("media upload failed", "field", field, "error", err)
		return models.MediaAsset{}, &apperr.Error{
			Kind:    apperr.KindInvalidArgument,
			Message: "Error while uploading " + uploadLabels[field],
			Err:     err,
		}
	}
	return asset, nil
}

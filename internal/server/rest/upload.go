package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/accountkeeper/internal/common"
	"github.com/dmitrijs2005/accountkeeper/internal/filex"
	"github.com/dmitrijs2005/accountkeeper/internal/server/models"
	"github.com/google/uuid"
)

const (
	avatarField  = "avatar"
	maxFieldSize = 64 << 10
)

// Uploader streams multipart avatar parts into the temp directory.
type Uploader struct {
	tempDir string
	maxSize int64
}

func NewUploader(tempDir string, maxSize int64) (*Uploader, error) {
	abs, err := filex.EnsureDir(tempDir)
	if err != nil {
		return nil, err
	}
	return &Uploader{tempDir: abs, maxSize: maxSize}, nil
}

// Receive reads a multipart/form-data body. Plain parts are returned as
// values; the avatar part, if any, is written to a temp file named
// <uuid><ext>. At most maxSize+1 bytes of it are kept, so an oversized file
// still reaches validation with a size above the limit.
func (u *Uploader) Receive(r *http.Request) (map[string]string, *models.Upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, nil, common.Validation("Invalid request body")
	}

	values := map[string]string{}
	var upload *models.Upload

	fail := func(err error) (map[string]string, *models.Upload, error) {
		if upload != nil {
			_ = filex.RemoveIfExists(upload.TempPath)
		}
		return nil, nil, err
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(common.Validation("Invalid request body"))
		}

		if part.FormName() == avatarField && part.FileName() != "" {
			if upload != nil {
				part.Close()
				continue
			}
			upload, err = u.store(part)
			part.Close()
			if err != nil {
				return fail(err)
			}
			continue
		}

		b, err := io.ReadAll(io.LimitReader(part, maxFieldSize))
		part.Close()
		if err != nil {
			return fail(common.Validation("Invalid request body"))
		}
		values[part.FormName()] = string(b)
	}

	return values, upload, nil
}

func (u *Uploader) store(part *multipart.Part) (*models.Upload, error) {
	original := filepath.Base(part.FileName())
	name := uuid.NewString() + filepath.Ext(original)
	path := filepath.Join(u.tempDir, name)

	f, err := os.Create(path)
	if err != nil {
		return nil, common.Internal(fmt.Errorf("create temp file: %w", err))
	}

	n, err := io.Copy(f, io.LimitReader(part, u.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = filex.RemoveIfExists(path)
		return nil, common.Validation("Invalid request body")
	}

	return &models.Upload{
		OriginalName: original,
		MimeType:     part.Header.Get("Content-Type"),
		Size:         n,
		TempPath:     path,
		FileName:     name,
	}, nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

// decode fills dst from a JSON body or, when allowUpload is set, from a
// multipart form. Form values are mapped onto dst through its json tags.
func (h *Handlers) decode(r *http.Request, dst any, allowUpload bool) (*models.Upload, error) {
	if allowUpload && isMultipart(r) {
		values, upload, err := h.uploads.Receive(r)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(values)
		if err == nil {
			err = json.Unmarshal(b, dst)
		}
		if err != nil {
			if upload != nil {
				_ = filex.RemoveIfExists(upload.TempPath)
			}
			return nil, common.Validation("Invalid request body")
		}
		return upload, nil
	}

	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return nil, common.Validation("Invalid request body")
	}
	return nil, nil
}

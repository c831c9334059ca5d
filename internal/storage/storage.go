// Package storage keeps uploaded resume files.
//
// Files are stored under a generated name of the form
//
//	YYYYMMDD_HHMMSS_<uuid><ext>
//
// so two uploads never collide and the stored name reveals nothing about the
// user. The original file name is kept on the user row for display.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/swipejobs/internal/apperror"
)

// AllowedExtensions lists the resume formats accepted for upload.
var AllowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".tex":  "application/x-tex",
	".txt":  "text/plain; charset=utf-8",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Store is a flat namespace of files.
type Store interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// Saved describes a stored resume.
type Saved struct {
	OriginalName string
	StoredName   string
	Size         int64
}

// Resumes validates and stores resume uploads on top of a Store.
type Resumes struct {
	store    Store
	maxBytes int64
	now      func() time.Time
}

func NewResumes(store Store, maxBytes int64) *Resumes {
	return &Resumes{store: store, maxBytes: maxBytes, now: time.Now}
}

// Validate checks the extension against AllowedExtensions and the size
// against the configured maximum.
func (r *Resumes) Validate(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedExtensions[ext]; !ok {
		return apperror.ValidationFailed("resume",
			fmt.Sprintf("file type %q not allowed; use .pdf, .tex, .txt, .doc or .docx", ext))
	}
	if size <= 0 {
		return apperror.ValidationFailed("resume", "file is empty")
	}
	if size > r.maxBytes {
		return apperror.ValidationFailed("resume",
			fmt.Sprintf("file is %d bytes; the limit is %d bytes", size, r.maxBytes))
	}
	return nil
}

// GenerateName returns the collision-resistant stored name for original.
func GenerateName(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	return now.UTC().Format("20060102_150405") + "_" + uuid.NewString() + ext
}

// Save validates data and writes it under a generated name.
func (r *Resumes) Save(ctx context.Context, original string, data []byte) (*Saved, error) {
	original = filepath.Base(original)
	if err := r.Validate(original, int64(len(data))); err != nil {
		return nil, err
	}

	name := GenerateName(original, r.now())
	ext := strings.ToLower(filepath.Ext(original))
	if err := r.store.Save(ctx, name, bytes.NewReader(data), int64(len(data)), AllowedExtensions[ext]); err != nil {
		return nil, fmt.Errorf("storage: saving resume: %w", err)
	}
	return &Saved{OriginalName: original, StoredName: name, Size: int64(len(data))}, nil
}

// Read returns the content of a stored resume.
func (r *Resumes) Read(ctx context.Context, name string) ([]byte, error) {
	rc, err := r.store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, r.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("storage: reading resume %s: %w", name, err)
	}
	return data, nil
}

// Open streams a stored resume.
func (r *Resumes) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return r.store.Open(ctx, name)
}

// Delete removes a stored resume. Deleting a missing file is not an error.
func (r *Resumes) Delete(ctx context.Context, name string) error {
	return r.store.Delete(ctx, name)
}

// ContentType returns the MIME type for a resume file name.
func ContentType(filename string) string {
	if ct, ok := AllowedExtensions[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// checkName rejects anything that is not a bare file name.
func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("storage: invalid file name %q", name)
	}
	return nil
}

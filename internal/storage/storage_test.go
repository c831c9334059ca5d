package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/swipejobs/internal/apperror"
)

func newTestResumes(t *testing.T) (*Resumes, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	r := NewResumes(store, 5<<20)
	r.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return r, dir
}

func TestValidate(t *testing.T) {
	r, _ := newTestResumes(t)

	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr bool
	}{
		{"pdf", "cv.pdf", 1024, false},
		{"upper case extension", "CV.DOCX", 1024, false},
		{"tex", "resume.tex", 10, false},
		{"exactly at limit", "cv.txt", 5 << 20, false},
		{"over limit", "cv.pdf", 5<<20 + 1, true},
		{"empty", "cv.pdf", 0, true},
		{"exe", "cv.exe", 10, true},
		{"no extension", "resume", 10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Validate(tt.file, tt.size)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperror.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGenerateName(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	name := GenerateName("My Resume.PDF", at)

	pattern := regexp.MustCompile(`^20260102_030405_[0-9a-f-]{36}\.pdf$`)
	assert.Regexp(t, pattern, name)
	assert.NotEqual(t, name, GenerateName("My Resume.PDF", at))
}

func TestResumes_SaveReadDelete(t *testing.T) {
	r, dir := newTestResumes(t)
	ctx := context.Background()

	saved, err := r.Save(ctx, "../../etc/cv.txt", []byte("hello resume"))
	require.NoError(t, err)
	assert.Equal(t, "cv.txt", saved.OriginalName)
	assert.Equal(t, int64(12), saved.Size)
	assert.True(t, strings.HasPrefix(saved.StoredName, "20260304_050607_"))

	_, err = os.Stat(filepath.Join(dir, saved.StoredName))
	require.NoError(t, err)

	data, err := r.Read(ctx, saved.StoredName)
	require.NoError(t, err)
	assert.Equal(t, "hello resume", string(data))

	require.NoError(t, r.Delete(ctx, saved.StoredName))
	_, err = r.Read(ctx, saved.StoredName)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, r.Delete(ctx, saved.StoredName))
}

func TestResumes_SaveRejectsBadFile(t *testing.T) {
	r, dir := newTestResumes(t)

	_, err := r.Save(context.Background(), "virus.exe", []byte("x"))
	assert.ErrorIs(t, err, apperror.ErrValidation)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocalStore_RejectsPaths(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "..", "a/b.pdf", "../x.pdf"} {
		assert.Error(t, store.Save(ctx, name, strings.NewReader("x"), 1, ""), name)
		_, err := store.Open(ctx, name)
		assert.Error(t, err, name)
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", ContentType("a.PDF"))
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}

type failingStore struct{ err error }

func (f failingStore) Save(context.Context, string, io.Reader, int64, string) error { return f.err }
func (f failingStore) Open(context.Context, string) (io.ReadCloser, error)         { return nil, f.err }
func (f failingStore) Delete(context.Context, string) error                        { return f.err }

func TestResumes_SaveStoreError(t *testing.T) {
	boom := errors.New("disk full")
	r := NewResumes(failingStore{err: boom}, 1024)

	_, err := r.Save(context.Background(), "cv.pdf", []byte("%PDF"))
	assert.ErrorIs(t, err, boom)
}

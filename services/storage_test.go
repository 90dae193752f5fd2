package services

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/prince-music-backend/config"
)

func fileHeader(contentType string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: "song.mp3",
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": {contentType}},
	}
}

func TestCheckUpload(t *testing.T) {
	ct, err := CheckUpload(fileHeader("audio/mpeg", 1024))
	require.NoError(t, err)
	assert.Equal(t, "audio/mpeg", ct)

	ct, err = CheckUpload(fileHeader("image/PNG; charset=binary", 10))
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)

	_, err = CheckUpload(fileHeader("application/x-msdownload", 10))
	assert.Error(t, err)

	_, err = CheckUpload(fileHeader("image/png", MaxUploadSize+1))
	assert.Error(t, err)
}

func TestNewFilename(t *testing.T) {
	a := NewFilename("image/png", "cover.PNG")
	b := NewFilename("image/png", "cover.PNG")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.Len(t, strings.TrimSuffix(a, ".png"), 26)

	assert.True(t, strings.HasSuffix(NewFilename("text/odd", "Notes.TXT"), ".txt"))
}

func TestLocalUploader(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	u, err := NewLocalUploader(dir, "http://localhost:8080/")
	require.NoError(t, err)
	ctx := context.Background()

	name := NewFilename("application/pdf", "score.pdf")
	out, err := u.Upload(ctx, name, "application/pdf", bytes.NewBufferString("%PDF-1.4"), 8)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/"+name, out.URL)
	assert.Equal(t, int64(8), out.Size)
	assert.Equal(t, "application/pdf", out.MimeType)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	ok, err := u.Exists(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = u.Exists(ctx, "missing.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocalUploader_RejectsOversizedStream(t *testing.T) {
	u, err := NewLocalUploader(t.TempDir(), "http://localhost")
	require.NoError(t, err)
	big := bytes.NewReader(make([]byte, MaxUploadSize+10))
	_, err = u.Upload(context.Background(), "big.mp4", "video/mp4", big, 0)
	assert.Error(t, err)
	ok, _ := u.Exists(context.Background(), "big.mp4")
	assert.False(t, ok)
}

func TestNewUploader(t *testing.T) {
	u, err := NewUploader(config.UploadConfig{Driver: "local", Dir: t.TempDir()}, "http://x")
	require.NoError(t, err)
	assert.IsType(t, &LocalUploader{}, u)

	_, err = NewUploader(config.UploadConfig{Driver: "supabase"}, "http://x")
	assert.Error(t, err)

	u, err = NewUploader(config.UploadConfig{
		Driver: "supabase", SupabaseURL: "https://proj.supabase.co/", SupabaseKey: "k", SupabaseBucket: "uploads",
	}, "http://x")
	require.NoError(t, err)
	assert.IsType(t, &SupabaseUploader{}, u)
}

package services

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	storage "github.com/supabase-community/storage-go"

	"github.com/vnkhanh/prince-music-backend/config"
	"github.com/vnkhanh/prince-music-backend/utils"
)

const MaxUploadSize = 5 << 20

// AllowedUploadTypes maps accepted content types to the extension stored.
var AllowedUploadTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"audio/mpeg":      ".mp3",
	"audio/mp3":       ".mp3",
	"audio/wav":       ".wav",
	"audio/x-wav":     ".wav",
	"video/mp4":       ".mp4",
	"video/mpeg":      ".mpeg",
}

type UploadedFile struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimetype"`
}

type Uploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*UploadedFile, error)
	Exists(ctx context.Context, filename string) (bool, error)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewFilename returns a time-ordered unique name with the extension for contentType.
func NewFilename(contentType, original string) string {
	entropyMu.Lock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
	entropyMu.Unlock()

	ext, ok := AllowedUploadTypes[contentType]
	if !ok {
		ext = strings.ToLower(filepath.Ext(original))
	}
	return strings.ToLower(id.String()) + ext
}

// CheckUpload enforces the size and type limits on a multipart file.
func CheckUpload(fh *multipart.FileHeader) (string, error) {
	if fh.Size > MaxUploadSize {
		return "", utils.NewValidationError("File too large. Maximum size is 5MB.")
	}
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(fh.Header.Get("Content-Type"), ";")[0]))
	if _, ok := AllowedUploadTypes[contentType]; !ok {
		return "", utils.NewValidationError("Invalid file type. Only images, PDFs, audio and video files are allowed.")
	}
	return contentType, nil
}

// LocalUploader writes files under dir and serves them from baseURL/uploads.
type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalUploader{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (u *LocalUploader) Dir() string { return u.dir }

func (u *LocalUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(u.dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	if n > MaxUploadSize {
		_ = os.Remove(path)
		return nil, utils.NewValidationError("File too large. Maximum size is 5MB.")
	}
	return &UploadedFile{
		URL:      u.baseURL + "/uploads/" + filename,
		Filename: filename,
		Size:     n,
		MimeType: contentType,
	}, nil
}

func (u *LocalUploader) Exists(_ context.Context, filename string) (bool, error) {
	_, err := os.Stat(filepath.Join(u.dir, filepath.Base(filename)))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// SupabaseUploader stores objects in a Supabase Storage bucket under uploads/.
type SupabaseUploader struct {
	client  *storage.Client
	baseURL string
	bucket  string
}

func NewSupabaseUploader(cfg config.UploadConfig) (*SupabaseUploader, error) {
	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required for the supabase upload driver")
	}
	base := strings.TrimRight(cfg.SupabaseURL, "/")
	return &SupabaseUploader{
		client:  storage.NewClient(base+"/storage/v1", cfg.SupabaseKey, nil),
		baseURL: base,
		bucket:  cfg.SupabaseBucket,
	}, nil
}

func (u *SupabaseUploader) Upload(ctx context.Context, filename, contentType string, r io.Reader, size int64) (*UploadedFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	objectPath := "uploads/" + filename
	if _, err := u.client.UploadFile(u.bucket, objectPath, r, storage.FileOptions{
		ContentType: &contentType,
	}); err != nil {
		return nil, fmt.Errorf("supabase upload: %w", err)
	}
	return &UploadedFile{
		URL:      fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, u.bucket, objectPath),
		Filename: filename,
		Size:     size,
		MimeType: contentType,
	}, nil
}

func (u *SupabaseUploader) Exists(ctx context.Context, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	files, err := u.client.ListFiles(u.bucket, "uploads", storage.FileSearchOptions{Limit: 1000})
	if err != nil {
		return false, err
	}
	for _, f := range files {
		if f.Name == filename {
			return true, nil
		}
	}
	return false, nil
}

// NewUploader picks the driver named in cfg.
func NewUploader(cfg config.UploadConfig, baseURL string) (Uploader, error) {
	switch cfg.Driver {
	case "supabase":
		return NewSupabaseUploader(cfg)
	default:
		return NewLocalUploader(cfg.Dir, baseURL)
	}
}
